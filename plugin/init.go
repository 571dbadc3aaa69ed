package plugin

import (
	"github.com/otus6-project/otus6/plugin/parser"
	"github.com/otus6-project/otus6/plugin/reporter"
)

func SeekAndRegisterModules() {
	parser.RegisterExtendedParserModule()
	reporter.RegisterExtendedReporterModule()
}

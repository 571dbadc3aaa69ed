package reporter

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/plugin"
	"github.com/otus6-project/otus6/plugins/reporter/api"
	"github.com/otus6-project/otus6/plugins/reporter/consolelog"
)

func RegisterExtendedReporterModule() {
	// Register the extended protocol codec module
	plugin.RegisterPluginType(reflect.TypeOf((*api.Reporter)(nil)).Elem())
	codecs := []api.Reporter{
		new(consolelog.Console),
	}
	for _, c := range codecs {
		plugin.RegisterPlugin(c)
	}
}

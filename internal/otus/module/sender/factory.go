package sender

import (
	"github.com/otus6-project/otus6/internal/otus/module/sender/api"
	reporter "github.com/otus6-project/otus6/plugins/reporter/api"
)

func NewSender(cfg *api.Config) api.Sender {
	s := &Sender{}
	for _, r := range s.config.ReporterConfig {
		s.reporters = append(s.reporters, reporter.GetReporter(r))
	}
	return s
}

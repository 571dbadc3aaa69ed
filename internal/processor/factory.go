package processor

import (
	"github.com/otus6-project/otus6/internal/processor/api"
	filter "github.com/otus6-project/otus6/plugins/filter/api"
)

func NewProcessor(cfg *api.Config) api.Processor {
	p := &Processor{
		config:  cfg,
		filters: make([]filter.Filter, 0),
	}
	for _, c := range p.config.FilterConfig {
		p.filters = append(p.filters, filter.GetFilter(c))
	}
	return p
}

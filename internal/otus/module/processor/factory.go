package processor

import (
	"context"
	"sync"

	"github.com/otus6-project/otus6/internal/otus/event"
	processor "github.com/otus6-project/otus6/internal/otus/module/processor/api"
	filter "github.com/otus6-project/otus6/plugins/filter/api"
)

func NewProcessor(ctx context.Context, cfg *processor.Config) processor.Processor {
	ctx, cancel := context.WithCancel(ctx)
	p := &Processor{
		config:     cfg,
		filters:    make([]filter.Filter, 0),
		inputs:     make([]chan *event.EventContext, cfg.CommonFields.Partition),
		outputs:    make([]chan *event.EventContext, cfg.CommonFields.Partition),
		partitions: make([]*partition, cfg.CommonFields.Partition),
		ctx:        ctx,
		cancel:     cancel,
		wg:         &sync.WaitGroup{},
	}
	for _, filterCfg := range cfg.FilterConfigs {
		p.filters = append(p.filters, filter.GetFilter(filterCfg))
	}
	return p
}

package api

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/otus/event"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Filter interface {
	plugin.Plugin
	PostConstruct() error
	Filter(event *event.EventContext)
}

func GetFilter(cfg plugin.Config) Filter {
	return plugin.Get(reflect.TypeOf((*Filter)(nil)).Elem(), cfg).(Filter)
}

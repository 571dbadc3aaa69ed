package api

import (
	"reflect"

	processor "github.com/otus6-project/otus6/internal/otus/module/processor/api"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Handler interface {
	plugin.Plugin
	Handle(exchange *processor.Exchange)
	PostConstruct() error
}

func GetHandler(cfg plugin.Config) Handler {
	return plugin.Get(reflect.TypeOf((*Handler)(nil)).Elem(), cfg).(Handler)
}

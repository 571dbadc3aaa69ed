package api

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/otus/api"
	"github.com/otus6-project/otus6/internal/plugin"
)

// TODO

type Reporter interface {
	plugin.Plugin
	PostConstruct() error
	Report(batch api.BatchPacket) error
	SupportProtocol() string
}

type ReporterFunc func(batch api.BatchPacket) error

func GetReporter(cfg plugin.Config) Reporter {
	return plugin.Get(reflect.TypeOf((*Reporter)(nil)).Elem(), cfg).(Reporter)
}

package api

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/otus/api"
	"github.com/otus6-project/otus6/internal/plugin"
	reporter "github.com/otus6-project/otus6/plugins/reporter/api"
)

type Fallbacker interface {
	plugin.Plugin
	Fallback(data *api.OutputPacketContext, reporter reporter.ReporterFunc) bool
}

func GetFallbacker(cfg plugin.Config) Fallbacker {
	return plugin.Get(reflect.TypeOf((*Fallbacker)(nil)).Elem(), cfg).(Fallbacker)
}

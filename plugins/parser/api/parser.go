package api

import (
	"reflect"

	"github.com/otus6-project/otus6/internal/otus/module/capture/codec"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Parser interface {
	codec.Parser
	plugin.Plugin
}

func GetParser(cfg plugin.Config) Parser {
	return plugin.Get(reflect.TypeOf((*Parser)(nil)).Elem(), cfg).(Parser)
}

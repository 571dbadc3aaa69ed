package api

import (
	"github.com/otus6-project/otus6/internal/config"
	"github.com/otus6-project/otus6/internal/otus/module/capture/codec"
	"github.com/otus6-project/otus6/internal/otus/module/capture/handle"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Config struct {
	*config.CommonFields

	HandleConfig *handle.Options `mapstructure:"handle"`
	CodecConfig  *codec.Options  `mapstructure:"codec"`
	ParserConfig []plugin.Config `mapstructure:"parsers"`
	FanoutID     uint16          `mapstructure:"fanout_id"`
}

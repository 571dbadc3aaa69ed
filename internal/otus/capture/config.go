package capture

import (
	"github.com/otus6-project/otus6/internal/config"
	"github.com/otus6-project/otus6/internal/otus/capture/codec"
	"github.com/otus6-project/otus6/internal/otus/capture/sniffer"
)

type Config struct {
	*config.CommonFields

	SnifferConfig *sniffer.Options `mapstructure:"sniffer"`
	CodecConfig   *codec.Options   `mapstructure:"codec"`
	WorkerCount   int              `mapstructure:"worker_count"`
}

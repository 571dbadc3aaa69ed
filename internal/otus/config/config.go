package config

import (
	"github.com/otus6-project/otus6/internal/config"
	"github.com/otus6-project/otus6/internal/log"
	"github.com/otus6-project/otus6/internal/otus/capture"
	"github.com/otus6-project/otus6/internal/otus/metrics"
	"github.com/otus6-project/otus6/internal/otus/sender"
	"github.com/otus6-project/otus6/internal/plugin"
	"github.com/otus6-project/otus6/internal/processor"
)

type OtusConfig struct {
	Logger  *log.LoggerConfig `mapstructure:"log"`
	Global  *GlobalConfig     `mapstructure:"global"`
	Pipes   []*PipeConfig     `mapstructure:"pipes"`
	Metrics *metrics.Config   `mapstructure:"metrics"`
}

type GlobalConfig struct {
	Capture *capture.Config `mapstructure:"capture"`
	Clients []plugin.Config `mapstructure:"clients"`
}

type PipeConfig struct {
	CommonConfig *config.CommonFields `mapstructure:"common_config"`
	Capture      *capture.Config      `mapstructure:"capture"`
	Processors   []*processor.Config  `mapstructure:"processors"`
	Sender       *sender.Config       `mapstructure:"sender"`
}

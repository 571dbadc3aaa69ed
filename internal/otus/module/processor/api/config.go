package api

import (
	"github.com/otus6-project/otus6/internal/config"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Config struct {
	*config.CommonFields

	FilterConfigs []plugin.Config `mapstructure:"filters"`
}

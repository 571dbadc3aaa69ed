package processor

import (
	"github.com/otus6-project/otus6/internal/config"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Config struct {
	*config.CommonFields
	FilterConfig []plugin.Config `mapstructure:"filters"`
}

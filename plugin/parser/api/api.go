package api

import (
	"github.com/otus6-project/otus6/internal/otus/capture/codec"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Parser interface {
	codec.Parser
	plugin.Plugin
}

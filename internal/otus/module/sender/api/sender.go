package api

import (
	"github.com/otus6-project/otus6/internal/otus/api"
	module "github.com/otus6-project/otus6/internal/otus/module/api"
)

type Sender interface {
	module.Module

	InputNetPacketChannel() chan<- *api.OutputPacketContext
	SetCapture(c module.Module) error
}

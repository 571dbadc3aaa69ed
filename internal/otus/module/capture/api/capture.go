package api

import (
	"github.com/otus6-project/otus6/internal/otus/api"
	module "github.com/otus6-project/otus6/internal/otus/module/api"
)

type Capture interface {
	module.Module

	PartitionCount() int
	OutputPacketChannel(partition int) chan *api.BatchePacket
	SetProcessor(processor module.Module)
}

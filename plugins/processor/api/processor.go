package api

import (
	otus "github.com/otus6-project/otus6/internal/otus/api"
	"github.com/otus6-project/otus6/internal/plugin"
)

type Processor interface {
	plugin.Plugin
	Process(packet *otus.NetPacket) error
	SetInputChannel(partition int, ch <-chan *otus.NetPacket) error
	SetOutputChannel(partition int, ch chan<- *otus.OutputPacketContext) error
	IsChannelSet(partition int) bool
}

package codec

import (
	"context"
	"time"
)

// NetworkMessage is the normalized unit handed off to downstream handlers
// once a packet (or a reassembled datagram) has been decoded down to its
// transport layer.
type NetworkMessage struct {
	IPVersion       uint8
	TransportProto  uint8
	SourceAddr      []byte
	DestinationAddr []byte
	SourcePort      uint16
	DestinationPort uint16
	TimestampSec    uint32
	TimestampMicro  uint32
	Content         []byte
	TCPFlags        uint8

	// Protocol set by ApplicationProcessor once classified (sip/rtp/rtcp/"").
	Protocol string
	CallID   string
}

// CaptureMetadata carries the per-packet facts the capture layer already
// knows (timestamp, lengths) so processors don't need a gopacket.CaptureInfo
// dependency threaded through every call.
type CaptureMetadata struct {
	Timestamp     time.Time
	CaptureLength int
	PacketLength  int
}

// PacketProcessor is the shared entry point both the IPv4 and IPv6
// processors implement, so SimplifiedDecoder can drive either one
// uniformly.
type PacketProcessor interface {
	ProcessPacket(ctx context.Context, rawData []byte, meta *CaptureMetadata) error
	Start(ctx context.Context) error
	Stop() error
	GetMetrics() *ProcessorMetrics
}

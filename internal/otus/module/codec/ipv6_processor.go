package codec

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/otus6-project/otus6/internal/log"
	"github.com/otus6-project/otus6/internal/otus/module/codec/reassembly6"
)

// IPv6PacketProcessor is the IPv6 analogue of IPv4PacketProcessor: it
// parses Ethernet/IPv6(+Fragment) frames, feeds fragmented datagrams
// through a reassembly6.Engine, and hands completed or unfragmented
// datagrams to the same application-layer classification IPv4 traffic
// gets.
type IPv6PacketProcessor struct {
	reassembler        *reassembly6.Engine
	applicationHandler *ApplicationProcessor
	outputChannel      chan<- *NetworkMessage
	metrics            *ProcessorMetrics
	config             *ProcessorConfig

	layerParser   *gopacket.DecodingLayerParser
	decodedLayers []gopacket.LayerType

	// A second parser, rooted at IPv6, re-decodes a reassembled datagram
	// buffer (no Ethernet framing survives reassembly).
	reassembledParser *gopacket.DecodingLayerParser

	ethernetLayer layers.Ethernet
	ipv6Layer     layers.IPv6
	ipv6Fragment  layers.IPv6Fragment
	tcpLayer      layers.TCP
	udpLayer      layers.UDP

	reassembledIPv6 layers.IPv6
	reassembledTCP  layers.TCP
	reassembledUDP  layers.UDP

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running int32
}

// NewIPv6PacketProcessor creates a new IPv6 packet processor backed by a
// reassembly6.Engine built from config.IPv6Reassembly.
func NewIPv6PacketProcessor(config *ProcessorConfig, outputChan chan<- *NetworkMessage) (*IPv6PacketProcessor, error) {
	if config == nil {
		config = DefaultProcessorConfig()
	}

	engine, err := reassembly6.NewEngineFromConfig(config.IPv6Reassembly)
	if err != nil {
		return nil, fmt.Errorf("ipv6 reassembly engine: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	processor := &IPv6PacketProcessor{
		reassembler:   engine,
		config:        config,
		outputChannel: outputChan,
		metrics: &ProcessorMetrics{
			StartTime: time.Now(),
		},
		ctx:    ctx,
		cancel: cancel,
	}

	processor.applicationHandler = NewApplicationProcessor(processor.metrics)

	processor.layerParser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet,
		&processor.ethernetLayer,
		&processor.ipv6Layer,
		&processor.ipv6Fragment,
		&processor.tcpLayer,
		&processor.udpLayer,
	)
	processor.layerParser.IgnoreUnsupported = true
	processor.decodedLayers = make([]gopacket.LayerType, 0, 10)

	processor.reassembledParser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeIPv6,
		&processor.reassembledIPv6,
		&processor.reassembledTCP,
		&processor.reassembledUDP,
	)
	processor.reassembledParser.IgnoreUnsupported = true

	return processor, nil
}

// ProcessPacket implements PacketProcessor.
func (p *IPv6PacketProcessor) ProcessPacket(ctx context.Context, rawData []byte, meta *CaptureMetadata) error {
	if atomic.LoadInt32(&p.running) == 0 {
		return fmt.Errorf("processor not started")
	}

	if err := p.layerParser.DecodeLayers(rawData, &p.decodedLayers); err != nil {
		atomic.AddUint64(&p.metrics.ProcessingErrors, 1)
		return err
	}

	for _, layerType := range p.decodedLayers {
		if layerType == layers.LayerTypeIPv6 {
			return p.handleIPv6Packet(meta)
		}
	}
	return nil
}

// Start implements PacketProcessor.
func (p *IPv6PacketProcessor) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.running, 0, 1) {
		return fmt.Errorf("processor already running")
	}
	p.wg.Add(1)
	go p.maintenanceLoop()
	return nil
}

// Stop implements PacketProcessor.
func (p *IPv6PacketProcessor) Stop() error {
	if !atomic.CompareAndSwapInt32(&p.running, 1, 0) {
		return fmt.Errorf("processor not running")
	}
	p.cancel()
	p.wg.Wait()
	p.reassembler.Close()
	return nil
}

// GetMetrics implements PacketProcessor.
func (p *IPv6PacketProcessor) GetMetrics() *ProcessorMetrics {
	return &ProcessorMetrics{
		IPv6Packets:              atomic.LoadUint64(&p.metrics.IPv6Packets),
		IPv6FragmentedPackets:    atomic.LoadUint64(&p.metrics.IPv6FragmentedPackets),
		IPv6ReassembledDatagrams: atomic.LoadUint64(&p.metrics.IPv6ReassembledDatagrams),
		IPv6ReassemblyDrops:      atomic.LoadUint64(&p.metrics.IPv6ReassemblyDrops),
		IPv6ReassemblyEvictions:  atomic.LoadUint64(&p.metrics.IPv6ReassemblyEvictions),
		TCPPackets:               atomic.LoadUint64(&p.metrics.TCPPackets),
		UDPPackets:               atomic.LoadUint64(&p.metrics.UDPPackets),
		SIPMessages:              atomic.LoadUint64(&p.metrics.SIPMessages),
		RTPPackets:               atomic.LoadUint64(&p.metrics.RTPPackets),
		RTCPPackets:              atomic.LoadUint64(&p.metrics.RTCPPackets),
		ProcessingErrors:         atomic.LoadUint64(&p.metrics.ProcessingErrors),
		StartTime:                p.metrics.StartTime,
	}
}

// Process mirrors IPv4PacketProcessor.Process's signature so a capture
// loop can drive either processor identically.
func (p *IPv6PacketProcessor) Process(data []byte, ci *gopacket.CaptureInfo) {
	meta := &CaptureMetadata{
		Timestamp:     ci.Timestamp,
		CaptureLength: ci.CaptureLength,
		PacketLength:  ci.Length,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := p.ProcessPacket(ctx, data, meta); err != nil {
		debugf("ipv6: process packet: %v", err)
	}
}

// debugf logs through the shared logrus-backed logger when one has been
// initialized (internal/log.Init), and is a no-op otherwise.
func debugf(format string, args ...interface{}) {
	if l := log.GetLogger(); l != nil {
		l.Debugf(format, args...)
	}
}

// handleIPv6Packet dispatches a decoded IPv6 packet: unfragmented traffic
// goes straight to the transport handlers, fragments go through the
// reassembly engine first.
func (p *IPv6PacketProcessor) handleIPv6Packet(meta *CaptureMetadata) error {
	atomic.AddUint64(&p.metrics.IPv6Packets, 1)

	fragmented := false
	for _, layerType := range p.decodedLayers {
		if layerType == layers.LayerTypeIPv6Fragment {
			fragmented = true
			break
		}
	}

	if !fragmented {
		return p.processTransportLayers(p.ipv6Layer.SrcIP, p.ipv6Layer.DstIP, meta)
	}

	atomic.AddUint64(&p.metrics.IPv6FragmentedPackets, 1)
	return p.handleFragment(meta)
}

// handleFragment feeds one fragment through the reassembly engine and, if
// it completes a datagram, re-parses the result for the transport layer.
func (p *IPv6PacketProcessor) handleFragment(meta *CaptureMetadata) error {
	// Every fragment carries the unfragmentable part; the engine keeps the
	// first copy it sees and counts it toward the minimum-MTU check.
	unfrag := append([]byte(nil), p.ipv6Layer.Contents...)

	in := reassembly6.FragmentInput{
		SrcAddr:        reassembly6.AddrFrom16(p.ipv6Layer.SrcIP),
		DstAddr:        reassembly6.AddrFrom16(p.ipv6Layer.DstIP),
		Identification: p.ipv6Fragment.Identification,
		NextHeader:     uint8(p.ipv6Fragment.NextHeader),
		Unfragmentable: unfrag,
		Fragmentable:   p.ipv6Fragment.Payload,
		Offset:         p.ipv6Fragment.FragmentOffset * 8,
		MoreFragments:  p.ipv6Fragment.MoreFragments,
		Now:            meta.Timestamp.Unix(),
	}

	datagram := p.reassembler.ManageFragment(in)

	stats := p.reassembler.Stats()
	atomic.StoreUint64(&p.metrics.IPv6ReassemblyDrops, stats.Drops)
	atomic.StoreUint64(&p.metrics.IPv6ReassemblyEvictions, stats.Evictions)

	if datagram == nil {
		return nil
	}
	atomic.AddUint64(&p.metrics.IPv6ReassembledDatagrams, 1)

	return p.processReassembledDatagram(datagram, meta)
}

// processReassembledDatagram re-decodes a completed datagram (IPv6 header
// plus transport payload, no link-layer framing) and forwards it like any
// other transport message.
func (p *IPv6PacketProcessor) processReassembledDatagram(datagram []byte, meta *CaptureMetadata) error {
	var decoded []gopacket.LayerType
	if err := p.reassembledParser.DecodeLayers(datagram, &decoded); err != nil {
		atomic.AddUint64(&p.metrics.ProcessingErrors, 1)
		return err
	}

	for _, layerType := range decoded {
		switch layerType {
		case layers.LayerTypeTCP:
			atomic.AddUint64(&p.metrics.TCPPackets, 1)
			return p.emit(&NetworkMessage{
				IPVersion:       6,
				TransportProto:  uint8(layers.IPProtocolTCP),
				SourceAddr:      p.reassembledIPv6.SrcIP,
				DestinationAddr: p.reassembledIPv6.DstIP,
				SourcePort:      uint16(p.reassembledTCP.SrcPort),
				DestinationPort: uint16(p.reassembledTCP.DstPort),
				TimestampSec:    uint32(meta.Timestamp.Unix()),
				TimestampMicro:  uint32(meta.Timestamp.Nanosecond() / 1000),
				Content:         p.reassembledTCP.Payload,
			})
		case layers.LayerTypeUDP:
			atomic.AddUint64(&p.metrics.UDPPackets, 1)
			return p.emit(&NetworkMessage{
				IPVersion:       6,
				TransportProto:  uint8(layers.IPProtocolUDP),
				SourceAddr:      p.reassembledIPv6.SrcIP,
				DestinationAddr: p.reassembledIPv6.DstIP,
				SourcePort:      uint16(p.reassembledUDP.SrcPort),
				DestinationPort: uint16(p.reassembledUDP.DstPort),
				TimestampSec:    uint32(meta.Timestamp.Unix()),
				TimestampMicro:  uint32(meta.Timestamp.Nanosecond() / 1000),
				Content:         p.reassembledUDP.Payload,
			})
		}
	}
	return nil
}

// processTransportLayers handles an unfragmented IPv6 packet's transport
// layer, already decoded into p's cached layer structs.
func (p *IPv6PacketProcessor) processTransportLayers(src, dst []byte, meta *CaptureMetadata) error {
	for _, layerType := range p.decodedLayers {
		switch layerType {
		case layers.LayerTypeTCP:
			atomic.AddUint64(&p.metrics.TCPPackets, 1)
			return p.emit(&NetworkMessage{
				IPVersion:       6,
				TransportProto:  uint8(layers.IPProtocolTCP),
				SourceAddr:      src,
				DestinationAddr: dst,
				SourcePort:      uint16(p.tcpLayer.SrcPort),
				DestinationPort: uint16(p.tcpLayer.DstPort),
				TimestampSec:    uint32(meta.Timestamp.Unix()),
				TimestampMicro:  uint32(meta.Timestamp.Nanosecond() / 1000),
				Content:         p.tcpLayer.Payload,
			})
		case layers.LayerTypeUDP:
			atomic.AddUint64(&p.metrics.UDPPackets, 1)
			return p.emit(&NetworkMessage{
				IPVersion:       6,
				TransportProto:  uint8(layers.IPProtocolUDP),
				SourceAddr:      src,
				DestinationAddr: dst,
				SourcePort:      uint16(p.udpLayer.SrcPort),
				DestinationPort: uint16(p.udpLayer.DstPort),
				TimestampSec:    uint32(meta.Timestamp.Unix()),
				TimestampMicro:  uint32(meta.Timestamp.Nanosecond() / 1000),
				Content:         p.udpLayer.Payload,
			})
		}
	}
	return nil
}

// emit runs msg through application classification and pushes it to the
// output channel, same as IPv4PacketProcessor.processTransportMessage.
func (p *IPv6PacketProcessor) emit(msg *NetworkMessage) error {
	processedMsg, err := p.applicationHandler.ProcessMessage(msg)
	if err != nil {
		return err
	}
	if processedMsg == nil {
		return nil
	}

	select {
	case p.outputChannel <- processedMsg:
		return nil
	default:
		return fmt.Errorf("output channel full")
	}
}

// maintenanceLoop periodically logs reassembly engine stats, mirroring
// IPv4PacketProcessor's maintenance loop.
func (p *IPv6PacketProcessor) maintenanceLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			stats := p.reassembler.Stats()
			debugf("ipv6 reassembly: used_mem=%d fragments=%d complete=%d drops=%d evictions=%d",
				stats.TotalUsedMem, stats.FragmentsReceived, stats.DatagramsComplete, stats.Drops, stats.Evictions)
		}
	}
}

package codec

import "time"

// ProcessorMetrics holds the running counters exposed by both packet
// processors. Fields are updated with atomic.Add* against the live
// instance and copied out by GetMetrics.
type ProcessorMetrics struct {
	IPv4Packets       uint64
	TCPPackets        uint64
	UDPPackets        uint64
	SCTPPackets       uint64
	FragmentedPackets uint64
	SIPMessages       uint64
	RTPPackets        uint64
	RTCPPackets       uint64
	ProcessingErrors  uint64

	// IPv6-specific counters, populated by IPv6PacketProcessor.
	IPv6Packets              uint64
	IPv6FragmentedPackets    uint64
	IPv6ReassembledDatagrams uint64
	IPv6ReassemblyDrops      uint64
	IPv6ReassemblyEvictions  uint64

	StartTime time.Time
}

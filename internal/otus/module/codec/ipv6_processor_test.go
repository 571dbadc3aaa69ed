package codec

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otus6-project/otus6/internal/otus/module/codec/reassembly6"
)

func testIPv6ProcessorConfig() *ProcessorConfig {
	cfg := DefaultProcessorConfig()
	// Small test payloads fall well under a real link MTU; the test
	// doesn't care about the minimum-fragment-size policy.
	cfg.IPv6Reassembly.EnforceMinimumMTU = false
	return cfg
}

func newTestIPv6Processor(t *testing.T) (*IPv6PacketProcessor, chan *NetworkMessage) {
	t.Helper()
	out := make(chan *NetworkMessage, 8)
	p, err := NewIPv6PacketProcessor(testIPv6ProcessorConfig(), out)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Stop() })
	return p, out
}

// buildUnfragmentedUDPv6 serializes a single Ethernet+IPv6+UDP frame.
func buildUnfragmentedUDPv6(t *testing.T, src, dst net.IP, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0xaa, 0xbb, 0xcc, 0xdd, 0xee},
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := &layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolUDP,
		HopLimit:   64,
		SrcIP:      src,
		DstIP:      dst,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip6))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip6, udp, gopacket.Payload(payload)))
	return buf.Bytes()
}

// buildIPv6FragmentFrame serializes one Ethernet+IPv6+IPv6Fragment frame
// carrying a raw fragmentable payload (not itself a serialized UDP layer,
// since only the reassembled datagram needs to parse as one).
func buildIPv6FragmentFrame(t *testing.T, src, dst net.IP, id uint32, fragOffsetUnits uint16, moreFrags bool, fragmentable []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0xaa, 0xbb, 0xcc, 0xdd, 0xee},
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := &layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolIPv6Fragment,
		HopLimit:   64,
		SrcIP:      src,
		DstIP:      dst,
	}
	frag := &layers.IPv6Fragment{
		NextHeader:     layers.IPProtocolUDP,
		FragmentOffset: fragOffsetUnits,
		MoreFragments:  moreFrags,
		Identification: id,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip6, frag, gopacket.Payload(fragmentable)))
	return buf.Bytes()
}

func captureInfo(data []byte, when time.Time) *gopacket.CaptureInfo {
	return &gopacket.CaptureInfo{Timestamp: when, CaptureLength: len(data), Length: len(data)}
}

func TestIPv6PacketProcessorUnfragmentedUDP(t *testing.T) {
	p, out := newTestIPv6Processor(t)

	src := net.ParseIP("2001:db8::10")
	dst := net.ParseIP("2001:db8::20")
	pkt := buildUnfragmentedUDPv6(t, src, dst, 6000, 6001, []byte("hello"))

	p.Process(pkt, captureInfo(pkt, time.Now()))

	select {
	case msg := <-out:
		assert.Equal(t, uint8(6), msg.IPVersion)
		assert.Equal(t, uint16(6000), msg.SourcePort)
		assert.Equal(t, uint16(6001), msg.DestinationPort)
		assert.Equal(t, []byte("hello"), msg.Content)
	default:
		t.Fatal("expected a message on the output channel")
	}

	metrics := p.GetMetrics()
	assert.EqualValues(t, 1, metrics.IPv6Packets)
	assert.EqualValues(t, 1, metrics.UDPPackets)
	assert.EqualValues(t, 0, metrics.IPv6FragmentedPackets)
}

func TestIPv6PacketProcessorReassemblesFragments(t *testing.T) {
	p, out := newTestIPv6Processor(t)

	src := net.ParseIP("2001:db8::1")
	dst := net.ParseIP("2001:db8::2")
	now := time.Now()

	// UDP header (8 bytes, length=20 covering 12 bytes of payload split
	// across two fragments) + first 8 bytes of payload in fragment one;
	// fragment offsets are counted in 8-byte units, so every non-final
	// fragment's fragmentable part must itself be a multiple of 8 bytes.
	udpHeader := []byte{0x17, 0x70, 0x17, 0x71, 0x00, 0x14, 0x00, 0x00} // ports 6000/6001, length 20
	first := append(append([]byte(nil), udpHeader...), []byte("AAAAAAAA")...)
	require.Zero(t, len(first)%8)

	pkt1 := buildIPv6FragmentFrame(t, src, dst, 0x1234, 0, true, first)
	p.Process(pkt1, captureInfo(pkt1, now))

	select {
	case <-out:
		t.Fatal("first fragment alone must not complete a datagram")
	default:
	}

	pkt2 := buildIPv6FragmentFrame(t, src, dst, 0x1234, uint16(len(first))/8, false, []byte("BBBB"))
	p.Process(pkt2, captureInfo(pkt2, now))

	select {
	case msg := <-out:
		assert.Equal(t, uint8(6), msg.IPVersion)
		assert.Equal(t, uint16(6000), msg.SourcePort)
		assert.Equal(t, uint16(6001), msg.DestinationPort)
		assert.Equal(t, []byte("AAAAAAAABBBB"), msg.Content)
	default:
		t.Fatal("expected the reassembled datagram to be emitted")
	}

	metrics := p.GetMetrics()
	assert.EqualValues(t, 2, metrics.IPv6Packets)
	assert.EqualValues(t, 2, metrics.IPv6FragmentedPackets)
	assert.EqualValues(t, 1, metrics.IPv6ReassembledDatagrams)
}

func TestIPv6PacketProcessorIncompleteFragmentEmitsNothing(t *testing.T) {
	p, out := newTestIPv6Processor(t)

	src := net.ParseIP("2001:db8::3")
	dst := net.ParseIP("2001:db8::4")

	// A lone, non-leading final fragment: MoreFragments=false but the
	// first fragment (offset 0) never arrives, so the engine never
	// completes the datagram.
	pkt := buildIPv6FragmentFrame(t, src, dst, 0xbeef, 8, false, []byte("tail-only"))
	p.Process(pkt, captureInfo(pkt, time.Now()))

	select {
	case <-out:
		t.Fatal("an incomplete fragment chain must not emit a message")
	default:
	}

	assert.EqualValues(t, 0, p.GetMetrics().IPv6ReassembledDatagrams)
}

func TestIPv6PacketProcessorStats(t *testing.T) {
	engine := reassembly6.NewEngine(4)
	require.NotNil(t, engine)
	stats := engine.Stats()
	assert.Zero(t, stats.FragmentsReceived)
	engine.Close()
}

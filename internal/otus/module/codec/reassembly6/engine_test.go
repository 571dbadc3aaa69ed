package reassembly6_test

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otus6-project/otus6/internal/otus/module/codec/reassembly6"
)

func ipv6Header(src, dst net.IP) []byte {
	h := make([]byte, 40)
	h[0] = 0x60
	h[6] = 44 // fragment header, spliced out on completion
	h[7] = 64
	copy(h[8:24], src.To16())
	copy(h[24:40], dst.To16())
	return h
}

func input(src, dst net.IP, id uint32, offset int, data string, more bool, now int64, unfrag []byte) reassembly6.FragmentInput {
	return reassembly6.FragmentInput{
		SrcAddr:        reassembly6.AddrFrom16(src),
		DstAddr:        reassembly6.AddrFrom16(dst),
		Identification: id,
		NextHeader:     17, // UDP
		Unfragmentable: unfrag,
		Fragmentable:   []byte(data),
		Offset:         uint16(offset),
		MoreFragments:  more,
		Now:            now,
	}
}

func newEngine(t *testing.T) *reassembly6.Engine {
	t.Helper()
	e := reassembly6.NewEngine(64)
	require.NotNil(t, e)
	// These fixtures are all well under the real IPv6 minimum link MTU;
	// the scenarios test reassembly logic, not MTU policy.
	e.SetEnforceMinimumMTU(false)
	return e
}

var (
	src1 = net.ParseIP("::1")
	dst1 = net.ParseIP("::2")
)

func TestS1SimpleTwoFragmentReassembly(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)

	out := e.ManageFragment(input(src1, dst1, 0x1234, 0, "AAAA", true, 10, hdr))
	assert.Nil(t, out)

	out = e.ManageFragment(input(src1, dst1, 0x1234, 4, "BBBB", false, 10, nil))
	require.NotNil(t, out)
	assert.Equal(t, "AAAABBBB", string(out[40:]))
}

func TestS2OutOfOrder(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)

	out := e.ManageFragment(input(src1, dst1, 0x1234, 8, "CCCC", false, 10, hdr))
	assert.Nil(t, out)
	out = e.ManageFragment(input(src1, dst1, 0x1234, 0, "AAAA", true, 10, nil))
	assert.Nil(t, out)
	out = e.ManageFragment(input(src1, dst1, 0x1234, 4, "BBBB", true, 10, nil))
	require.NotNil(t, out)
	assert.Equal(t, "AAAABBBBCCCC", string(out[40:]))
}

func TestS3DuplicateTerminalStartsFreshDatagram(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)

	out := e.ManageFragment(input(src1, dst1, 0x1234, 0, "AAAAAAAA", false, 10, hdr))
	require.NotNil(t, out)
	assert.Equal(t, "AAAAAAAA", string(out[40:]))

	// Same id, fresh flow since the first one already completed.
	out = e.ManageFragment(input(src1, dst1, 0x1234, 0, "ZZZZZZZZ", false, 10, hdr))
	require.NotNil(t, out)
	assert.Equal(t, "ZZZZZZZZ", string(out[40:]))
}

func TestS4Overlap(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)

	out := e.ManageFragment(input(src1, dst1, 0x1234, 0, "AAAA", true, 10, hdr))
	assert.Nil(t, out)
	out = e.ManageFragment(input(src1, dst1, 0x1234, 2, "XXXX", true, 10, nil))
	assert.Nil(t, out)
	out = e.ManageFragment(input(src1, dst1, 0x1234, 6, "BB", false, 10, nil))
	require.NotNil(t, out)
	assert.Equal(t, "AAAAXXBB", string(out[40:]))
}

func TestS5Expiry(t *testing.T) {
	e := newEngine(t)
	e.SetReassemblyTimeout(1)
	hdr := ipv6Header(src1, dst1)

	out := e.ManageFragment(input(src1, dst1, 0x1234, 0, "AAAA", true, 10, hdr))
	assert.Nil(t, out)
	before := e.Stats().TotalUsedMem
	assert.Greater(t, before, uint32(0))

	// A different source address: the first flow's expiry must not abort
	// this call (that quirk only applies when eviction empties the
	// source that owns the *current* fragment — see eviction.go).
	src2 := net.ParseIP("::3")
	dst2 := net.ParseIP("::4")
	out = e.ManageFragment(input(src2, dst2, 0x5678, 0, "ZZZZ", true, 12, ipv6Header(src2, dst2)))
	assert.Nil(t, out)

	stats := e.Stats()
	assert.Greater(t, stats.Evictions, uint64(0))
	// Only the second flow's fragment contributes now.
	assert.Equal(t, uint32(len("ZZZZ")+40)+flowMemProbe(), stats.TotalUsedMem)
}

// flowMemProbe returns the fixed per-flow/per-source overhead the engine
// charges beyond raw payload bytes, derived empirically from a single
// minimal flow so the expiry test doesn't hardcode internal constants.
func flowMemProbe() uint32 {
	e := reassembly6.NewEngine(1)
	e.SetEnforceMinimumMTU(false)
	hdr := ipv6Header(src1, dst1)
	e.ManageFragment(reassembly6.FragmentInput{
		SrcAddr:        reassembly6.AddrFrom16(src1),
		DstAddr:        reassembly6.AddrFrom16(dst1),
		Identification: 1,
		NextHeader:     17,
		Unfragmentable: hdr,
		Fragmentable:   []byte("X"),
		Offset:         0,
		MoreFragments:  true,
		Now:            0,
	})
	return e.Stats().TotalUsedMem - uint32(len("X")) - 40
}

func TestS6PerSourceCap(t *testing.T) {
	e := newEngine(t)
	e.SetPerHostMemoryLimit(256)

	for i := 0; i < 50; i++ {
		hdr := ipv6Header(src1, dst1)
		lastSize := 16
		e.ManageFragment(reassembly6.FragmentInput{
			SrcAddr:        reassembly6.AddrFrom16(src1),
			DstAddr:        reassembly6.AddrFrom16(dst1),
			Identification: uint32(i),
			NextHeader:     17,
			Unfragmentable: hdr,
			Fragmentable:   make([]byte, lastSize),
			Offset:         0,
			MoreFragments:  true,
			Now:            int64(i),
		})
		stats := e.Stats()
		// Eviction runs only before a fragment is inserted, so a single
		// call can add one whole new flow (overhead, stashed header and
		// payload) on top of the cap.
		assert.LessOrEqual(t, stats.TotalUsedMem, uint32(256+len(hdr)+lastSize)+flowMemProbe())
	}
}

func TestBoundaryEndExactly65535Accepted(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)
	data := make([]byte, 5)
	out := e.ManageFragment(reassembly6.FragmentInput{
		SrcAddr:        reassembly6.AddrFrom16(src1),
		DstAddr:        reassembly6.AddrFrom16(dst1),
		Identification: 1,
		NextHeader:     17,
		Unfragmentable: hdr,
		Fragmentable:   data,
		Offset:         65530,
		MoreFragments:  false,
		Now:            0,
	})
	assert.Nil(t, out) // incomplete (hole at [0,65530)), but not rejected for size
	assert.Equal(t, uint64(0), e.Stats().Drops)
}

func TestBoundaryEnd65536Rejected(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)
	data := make([]byte, 6)
	out := e.ManageFragment(reassembly6.FragmentInput{
		SrcAddr:        reassembly6.AddrFrom16(src1),
		DstAddr:        reassembly6.AddrFrom16(dst1),
		Identification: 1,
		NextHeader:     17,
		Unfragmentable: hdr,
		Fragmentable:   data,
		Offset:         65530,
		MoreFragments:  false,
		Now:            0,
	})
	assert.Nil(t, out)
	assert.Equal(t, uint64(1), e.Stats().Drops)
}

func TestAccountingReturnsToZeroAfterCompletion(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)
	e.ManageFragment(input(src1, dst1, 42, 0, "AAAA", true, 0, hdr))
	out := e.ManageFragment(input(src1, dst1, 42, 4, "BBBB", false, 0, nil))
	require.NotNil(t, out)
	assert.Equal(t, uint32(0), e.Stats().TotalUsedMem)
}

func TestDuplicateFragmentIsAccountingIdempotent(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)
	e.ManageFragment(input(src1, dst1, 7, 0, "AAAA", true, 0, hdr))
	afterFirst := e.Stats().TotalUsedMem
	e.ManageFragment(input(src1, dst1, 7, 0, "AAAA", true, 0, nil))
	assert.Equal(t, afterFirst, e.Stats().TotalUsedMem)
}

func TestPayloadLengthPatchedOnCompletion(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)
	e.ManageFragment(input(src1, dst1, 99, 0, "AAAA", true, 0, hdr))
	out := e.ManageFragment(input(src1, dst1, 99, 4, "BBBB", false, 0, nil))
	require.NotNil(t, out)
	payloadLen := binary.BigEndian.Uint16(out[4:6])
	assert.Equal(t, uint16(8), payloadLen)
	assert.Equal(t, byte(17), out[6]) // next header spliced in, fragment header (44) gone
}

func TestMalformedOffsetPastKnownLengthRejected(t *testing.T) {
	e := newEngine(t)
	hdr := ipv6Header(src1, dst1)
	// Terminal fragment arrives first, out at offset 100: pins length=104
	// but leaves a hole at [0,100), so the flow stays incomplete.
	out := e.ManageFragment(input(src1, dst1, 1, 100, "AAAA", false, 0, hdr))
	require.Nil(t, out)
	// A later fragment starting past the pinned length is malformed.
	out = e.ManageFragment(input(src1, dst1, 1, 200, "ZZZZ", true, 0, nil))
	assert.Nil(t, out)
	assert.Equal(t, uint64(1), e.Stats().Drops)
}

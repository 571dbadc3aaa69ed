package reassembly6

import "encoding/binary"

// buildCompleteDatagram assembles the full datagram buffer for a flow
// whose fragment train is known-complete (length pinned, no holes from
// 0). It always destroys the flow — and its source, if that was the
// source's last flow — whether assembly succeeds or not. Returns nil on
// any inconsistency (spec.md §4.7).
func (e *Engine) buildCompleteDatagram(f *flow) []byte {
	total := len(f.unfragmentable) + f.length
	if total > maxDatagramSize {
		e.drops++
		e.destroyFlowCascade(f)
		return nil
	}

	buf := make([]byte, total)
	copy(buf, f.unfragmentable)

	if n := compact(f.fragments, buf[len(f.unfragmentable):], f.length); n < 0 {
		e.drops++
		e.destroyFlowCascade(f)
		return nil
	}

	patchPayloadLength(buf, len(f.unfragmentable), f.length)
	e.destroyFlowCascade(f)
	return buf
}

// patchPayloadLength overwrites the IPv6 payload-length field inside the
// unfragmentable header, in network byte order, with the size of
// everything the base IPv6 header doesn't already cover: extension
// headers plus the reassembled payload.
func patchPayloadLength(buf []byte, unfragLen, payloadLen int) {
	if unfragLen < ipv6HeaderSize {
		return
	}
	binary.BigEndian.PutUint16(buf[ipv6PayloadLengthOffset:ipv6PayloadLengthOffset+2], uint16(payloadLen+unfragLen-ipv6HeaderSize))
}

package reassembly6

import "net"

// minimumMTU is the IPv6 minimum link MTU (RFC 8200 §5): a conformant
// sender never needs to fragment below this, so any fragment whose
// total packet size (unfragmentable part, fragment header and
// fragmentable part) falls under it is rejected outright.
const minimumMTU = 1280

// ipv6FragmentHeaderSize is the fixed length of the IPv6 fragment
// header, which sits between the unfragmentable and fragmentable parts.
const ipv6FragmentHeaderSize = 8

// maxDatagramSize is the largest offset/end/total payload the 16-bit
// fragment-offset and payload-length fields can express.
const maxDatagramSize = 65535

// ipv6NextHeaderOffset is the byte position of the Next Header field
// within a (stashed) IPv6 header — always the 7th byte, regardless of
// how many extension headers follow it.
const ipv6NextHeaderOffset = 6

// ipv6PayloadLengthOffset is the byte position of the Payload Length
// field within an IPv6 header.
const ipv6PayloadLengthOffset = 4

// ipv6HeaderSize is the fixed IPv6 header length.
const ipv6HeaderSize = 40

// FragmentInput carries the fields a dispatcher has already extracted
// from an IPv6 packet and its fragment header, as required by
// manage_fragment's external interface (spec.md §6): the engine never
// touches the link layer or walks IPv6 extension headers itself.
type FragmentInput struct {
	SrcAddr        [16]byte
	DstAddr        [16]byte
	Identification uint32
	NextHeader     uint8

	// Unfragmentable is the IPv6 header plus any extension headers up
	// to, but not including, the fragment header. Only the first
	// fragment to arrive for a flow contributes this; later arrivals'
	// copies are ignored. Its length also counts toward the minimum-MTU
	// check, so it is supplied with every fragment.
	Unfragmentable []byte

	// Fragmentable is this fragment's slice of the original payload.
	Fragmentable []byte

	// Offset is this fragment's byte offset within the reconstructed
	// datagram payload.
	Offset uint16

	// MoreFragments is the fragment header's M flag; false marks the
	// terminal fragment and pins the datagram's total length.
	MoreFragments bool

	// Now is the caller-supplied monotonic second counter (spec.md §1:
	// the engine has no clock source of its own).
	Now int64
}

// AddrFrom16 converts a net.IP (4- or 16-byte form) into the engine's
// fixed-size address representation.
func AddrFrom16(ip net.IP) [16]byte {
	var out [16]byte
	copy(out[:], ip.To16())
	return out
}

// ManageFragment accepts one IPv6 fragment and either buffers it (nil
// result) or returns the fully reassembled datagram once the last
// fragment needed arrives. Every failure mode — undersize, oversize,
// malformed, redundant-terminal, or resource pressure — collapses to a
// nil result; the engine never fails loudly (spec.md §7).
func (e *Engine) ManageFragment(in FragmentInput) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manageFragmentLocked(in)
}

func (e *Engine) manageFragmentLocked(in FragmentInput) []byte {
	e.fragmentsReceived++

	// 1. Minimum MTU check.
	if e.enforceMinimumMTU && len(in.Unfragmentable)+ipv6FragmentHeaderSize+len(in.Fragmentable) < minimumMTU {
		e.drops++
		return nil
	}

	// 2. Oversize check.
	end := in.Offset + uint16(len(in.Fragmentable))
	if int(in.Offset)+len(in.Fragmentable) > maxDatagramSize {
		e.drops++
		return nil
	}

	// 3. find_or_create(source).
	src, created := e.sources.findOrCreate(in.SrcAddr)
	if created {
		e.chargeMem(src, sourceOverhead)
	}

	// 4. Eviction, per §4.5. A branch that deletes an emptied *existing*
	// source aborts the whole call; a just-created source (no flow yet
	// — step 5 hasn't run) is exempt, see evict's created parameter.
	if e.evict(src, in.Now, created) {
		return nil
	}

	// 5. find_or_create(flow).
	fl := src.findFlow(in.Identification, in.DstAddr)
	if fl == nil {
		fl = &flow{id: in.Identification, dst: in.DstAddr, src: src}
		src.flows = append([]*flow{fl}, src.flows...)
		e.chargeMem(src, flowOverhead)
		fl.timer = e.timers.push(fl, in.Now+int64(e.timeoutSeconds))
	}

	// 6. Malformed check: offset past a already-known total length.
	if fl.length != 0 && int(in.Offset) > fl.length {
		e.drops++
		return nil
	}

	// 7. Stash the unfragmentable part on first sight, splicing the
	// fragment header out of the header chain by patching the Next
	// Header field to the value that followed it.
	if len(fl.unfragmentable) == 0 && len(in.Unfragmentable) > 0 {
		fl.unfragmentable = append([]byte(nil), in.Unfragmentable...)
		e.chargeMem(src, len(fl.unfragmentable))
		if len(fl.unfragmentable) > ipv6NextHeaderOffset {
			fl.unfragmentable[ipv6NextHeaderOffset] = in.NextHeader
		}
	}

	// 8. Terminal fragment handling.
	if !in.MoreFragments {
		if fl.length != 0 {
			// Redundant/malicious duplicate terminal fragment.
			e.drops++
			return nil
		}
		fl.length = int(end)
	}

	// 9. Insert the fragment and update memory accounting. Eviction
	// does not run again after this insert (spec.md §4.6 note): a
	// single call may transiently push total_used_mem slightly above
	// its cap, reclaimed on the next call.
	var removed, inserted int
	fl.fragments, removed, inserted = insertFragment(fl.fragments, in.Fragmentable, in.Offset, end)
	e.unchargeMem(src, removed)
	e.chargeMem(src, inserted)

	// 10. Completion check.
	if fl.length != 0 && allContiguous(fl.fragments) {
		datagram := e.buildCompleteDatagram(fl)
		if datagram != nil {
			e.datagramsComplete++
		}
		return datagram
	}
	return nil
}

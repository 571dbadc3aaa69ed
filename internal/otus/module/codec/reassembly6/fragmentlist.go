package reassembly6

// fragment is one contiguous byte range of a datagram under reassembly,
// copied into engine-owned storage. offset and end are positions within
// the reconstructed datagram: [offset, end).
type fragment struct {
	data   []byte
	offset uint16
	end    uint16
}

// insertFragment inserts data covering [offset, end) into list, which is
// kept sorted by offset with no overlapping coverage. Overlap is resolved
// with the classic BSD reassembly tie-break: earlier fragments are
// authoritative where they already cover a byte, so the new fragment's
// leading overlap is trimmed against the preceding fragment, and any
// following fragment fully covered by the new one is dropped, while one
// that only overlaps at the tail is trimmed to its non-overlapping suffix.
//
// Returns the updated list, the number of payload bytes physically removed
// from fragments already in the list, and the number of bytes newly copied
// in for the inserted fragment (0 if the new fragment was fully covered by
// an earlier one and nothing was inserted).
func insertFragment(list []*fragment, data []byte, offset, end uint16) ([]*fragment, int, int) {
	idx := 0
	for idx < len(list) && list[idx].offset <= offset {
		idx++
	}

	if idx > 0 {
		if prev := list[idx-1]; prev.end > offset {
			trim := prev.end - offset
			if span := end - offset; trim > span {
				trim = span
			}
			offset += trim
			data = data[trim:]
		}
	}

	if offset >= end {
		// Entirely covered by an earlier fragment: nothing to add.
		return list, 0, 0
	}

	removed := 0
	for idx < len(list) && list[idx].offset < end {
		f := list[idx]
		if f.end <= end {
			// Fully covered by the new fragment.
			removed += len(f.data)
			list = append(list[:idx], list[idx+1:]...)
			continue
		}
		// Tail overlap only: keep the non-overlapping suffix.
		trim := end - f.offset
		removed += int(trim)
		f.offset = end
		f.data = f.data[trim:]
		break
	}

	fresh := &fragment{
		data:   append([]byte(nil), data...),
		offset: offset,
		end:    end,
	}
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = fresh

	return list, removed, len(fresh.data)
}

// allContiguous reports whether the fragment list starts at offset 0 and
// has no holes: every fragment's end equals the next fragment's offset.
func allContiguous(list []*fragment) bool {
	if len(list) == 0 || list[0].offset != 0 {
		return false
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].end != list[i].offset {
			return false
		}
	}
	return true
}

// compact copies the fragment list's payload bytes in order into out.
// Returns the last fragment's end if the walk covered [0, expectedLen)
// contiguously, or -1 if a hole or short coverage is found.
func compact(list []*fragment, out []byte, expectedLen int) int {
	var pos uint16
	for _, f := range list {
		if f.offset != pos {
			return -1
		}
		copy(out[f.offset:f.end], f.data)
		pos = f.end
	}
	if int(pos) != expectedLen {
		return -1
	}
	return int(pos)
}

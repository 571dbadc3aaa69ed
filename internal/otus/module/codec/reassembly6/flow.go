package reassembly6

// flow is the in-progress reassembly state for one original datagram,
// keyed by (src, dst, id).
type flow struct {
	id  uint32
	dst [16]byte
	src *source

	unfragmentable []byte // IPv6 header + pre-fragment-header extension headers
	fragments      []*fragment
	length         int // total payload length; 0 until the terminal fragment arrives

	timer *timerNode
}

// flowOverhead is the memory charged for the Flow struct itself,
// independent of its fragments and unfragmentable buffer.
const flowOverhead = 64

func (s *source) findFlow(id uint32, dst [16]byte) *flow {
	for _, f := range s.flows {
		if f.id == id && f.dst == dst {
			return f
		}
	}
	return nil
}

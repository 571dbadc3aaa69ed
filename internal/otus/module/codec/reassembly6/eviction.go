package reassembly6

// evict applies the eviction policy (spec.md §4.5) that manage_fragment
// runs before doing any substantive work for a fragment addressed to
// cur. Returns true if cur was deleted and the caller must abort the
// current fragment (return nil, no datagram buffered or completed).
//
// created marks a source manage_fragment has just find_or_create'd for
// this very call: it has no flows yet because step 5 (find_or_create
// flow) hasn't run, not because eviction emptied it, so the "source
// emptied, abort" rule below must not apply to it.
func (e *Engine) evict(cur *source, now int64, created bool) bool {
	// Per-source pressure: evict the head flow until the source is back
	// under its cap, or until it has no flows left to evict.
	for cur.usedMem > e.perSourceLimit && len(cur.flows) > 0 {
		e.destroyFlow(cur.flows[0])
		e.evictions++
	}
	if !created && len(cur.flows) == 0 {
		e.deleteSource(cur)
		return true
	}

	// Global pressure / expiry: evict the timer head while it is expired
	// or the engine is over its total memory cap.
	curDeleted := false
	for e.timers.head != nil && (e.timers.head.expiry < now || e.totalUsedMem >= e.totalLimit) {
		victim := e.timers.head.f
		victimSrc := victim.src
		e.destroyFlow(victim)
		e.evictions++
		if len(victimSrc.flows) == 0 {
			e.deleteSource(victimSrc)
			if victimSrc == cur {
				curDeleted = true
			}
		}

		// NOTE (spec.md §9, preserved deliberately): this only checks
		// whether the *current* fragment's source emptied, even though
		// the flow just evicted above may have belonged to a different
		// source. Global pressure therefore only forces this call to
		// abort when cur happens to be the source that just emptied;
		// other sources can empty via this loop without an early
		// return. This mirrors the original implementation's behavior
		// and is flagged as suspicious rather than "fixed".
		if curDeleted {
			return true
		}
	}
	return false
}

func (e *Engine) deleteSource(s *source) {
	e.unchargeMem(s, sourceOverhead)
	e.sources.delete(s)
}

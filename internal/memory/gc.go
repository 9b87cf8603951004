package memory

import (
	"glyph/internal/cell"
	"glyph/internal/stub"
)

// Collect runs one stop-the-world mark-sweep cycle (spec.md §4.1). It is
// recursion-free: child stubs are enqueued onto a work list rather than
// visited via recursive calls, bounding native stack depth regardless of
// how deeply nested the live object graph is.
func (p *Pool) Collect() Stats {
	p.mu.Lock()
	roots := append([]Root(nil), p.roots...)
	p.mu.Unlock()

	marked := make(map[*stub.Stub]struct{}, len(p.live))
	var worklist []*stub.Stub

	mark := func(s *stub.Stub) {
		if s == nil {
			return
		}
		if _, seen := marked[s]; seen {
			return
		}
		marked[s] = struct{}{}
		s.Bits |= stub.BitMarked
		worklist = append(worklist, s)
	}

	for _, r := range roots {
		r.MarkRoots(mark)
	}

	for len(worklist) > 0 {
		s := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		markChildren(s, mark)
	}

	p.mu.Lock()
	var before = len(p.live)
	var freedNow int64
	for s := range p.live {
		if _, live := marked[s]; !live {
			delete(p.live, s)
			s.Bits &^= stub.BitMarked
			freedNow++
		} else {
			s.Bits &^= stub.BitMarked
		}
	}
	p.freed += freedNow
	p.depletion = p.budget
	p.recycleRequested = false
	p.cyclesRun++
	stats := Stats{
		CyclesRun:    p.cyclesRun,
		LiveBefore:   before,
		LiveAfter:    len(p.live),
		Reclaimed:    freedNow,
		BytesCharged: p.allocated,
	}
	p.mu.Unlock()
	return stats
}

// markChildren enqueues every stub a given stub transitively references,
// dispatching on the stub's Flavor to know where child references live
// (spec.md §4.1 "transitively mark payload references according to...
// each stub's flavor").
func markChildren(s *stub.Stub, mark func(*stub.Stub)) {
	if link, ok := s.Link.(*stub.Stub); ok {
		mark(link)
	}
	if misc, ok := s.Misc.(*stub.Stub); ok {
		mark(misc)
	}
	if s.Dynamic == nil {
		// Inline payload: scan the one or two inline cells directly.
		for _, v := range s.Inline {
			markCellValue(v, mark)
		}
		return
	}
	switch s.Flavor {
	case stub.FlavorArray, stub.FlavorVarlist, stub.FlavorPairlist, stub.FlavorDetails, stub.FlavorSea:
		// Sea stores alternating symbol/value pairs; markCellValue is a
		// no-op for the symbol entries since they aren't cell.Cell.
		for _, v := range s.Dynamic.Cells() {
			markCellValue(v, mark)
		}
	case stub.FlavorKeylist:
		// Keylists hold *symbol.Symbol, which is never collected.
	case stub.FlavorBytes, stub.FlavorHashlist, stub.FlavorBookmarks:
		// No stub-valued children beyond Link/Misc already handled.
	}
}

func markCellValue(v any, mark func(*stub.Stub)) {
	c, ok := v.(cell.Cell)
	if !ok {
		return
	}
	for _, s := range c.Markables() {
		mark(s)
	}
}

// Stats summarizes one collection cycle for diagnostics (spec.md §6
// process state / embedding API observability).
type Stats struct {
	CyclesRun    int
	LiveBefore   int
	LiveAfter    int
	Reclaimed    int64
	BytesCharged int64
}

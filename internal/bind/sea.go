package bind

import (
	"sync"

	"glyph/internal/cell"
	"glyph/internal/memory"
	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// Sea is the module-sea: an unordered binding pool consulted as the
// last resort after let-stubs and enclosing contexts fail to resolve a
// word (spec.md §4.4, §9 "module sea"). Unlike a Context, a sea has no
// archetype and no fixed slot ordering — new bindings simply append.
//
// internal/trampoline.RunConcurrent runs several top-level programs
// against one shared fallback Sea (a module loader bringing up several
// extension init blocks side by side is the motivating case), so every
// access to Stub.Dynamic is guarded by mu rather than assuming a single
// caller.
type Sea struct {
	mu   sync.Mutex
	Stub *stub.Stub // FlavorSea; Dynamic stores alternating symbol/value pairs
}

// NewSea allocates an empty module sea.
func NewSea(pool *memory.Pool) *Sea {
	s := pool.AllocStub(stub.FlavorSea)
	s.Dynamic = stub.NewCellDynamic(0)
	s.Bits |= stub.BitDynamic
	pool.Manage(s)
	return &Sea{Stub: s}
}

func (m *Sea) find(sym *symbol.Symbol) int {
	d := m.Stub.Dynamic
	for i := 0; i < d.Len(); i += 2 {
		if d.CellAt(i) == sym {
			return i
		}
	}
	return -1
}

// Get reports sym's value in the sea, if bound.
func (m *Sea) Get(sym *symbol.Symbol) (cell.Cell, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(sym)
	if i < 0 {
		return cell.Cell{}, false
	}
	return m.Stub.Dynamic.CellAt(i + 1).(cell.Cell), true
}

// Set writes sym's value, appending a new pair if sym is unbound.
func (m *Sea) Set(sym *symbol.Symbol, v cell.Cell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(sym)
	if i >= 0 {
		m.Stub.Dynamic.SetCellAt(i+1, v)
		return
	}
	m.Stub.Dynamic.AppendCell(sym)
	m.Stub.Dynamic.AppendCell(v)
}

// Has reports whether sym is bound in the sea.
func (m *Sea) Has(sym *symbol.Symbol) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(sym) >= 0
}

// MarkRoots implements memory.Root: every value bound in the sea is
// reachable for as long as the sea itself is registered as a root, so
// any stub one of those values references must survive collection.
func (m *Sea) MarkRoots(mark func(*stub.Stub)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.Stub.Dynamic
	for i := 1; i < d.Len(); i += 2 {
		if v, ok := d.CellAt(i).(cell.Cell); ok {
			for _, st := range v.Markables() {
				mark(st)
			}
		}
	}
}

package action

import (
	"sync"

	"glyph/internal/cell"
	"glyph/internal/ctx"
)

// anyKind is the wildcard generic-dispatch key: never a real cell.Kind
// value (kind.go's enum never reaches 255), used to register a
// fallback handler that applies across every datatype.
const anyKind = cell.Kind(255)

type genericKey struct {
	kind cell.Kind
	op   string
}

// GenericTable is the datatype x operation multi-method dispatch table
// (spec.md §4.5 "generic dispatch"). Datatype handlers each register
// their own entries. The registered natives (`length?`, `append`, ...)
// do not consult a GenericTable; they work on their arguments directly.
type GenericTable struct {
	mu      sync.RWMutex
	entries map[genericKey]Dispatcher
}

// NewGenericTable creates an empty table.
func NewGenericTable() *GenericTable {
	return &GenericTable{entries: make(map[genericKey]Dispatcher)}
}

// Register associates op on kind with d. Passing kind as the zero value
// of a wildcard registration is done via RegisterDefault instead.
func (t *GenericTable) Register(kind cell.Kind, op string, d Dispatcher) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[genericKey{kind, op}] = d
}

// RegisterDefault associates op with d across every datatype that has
// no more specific entry.
func (t *GenericTable) RegisterDefault(op string, d Dispatcher) {
	t.Register(anyKind, op, d)
}

// Dispatch looks up op for frame's declared kind, falling through to
// the wildcard entry, and returns Unhandled if neither exists (spec.md
// §4.5 "UNHANDLED fallthrough").
func (t *GenericTable) Dispatch(frame *ctx.Context, kind cell.Kind, op string) Bounce {
	t.mu.RLock()
	d, ok := t.entries[genericKey{kind, op}]
	if !ok {
		d, ok = t.entries[genericKey{anyKind, op}]
	}
	t.mu.RUnlock()
	if !ok {
		return UnhandledBounce()
	}
	return d(frame)
}

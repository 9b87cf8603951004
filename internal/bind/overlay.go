package bind

import "glyph/internal/symbol"

// Overlay is a virtual binding layer: a set of word->target overrides
// consulted before the chain it wraps, without mutating the underlying
// context or any cell's binding (spec.md §4.4 "virtual binding
// overlays"). Its one user in this tree is action.NewLambda, which
// binds an arrow lambda's parameter in an overlay around its body.
type Overlay struct {
	entries map[*symbol.Symbol]Target
	Next    any // what the chain continues to when this overlay misses
}

// NewOverlay creates an overlay wrapping next.
func NewOverlay(next any) *Overlay {
	return &Overlay{entries: make(map[*symbol.Symbol]Target), Next: next}
}

// Bind adds or replaces sym's override in this overlay.
func (o *Overlay) Bind(sym *symbol.Symbol, t Target) {
	o.entries[sym] = t
}

func (o *Overlay) lookup(sym *symbol.Symbol) (Target, bool) {
	t, ok := o.entries[sym]
	return t, ok
}

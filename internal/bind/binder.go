package bind

import (
	"sync"

	"glyph/internal/symbol"
)

// Binder is the transient symbol -> slot-index map used while binding
// an entire block of code to one context in a single pass, so each
// distinct word is looked up in the context's keylist once rather than
// rescanned per occurrence (spec.md §4.4 "keylist lookup with
// precomputed index", §9 "Binder global state: process-wide but
// scoped").
//
// Binders are pooled rather than allocated per bind call: Acquire
// takes one (cleared) from the shared pool, the caller populates and
// consults it for the duration of one bind operation, then Release
// clears and returns it. This reproduces the "global, but scoped to
// one pass" lifecycle spec.md describes without leaking entries
// between unrelated binds.
type Binder struct {
	slots map[*symbol.Symbol]int
}

var binderPool = sync.Pool{
	New: func() any { return &Binder{slots: make(map[*symbol.Symbol]int)} },
}

// AcquireBinder takes a cleared Binder from the shared pool.
func AcquireBinder() *Binder {
	return binderPool.Get().(*Binder)
}

// Release clears b and returns it to the shared pool. Callers must not
// use b after calling Release.
func (b *Binder) Release() {
	for k := range b.slots {
		delete(b.slots, k)
	}
	binderPool.Put(b)
}

// Add records sym's slot index for the duration of the current pass.
func (b *Binder) Add(sym *symbol.Symbol, index int) { b.slots[sym] = index }

// Lookup consults a previously Added index.
func (b *Binder) Lookup(sym *symbol.Symbol) (int, bool) {
	idx, ok := b.slots[sym]
	return idx, ok
}

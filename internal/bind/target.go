// Package bind implements word-cell resolution: chasing a cell's
// binding through let-stubs, fixed contexts, virtual overlays, and the
// process's module-sea fallback down to the variable slot it names
// (spec.md §3 "Binding", §4.4).
package bind

import (
	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// Target is a resolved place a bound word's value lives.
type Target interface {
	Get() (cell.Cell, bool)
	Set(v cell.Cell) error
}

// ContextTarget resolves to a fixed 1-based slot in a Context's
// varlist (spec.md §4.4 "keylist lookup with precomputed index").
type ContextTarget struct {
	Context *ctx.Context
	Index   int
}

func (t ContextTarget) Get() (cell.Cell, bool) {
	if t.Index <= 0 || t.Index > t.Context.Len() {
		return cell.Cell{}, false
	}
	return t.Context.ValueAt(t.Index), true
}

func (t ContextTarget) Set(v cell.Cell) error {
	return t.Context.SetValueAt(t.Index, v)
}

// LetTarget resolves to a single-binding let-stub (spec.md §4.4 "let
// introduces one new binding without opening a full context").
type LetTarget struct {
	Stub *stub.Stub
}

func (t LetTarget) Get() (cell.Cell, bool) {
	v, ok := t.Stub.Inline[1].(cell.Cell)
	return v, ok
}

func (t LetTarget) Set(v cell.Cell) error {
	if t.Stub.IsFrozen() || t.Stub.IsProtected() {
		return cell.ErrProtected
	}
	t.Stub.Inline[1] = v
	return nil
}

// SeaTarget resolves to a slot in a module-sea's unordered pool
// (spec.md §4.4 "module-sea fallback").
type SeaTarget struct {
	Sea *Sea
	Sym *symbol.Symbol
}

func (t SeaTarget) Get() (cell.Cell, bool) { return t.Sea.Get(t.Sym) }

func (t SeaTarget) Set(v cell.Cell) error {
	t.Sea.Set(t.Sym, v)
	return nil
}

package action

import (
	"glyph/internal/bind"
	"glyph/internal/symbol"
)

// Hijack replaces a's dispatcher in place and returns a closure that
// restores the original. Because the swap mutates the action's own
// Details stub rather than any binding slot, every existing reference
// to this action — direct *Action pointers and every word bound to
// it — observes the new behavior immediately (spec.md §4.5 "hijack:
// fast path"). This is the fast path: the caller already holds a.
func (a *Action) Hijack(newDispatch Dispatcher) (restore func()) {
	old := a.Dispatcher()
	a.Stub.Inline[1] = newDispatch
	return func() { a.Stub.Inline[1] = old }
}

// HijackByName is the slow path (spec.md §4.5 "shim by name"): the
// caller has only a symbol, not an *Action, so the target must first
// be located via binding resolution. Once found, the swap is the same
// in-place mutation Hijack performs, so the effect is identical
// everywhere the original action is reachable from.
func HijackByName(binding any, fallback *bind.Sea, sym *symbol.Symbol, newDispatch Dispatcher) (restore func(), ok bool) {
	target, found := bind.Resolve(binding, fallback, sym)
	if !found {
		return nil, false
	}
	v, ok := target.Get()
	if !ok {
		return nil, false
	}
	a, ok := FromCell(v)
	if !ok {
		return nil, false
	}
	return a.Hijack(newDispatch), true
}

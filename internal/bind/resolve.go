package bind

import (
	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// Resolve chases a word cell's binding chain down to the Target it
// ultimately names (spec.md §4.4): virtual overlays and let-stubs in
// whatever order they were threaded via Link/Next, then a fixed
// context, then — once, if the context misses or the chain ends
// without reaching one — the module-sea fallback. fallback may be nil.
func Resolve(binding any, fallback *Sea, sym *symbol.Symbol) (Target, bool) {
	cur := binding
	triedFallback := fallback == nil
	for {
		switch b := cur.(type) {
		case nil:
			if !triedFallback {
				triedFallback = true
				cur = fallback
				continue
			}
			return nil, false
		case *Overlay:
			if t, ok := b.lookup(sym); ok {
				return t, true
			}
			cur = b.Next
		case *stub.Stub:
			if b.Flavor != stub.FlavorLet {
				return nil, false
			}
			if letSymbol(b) == sym {
				return LetTarget{b}, true
			}
			cur = b.Link
		case *ctx.Context:
			if idx, ok := b.IndexOf(sym); ok {
				return ContextTarget{b, idx}, true
			}
			if !triedFallback {
				triedFallback = true
				cur = fallback
				continue
			}
			return nil, false
		case *Sea:
			if b.Has(sym) {
				return SeaTarget{b, sym}, true
			}
			return nil, false
		default:
			return nil, false
		}
	}
}

// BindDeep attaches target to every word cell in blk (a block, group,
// or fence) that is not already bound, recursing into nested
// list-like cells. It uses a pooled Binder so that binding a block
// with many repeated word occurrences costs one keylist scan per
// distinct symbol rather than one per occurrence (spec.md §4.4
// "keylist lookup with precomputed index").
func BindDeep(blk cell.Cell, target *ctx.Context) {
	binder := AcquireBinder()
	defer binder.Release()
	for i := 1; i <= target.Len(); i++ {
		binder.Add(target.KeyAt(i), i)
	}
	bindWalk(blk, target, binder)
}

func bindWalk(v cell.Cell, target *ctx.Context, binder *Binder) {
	if !v.Kind.IsListlike() {
		return
	}
	n := cell.Len(v)
	for i := 0; i < n; i++ {
		elem := cell.ElementAt(v, i)
		switch {
		case isWordKind(elem.Kind):
			if elem.Binding() != nil {
				continue
			}
			if idx, ok := binder.Lookup(elem.Symbol()); ok {
				elem.SetBinding(ContextTarget{target, idx})
				_ = cell.SetElementAt(v, i, elem)
			}
		case elem.Kind.IsListlike():
			bindWalk(elem, target, binder)
		}
	}
}

func isWordKind(k cell.Kind) bool {
	return k == cell.KindWord || k == cell.KindSetWord || k == cell.KindGetWord
}

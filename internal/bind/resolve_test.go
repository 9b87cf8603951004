package bind

import (
	"testing"

	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

func TestResolveThroughContext(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := ctx.New(pool, ctx.KindObject, 1)
	x := tbl.Intern("x")
	obj.Append(pool, x, cell.Integer(10))

	target, ok := Resolve(obj, nil, x)
	if !ok {
		t.Fatalf("expected resolution through context")
	}
	v, ok := target.Get()
	if !ok || v.AsInteger() != 10 {
		t.Fatalf("Get() = %v, %v, want 10, true", v, ok)
	}
}

func TestResolveChasesLetChain(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := ctx.New(pool, ctx.KindObject, 0)

	inner := tbl.Intern("inner")
	outer := tbl.Intern("outer")
	letOuter := NewLet(pool, outer, cell.Integer(1), obj)
	letInner := NewLet(pool, inner, cell.Integer(2), letOuter)

	target, ok := Resolve(letInner, nil, outer)
	if !ok {
		t.Fatalf("expected to chase past inner let to outer let")
	}
	v, _ := target.Get()
	if v.AsInteger() != 1 {
		t.Fatalf("resolved outer let value = %d, want 1", v.AsInteger())
	}
}

func TestResolveFallsBackToSea(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := ctx.New(pool, ctx.KindObject, 0)
	sea := NewSea(pool)
	g := tbl.Intern("global-thing")
	sea.Set(g, cell.Integer(7))

	target, ok := Resolve(obj, sea, g)
	if !ok {
		t.Fatalf("expected sea fallback to resolve %s", g)
	}
	v, _ := target.Get()
	if v.AsInteger() != 7 {
		t.Fatalf("sea fallback value = %d, want 7", v.AsInteger())
	}
}

func TestResolveMissingReturnsFalse(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := ctx.New(pool, ctx.KindObject, 0)
	if _, ok := Resolve(obj, nil, tbl.Intern("nowhere")); ok {
		t.Fatalf("expected miss for unbound symbol with no fallback")
	}
}

func TestOverlayTakesPrecedenceOverContext(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := ctx.New(pool, ctx.KindObject, 1)
	x := tbl.Intern("x")
	obj.Append(pool, x, cell.Integer(10))

	overlay := NewOverlay(obj)
	letStub := NewLet(pool, x, cell.Integer(99), nil)
	overlay.Bind(x, LetTarget{letStub})

	target, ok := Resolve(overlay, nil, x)
	if !ok {
		t.Fatalf("expected overlay resolution")
	}
	v, _ := target.Get()
	if v.AsInteger() != 99 {
		t.Fatalf("overlay should shadow the context value, got %d", v.AsInteger())
	}
}

func TestBindDeepAttachesContextTargetsRecursively(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := ctx.New(pool, ctx.KindObject, 1)
	x := tbl.Intern("x")
	obj.Append(pool, x, cell.Integer(5))

	inner := cell.NewBlock(1)
	cell.Append(inner, []cell.Cell{cell.Word(cell.KindWord, x)}, cell.Policy{Part: -1, Dup: 1})
	outer := cell.NewBlock(1)
	cell.Append(outer, []cell.Cell{inner}, cell.Policy{Part: -1, Dup: 1})

	BindDeep(outer, obj)

	boundInner := cell.ElementAt(outer, 0)
	word := cell.ElementAt(boundInner, 0)
	target, ok := word.Binding().(ContextTarget)
	if !ok {
		t.Fatalf("expected word's binding to be a ContextTarget, got %T", word.Binding())
	}
	v, _ := target.Get()
	if v.AsInteger() != 5 {
		t.Fatalf("bound target value = %d, want 5", v.AsInteger())
	}
}

package ctx

import (
	"testing"

	"glyph/internal/cell"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

func TestNewContextStartsWithArchetypeOnly(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	obj := New(pool, KindObject, 4)

	if obj.Len() != 0 {
		t.Fatalf("fresh context should have 0 keyed slots, got %d", obj.Len())
	}
	arch := obj.Archetype()
	if arch.Kind != cell.KindObject {
		t.Fatalf("archetype kind = %s, want object", arch.Kind)
	}
	if arch.AsStub() != obj.Varlist {
		t.Fatalf("archetype should reference its own varlist stub")
	}
}

func TestAppendKeepsKeylistVarlistLengthsEqual(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := New(pool, KindObject, 2)

	x := tbl.Intern("x")
	y := tbl.Intern("y")
	obj.Append(pool, x, cell.Integer(1))
	obj.Append(pool, y, cell.Integer(2))

	if obj.Varlist.Dynamic.Len() != obj.Keylist().Dynamic.Len() {
		t.Fatalf("varlist/keylist length mismatch: %d vs %d",
			obj.Varlist.Dynamic.Len(), obj.Keylist().Dynamic.Len())
	}
	if obj.Len() != 2 {
		t.Fatalf("expected 2 keyed slots, got %d", obj.Len())
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := New(pool, KindObject, 2)
	name := tbl.Intern("name")

	if _, ok := obj.Get(name); ok {
		t.Fatalf("expected miss before any Set")
	}
	if err := obj.Set(pool, name, cell.Integer(42)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := obj.Get(name)
	if !ok || v.AsInteger() != 42 {
		t.Fatalf("Get after Set = %v, %v, want 42, true", v, ok)
	}

	if err := obj.Set(pool, name, cell.Integer(99)); err != nil {
		t.Fatalf("Set (overwrite): %v", err)
	}
	if obj.Len() != 1 {
		t.Fatalf("overwriting an existing key should not grow the context, len=%d", obj.Len())
	}
	v, _ = obj.Get(name)
	if v.AsInteger() != 99 {
		t.Fatalf("Get after overwrite = %d, want 99", v.AsInteger())
	}
}

func TestSetValueAtRejectsFrozenContext(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := New(pool, KindObject, 1)
	k := tbl.Intern("k")
	obj.Append(pool, k, cell.Integer(1))
	obj.Varlist.FreezeDeep()

	idx, _ := obj.IndexOf(k)
	if err := obj.SetValueAt(idx, cell.Integer(2)); err != cell.ErrProtected {
		t.Fatalf("expected ErrProtected on frozen context, got %v", err)
	}
}

func TestIndexOfMissingKey(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	obj := New(pool, KindModule, 1)
	if _, ok := obj.IndexOf(tbl.Intern("missing")); ok {
		t.Fatalf("expected miss for unbound symbol")
	}
}

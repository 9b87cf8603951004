package level

import (
	"testing"

	"glyph/internal/cell"
)

func TestFeedWalksElementsInOrder(t *testing.T) {
	blk := cell.NewBlock(0)
	for _, v := range []cell.Cell{cell.Integer(1), cell.Integer(2), cell.Integer(3)} {
		if err := cell.Append(blk, []cell.Cell{v}, cell.Policy{Part: -1, Dup: 1}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	f := NewFeed(blk, nil, nil)
	if f.AtEnd() {
		t.Fatalf("fresh feed over 3 elements reports AtEnd")
	}
	peeked, ok := f.Peek()
	if !ok || peeked.AsInteger() != 1 {
		t.Fatalf("Peek() = %v, %v; want 1, true", peeked, ok)
	}
	if f.Pos != 0 {
		t.Fatalf("Peek must not advance the cursor, Pos = %d", f.Pos)
	}

	ahead, ok := f.PeekAt(2)
	if !ok || ahead.AsInteger() != 3 {
		t.Fatalf("PeekAt(2) = %v, %v; want 3, true", ahead, ok)
	}

	for i, want := range []int64{1, 2, 3} {
		v, ok := f.Next()
		if !ok || v.AsInteger() != want {
			t.Fatalf("Next() #%d = %v, %v; want %d, true", i, v, ok, want)
		}
	}
	if !f.AtEnd() {
		t.Fatalf("feed should be exhausted after 3 Next calls")
	}
	if _, ok := f.Next(); ok {
		t.Fatalf("Next() past the end should report ok=false")
	}
}

func TestNewLevelStartsAtInitialEntry(t *testing.T) {
	blk := cell.NewBlock(0)
	lvl := New(NewFeed(blk, nil, nil), nil)
	if lvl.State != StateInitialEntry {
		t.Fatalf("new level state = %s, want %s", lvl.State, StateInitialEntry)
	}
	if !lvl.Out.IsGhost() {
		t.Fatalf("new level's Out register should start ghost")
	}
	if lvl.Prior != nil {
		t.Fatalf("top-level Level should have a nil Prior")
	}

	child := lvl.Push(NewFeed(blk, nil, nil))
	if child.Prior != lvl {
		t.Fatalf("Push should chain Prior back to the pushing level")
	}
}

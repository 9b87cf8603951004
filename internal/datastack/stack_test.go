package datastack

import (
	"testing"

	"glyph/internal/cell"
)

func TestPushPopOrder(t *testing.T) {
	s := New(2)
	s.Push(cell.Integer(1))
	s.Push(cell.Integer(2))
	s.Push(cell.Integer(3)) // New raises the requested capacity of 2 to its minimum of 8

	if v := s.Pop(); v.AsInteger() != 3 {
		t.Fatalf("pop = %d, want 3", v.AsInteger())
	}
	if v := s.Pop(); v.AsInteger() != 2 {
		t.Fatalf("pop = %d, want 2", v.AsInteger())
	}
	if v := s.Pop(); v.AsInteger() != 1 {
		t.Fatalf("pop = %d, want 1", v.AsInteger())
	}
}

func TestBaselineDropToUnwindsOnlyThisLevel(t *testing.T) {
	s := New(4)
	s.Push(cell.Integer(1))
	base := s.Baseline()
	s.Push(cell.Integer(2))
	s.Push(cell.Integer(3))

	s.DropTo(base)
	if s.Len() != base {
		t.Fatalf("Len() after DropTo = %d, want %d", s.Len(), base)
	}
	if v := s.Pop(); v.AsInteger() != 1 {
		t.Fatalf("the cell below baseline should survive, got %d", v.AsInteger())
	}
}

func TestPopAsBlockCollectsInPushOrder(t *testing.T) {
	s := New(4)
	base := s.Baseline()
	s.Push(cell.Integer(3))
	s.Push(cell.Integer(7))

	blk := s.PopAsBlock(base)
	if cell.Len(blk) != 2 {
		t.Fatalf("expected 2-element block, got %d", cell.Len(blk))
	}
	if cell.ElementAt(blk, 0).AsInteger() != 3 || cell.ElementAt(blk, 1).AsInteger() != 7 {
		t.Fatalf("block elements out of order: %v", blk)
	}
	if s.Len() != base {
		t.Fatalf("stack should be back at baseline after PopAsBlock, Len()=%d", s.Len())
	}
}

func TestMoldBufferBaselinePopString(t *testing.T) {
	m := NewMoldBuffer(16)
	m.WriteString("outer(")
	inner := m.Baseline()
	m.WriteString("inner")
	got := m.PopString(inner)
	if got != "inner" {
		t.Fatalf("PopString = %q, want %q", got, "inner")
	}
	m.WriteString(")")
	full := m.PopString(0)
	if full != "outer()" {
		t.Fatalf("full mold = %q, want %q", full, "outer()")
	}
}

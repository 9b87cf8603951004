package cell

import (
	"testing"

	"glyph/internal/symbol"
)

func TestGhostDoesNotEqualNull(t *testing.T) {
	g := Ghost()
	n := Null()
	if g.AntiformKind() == n.AntiformKind() {
		t.Fatalf("ghost and null must be distinct antiform variants")
	}
	if !g.IsGhost() || n.IsGhost() {
		t.Fatalf("IsGhost classification wrong")
	}
}

func TestQuoteUnquoteRoundTrip(t *testing.T) {
	base := Integer(42)
	q := base.Quote().Quote()
	if q.QuoteDepth() != 2 {
		t.Fatalf("expected quote depth 2, got %d", q.QuoteDepth())
	}
	u := q.Unquote().Unquote()
	if u.Lift != LiftPlain || u.AsInteger() != 42 {
		t.Fatalf("unquote round-trip failed: %+v", u)
	}
}

func TestRaisedErrorFallsToPlain(t *testing.T) {
	tab := symbol.New()
	_ = tab
	errVal := Cell{Kind: KindError}
	raised := RaisedError(errVal)
	if !raised.IsRaisedError() {
		t.Fatalf("expected raised error antiform")
	}
	plain := raised.StripAntiform()
	if plain.IsAntiform() || plain.Kind != KindError {
		t.Fatalf("expected plain error value after StripAntiform, got %+v", plain)
	}
}

func TestArrayAppendCopyIndependence(t *testing.T) {
	// Mirrors spec.md §8 scenario 5:
	// append copy [a b c] spread [d e] leaves the source unchanged.
	tab := symbol.New()
	src := NewBlock(4)
	_ = Append(src, []Cell{
		Word(KindWord, tab.Intern("a")),
		Word(KindWord, tab.Intern("b")),
		Word(KindWord, tab.Intern("c")),
	}, defaultPolicy())

	dup := Copy(src)
	_ = Append(dup, []Cell{
		Word(KindWord, tab.Intern("d")),
		Word(KindWord, tab.Intern("e")),
	}, defaultPolicy())

	if Len(src) != 3 {
		t.Fatalf("source mutated: want len 3, got %d", Len(src))
	}
	if Len(dup) != 5 {
		t.Fatalf("copy should have grown: want len 5, got %d", Len(dup))
	}
}

func TestFrozenSeriesRejectsMutation(t *testing.T) {
	s := NewBlock(2)
	stubHdr := s.AsStub()
	stubHdr.FreezeShallow()
	if err := Append(s, []Cell{Integer(1)}, defaultPolicy()); err != ErrProtected {
		t.Fatalf("expected ErrProtected, got %v", err)
	}
}

func TestSequenceCompression(t *testing.T) {
	tab := symbol.New()
	w := Word(KindWord, tab.Intern("foo"))
	seq, err := NewSequence(KindPath, []Cell{Blank(), w})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seq.IsCompressed() {
		t.Fatalf("expected 2-element sequence with blank to compress")
	}
}

func TestSequenceAtomValidation(t *testing.T) {
	tab := symbol.New()
	bad := Word(KindWord, tab.InternWithFlags("a.b", symbol.FlagNoDot))
	ok := Word(KindWord, tab.Intern("c"))
	if _, err := NewSequence(KindTuple, []Cell{bad, ok, ok}); err == nil {
		t.Fatalf("expected dotted-atom violation to be rejected in a tuple")
	}
}

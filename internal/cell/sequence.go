package cell

import (
	"fmt"

	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// ErrSequenceAtom is returned when a sequence's proposed atom is
// forbidden in that sequence kind (spec.md §4.3).
type ErrSequenceAtom struct {
	Kind Kind
	Atom Cell
}

func (e *ErrSequenceAtom) Error() string {
	return fmt.Sprintf("cell: %s is not a legal atom in a %s sequence", e.Atom, e.Kind)
}

// NewSequence validates elems against the rules for kind and builds an
// immutable sequence cell. Dotted sequences (tuple) forbid dot, colon
// and slash in their word atoms; slashed (path) forbid slash; chained
// (chain) forbid colon, per spec.md §4.3.
//
// A 2-element sequence with a blank on one end compresses to a single
// wordlike cell carrying only the symbol plus a leading-space flag
// (spec.md §3 "Sequence", §4.3) instead of allocating an array stub.
func NewSequence(kind Kind, elems []Cell) (Cell, error) {
	for _, e := range elems {
		if err := checkSequenceAtom(kind, e); err != nil {
			return Cell{}, err
		}
	}
	if len(elems) == 2 {
		if compressed, ok := tryCompress(kind, elems); ok {
			return compressed, nil
		}
	}
	s := stub.New(stub.FlavorArray)
	d := stub.NewCellDynamic(len(elems))
	for _, e := range elems {
		d.AppendCell(e)
	}
	s.Dynamic = d
	s.Bits |= stub.BitDynamic
	s.FreezeDeep() // sequences are always immutable
	return Series(kind, s), nil
}

func checkSequenceAtom(kind Kind, atom Cell) error {
	if atom.Kind != KindWord || atom.reserved != reservedNone {
		return nil
	}
	sym := atom.Symbol()
	var forbidden symbol.Flag
	switch kind {
	case KindTuple:
		forbidden = symbol.FlagNoDot | symbol.FlagNoColon | symbol.FlagNoSlash
	case KindPath:
		forbidden = symbol.FlagNoSlash
	case KindChain:
		forbidden = symbol.FlagNoColon
	}
	for _, f := range []symbol.Flag{symbol.FlagNoDot, symbol.FlagNoSlash, symbol.FlagNoColon} {
		if forbidden&f != 0 && sym.Has(f) {
			return &ErrSequenceAtom{Kind: kind, Atom: atom}
		}
	}
	return nil
}

// leadingSpaceWord is the compressed 2-element-sequence representation:
// a wordlike cell carrying only a symbol plus a flag recording that one
// end of the original sequence was blank.
type leadingSpaceWord struct {
	sym          *symbol.Symbol
	leadingSpace bool
}

func tryCompress(kind Kind, elems []Cell) (Cell, bool) {
	var blankIdx = -1
	for i, e := range elems {
		if e.Kind == KindBlank {
			blankIdx = i
		}
	}
	if blankIdx == -1 {
		return Cell{}, false
	}
	other := elems[1-blankIdx]
	if other.Kind != KindWord {
		return Cell{}, false
	}
	out := Cell{
		Kind:  kind,
		Extra: other.Extra,
	}
	out.Payload1 = &leadingSpaceWord{sym: other.Symbol(), leadingSpace: blankIdx == 0}
	return out, true
}

// IsCompressed reports whether c is a 2-element sequence stored in the
// compressed single-cell form rather than as an array stub.
func (c Cell) IsCompressed() bool {
	_, ok := c.Payload1.(*leadingSpaceWord)
	return ok
}

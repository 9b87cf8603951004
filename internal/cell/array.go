package cell

import (
	"fmt"

	"glyph/internal/stub"
)

// ErrProtected is returned by mutation primitives when the target
// series rejects writes (spec.md §8 invariant: "any such call returns a
// *protected* error").
var ErrProtected = fmt.Errorf("series is protected or frozen")

// NewBlock allocates a fresh, empty block (an array-of-cells stub)
// wrapped as a KindBlock cell.
func NewBlock(capacity int) Cell {
	s := stub.New(stub.FlavorArray)
	s.Dynamic = stub.NewCellDynamic(capacity)
	s.Bits |= stub.BitDynamic
	return Series(KindBlock, s)
}

// NewText allocates a fresh, empty text (byte-buffer) stub wrapped as a
// KindText cell.
func NewText(capacity int) Cell {
	s := stub.New(stub.FlavorBytes)
	s.Dynamic = stub.NewByteDynamic(capacity)
	s.Bits |= stub.BitDynamic
	return Series(KindText, s)
}

// Len is the public read operation for series length (spec.md §4.3).
func Len(c Cell) int {
	s := c.AsStub()
	if s.Dynamic == nil {
		return 0
	}
	return s.Dynamic.Len()
}

// ElementAt is the public read operation for indexed element access
// (spec.md §4.3). idx is zero-based.
func ElementAt(c Cell, idx int) Cell {
	s := c.AsStub()
	if c.Kind.IsStringlike() {
		panic("cell: ElementAt on a byte series; use ByteAt")
	}
	v := s.Dynamic.CellAt(idx)
	return v.(Cell)
}

// checkWritable enforces spec.md §4.3: "Each mutation validates that the
// target series is not read-only."
func checkWritable(s *stub.Stub) error {
	if s.IsFrozen() || s.IsProtected() || s.Bits.Has(stub.BitReadOnly) {
		return ErrProtected
	}
	return nil
}

// SetElementAt performs in-place mutation of one element. Disallowed on
// frozen/protected/read-only series (spec.md §4.3); cells carry no
// const marker, so there is no per-cell const check.
func SetElementAt(c Cell, idx int, v Cell) error {
	s := c.AsStub()
	if err := checkWritable(s); err != nil {
		return err
	}
	if v.IsAntiform() && v.AntiformKind() != AntiformSplice {
		return fmt.Errorf("cell: cannot store antiform %s in a series", v.AntiformKind())
	}
	s.Dynamic.SetCellAt(idx, v)
	return nil
}

// Policy captures the /part, /dup, /line modifiers spec.md §4.3 lists
// for the mutation family.
type Policy struct {
	Part int  // limit count, -1 means unspecified
	Dup  int  // repeat count, 0 or 1 means no duplication
	Line bool // force a newline marker (molding hint only)
}

func defaultPolicy() Policy { return Policy{Part: -1, Dup: 1} }

// Insert splices elems into c at idx, expanding the backing series.
// A splice antiform has its own contents inlined (spec.md §4.3); any
// other antiform element is stored as given, Insert does not reject it.
func Insert(c Cell, idx int, elems []Cell, pol Policy) error {
	s := c.AsStub()
	if err := checkWritable(s); err != nil {
		return err
	}
	flat := flattenSplices(elems)
	reps := pol.Dup
	if reps < 1 {
		reps = 1
	}
	total := len(flat) * reps
	if total == 0 {
		return nil
	}
	s.Dynamic.ExpandAt(idx, total)
	at := idx
	for r := 0; r < reps; r++ {
		for _, e := range flat {
			s.Dynamic.SetCellAt(at, e)
			at++
		}
	}
	return nil
}

// Append is Insert at the tail.
func Append(c Cell, elems []Cell, pol Policy) error {
	return Insert(c, Len(c), elems, pol)
}

// Change overwrites /part elements starting at idx with elems, growing
// or shrinking the series as needed.
func Change(c Cell, idx int, elems []Cell, pol Policy) error {
	s := c.AsStub()
	if err := checkWritable(s); err != nil {
		return err
	}
	partLen := pol.Part
	if partLen < 0 {
		partLen = len(elems)
	}
	if partLen > 0 {
		s.Dynamic.RemoveUnits(idx, min(partLen, Len(c)-idx))
	}
	return Insert(c, idx, elems, pol)
}

// Remove deletes /part elements starting at idx.
func Remove(c Cell, idx, part int) error {
	s := c.AsStub()
	if err := checkWritable(s); err != nil {
		return err
	}
	if part < 0 {
		part = 1
	}
	s.Dynamic.RemoveUnits(idx, part)
	return nil
}

// Clear removes every element from idx to the end.
func Clear(c Cell, idx int) error {
	s := c.AsStub()
	if err := checkWritable(s); err != nil {
		return err
	}
	s.Dynamic.RemoveUnits(idx, Len(c)-idx)
	return nil
}

// Copy makes a shallow copy of a series cell: a new stub with its own
// Dynamic but the same element values (spec.md round-trip laws rely on
// copy-then-mutate not affecting the source).
func Copy(c Cell) Cell {
	src := c.AsStub()
	dst := stub.New(src.Flavor)
	if c.Kind.IsStringlike() {
		nd := stub.NewByteDynamic(Len(c))
		nd.AppendBytes(src.Dynamic.Bytes())
		dst.Dynamic = nd
	} else {
		nd := stub.NewCellDynamic(Len(c))
		for _, v := range src.Dynamic.Cells() {
			nd.AppendCell(v)
		}
		dst.Dynamic = nd
	}
	dst.Bits |= stub.BitDynamic
	return Series(c.Kind, dst)
}

func flattenSplices(elems []Cell) []Cell {
	var out []Cell
	for _, e := range elems {
		if e.IsAntiform() && e.AntiformKind() == AntiformSplice {
			spliced := e.StripAntiform()
			for i := 0; i < Len(spliced); i++ {
				out = append(out, ElementAt(spliced, i))
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

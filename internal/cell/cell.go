package cell

import (
	"fmt"

	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// Cell is the fixed-size tagged-union value. Every Cell is
// self-describing: Kind and Lift decide which of Payload1/Payload2/Extra
// must be GC-scanned (spec.md §3 invariant). In this Go port a single
// struct stands in for the C original's packed union; field meaning is
// interpreted per Kind, not by Go type assertion on Payload1/Payload2
// themselves (those are `any` only because the payload may be either an
// inlined scalar or a *stub.Stub reference — see Markables).
type Cell struct {
	Kind  Kind
	Lift  Lift
	quote uint8 // quoting depth when Lift == LiftQuoted
	anti  AntiformKind

	Payload1 any
	Payload2 any
	Extra    any // binding slot for bindable kinds

	reserved reservedState
}

type reservedState uint8

const (
	reservedNone reservedState = iota
	reservedErased
	reservedPoisoned
	reservedUnreadable
)

// Erased returns the zero Cell, legal only as an output cell before its
// first write (spec.md §4.2).
func Erased() Cell {
	return Cell{reserved: reservedErased}
}

// IsErased reports whether c is still in the erased state.
func (c Cell) IsErased() bool { return c.reserved == reservedErased }

// Poisoned returns the end-of-list sentinel used in singular arrays.
func Poisoned() Cell {
	return Cell{reserved: reservedPoisoned}
}

// IsPoisoned reports the poisoned sentinel state.
func (c Cell) IsPoisoned() bool { return c.reserved == reservedPoisoned }

// Unreadable returns a debug-only cell that panics if read.
func Unreadable() Cell {
	return Cell{reserved: reservedUnreadable}
}

func (c Cell) checkReadable() {
	if c.reserved == reservedUnreadable {
		panic("cell: read of unreadable cell")
	}
	if c.reserved == reservedErased {
		panic("cell: read of erased cell before first write")
	}
}

// Blank returns the canonical space/blank value.
func Blank() Cell { return Cell{Kind: KindBlank} }

// Logic returns a boolean cell.
func Logic(v bool) Cell { return Cell{Kind: KindLogic, Payload1: v} }

// AsLogic reads a KindLogic cell's value.
func (c Cell) AsLogic() bool {
	c.checkReadable()
	return c.Payload1.(bool)
}

// Integer returns an integer cell.
func Integer(v int64) Cell { return Cell{Kind: KindInteger, Payload1: v} }

// AsInteger reads a KindInteger cell's value.
func (c Cell) AsInteger() int64 {
	c.checkReadable()
	return c.Payload1.(int64)
}

// Decimal returns a floating-point cell.
func Decimal(v float64) Cell { return Cell{Kind: KindDecimal, Payload1: v} }

// AsDecimal reads a KindDecimal cell's value.
func (c Cell) AsDecimal() float64 {
	c.checkReadable()
	return c.Payload1.(float64)
}

// Word returns a word cell bound to nothing (unbound). Binding is
// attached later by the binder via SetBinding.
func Word(kind Kind, sym *symbol.Symbol) Cell {
	return Cell{Kind: kind, Payload1: sym}
}

// Symbol reads a word-family cell's interned symbol.
func (c Cell) Symbol() *symbol.Symbol {
	c.checkReadable()
	return c.Payload1.(*symbol.Symbol)
}

// Binding reads the Extra slot of a bindable cell.
func (c Cell) Binding() any { return c.Extra }

// SetBinding attaches (or replaces) a cell's binding. Bindings are
// opaque to the cell package; the bind package defines what they point
// at (a context, a let-stub, or a virtual-binding chain).
func (c *Cell) SetBinding(b any) { c.Extra = b }

// Series wraps a *stub.Stub of flavor Array or Bytes as the named Kind
// (block/group/fence/text/binary/...). The stub carries the actual
// element storage; the cell only references it.
func Series(kind Kind, s *stub.Stub) Cell {
	return Cell{Kind: kind, Payload1: s}
}

// AsStub reads the stub backing a series-kind cell.
func (c Cell) AsStub() *stub.Stub {
	c.checkReadable()
	return c.Payload1.(*stub.Stub)
}

// Quote returns c wrapped one more quoting level (spec.md §4.2 lift
// byte encodes "quoted (N levels)"). Quoting an antiform is illegal;
// callers must unlift first.
func (c Cell) Quote() Cell {
	if c.Lift == LiftAntiform {
		panic("cell: cannot quote an antiform")
	}
	out := c
	out.Lift = LiftQuoted
	out.quote++
	return out
}

// Unquote removes one level of quoting. Panics if c is not quoted.
func (c Cell) Unquote() Cell {
	if c.Lift != LiftQuoted || c.quote == 0 {
		panic("cell: unquote of non-quoted cell")
	}
	out := c
	out.quote--
	if out.quote == 0 {
		out.Lift = LiftPlain
	}
	return out
}

// QuoteDepth reports how many levels of quoting wrap c.
func (c Cell) QuoteDepth() uint8 { return c.quote }

// Quasi returns c as a quasiform (displayed with tildes, inert).
func (c Cell) Quasi() Cell {
	out := c
	out.Lift = LiftQuasi
	return out
}

// Antiform returns a fresh antiform signal of the named kind (a
// KindBlank cell with LiftAntiform). Per
// spec.md §3/§4.2, antiforms are produced only by evaluation and are
// never legal to store in an array; callers that attempt to splice an
// antiform into a series must check IsAntiform first (spec.md §4.3).
func Antiform(kind AntiformKind) Cell {
	return Cell{Kind: KindBlank, Lift: LiftAntiform, anti: kind}
}

// IsAntiform reports whether c is an antiform signal.
func (c Cell) IsAntiform() bool { return c.Lift == LiftAntiform }

// AntiformKind reports which antiform signal c carries, or
// AntiformNone if c is not an antiform.
func (c Cell) AntiformKind() AntiformKind { return c.anti }

// Ghost returns the invisible result antiform (spec.md §4.6 point 6,
// §9 "Invisible (ghost) results").
func Ghost() Cell { return Antiform(AntiformGhost) }

// IsGhost reports whether c is the ghost antiform.
func (c Cell) IsGhost() bool { return c.Lift == LiftAntiform && c.anti == AntiformGhost }

// Null returns the null antiform signal.
func Null() Cell { return Antiform(AntiformNull) }

// IsNull reports whether c is the null antiform.
func (c Cell) IsNull() bool { return c.Lift == LiftAntiform && c.anti == AntiformNull }

// RaisedError returns an error value lifted to an antiform, signalling
// active failure propagation (spec.md §4.8).
func RaisedError(errCell Cell) Cell {
	out := errCell
	out.Lift = LiftAntiform
	out.anti = AntiformError
	return out
}

// IsRaisedError reports whether c is a raised (antiform) error.
func (c Cell) IsRaisedError() bool {
	return c.Lift == LiftAntiform && c.anti == AntiformError
}

// Splice returns c reinterpreted as a splice antiform: a signal that,
// when inserted into a series, inlines its own elements rather than
// being stored as a single nested value (spec.md §4.3 "spread").
func Splice(c Cell) Cell {
	out := c
	out.Lift = LiftAntiform
	out.anti = AntiformSplice
	return out
}

// StripAntiform returns c with its antiform lift removed, reinterpreting
// it as the plain value of the same Kind. Used when inlining a splice's
// contents (spec.md §4.3) or converting a raised error back to a value.
func (c Cell) StripAntiform() Cell {
	out := c
	out.Lift = LiftPlain
	out.anti = AntiformNone
	return out
}

// PlainError strips the antiform lift, turning a raised error back into
// an ordinary inert value that can be stored and inspected (spec.md
// §4.8 "Converting a thrown error into a plain value...is explicit").
func (c Cell) PlainError() Cell {
	out := c
	out.Lift = LiftPlain
	out.anti = AntiformNone
	return out
}

// Markables reports which of Payload1/Payload2/Extra the collector must
// trace for this cell (spec.md §4.2 "kind plus flags decide whether
// each... must be GC-scanned"). It decides by the dynamic type of each
// slot, not by Kind or Lift: it returns the live *stub.Stub references
// only; inline scalars are skipped.
func (c Cell) Markables() []*stub.Stub {
	var out []*stub.Stub
	if s, ok := c.Payload1.(*stub.Stub); ok && s != nil {
		out = append(out, s)
	}
	if s, ok := c.Payload2.(*stub.Stub); ok && s != nil {
		out = append(out, s)
	}
	if c.Kind.IsBindable() {
		if s, ok := c.Extra.(*stub.Stub); ok && s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (c Cell) String() string {
	switch c.reserved {
	case reservedErased:
		return "#[erased]"
	case reservedPoisoned:
		return "#[poisoned]"
	case reservedUnreadable:
		return "#[unreadable]"
	}
	if c.Lift == LiftAntiform {
		return fmt.Sprintf("~%s~", c.anti)
	}
	switch c.Kind {
	case KindBlank:
		return "_"
	case KindLogic:
		if c.Payload1.(bool) {
			return "#[true]"
		}
		return "#[false]"
	case KindInteger:
		return fmt.Sprintf("%d", c.Payload1.(int64))
	case KindDecimal:
		return fmt.Sprintf("%g", c.Payload1.(float64))
	case KindWord, KindSetWord, KindGetWord:
		return c.Payload1.(*symbol.Symbol).String()
	default:
		return fmt.Sprintf("#[%s]", c.Kind)
	}
}

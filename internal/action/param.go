// Package action implements the callable unit of the evaluator: the
// parameter list an action's arguments are checked and fulfilled
// against, the frame that fulfillment produces, the bounce values a
// dispatcher returns to the trampoline, generic multi-method dispatch,
// hijacking, and the native registry (spec.md §3 "Action", §4.5).
package action

import (
	"glyph/internal/cell"
	"glyph/internal/symbol"
)

// Class is the parameter's evaluation treatment (spec.md §4.5
// "parameter classes"). The stepper's argument gathering treats
// ClassQuoted and ClassSoftQuoted specially; ClassRefinement and
// ClassVariadic arguments are gathered exactly like ClassNormal ones.
type Class uint8

const (
	// ClassNormal evaluates its argument expression fully before the
	// dispatcher runs.
	ClassNormal Class = iota
	// ClassQuoted takes its argument unevaluated, exactly as written.
	ClassQuoted
	// ClassSoftQuoted takes literals unevaluated but still evaluates
	// group-enclosed escapes.
	ClassSoftQuoted
	// ClassRefinement is an optional named switch; present or absent,
	// never itself evaluated as a value-bearing argument.
	ClassRefinement
	// ClassVariadic consumes a variable, lazily-pulled run of
	// arguments from the calling feed rather than one fixed slot.
	ClassVariadic
)

func (c Class) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassQuoted:
		return "quoted"
	case ClassSoftQuoted:
		return "soft-quoted"
	case ClassRefinement:
		return "refinement"
	case ClassVariadic:
		return "variadic"
	default:
		return "unknown-class"
	}
}

// Flags are per-parameter modifiers orthogonal to Class.
type Flags uint8

const (
	// FlagOptional permits the argument to be absent (its frame slot
	// keeps the blank NewFrame put there) rather than raising a
	// missing-argument error.
	FlagOptional Flags = 1 << iota
	// FlagTypeChecked requires the fulfilled value's Kind to appear in
	// Param.Types (empty Types means "no restriction" regardless of
	// this flag).
	FlagTypeChecked
	// FlagSkippable lets a refinement be entirely absent from the
	// paramlist's interface without being an error for the caller.
	FlagSkippable
)

func (f Flags) Has(want Flags) bool { return f&want == want }

// Param describes one argument slot.
type Param struct {
	Name  *symbol.Symbol
	Class Class
	Flags Flags
	Types []cell.Kind // empty means unrestricted
}

// Accepts reports whether v's kind satisfies p's type restriction.
func (p Param) Accepts(v cell.Cell) bool {
	if !p.Flags.Has(FlagTypeChecked) || len(p.Types) == 0 {
		return true
	}
	for _, k := range p.Types {
		if k == v.Kind {
			return true
		}
	}
	return false
}

// Paramlist is the ordered parameter interface of one action.
type Paramlist struct {
	Params []Param

	// Infix marks an action that the stepper's lookahead phase invokes
	// in operator position: its first parameter is filled from the
	// value already produced to its left rather than pulled fresh from
	// the feed (spec.md §4.6 "infix lookahead").
	Infix bool
}

// IndexOf returns the 0-based position of the parameter named sym.
func (pl *Paramlist) IndexOf(sym *symbol.Symbol) (int, bool) {
	for i, p := range pl.Params {
		if p.Name == sym {
			return i, true
		}
	}
	return 0, false
}

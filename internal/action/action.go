package action

import (
	"fmt"

	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/memory"
	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// Dispatcher is an action's body: given a fulfilled frame, it produces
// a Bounce (spec.md §4.5, §4.7).
type Dispatcher func(frame *ctx.Context) Bounce

// Action is the callable value identity: a Details stub (paramlist +
// dispatcher + a label for error/debug display) referenced by a
// KindFrame cell whose stub flavor is Details rather than Varlist —
// that flavor check is exactly what distinguishes "this frame cell is
// an action" from "this frame cell is a running call's argument
// context" (spec.md §3/§4.5).
type Action struct {
	Stub *stub.Stub
}

// NewAction allocates a new action with the given interface and body.
func NewAction(pool *memory.Pool, params *Paramlist, label string, dispatch Dispatcher) *Action {
	s := pool.AllocStub(stub.FlavorDetails)
	s.Inline[0] = params
	s.Inline[1] = dispatch
	s.Misc = label
	pool.Manage(s)
	return &Action{Stub: s}
}

// Paramlist returns a's parameter interface.
func (a *Action) Paramlist() *Paramlist { return a.Stub.Inline[0].(*Paramlist) }

// Dispatcher returns a's current body. Hijack swaps this in place.
func (a *Action) Dispatcher() Dispatcher { return a.Stub.Inline[1].(Dispatcher) }

// Label returns a's display name, for error messages and `mold`.
func (a *Action) Label() string {
	l, _ := a.Stub.Misc.(string)
	return l
}

// Cell returns a in its value-cell form.
func (a *Action) Cell() cell.Cell { return cell.Series(cell.KindFrame, a.Stub) }

// FromCell recovers the *Action a cell refers to. ok is false if c is
// not a KindFrame cell, or its stub is a Varlist (an ordinary running
// frame context, not an action).
func FromCell(c cell.Cell) (*Action, bool) {
	if c.Kind != cell.KindFrame {
		return nil, false
	}
	s := c.AsStub()
	if s.Flavor != stub.FlavorDetails {
		return nil, false
	}
	return &Action{Stub: s}, true
}

// ErrArgMissing is returned by Fulfill when a required, non-optional
// parameter has no corresponding argument.
type ErrArgMissing struct{ Param *symbol.Symbol }

func (e ErrArgMissing) Error() string {
	return fmt.Sprintf("action: missing required argument %s", e.Param)
}

// ErrArgType is returned by Fulfill when a fulfilled argument's kind
// fails Param.Accepts.
type ErrArgType struct {
	Param *symbol.Symbol
	Got   cell.Kind
}

func (e ErrArgType) Error() string {
	return fmt.Sprintf("action: argument %s has disallowed type %s", e.Param, e.Got)
}

// NewFrame allocates the KindFrame context that argument fulfillment
// writes into: one slot per parameter, in paramlist order, all
// initially blank. action records which action spawned this frame, for
// error reporting and recursive self-reference.
func NewFrame(pool *memory.Pool, a *Action) *ctx.Context {
	pl := a.Paramlist()
	f := ctx.New(pool, ctx.KindFrame, len(pl.Params))
	for _, p := range pl.Params {
		f.Append(pool, p.Name, cell.Blank())
	}
	f.Action = a
	return f
}

// Fulfill writes args (already evaluated or quoted per each
// parameter's class, by the caller) into frame in paramlist order,
// applying the optional/type-checked rules (spec.md §4.5 "argument
// fulfillment"). A nil entry in args means "absent"; absent is legal
// only for FlagOptional or ClassRefinement parameters.
func Fulfill(pool *memory.Pool, frame *ctx.Context, a *Action, args []*cell.Cell) error {
	pl := a.Paramlist()
	for i, p := range pl.Params {
		var v cell.Cell
		present := i < len(args) && args[i] != nil
		if present {
			v = *args[i]
		}
		if !present {
			if p.Flags.Has(FlagOptional) || p.Class == ClassRefinement {
				continue
			}
			return ErrArgMissing{Param: p.Name}
		}
		if !p.Accepts(v) {
			return ErrArgType{Param: p.Name, Got: v.Kind}
		}
		if err := frame.SetValueAt(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

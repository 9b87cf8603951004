// Package level implements the evaluator's per-expression call record
// (spec.md §3 "Level", §4.6, §4.7): a cursor over the source feed plus
// the mutable registers the stepper's state machine reads and writes
// as it steps one expression at a time. Grounded on the teacher's
// EnhancedVM frame/call-stack bookkeeping (internal/vm/vm.go), adapted
// from a bytecode program counter + operand stack to a cell-array
// cursor with explicit output/spare registers, since this evaluator
// walks source trees directly instead of compiled instructions.
package level

import (
	"glyph/internal/bind"
	"glyph/internal/cell"
)

// Feed is a one-item-lookahead cursor over a block's elements and the
// binding root unbound words in it resolve against (spec.md §4.6
// "Feed"). Binding is `any` — a *ctx.Context, a *bind.Overlay, a
// let-stub, or nil — interpreted by bind.Resolve exactly as a word
// cell's own Extra binding would be; Feed supplies it only for cells
// that arrive with no binding of their own; a word's own Extra, when
// set, always wins.
type Feed struct {
	Source   cell.Cell
	Pos      int
	Binding  any
	Fallback *bind.Sea
}

// NewFeed creates a cursor over blk starting at its first element.
func NewFeed(blk cell.Cell, binding any, fallback *bind.Sea) *Feed {
	return &Feed{Source: blk, Binding: binding, Fallback: fallback}
}

// AtEnd reports whether the cursor has consumed every element.
func (f *Feed) AtEnd() bool { return f.Pos >= cell.Len(f.Source) }

// Peek returns the next element without consuming it.
func (f *Feed) Peek() (cell.Cell, bool) {
	if f.AtEnd() {
		return cell.Cell{}, false
	}
	return cell.ElementAt(f.Source, f.Pos), true
}

// PeekAt returns the element offset cells ahead of the cursor without
// consuming anything, used by the stepper's infix/lambda lookahead
// that must see two tokens ahead without committing to either.
func (f *Feed) PeekAt(offset int) (cell.Cell, bool) {
	idx := f.Pos + offset
	if idx < 0 || idx >= cell.Len(f.Source) {
		return cell.Cell{}, false
	}
	return cell.ElementAt(f.Source, idx), true
}

// Next consumes and returns the next element.
func (f *Feed) Next() (cell.Cell, bool) {
	v, ok := f.Peek()
	if ok {
		f.Pos++
	}
	return v, ok
}

// Child returns a fresh cursor over blk, keeping f's Fallback but
// taking a new binding root, used when a call's quoted argument is itself
// a block that must later be evaluated under some other scope (e.g. an
// `if` branch, which inherits the caller's binding rather than the
// block literal's).
func (f *Feed) Child(blk cell.Cell, binding any) *Feed {
	return NewFeed(blk, binding, f.Fallback)
}

// State is the stepper's current phase within one expression's
// evaluation (spec.md §4.6 "stepper states").
type State uint8

const (
	StateInitialEntry State = iota
	StateLookahead
	StateFulfillArg
	StateRunningAction
	StateReevaluating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInitialEntry:
		return "initial-entry"
	case StateLookahead:
		return "lookahead"
	case StateFulfillArg:
		return "fulfill-arg"
	case StateRunningAction:
		return "running-action"
	case StateReevaluating:
		return "reevaluating"
	case StateDone:
		return "done"
	default:
		return "unknown-state"
	}
}

// Level is one evaluator call frame (spec.md §3 "Level"): the feed it
// steps, the register cells the stepper writes through, and the prior
// level it will resume once this one reaches StateDone (spec.md §4.7
// "level stack"). Nothing walks the Prior chain on a thrown non-local
// exit: stepper.runAction and trampoline.Drive turn a Thrown bounce
// into a Go error.
type Level struct {
	Feed  *Feed
	State State

	// Out holds the value the current expression has produced so far;
	// Spare and Scratch are the stepper's working registers for
	// argument fulfillment and infix lookahead (spec.md §4.6 "output,
	// spare, and scratch cells").
	Out     cell.Cell
	Spare   cell.Cell
	Scratch cell.Cell

	// Label is a name slot for spec.md §4.7's catching levels. No code
	// in this tree sets or reads it, and no throw is caught by label.
	Label string

	Prior *Level
}

// New allocates a fresh top-level Level over feed, chained to prior
// (nil for the outermost call).
func New(feed *Feed, prior *Level) *Level {
	return &Level{Feed: feed, State: StateInitialEntry, Prior: prior, Out: cell.Ghost()}
}

// Push returns a new child Level over a fresh feed, chained so a thrown
// non-local exit can unwind back through lvl.
func (lvl *Level) Push(feed *Feed) *Level {
	return New(feed, lvl)
}

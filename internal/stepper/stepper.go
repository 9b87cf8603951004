// Package stepper implements the evaluator's per-expression state
// machine (spec.md §4.6): classifying the next feed element, looking
// ahead for an infix operator, recursively fulfilling an action's
// parameters, and folding ghost results without letting them displace
// a prior value. Grounded on the teacher's EnhancedVM.Run dispatch
// loop (internal/vm/vm.go, a giant switch stepping one bytecode
// instruction at a time) — here the "instruction" is the next cell in
// a source block rather than an opcode, and each param class recurses
// back into Step instead of pushing onto a bytecode operand stack.
package stepper

import (
	"fmt"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/datastack"
	"glyph/internal/level"
	"glyph/internal/memory"
)

func isCommaWord(c cell.Cell) bool {
	return c.Kind == cell.KindWord && c.Symbol().String() == ","
}

// resolveWord looks up w's value, falling back to lvl's ambient feed
// binding when w carries no binding of its own (spec.md §4.4: a bare
// word read straight out of a freshly-scanned block has no Extra yet
// and resolves through whatever scope is evaluating it).
func resolveWord(lvl *level.Level, w cell.Cell) (cell.Cell, bool) {
	root := w.Binding()
	if root == nil {
		root = lvl.Feed.Binding
	}
	t, ok := bind.Resolve(root, lvl.Feed.Fallback, w.Symbol())
	if !ok {
		return cell.Cell{}, false
	}
	return t.Get()
}

// setWord resolves w's destination the same way resolveWord does, and
// falls all the way back to creating a fresh module-sea entry when no
// context claims it — the evaluator's equivalent of top-level variable
// creation at a REPL prompt.
func setWord(lvl *level.Level, w cell.Cell, v cell.Cell) error {
	root := w.Binding()
	if root == nil {
		root = lvl.Feed.Binding
	}
	if t, ok := bind.Resolve(root, lvl.Feed.Fallback, w.Symbol()); ok {
		return t.Set(v)
	}
	if lvl.Feed.Fallback != nil {
		lvl.Feed.Fallback.Set(w.Symbol(), v)
		return nil
	}
	return fmt.Errorf("stepper: cannot bind %s: no destination context", w.Symbol())
}

// tryLambda recognizes the `word -> block` pattern (spec.md §9 "arrow
// lambdas") at the cursor and, if present, consumes both cells and
// builds the lambda action without ever resolving word as a variable —
// word names the lambda's own parameter, so it is intentionally
// unbound at this point.
func tryLambda(pool *memory.Pool, lvl *level.Level, word cell.Cell) (cell.Cell, bool, error) {
	op, ok := lvl.Feed.Peek()
	if !ok || op.Kind != cell.KindWord || op.Symbol().String() != "->" {
		return cell.Cell{}, false, nil
	}
	body, ok := lvl.Feed.PeekAt(1)
	if !ok || body.Kind != cell.KindBlock {
		return cell.Cell{}, false, nil
	}
	lvl.Feed.Next() // "->"
	lvl.Feed.Next() // body block
	return action.NewLambda(pool, word.Symbol(), body).Cell(), true, nil
}

func gatherArg(pool *memory.Pool, lvl *level.Level, p action.Param) (cell.Cell, error) {
	lvl.State = level.StateFulfillArg
	if p.Class == action.ClassQuoted {
		v, ok := lvl.Feed.Next()
		if !ok {
			return cell.Cell{}, fmt.Errorf("stepper: missing quoted argument %s", p.Name)
		}
		return v, nil
	}
	if p.Class == action.ClassSoftQuoted {
		if v, ok := lvl.Feed.Peek(); ok && v.Kind != cell.KindGroup {
			lvl.Feed.Next()
			return v, nil
		}
	}
	return Step(pool, lvl)
}

// runAction fulfills act's frame and interprets its Bounce inline —
// the same interpretation internal/trampoline.Drive performs for the
// outer loop, kept here too because internal/trampoline already
// imports internal/stepper to drive it, so stepper cannot import
// trampoline back without a cycle. RedoUnchecked/Downshifted re-invoke
// the same dispatcher in place; ContinueSublevel/Delegate invoke the
// sublevel thunk Bounce.Sublevel carries.
func runAction(pool *memory.Pool, lvl *level.Level, act *action.Action, args []cell.Cell) (cell.Cell, error) {
	lvl.State = level.StateRunningAction
	frame := action.NewFrame(pool, act)
	frame.Running = &runner{pool: pool, lvl: lvl}
	ptrs := make([]*cell.Cell, len(args))
	for i := range args {
		ptrs[i] = &args[i]
	}
	if err := action.Fulfill(pool, frame, act, ptrs); err != nil {
		return cell.Cell{}, err
	}
	b := act.Dispatcher()(frame)
	for {
		switch b.Kind {
		case action.Out:
			return b.Value, nil
		case action.Thrown:
			return cell.Cell{}, fmt.Errorf("%s", b.Value.String())
		case action.Unhandled:
			return cell.Cell{}, fmt.Errorf("stepper: unhandled generic dispatch for %s", act.Label())
		case action.RedoUnchecked, action.Downshifted:
			b = act.Dispatcher()(frame)
		case action.ContinueSublevel, action.Delegate:
			sub, ok := b.Sublevel.(func() action.Bounce)
			if !ok {
				return cell.Cell{}, fmt.Errorf("stepper: bounce %s carries no runnable sublevel", b.Kind)
			}
			b = sub()
		default:
			return cell.Cell{}, fmt.Errorf("stepper: unrecognized bounce %s", b.Kind)
		}
	}
}

func callPrefix(pool *memory.Pool, lvl *level.Level, act *action.Action) (cell.Cell, error) {
	params := act.Paramlist().Params
	args := make([]cell.Cell, len(params))
	for i, p := range params {
		v, err := gatherArg(pool, lvl, p)
		if err != nil {
			return cell.Cell{}, err
		}
		args[i] = v
	}
	return runAction(pool, lvl, act, args)
}

func callInfix(pool *memory.Pool, lvl *level.Level, act *action.Action, left cell.Cell) (cell.Cell, error) {
	params := act.Paramlist().Params
	args := make([]cell.Cell, len(params))
	if len(args) > 0 {
		args[0] = left
	}
	for i := 1; i < len(params); i++ {
		v, err := gatherArg(pool, lvl, params[i])
		if err != nil {
			return cell.Cell{}, err
		}
		args[i] = v
	}
	return runAction(pool, lvl, act, args)
}

func dispatchIfAction(pool *memory.Pool, lvl *level.Level, v cell.Cell) (cell.Cell, error) {
	if act, ok := action.FromCell(v); ok {
		return callPrefix(pool, lvl, act)
	}
	return v, nil
}

// evalPrimary classifies and evaluates one feed element: the
// INITIAL-ENTRY phase of spec.md §4.6's state machine.
func evalPrimary(pool *memory.Pool, lvl *level.Level, c cell.Cell) (cell.Cell, error) {
	switch c.Kind {
	case cell.KindWord:
		if isCommaWord(c) {
			return cell.Ghost(), nil
		}
		if lam, ok, err := tryLambda(pool, lvl, c); ok || err != nil {
			return lam, err
		}
		v, found := resolveWord(lvl, c)
		if !found {
			return cell.Cell{}, fmt.Errorf("stepper: %s has no value", c.Symbol())
		}
		return dispatchIfAction(pool, lvl, v)
	case cell.KindSetWord:
		v, err := Step(pool, lvl)
		if err != nil {
			return cell.Cell{}, err
		}
		if err := setWord(lvl, c, v); err != nil {
			return cell.Cell{}, err
		}
		return v, nil
	case cell.KindGetWord:
		probe := cell.Word(cell.KindWord, c.Symbol())
		probe.SetBinding(c.Binding())
		v, found := resolveWord(lvl, probe)
		if !found {
			return cell.Cell{}, fmt.Errorf("stepper: %s has no value", c.Symbol())
		}
		return v, nil
	case cell.KindGroup:
		child := lvl.Push(lvl.Feed.Child(c, lvl.Feed.Binding))
		return EvalSequence(pool, child)
	default:
		return c, nil
	}
}

// Step evaluates one full expression — a primary plus any infix chain
// following it — starting at lvl.Feed's cursor, and leaves the cursor
// just past the last cell it consumed (spec.md §4.6, the stepper's
// complete INITIAL-ENTRY/LOOKAHEAD/FULFILL-ARG/RUNNING-ACTION cycle for
// one expression).
func Step(pool *memory.Pool, lvl *level.Level) (cell.Cell, error) {
	lvl.State = level.StateInitialEntry
	primary, ok := lvl.Feed.Next()
	if !ok {
		lvl.State = level.StateDone
		return cell.Ghost(), nil
	}
	current, err := evalPrimary(pool, lvl, primary)
	if err != nil {
		return cell.Cell{}, err
	}
	out, err := lookahead(pool, lvl, current)
	if err != nil {
		return cell.Cell{}, err
	}
	lvl.Out = out
	return out, nil
}

// lookahead is the LOOKAHEAD phase: it repeatedly checks whether the
// next feed element is a word bound to an infix action and, if so,
// consumes it and folds its result in, never letting a ghost result
// (spec.md §9) displace the value already produced.
func lookahead(pool *memory.Pool, lvl *level.Level, current cell.Cell) (cell.Cell, error) {
	for {
		lvl.State = level.StateLookahead
		next, ok := lvl.Feed.Peek()
		if !ok || isCommaWord(next) {
			break
		}
		var act *action.Action
		if next.Kind == cell.KindWord {
			if v, found := resolveWord(lvl, next); found {
				if a, ok := action.FromCell(v); ok && a.Paramlist().Infix {
					act = a
				}
			}
		}
		if act == nil {
			break
		}
		lvl.Feed.Next()
		result, err := callInfix(pool, lvl, act, current)
		if err != nil {
			return cell.Cell{}, err
		}
		if result.IsGhost() {
			continue
		}
		current = result
	}
	lvl.State = level.StateDone
	return current, nil
}

// EvalSequence runs every expression in lvl's feed to completion,
// skipping comma expression-barriers between them, and returns the
// last non-ghost value produced (spec.md §4.6 point 6, §9).
func EvalSequence(pool *memory.Pool, lvl *level.Level) (cell.Cell, error) {
	result := cell.Ghost()
	for !lvl.Feed.AtEnd() {
		if c, _ := lvl.Feed.Peek(); isCommaWord(c) {
			lvl.Feed.Next()
			continue
		}
		v, err := Step(pool, lvl)
		if err != nil {
			return cell.Cell{}, err
		}
		if !v.IsGhost() {
			result = v
		}
	}
	lvl.State = level.StateDone
	return result, nil
}

// ReduceSequence evaluates each comma-delimited expression in lvl's
// feed and collects every result into a new block, in source order
// (spec.md §8 `reduce [1 + 2, 3 + 4]` -> `[3 7]`). Results accumulate on
// a datastack.Stack rather than growing the output block one Append
// call at a time, matching spec.md §4.9's "collect above a baseline,
// then pop as one new series" idiom (the shape reduce/compose share
// with error unwinding, which instead drops back to its baseline
// without collecting).
func ReduceSequence(pool *memory.Pool, lvl *level.Level) (cell.Cell, error) {
	stack := datastack.New(8)
	baseline := stack.Baseline()
	for !lvl.Feed.AtEnd() {
		if c, _ := lvl.Feed.Peek(); isCommaWord(c) {
			lvl.Feed.Next()
			continue
		}
		v, err := Step(pool, lvl)
		if err != nil {
			stack.DropTo(baseline)
			return cell.Cell{}, err
		}
		if v.IsGhost() {
			continue
		}
		stack.Push(v)
	}
	return stack.PopAsBlock(baseline), nil
}

// ComposeSequence walks blk element by element, evaluating every
// KindGroup in place and passing everything else through unchanged
// (spec.md §8 `compose [a (1 + 2) b]` -> `[a 3 b]`). Unlike
// EvalSequence/ReduceSequence it does not step lvl's own feed; blk is
// an independent block handed in by the `compose` native.
func ComposeSequence(pool *memory.Pool, lvl *level.Level, blk cell.Cell) (cell.Cell, error) {
	stack := datastack.New(8)
	baseline := stack.Baseline()
	n := cell.Len(blk)
	for i := 0; i < n; i++ {
		e := cell.ElementAt(blk, i)
		if e.Kind == cell.KindGroup {
			child := lvl.Push(lvl.Feed.Child(e, lvl.Feed.Binding))
			v, err := EvalSequence(pool, child)
			if err != nil {
				stack.DropTo(baseline)
				return cell.Cell{}, err
			}
			if !v.IsGhost() {
				stack.Push(v)
			}
			continue
		}
		stack.Push(e)
	}
	return stack.PopAsBlock(baseline), nil
}

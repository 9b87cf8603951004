// Package trampoline implements the evaluator's outer driver loop
// (spec.md §4.7): it owns the top-level Level and steps one expression
// at a time through stepper.Step, which interprets every action.Bounce
// variant inline; Drive holds a copy of that interpretation that Eval
// itself does not call. Grounded on the
// teacher's EnhancedVM.Run outer for-loop (internal/vm/vm.go), which
// likewise polls a single instruction per iteration and checks a
// halt/GC condition between them; here the halt signal is a
// context.Context instead of a VM-private flag, matching how the rest
// of this port wires cancellation (see internal/concurrency).
package trampoline

import (
	"context"
	"fmt"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/level"
	"glyph/internal/memory"
	"glyph/internal/stepper"

	"golang.org/x/sync/errgroup"
)

// Drive interprets one dispatcher's Bounce to completion: it follows
// ContinueSublevel/Delegate by invoking the sublevel thunk Bounce
// carries, re-invokes the dispatcher on Downshifted/RedoUnchecked (the
// frame was rewound or rewritten in place and wants to run again from
// the top), and turns Thrown/Unhandled into a Go error. Out is the base
// case.
//
// internal/stepper keeps its own copy of this exact interpretation
// inline in its per-call runAction: stepper.Step is what this
// package's Eval calls to drive the outer loop, so Drive cannot live
// upstream of stepper without the two packages importing each other.
// Both copies exist so that a future dispatcher which actually returns
// ContinueSublevel or Delegate — none of the current natives do — is
// handled identically whichever path reaches it.
func Drive(act *action.Action, frame *ctx.Context, b action.Bounce) (cell.Cell, error) {
	for {
		switch b.Kind {
		case action.Out:
			return b.Value, nil
		case action.Thrown:
			return cell.Cell{}, fmt.Errorf("%s", b.Value.String())
		case action.Unhandled:
			return cell.Cell{}, fmt.Errorf("trampoline: unhandled generic dispatch for %s", act.Label())
		case action.RedoUnchecked, action.Downshifted:
			b = act.Dispatcher()(frame)
		case action.ContinueSublevel, action.Delegate:
			sub, ok := b.Sublevel.(func() action.Bounce)
			if !ok {
				return cell.Cell{}, fmt.Errorf("trampoline: bounce %s carries no runnable sublevel", b.Kind)
			}
			b = sub()
		default:
			return cell.Cell{}, fmt.Errorf("trampoline: unrecognized bounce %s", b.Kind)
		}
	}
}

func isCommaWord(c cell.Cell) bool {
	return c.Kind == cell.KindWord && c.Symbol().String() == ","
}

// Eval is the evaluator's top-level entry point (spec.md §8): it
// drives source one expression at a time through the stepper, polling
// ctx for a halt request and pool for a recycle request between each
// one, and returns the last non-ghost value produced — exactly the
// mandatory scenarios spec.md §8 names (`eval [1 + 2 comment "hi"]` ->
// 3, the `if`/`then`/`->` scenario, etc.).
func Eval(c context.Context, pool *memory.Pool, source cell.Cell, binding any, fallback *bind.Sea) (cell.Cell, error) {
	feed := level.NewFeed(source, binding, fallback)
	lvl := level.New(feed, nil)
	result := cell.Ghost()
	for !feed.AtEnd() {
		if c.Err() != nil {
			return cell.Cell{}, c.Err()
		}
		if peeked, ok := feed.Peek(); ok && isCommaWord(peeked) {
			feed.Next()
			continue
		}
		v, err := stepper.Step(pool, lvl)
		if err != nil {
			return cell.Cell{}, err
		}
		if !v.IsGhost() {
			result = v
		}
		if pool.RecycleRequested() {
			pool.Collect()
		}
	}
	return result, nil
}

// Reduce runs reduce's semantics at the top level: source's
// comma-delimited expressions each evaluate in turn and every result
// collects into a returned block (spec.md §8 `reduce [1 + 2, 3 + 4]`).
func Reduce(pool *memory.Pool, source cell.Cell, binding any, fallback *bind.Sea) (cell.Cell, error) {
	feed := level.NewFeed(source, binding, fallback)
	lvl := level.New(feed, nil)
	return stepper.ReduceSequence(pool, lvl)
}

// Compose runs compose's semantics at the top level (spec.md §8
// `compose [a (1 + 2) b]`).
func Compose(pool *memory.Pool, source cell.Cell, binding any, fallback *bind.Sea) (cell.Cell, error) {
	feed := level.NewFeed(source, binding, fallback)
	lvl := level.New(feed, nil)
	return stepper.ComposeSequence(pool, lvl, source)
}

// RunConcurrent evaluates every source block in programs against its
// own top-level Level, all sharing pool, and cancels the remaining
// ones the moment any one fails or the caller-supplied ctx is done
// (spec.md §5 "a halt request tears down every live level", adapted
// here to several independent top-level programs instead of one level
// stack — e.g. a module loader bringing up several extension init
// blocks side by side). Grounded on the teacher's WorkerPool
// (internal/concurrency/concurrency.go), ported from a channel/worker
// goroutine pool to golang.org/x/sync/errgroup's cancel-on-first-error
// group, which is the idiom the rest of the example corpus reaches for
// (e.g. sentra-cli's use of errgroup for parallel build phases).
func RunConcurrent(c context.Context, pool *memory.Pool, programs []cell.Cell, binding any, fallback *bind.Sea) ([]cell.Cell, error) {
	results := make([]cell.Cell, len(programs))
	g, gctx := errgroup.WithContext(c)
	for i, prog := range programs {
		i, prog := i, prog
		g.Go(func() error {
			v, err := Eval(gctx, pool, prog, binding, fallback)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

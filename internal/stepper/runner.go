package stepper

import (
	"glyph/internal/action"
	"glyph/internal/cell"
	"glyph/internal/level"
	"glyph/internal/memory"
)

// runner satisfies action.Evaluator on behalf of a live Level, so a
// dispatcher holding only frame.Running can recurse back into the
// stepper without internal/action importing internal/stepper (that
// import would run the other way and cycle).
type runner struct {
	pool *memory.Pool
	lvl  *level.Level
}

var _ action.Evaluator = (*runner)(nil)

func (r *runner) EvalBlock(blk cell.Cell) (cell.Cell, error) {
	child := r.lvl.Push(r.lvl.Feed.Child(blk, r.lvl.Feed.Binding))
	return EvalSequence(r.pool, child)
}

func (r *runner) EvalBlockIn(blk cell.Cell, binding any) (cell.Cell, error) {
	child := r.lvl.Push(r.lvl.Feed.Child(blk, binding))
	return EvalSequence(r.pool, child)
}

func (r *runner) ReduceBlock(blk cell.Cell) (cell.Cell, error) {
	child := r.lvl.Push(r.lvl.Feed.Child(blk, r.lvl.Feed.Binding))
	return ReduceSequence(r.pool, child)
}

func (r *runner) ComposeBlock(blk cell.Cell) (cell.Cell, error) {
	return ComposeSequence(r.pool, r.lvl, blk)
}

package action

import (
	"errors"

	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/evalerr"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

var (
	errNoEvaluator = errors.New("action: no running level to recurse into")
	errNotCallable = errors.New("action: then's right side is not a lambda")
)

// valueTarget is a bind.Target over a plain snapshot value, used to
// thread an arrow-lambda's single argument through a virtual overlay
// without allocating a full Context for one slot.
type valueTarget struct{ v cell.Cell }

func (t valueTarget) Get() (cell.Cell, bool) { return t.v, true }
func (t valueTarget) Set(cell.Cell) error    { return errors.New("action: lambda parameter is not assignable") }

// RegisterControl builds the control-flow and ghost-producing natives
// that need recursive evaluation back into the feed — if/then, reduce,
// compose, and comment — plus the `okay` truthy constant. These sit
// apart from RegisterNatives because their dispatchers type-assert
// frame.Running to an Evaluator, something the pure value natives never
// need (spec.md §4.6 "control constructs route through the running
// level, not a private evaluator").
func RegisterControl(pool *memory.Pool, tbl *symbol.Table, sea *bind.Sea) {
	def := func(name string, params []Param, infix bool, d Dispatcher) {
		a := NewAction(pool, &Paramlist{Params: params, Infix: infix}, name, d)
		sea.Set(tbl.Intern(name), a.Cell())
	}
	arg := func(name string) Param { return Param{Name: tbl.Intern(name), Class: ClassNormal} }
	quoted := func(name string) Param { return Param{Name: tbl.Intern(name), Class: ClassQuoted} }

	sea.Set(tbl.Intern("okay"), cell.Logic(true))

	// comment takes a left value through untouched (infix position,
	// first param ignored) and a quoted payload it never evaluates; it
	// always answers ghost so it can never displace the value to its
	// left (spec.md §4.6 point 6, §9 "invisible (ghost) results").
	def("comment", []Param{arg("left"), quoted("text")}, true, func(f *ctx.Context) Bounce {
		return ValueBounce(cell.Ghost())
	})

	// if evaluates its condition eagerly and its branch lazily: the
	// branch only ever runs when the condition is truthy.
	def("if", []Param{arg("condition"), quoted("branch")}, false, func(f *ctx.Context) Bounce {
		cond, _ := f.Get(f.KeyAt(1))
		branch, _ := f.Get(f.KeyAt(2))
		if !truthy(cond) {
			return ValueBounce(cell.Null())
		}
		ev, ok := f.Running.(Evaluator)
		if !ok {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.IllegalAction, errNoEvaluator.Error()))
		}
		v, err := ev.EvalBlock(branch)
		if err != nil {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.Invalid, err.Error()))
		}
		return ValueBounce(v)
	})

	// then is infix: it takes the value produced to its left and the
	// lambda produced to its right (commonly built by `->`) and calls
	// the lambda with that value as its single argument.
	def("then", []Param{arg("value"), arg("lambda")}, true, func(f *ctx.Context) Bounce {
		v, _ := f.Get(f.KeyAt(1))
		lam, _ := f.Get(f.KeyAt(2))
		if v.IsNull() {
			return ValueBounce(cell.Null())
		}
		act, ok := FromCell(lam)
		if !ok {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.UnexpectedType, errNotCallable.Error()))
		}
		return invoke(pool, f.Running, act, []cell.Cell{v})
	})

	def("reduce", []Param{quoted("block")}, false, func(f *ctx.Context) Bounce {
		blk, _ := f.Get(f.KeyAt(1))
		ev, ok := f.Running.(Evaluator)
		if !ok {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.IllegalAction, errNoEvaluator.Error()))
		}
		v, err := ev.ReduceBlock(blk)
		if err != nil {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.Invalid, err.Error()))
		}
		return ValueBounce(v)
	})

	def("compose", []Param{quoted("block")}, false, func(f *ctx.Context) Bounce {
		blk, _ := f.Get(f.KeyAt(1))
		ev, ok := f.Running.(Evaluator)
		if !ok {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.IllegalAction, errNoEvaluator.Error()))
		}
		v, err := ev.ComposeBlock(blk)
		if err != nil {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.Invalid, err.Error()))
		}
		return ValueBounce(v)
	})
}

// invoke fulfills a one-argument call to act and runs its dispatcher,
// propagating running so the callee can itself recurse (e.g. a lambda
// body calling back into EvalBlock).
func invoke(pool *memory.Pool, running any, act *Action, args []cell.Cell) Bounce {
	frame := NewFrame(pool, act)
	frame.Running = running
	ptrs := make([]*cell.Cell, len(args))
	for i := range args {
		ptrs[i] = &args[i]
	}
	if err := Fulfill(pool, frame, act, ptrs); err != nil {
		return ThrownBounce(evalerr.RaiseNew(pool, evalerr.NoArg, err.Error()))
	}
	return act.Dispatcher()(frame)
}

// Invoke is the exported form of invoke, used by the stepper package to
// call a lambda or other action value it has in hand without
// re-deriving frame-construction logic.
func Invoke(pool *memory.Pool, running any, act *Action, args []cell.Cell) Bounce {
	return invoke(pool, running, act, args)
}

// NewLambda builds a single-parameter action whose body block is
// evaluated, with param bound to the call argument, through running's
// Evaluator (spec.md §9 "x -> [...] arrow lambdas"). The stepper
// constructs these on the fly when it recognizes a `word -> block`
// pattern during primary-expression parsing.
func NewLambda(pool *memory.Pool, param *symbol.Symbol, body cell.Cell) *Action {
	params := &Paramlist{Params: []Param{{Name: param, Class: ClassNormal}}}
	return NewAction(pool, params, "lambda", func(f *ctx.Context) Bounce {
		ev, ok := f.Running.(Evaluator)
		if !ok {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.IllegalAction, errNoEvaluator.Error()))
		}
		arg, _ := f.Get(f.KeyAt(1))
		overlay := bind.NewOverlay(nil)
		overlay.Bind(param, valueTarget{arg})
		v, err := ev.EvalBlockIn(body, overlay)
		if err != nil {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.Invalid, err.Error()))
		}
		return ValueBounce(v)
	})
}

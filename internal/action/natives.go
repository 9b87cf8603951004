package action

import (
	"math"

	"modernc.org/mathutil"

	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/evalerr"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

// RegisterNatives builds every built-in action and binds it into sea
// under its canonical name. Grounded on the teacher's
// EnhancedVM.registerBuiltins (internal/vm/vm.go): a flat map literal
// of name -> *NativeFunction, evaluated once at startup. Here each
// entry is a *Action built from a Paramlist and a closure Dispatcher,
// and the destination is the module-sea instead of a VM-private map.
func RegisterNatives(pool *memory.Pool, tbl *symbol.Table, sea *bind.Sea) {
	def := func(name string, params []Param, d Dispatcher) {
		a := NewAction(pool, &Paramlist{Params: params}, name, d)
		sea.Set(tbl.Intern(name), a.Cell())
	}
	defInfix := func(name string, params []Param, d Dispatcher) {
		a := NewAction(pool, &Paramlist{Params: params, Infix: true}, name, d)
		sea.Set(tbl.Intern(name), a.Cell())
	}

	arg := func(name string) Param {
		return Param{Name: tbl.Intern(name), Class: ClassNormal}
	}

	def("add", []Param{arg("a"), arg("b")}, dispatchArith(pool, "+", addChecked, func(a, b float64) float64 { return a + b }))
	def("subtract", []Param{arg("a"), arg("b")}, dispatchArith(pool, "-", subChecked, func(a, b float64) float64 { return a - b }))
	def("multiply", []Param{arg("a"), arg("b")}, dispatchArith(pool, "*", mulChecked, func(a, b float64) float64 { return a * b }))
	def("divide", []Param{arg("a"), arg("b")}, dispatchDivide(pool))

	def("equal?", []Param{arg("a"), arg("b")}, dispatchCompare(func(c int) bool { return c == 0 }))
	def("lesser?", []Param{arg("a"), arg("b")}, dispatchCompare(func(c int) bool { return c < 0 }))
	def("greater?", []Param{arg("a"), arg("b")}, dispatchCompare(func(c int) bool { return c > 0 }))

	// Infix spellings of the same dispatchers, consulted by the
	// stepper's lookahead phase when these words appear in operator
	// position (spec.md §4.6 "infix lookahead"); `add 1 2` and
	// `1 + 2` share identical arithmetic, only the calling convention
	// differs.
	defInfix("+", []Param{arg("a"), arg("b")}, dispatchArith(pool, "+", addChecked, func(a, b float64) float64 { return a + b }))
	defInfix("-", []Param{arg("a"), arg("b")}, dispatchArith(pool, "-", subChecked, func(a, b float64) float64 { return a - b }))
	defInfix("*", []Param{arg("a"), arg("b")}, dispatchArith(pool, "*", mulChecked, func(a, b float64) float64 { return a * b }))
	defInfix("/", []Param{arg("a"), arg("b")}, dispatchDivide(pool))
	defInfix("=", []Param{arg("a"), arg("b")}, dispatchCompare(func(c int) bool { return c == 0 }))
	defInfix("<", []Param{arg("a"), arg("b")}, dispatchCompare(func(c int) bool { return c < 0 }))
	defInfix(">", []Param{arg("a"), arg("b")}, dispatchCompare(func(c int) bool { return c > 0 }))

	def("not", []Param{arg("value")}, func(f *ctx.Context) Bounce {
		v, _ := f.Get(f.KeyAt(1))
		return ValueBounce(cell.Logic(!truthy(v)))
	})

	def("length?", []Param{arg("series")}, func(f *ctx.Context) Bounce {
		v, _ := f.Get(f.KeyAt(1))
		return ValueBounce(cell.Integer(int64(cell.Len(v))))
	})

	def("first", []Param{arg("series")}, func(f *ctx.Context) Bounce {
		v, _ := f.Get(f.KeyAt(1))
		if cell.Len(v) == 0 {
			return ValueBounce(cell.Null())
		}
		return ValueBounce(cell.ElementAt(v, 0))
	})

	def("copy", []Param{arg("value")}, func(f *ctx.Context) Bounce {
		v, _ := f.Get(f.KeyAt(1))
		if !v.Kind.IsListlike() && !v.Kind.IsStringlike() {
			return ValueBounce(v)
		}
		return ValueBounce(cell.Copy(v))
	})

	def("append", []Param{arg("series"), arg("value")}, func(f *ctx.Context) Bounce {
		series, _ := f.Get(f.KeyAt(1))
		v, _ := f.Get(f.KeyAt(2))
		if err := cell.Append(series, []cell.Cell{v}, cell.Policy{Part: -1, Dup: 1}); err != nil {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.BadPoke, err.Error()))
		}
		return ValueBounce(series)
	})

	def("spread", []Param{arg("value")}, func(f *ctx.Context) Bounce {
		v, _ := f.Get(f.KeyAt(1))
		return ValueBounce(cell.Splice(v))
	})
}

func truthy(v cell.Cell) bool {
	if v.IsNull() {
		return false
	}
	if v.Kind == cell.KindLogic {
		return v.AsLogic()
	}
	return true
}

// arithFn is a checked integer operation: it reports ok=false on
// overflow instead of wrapping.
type arithFn func(a, b int64) (int64, bool)

// decimalFn is the same operation performed in floating point, used
// when either operand is a decimal.
type decimalFn func(a, b float64) float64

func dispatchArith(pool *memory.Pool, op string, intOp arithFn, decOp decimalFn) Dispatcher {
	return func(f *ctx.Context) Bounce {
		a, _ := f.Get(f.KeyAt(1))
		b, _ := f.Get(f.KeyAt(2))
		if a.Kind == cell.KindDecimal || b.Kind == cell.KindDecimal {
			return ValueBounce(cell.Decimal(decOp(decimalOf(a), decimalOf(b))))
		}
		result, ok := intOp(a.AsInteger(), b.AsInteger())
		if !ok {
			return ThrownBounce(evalerr.RaiseNewf(pool, evalerr.Overflow, "integer overflow in %s", op))
		}
		return ValueBounce(cell.Integer(result))
	}
}

func decimalOf(v cell.Cell) float64 {
	if v.Kind == cell.KindDecimal {
		return v.AsDecimal()
	}
	return float64(v.AsInteger())
}

func dispatchDivide(pool *memory.Pool) Dispatcher {
	return func(f *ctx.Context) Bounce {
		a, _ := f.Get(f.KeyAt(1))
		b, _ := f.Get(f.KeyAt(2))
		if decimalOf(b) == 0 {
			return ThrownBounce(evalerr.RaiseNew(pool, evalerr.ZeroDivide, "division by zero"))
		}
		if a.Kind == cell.KindDecimal || b.Kind == cell.KindDecimal {
			return ValueBounce(cell.Decimal(decimalOf(a) / decimalOf(b)))
		}
		return ValueBounce(cell.Integer(a.AsInteger() / b.AsInteger()))
	}
}

func dispatchCompare(accept func(cmp int) bool) Dispatcher {
	return func(f *ctx.Context) Bounce {
		a, _ := f.Get(f.KeyAt(1))
		b, _ := f.Get(f.KeyAt(2))
		cmp := 0
		// Integer cells compare as integers, not via decimalOf: float64
		// only has 53 bits of exact integer precision, so two distinct
		// int64 values above 2^53 can round to the same float and compare
		// equal when they aren't.
		if a.Kind != cell.KindDecimal && b.Kind != cell.KindDecimal {
			ai, bi := a.AsInteger(), b.AsInteger()
			switch {
			case ai < bi:
				cmp = -1
			case ai > bi:
				cmp = 1
			}
		} else {
			switch {
			case decimalOf(a) < decimalOf(b):
				cmp = -1
			case decimalOf(a) > decimalOf(b):
				cmp = 1
			}
		}
		return ValueBounce(cell.Logic(accept(cmp)))
	}
}

// addChecked, subChecked, and mulChecked wrap modernc.org/mathutil's own
// checked-arithmetic helpers (spec.md §4.2 integer cell invariants) rather
// than re-deriving the overflow conditions by hand.
func addChecked(a, b int64) (int64, bool) {
	sum, gt := mathutil.CheckAddInt64(a, b)
	return sum, !gt
}

func subChecked(a, b int64) (int64, bool) {
	if b == math.MinInt64 {
		// CheckSubInt64 misses this one: negating MinInt64 wraps back to
		// MinInt64 in two's-complement, so its a==0 case (and any a>=0)
		// falls through its sign-gated checks undetected. a - MinInt64
		// only fits in int64 when a is negative.
		if a >= 0 {
			return 0, false
		}
		return a + math.MaxInt64 + 1, true
	}
	diff, lt := mathutil.CheckSubInt64(a, b)
	return diff, !lt
}

func mulChecked(a, b int64) (int64, bool) {
	result, ovf := mathutil.MulOverflowInt64(a, b)
	return result, !ovf
}

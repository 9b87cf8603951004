package trampoline

import (
	"context"
	"testing"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

func newEnv() (*memory.Pool, *symbol.Table, *bind.Sea) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	sea := bind.NewSea(pool)
	action.RegisterNatives(pool, tbl, sea)
	action.RegisterControl(pool, tbl, sea)
	return pool, tbl, sea
}

func block(elems ...cell.Cell) cell.Cell {
	blk := cell.NewBlock(len(elems))
	for _, e := range elems {
		if err := cell.Append(blk, []cell.Cell{e}, cell.Policy{Part: -1, Dup: 1}); err != nil {
			panic(err)
		}
	}
	return blk
}

func group(elems ...cell.Cell) cell.Cell {
	return cell.Series(cell.KindGroup, block(elems...).AsStub())
}

func word(tbl *symbol.Table, text string) cell.Cell {
	return cell.Word(cell.KindWord, tbl.Intern(text))
}

func textCell(s string) cell.Cell {
	t := cell.NewText(len(s))
	t.AsStub().Dynamic.AppendBytes([]byte(s))
	return t
}

// TestEvalWithTrailingCommentReturnsThree is spec.md §8's first
// mandatory scenario: `eval [1 + 2 comment "hi"]` -> 3.
func TestEvalWithTrailingCommentReturnsThree(t *testing.T) {
	pool, tbl, sea := newEnv()
	src := block(cell.Integer(1), word(tbl, "+"), cell.Integer(2), word(tbl, "comment"), textCell("hi"))

	v, err := Eval(context.Background(), pool, src, sea, sea)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.AsInteger() != 3 {
		t.Fatalf("eval [1 + 2 comment \"hi\"] = %v, want 3", v)
	}
}

// TestReduceCollectsEachCommaDelimitedExpression is spec.md §8's
// `reduce [1 + 2, 3 + 4]` -> `[3 7]`.
func TestReduceCollectsEachCommaDelimitedExpression(t *testing.T) {
	pool, tbl, sea := newEnv()
	src := block(
		cell.Integer(1), word(tbl, "+"), cell.Integer(2), word(tbl, ","),
		cell.Integer(3), word(tbl, "+"), cell.Integer(4),
	)

	v, err := Reduce(pool, src, sea, sea)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if cell.Len(v) != 2 {
		t.Fatalf("reduce result has %d elements, want 2", cell.Len(v))
	}
	if cell.ElementAt(v, 0).AsInteger() != 3 || cell.ElementAt(v, 1).AsInteger() != 7 {
		t.Fatalf("reduce [1 + 2, 3 + 4] = %v, want [3 7]", v)
	}
}

// TestComposeSplicesGroupResultsInPlace is spec.md §8's
// `compose [a (1 + 2) b]` -> `[a 3 b]`.
func TestComposeSplicesGroupResultsInPlace(t *testing.T) {
	pool, tbl, sea := newEnv()
	src := block(
		word(tbl, "a"),
		group(cell.Integer(1), word(tbl, "+"), cell.Integer(2)),
		word(tbl, "b"),
	)

	v, err := Compose(pool, src, sea, sea)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if cell.Len(v) != 3 {
		t.Fatalf("compose result has %d elements, want 3", cell.Len(v))
	}
	if cell.ElementAt(v, 0).Symbol().String() != "a" {
		t.Fatalf("compose result[0] = %v, want word a", cell.ElementAt(v, 0))
	}
	if cell.ElementAt(v, 1).AsInteger() != 3 {
		t.Fatalf("compose result[1] = %v, want 3", cell.ElementAt(v, 1))
	}
	if cell.ElementAt(v, 2).Symbol().String() != "b" {
		t.Fatalf("compose result[2] = %v, want word b", cell.ElementAt(v, 2))
	}
}

// TestIfThenArrowLambdaScenario is spec.md §8's
// `if okay [10] then x -> [x * 2]` -> 20.
func TestIfThenArrowLambdaScenario(t *testing.T) {
	pool, tbl, sea := newEnv()
	branch := block(cell.Integer(10))
	body := block(word(tbl, "x"), word(tbl, "*"), cell.Integer(2))
	src := block(
		word(tbl, "if"), word(tbl, "okay"), branch,
		word(tbl, "then"), word(tbl, "x"), word(tbl, "->"), body,
	)

	v, err := Eval(context.Background(), pool, src, sea, sea)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.AsInteger() != 20 {
		t.Fatalf("if okay [10] then x -> [x * 2] = %v, want 20", v)
	}
}

// TestIfFalseConditionSkipsThen exercises the other side of the branch:
// a falsy condition should make `if` answer null and `then` pass it
// straight through without invoking its lambda.
func TestIfFalseConditionSkipsThen(t *testing.T) {
	pool, tbl, sea := newEnv()
	branch := block(cell.Integer(10))
	body := block(word(tbl, "x"), word(tbl, "*"), cell.Integer(2))
	src := block(
		word(tbl, "if"), cell.Logic(false), branch,
		word(tbl, "then"), word(tbl, "x"), word(tbl, "->"), body,
	)

	v, err := Eval(context.Background(), pool, src, sea, sea)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !v.IsNull() {
		t.Fatalf("if false [...] then ... = %v, want null", v)
	}
}

// TestAppendCopySpreadInlinesElements is spec.md §8's
// `append copy [a b c] spread [d e]` -> `[a b c d e]`.
func TestAppendCopySpreadInlinesElements(t *testing.T) {
	pool, tbl, sea := newEnv()
	abc := block(word(tbl, "a"), word(tbl, "b"), word(tbl, "c"))
	de := block(word(tbl, "d"), word(tbl, "e"))
	src := block(
		word(tbl, "append"),
		word(tbl, "copy"), abc,
		word(tbl, "spread"), de,
	)

	v, err := Eval(context.Background(), pool, src, sea, sea)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if cell.Len(v) != 5 {
		t.Fatalf("append copy [a b c] spread [d e] has %d elements, want 5", cell.Len(v))
	}
	want := []string{"a", "b", "c", "d", "e"}
	for i, w := range want {
		if got := cell.ElementAt(v, i).Symbol().String(); got != w {
			t.Fatalf("element %d = %s, want %s", i, got, w)
		}
	}
	if cell.Len(abc) != 3 {
		t.Fatalf("copy should not have mutated the original block, len = %d", cell.Len(abc))
	}
}

// TestHijackedActionIsObservedByEval confirms the evaluator picks up a
// hijacked dispatcher immediately, the same way internal/action's own
// tests confirm it at the dispatcher level (spec.md §8 hijack scenario).
func TestHijackedActionIsObservedByEval(t *testing.T) {
	pool, tbl, sea := newEnv()
	sym := tbl.Intern("add")
	v, _ := sea.Get(sym)
	act, ok := action.FromCell(v)
	if !ok {
		t.Fatalf("add did not resolve to an action")
	}
	restore, ok := action.HijackByName(nil, sea, sym, func(f *ctx.Context) action.Bounce {
		return action.ValueBounce(cell.Integer(-1))
	})
	if !ok {
		t.Fatalf("HijackByName: expected to find add via the sea")
	}
	defer restore()

	src := block(word(tbl, "add"), cell.Integer(1), cell.Integer(2))
	got, err := Eval(context.Background(), pool, src, sea, sea)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got.AsInteger() != -1 {
		t.Fatalf("eval after hijack = %v, want -1", got)
	}
	_ = act
}

package stepper

import (
	"testing"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/level"
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

func word(tbl *symbol.Table, text string) cell.Cell {
	return cell.Word(cell.KindWord, tbl.Intern(text))
}

func newLevel(blk cell.Cell, sea *bind.Sea) *level.Level {
	return level.New(level.NewFeed(blk, sea, sea), nil)
}

func TestStepSelfEvaluatesLiterals(t *testing.T) {
	pool, _, sea := newEnv()
	lvl := newLevel(block(cell.Integer(42)), sea)

	v, err := Step(pool, lvl)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if v.AsInteger() != 42 {
		t.Fatalf("Step(42) = %v, want 42", v)
	}
	if lvl.State != level.StateDone {
		t.Fatalf("state after Step = %s, want %s", lvl.State, level.StateDone)
	}
}

func TestStepPrefixCall(t *testing.T) {
	pool, tbl, sea := newEnv()
	lvl := newLevel(block(word(tbl, "add"), cell.Integer(1), cell.Integer(2)), sea)

	v, err := Step(pool, lvl)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if v.AsInteger() != 3 {
		t.Fatalf("add 1 2 = %v, want 3", v)
	}
}

func TestStepInfixChain(t *testing.T) {
	pool, tbl, sea := newEnv()
	lvl := newLevel(block(cell.Integer(1), word(tbl, "+"), cell.Integer(2)), sea)

	v, err := Step(pool, lvl)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if v.AsInteger() != 3 {
		t.Fatalf("1 + 2 = %v, want 3", v)
	}
}

func TestCommentGhostNeverDisplacesValue(t *testing.T) {
	pool, tbl, sea := newEnv()
	blk := block(cell.Integer(1), word(tbl, "+"), cell.Integer(2), word(tbl, "comment"), textCell("hi"))
	lvl := newLevel(blk, sea)

	v, err := EvalSequence(pool, lvl)
	if err != nil {
		t.Fatalf("EvalSequence: %v", err)
	}
	if v.AsInteger() != 3 {
		t.Fatalf("eval [1 + 2 comment \"hi\"] = %v, want 3", v)
	}
}

func TestSetWordCreatesSeaBinding(t *testing.T) {
	pool, tbl, sea := newEnv()
	sw := cell.Word(cell.KindSetWord, tbl.Intern("counter"))
	lvl := newLevel(block(sw, cell.Integer(7)), sea)

	v, err := Step(pool, lvl)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if v.AsInteger() != 7 {
		t.Fatalf("counter: 7 evaluated to %v, want 7", v)
	}
	stored, ok := sea.Get(tbl.Intern("counter"))
	if !ok || stored.AsInteger() != 7 {
		t.Fatalf("sea.Get(counter) = %v, %v; want 7, true", stored, ok)
	}
}

func textCell(s string) cell.Cell {
	t := cell.NewText(len(s))
	t.AsStub().Dynamic.AppendBytes([]byte(s))
	return t
}

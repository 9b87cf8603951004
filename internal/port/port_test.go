package port

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

func newEnv() (*memory.Pool, *symbol.Table, *bind.Sea) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	sea := bind.NewSea(pool)
	return pool, tbl, sea
}

// call invokes a registered native directly, the same frame-construction
// shape internal/action's own tests use (NewFrame + Fulfill + dispatch),
// bypassing the evaluator feed entirely.
func call(t *testing.T, pool *memory.Pool, tbl *symbol.Table, sea *bind.Sea, name string, args ...cell.Cell) action.Bounce {
	t.Helper()
	v, ok := sea.Get(tbl.Intern(name))
	if !ok {
		t.Fatalf("native %s not registered", name)
	}
	act, ok := action.FromCell(v)
	if !ok {
		t.Fatalf("%s did not resolve to an action cell", name)
	}
	frame := action.NewFrame(pool, act)
	ptrs := make([]*cell.Cell, len(args))
	for i := range args {
		ptrs[i] = &args[i]
	}
	if err := action.Fulfill(pool, frame, act, ptrs); err != nil {
		t.Fatalf("Fulfill: %v", err)
	}
	return act.Dispatcher()(frame)
}

func wordCell(tbl *symbol.Table, name string) cell.Cell {
	return cell.Word(cell.KindWord, tbl.Intern(name))
}

func TestFileBackendRoundTripsWriteAndRead(t *testing.T) {
	pool, tbl, sea := newEnv()
	RegisterNatives(pool, tbl, sea)

	path := filepath.Join(t.TempDir(), "port.txt")

	opened := call(t, pool, tbl, sea, "port-open", wordCell(tbl, "file"), textCell("+"+path))
	if opened.Kind != action.Out {
		t.Fatalf("port-open: expected Out, got %s", opened.Kind)
	}
	p := opened.Value

	written := call(t, pool, tbl, sea, "port-write", p, textCell("hello"))
	if written.Kind != action.Out {
		t.Fatalf("port-write: expected Out, got %s", written.Kind)
	}
	if written.Value.AsInteger() != 6 { // "hello\n"
		t.Fatalf("port-write: wrote %d bytes, want 6", written.Value.AsInteger())
	}

	closed := call(t, pool, tbl, sea, "port-close", p)
	if closed.Kind != action.Out {
		t.Fatalf("port-close: expected Out, got %s", closed.Kind)
	}

	reopened := call(t, pool, tbl, sea, "port-open", wordCell(tbl, "file"), textCell(path))
	if reopened.Kind != action.Out {
		t.Fatalf("port-open (read): expected Out, got %s", reopened.Kind)
	}
	p2 := reopened.Value

	read := call(t, pool, tbl, sea, "port-read", p2)
	if read.Kind != action.Out {
		t.Fatalf("port-read: expected Out, got %s", read.Kind)
	}
	if got := textOf(read.Value); got != "hello" {
		t.Fatalf("port-read: got %q, want %q", got, "hello")
	}

	eof := call(t, pool, tbl, sea, "port-read", p2)
	if eof.Kind != action.Out || !eof.Value.IsNull() {
		t.Fatalf("port-read at EOF: expected a null value, got %s/%v", eof.Kind, eof.Value)
	}

	call(t, pool, tbl, sea, "port-close", p2)
}

func TestPortOpenRejectsUnknownScheme(t *testing.T) {
	pool, tbl, sea := newEnv()
	RegisterNatives(pool, tbl, sea)

	bounce := call(t, pool, tbl, sea, "port-open", wordCell(tbl, "carrier-pigeon"), textCell(""))
	if bounce.Kind != action.Thrown {
		t.Fatalf("port-open with unknown scheme: expected Thrown, got %s", bounce.Kind)
	}
}

func TestCloseAllClosesEveryOpenPortAndEmptiesRegistry(t *testing.T) {
	pool, tbl, sea := newEnv()
	RegisterNatives(pool, tbl, sea)

	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, "p")
		opened := call(t, pool, tbl, sea, "port-open", wordCell(tbl, "file"), textCell("+"+path))
		if opened.Kind != action.Out {
			t.Fatalf("port-open: expected Out, got %s", opened.Kind)
		}
	}

	if got := len(registry); got != 3 {
		t.Fatalf("registry: have %d open ports, want 3", got)
	}

	if err := CloseAll(context.Background(), time.Second); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if got := len(registry); got != 0 {
		t.Fatalf("registry: have %d ports after CloseAll, want 0", got)
	}
}

func TestPortReadAfterCloseThrows(t *testing.T) {
	pool, tbl, sea := newEnv()
	RegisterNatives(pool, tbl, sea)

	path := filepath.Join(t.TempDir(), "closed.txt")
	opened := call(t, pool, tbl, sea, "port-open", wordCell(tbl, "file"), textCell("+"+path))
	p := opened.Value
	call(t, pool, tbl, sea, "port-close", p)

	bounce := call(t, pool, tbl, sea, "port-read", p)
	if bounce.Kind != action.Thrown {
		t.Fatalf("port-read after close: expected Thrown, got %s", bounce.Kind)
	}
}

package module

import (
	"bytes"
	"compress/gzip"
	"testing"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/ctx"
	"glyph/internal/memory"
	"glyph/internal/symbol"
)

func gzipText(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestLoadEvaluatesDecompressedSourceIntoSea(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	sea := bind.NewSea(pool)
	action.RegisterNatives(pool, tbl, sea)
	action.RegisterControl(pool, tbl, sea)

	l := NewLoader(pool, tbl, sea)
	col := Collation{Name: "greeting", Compressed: gzipText(t, "answer: add 40 2")}
	if err := l.Load(col); err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, ok := sea.Get(tbl.Intern("answer"))
	if !ok || v.AsInteger() != 42 {
		t.Fatalf("sea.Get(answer) = %v, %v; want 42, true", v, ok)
	}

	// Loading the same name again must not re-run the source (it would
	// be harmless here, but the cache check must still short-circuit).
	if err := l.Load(col); err != nil {
		t.Fatalf("second Load: %v", err)
	}
}

func TestLoadBindsNativesBeforeRunningSource(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	sea := bind.NewSea(pool)
	action.RegisterNatives(pool, tbl, sea)
	action.RegisterControl(pool, tbl, sea)

	l := NewLoader(pool, tbl, sea)
	col := Collation{
		Name: "doubler",
		Natives: []Native{
			{
				Name:   "double",
				Params: []action.Param{{Name: tbl.Intern("n"), Class: action.ClassNormal}},
				Dispatcher: func(f *ctx.Context) action.Bounce {
					n, _ := f.Get(f.KeyAt(1))
					return action.ValueBounce(cell.Integer(n.AsInteger() * 2))
				},
			},
		},
		Compressed: gzipText(t, "result: double 21"),
	}
	if err := l.Load(col); err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, ok := sea.Get(tbl.Intern("result"))
	if !ok || v.AsInteger() != 42 {
		t.Fatalf("sea.Get(result) = %v, %v; want 42, true", v, ok)
	}
}

func TestLoadDirectAPISkipsSourceEvaluation(t *testing.T) {
	pool := memory.NewPool(1 << 20)
	tbl := symbol.New()
	sea := bind.NewSea(pool)
	action.RegisterNatives(pool, tbl, sea)

	l := NewLoader(pool, tbl, sea)
	col := Collation{
		Name:      "table-only",
		DirectAPI: true,
		Natives: []Native{
			{
				Name:   "triple",
				Params: []action.Param{{Name: tbl.Intern("n"), Class: action.ClassNormal}},
				Dispatcher: func(f *ctx.Context) action.Bounce {
					n, _ := f.Get(f.KeyAt(1))
					return action.ValueBounce(cell.Integer(n.AsInteger() * 3))
				},
			},
		},
	}
	if err := l.Load(col); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := sea.Get(tbl.Intern("triple")); !ok {
		t.Fatalf("triple should be bound into the sea by a direct-API collation")
	}
}

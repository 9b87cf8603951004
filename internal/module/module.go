// Package module implements the extension loader (spec.md §6
// "Extension format", SPEC_FULL §6.4): a collation is a 4-tuple —
// binding name, gzip-compressed source, a native function table, and a
// direct-vs-api-table flag — that gets decompressed, scanned, bound,
// and imported into the process-wide module sea as one unit. Grounded
// on the teacher's ModuleLoader (internal/module/module.go): the same
// sync.RWMutex-guarded name->module cache and search-path-based file
// lookup, with loadAndCompile's lexer/parser/compiler pipeline replaced
// by this runtime's scanner + trampoline, since there is no separate
// parse or bytecode-compile stage here.
package module

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/evalerr"
	"glyph/internal/memory"
	"glyph/internal/scanner"
	"glyph/internal/symbol"
	"glyph/internal/trampoline"
)

// Native is one entry of a collation's native function pointer table.
type Native struct {
	Name       string
	Params     []action.Param
	Dispatcher action.Dispatcher
}

// Collation is the wire shape spec.md §6 mandates: a binding name, the
// gzip-compressed source text, the native table bound before the
// source runs, and a flag distinguishing a direct-call extension (only
// natives, no source body) from an API-table extension (natives plus a
// source layer built on top of them).
type Collation struct {
	Name       string
	Compressed []byte
	Natives    []Native
	DirectAPI  bool
}

// Loader binds collations into one process-wide module sea, caching by
// name so importing the same extension twice is a no-op after the
// first load.
type Loader struct {
	pool *memory.Pool
	tbl  *symbol.Table
	sea  *bind.Sea

	mu         sync.RWMutex
	loaded     map[string]bool
	searchPath []string
}

// NewLoader creates a Loader that binds every collation it loads into
// sea, the same module sea the evaluator resolves bare words against.
func NewLoader(pool *memory.Pool, tbl *symbol.Table, sea *bind.Sea) *Loader {
	return &Loader{
		pool:       pool,
		tbl:        tbl,
		sea:        sea,
		loaded:     make(map[string]bool),
		searchPath: []string{".", "./lib", "./extensions"},
	}
}

// AddSearchPath appends a directory LoadFile consults when given a bare
// extension name rather than a full path.
func (l *Loader) AddSearchPath(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searchPath = append(l.searchPath, dir)
}

// Load binds col's natives and, unless col is a direct-call-only
// extension, decompresses and evaluates its source, in encounter order
// (natives first, so the source body can reference them). Loading the
// same name twice is a cache hit, not a re-import.
func (l *Loader) Load(col Collation) error {
	l.mu.Lock()
	if l.loaded[col.Name] {
		l.mu.Unlock()
		return nil
	}
	// Claim col.Name before releasing the lock so a second concurrent
	// Load of the same name returns nil at the cache check above, without
	// waiting for this one to finish, instead of registering natives and
	// evaluating the source body twice.
	l.loaded[col.Name] = true
	l.mu.Unlock()

	if err := l.load(col); err != nil {
		l.mu.Lock()
		delete(l.loaded, col.Name)
		l.mu.Unlock()
		return err
	}
	return nil
}

func (l *Loader) load(col Collation) error {
	for _, n := range col.Natives {
		a := action.NewAction(l.pool, &action.Paramlist{Params: n.Params}, n.Name, n.Dispatcher)
		l.sea.Set(l.tbl.Intern(n.Name), a.Cell())
	}

	if !col.DirectAPI && len(col.Compressed) > 0 {
		source, err := decompress(col.Compressed)
		if err != nil {
			return evalerr.Wrap(fmt.Errorf("module: %s: %w", col.Name, err), evalerr.BadExtension)
		}
		blk, err := scanner.New(l.tbl, source).ScanBlock()
		if err != nil {
			return evalerr.Wrap(fmt.Errorf("module: %s: scan: %w", col.Name, err), evalerr.BadExtension)
		}
		if _, err := trampoline.Eval(context.Background(), l.pool, blk, l.sea, l.sea); err != nil {
			return evalerr.Wrap(fmt.Errorf("module: %s: eval: %w", col.Name, err), evalerr.BadExtension)
		}
	}
	return nil
}

// LoadFile reads a gzip-compressed source file (no native table — a
// plain scripted extension) by name, searching l.searchPath the way
// the teacher's findModule walked its own search path for a `.sn`
// file.
func (l *Loader) LoadFile(name string) error {
	path, err := l.findFile(name)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("module: %s: %w", name, err)
	}
	return l.Load(Collation{Name: name, Compressed: raw})
}

func (l *Loader) findFile(name string) (string, error) {
	if filepath.IsAbs(name) {
		if fileExists(name) {
			return name, nil
		}
		return "", fmt.Errorf("module: file not found: %s", name)
	}
	l.mu.RLock()
	paths := append([]string(nil), l.searchPath...)
	l.mu.RUnlock()
	for _, dir := range paths {
		candidate := filepath.Join(dir, name+".glyph.gz")
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("module: extension not found in search path: %s", name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// decompress reads col.Compressed as gzip; an empty or non-gzip input
// is treated as already-plain source, so a Collation built by hand in
// a test doesn't have to gzip a one-line script.
func decompress(compressed []byte) (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return string(compressed), nil
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

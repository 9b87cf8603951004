// Package ctx implements the paired varlist/keylist Context object
// that backs objects, error values, modules, ports, and action frames
// (spec.md §3 "Context", §4.4).
package ctx

import (
	"fmt"

	"glyph/internal/cell"
	"glyph/internal/memory"
	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// Kind selects what role a Context plays. It is recorded in the
// archetype cell at varlist index 0 (spec.md §4.4).
type Kind uint8

const (
	KindObject Kind = iota
	KindError
	KindModule
	KindFrame
	KindPort
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindError:
		return "error"
	case KindModule:
		return "module"
	case KindFrame:
		return "frame"
	case KindPort:
		return "port"
	default:
		return "unknown-context-kind"
	}
}

func (k Kind) cellKind() cell.Kind {
	switch k {
	case KindObject:
		return cell.KindObject
	case KindError:
		return cell.KindError
	case KindModule:
		return cell.KindModule
	case KindFrame:
		return cell.KindFrame
	case KindPort:
		return cell.KindPort
	default:
		panic("ctx: unknown context kind")
	}
}

// Context pairs a varlist (values, index 0 holds the archetype) with a
// keylist (symbols, same index space) sharing one length at all times
// (spec.md §8 invariant: "for every keyed context, length(keylist) ==
// length(varlist)").
type Context struct {
	Varlist *stub.Stub
	kind    Kind

	// Running and Action are populated only for KindFrame contexts:
	// the level currently executing this frame, and the action that
	// spawned it (spec.md §4.4). They are `any` because internal/level
	// and internal/action are built on top of internal/ctx, not the
	// other way around, so a concrete type isn't available here;
	// callers type-assert.
	Running any
	Action  any
}

// New allocates a fresh context of the given kind with an archetype
// cell at index 0 and no keyed slots. pool charges the two backing
// stubs against the GC depletion counter and manages both.
func New(pool *memory.Pool, kind Kind, capacity int) *Context {
	varlist := pool.AllocStub(stub.FlavorVarlist)
	varlist.Dynamic = stub.NewCellDynamic(capacity + 1)
	varlist.Bits |= stub.BitDynamic

	keylist := pool.AllocStub(stub.FlavorKeylist)
	keylist.Dynamic = stub.NewCellDynamic(capacity + 1)
	keylist.Bits |= stub.BitDynamic

	varlist.Link = keylist

	varlist.Dynamic.AppendCell(cell.Series(kind.cellKind(), varlist))
	keylist.Dynamic.AppendCell((*symbol.Symbol)(nil))

	pool.Manage(varlist)
	pool.Manage(keylist)
	return &Context{Varlist: varlist, kind: kind}
}

// Kind reports the context's role.
func (c *Context) Kind() Kind { return c.kind }

// Keylist returns the stub holding this context's symbols.
func (c *Context) Keylist() *stub.Stub { return c.Varlist.Link.(*stub.Stub) }

// Len reports the number of keyed slots, excluding the archetype.
func (c *Context) Len() int {
	return c.Varlist.Dynamic.Len() - 1
}

// Archetype returns the index-0 cell identifying the context's kind
// and backing stub.
func (c *Context) Archetype() cell.Cell {
	return c.Varlist.Dynamic.CellAt(0).(cell.Cell)
}

// checkConsistent is the invariant spec.md §8 names explicitly; it is
// cheap enough to assert on every structural mutation.
func (c *Context) checkConsistent() {
	if c.Varlist.Dynamic.Len() != c.Keylist().Dynamic.Len() {
		panic(fmt.Sprintf("ctx: keylist/varlist length mismatch %d/%d",
			c.Keylist().Dynamic.Len(), c.Varlist.Dynamic.Len()))
	}
}

// IndexOf returns the 1-based slot index of sym, or (0, false) if the
// context has no such key. Index 0 is always the archetype and is
// never returned here.
func (c *Context) IndexOf(sym *symbol.Symbol) (int, bool) {
	kl := c.Keylist()
	for i := 1; i < kl.Dynamic.Len(); i++ {
		if kl.Dynamic.CellAt(i) == sym {
			return i, true
		}
	}
	return 0, false
}

// KeyAt returns the symbol at the given 1-based slot index.
func (c *Context) KeyAt(idx int) *symbol.Symbol {
	return c.Keylist().Dynamic.CellAt(idx).(*symbol.Symbol)
}

// ValueAt returns the value at the given 1-based slot index.
func (c *Context) ValueAt(idx int) cell.Cell {
	return c.Varlist.Dynamic.CellAt(idx).(cell.Cell)
}

// SetValueAt overwrites the value at idx in place. Rejected if the
// varlist is frozen or protected (spec.md §4.3's writability check,
// applied here to the varlist's own series rather than a block/text
// series).
func (c *Context) SetValueAt(idx int, v cell.Cell) error {
	if c.Varlist.IsFrozen() || c.Varlist.IsProtected() {
		return cell.ErrProtected
	}
	c.Varlist.Dynamic.SetCellAt(idx, v)
	return nil
}

// Append adds a new key/value slot at the tail and returns its 1-based
// index. Used while a context is under construction (spec.md §4.4
// "extended incrementally while being built").
func (c *Context) Append(pool *memory.Pool, sym *symbol.Symbol, v cell.Cell) int {
	const slotCost = 16 // flat per-slot charge, same size-class style as Pool.AllocStub
	c.Keylist().Dynamic.AppendCell(sym)
	c.Varlist.Dynamic.AppendCell(v)
	pool.ChargeBytes(slotCost)
	c.checkConsistent()
	return c.Varlist.Dynamic.Len() - 1
}

// Get looks up sym and reports its value, or ok=false if absent.
func (c *Context) Get(sym *symbol.Symbol) (cell.Cell, bool) {
	idx, ok := c.IndexOf(sym)
	if !ok {
		return cell.Cell{}, false
	}
	return c.ValueAt(idx), true
}

// Set writes sym's value, appending a new slot if sym is not already
// bound in this context.
func (c *Context) Set(pool *memory.Pool, sym *symbol.Symbol, v cell.Cell) error {
	if idx, ok := c.IndexOf(sym); ok {
		return c.SetValueAt(idx, v)
	}
	c.Append(pool, sym, v)
	return nil
}

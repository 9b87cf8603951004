package bind

import (
	"glyph/internal/cell"
	"glyph/internal/memory"
	"glyph/internal/stub"
	"glyph/internal/symbol"
)

// NewLet allocates a single-binding let-stub (spec.md §4.4 "let
// introduces one new binding without opening a full keyed context").
// next is whatever the chain continues to when sym isn't this stub's
// own symbol: another let-stub, an *Overlay, a *ctx.Context, a *Sea,
// or nil at the end of the chain.
func NewLet(pool *memory.Pool, sym *symbol.Symbol, v cell.Cell, next any) *stub.Stub {
	s := pool.AllocStub(stub.FlavorLet)
	s.Inline[0] = sym
	s.Inline[1] = v
	s.Link = next
	pool.Manage(s)
	return s
}

// letSymbol reads the symbol a let-stub was created for.
func letSymbol(s *stub.Stub) *symbol.Symbol {
	return s.Inline[0].(*symbol.Symbol)
}

// Package memory implements the stub allocator with its depletion
// counter and the mark-sweep collector (spec.md §4.1). The collector is
// not generational: every cycle marks from all roots and sweeps every
// managed stub. Series data storage lives in internal/stub. This replaces the teacher's forensics-themed
// "memory" package (process/heap inspection for a security tool) wholesale:
// nothing here models a different machine's process memory, it models
// this runtime's own managed heap, which the teacher never had.
package memory

import (
	"sync"

	"glyph/internal/stub"
)

// Root is anything that can enumerate the stubs it directly holds live.
// The collector asks every registered Root for its live set at the start
// of each cycle (spec.md §4.1 "mark roots: the data stack, the level
// stack's cells, managed api-handle list, module seas, symbol table
// entries holding back-refs").
type Root interface {
	MarkRoots(mark func(*stub.Stub))
}

// Pool is the allocator: a source of stub headers plus the
// depletion-counted budget that drives automatic collection. There is
// no freelist; every AllocStub is a fresh stub.New.
type Pool struct {
	mu sync.Mutex

	live      map[*stub.Stub]struct{}
	roots     []Root
	depletion int64 // bytes remaining before a cycle is requested
	budget    int64

	// recycleRequested is set once depletion hits zero; the trampoline
	// polls and clears it at the next evaluator boundary (spec.md §4.7).
	recycleRequested bool

	cyclesRun int
	freed     int64
	allocated int64
}

// NewPool creates an allocator with the given per-cycle GC budget in
// bytes (spec.md §4.1 "GC depletion counter").
func NewPool(budgetBytes int64) *Pool {
	if budgetBytes <= 0 {
		budgetBytes = 1 << 20
	}
	return &Pool{
		live:      make(map[*stub.Stub]struct{}),
		depletion: budgetBytes,
		budget:    budgetBytes,
	}
}

// AddRoot registers a root provider. bind.Sea and datastack.Stack
// implement Root; cmd/glyph and internal/repl register their sea. Levels
// are not a Root.
func (p *Pool) AddRoot(r Root) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roots = append(p.roots, r)
}

// AllocStub allocates a raw, unmanaged stub of the given flavor and
// charges its header size against the depletion counter.
func (p *Pool) AllocStub(flavor stub.Flavor) *stub.Stub {
	const headerSize = 64 // approximate size-class charge for a stub header
	s := stub.New(flavor)
	p.charge(headerSize)
	return s
}

// Manage promotes a stub from unmanaged to managed, inserting it into
// the set the collector can reach via the live map (a stub is only
// truly reachable through Root.MarkRoots chains, but the live map lets
// Sweep distinguish "allocated via this pool" from foreign stubs).
func (p *Pool) Manage(s *stub.Stub) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.Manage()
	p.live[s] = struct{}{}
}

// ChargeBytes deducts n bytes from the depletion counter, e.g. when a
// series grows its Dynamic backing store (spec.md §4.1).
func (p *Pool) ChargeBytes(n int) {
	p.charge(int64(n))
}

func (p *Pool) charge(n int64) {
	p.mu.Lock()
	p.depletion -= n
	p.allocated += n
	if p.depletion <= 0 {
		p.recycleRequested = true
	}
	p.mu.Unlock()
}

// RecycleRequested reports whether the depletion counter has reached
// zero since the last collection (spec.md §4.7 "recycle-queued" flag
// the trampoline checks at each iteration boundary).
func (p *Pool) RecycleRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recycleRequested
}

// LiveCount reports how many managed stubs the pool currently tracks.
func (p *Pool) LiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

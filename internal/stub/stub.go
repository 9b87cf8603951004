// Package stub implements the uniform heap-object header used by every
// managed compound value (spec.md §3 "Stub", §4.1 Memory subsystem) and
// the variable-size series substrate built on top of it (spec.md §4.3).
package stub

// Flavor selects which kind of payload a Stub holds.
type Flavor uint8

const (
	FlavorSymbol Flavor = iota
	FlavorArray         // array-of-cells (blocks, groups, fences)
	FlavorBytes         // byte-buffer (text, binary)
	FlavorKeylist
	FlavorVarlist
	FlavorPairlist // map entries
	FlavorHashlist // map index
	FlavorDetails  // action body
	FlavorLet      // single-binding
	FlavorBookmarks
	FlavorSea // module-sea: unordered binding pool
)

func (f Flavor) String() string {
	switch f {
	case FlavorSymbol:
		return "symbol"
	case FlavorArray:
		return "array"
	case FlavorBytes:
		return "bytes"
	case FlavorKeylist:
		return "keylist"
	case FlavorVarlist:
		return "varlist"
	case FlavorPairlist:
		return "pairlist"
	case FlavorHashlist:
		return "hashlist"
	case FlavorDetails:
		return "details"
	case FlavorLet:
		return "let"
	case FlavorBookmarks:
		return "bookmarks"
	case FlavorSea:
		return "sea"
	default:
		return "unknown-flavor"
	}
}

// Bits holds the per-stub state flags spec.md §3 requires.
type Bits uint16

const (
	BitManaged Bits = 1 << iota
	BitMarked
	BitFrozenShallow
	BitFrozenDeep
	BitProtected
	BitReadOnly
	BitInaccessible
	// BitDynamic marks that Content holds a *Dynamic rather than an
	// inline one/two-cell payload; once set it is never cleared
	// (spec.md: "once promoted to the dynamic form it never shrinks
	// back").
	BitDynamic
)

// Has reports whether all bits in want are set.
func (b Bits) Has(want Bits) bool { return b&want == want }

// Stub is the uniform header. Content is either inline (len(Inline) <=
// 2, no Dynamic) or dynamic (Dynamic != nil, BitDynamic set). Link and
// Misc are flavor-specific back-pointers (e.g. a varlist's Link points
// at its keylist).
type Stub struct {
	Flavor  Flavor
	Bits    Bits
	Inline  [2]any // used only when !Bits.Has(BitDynamic)
	Dynamic *Dynamic
	Link    any
	Misc    any
}

// New allocates a raw, unmanaged Stub. It is solely owned by the caller
// until explicitly promoted to managed (spec.md §3 Lifecycles); callers
// normally go through memory.Pool.AllocStub instead of calling this
// directly so the depletion counter is charged correctly.
func New(flavor Flavor) *Stub {
	return &Stub{Flavor: flavor}
}

// IsManaged reports whether the stub has been linked into the
// reachability graph the collector scans.
func (s *Stub) IsManaged() bool { return s.Bits.Has(BitManaged) }

// Manage promotes an unmanaged stub. It is idempotent.
func (s *Stub) Manage() { s.Bits |= BitManaged }

// Diminish makes a stub inaccessible without deallocating it, so that a
// dangling reference can be reported instead of crashing (spec.md
// §4.1 "Diminishing").
func (s *Stub) Diminish() { s.Bits |= BitInaccessible }

// IsAccessible reports the opposite of Diminish.
func (s *Stub) IsAccessible() bool { return !s.Bits.Has(BitInaccessible) }

// FreezeShallow marks the stub itself immutable (but not its elements,
// if they are themselves compound).
func (s *Stub) FreezeShallow() { s.Bits |= BitFrozenShallow }

// FreezeDeep marks the stub and (conceptually) everything it
// transitively contains immutable. Invariant: frozen-deep implies
// frozen-shallow.
func (s *Stub) FreezeDeep() { s.Bits |= BitFrozenDeep | BitFrozenShallow }

// IsFrozen reports whether any mutation primitive must reject a write
// to this stub.
func (s *Stub) IsFrozen() bool {
	return s.Bits.Has(BitFrozenShallow) || s.Bits.Has(BitFrozenDeep)
}

// Protect marks the stub protected: rejects mutation at the API
// boundary regardless of which cell referenced it.
func (s *Stub) Protect() { s.Bits |= BitProtected }

// IsProtected reports the protect bit.
func (s *Stub) IsProtected() bool { return s.Bits.Has(BitProtected) }

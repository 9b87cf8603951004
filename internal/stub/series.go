package stub

import "fmt"

// Dynamic is the variable-size content a Stub promotes to once its
// payload outgrows the two inline slots (spec.md §3 Series). It is
// generic over element storage: exactly one of Cells or Bytes is used,
// selected by the owning Stub's Flavor.
//
// Bias permits O(1) head-removal by advancing into the backing slice
// while keeping track of the unused prefix (Bias) so it can be
// reclaimed on Unbias. Used is the logical length; Rest is remaining
// capacity measured from the biased start.
type Dynamic struct {
	Bias int
	Used int
	Rest int

	cellData []any  // backing storage when the owner is cell-bearing
	byteData []byte // backing storage when the owner is byte-bearing
}

// MaxBias bounds how far a series may be head-dropped before the next
// head-remove forces an Unbias (memmove + bias reset), per spec.md §4.1
// "Bias overflow forces a memmove and bias reset."
const MaxBias = 1 << 16

// NewCellDynamic allocates dynamic cell storage with the given initial
// capacity.
func NewCellDynamic(capacity int) *Dynamic {
	return &Dynamic{cellData: make([]any, capacity), Rest: capacity}
}

// NewByteDynamic allocates dynamic byte storage with the given initial
// capacity. Byte series are always null-terminated internally so they
// can alias as text when valid UTF-8 (spec.md §3).
func NewByteDynamic(capacity int) *Dynamic {
	return &Dynamic{byteData: make([]byte, capacity+1), Rest: capacity}
}

// Len returns the logical length (Used).
func (d *Dynamic) Len() int { return d.Used }

// CellAt returns the cell-typed element at logical index i.
func (d *Dynamic) CellAt(i int) any {
	if i < 0 || i >= d.Used {
		panic(fmt.Sprintf("series index %d out of range [0,%d)", i, d.Used))
	}
	return d.cellData[d.Bias+i]
}

// SetCellAt writes the cell-typed element at logical index i. Callers
// are responsible for checking frozen/protected/const status first;
// this is pure storage.
func (d *Dynamic) SetCellAt(i int, v any) {
	if i < 0 || i >= d.Used {
		panic(fmt.Sprintf("series index %d out of range [0,%d)", i, d.Used))
	}
	d.cellData[d.Bias+i] = v
}

// ByteAt returns the byte at logical index i.
func (d *Dynamic) ByteAt(i int) byte {
	if i < 0 || i >= d.Used {
		panic(fmt.Sprintf("series index %d out of range [0,%d)", i, d.Used))
	}
	return d.byteData[d.Bias+i]
}

// Bytes returns the logical byte content as a slice (no copy); callers
// must not retain it past a mutating call.
func (d *Dynamic) Bytes() []byte {
	return d.byteData[d.Bias : d.Bias+d.Used]
}

// Cells returns the logical cell content as a slice (no copy); callers
// must not retain it past a mutating call.
func (d *Dynamic) Cells() []any {
	return d.cellData[d.Bias : d.Bias+d.Used]
}

// AppendCell grows the series by one cell element at the tail,
// reallocating (doubling capacity) if Rest is exhausted.
func (d *Dynamic) AppendCell(v any) {
	if d.Used >= d.Rest {
		d.growCells()
	}
	d.cellData[d.Bias+d.Used] = v
	d.Used++
}

func (d *Dynamic) growCells() {
	newCap := (d.Rest + d.Bias + 1) * 2
	if newCap < 8 {
		newCap = 8
	}
	fresh := make([]any, newCap)
	copy(fresh, d.cellData[d.Bias:d.Bias+d.Used])
	d.cellData = fresh
	d.Bias = 0
	d.Rest = newCap - d.Used
}

// AppendBytes grows the series by n bytes at the tail, keeping the
// trailing NUL invariant for byte series.
func (d *Dynamic) AppendBytes(p []byte) {
	for d.Used+len(p) > d.Rest {
		d.growBytes()
	}
	copy(d.byteData[d.Bias+d.Used:], p)
	d.Used += len(p)
	d.byteData[d.Bias+d.Used] = 0
}

func (d *Dynamic) growBytes() {
	newCap := (d.Rest + d.Bias + 1) * 2
	if newCap < 8 {
		newCap = 8
	}
	fresh := make([]byte, newCap+1)
	copy(fresh, d.byteData[d.Bias:d.Bias+d.Used])
	d.byteData = fresh
	d.Bias = 0
	d.Rest = newCap - d.Used
}

// ExpandAt grows the series at index idx by n logical elements, shifting
// trailing data forward (spec.md §4.1 "expand-at-index"). The caller
// fills the new slots afterward.
func (d *Dynamic) ExpandAt(idx, n int) {
	if idx < 0 || idx > d.Used {
		panic(fmt.Sprintf("expand index %d out of range [0,%d]", idx, d.Used))
	}
	if n <= 0 {
		return
	}
	for d.Used+n > d.Rest {
		if d.cellData != nil {
			d.growCells()
		} else {
			d.growBytes()
		}
	}
	if d.cellData != nil {
		copy(d.cellData[d.Bias+idx+n:d.Bias+d.Used+n], d.cellData[d.Bias+idx:d.Bias+d.Used])
	} else {
		copy(d.byteData[d.Bias+idx+n:d.Bias+d.Used+n], d.byteData[d.Bias+idx:d.Bias+d.Used])
	}
	d.Used += n
}

// RemoveUnits shifts n logical elements out at offset idx (spec.md
// §4.1 "remove-units"). When idx==0 and the series is cell-bearing or
// byte-bearing, head removal advances Bias instead of copying, unless
// doing so would push Bias past MaxBias, in which case Unbias runs
// first.
func (d *Dynamic) RemoveUnits(idx, n int) {
	if n <= 0 {
		return
	}
	if idx == 0 {
		if d.Bias+n > MaxBias {
			d.Unbias(true)
		}
		d.Bias += n
		d.Rest -= n
		d.Used -= n
		return
	}
	if d.cellData != nil {
		copy(d.cellData[d.Bias+idx:], d.cellData[d.Bias+idx+n:d.Bias+d.Used])
	} else {
		copy(d.byteData[d.Bias+idx:], d.byteData[d.Bias+idx+n:d.Bias+d.Used])
	}
	d.Used -= n
}

// Unbias resets Bias to zero. If preserve is true the logical content
// is memmoved down to offset zero first; otherwise the dropped prefix
// is simply abandoned to the allocator.
func (d *Dynamic) Unbias(preserve bool) {
	if d.Bias == 0 {
		return
	}
	if preserve {
		if d.cellData != nil {
			copy(d.cellData[0:d.Used], d.cellData[d.Bias:d.Bias+d.Used])
		} else {
			copy(d.byteData[0:d.Used], d.byteData[d.Bias:d.Bias+d.Used])
		}
	}
	d.Rest += d.Bias
	d.Bias = 0
}

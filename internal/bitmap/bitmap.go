// Package bitmap provides a fixed-size bitset over non-negative integer IDs.
// The probe uses one to count distinct canvas pixels without a map.
package bitmap

import "math/bits"

// Bitmap represents a bitset backed by a slice of uint64 words.
// Each bit corresponds to a non-negative integer ID.
type Bitmap struct {
	data []uint64
	size int
}

// New allocates a bitmap for IDs in [0, size). If size <= 0 the bitmap is an
// empty set that ignores every Add.
func New(size int) *Bitmap {
	if size <= 0 {
		return &Bitmap{}
	}
	return &Bitmap{data: make([]uint64, (size+63)/64), size: size}
}

// ForCanvas returns a bitmap covering a width x height canvas; IDs are
// CanvasID(x, y, width).
func ForCanvas(width, height int) *Bitmap { return New(width * height) }

// CanvasID maps a pixel to its row-major ID.
func CanvasID(x, y, width int) int { return y*width + x }

// Add sets the bit for id and reports whether it was previously unset.
// Out-of-range ids are ignored.
func (b *Bitmap) Add(id int) bool {
	if id < 0 || id >= b.size {
		return false
	}
	word, mask := id/64, uint64(1)<<uint(id%64)
	if b.data[word]&mask != 0 {
		return false
	}
	b.data[word] |= mask
	return true
}

// Has reports whether the bit for id is set.
func (b *Bitmap) Has(id int) bool {
	if id < 0 || id >= b.size {
		return false
	}
	return b.data[id/64]&(1<<uint(id%64)) != 0
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	n := 0
	for _, w := range b.data {
		n += bits.OnesCount64(w)
	}
	return n
}

// Size is the number of addressable IDs.
func (b *Bitmap) Size() int { return b.size }

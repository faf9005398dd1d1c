package carray

import "errors"

// ErrRegionFull is returned when an allocation would exceed a region's size.
var ErrRegionFull = errors.New("carray: float region full")

// FloatRegion is a bump-allocated, compactable window of a shared float
// buffer. The keys region of the value pool uses it for permanent
// per-library key storage; the samples region uses it as per-frame scratch
// (Reset every frame).
type FloatRegion struct {
	buf  []float32
	used int
}

// NewFloatRegion wraps buf as an empty region. The region never grows past
// len(buf).
func NewFloatRegion(buf []float32) *FloatRegion {
	return &FloatRegion{buf: buf}
}

// Alloc reserves n floats at the tail and returns their start offset.
func (r *FloatRegion) Alloc(n int) (int, error) {
	if r.used+n > len(r.buf) {
		return 0, ErrRegionFull
	}
	off := r.used
	r.used += n
	return off, nil
}

// EraseRange removes n floats starting at off by shifting the used tail
// left. Caller fixes up surviving views.
func (r *FloatRegion) EraseRange(off, n int) {
	if n <= 0 {
		return
	}
	copy(r.buf[off:], r.buf[off+n:r.used])
	r.used -= n
}

// Used returns the number of allocated floats.
func (r *FloatRegion) Used() int { return r.used }

// Size returns the region's total size in floats.
func (r *FloatRegion) Size() int { return len(r.buf) }

// Window returns the floats in [off, off+n). The slice aliases the shared
// buffer; writes through it are writes into the region.
func (r *FloatRegion) Window(off, n int) []float32 { return r.buf[off : off+n] }

// Reset discards all allocations without clearing data.
func (r *FloatRegion) Reset() { r.used = 0 }

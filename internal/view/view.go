// Package view provides non-owning offset+length windows into shared
// backing arrays.
//
// A Slice never holds a pointer into the backing store: it is a pure
// {offset, length} pair, resolved through the owning array on each access.
// This keeps views valid across tail-compaction of the backing array, as
// long as the offset is corrected with FillGap after every erase.
//
// Multiple views may describe disjoint, abutting, or nested ranges of the
// same array. Views never partially overlap: an erased range always
// corresponds to a whole owned subtree, so a surviving view lies either
// entirely before or entirely after it.
package view

// Slice is a window of length Len elements starting at element Off of some
// backing array. The zero value is the empty view.
type Slice struct {
	off int
	len int
}

// Make returns a view of length n starting at off.
func Make(off, n int) Slice {
	if n <= 0 {
		return Slice{}
	}
	return Slice{off: off, len: n}
}

// Offset returns the view's start index in the backing array.
func (s Slice) Offset() int { return s.off }

// Len returns the number of elements the view covers.
func (s Slice) Len() int { return s.len }

// IsEmpty reports whether the view covers no elements.
func (s Slice) IsEmpty() bool { return s.len == 0 }

// End returns the exclusive end index (Offset + Len).
func (s Slice) End() int { return s.off + s.len }

// Sub returns a nested view: a window of length n starting at element off
// of this view. The result addresses the same backing array.
func (s Slice) Sub(off, n int) Slice {
	if n <= 0 {
		return Slice{}
	}
	return Slice{off: s.off + off, len: n}
}

// Contains reports whether other is fully enclosed by this view.
func (s Slice) Contains(other Slice) bool {
	return other.off >= s.off && other.End() <= s.End()
}

// FillGap corrects the view's offset after a range of n elements starting
// at erasedOff was compacted out of the backing array. Views at or past the
// erased range shift left; views entirely before it are unchanged. A view
// can never straddle an erased range, so no length adjustment is needed.
func (s *Slice) FillGap(erasedOff, n int) {
	if s.len == 0 || n <= 0 {
		return
	}
	if s.off >= erasedOff {
		s.off -= n
	}
}

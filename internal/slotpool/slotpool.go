// Package slotpool implements the generic slot-based object pool behind
// library, skeleton and instance handles.
//
// A pool hands out generation-tagged ids: when a slot is unassigned its
// generation bumps, so stale ids held elsewhere miss on lookup instead of
// aliasing the slot's next occupant. Live slots are tracked in a roaring
// bitmap so teardown passes can walk every currently-allocated resource
// without scanning the whole slot array.
package slotpool

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/yt-zgl/oryol-animation/model"
)

// ErrExhausted is returned by AllocID when every slot is in use.
var ErrExhausted = errors.New("slotpool: exhausted")

type slot[T any] struct {
	gen   uint16
	state model.State
	item  T
}

// Pool is a fixed-capacity pool of T addressed by model.ID.
// It is single-owner and not safe for concurrent use.
type Pool[T any] struct {
	resType model.ResourceType
	slots   []slot[T]
	free    []uint32
	live    *roaring.Bitmap
}

// New creates a pool of the given resource type with capacity slots.
func New[T any](resType model.ResourceType, capacity int) *Pool[T] {
	p := &Pool[T]{
		resType: resType,
		slots:   make([]slot[T], capacity),
		free:    make([]uint32, 0, capacity),
		live:    roaring.New(),
	}
	// LIFO free list; generation tagging handles slot reuse.
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, uint32(i))
		p.slots[i].gen = 1
	}
	return p
}

// AllocID reserves a slot and returns its id. The slot holds no item until
// Assign is called.
func (p *Pool[T]) AllocID() (model.ID, error) {
	if len(p.free) == 0 {
		return model.InvalidID, ErrExhausted
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.live.Add(idx)
	return model.MakeID(p.resType, idx, p.slots[idx].gen), nil
}

// Assign stores item in the slot addressed by id and sets its state.
// It returns a pointer to the pooled item.
func (p *Pool[T]) Assign(id model.ID, item T, state model.State) *T {
	s := p.slot(id)
	if s == nil {
		return nil
	}
	s.item = item
	s.state = state
	return &s.item
}

// Lookup resolves id to the pooled item, or nil when the id is of the wrong
// type, stale, or not in StateValid.
func (p *Pool[T]) Lookup(id model.ID) *T {
	s := p.slot(id)
	if s == nil || s.state != model.StateValid {
		return nil
	}
	return &s.item
}

// UpdateState transitions the slot's lifecycle state.
func (p *Pool[T]) UpdateState(id model.ID, state model.State) {
	if s := p.slot(id); s != nil {
		s.state = state
	}
}

// Unassign releases the slot, bumping its generation so the id goes stale.
func (p *Pool[T]) Unassign(id model.ID) {
	idx := id.Slot()
	s := p.slot(id)
	if s == nil {
		return
	}
	var zero T
	s.item = zero
	s.state = model.StateInitial
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	p.live.Remove(idx)
	p.free = append(p.free, idx)
}

// Each calls fn for every currently-allocated slot in slot order, passing
// the slot's id and item. Iteration stops early if fn returns false.
// fn must not allocate or unassign slots.
func (p *Pool[T]) Each(fn func(id model.ID, item *T) bool) {
	it := p.live.Iterator()
	for it.HasNext() {
		idx := it.Next()
		s := &p.slots[idx]
		if !fn(model.MakeID(p.resType, idx, s.gen), &s.item) {
			return
		}
	}
}

// Len returns the number of allocated slots.
func (p *Pool[T]) Len() int { return int(p.live.GetCardinality()) }

// Cap returns the pool's fixed capacity.
func (p *Pool[T]) Cap() int { return len(p.slots) }

func (p *Pool[T]) slot(id model.ID) *slot[T] {
	if id.Type() != p.resType {
		return nil
	}
	idx := id.Slot()
	if int(idx) >= len(p.slots) {
		return nil
	}
	s := &p.slots[idx]
	if s.gen != id.Gen() || !p.live.Contains(idx) {
		return nil
	}
	return s
}

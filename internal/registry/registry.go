// Package registry implements the label-scoped resource registry: a name→id
// lookup table where every entry carries the destruction label that was
// current when it was registered. Invalidating a label yields the ids of
// everything created under it.
package registry

import (
	"errors"

	"github.com/yt-zgl/oryol-animation/model"
)

var (
	// ErrLabelStackFull is returned when PushLabel exceeds the stack capacity.
	ErrLabelStackFull = errors.New("registry: label stack full")
	// ErrLabelStackEmpty is returned when PopLabel is called with no pushed label.
	ErrLabelStackEmpty = errors.New("registry: label stack empty")
	// ErrFull is returned when Add exceeds the registry capacity.
	ErrFull = errors.New("registry: full")
)

type entry struct {
	name  string // empty for anonymous resources
	id    model.ID
	label model.Label
}

// Registry tracks named and anonymous resources under destruction labels.
// Single-owner, not safe for concurrent use.
type Registry struct {
	labelStack []model.Label
	nextLabel  model.Label
	entries    []entry
	byName     map[string]model.ID
}

// New creates a registry with the given label-stack and entry capacities.
func New(labelStackCapacity, capacity int) *Registry {
	return &Registry{
		labelStack: make([]model.Label, 0, labelStackCapacity),
		entries:    make([]entry, 0, capacity),
		byName:     make(map[string]model.ID, capacity),
	}
}

// PushLabel allocates a fresh label and makes it current.
func (r *Registry) PushLabel() (model.Label, error) {
	if len(r.labelStack) == cap(r.labelStack) {
		return 0, ErrLabelStackFull
	}
	label := r.nextLabel
	r.nextLabel++
	r.labelStack = append(r.labelStack, label)
	return label, nil
}

// PopLabel removes and returns the current label.
func (r *Registry) PopLabel() (model.Label, error) {
	if len(r.labelStack) == 0 {
		return 0, ErrLabelStackEmpty
	}
	label := r.labelStack[len(r.labelStack)-1]
	r.labelStack = r.labelStack[:len(r.labelStack)-1]
	return label, nil
}

// PeekLabel returns the current label without removing it. With an empty
// stack it allocates from the same counter so anonymous registration still
// gets a unique label.
func (r *Registry) PeekLabel() model.Label {
	if len(r.labelStack) == 0 {
		label := r.nextLabel
		r.nextLabel++
		return label
	}
	return r.labelStack[len(r.labelStack)-1]
}

// Add registers id under name (empty for anonymous) with the given label.
func (r *Registry) Add(name string, id model.ID, label model.Label) error {
	if len(r.entries) == cap(r.entries) {
		return ErrFull
	}
	r.entries = append(r.entries, entry{name: name, id: id, label: label})
	if name != "" {
		r.byName[name] = id
	}
	return nil
}

// Lookup resolves a name to an id, or InvalidID when unknown.
func (r *Registry) Lookup(name string) model.ID {
	if id, ok := r.byName[name]; ok {
		return id
	}
	return model.InvalidID
}

// RemoveAll unregisters every entry under label (or everything when label
// is model.LabelAll) and returns their ids in registration order.
func (r *Registry) RemoveAll(label model.Label) []model.ID {
	var removed []model.ID
	kept := r.entries[:0]
	for _, e := range r.entries {
		if label == model.LabelAll || e.label == label {
			removed = append(removed, e.id)
			if e.name != "" {
				delete(r.byName, e.name)
			}
			continue
		}
		kept = append(kept, e)
	}
	// Zero the vacated tail so name strings are released.
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = entry{}
	}
	r.entries = kept
	return removed
}

// Len returns the number of registered entries.
func (r *Registry) Len() int { return len(r.entries) }

package slotpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yt-zgl/oryol-animation/model"
)

type thing struct {
	name string
}

func TestPool_AllocAssignLookup(t *testing.T) {
	p := New[thing](model.TypeLibrary, 2)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 2, p.Cap())

	id, err := p.AllocID()
	require.NoError(t, err)
	assert.True(t, id.IsValid())
	assert.Equal(t, model.TypeLibrary, id.Type())

	// Not valid until committed.
	p.Assign(id, thing{name: "a"}, model.StateSetup)
	assert.Nil(t, p.Lookup(id))

	p.UpdateState(id, model.StateValid)
	got := p.Lookup(id)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.name)
}

func TestPool_Exhaustion(t *testing.T) {
	p := New[thing](model.TypeInstance, 1)
	_, err := p.AllocID()
	require.NoError(t, err)

	_, err = p.AllocID()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestPool_StaleIDAfterUnassign(t *testing.T) {
	p := New[thing](model.TypeSkeleton, 1)
	id, err := p.AllocID()
	require.NoError(t, err)
	p.Assign(id, thing{name: "old"}, model.StateValid)

	p.Unassign(id)
	assert.Nil(t, p.Lookup(id))
	assert.Equal(t, 0, p.Len())

	// Slot reuse hands out a different generation.
	id2, err := p.AllocID()
	require.NoError(t, err)
	assert.Equal(t, id.Slot(), id2.Slot())
	assert.NotEqual(t, id, id2)

	p.Assign(id2, thing{name: "new"}, model.StateValid)
	assert.Nil(t, p.Lookup(id))
	require.NotNil(t, p.Lookup(id2))
}

func TestPool_WrongTypeLookup(t *testing.T) {
	p := New[thing](model.TypeLibrary, 1)
	id, err := p.AllocID()
	require.NoError(t, err)
	p.Assign(id, thing{name: "a"}, model.StateValid)

	other := model.MakeID(model.TypeSkeleton, id.Slot(), id.Gen())
	assert.Nil(t, p.Lookup(other))
	assert.Nil(t, p.Lookup(model.InvalidID))
}

func TestPool_Each(t *testing.T) {
	p := New[thing](model.TypeLibrary, 4)
	ids := make([]model.ID, 0, 3)
	for _, name := range []string{"a", "b", "c"} {
		id, err := p.AllocID()
		require.NoError(t, err)
		p.Assign(id, thing{name: name}, model.StateValid)
		ids = append(ids, id)
	}
	p.Unassign(ids[1])

	var seen []string
	p.Each(func(id model.ID, item *thing) bool {
		seen = append(seen, item.name)
		return true
	})
	assert.ElementsMatch(t, []string{"a", "c"}, seen)
}

package tech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnowledgeGrant(t *testing.T) {
	k := NewKnowledgeIndex()
	assert.Equal(t, 0.6, k.Grant("ayla", "fire_making", 0.6))
	assert.Equal(t, 0.6, k.Grant("ayla", "fire_making", 0.3), "level decreased")
	assert.Equal(t, 1.0, k.Grant("ayla", "fire_making", 4))
	assert.Equal(t, 0.0, k.Grant("brun", "pottery", -1))
	assert.True(t, k.Knows("brun", "pottery"))
	assert.False(t, k.Knows("brun", "fire_making"))
	assert.Equal(t, []string{"ayla", "brun"}, k.Agents())
}

func TestKnowledgeRefreshGroups(t *testing.T) {
	k := NewKnowledgeIndex()
	k.Grant("ayla", "fire_making", 1)
	k.Grant("brun", "stone_tools", 1)
	k.Grant("creb", "pottery", 1)

	ayla, brun, creb := agent("ayla", nil), agent("brun", nil), agent("creb", nil)
	creb.dead = true
	pop := population([]*fakeAgent{ayla, brun, creb},
		&fakeGroup{name: "clan", kind: GroupOther, members: []string{"ayla", "brun", "creb", "nobody"}})

	k.RefreshGroups(pop)
	assert.Equal(t, []string{"fire_making", "stone_tools"}, k.GroupKnown("clan").Sorted())
	assert.Equal(t, []string{"fire_making", "stone_tools"}, k.EntityKnown("clan").Sorted())
	assert.Equal(t, []string{"pottery"}, k.EntityKnown("creb").Sorted())
	assert.Empty(t, k.EntityKnown("stranger"))
}

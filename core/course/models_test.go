package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOutline(t *testing.T) {
	sections := []Section{
		{ID: "s2", Title: "Second", Order: 2},
		{ID: "s1", Title: "First", Order: 1},
		{ID: "s0", Title: "Empty", Order: 3},
	}
	items := []ContentItem{
		{ID: "b", SectionID: "s1", Order: 2},
		{ID: "a", SectionID: "s1", Order: 1},
		{ID: "d", SectionID: "s2", Order: 1},
		{ID: "c", SectionID: "s2", Order: 1},
		{ID: "orphan", SectionID: "unknown"},
	}

	outline := NewOutline(sections, items)

	var ids []string
	for _, it := range outline.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Len(t, outline, 3)
	assert.Equal(t, "s0", outline[2].ID)
	assert.Empty(t, outline[2].Items)

	it, ok := outline.Item("c")
	assert.True(t, ok)
	assert.Equal(t, "s2", it.SectionID)
	_, ok = outline.Item("orphan")
	assert.False(t, ok)
}

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSetDelete(t *testing.T) {
	c := NewLRUCache[string, int](4, "test_get_set")

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string, int](2, "test_evict")
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_DeleteFunc(t *testing.T) {
	c := NewLRUCache[string, string](8, "test_delete_func")
	c.Set("g1", "acct-1")
	c.Set("g2", "acct-1")
	c.Set("g3", "acct-2")

	c.DeleteFunc(func(_ string, v string) bool { return v == "acct-1" })

	assert.ElementsMatch(t, []string{"g3"}, c.Keys())
}

func TestCache_MinimumCapacity(t *testing.T) {
	c := NewLRUCache[string, int](0, "test_min")
	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.True(t, ok)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = m.Decr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryZRangeNegativeRanks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i, v := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.ZAdd(ctx, "z", float64(i), v))
	}

	all, err := m.ZRange(ctx, "z", 0, -1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, all)

	rev, err := m.ZRange(ctx, "z", 0, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c"}, rev)
}

func TestMemoryTrimToNewest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 10; i++ {
		require.NoError(t, m.ZAdd(ctx, "z", float64(i), string(rune('a'+i))))
	}

	// Keep the 3 highest-scored members, the shape of the recency trim.
	require.NoError(t, m.ZRemRangeByRank(ctx, "z", 0, -4))

	remaining, err := m.ZRange(ctx, "z", 0, -1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"h", "i", "j"}, remaining)
}

func TestMemoryTrimNoopWhenUnderBound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.ZAdd(ctx, "z", 1, "a"))
	require.NoError(t, m.ZAdd(ctx, "z", 2, "b"))

	// Stop resolves below zero; nothing qualifies for removal.
	require.NoError(t, m.ZRemRangeByRank(ctx, "z", 0, -4))

	card, err := m.ZCard(ctx, "z")
	require.NoError(t, err)
	assert.Equal(t, int64(2), card)
}

func TestMemoryZRemRangeByScore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.ZAdd(ctx, "z", 10, "old"))
	require.NoError(t, m.ZAdd(ctx, "z", 20, "mid"))
	require.NoError(t, m.ZAdd(ctx, "z", 30, "new"))

	removed, err := m.ZRemRangeByScore(ctx, "z", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := m.ZRange(ctx, "z", 0, -1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, remaining)
}

func TestMemoryKeysPattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "course:views:go101", "5"))
	require.NoError(t, m.Set(ctx, "course:views:db201", "3"))
	require.NoError(t, m.Set(ctx, "unrelated", "1"))

	keys, err := m.Keys(ctx, "course:views:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"course:views:db201", "course:views:go101"}, keys)
}

func TestMemoryHashOperations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.HSet(ctx, "h", map[string]interface{}{"a": "1", "b": 2}))

	v, err := m.HGet(ctx, "h", "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	all, err := m.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, m.HDel(ctx, "h", "a"))
	v, err = m.HGet(ctx, "h", "a")
	require.NoError(t, err)
	assert.Empty(t, v)
}

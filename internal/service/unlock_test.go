package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLocksFirstLessonNeverLocked(t *testing.T) {
	locks := ComputeLocks([]string{"l1", "l2"}, map[string]bool{})
	assert.False(t, locks["l1"])
	assert.True(t, locks["l2"])
}

func TestComputeLocksSequential(t *testing.T) {
	ids := []string{"l1", "l2", "l3"}
	completed := map[string]bool{"l1": true}

	locks := ComputeLocks(ids, completed)
	require.Len(t, locks, 3)
	assert.False(t, locks["l1"])
	assert.False(t, locks["l2"])
	assert.True(t, locks["l3"])
}

func TestComputeLocksGapStaysLocked(t *testing.T) {
	// Completing a later lesson never unlocks across an incomplete gap.
	ids := []string{"l1", "l2", "l3", "l4"}
	completed := map[string]bool{"l1": true, "l3": true}

	locks := ComputeLocks(ids, completed)
	assert.False(t, locks["l2"])
	assert.True(t, locks["l3"])
	assert.True(t, locks["l4"])
}

func TestComputeLocksAllCompleted(t *testing.T) {
	ids := []string{"l1", "l2", "l3"}
	completed := map[string]bool{"l1": true, "l2": true, "l3": true}

	locks := ComputeLocks(ids, completed)
	for id, locked := range locks {
		assert.False(t, locked, "lesson %s", id)
	}
}

func TestComputeLocksEmpty(t *testing.T) {
	assert.Empty(t, ComputeLocks(nil, nil))
}

func TestAllCompleted(t *testing.T) {
	assert.True(t, AllCompleted(nil, nil))
	assert.True(t, AllCompleted([]string{"a"}, map[string]bool{"a": true}))
	assert.False(t, AllCompleted([]string{"a", "b"}, map[string]bool{"a": true}))
}

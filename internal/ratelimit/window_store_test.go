package ratelimit

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func admitAll(int) bool  { return true }
func admitNone(int) bool { return false }

func TestWindowStore_CountBeforeAppend(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewWindowStore(clock)

	// First check sees an empty window even though it records.
	sample := store.RecordAndCount("k", time.Minute, admitAll)
	assert.Equal(t, 0, sample.Count)
	assert.True(t, sample.Recorded)
	assert.True(t, sample.Oldest.IsZero())

	// Second check sees the first event and its timestamp.
	first := clock.Now()
	clock.Advance(10 * time.Second)
	sample = store.RecordAndCount("k", time.Minute, admitAll)
	assert.Equal(t, 1, sample.Count)
	assert.Equal(t, first, sample.Oldest)
}

func TestWindowStore_DeniedChecksRecordNothing(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewWindowStore(clock)

	store.RecordAndCount("k", time.Minute, admitAll)

	for i := 0; i < 5; i++ {
		sample := store.RecordAndCount("k", time.Minute, admitNone)
		assert.Equal(t, 1, sample.Count, "denied check %d must not grow history", i)
		assert.False(t, sample.Recorded)
	}
}

func TestWindowStore_WindowSlides(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewWindowStore(clock)

	store.RecordAndCount("k", time.Minute, admitAll)
	clock.Advance(30 * time.Second)
	store.RecordAndCount("k", time.Minute, admitAll)

	// 61s after the first event only the second remains in range.
	clock.Advance(31 * time.Second)
	sample := store.RecordAndCount("k", time.Minute, admitNone)
	assert.Equal(t, 1, sample.Count)

	// Past both events the window is empty again.
	clock.Advance(time.Minute)
	sample = store.RecordAndCount("k", time.Minute, admitNone)
	assert.Equal(t, 0, sample.Count)
}

func TestWindowStore_KeysAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewWindowStore(clock)

	for i := 0; i < 3; i++ {
		store.RecordAndCount("a", time.Minute, admitAll)
	}

	sample := store.RecordAndCount("b", time.Minute, admitAll)
	assert.Equal(t, 0, sample.Count)
}

func TestWindowStore_EmptyKeyRemovedAfterFilter(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewWindowStore(clock)

	store.RecordAndCount("k", time.Minute, admitAll)
	require.Equal(t, 1, store.Size())

	// Once every event has aged out and the check records nothing, the entry
	// disappears instead of lingering empty.
	clock.Advance(2 * time.Minute)
	store.RecordAndCount("k", time.Minute, admitNone)
	assert.Equal(t, 0, store.Size())
}

func TestWindowStore_Prune(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewWindowStore(clock)

	store.RecordAndCount("stale", time.Minute, admitAll)
	clock.Advance(2 * time.Hour)
	store.RecordAndCount("fresh", time.Minute, admitAll)

	pruned := store.Prune(time.Hour)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 1, store.Size())

	// The fresh key still has its history.
	sample := store.RecordAndCount("fresh", time.Minute, admitNone)
	assert.Equal(t, 1, sample.Count)
}

func TestWindowStore_PruneLoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewWindowStore(clock)

	store.RecordAndCount("k", time.Minute, admitAll)
	stop := store.StartPruneLoop(5*time.Minute, time.Hour)
	defer stop()

	// Within the horizon nothing is swept.
	clock.BlockUntil(1)
	clock.Advance(5 * time.Minute)
	assert.Eventually(t, func() bool { return store.Size() == 1 }, time.Second, 10*time.Millisecond)

	// Idle past the horizon the key goes away.
	clock.BlockUntil(1)
	clock.Advance(90 * time.Minute)
	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 10*time.Millisecond)
}

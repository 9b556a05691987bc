package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citizen-portaal/portaal-backend/internal/projects/domain"
)

func TestSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expires only stale pending projects", func(t *testing.T) {
		store := newMemStore()
		pub := &recordingPublisher{}
		locker := &fakeLocker{}
		sw := NewSweeper(store, locker, pub, testCeiling)
		sw.now = func() time.Time { return now }

		stale := seedPending(t, store, now, testCeiling+time.Minute)
		fresh := seedPending(t, store, now, time.Minute)
		done := seedPending(t, store, now, time.Hour)
		_, _ = store.SetStatus(ctx, done, domain.StatusActive, nil)

		ids, err := sw.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{stale}, ids)

		assert.Equal(t, domain.StatusDraft, store.project(stale).Status)
		assert.Equal(t, domain.StatusPendingAnalysis, store.project(fresh).Status)
		assert.Equal(t, domain.StatusActive, store.project(done).Status)
		assert.Equal(t, []string{domain.StatusDraft}, pub.statuses())
		assert.Equal(t, 1, locker.released)
	})

	t.Run("skips when another replica holds the lock", func(t *testing.T) {
		store := newMemStore()
		sw := NewSweeper(store, &fakeLocker{held: true}, nil, testCeiling)
		sw.now = func() time.Time { return now }
		stale := seedPending(t, store, now, time.Hour)

		ids, err := sw.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Equal(t, domain.StatusPendingAnalysis, store.project(stale).Status)
	})

	t.Run("lock errors are returned", func(t *testing.T) {
		sw := NewSweeper(newMemStore(), &fakeLocker{err: errBoom}, nil, testCeiling)
		_, err := sw.SweepOnce(ctx)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("works without a locker", func(t *testing.T) {
		store := newMemStore()
		sw := NewSweeper(store, nil, nil, testCeiling)
		sw.now = func() time.Time { return now }
		seedPending(t, store, now, time.Hour)

		ids, err := sw.SweepOnce(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})
}

func TestSweeper_StartStop(t *testing.T) {
	sw := NewSweeper(newMemStore(), nil, nil, testCeiling)

	assert.Error(t, sw.Start(context.Background(), "not a schedule"))

	require.NoError(t, sw.Start(context.Background(), "@every 1h"))
	sw.Stop()
}

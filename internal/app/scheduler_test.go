package app

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotevault/quotesync/internal/domain"
)

func newTestScheduler(t *testing.T, remote *fakeRemote, cfg SchedulerConfig) *SyncScheduler {
	t.Helper()

	engine, _ := newTestEngine(t, newFakeStore(), remote, []domain.Quote{
		{ID: "l1", Text: "Local", Category: "Cat"},
	})

	cfg.Logger = slog.New(slog.DiscardHandler)

	return NewSyncScheduler(engine, cfg)
}

func TestScheduler_TriggerNow(t *testing.T) {
	scheduler := newTestScheduler(t, &fakeRemote{}, SchedulerConfig{
		Interval:     time.Hour,
		CycleTimeout: time.Second,
	})

	result, err := scheduler.TriggerNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pushed)
	assert.Equal(t, result, scheduler.LastResult())
	assert.Zero(t, scheduler.SkippedTicks())
}

func TestScheduler_SingleFlight(t *testing.T) {
	remote := &fakeRemote{fetchDelay: 200 * time.Millisecond}
	scheduler := newTestScheduler(t, remote, SchedulerConfig{
		Interval:     time.Hour,
		CycleTimeout: time.Second,
	})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		_, err := scheduler.TriggerNow(context.Background())
		assert.NoError(t, err)
	}()

	// Let the first cycle reach the slow fetch, then try to overlap it.
	assert.Eventually(t, func() bool {
		_, err := scheduler.TriggerNow(context.Background())

		return err == ErrSyncInFlight
	}, time.Second, 5*time.Millisecond)

	wg.Wait()

	assert.Positive(t, scheduler.SkippedTicks())

	// With the first cycle done the guard is free again.
	_, err := scheduler.TriggerNow(context.Background())
	assert.NoError(t, err)
}

func TestScheduler_RunStartupAndShutdown(t *testing.T) {
	remote := &fakeRemote{}
	scheduler := newTestScheduler(t, remote, SchedulerConfig{
		Interval:     time.Hour,
		CycleTimeout: time.Second,
		Startup:      true,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	// The startup cycle pushes the seeded unsynced quote.
	assert.Eventually(t, func() bool {
		return remote.pushCount() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}

func TestScheduler_RunPeriodicTicks(t *testing.T) {
	remote := &fakeRemote{quotes: []domain.Quote{
		{ID: "server-1", Text: "Remote", Category: "Server-1", Synced: true},
	}}

	scheduler := newTestScheduler(t, remote, SchedulerConfig{
		Interval:     20 * time.Millisecond,
		CycleTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Run(ctx)

	assert.Eventually(t, func() bool {
		return scheduler.LastResult().Fetched == 1
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_CycleTimeout(t *testing.T) {
	remote := &fakeRemote{fetchDelay: time.Second}
	scheduler := newTestScheduler(t, remote, SchedulerConfig{
		Interval:     time.Hour,
		CycleTimeout: 20 * time.Millisecond,
	})

	// The push succeeds, the fetch times out; that is FetchFailed, not an
	// error.
	result, err := scheduler.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.True(t, result.FetchFailed)
}

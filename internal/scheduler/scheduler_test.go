package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	noop := func(context.Context) {}

	_, err := New("not a schedule", "UTC", noop)
	assert.Error(t, err)

	_, err = New("@every 1m", "Mars/Olympus_Mons", noop)
	assert.Error(t, err)

	_, err = New("@every 1m", "UTC", nil)
	assert.Error(t, err)

	s, err := New("0 6 * * *", "", noop)
	require.NoError(t, err)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_RunsJob(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{})
	var once sync.Once

	s, err := New("@every 1s", "UTC", func(context.Context) {
		runs.Add(1)
		once.Do(func() { close(done) })
	})
	require.NoError(t, err)

	s.Start()
	assert.False(t, s.Next().IsZero())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}

	require.NoError(t, s.Stop(context.Background()))
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var runs atomic.Int32

	s, err := New("@every 1h", "UTC", func(context.Context) {
		runs.Add(1)
		close(started)
		<-release
	})
	require.NoError(t, err)

	go s.tick()
	<-started

	s.tick() // skipped, first run still holds the slot
	close(release)

	assert.Eventually(t, func() bool { return !s.running.Load() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	started := make(chan struct{})
	canceled := make(chan struct{})

	s, err := New("@every 1h", "UTC", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(canceled)
	})
	require.NoError(t, err)

	go s.tick()
	<-started

	require.NoError(t, s.Stop(context.Background()))

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("job context was not canceled")
	}
}

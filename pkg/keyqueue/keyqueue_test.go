package keyqueue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsTaskError(t *testing.T) {
	g := New()

	wantErr := errors.New("boom")
	err := g.Do("k", func() error { return wantErr })
	require.ErrorIs(t, err, wantErr)

	require.NoError(t, g.Do("k", func() error { return nil }))
}

func TestSameKeySerializes(t *testing.T) {
	g := New()

	// Without serialization the read-modify-write below loses increments.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Do("course-1", func() error {
				observed := counter
				time.Sleep(time.Millisecond)
				counter = observed + 1
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestDifferentKeysRunIndependently(t *testing.T) {
	g := New()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = g.Do("slow", func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		_ = g.Do("fast", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task on an independent key was blocked")
	}
	close(release)
}

func TestPanicDoesNotWedgeQueue(t *testing.T) {
	g := New()

	err := g.Do("k", func() error { panic("bad task") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	require.NoError(t, g.Do("k", func() error { return nil }))
}

func TestIdleQueuesAreReaped(t *testing.T) {
	g := New()

	for i := 0; i < 10; i++ {
		require.NoError(t, g.Do("k", func() error { return nil }))
	}

	// The worker exits once its queue drains; give it a moment.
	deadline := time.After(2 * time.Second)
	for g.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("expected queues to be reaped, %d remain", g.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

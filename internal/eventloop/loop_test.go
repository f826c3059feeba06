package eventloop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInOrder(t *testing.T) {
	l := New(16, nil)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Submit(func() { got = append(got, i) }))
	}
	l.Shutdown()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_TasksNeverOverlap(t *testing.T) {
	l := New(64, nil)
	defer l.Shutdown()

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Do(func() {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				running--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	l := New(4, nil)
	defer l.Shutdown()

	assert.True(t, l.Do(func() { panic("malformed payload") }))

	ran := false
	assert.True(t, l.Do(func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_ShutdownRejectsNewTasks(t *testing.T) {
	l := New(4, nil)
	l.Shutdown()
	l.Shutdown()

	assert.False(t, l.Submit(func() {}))
	assert.False(t, l.TrySubmit(func() {}))
	assert.False(t, l.Do(func() { t.Error("must not run") }))
}

func TestLoop_TrySubmitFullQueue(t *testing.T) {
	l := New(1, nil)
	defer l.Shutdown()

	block := make(chan struct{})
	started := make(chan struct{})
	require.True(t, l.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	assert.True(t, l.TrySubmit(func() {}))
	assert.False(t, l.TrySubmit(func() {}))
	close(block)
}

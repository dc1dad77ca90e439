package lock_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/lock"
)

func TestManager_MutualExclusion(t *testing.T) {
	m := lock.NewManager()

	var inFlight int32
	var maxInFlight int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock("s-1", func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					max := atomic.LoadInt32(&maxInFlight)
					if n <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestManager_FIFOOrder(t *testing.T) {
	m := lock.NewManager()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock("s-1", func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// Queue waiters one at a time so arrival order is deterministic.
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		queued := make(chan struct{})
		go func(i int) {
			defer wg.Done()
			close(queued)
			_ = m.WithLock("s-1", func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}(i)
		<-queued
		// Give the goroutine time to enter the waiter queue.
		time.Sleep(5 * time.Millisecond)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := lock.NewManager()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock("s-1", func() error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	// A different session is not blocked.
	done := make(chan struct{})
	go func() {
		_ = m.WithLock("s-2", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent session blocked")
	}
	close(release)
}

func TestManager_ReleasesOnError(t *testing.T) {
	m := lock.NewManager()

	wantErr := errors.New("boom")
	err := m.WithLock("s-1", func() error { return wantErr })
	require.ErrorIs(t, err, wantErr)

	// Lock is free again.
	done := make(chan struct{})
	go func() {
		_ = m.WithLock("s-1", func() error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not released after error")
	}
}

func TestManager_ReleasesOnPanic(t *testing.T) {
	m := lock.NewManager()

	func() {
		defer func() { _ = recover() }()
		_ = m.WithLock("s-1", func() error { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		_ = m.WithLock("s-1", func() error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not released after panic")
	}
}

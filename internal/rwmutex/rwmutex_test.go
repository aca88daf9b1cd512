package rwmutex_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkroeger/fcached/internal/rwmutex"
)

func TestMultipleReadersConcurrent(t *testing.T) {
	m := rwmutex.New()

	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RLock()
			defer m.RUnlock()

			n := atomic.AddInt32(&active, 1)
			for {
				cur := atomic.LoadInt32(&maxActive)
				if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}

	wg.Wait()
	require.Greater(t, atomic.LoadInt32(&maxActive), int32(1), "readers should overlap")
}

func TestWriterExcludesReaders(t *testing.T) {
	m := rwmutex.New()

	var active int32
	var sawOverlap bool
	var mu sync.Mutex
	var wg sync.WaitGroup

	m.Lock()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RLock()
			n := atomic.AddInt32(&active, 1)
			if n > 1 {
				mu.Lock()
				sawOverlap = true
				mu.Unlock()
			}
			atomic.AddInt32(&active, -1)
			m.RUnlock()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	m.Unlock()
	wg.Wait()

	require.False(t, sawOverlap)
}

func TestWriterPreference(t *testing.T) {
	m := rwmutex.New()

	m.RLock() // first reader holds the lock

	writerDone := make(chan struct{})
	var writerRan int32

	go func() {
		m.Lock()
		atomic.StoreInt32(&writerRan, 1)
		m.Unlock()
		close(writerDone)
	}()

	// give the writer a chance to register as waiting
	time.Sleep(10 * time.Millisecond)

	lateReaderStarted := make(chan struct{})
	lateReaderAcquired := make(chan struct{})

	go func() {
		close(lateReaderStarted)
		m.RLock()
		close(lateReaderAcquired)
		m.RUnlock()
	}()

	<-lateReaderStarted
	time.Sleep(10 * time.Millisecond)

	select {
	case <-lateReaderAcquired:
		t.Fatal("late reader acquired lock before waiting writer")
	default:
	}

	m.RUnlock() // release the first reader; writer should run next

	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer never acquired lock")
	}

	require.Equal(t, int32(1), atomic.LoadInt32(&writerRan))

	select {
	case <-lateReaderAcquired:
	case <-time.After(time.Second):
		t.Fatal("late reader never acquired lock after writer finished")
	}
}

package reporter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()

	var (
		counter int
		wg      sync.WaitGroup
	)

	for range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			km.Lock("instance-a")
			counter++
			km.Unlock("instance-a")
		}()
	}

	wg.Wait()
	assert.Equal(t, 100, counter)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()

	km.Lock("instance-a")
	defer km.Unlock("instance-a")

	done := make(chan struct{})

	go func() {
		km.Lock("instance-b")
		km.Unlock("instance-b")
		close(done)
	}()

	<-done
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	t.Parallel()

	km := newKeyedMutex()

	km.Lock("instance-a")
	km.Unlock("instance-a")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}

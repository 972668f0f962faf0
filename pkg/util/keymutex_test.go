package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("ticket-1")
			counter++
			km.Unlock("ticket-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	km := NewKeyMutex()

	km.Lock("a")
	done := make(chan struct{})
	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()
	// a held; b must still be acquirable
	<-done
	km.Unlock("a")
}

func TestKeyMutexDropsIdleEntries(t *testing.T) {
	km := NewKeyMutex()
	km.Lock("x")
	km.Unlock("x")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}

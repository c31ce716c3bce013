package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameKey(t *testing.T) {
	m := NewManager()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("camp:1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestLockIndependentKeysDoNotBlock(t *testing.T) {
	m := NewManager()

	unlockA := m.Lock("camp:1")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("camp:2")
		unlockB()
		close(done)
	}()

	<-done
}

func TestLockManyOrdersKeys(t *testing.T) {
	m := NewManager()

	// Two goroutines locking the same pair in opposite order must not deadlock
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := m.LockMany("request:9", "inventory:A+")
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := m.LockMany("inventory:A+", "request:9")
			unlock()
		}()
	}
	wg.Wait()
}

func TestLockManyDeduplicates(t *testing.T) {
	m := NewManager()

	unlock := m.LockMany("donor:1", "donor:1")
	unlock()

	// Map should be empty once all locks are released
	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks)
}

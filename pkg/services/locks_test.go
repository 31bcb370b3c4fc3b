package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	locks := NewKeyedMutex()

	var (
		wg      sync.WaitGroup
		counter int
	)

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := locks.Lock("a")
			defer unlock()

			counter++
		}()
	}

	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.Len())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locks := NewKeyedMutex()

	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	assert.Equal(t, 2, locks.Len())

	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.Len())
}

func TestActorContext(t *testing.T) {
	assert.Empty(t, ActorFromContext(t.Context()))
	assert.Equal(t, "editor", ActorFromContext(WithActor(t.Context(), " editor ")))
	assert.Equal(t, SystemActor, ActorFromContext(SystemContext(t.Context())))
}

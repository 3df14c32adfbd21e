package tracker

import (
	"errors"
	"sync"
)

// ErrPoisoned is returned when a guard was held by a goroutine that
// panicked. The protected value may be half-updated, so the guard refuses
// all further access.
var ErrPoisoned = errors.New("tracker: guard poisoned by earlier panic")

// guard serializes access to one value. It poisons itself if a panic
// unwinds through a critical section.
type guard[T any] struct {
	mu       sync.Mutex
	poisoned bool
	val      T
}

// with runs fn with exclusive access to the value. A panic in fn poisons
// the guard and keeps propagating.
func (g *guard[T]) with(fn func(*T)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poisoned {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			g.poisoned = true
			panic(r)
		}
	}()
	fn(&g.val)
	return nil
}

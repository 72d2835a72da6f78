// Package guard provides a re-entrancy guard that declines overlapping
// operations instead of queuing them.
package guard

import "sync/atomic"

// Guard is held by at most one operation at a time. The zero value is ready to use.
type Guard struct {
	held atomic.Bool
}

// TryAcquire takes the guard if it is free and reports whether it did.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release frees the guard.
func (g *Guard) Release() {
	g.held.Store(false)
}

// Held reports whether an operation currently holds the guard.
func (g *Guard) Held() bool {
	return g.held.Load()
}

// Do runs fn while holding the guard. When the guard is already held fn is
// not run and Do returns false. The guard is released when fn returns or panics.
func (g *Guard) Do(fn func() error) (bool, error) {
	if !g.TryAcquire() {
		return false, nil
	}
	defer g.Release()
	return true, fn()
}

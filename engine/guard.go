package engine

import "sync/atomic"

// Guard is the mutual-exclusion flag held for the duration of every executed
// action. Any nested attempt to enter the engine while the flag is held is
// rejected immediately, never blocked or queued, so a collaborator or
// payout transfer that calls back into the engine cannot interleave its
// writes with the outer action's.
type Guard struct {
	held atomic.Bool
}

// TryAcquire takes the guard, reporting false if it is already held.
func (g *Guard) TryAcquire() bool {
	return g.held.CompareAndSwap(false, true)
}

// Release frees the guard. Callers must release on every exit path.
func (g *Guard) Release() {
	g.held.Store(false)
}

// Held reports whether the guard is currently held.
func (g *Guard) Held() bool {
	return g.held.Load()
}

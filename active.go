package jscbridge

import "sync/atomic"

// The bridge is designed around a single live manager per process. Hosts
// should pass their *Manager explicitly; Active exists for callbacks that
// cannot be handed one.
var active atomic.Pointer[Manager]

// Active returns the manager that most recently started an Initialize, or nil.
// A later Initialize on any manager supersedes it.
func Active() *Manager {
	return active.Load()
}

func setActive(m *Manager) {
	active.Store(m)
}

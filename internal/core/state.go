// Package core provides the shared domain types of the bridge: lifecycle
// states, port events, frame milestones, save blobs and the error taxonomy.
// It has no external dependencies so every other package can import it.
package core

// LifecycleState is the position of a session in the surface lifecycle.
// States only move forward, except for the Running/Paused cycle which may
// repeat any number of times before Destroyed.
type LifecycleState int

const (
	StateUninitialized LifecycleState = iota
	StateCreated                      // core allocated, no game yet
	StateGameLoaded                   // game loaded, surface bound, not stepped yet
	StateRunning                      // stepping once per frame
	StatePaused                       // GPU-bound resources released
	StateDestroyed                    // terminal
)

// String returns a human-readable name for the state.
func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateCreated:
		return "Created"
	case StateGameLoaded:
		return "GameLoaded"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// HasGame reports whether a game is loaded and the core has not been
// destroyed, i.e. the state is GameLoaded, Running or Paused.
func (s LifecycleState) HasGame() bool {
	return s >= StateGameLoaded && s < StateDestroyed
}

// Terminal reports whether no further core operation is permitted.
func (s LifecycleState) Terminal() bool {
	return s == StateDestroyed
}

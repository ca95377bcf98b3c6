// Package lifecycle models host lifecycle notifications. A host owns a
// Registry and dispatches Create, Resume, Pause and Destroy into it;
// observers such as a session react to them.
package lifecycle

import (
	"slices"
	"sync"
)

// Event is a host lifecycle notification.
type Event int

const (
	EventCreate Event = iota + 1
	EventResume
	EventPause
	EventDestroy
)

func (e Event) String() string {
	switch e {
	case EventCreate:
		return "Create"
	case EventResume:
		return "Resume"
	case EventPause:
		return "Pause"
	case EventDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// Observer receives lifecycle events. Observers are compared by identity,
// so implementations must be comparable (typically pointers).
type Observer interface {
	OnLifecycleEvent(Event)
}

// Owner is anything observers can attach to.
type Owner interface {
	AddObserver(Observer)
	RemoveObserver(Observer)
}

// Registry is an Owner that remembers the host state. An observer added
// late is brought up to date by replaying the events that lead to the
// current state: Create, then Resume if the host is resumed. Nothing is
// replayed once the host is destroyed.
type Registry struct {
	mu        sync.Mutex
	observers []Observer
	created   bool
	resumed   bool
	destroyed bool
}

// NewRegistry returns a registry in the initial state.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddObserver attaches o and replays the current state to it. Adding the
// same observer twice has no effect.
func (r *Registry) AddObserver(o Observer) {
	r.mu.Lock()
	if slices.Contains(r.observers, o) || r.destroyed {
		r.mu.Unlock()
		return
	}
	r.observers = append(r.observers, o)
	var replay []Event
	if r.created {
		replay = append(replay, EventCreate)
	}
	if r.resumed {
		replay = append(replay, EventResume)
	}
	r.mu.Unlock()

	for _, e := range replay {
		o.OnLifecycleEvent(e)
	}
}

// RemoveObserver detaches o. It is safe to call from inside a callback.
func (r *Registry) RemoveObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = slices.DeleteFunc(r.observers, func(x Observer) bool { return x == o })
}

// Dispatch records e and delivers it to every observer in registration
// order. Events that do not change the state (a second Resume, Pause while
// paused, anything after Destroy) are dropped.
func (r *Registry) Dispatch(e Event) {
	r.mu.Lock()
	if !r.apply(e) {
		r.mu.Unlock()
		return
	}
	observers := slices.Clone(r.observers)
	if e == EventDestroy {
		r.observers = nil
	}
	r.mu.Unlock()

	for _, o := range observers {
		o.OnLifecycleEvent(e)
	}
}

func (r *Registry) apply(e Event) bool {
	if r.destroyed {
		return false
	}
	switch e {
	case EventCreate:
		if r.created {
			return false
		}
		r.created = true
	case EventResume:
		if !r.created || r.resumed {
			return false
		}
		r.resumed = true
	case EventPause:
		if !r.resumed {
			return false
		}
		r.resumed = false
	case EventDestroy:
		if r.resumed {
			r.resumed = false
		}
		r.destroyed = true
	default:
		return false
	}
	return true
}

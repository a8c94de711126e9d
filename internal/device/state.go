package device

import (
	"sync"
)

// AdapterState is the power/availability state of the local Bluetooth adapter.
type AdapterState int

const (
	StateUnknown AdapterState = iota
	StateResetting
	StateUnsupported
	StateUnauthorized
	StatePoweredOff
	StatePoweredOn
)

var stateNames = map[AdapterState]string{
	StateUnknown:      "Unknown",
	StateResetting:    "Resetting",
	StateUnsupported:  "Unsupported",
	StateUnauthorized: "Unauthorized",
	StatePoweredOff:   "PoweredOff",
	StatePoweredOn:    "PoweredOn",
}

func (s AdapterState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Ready reports whether discovery and connections can be expected to work.
func (s AdapterState) Ready() bool {
	return s == StatePoweredOn
}

// StateBroadcaster fans adapter state changes out to listeners and remembers
// the last state so new listeners can be replayed. Backends embed it.
type StateBroadcaster struct {
	mu        sync.Mutex
	state     AdapterState
	nextID    uint64
	listeners map[uint64]StateListener
}

// NewStateBroadcaster creates a broadcaster starting in StateUnknown.
func NewStateBroadcaster() *StateBroadcaster {
	return &StateBroadcaster{listeners: make(map[uint64]StateListener)}
}

// State returns the last published state.
func (b *StateBroadcaster) State() AdapterState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Subscribe registers listener; with emitCurrent it is first called with the current state.
func (b *StateBroadcaster) Subscribe(listener StateListener, emitCurrent bool) Subscription {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	current := b.state
	b.mu.Unlock()

	if emitCurrent {
		listener(current)
	}
	return &subscription{remove: func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}}
}

// Publish records state and notifies listeners when it differs from the previous one.
func (b *StateBroadcaster) Publish(state AdapterState) {
	b.mu.Lock()
	if b.state == state {
		b.mu.Unlock()
		return
	}
	b.state = state
	listeners := make([]StateListener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}

// Len returns the number of registered listeners.
func (b *StateBroadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

type subscription struct {
	once   sync.Once
	remove func()
}

func (s *subscription) Remove() {
	s.once.Do(s.remove)
}

// Package status broadcasts the session's connected/disconnected signal to
// independent listeners, and defers work until the session is connected.
package status

import (
	"log/slog"
	"sync"
)

// Listener receives the current connectivity value.
type Listener func(connected bool)

// registration is one listener slot. Its mutex serializes deliveries so a
// listener never runs concurrently with itself, and seen holds the sequence
// number of the last value delivered so an older value is never delivered
// after a newer one.
type registration struct {
	fn Listener

	mu        sync.Mutex
	delivered bool
	seen      uint64
}

// Tracker holds the connectivity value and its listener set.
type Tracker struct {
	logger *slog.Logger

	mu        sync.Mutex
	connected bool
	seq       uint64
	listeners map[string]*registration
}

// NewTracker creates a Tracker in the disconnected state.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		logger:    logger,
		listeners: make(map[string]*registration),
	}
}

// Connected returns the current value.
func (t *Tracker) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Listen registers fn under id, replacing any previous listener for id, and
// invokes fn once before returning with the current value.
func (t *Tracker) Listen(id string, fn Listener) {
	t.install(id, &registration{fn: fn})
}

// StopListening removes the listener for id. No-op if absent.
func (t *Tracker) StopListening(id string) {
	t.mu.Lock()
	delete(t.listeners, id)
	t.mu.Unlock()
}

// Notify records a new value and invokes every registered listener with it.
// Repeating the current value is a no-op.
func (t *Tracker) Notify(connected bool) {
	t.mu.Lock()
	if connected == t.connected {
		t.mu.Unlock()
		return
	}
	t.connected = connected
	t.seq++
	seq := t.seq

	snapshot := make(map[string]*registration, len(t.listeners))
	for id, reg := range t.listeners {
		snapshot[id] = reg
	}
	t.mu.Unlock()

	t.logger.Debug("connection status changed",
		"connected", connected,
		"listeners", len(snapshot),
	)

	for id, reg := range snapshot {
		t.deliver(id, reg, connected, seq)
	}
}

// Len returns the number of registered listeners.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

// install stores reg under id and performs the initial delivery.
func (t *Tracker) install(id string, reg *registration) {
	t.mu.Lock()
	t.listeners[id] = reg
	connected, seq := t.connected, t.seq
	t.mu.Unlock()

	t.deliver(id, reg, connected, seq)
}

// remove deletes the listener for id only if it is still reg.
func (t *Tracker) remove(id string, reg *registration) {
	t.mu.Lock()
	if t.listeners[id] == reg {
		delete(t.listeners, id)
	}
	t.mu.Unlock()
}

// deliver invokes one listener, recovering a panic so the remaining
// listeners still run.
func (t *Tracker) deliver(id string, reg *registration, connected bool, seq uint64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.delivered && seq <= reg.seen {
		return
	}
	reg.delivered = true
	reg.seen = seq

	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn("status listener panicked",
				"subscriber", id,
				"panic", r,
			)
		}
	}()

	reg.fn(connected)
}

package router

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/onenight/partyclient/internal/protocol"
)

// Handler receives a decoded server message.
type Handler func(msg protocol.ServerMessage)

// Router maps server actions to subscriber callbacks.
type Router interface {
	// Subscribe registers h for (id, action), replacing any previous handler.
	Subscribe(id string, action protocol.ServerAction, h Handler)

	// Unsubscribe removes the handler for (id, action). No-op if absent.
	Unsubscribe(id string, action protocol.ServerAction)

	// UnsubscribeAll removes every handler registered by id.
	UnsubscribeAll(id string)

	// Dispatch invokes every handler subscribed to msg's action once and
	// returns how many ran. No subscribers is not an error.
	Dispatch(msg protocol.ServerMessage) int

	// Subscribers returns the sorted subscriber ids for action.
	Subscribers(action protocol.ServerAction) []string

	// Stats returns current router statistics.
	Stats() RouterStats
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesDispatched int64 // Messages passed to Dispatch
	HandlersInvoked    int64 // Handler calls across all messages
	Unrouted           int64 // Messages with no subscriber
	HandlerPanics      int64 // Handler calls that panicked
	Registrations      int   // Current (id, action) pairs
}

// router is the internal implementation.
type router struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[protocol.ServerAction]map[string]Handler

	statsMu    sync.Mutex
	dispatched int64
	invoked    int64
	unrouted   int64
	panics     int64
}

// NewRouter creates an empty Action Router.
func NewRouter(logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &router{
		logger: logger,
		subs:   make(map[protocol.ServerAction]map[string]Handler),
	}
}

// Subscribe registers or replaces a handler.
func (r *router) Subscribe(id string, action protocol.ServerAction, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.subs[action]
	if !ok {
		byID = make(map[string]Handler)
		r.subs[action] = byID
	}
	byID[id] = h

	r.logger.Debug("subscribed", "subscriber", id, "action", action)
}

// Unsubscribe removes a handler.
func (r *router) Unsubscribe(id string, action protocol.ServerAction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.subs[action]
	if !ok {
		return
	}
	if _, ok := byID[id]; !ok {
		return
	}
	delete(byID, id)
	if len(byID) == 0 {
		delete(r.subs, action)
	}

	r.logger.Debug("unsubscribed", "subscriber", id, "action", action)
}

// UnsubscribeAll removes every handler for id.
func (r *router) UnsubscribeAll(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for action, byID := range r.subs {
		delete(byID, id)
		if len(byID) == 0 {
			delete(r.subs, action)
		}
	}
}

// Dispatch fans msg out to a snapshot of the current handlers. Handlers run
// without the lock held, so they may change registrations; such changes
// apply to the next dispatch.
func (r *router) Dispatch(msg protocol.ServerMessage) int {
	if msg == nil {
		return 0
	}
	action := msg.Action()

	r.mu.RLock()
	byID := r.subs[action]
	type entry struct {
		id string
		h  Handler
	}
	snapshot := make([]entry, 0, len(byID))
	for id, h := range byID {
		snapshot = append(snapshot, entry{id: id, h: h})
	}
	r.mu.RUnlock()

	r.statsMu.Lock()
	r.dispatched++
	if len(snapshot) == 0 {
		r.unrouted++
	}
	r.statsMu.Unlock()

	if len(snapshot) == 0 {
		r.logger.Debug("no subscribers", "action", action)
		return 0
	}

	for _, e := range snapshot {
		r.invoke(e.id, e.h, msg)
	}

	r.statsMu.Lock()
	r.invoked += int64(len(snapshot))
	r.statsMu.Unlock()

	return len(snapshot)
}

// invoke runs one handler, recovering a panic so the remaining handlers
// still run.
func (r *router) invoke(id string, h Handler, msg protocol.ServerMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("handler panicked",
				"subscriber", id,
				"action", msg.Action(),
				"panic", rec,
			)
			r.statsMu.Lock()
			r.panics++
			r.statsMu.Unlock()
		}
	}()

	h(msg)
}

// Subscribers returns the ids registered for action.
func (r *router) Subscribers(action protocol.ServerAction) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.subs[action]))
	for id := range r.subs[action] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats returns current statistics.
func (r *router) Stats() RouterStats {
	r.mu.RLock()
	registrations := 0
	for _, byID := range r.subs {
		registrations += len(byID)
	}
	r.mu.RUnlock()

	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	return RouterStats{
		MessagesDispatched: r.dispatched,
		HandlersInvoked:    r.invoked,
		Unrouted:           r.unrouted,
		HandlerPanics:      r.panics,
		Registrations:      registrations,
	}
}

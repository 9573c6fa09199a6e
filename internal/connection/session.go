package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/onenight/partyclient/internal/model"
	"github.com/onenight/partyclient/internal/protocol"
	"github.com/onenight/partyclient/internal/router"
	"github.com/onenight/partyclient/internal/status"
)

// Option configures a Session.
type Option func(*Session)

// WithRecorder journals every frame the session sends or receives.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithTransportFactory replaces how a transport is built for each Connect.
func WithTransportFactory(f func(TransportConfig, *slog.Logger) Transport) Option {
	return func(s *Session) { s.newTransport = f }
}

// Session owns the connection to the game server together with the status
// tracker and the action router fed by it. All dispatch happens on the
// session goroutine, one message at a time, in arrival order.
type Session struct {
	cfg    TransportConfig
	logger *slog.Logger

	id           string
	tracker      *status.Tracker
	router       router.Router
	recorder     Recorder
	newTransport func(TransportConfig, *slog.Logger) Transport

	mu        sync.Mutex
	state     State
	closed    bool
	transport Transport
	done      chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// NewSession creates a disconnected session for cfg.URL.
func NewSession(cfg TransportConfig, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		cfg:          cfg,
		id:           uuid.NewString(),
		newTransport: NewTransport,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = logger.With("component", "session", "session_id", s.id)
	s.tracker = status.NewTracker(s.logger)
	s.router = router.NewRouter(s.logger)

	// A session that never connected is already "done"
	s.done = make(chan struct{})
	close(s.done)

	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Connect starts connecting and returns without waiting for the handshake.
// It is a no-op while connecting or connected. After a close transition a
// new Connect dials again; the session never does so on its own.
//
// ctx bounds the dial and the lifetime of the resulting connection.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}

	t := s.newTransport(s.cfg, s.logger)
	prev := s.done
	done := make(chan struct{})

	s.state = StateConnecting
	s.transport = t
	s.done = done
	s.mu.Unlock()

	s.logger.Debug("connecting", "url", s.cfg.URL)

	go s.run(ctx, t, prev, done)
	return nil
}

// Close closes the connection. No message is dispatched to subscribers
// after Close returns, apart from a handler already running. A closed
// session cannot connect again. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	t := s.transport
	s.mu.Unlock()

	if t != nil {
		return t.Close()
	}
	return nil
}

// Done returns a channel closed when the current connection, including
// its close transition, has finished.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the transport is open.
func (s *Session) Connected() bool {
	return s.tracker.Connected()
}

// Stats returns current statistics.
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// run owns one transport from dial to close transition.
func (s *Session) run(ctx context.Context, t Transport, prev <-chan struct{}, done chan struct{}) {
	defer close(done)

	// The previous connection's close notification must land first
	<-prev

	stop := context.AfterFunc(ctx, func() { t.Close() })
	defer stop()

	if err := t.Connect(ctx); err != nil {
		s.logger.Warn("connect failed", "url", s.cfg.URL, "error", err)
		s.setState(t, StateDisconnected)
		return
	}

	if !s.setState(t, StateConnected) {
		t.Close()
		return
	}
	s.count(func(st *Stats) { st.Connects++ })
	s.logger.Info("connected", "url", s.cfg.URL)
	s.tracker.Notify(true)

	// Drain until the read loop exits, but dispatch nothing once closed
	for frame := range t.Frames() {
		if s.isClosed() {
			continue
		}
		s.handleFrame(frame)
	}

	s.logClose(t.Err())
	s.setState(t, StateDisconnected)
	s.count(func(st *Stats) { st.Disconnects++ })
	s.tracker.Notify(false)
}

// setState moves the session to state if t is still its transport. Moving
// to connected fails once the session has been closed.
func (s *Session) setState(t Transport, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport != t {
		return false
	}
	if state == StateConnected && s.closed {
		s.state = StateDisconnected
		return false
	}
	s.state = state
	return true
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// logClose reports why the read loop ended.
func (s *Session) logClose(err error) {
	var closeErr *websocket.CloseError
	switch {
	case err == nil:
		s.logger.Info("connection closed")
	case errors.As(err, &closeErr):
		s.logger.Info("connection closed",
			"code", closeErr.Code,
			"reason", closeErr.Text,
		)
	default:
		s.logger.Warn("connection error", "error", err)
	}
}

// handleFrame decodes one inbound frame and dispatches it.
func (s *Session) handleFrame(frame InboundFrame) {
	s.count(func(st *Stats) { st.FramesReceived++ })

	if frame.Type != websocket.TextMessage {
		s.count(func(st *Stats) { st.NonTextFrames++ })
		s.logger.Warn("dropping non-text frame", "type", frame.Type, "size", len(frame.Data))
		return
	}

	s.record(DirectionIn, protocol.PeekAction(frame.Data), frame.Data, frame.ReceivedAt)

	msg, err := protocol.Decode(frame.Data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownAction) {
			s.count(func(st *Stats) {
				st.DecodeErrors++
				st.UnknownActions++
			})
		} else {
			s.count(func(st *Stats) { st.DecodeErrors++ })
		}
		s.logger.Warn("discarding inbound frame", "error", err, "size", len(frame.Data))
		return
	}

	if s.isClosed() {
		return
	}
	s.logger.Debug("received", "action", msg.Action())
	s.router.Dispatch(msg)
	s.count(func(st *Stats) { st.Dispatched++ })
}

// Send encodes msg and writes it. While the transport is not open the frame
// is dropped and Send returns nil; only encode and write failures are
// errors.
func (s *Session) Send(msg protocol.ClientMessage) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	s.mu.Lock()
	t, state := s.transport, s.state
	s.mu.Unlock()

	if state != StateConnected || t == nil {
		s.dropSend(msg)
		return nil
	}

	if err := t.Send(data); err != nil {
		if errors.Is(err, ErrNotConnected) {
			s.dropSend(msg)
			return nil
		}
		return fmt.Errorf("send %s: %w", msg.Action(), err)
	}

	s.count(func(st *Stats) { st.FramesSent++ })
	s.record(DirectionOut, string(msg.Action()), data, time.Now())
	s.logger.Debug("sent", "action", msg.Action())
	return nil
}

func (s *Session) dropSend(msg protocol.ClientMessage) {
	s.count(func(st *Stats) { st.SendsDropped++ })
	s.logger.Debug("not connected, dropping send", "action", msg.Action())
}

func (s *Session) record(dir Direction, action string, payload []byte, at time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(Frame{
		SessionID: s.id,
		Direction: dir,
		Action:    action,
		Payload:   payload,
		At:        at,
	})
}

func (s *Session) count(fn func(*Stats)) {
	s.statsMu.Lock()
	fn(&s.stats)
	s.statsMu.Unlock()
}

// CreateGame asks the server to open a room hosted by player.
func (s *Session) CreateGame(player string) error {
	return s.Send(protocol.CreateGame{PlayerName: player})
}

// JoinGame asks to join room as player.
func (s *Session) JoinGame(player, room string) error {
	return s.Send(protocol.JoinGame{PlayerName: player, RoomCode: room})
}

// LeaveGame removes player from room.
func (s *Session) LeaveGame(player, room string) error {
	return s.Send(protocol.LeaveGame{PlayerName: player, RoomCode: room})
}

// GetRoomInfo requests the current roster and role counts of room.
func (s *Session) GetRoomInfo(room string) error {
	return s.Send(protocol.GetRoomInfo{RoomCode: room})
}

// Kick removes player from room. Only the host's request is honored by the
// server.
func (s *Session) Kick(player, room string) error {
	return s.Send(protocol.Kick{PlayerName: player, RoomCode: room})
}

// ChangeRole sets how many copies of role are in play for room.
func (s *Session) ChangeRole(role model.Role, room string, count int64) error {
	if !role.Valid() {
		return fmt.Errorf("change role: %w: %q", model.ErrUnknownRole, string(role))
	}
	return s.Send(protocol.ChangeRole{
		Role:     role.ServerName(),
		RoomCode: room,
		Count:    count,
	})
}

// Subscribe registers h for (id, action), replacing any previous handler.
func (s *Session) Subscribe(id string, action protocol.ServerAction, h router.Handler) {
	s.router.Subscribe(id, action, h)
}

// Unsubscribe removes the handler for (id, action).
func (s *Session) Unsubscribe(id string, action protocol.ServerAction) {
	s.router.Unsubscribe(id, action)
}

// UnsubscribeAll removes every handler registered by id.
func (s *Session) UnsubscribeAll(id string) {
	s.router.UnsubscribeAll(id)
}

// RouterStats returns the router's statistics.
func (s *Session) RouterStats() router.RouterStats {
	return s.router.Stats()
}

// ListenToStatusChange registers fn and invokes it immediately with the
// current value.
func (s *Session) ListenToStatusChange(id string, fn status.Listener) {
	s.tracker.Listen(id, fn)
}

// StopListeningToStatusChange removes the status listener for id.
func (s *Session) StopListeningToStatusChange(id string) {
	s.tracker.StopListening(id)
}

// WhenReady runs fn once the session is connected, at most once.
func (s *Session) WhenReady(id string, fn func()) {
	s.tracker.WhenReady(id, fn)
}

// On registers a typed handler for the action of T.
//
//	connection.On(s, "lobby", func(m protocol.PlayerJoined) { ... })
func On[T protocol.ServerMessage](s *Session, id string, fn func(T)) {
	router.On(s.router, id, fn)
}

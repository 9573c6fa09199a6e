package connection

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onenight/partyclient/internal/version"
)

// Transport is a single WebSocket connection to the game server.
type Transport interface {
	// Connect performs the opening handshake.
	Connect(ctx context.Context) error

	// Close sends a normal-closure frame and closes the socket. Idempotent.
	Close() error

	// Send writes one text frame.
	Send(data []byte) error

	// Frames returns every inbound frame in arrival order. The channel is
	// closed when the read loop exits.
	Frames() <-chan InboundFrame

	// Err returns the error that ended the read loop, nil while it runs or
	// after a local Close.
	Err() error

	// IsConnected returns current connection state.
	IsConnected() bool
}

// transport implements the Transport interface.
type transport struct {
	cfg    TransportConfig
	logger *slog.Logger

	conn *websocket.Conn

	frames chan InboundFrame
	done   chan struct{}

	// Aborts an in-flight dial on Close
	dialCtx    context.Context
	cancelDial context.CancelFunc

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	connected  bool
	closed     bool
	lastPongAt time.Time
	err        error
}

// NewTransport creates an unconnected transport.
func NewTransport(cfg TransportConfig, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &transport{
		cfg:        cfg,
		logger:     logger,
		frames:     make(chan InboundFrame, cfg.BufferSize),
		done:       make(chan struct{}),
		dialCtx:    ctx,
		cancelDial: cancel,
	}
}

// Connect dials the server. A transport connects at most once.
func (t *transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrAlreadyClosed
	}
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.dialCtx, cancel)
	defer stop()

	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(dialCtx, t.cfg.URL, header)
	if err != nil {
		return err
	}
	if t.cfg.ReadLimit > 0 {
		conn.SetReadLimit(t.cfg.ReadLimit)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return ErrAlreadyClosed
	}
	t.conn = conn
	t.connected = true
	t.lastPongAt = time.Now()
	t.mu.Unlock()

	conn.SetPingHandler(func(data string) error {
		t.touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	conn.SetPongHandler(func(string) error {
		t.touch()
		return nil
	})

	go t.readLoop()
	if t.cfg.PingInterval > 0 {
		go t.heartbeatLoop()
	}

	t.logger.Debug("websocket connected", "url", t.cfg.URL)

	return nil
}

// Close gracefully closes the connection.
func (t *transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.connected = false
	conn := t.conn
	t.mu.Unlock()

	t.cancelDial()
	close(t.done)

	if conn == nil {
		return nil
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	return conn.Close()
}

// Send writes raw bytes as a text frame.
func (t *transport) Send(data []byte) error {
	t.mu.RLock()
	if !t.connected {
		t.mu.RUnlock()
		return ErrNotConnected
	}
	conn := t.conn
	t.mu.RUnlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	conn.SetWriteDeadline(t.writeDeadline())
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Frames returns the inbound frame channel.
func (t *transport) Frames() <-chan InboundFrame {
	return t.frames
}

// Err returns the error that ended the read loop.
func (t *transport) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// IsConnected returns the current connection state.
func (t *transport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// writeDeadline returns the deadline for a write started now. The zero
// time means no deadline.
func (t *transport) writeDeadline() time.Time {
	if t.cfg.WriteTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(t.cfg.WriteTimeout)
}

func (t *transport) touch() {
	t.mu.Lock()
	t.lastPongAt = time.Now()
	t.mu.Unlock()
}

// fail records the first error that ends the connection.
func (t *transport) fail(err error) {
	t.mu.Lock()
	if t.err == nil && !t.closed {
		t.err = err
	}
	t.connected = false
	t.mu.Unlock()
}

// readLoop reads frames until the socket fails or is closed. Frames are
// never dropped: a full channel applies backpressure to the socket.
func (t *transport) readLoop() {
	defer close(t.frames)

	for {
		typ, data, err := t.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			select {
			case <-t.done:
			default:
				t.fail(err)
			}
			return
		}

		frame := InboundFrame{
			Data:       data,
			Type:       typ,
			ReceivedAt: receivedAt,
		}

		select {
		case t.frames <- frame:
		case <-t.done:
			return
		}
	}
}

// heartbeatLoop pings the server and closes the socket when pongs stop.
func (t *transport) heartbeatLoop() {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			err := t.conn.WriteControl(websocket.PingMessage, []byte("keepalive"), t.writeDeadline())
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				t.logger.Debug("failed to send ping", "error", err)
			}

			t.mu.RLock()
			lastPong := t.lastPongAt
			t.mu.RUnlock()

			if t.cfg.PingTimeout > 0 && time.Since(lastPong) > t.cfg.PingTimeout {
				t.logger.Warn("no pong received, connection stale",
					"last_pong", lastPong,
					"timeout", t.cfg.PingTimeout,
				)
				t.fail(ErrStaleConnection)
				// Unblocks ReadMessage; the read loop then closes Frames
				t.conn.Close()
				return
			}
		}
	}
}

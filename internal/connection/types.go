package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected      = errors.New("not connected")
	ErrStaleConnection   = errors.New("connection stale (no pong)")
	ErrAlreadyClosed     = errors.New("already closed")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// InboundFrame is one frame read from the socket.
type InboundFrame struct {
	Data       []byte    // Raw frame payload
	Type       int       // websocket.TextMessage, websocket.BinaryMessage
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// TransportConfig configures a single WebSocket transport.
type TransportConfig struct {
	URL              string        // WebSocket URL (e.g., wss://game.example.com/ws)
	HandshakeTimeout time.Duration // Max time for the opening handshake
	WriteTimeout     time.Duration // Write deadline for sends and control frames
	PingInterval     time.Duration // How often a keepalive ping is sent
	PingTimeout      time.Duration // Max time without pong before considering connection stale
	ReadLimit        int64         // Max inbound frame size in bytes (0 = unlimited)
	BufferSize       int           // Inbound frame channel buffer size
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		ReadLimit:        1 << 20,
		BufferSize:       256,
	}
}

// State is the session lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Direction tells whether a frame was sent or received.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Frame is one journaled frame.
type Frame struct {
	SessionID string
	Direction Direction
	Action    string // Discriminant, "" if it could not be read
	Payload   []byte
	At        time.Time
}

// Recorder receives a copy of every frame a Session sends or receives.
// Record is called on the session's hot path and must not block.
type Recorder interface {
	Record(f Frame)
}

// Stats contains session statistics.
type Stats struct {
	FramesReceived int64 // Inbound frames of any type
	FramesSent     int64 // Outbound frames written to the socket
	SendsDropped   int64 // Sends discarded while not connected
	DecodeErrors   int64 // Inbound text frames that failed to decode
	UnknownActions int64 // Decode failures caused by an unrecognized discriminant
	NonTextFrames  int64 // Binary frames discarded
	Dispatched     int64 // Decoded messages handed to the router
	Connects       int64 // Successful opens
	Disconnects    int64 // Close transitions after an open
}

package config

import "time"

// Config is the root configuration for a party client.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Player     PlayerConfig     `yaml:"player"`
	Journal    JournalConfig    `yaml:"journal"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig locates the game server.
type ServerConfig struct {
	PageURL  string `yaml:"page_url"` // Address the game page is served from (e.g., https://werewolf.example.com)
	Endpoint string `yaml:"endpoint"` // Explicit WebSocket URL; overrides page_url
	Path     string `yaml:"path"`     // WebSocket route appended to page_url
}

// ConnectionConfig tunes the WebSocket transport.
type ConnectionConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	ReadLimit        int64         `yaml:"read_limit"`
	FrameBuffer      int           `yaml:"frame_buffer"`
}

// PlayerConfig holds the default identity used by the CLIs.
type PlayerConfig struct {
	Name string `yaml:"name"`
}

// JournalConfig controls frame journaling.
type JournalConfig struct {
	Enabled       bool           `yaml:"enabled"`
	Driver        string         `yaml:"driver"` // "sqlite" or "postgres"
	Path          string         `yaml:"path"`   // SQLite file, ":memory:" allowed
	BatchSize     int            `yaml:"batch_size"`
	FlushInterval time.Duration  `yaml:"flush_interval"`
	BufferSize    int            `yaml:"buffer_size"`
	MaxBufferSize int            `yaml:"max_buffer_size"`
	Postgres      PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds a single database connection.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

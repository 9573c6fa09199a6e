package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.PageURL == "" && c.Server.Endpoint == "" {
		return errors.New("server.page_url or server.endpoint is required")
	}
	if _, err := c.Endpoint(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if c.Connection.HandshakeTimeout < 0 {
		return errors.New("connection.handshake_timeout must be >= 0")
	}
	if c.Connection.PingInterval > 0 && c.Connection.PingTimeout <= c.Connection.PingInterval {
		return fmt.Errorf("connection.ping_timeout (%s) must exceed ping_interval (%s)",
			c.Connection.PingTimeout, c.Connection.PingInterval)
	}
	if c.Connection.FrameBuffer < 1 {
		return errors.New("connection.frame_buffer must be >= 1")
	}

	if c.Journal.Enabled {
		if err := c.Journal.validate("journal"); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (j *JournalConfig) validate(prefix string) error {
	if j.BatchSize < 1 {
		return fmt.Errorf("%s.batch_size must be >= 1", prefix)
	}
	if j.BufferSize < 1 {
		return fmt.Errorf("%s.buffer_size must be >= 1", prefix)
	}
	if j.MaxBufferSize < j.BufferSize {
		return fmt.Errorf("%s.max_buffer_size (%d) cannot be below buffer_size (%d)", prefix, j.MaxBufferSize, j.BufferSize)
	}

	switch j.Driver {
	case "sqlite":
		if j.Path == "" {
			return fmt.Errorf("%s.path is required", prefix)
		}
	case "postgres":
		return j.Postgres.validate(prefix + ".postgres")
	default:
		return fmt.Errorf("%s.driver must be sqlite or postgres, got %q", prefix, j.Driver)
	}
	return nil
}

func (db *PostgresConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

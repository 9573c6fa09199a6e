package journal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/onenight/partyclient/internal/config"
	"github.com/onenight/partyclient/internal/connection"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS frames (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT        NOT NULL,
	direction  TEXT        NOT NULL,
	action     TEXT        NOT NULL,
	payload    BYTEA       NOT NULL,
	at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS frames_session_idx ON frames (session_id, id);
`

// PostgresStore journals frames to PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.PostgresConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// OpenPostgres creates a connection pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create frames table: %w", err)
	}
	return nil
}

// WriteFrames inserts frames with a single pgx.Batch round trip.
func (s *PostgresStore) WriteFrames(ctx context.Context, frames []connection.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range frames {
		batch.Queue(`
			INSERT INTO frames (session_id, direction, action, payload, at)
			VALUES ($1, $2, $3, $4, $5)
		`, f.SessionID, string(f.Direction), f.Action, f.Payload, f.At.UTC())
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range frames {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert frame: %w", err)
		}
	}
	return nil
}

// Recent returns the newest matching frames, oldest first.
func (s *PostgresStore) Recent(ctx context.Context, f Filter) ([]connection.Frame, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, direction, action, payload, at
		FROM frames
		WHERE ($1 = '' OR session_id = $1)
		  AND ($2 = '' OR action = $2)
		ORDER BY id DESC
		LIMIT $3
	`, f.SessionID, f.Action, limitOf(f))
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}

	frames, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (connection.Frame, error) {
		var (
			fr  connection.Frame
			dir string
		)
		err := row.Scan(&fr.SessionID, &dir, &fr.Action, &fr.Payload, &fr.At)
		fr.Direction = connection.Direction(dir)
		return fr, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan frames: %w", err)
	}

	reverse(frames)
	return frames, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

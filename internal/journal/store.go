package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/onenight/partyclient/internal/config"
	"github.com/onenight/partyclient/internal/connection"
)

// ErrUnknownDriver is returned by OpenStore for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown journal driver")

// Filter narrows a Recent query. Zero fields match everything.
type Filter struct {
	SessionID string
	Action    string
	Limit     int // 0 = DefaultRecentLimit
}

// DefaultRecentLimit caps Recent when Filter.Limit is zero.
const DefaultRecentLimit = 100

// Store persists journaled frames.
type Store interface {
	// Migrate creates the frames table if it does not exist.
	Migrate(ctx context.Context) error

	// WriteFrames inserts frames in one round trip.
	WriteFrames(ctx context.Context, frames []connection.Frame) error

	// Recent returns the newest frames matching f, oldest first.
	Recent(ctx context.Context, f Filter) ([]connection.Frame, error)

	// Close releases the underlying connection.
	Close() error
}

// OpenStore opens and migrates the store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.JournalConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case "", "sqlite":
		store, err = OpenSQLite(cfg.Path)
	case "postgres":
		store, err = OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return store, nil
}

func limitOf(f Filter) int {
	if f.Limit <= 0 {
		return DefaultRecentLimit
	}
	return f.Limit
}

// reverse flips newest-first query results into chronological order.
func reverse(frames []connection.Frame) {
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
}

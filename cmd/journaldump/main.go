// journaldump prints frames recorded by the journal.
//
// Usage:
//
//	journaldump -config configs/partyclient.example.yaml -session <id> -limit 50
//	journaldump -db partyclient.db -action RoomInfo -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/onenight/partyclient/internal/config"
	"github.com/onenight/partyclient/internal/connection"
	"github.com/onenight/partyclient/internal/journal"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dbPath := flag.String("db", "", "SQLite journal file (overrides config)")
	sessionID := flag.String("session", "", "only frames from this session")
	action := flag.String("action", "", "only frames with this action")
	limit := flag.Int("limit", journal.DefaultRecentLimit, "maximum frames to print")
	asJSON := flag.Bool("json", false, "print one JSON object per line")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadWithDefaults(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.Journal.Driver = "sqlite"
		cfg.Journal.Path = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := journal.OpenStore(ctx, cfg.Journal)
	if err != nil {
		logger.Error("failed to open journal", "driver", cfg.Journal.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	frames, err := store.Recent(ctx, journal.Filter{
		SessionID: *sessionID,
		Action:    *action,
		Limit:     *limit,
	})
	if err != nil {
		logger.Error("failed to read journal", "error", err)
		store.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, f := range frames {
		if *asJSON {
			enc.Encode(jsonFrame(f))
			continue
		}
		fmt.Printf("%s %s %-3s %-16s %s\n",
			f.At.Format(time.RFC3339Nano),
			f.SessionID,
			f.Direction,
			f.Action,
			f.Payload,
		)
	}
}

type frameLine struct {
	At        time.Time       `json:"at"`
	SessionID string          `json:"session_id"`
	Direction string          `json:"direction"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
}

func jsonFrame(f connection.Frame) frameLine {
	payload := json.RawMessage(f.Payload)
	if !json.Valid(payload) {
		quoted, _ := json.Marshal(string(f.Payload))
		payload = quoted
	}
	return frameLine{
		At:        f.At,
		SessionID: f.SessionID,
		Direction: string(f.Direction),
		Action:    f.Action,
		Payload:   payload,
	}
}

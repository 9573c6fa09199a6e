// partywatch connects to the game server and streams connection status
// changes and every inbound message to the console.
//
// Usage:
//
//	partywatch -config configs/partyclient.example.yaml -room AB12 -reconnect
//
// With -room the room is polled with GetRoomInfo. With -reconnect a
// dropped connection is dialed again with exponential backoff.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/onenight/partyclient/internal/config"
	"github.com/onenight/partyclient/internal/connection"
	"github.com/onenight/partyclient/internal/journal"
	"github.com/onenight/partyclient/internal/protocol"
	"github.com/onenight/partyclient/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	server := flag.String("server", "", "game page or WebSocket URL (overrides config)")
	room := flag.String("room", "", "room code to poll with GetRoomInfo")
	pollInterval := flag.Duration("poll", 5*time.Second, "room poll interval")
	reconnect := flag.Bool("reconnect", false, "reconnect with backoff when the connection drops")
	maxBackoff := flag.Duration("max-backoff", 30*time.Second, "upper bound on the reconnect delay")
	statsInterval := flag.Duration("stats", 30*time.Second, "stats log interval, 0 disables")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Load config
	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadWithDefaults(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "partywatch: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	if *server != "" {
		cfg.Server.Endpoint = *server
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "partywatch: invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "partywatch: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	transportCfg, err := cfg.Transport()
	if err != nil {
		logger.Error("failed to resolve endpoint", "error", err)
		os.Exit(1)
	}

	logger.Info("starting partywatch",
		"version", version.Version,
		"url", transportCfg.URL,
		"room", *room,
		"reconnect", *reconnect,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional frame journal
	var sessionOpts []connection.Option
	var jr *journal.Journal
	var store journal.Store
	if cfg.Journal.Enabled {
		store, err = journal.OpenStore(ctx, cfg.Journal)
		if err != nil {
			logger.Error("failed to open journal", "error", err)
			os.Exit(1)
		}
		jr = journal.New(journal.WriterConfigFrom(cfg.Journal), store, logger)
		if err := jr.Start(ctx); err != nil {
			logger.Error("failed to start journal", "error", err)
			os.Exit(1)
		}
		sessionOpts = append(sessionOpts, connection.WithRecorder(jr))
	}

	session := connection.NewSession(transportCfg, logger, sessionOpts...)
	id := "partywatch-" + uuid.NewString()

	session.ListenToStatusChange(id, func(connected bool) {
		fmt.Printf("%s [STATUS] connected=%t\n", time.Now().Format(time.TimeOnly), connected)
	})
	for _, action := range protocol.AllServerActions() {
		session.Subscribe(id, action, func(msg protocol.ServerMessage) {
			printMessage(msg, *verbose)
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return superviseConnection(gctx, session, backoff{
			enabled: *reconnect,
			initial: 500 * time.Millisecond,
			max:     *maxBackoff,
		}, logger)
	})

	if *room != "" {
		g.Go(func() error {
			pollRoom(gctx, session, *room, *pollInterval, logger)
			return nil
		})
	}

	if *statsInterval > 0 {
		g.Go(func() error {
			logStats(gctx, session, jr, *statsInterval, logger)
			return nil
		})
	}

	// Stop the helpers once the connection loop gives up
	g.Go(func() error {
		<-gctx.Done()
		session.Close()
		return nil
	})

	logger.Info("watching - press Ctrl+C to stop")

	err = g.Wait()

	logger.Info("shutting down...")
	session.UnsubscribeAll(id)
	session.StopListeningToStatusChange(id)

	if jr != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if stopErr := jr.Stop(shutdownCtx); stopErr != nil {
			logger.Warn("journal stop failed", "error", stopErr)
		}
		store.Close()
	}

	if err != nil {
		logger.Error("partywatch stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// backoff doubles the reconnect delay after each failed connection.
type backoff struct {
	enabled bool
	initial time.Duration
	max     time.Duration
}

func (b backoff) next(d time.Duration) time.Duration {
	if d <= 0 {
		return b.initial
	}
	d *= 2
	if b.max > 0 && d > b.max {
		d = b.max
	}
	return d
}

// superviseConnection connects the session and, when reconnecting is
// enabled, dials again after every close transition. It returns when ctx
// is done, or after the first close transition when reconnecting is off.
func superviseConnection(ctx context.Context, session *connection.Session, b backoff, logger *slog.Logger) error {
	var delay time.Duration

	for {
		connects := session.Stats().Connects
		if err := session.Connect(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
		}
		if ctx.Err() != nil {
			return nil
		}

		if !b.enabled {
			return errors.New("connection closed")
		}

		// A dial that got through resets the backoff
		if session.Stats().Connects > connects {
			delay = 0
		}
		delay = b.next(delay)

		logger.Info("reconnecting", "delay", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// pollRoom requests room info on every tick while connected. Requests made
// while disconnected are dropped by the session.
func pollRoom(ctx context.Context, session *connection.Session, room string, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !session.Connected() {
				continue
			}
			if err := session.GetRoomInfo(room); err != nil {
				logger.Warn("room poll failed", "room", room, "error", err)
			}
		}
	}
}

func logStats(ctx context.Context, session *connection.Session, jr *journal.Journal, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := session.Stats()
			rs := session.RouterStats()
			attrs := []any{
				"state", session.State(),
				"connects", st.Connects,
				"disconnects", st.Disconnects,
				"received", st.FramesReceived,
				"sent", st.FramesSent,
				"dropped_sends", st.SendsDropped,
				"decode_errors", st.DecodeErrors,
				"dispatched", st.Dispatched,
				"unrouted", rs.Unrouted,
				"handler_panics", rs.HandlerPanics,
			}
			if jr != nil {
				js := jr.Stats()
				attrs = append(attrs,
					"journal_written", js.Written,
					"journal_dropped", js.Dropped,
					"journal_errors", js.Errors,
				)
			}
			logger.Info("stats", attrs...)
		}
	}
}

func printMessage(msg protocol.ServerMessage, verbose bool) {
	ts := time.Now().Format(time.TimeOnly)

	if verbose {
		data, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Printf("%s [%s] %s\n", ts, msg.Action(), data)
		return
	}

	switch m := msg.(type) {
	case protocol.RoomCreated:
		fmt.Printf("%s [%s] room=%s\n", ts, m.Action(), m.RoomCode)
	case protocol.PlayerJoined:
		fmt.Printf("%s [%s] player=%s\n", ts, m.Action(), m.PlayerName)
	case protocol.RoomInfo:
		fmt.Printf("%s [%s] host=%s players=%v roles=%v\n", ts, m.Action(), m.Host, m.Players, m.Roles)
	default:
		fmt.Printf("%s [%s]\n", ts, msg.Action())
	}
}

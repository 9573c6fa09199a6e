// partyctl sends one request to the game server and prints the reply.
//
// Usage:
//
//	partyctl -player Alice create
//	partyctl -player Bob -room AB12 join
//	partyctl -room AB12 info
//	partyctl -player Bob -room AB12 leave
//	partyctl -player Bob -room AB12 kick
//	partyctl -room AB12 -role "Alpha Wolf" -count 2 role
//
// The server is taken from -config, or from -server when no config file
// is given.
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
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/onenight/partyclient/internal/config"
	"github.com/onenight/partyclient/internal/connection"
	"github.com/onenight/partyclient/internal/journal"
	"github.com/onenight/partyclient/internal/model"
	"github.com/onenight/partyclient/internal/protocol"
	"github.com/onenight/partyclient/internal/version"
)

// errRejected means the server answered with a refusal.
var errRejected = errors.New("request rejected")

type options struct {
	configPath string
	server     string
	player     string
	room       string
	role       string
	count      int64
	timeout    time.Duration
	verbose    bool
}

// request is one command: what to send and which replies end the wait.
type request struct {
	send    func(s *connection.Session) error
	replies []protocol.ServerAction
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config file")
	flag.StringVar(&opts.server, "server", "", "game page or WebSocket URL (overrides config)")
	flag.StringVar(&opts.player, "player", "", "player name (defaults to player.name from config)")
	flag.StringVar(&opts.room, "room", "", "room code")
	flag.StringVar(&opts.role, "role", "", "role for the role command")
	flag.Int64Var(&opts.count, "count", 1, "role count for the role command")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "how long to wait for a reply")
	flag.BoolVar(&opts.verbose, "verbose", false, "print full reply JSON")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: partyctl [flags] create|join|leave|info|kick|role")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "partyctl: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "partyctl: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if opts.player == "" {
		opts.player = cfg.Player.Name
	}

	req, err := buildRequest(flag.Arg(0), opts)
	if err != nil {
		logger.Error("invalid command", "command", flag.Arg(0), "error", err)
		os.Exit(2)
	}

	if err := run(cfg, req, opts, logger); err != nil {
		if errors.Is(err, errRejected) {
			os.Exit(3)
		}
		logger.Error("request failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		loaded, err := config.LoadAndValidate(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if opts.server != "" {
		cfg.Server.Endpoint = opts.server
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func buildRequest(command string, opts options) (request, error) {
	needPlayer := func() error {
		if opts.player == "" {
			return errors.New("-player is required")
		}
		return nil
	}
	needRoom := func() error {
		if opts.room == "" {
			return errors.New("-room is required")
		}
		return nil
	}

	switch command {
	case "create":
		if err := needPlayer(); err != nil {
			return request{}, err
		}
		return request{
			send:    func(s *connection.Session) error { return s.CreateGame(opts.player) },
			replies: []protocol.ServerAction{protocol.ActionRoomCreated},
		}, nil

	case "join":
		if err := errors.Join(needPlayer(), needRoom()); err != nil {
			return request{}, err
		}
		return request{
			send: func(s *connection.Session) error { return s.JoinGame(opts.player, opts.room) },
			replies: []protocol.ServerAction{
				protocol.ActionRoomExists,
				protocol.ActionPlayerExists,
				protocol.ActionRoomDoesNotExist,
			},
		}, nil

	case "info":
		if err := needRoom(); err != nil {
			return request{}, err
		}
		return request{
			send: func(s *connection.Session) error { return s.GetRoomInfo(opts.room) },
			replies: []protocol.ServerAction{
				protocol.ActionRoomInfo,
				protocol.ActionRoomDoesNotExist,
			},
		}, nil

	case "leave":
		if err := errors.Join(needPlayer(), needRoom()); err != nil {
			return request{}, err
		}
		return request{
			send: func(s *connection.Session) error { return s.LeaveGame(opts.player, opts.room) },
		}, nil

	case "kick":
		if err := errors.Join(needPlayer(), needRoom()); err != nil {
			return request{}, err
		}
		return request{
			send: func(s *connection.Session) error { return s.Kick(opts.player, opts.room) },
		}, nil

	case "role":
		if err := needRoom(); err != nil {
			return request{}, err
		}
		role, err := model.ParseDisplayRole(opts.role)
		if err != nil {
			return request{}, err
		}
		if opts.count < 0 {
			return request{}, fmt.Errorf("-count must be >= 0, got %d", opts.count)
		}
		return request{
			send: func(s *connection.Session) error { return s.ChangeRole(role, opts.room, opts.count) },
		}, nil
	}

	return request{}, fmt.Errorf("unknown command %q", command)
}

func run(cfg *config.Config, req request, opts options, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	transportCfg, err := cfg.Transport()
	if err != nil {
		return err
	}

	var sessionOpts []connection.Option
	if cfg.Journal.Enabled {
		jr, closeJournal, err := openJournal(ctx, cfg.Journal, logger)
		if err != nil {
			return err
		}
		defer closeJournal()
		sessionOpts = append(sessionOpts, connection.WithRecorder(jr))
	}

	session := connection.NewSession(transportCfg, logger, sessionOpts...)
	defer session.Close()

	id := "partyctl-" + uuid.NewString()
	replies := make(chan protocol.ServerMessage, 1)
	for _, action := range req.replies {
		session.Subscribe(id, action, func(msg protocol.ServerMessage) {
			select {
			case replies <- msg:
			default:
			}
		})
	}
	defer session.UnsubscribeAll(id)

	// Subscribe first, then send once the connection is open
	sent := make(chan error, 1)
	session.WhenReady(id, func() {
		sent <- req.send(session)
	})

	waitCtx, waitCancel := context.WithTimeout(ctx, opts.timeout)
	defer waitCancel()

	if err := session.Connect(waitCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	logger.Debug("waiting for connection", "url", transportCfg.URL)

	select {
	case err := <-sent:
		if err != nil {
			return err
		}
	case <-session.Done():
		return fmt.Errorf("connection to %s closed before the request was sent", transportCfg.URL)
	case <-waitCtx.Done():
		return fmt.Errorf("connect to %s: %w", transportCfg.URL, waitCtx.Err())
	}

	if len(req.replies) == 0 {
		fmt.Println("ok")
		return nil
	}

	msg, err := awaitReply(waitCtx, replies, session.Done())
	if err != nil {
		return err
	}
	return printReply(msg, opts)
}

// awaitReply waits for the first reply. A reply that arrived just before
// the connection closed still wins.
func awaitReply(ctx context.Context, replies <-chan protocol.ServerMessage, closed <-chan struct{}) (protocol.ServerMessage, error) {
	select {
	case msg := <-replies:
		return msg, nil
	case <-closed:
		select {
		case msg := <-replies:
			return msg, nil
		default:
		}
		return nil, errors.New("connection closed before a reply arrived")
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for reply: %w", ctx.Err())
	}
}

// openJournal opens the configured store and starts a Journal on it. The
// returned func stops the journal and closes the store.
func openJournal(ctx context.Context, cfg config.JournalConfig, logger *slog.Logger) (*journal.Journal, func(), error) {
	store, err := journal.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	jr := journal.New(journal.WriterConfigFrom(cfg), store, logger)
	if err := jr.Start(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("start journal: %w", err)
	}

	return jr, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := jr.Stop(shutdownCtx); err != nil {
			logger.Warn("journal stop failed", "error", err)
		}
		store.Close()
	}, nil
}

func printReply(msg protocol.ServerMessage, opts options) error {
	if opts.verbose {
		data, _ := json.MarshalIndent(msg, "", "  ")
		fmt.Printf("[%s] %s\n", msg.Action(), data)
	}

	switch m := msg.(type) {
	case protocol.RoomCreated:
		fmt.Printf("room created: %s\n", m.RoomCode)
	case protocol.RoomExists:
		fmt.Printf("joined room %s as %s\n", opts.room, opts.player)
	case protocol.PlayerExists:
		fmt.Printf("player %s is already in room %s\n", opts.player, opts.room)
		return errRejected
	case protocol.RoomDoesNotExist:
		fmt.Printf("room %s does not exist\n", opts.room)
		return errRejected
	case protocol.RoomInfo:
		printRoom(model.NewRoom(opts.room, m))
	default:
		fmt.Printf("%s\n", msg.Action())
	}
	return nil
}

func printRoom(room model.Room) {
	fmt.Printf("room %s (host %s)\n", room.Code, room.Host)
	fmt.Printf("players (%d):\n", len(room.Players))
	for _, p := range room.Players {
		marker := ""
		if room.IsHost(p) {
			marker = " *"
		}
		fmt.Printf("  %s%s\n", p, marker)
	}

	counts, err := room.RoleCounts()
	if err != nil {
		fmt.Printf("roles: %v\n", err)
		return
	}

	fmt.Printf("roles (%d):\n", room.TotalRoles())
	selected := make([]model.Role, 0, len(counts))
	for role, n := range counts {
		if n > 0 {
			selected = append(selected, role)
		}
	}
	order := make(map[model.Role]int)
	for i, r := range model.Roles() {
		order[r] = i
	}
	sort.Slice(selected, func(i, j int) bool { return order[selected[i]] < order[selected[j]] })
	for _, role := range selected {
		fmt.Printf("  %-14s %d\n", role.DisplayName(), counts[role])
	}
}

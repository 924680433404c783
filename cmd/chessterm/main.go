package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/qnkhuat/chesslan/pkg/archive"
	"github.com/qnkhuat/chesslan/pkg/config"
	"github.com/qnkhuat/chesslan/pkg/discovery"
	"github.com/qnkhuat/chesslan/pkg/game"
	"github.com/qnkhuat/chesslan/pkg/gui"
	"github.com/qnkhuat/chesslan/pkg/lan"
	"github.com/qnkhuat/chesslan/pkg/logx"
	"github.com/qnkhuat/chesslan/pkg/match"
	"github.com/qnkhuat/chesslan/pkg/notation"
	"github.com/qnkhuat/chesslan/pkg/spectate"
)

type options struct {
	configPath string
	local      bool
	host       bool
	join       string
	discover   bool
	spectate   string
	fen        string
	theme      string
	plain      bool
	port       int
	clock      time.Duration
	increment  time.Duration
	name       string
	logFile    string
	redisURL   string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", os.Getenv("CHESSLAN_CONFIG"), "path to a YAML config file")
	flag.BoolVar(&o.local, "local", false, "play both sides on this terminal")
	flag.BoolVar(&o.host, "host", false, "host a network game and play White")
	flag.StringVar(&o.join, "join", "", "join the game hosted at host[:port] and play Black")
	flag.BoolVar(&o.discover, "discover", false, "look for hosts on the local network and join one")
	flag.StringVar(&o.spectate, "spectate", "", "serve an SSH spectator view on this address, e.g. :2222")
	flag.StringVar(&o.fen, "fen", "", "start a local game from this FEN position")
	flag.StringVar(&o.theme, "theme", "basic", "board theme")
	flag.BoolVar(&o.plain, "plain", false, "use the line prompt even on a terminal")
	flag.IntVar(&o.port, "port", 0, "game port (overrides config)")
	flag.DurationVar(&o.clock, "clock", 0, "time per side, e.g. 5m (0 for untimed)")
	flag.DurationVar(&o.increment, "inc", 0, "increment per move")
	flag.StringVar(&o.name, "name", "", "name announced to the network")
	flag.StringVar(&o.logFile, "log", "", "path to log file")
	flag.StringVar(&o.redisURL, "redis", "", "archive finished games in this Redis, e.g. redis://localhost:6379/0")
	flag.Parse()
	return o
}

// apply lets flags override the loaded config.
func (o options) apply(cfg *config.Config) {
	if o.port != 0 {
		cfg.Network.Port = o.port
	}
	if o.clock != 0 {
		cfg.Clock.Duration = config.Duration(o.clock)
	}
	if o.increment != 0 {
		cfg.Clock.Increment = config.Duration(o.increment)
	}
	if o.name != "" {
		cfg.Discovery.Name = o.name
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if o.redisURL != "" {
		cfg.Archive.RedisURL = o.redisURL
	}
	if o.spectate != "" {
		cfg.Spectate.Enabled = true
		cfg.Spectate.Addr = o.spectate
	}
}

func main() {
	o := parseFlags()
	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, closeLog, err := logx.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("exit", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, cfg *config.Config, log *zap.Logger) error {
	var clock *game.Clock
	if cfg.Clock.Duration > 0 {
		clock = game.NewClock(cfg.Clock.Duration.D(), cfg.Clock.Increment.D())
	}

	m, err := newMatch(ctx, o, cfg, clock, log)
	if err != nil {
		return err
	}
	defer m.Close()

	hooks, cleanup, err := newHooks(ctx, o, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive && !o.plain {
		theme, err := gui.ThemeByName(o.theme)
		if err != nil {
			return err
		}
		return gui.NewTUI(m, gui.WithTheme(theme), gui.WithHooks(hooks), gui.WithLogger(log)).Run(ctx)
	}
	return gui.NewLine(m, os.Stdin, os.Stdout,
		gui.WithTextOptions(gui.TextOptions{Color: interactive}),
		gui.WithLineHooks(hooks), gui.WithLineLogger(log)).Run(ctx)
}

func sessionOptions(cfg *config.Config, log *zap.Logger) []lan.Option {
	return []lan.Option{
		lan.WithPort(cfg.Network.Port),
		lan.WithBindAddress(cfg.Network.BindAddress),
		lan.WithPollInterval(cfg.Network.PollInterval.D()),
		lan.WithCloseWait(cfg.Network.CloseWait.D()),
		lan.WithLogger(log),
	}
}

func newMatch(ctx context.Context, o options, cfg *config.Config, clock *game.Clock, log *zap.Logger) (*match.Match, error) {
	mopts := []match.Option{match.WithLogger(log)}
	if clock != nil {
		mopts = append(mopts, match.WithClock(clock))
	}

	switch {
	case o.host:
		s, err := hostGame(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return match.New(game.NewBoard(), append(mopts, match.WithSession(s))...), nil

	case o.join != "" || o.discover:
		addr := o.join
		if o.discover {
			var err error
			if addr, err = discoverHost(ctx, cfg, log); err != nil {
				return nil, err
			}
		}
		s := lan.NewPeer(sessionOptions(cfg, log)...)
		fmt.Printf("Connecting to %s...\n", addr)
		if !s.Connect(addr, cfg.Network.ConnectTimeout.D()) {
			return nil, fmt.Errorf("could not connect to %s", addr)
		}
		return match.New(game.NewBoard(), append(mopts, match.WithSession(s))...), nil

	default:
		board := game.NewBoard()
		if o.fen != "" {
			var err error
			if board, err = notation.ParseFEN(o.fen); err != nil {
				return nil, err
			}
		}
		return match.New(board, mopts...), nil
	}
}

func hostGame(ctx context.Context, cfg *config.Config, log *zap.Logger) (*lan.Session, error) {
	s := lan.NewHost(sessionOptions(cfg, log)...)
	if !s.Start() {
		return nil, fmt.Errorf("could not listen on port %d", cfg.Network.Port)
	}

	port := cfg.Network.Port
	if _, p, err := net.SplitHostPort(s.Addr()); err == nil {
		port, _ = strconv.Atoi(p)
	}
	ann := discovery.NewAnnouncer(port,
		discovery.WithAnnouncePort(cfg.Discovery.Port),
		discovery.WithAnnounceTarget(cfg.Discovery.Target),
		discovery.WithInterval(cfg.Discovery.Interval.D()),
		discovery.WithIP(cfg.Discovery.IP),
		discovery.WithName(cfg.Discovery.Name),
		discovery.WithAnnouncerLogger(log))
	if err := ann.Start(); err != nil {
		log.Warn("not announcing", zap.Error(err))
	}
	defer ann.Stop()

	a := ann.Announcement()
	fmt.Printf("Hosting %q at %s:%d, waiting for an opponent (Ctrl-C to quit)\n", a.Name, a.IP, a.Port)
	for !s.AwaitPeer(cfg.Network.AcceptTimeout.D()) {
		if ctx.Err() != nil {
			s.Close()
			return nil, ctx.Err()
		}
	}
	return s, nil
}

func discoverHost(ctx context.Context, cfg *config.Config, log *zap.Logger) (string, error) {
	fmt.Printf("Looking for games for %s...\n", cfg.Discovery.Window.D())
	found := discovery.Search(ctx,
		discovery.WithSearchPort(cfg.Discovery.Port),
		discovery.WithWindow(cfg.Discovery.Window.D()),
		discovery.WithSearchLogger(log))
	addrs := found.Addresses()
	if len(addrs) == 0 {
		return "", errors.New("no games found on the local network")
	}

	for i, ip := range addrs {
		h := found[ip]
		fmt.Printf("  %d) %s  %s:%d\n", i+1, h.Name, ip, h.Port)
	}
	choice := 0
	if len(addrs) > 1 {
		fmt.Print("Join which game? ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(addrs) {
			return "", fmt.Errorf("no such game: %q", strings.TrimSpace(line))
		}
		choice = n - 1
	}
	ip := addrs[choice]
	return net.JoinHostPort(ip, strconv.Itoa(found[ip].Port)), nil
}

// newHooks wires the optional spectator feed and game archive to the
// driver.
func newHooks(ctx context.Context, o options, cfg *config.Config, log *zap.Logger) (gui.Hooks, func(), error) {
	var hooks gui.Hooks
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Spectate.Enabled {
		feed := spectate.NewFeed()
		srv, err := spectate.NewServer(cfg.Spectate.Addr, feed, log)
		if err != nil {
			return hooks, cleanup, err
		}
		if err := srv.Start(); err != nil {
			return hooks, cleanup, err
		}
		closers = append(closers, func() { srv.Close() })
		hooks.OnChange = func(m *match.Match) {
			frame := gui.RenderText(m.Board(), gui.TextOptions{Color: true})
			frame += gui.Status(m) + "\n"
			if c := gui.Clocks(m); c != "" {
				frame += c + "\n"
			}
			feed.Publish(strings.ReplaceAll(frame, "\n", "\r\n"))
		}
	}

	if cfg.Archive.RedisURL != "" {
		store, err := archive.Open(ctx, cfg.Archive.RedisURL, cfg.Archive.TTL.D())
		if err != nil {
			cleanup()
			return hooks, func() {}, err
		}
		closers = append(closers, func() { store.Close() })
		white, black := players(o, cfg)
		hooks.OnEnd = func(m *match.Match) {
			if len(m.Board().History()) == 0 {
				return
			}
			rec := archive.NewRecord(m.Board(), white, black, time.Now())
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Save(sctx, rec); err != nil {
				log.Warn("archive failed", zap.Error(err))
				return
			}
			log.Info("game archived", zap.String("id", rec.ID))
		}
	}
	return hooks, cleanup, nil
}

func players(o options, cfg *config.Config) (white, black string) {
	me := cfg.Discovery.Name
	if me == "" {
		me, _ = os.Hostname()
	}
	switch {
	case o.host:
		return me, "guest"
	case o.join != "" || o.discover:
		return "host", me
	default:
		return me, me
	}
}

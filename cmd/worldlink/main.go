package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/worldlink/internal/config"
	"github.com/danmuck/worldlink/internal/host"
	"github.com/danmuck/worldlink/internal/observability"
	"github.com/danmuck/worldlink/internal/protocol"
	"github.com/danmuck/worldlink/internal/statusapi"
)

func main() {
	configPath := flag.String("config", "cmd/worldlink/config.toml", "client config path")
	envFile := flag.String("env", ".env", "optional dotenv file")
	nickname := flag.String("nickname", "", "override nickname")
	wander := flag.Bool("wander", false, "random-walk the local player")
	flag.Parse()

	if err := run(*configPath, *envFile, *nickname, *wander); err != nil {
		fmt.Fprintf(os.Stderr, "worldlink: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile, nickname string, wander bool) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	logger := observability.InitLogger("worldlink")
	observability.RegisterMetrics()

	cfg, err := loadClientConfig(configPath)
	if err != nil {
		return err
	}
	config.ApplyEnv(&cfg, os.LookupEnv)
	if n := strings.TrimSpace(nickname); n != "" {
		cfg.Nickname = n
	}
	if wander {
		cfg.Wander = true
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		return err
	}

	hc, err := cfg.HostConfig()
	if err != nil {
		return err
	}
	hc.Players = host.NewLogPresenter("player", logger)
	hc.NPCs = host.NewLogPresenter("npc", logger)
	hc.OnChat = func(c protocol.Chat) {
		fmt.Printf("[%s] %s: %s\n", c.Channel, c.Sender(), c.Text)
	}
	runner := host.NewRunner(hc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("addr", cfg.Address).
		Str("transport", cfg.Transport).
		Bool("wander", cfg.Wander).
		Msg("worldlink starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	if addr := strings.TrimSpace(cfg.StatusAddr); addr != "" {
		status := statusapi.New(addr, runner, cfg.CorsOrigins)
		g.Go(func() error { return status.Serve(gctx) })
	}
	err = g.Wait()
	log.Info().Err(err).Msg("worldlink stopped")
	return err
}

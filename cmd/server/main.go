package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/media"
	"github.com/oggyb/campus-match/internal/relay"
	"github.com/oggyb/campus-match/internal/server"
	"github.com/oggyb/campus-match/internal/service/account"
	"github.com/oggyb/campus-match/internal/service/chat"
	"github.com/oggyb/campus-match/internal/service/feed"
	"github.com/oggyb/campus-match/internal/service/health"
	"github.com/oggyb/campus-match/internal/service/match"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")
	seed := pflag.Bool("seed", false, "reset and seed demo data before serving (development only)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	if err := run(cfg, *seed); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, seed bool) error {
	log := logger.L()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB and schema
	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}

	if seed {
		if cfg.App.ENV != "development" {
			return errors.New("--seed is only allowed when app.env is development")
		}
		if err := db.SeedTestData(database, cfg.App.EmailDomain, 20); err != nil {
			return err
		}
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		return err
	}
	defer redisCache.Close()

	// Relay hub
	var broker relay.Broker = relay.NewLocalBroker()
	if cfg.Relay.Broker == "redis" {
		broker = relay.NewRedisBroker(redisCache.Client, cfg.Relay.Channel, log.With("component", "relay-broker"))
	}
	hub := relay.NewHub(broker, log.With("component", "relay"))
	if err := hub.Start(ctx); err != nil {
		return err
	}
	defer hub.Close()
	log.Info("relay hub started", "broker", cfg.Relay.Broker)

	// Inject logger into app context
	appCtx := app.New(cfg, database, redisCache, hub, log)

	healthReg := health.NewRegistrar(appCtx)
	chatReg := chat.NewRegistrar(appCtx)
	defer chatReg.Close()

	routes := []server.RouteRegistrar{
		healthReg,
		account.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		chatReg,
		feed.NewRegistrar(appCtx),
	}
	if presigner, err := media.NewPresigner(ctx, cfg.S3); err != nil {
		log.Warn("media presign disabled", "err", err)
	} else {
		routes = append(routes, media.NewRegistrar(presigner))
	}

	httpSrv := server.NewHTTPServer(
		net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		server.NewRouter(appCtx, routes...),
		log,
	)
	grpcSrv := server.NewGRPCServer(cfg, log, healthReg)

	go healthReg.Monitor(ctx, 15*time.Second)

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.Start() }()
	go func() { errCh <- grpcSrv.Start() }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		if err != nil {
			log.Error("listener failed", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", "err", serr)
	}
	grpcSrv.Stop(shutdownCtx)
	return err
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drainwatch/drainwatch/service/analyze"
	"github.com/drainwatch/drainwatch/service/config"
	"github.com/drainwatch/drainwatch/service/intel"
	"github.com/drainwatch/drainwatch/service/metrics"
	"github.com/drainwatch/drainwatch/service/nats"
	"github.com/drainwatch/drainwatch/service/registry"
	"github.com/drainwatch/drainwatch/service/server"
	chain "github.com/drainwatch/drainwatch/service/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"resolver_mode", cfg.ResolverMode,
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize Solana RPC clients. The chain client paces and retries
	// history fetches; the registry client talks to the report program.
	// Note: For premium RPC endpoints, include API key in the URL
	chainClient := chain.NewClient(
		chain.NewRPCClient(cfg.SolanaRPCURL),
		cfg.SolanaRPCURL,
		m,
		logger,
		chain.WithFetchDelay(cfg.FetchDelay),
	)
	logger.Info("initialized solana RPC client", "url", cfg.SolanaRPCURL)

	programID, err := solanago.PublicKeyFromBase58(cfg.RegistryProgramID)
	if err != nil {
		logger.Error("invalid registry program ID", "error", err)
		os.Exit(1)
	}
	feeAuthority, err := solanago.PublicKeyFromBase58(cfg.FeeAuthorityAddress)
	if err != nil {
		logger.Error("invalid fee authority address", "error", err)
		os.Exit(1)
	}

	var reporter *solanago.PrivateKey
	if cfg.ReporterKeypairPath != "" {
		key, err := solanago.PrivateKeyFromSolanaKeygenFile(cfg.ReporterKeypairPath)
		if err != nil {
			logger.Error("failed to load reporter keypair", "path", cfg.ReporterKeypairPath, "error", err)
			os.Exit(1)
		}
		reporter = &key
		logger.Info("loaded reporter keypair", "pubkey", key.PublicKey().String())
	} else {
		logger.Warn("no reporter keypair configured, report submission disabled")
	}

	registryClient := registry.NewClient(rpc.New(cfg.SolanaRPCURL), programID, feeAuthority, reporter, m, logger)

	// Initialize domain intel cache (optional)
	var domainStore intel.Store
	if cfg.DatabaseURL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to domain intel database")
		domainStore = intel.NewPGStore(dbPool)
	} else {
		logger.Info("no database configured, domain intel disabled")
	}
	domains := intel.NewCache(domainStore, logger)

	// Initialize NATS publisher (optional)
	var publisher nats.Publisher
	if cfg.NATSURL != "" {
		p, err := nats.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
		logger.Info("connected to NATS", "url", cfg.NATSURL)
	} else {
		logger.Info("no NATS URL configured, event publishing disabled")
	}

	var resolver analyze.Resolver = analyze.NewLiveResolver(
		chainClient,
		registryClient,
		domains,
		publisher,
		m,
		logger,
		cfg.RegistryLookupWorkers,
	)
	if cfg.ResolverMode == config.ResolverModeFixture {
		resolver = analyze.NewFixtureResolver(resolver)
		logger.Info("fixture resolver enabled, demo addresses return canned reports")
	}

	// Initialize HTTP server
	httpServer := server.New(cfg.ServerAddr, cfg, resolver, registryClient, publisher, m, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

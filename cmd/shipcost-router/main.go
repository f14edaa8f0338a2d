package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/cache"
	"github.com/altfuel/shipcost-router/internal/config"
	"github.com/altfuel/shipcost-router/internal/costing"
	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/pricing"
	"github.com/altfuel/shipcost-router/internal/providers"
	"github.com/altfuel/shipcost-router/internal/routing"
	"github.com/altfuel/shipcost-router/internal/server"
	"github.com/altfuel/shipcost-router/internal/shipping"
	"github.com/altfuel/shipcost-router/internal/types"
)

// Application wires the full cost estimation stack behind the HTTP server.
type Application struct {
	config *config.Config
	server *server.Server
	logger *logrus.Logger
}

// NewApplication creates a new application instance.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logrus.New()
	if err := setupLogger(logger, cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	gazetteer := geo.NewStaticGazetteer()

	resolver := routing.NewResolver(gazetteer, cache.New[*types.RouteQuote](), logger)
	resolver.SetCacheTTL(cfg.Resolver.RouteCacheTTL)

	chainProviders, chainNames := buildRouteProviders(cfg, logger)
	if err := routing.RegisterDefaultChains(resolver, chainProviders, logger); err != nil {
		return nil, fmt.Errorf("failed to register provider chains: %w", err)
	}

	oracle := pricing.NewOracle(cache.New[*types.PriceQuote](), logger)
	oracle.SetCacheTTL(cfg.Resolver.PriceCacheTTL)
	if cfg.Providers.EIA != nil && cfg.Providers.EIA.APIKey != "" {
		oracle.RegisterProvider(providers.NewEIAProvider(cfg.Providers.EIA, logger))
	}

	composer := costing.NewComposer(logger)
	service := shipping.NewService(resolver, oracle, composer, gazetteer, logger)

	serverInstance, err := server.NewServer(service, chainNames, cfg.ToServerConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Application{
		config: cfg,
		server: serverInstance,
		logger: logger,
	}, nil
}

// Run starts the application and blocks until shutdown.
func (app *Application) Run() error {
	app.logger.Info("Starting shipcost router")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		app.logger.WithField("address", ":"+app.config.Server.Port).Info("HTTP server starting")
		if err := app.server.Start(); err != nil {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		app.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	app.logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.WithError(err).Error("Server shutdown error")
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("Graceful shutdown completed")
	return nil
}

// buildRouteProviders constructs the configured live providers and the
// per-mode name listing the providers endpoint reports.
func buildRouteProviders(cfg *config.Config, logger *logrus.Logger) (routing.ChainProviders, map[types.TransportMode][]string) {
	var p routing.ChainProviders

	if cfg.Providers.OSRM != nil {
		p.OSRM = providers.NewOSRMProvider(cfg.Providers.OSRM, logger)
	}
	if cfg.Providers.OpenRoute != nil && cfg.Providers.OpenRoute.APIKey != "" {
		p.OpenRoute = providers.NewOpenRouteProvider(cfg.Providers.OpenRoute, logger)
	}
	if cfg.Providers.SeaRoute != nil {
		p.SeaRoute = providers.NewSeaRouteProvider(cfg.Providers.SeaRoute, logger)
	}

	names := map[types.TransportMode][]string{}
	appendName := func(mode types.TransportMode, rp providers.RouteProvider) {
		if rp != nil {
			names[mode] = append(names[mode], rp.Name())
		}
	}
	appendName(types.ModeTruck, p.OSRM)
	appendName(types.ModeTruck, p.OpenRoute)
	appendName(types.ModeRail, p.OpenRoute)
	appendName(types.ModeShip, p.SeaRoute)

	return p, names
}

// setupLogger configures the logger based on configuration.
func setupLogger(logger *logrus.Logger, config config.LoggingConfig) error {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	logger.SetLevel(level)

	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return fmt.Errorf("invalid log format: %s", config.Format)
	}

	switch config.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		// Assume it's a file path.
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		logger.SetOutput(file)
	}

	return nil
}

// printUsage prints application usage information.
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  SHIPCOST_PORT         Server port (default: 8080)\n")
	fmt.Fprintf(os.Stderr, "  SHIPCOST_LOG_LEVEL    Log level (debug,info,warn,error,fatal)\n")
	fmt.Fprintf(os.Stderr, "  SHIPCOST_LOG_FORMAT   Log format (json,text)\n")
	fmt.Fprintf(os.Stderr, "  EIA_API_KEY           EIA open-data API key (enables live fuel prices)\n")
	fmt.Fprintf(os.Stderr, "  OPENROUTE_API_KEY     openrouteservice API key (enables road/rail routing)\n")
	fmt.Fprintf(os.Stderr, "  SEAROUTE_API_KEY      Marine routing API key\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --config configs/config.yaml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  EIA_API_KEY=xxx %s\n", os.Args[0])
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		showHelp   = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if *version {
		fmt.Printf("Shipcost Router v1.0.0\n")
		os.Exit(0)
	}

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/categories"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/mcpserver"
	"expensetracker/internal/metrics"
	"expensetracker/internal/services"
	"expensetracker/internal/tools"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *log.Logger, cfg *config.Config) error {
	store := cli.InitStore(logger, cfg)
	ledger := services.NewLedgerService(store, cli.InitPublisher(logger, cfg))
	defer func() {
		if err := ledger.Close(); err != nil {
			log.NewStructuredLogger(logger).LogError(context.Background(), "Failed to close ledger service", err,
				log.ComponentLedger, log.OpShutdown, nil)
		}
	}()

	m := metrics.New()
	registry := tools.NewRegistry(ledger, m)
	cats := categories.NewSource(cfg.CategoriesPath)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		MCPPath:         cfg.MCPEndpointPath,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Logger:          logger,
		Tools:           registry,
		Store:           ledger,
		Categories:      cats,
		MCP:             mcpserver.Handler(mcpserver.New(registry, cats)),
		Metrics:         m.Handler(),
		RateLimits:      m,
	})

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"mcp_path", cfg.MCPEndpointPath,
			log.FieldDriver, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

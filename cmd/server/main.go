package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/convlog/internal/config"
	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/logging"
	"github.com/ganot/convlog/internal/mcp"
	"github.com/ganot/convlog/internal/storage"
	"github.com/ganot/convlog/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		file, err := logging.OpenTrimmedFile(cfg.Log.Path, logging.DefaultMaxBytes, logging.DefaultKeepBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = file
		}
	}
	logger := logging.New(logWriter, cfg.Log.Level)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	backend, err := storage.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	svc := activity.NewService(backend.Storage, storage.ServiceOptions(cfg.Store), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	pruner := activity.NewPruner(svc, cfg.Store.Retention, cfg.Store.PruneInterval, logger)
	wg.Go(func() { pruner.Run(ctx) })

	mcpServer := mcp.NewServer(mcp.Config{
		Service: svc,
		Logger:  logger,
	})

	if cfg.Transport.Mode == "stdio" {
		err = runStdioMode(ctx, logger, mcpServer)
	} else {
		err = runHTTPMode(ctx, logger, mcpServer, cfg)
	}
	stop()
	wg.Wait()

	if flushErr := svc.Flush(context.Background()); flushErr != nil {
		logger.Error("failed to flush pending activities", "error", flushErr)
	}
	return err
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, cfg config.Config) error {
	var auth func(http.Handler) http.Handler
	if cfg.Auth.Token != "" {
		auth = transport.AuthMiddleware(transport.StaticToken(cfg.Auth.Token))
	}
	router := transport.NewServer(transport.NewMCPHandler(mcpServer), auth, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Token != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

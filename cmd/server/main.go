package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ganot/erfasst-mcp/internal/config"
	"github.com/ganot/erfasst-mcp/internal/domain/equipment"
	"github.com/ganot/erfasst-mcp/internal/domain/planning"
	"github.com/ganot/erfasst-mcp/internal/domain/project"
	"github.com/ganot/erfasst-mcp/internal/domain/staff"
	"github.com/ganot/erfasst-mcp/internal/domain/ticket"
	"github.com/ganot/erfasst-mcp/internal/domain/timetracking"
	"github.com/ganot/erfasst-mcp/internal/gateway"
	"github.com/ganot/erfasst-mcp/internal/graphql"
	"github.com/ganot/erfasst-mcp/internal/logging"
	"github.com/ganot/erfasst-mcp/internal/mcp"
	"github.com/ganot/erfasst-mcp/internal/observability"
	"github.com/ganot/erfasst-mcp/internal/repository"
	"github.com/ganot/erfasst-mcp/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func main() {
	var transportMode string

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(transportMode)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	}

	rootCmd := &cobra.Command{
		Use:           "erfasst-mcp",
		Short:         "MCP tool server for the 123erfasst construction management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().StringVar(&transportMode, "transport", "", "Transport to serve on: stdio or http (overrides ERFASST_TRANSPORT)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools (default)",
		RunE:  serve,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the API endpoint and credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(transportMode)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cfg)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildVersion())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(transportMode string) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if transportMode != "" {
		cfg.Transport.Mode = transportMode
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, func() error) {
	// Stdio mode keeps stdout clean for JSON-RPC.
	logger, closeLog, err := logging.New(logging.Options{
		Level: cfg.Log.Level,
		Path:  cfg.Log.Path,
		Stdio: cfg.Transport.Mode == "stdio",
	})
	if err != nil {
		logger.Warn("log file unavailable, using console", "path", cfg.Log.Path, "error", err)
	}
	return logger, closeLog
}

func newGateway(cfg config.Config, logger *slog.Logger) (*gateway.Client, error) {
	return gateway.New(gateway.Options{
		Endpoint:       cfg.API.URL,
		Username:       cfg.API.Username,
		Token:          cfg.API.Token,
		Timeout:        cfg.API.Timeout,
		MaxRetries:     cfg.API.MaxRetries,
		InitialBackoff: cfg.API.InitialBackoff,
		Logger:         logger,
	})
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "erfasst-mcp",
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	client, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}

	builder := graphql.NewBuilder(cfg.Paging.DefaultLimit, cfg.Paging.MaxLimit)
	remote := repository.NewRemote(client, builder, cfg.Paging.MaxPages, logger)

	staffSvc := staff.NewService(remote, logger)
	equipmentSvc := equipment.NewService(remote, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects:     project.NewService(remote, staffSvc, equipmentSvc, logger),
			Staff:        staffSvc,
			Equipment:    equipmentSvc,
			TimeTracking: timetracking.NewService(remote, logger),
			Tickets:      ticket.NewService(remote, logger),
			Planning:     planning.NewService(remote, logger),
			Health:       client,
		},
		Version: version,
		Logger:  logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer)
	}
	return runHTTPMode(ctx, logger, mcpServer, cfg.Server)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, cfg config.ServerConfig) error {
	if cfg.Token == "" {
		logger.Warn("ERFASST_SERVER_TOKEN is empty, HTTP transport is unauthenticated")
	}
	router := transport.NewServer(transport.NewMCPHandler(mcpServer), transport.AuthMiddleware(cfg.Token))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func runCheck(ctx context.Context, cfg config.Config) error {
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	client, err := newGateway(cfg, logger)
	if err != nil {
		return err
	}

	started := time.Now()
	if err := client.Ping(ctx); err != nil {
		apiErr := mcp.MapError(err)
		return fmt.Errorf("%s: %s (%s)", apiErr.Code, apiErr.Message, apiErr.RecoveryHint)
	}
	fmt.Printf("ok: %s answered in %s\n", cfg.API.URL, time.Since(started).Round(time.Millisecond))
	return nil
}

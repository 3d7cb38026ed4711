// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ryanahq/ryana/internal/api"
	"github.com/ryanahq/ryana/internal/mcpserver"
	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/query"
	"github.com/ryanahq/ryana/internal/search"
	"github.com/ryanahq/ryana/internal/sse"
	"github.com/ryanahq/ryana/internal/store"
	"github.com/ryanahq/ryana/internal/transfer"
)

func buildApp(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := buildApp(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	// SSE broker.
	broker := sse.NewBroker(30 * time.Second)
	defer broker.Close()

	// Domain services and API router.
	se := search.NewService(st)
	tr := transfer.NewService(st)
	qu := query.NewService(st)
	apiRouter := api.NewRouter(st, se, tr, qu, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := st.SchemaVersion(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := buildApp(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	logger.Info("Starting MCP server on stdio", slog.String("sqlite_path", cfg.SQLite.Path))
	return mcpserver.New(st, search.NewService(st)).ServeStdio()
}

// RunExport writes a snapshot of the vault to outPath. When subject is set
// only that subject's snippets are exported; when ids are given only those
// snippets are. outPath defaults to a timestamped filename.
func RunExport(ctx context.Context, outPath, subject string, ids []string, opts ...Option) error {
	app, err := buildApp(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	tr := transfer.NewService(st)
	var snap *models.Snapshot
	switch {
	case subject != "":
		snap, err = tr.ExportBySubject(ctx, subject)
	case len(ids) > 0:
		snap, err = tr.ExportSelected(ctx, ids)
	default:
		snap, err = tr.ExportAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if outPath == "" {
		outPath = transfer.ExportFilename(subject, time.Now())
	}
	if err := transfer.WriteSnapshotFile(outPath, snap); err != nil {
		return err
	}
	fmt.Printf("exported %d snippets, %d subjects to %s\n", len(snap.Snippets), len(snap.Subjects), outPath)
	return nil
}

// RunImport reads a snapshot file and reconciles it into the vault under
// the named mode. Replace mode refuses to run unless confirm is set.
func RunImport(ctx context.Context, inPath, mode string, confirm bool, opts ...Option) error {
	app, err := buildApp(opts)
	if err != nil {
		return err
	}

	m, err := transfer.ParseMode(mode)
	if err != nil {
		return err
	}
	snap, err := transfer.ReadSnapshotFile(inPath)
	if err != nil {
		return err
	}

	st, err := store.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	stats, err := transfer.NewService(st).Import(ctx, snap, transfer.Options{
		Mode:           m,
		ConfirmReplace: confirm,
	})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Printf("snippets: %d added, %d updated, %d skipped\n",
		stats.Snippets.Added, stats.Snippets.Updated, stats.Snippets.Skipped)
	fmt.Printf("subjects: %d added, %d skipped\n", stats.Subjects.Added, stats.Subjects.Skipped)
	return nil
}

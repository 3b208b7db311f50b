package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"railviz/internal/config"
	"railviz/internal/handler"
	"railviz/internal/hub"
	"railviz/internal/metrics"
	"railviz/internal/repository/sqlite"
	"railviz/internal/service"
	"railviz/internal/ui"
	"railviz/internal/watcher"
)

func serveCmd() *cobra.Command {
	var (
		addr      string
		dbPath    string
		watchPath string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve render sessions over HTTP",
		Long: "Serve the render API, the SSE event stream and Prometheus metrics.\n" +
			"With --watch the graph file is rendered into a fixed session and\n" +
			"re-rendered whenever it changes on disk.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.Path = dbPath
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch.Path = watchPath
			}
			if cmd.Flags().Changed("session") {
				cfg.Watch.SessionID = sessionID
			}

			ui.Banner(cmd.OutOrStdout(), "serve")
			if path != "" {
				ui.Field(cmd.OutOrStdout(), "Config", path)
			}
			ui.Field(cmd.OutOrStdout(), "Listen", cfg.Server.Addr)
			ui.Field(cmd.OutOrStdout(), "Database", cfg.Database.Path)
			fmt.Fprintln(cmd.OutOrStdout())

			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address")
	cmd.Flags().StringVar(&dbPath, "db", config.DefaultDatabasePath, "SQLite database path")
	cmd.Flags().StringVarP(&watchPath, "watch", "w", "", "Graph file to render and re-render on change")
	cmd.Flags().StringVar(&sessionID, "session", config.DefaultWatchSession, "Session id for the watched file")
	return cmd
}

func serve(cfg *config.Config) error {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting railviz server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Initialize SSE hub
	sseHub := hub.New()
	go sseHub.Run(ctx)

	// Connect event bus to SSE hub, one topic per session
	eventChan := make(chan service.Event, 256)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Publish(event.SessionID, string(event.Type), event)
			case <-ctx.Done():
				return
			}
		}
	}()

	reg := metrics.NewRegistry()
	reg.WatchSSEClients(sseHub.ClientCount)

	// Initialize services
	renderSvc := service.NewRenderService(repo, sessionConfig(cfg), eventBus, reg)
	defer renderSvc.Close()

	// Set up HTTP routes
	mux := http.NewServeMux()
	handler.NewRenderHandler(renderSvc).Register(mux)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", reg.Handler())

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Chain(mux,
			handler.Recover,
			handler.CORS,
			handler.Logger,
			handler.Metrics(reg),
		),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	// Render the watched file before accepting requests
	if cfg.Watch.Path != "" {
		id := cfg.Watch.SessionID
		if _, err := renderSvc.LoadFile(ctx, id, cfg.Watch.Path); err != nil {
			log.Printf("Failed to load %s: %v", cfg.Watch.Path, err)
		} else {
			log.Printf("Rendered %s into session %q", cfg.Watch.Path, id)
		}

		w := watcher.New(cfg.Watch.Path, func(ctx context.Context, path string) error {
			_, err := renderSvc.LoadFile(ctx, id, path)
			return err
		}).WithDebounce(cfg.Watch.Debounce.Duration())

		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Watcher stopped: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

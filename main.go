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
	"time"

	"quizboard/config"
	"quizboard/handlers"
	"quizboard/metrics"
	"quizboard/routes"
	"quizboard/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the games and players tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate()
		},
	}

	root := &cobra.Command{
		Use:          "quizboard",
		Short:        "Quiz game sessions, players and leaderboards over HTTP",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	root.AddCommand(serveCmd, migrateCmd)
	return root
}

func migrate() error {
	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}

	if err := services.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database schema ready")
	return nil
}

// newProvider connects the configured store and returns a release function.
func newProvider(cfg *config.Config) (services.Provider, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		client, err := config.InitRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		return services.NewRedisProvider(client), func() { client.Close() }, nil

	default:
		db, err := config.InitDB(cfg)
		if err != nil {
			return nil, nil, err
		}

		if err := services.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		release := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return services.NewSQLProvider(db), release, nil
	}
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	provider, release, err := newProvider(cfg)
	if err != nil {
		return err
	}
	defer release()

	// Initialize services
	registry := prometheus.NewRegistry()
	dispatcher := services.NewDispatcher(provider, services.NewGenerator(nil), metrics.NewRecorder(registry))

	// Initialize handlers
	quizHandler := handlers.NewQuizHandler(dispatcher)

	// Setup Gin router
	router := gin.Default()
	routes.SetupRoutes(router, quizHandler, metrics.Handler(registry))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on %s (store: %s)", cfg.Addr(), cfg.StoreBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Printf("Server stopped")
	return nil
}

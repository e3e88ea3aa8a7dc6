package cli

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

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"live-quiz-service/internal/app"
	"live-quiz-service/internal/catalog"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/infra/memory"
	"live-quiz-service/internal/infra/postgres"
	redismirror "live-quiz-service/internal/infra/redis"
	"live-quiz-service/internal/logging"
	transport "live-quiz-service/internal/transport/http"
)

const shutdownTimeout = 5 * time.Second

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "quizzes", cat.Len())

	var observer app.SessionObserver
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			// The mirror is best effort; serve without it.
			logger.Warn("redis unavailable, session mirror disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			observer = redismirror.NewSessionMirror(client, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		}
	}

	controller := app.NewController(cat, app.ControllerOptions{
		Buffer:   cfg.Notifications.Buffer,
		Observer: observer,
		Logger:   logger,
	})
	registry := app.NewRegistry(cat, memory.NewPlayerStore(), app.RegistryOptions{
		Buffer:            cfg.Notifications.Buffer,
		RequireRegistered: cfg.Identity.RequireRegistered,
		Logger:            logger,
	})
	handler := transport.NewHandler(controller, registry, logger)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadConfig(path string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout), nil
}

// loadCatalog picks the quiz source: Postgres when configured (migrated
// first), then a catalog file, then the bundled catalog.
func loadCatalog(ctx context.Context, cfg config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		logger.Info("loading catalog from postgres")
		return catalog.Load(ctx, postgres.NewCatalogSource(pool))
	}
	return catalog.Load(ctx, fileSource(cfg))
}

// fileSource is the configured catalog file, or the bundled one.
func fileSource(cfg config.Config) catalog.Source {
	if cfg.Catalog.Path != "" {
		return catalog.File(cfg.Catalog.Path)
	}
	return catalog.Embedded()
}

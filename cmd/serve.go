package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibe-check-backend/internal/config"
	"vibe-check-backend/internal/handlers"
	"vibe-check-backend/internal/repository"
	"vibe-check-backend/internal/repository/inmemory"
	"vibe-check-backend/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}

// stores groups the storage backends selected by database.driver
type stores struct {
	users         services.UserStore
	relationships services.RelationshipStore
	vibes         services.VibeStore
	cache         services.RelationshipCache
	close         func()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStores(ctx, cfg, serveMigrate)
	if err != nil {
		return err
	}
	defer st.close()

	clock := services.Clock(services.SystemClock)
	wsHub := services.NewWSHub()

	var pusher services.Pusher
	if cfg.APNs.KeyFile != "" {
		apns, err := services.NewAPNsPusher(cfg.APNs)
		if err != nil {
			return fmt.Errorf("failed to create APNs client: %w", err)
		}
		pusher = apns
		log.Info().Bool("production", cfg.APNs.Production).Msg("Push notifications enabled")
	}

	// Initialize services
	notifier := services.NewPartnerNotifier(wsHub, pusher, st.users)
	userService := services.NewUserService(st.users, cfg.JWT.Secret, cfg.JWT.TTLDays, clock)
	relationshipService := services.NewRelationshipService(st.relationships, st.cache, notifier, clock)
	vibeService := services.NewVibeService(st.vibes, st.relationships, notifier, clock)

	// Initialize handlers
	routes := handlers.Router{
		Auth:          userService,
		Users:         handlers.NewUserHandler(userService),
		Relationships: handlers.NewRelationshipHandler(relationshipService),
		Vibes:         handlers.NewVibeHandler(vibeService),
		WebSocket:     handlers.NewWebSocketHandler(wsHub, userService, relationshipService),
	}

	if cfg.AWS.S3Bucket != "" {
		exportService, err := services.NewExportService(ctx, st.vibes, st.relationships, cfg.AWS, clock)
		if err != nil {
			return fmt.Errorf("failed to create export service: %w", err)
		}
		routes.Export = handlers.NewExportHandler(exportService)
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Exports enabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handlers.NewRouter(routes),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not closed by Shutdown
	wsHub.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

// openStores connects the configured storage and cache backends
func openStores(ctx context.Context, cfg *config.Config, migrate bool) (*stores, error) {
	var closers []func()
	st := &stores{close: func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		db := inmemory.New()
		st.users, st.relationships, st.vibes = db.Users(), db.Relationships(), db.Vibes()
		log.Warn().Msg("Using in-memory storage, data is lost on exit")
	default:
		pool, err := repository.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		closers = append(closers, pool.Close)
		log.Info().Msg("Database connection established")

		if migrate {
			applied, err := repository.Migrate(ctx, pool)
			if err != nil {
				st.close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			log.Info().Int("applied", applied).Msg("Migrations complete")
		}

		st.users = repository.NewUserRepository(pool)
		st.relationships = repository.NewRelationshipRepository(pool)
		st.vibes = repository.NewVibeRepository(pool)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := repository.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			st.close()
			return nil, err
		}
		closers = append(closers, func() { rdb.Close() })
		st.cache = repository.NewRedisRelationshipCache(rdb, cfg.Redis.CacheTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis relationship cache enabled")
	} else {
		st.cache = inmemory.NewRelationshipCache(cfg.Redis.CacheTTL)
	}

	return st, nil
}

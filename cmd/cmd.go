package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deepthoughts/thoughts-server/internal/config"
	"github.com/deepthoughts/thoughts-server/internal/events"
	"github.com/deepthoughts/thoughts-server/internal/graph"
	"github.com/deepthoughts/thoughts-server/internal/handlers"
	"github.com/deepthoughts/thoughts-server/internal/ratelimit"
	"github.com/deepthoughts/thoughts-server/internal/repository"
	"github.com/deepthoughts/thoughts-server/internal/repository/memory"
	"github.com/deepthoughts/thoughts-server/internal/repository/mongodb"
	"github.com/deepthoughts/thoughts-server/internal/repository/postgres"
	"github.com/deepthoughts/thoughts-server/internal/services"
)

// store bundles the repositories of the selected driver
type store struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
	ping     func(ctx context.Context) error
	close    func()
}

func Run() {
	// Load configuration
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open store")
	}
	defer st.close()
	log.Info().Str("driver", cfg.Database.Driver).Msg("Database connection established")

	limiter := newLimiter(ctx, cfg)

	// Events go to the live feed and, when configured, to NATS
	wsHub := services.NewWSHub()
	publisher := events.Fanout{wsHub}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer natsPublisher.Close()
		publisher = append(publisher, natsPublisher)
		log.Info().Str("url", cfg.NATS.URL).Msg("Publishing events to NATS")
	}

	// Initialize services
	creds := services.NewCredentials(cfg.JWT.Secret, cfg.JWT.TTL)
	userService := services.NewUserService(st.users, st.thoughts, creds, limiter, publisher)
	thoughtService := services.NewThoughtService(st.thoughts, st.users, publisher)
	avatarService := newAvatarService(ctx, cfg.AWS, st.users)

	schema, err := graph.NewSchema(graph.NewResolver(userService, thoughtService, avatarService))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build GraphQL schema")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Schema:         schema,
		Hub:            wsHub,
		Tokens:         creds,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		HealthCheck:    st.ping,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.URI, cfg.Name)
		if err != nil {
			return nil, err
		}
		return &store{
			users:    mongodb.NewUserRepository(db),
			thoughts: mongodb.NewThoughtRepository(db),
			ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Error().Err(err).Msg("Failed to disconnect from mongo")
				}
			},
		}, nil
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.URI)
		if err != nil {
			return nil, err
		}
		return &store{
			users:    postgres.NewUserRepository(db),
			thoughts: postgres.NewThoughtRepository(db),
			ping:     db.Ping,
			close:    db.Close,
		}, nil
	default:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		mem := memory.NewStore()
		return &store{
			users:    mem.Users(),
			thoughts: mem.Thoughts(),
			close:    func() {},
		}, nil
	}
}

// newLimiter prefers Redis so attempts are counted across instances
func newLimiter(ctx context.Context, cfg *config.Config) ratelimit.Limiter {
	attempts, window := cfg.RateLimit.Attempts, cfg.RateLimit.Window
	if cfg.Redis.Addr == "" {
		return ratelimit.NewLocal(attempts, window)
	}
	client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-process rate limiting")
		return ratelimit.NewLocal(attempts, window)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Rate limiting with Redis")
	return ratelimit.NewRedis(client, attempts, window)
}

func newAvatarService(ctx context.Context, cfg config.AWSConfig, users repository.UserRepository) *services.AvatarService {
	s3cfg := services.S3Config{
		Region:          cfg.Region,
		Bucket:          cfg.S3Bucket,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		PublicBaseURL:   cfg.PublicBaseURL,
	}
	if cfg.S3Bucket == "" {
		log.Info().Msg("No avatar bucket configured, uploads disabled")
		return services.NewAvatarService(users, nil, s3cfg)
	}
	presigner, err := services.NewS3Presigner(ctx, s3cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create avatar presigner")
	}
	return services.NewAvatarService(users, presigner, s3cfg)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

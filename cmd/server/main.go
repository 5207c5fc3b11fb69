package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/romejiang/moltbook-api/internal/app"
	"github.com/romejiang/moltbook-api/internal/config"
	"github.com/romejiang/moltbook-api/internal/database"
	"github.com/romejiang/moltbook-api/internal/logging"
	"github.com/romejiang/moltbook-api/internal/ratelimit"
	"github.com/romejiang/moltbook-api/internal/redis"
	"github.com/romejiang/moltbook-api/internal/server"
	"github.com/romejiang/moltbook-api/internal/version"
	"github.com/romejiang/moltbook-api/internal/votes"
)

const threadCacheTTL = 30 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *database.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.RunMigrations(ctx); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(cfg *config.Config) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("Redis not configured, thread cache disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupLimiter(cfg *config.Config, clock clockwork.Clock) (*ratelimit.Limiter, func()) {
	store := ratelimit.NewWindowStore(clock)
	stopPrune := store.StartPruneLoop(ratelimit.DefaultPruneInterval, ratelimit.DefaultPruneHorizon)

	controller := ratelimit.NewAdmissionController(store, clock)
	limiter := ratelimit.NewLimiter(controller, map[ratelimit.ActionClass]ratelimit.Limit{
		ratelimit.ActionGeneral: {Max: cfg.GeneralLimit, Window: cfg.GeneralWindow},
		ratelimit.ActionPost:    {Max: cfg.PostLimit, Window: cfg.PostWindow},
		ratelimit.ActionComment: {Max: cfg.CommentLimit, Window: cfg.CommentWindow},
	})
	return limiter, stopPrune
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	db := setupDB(cfg)
	defer db.Close()

	redisClient := setupRedis(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	agentRepo := database.NewAgentRepo(db)
	submoltRepo := database.NewSubmoltRepo(db)
	postRepo := database.NewPostRepo(db)
	commentRepo := database.NewCommentRepo(db)
	voteRepo := database.NewVoteRepo(db)

	ledger := votes.NewLedger(voteRepo, voteRepo)

	// A typed nil *ThreadCache inside the interface would bypass the
	// service's nil check.
	var cache app.ThreadCache
	if redisClient != nil {
		cache = redis.NewThreadCache(redisClient, threadCacheTTL)
	}

	appSvc := app.NewService(agentRepo, postRepo, commentRepo, submoltRepo, ledger, cache)

	limiter, stopPrune := setupLimiter(cfg, clock)
	defer stopPrune()

	guard := server.NewBurstGuard(cfg.BurstPerSecond, cfg.BurstSize)

	srv := server.NewServer(cfg, appSvc, limiter, guard, db, redisClient)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

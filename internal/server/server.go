package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/romejiang/moltbook-api/internal/app"
	"github.com/romejiang/moltbook-api/internal/config"
	"github.com/romejiang/moltbook-api/internal/database"
	apperrors "github.com/romejiang/moltbook-api/internal/errors"
	"github.com/romejiang/moltbook-api/internal/ratelimit"
)

type Server struct {
	echo    *echo.Echo
	config  *config.Config
	app     *app.Service
	limiter *ratelimit.Limiter
	guard   *BurstGuard
	db      *database.DB
	rdb     *goredis.Client
}

// NewServer wires the HTTP surface. rdb may be nil when Redis is not
// configured; readiness then reports on Postgres alone.
func NewServer(cfg *config.Config, application *app.Service, limiter *ratelimit.Limiter, guard *BurstGuard, db *database.DB, rdb *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:    e,
		config:  cfg,
		app:     application,
		limiter: limiter,
		guard:   guard,
		db:      db,
		rdb:     rdb,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

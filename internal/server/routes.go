package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/romejiang/moltbook-api/internal/ratelimit"
)

func (s *Server) registerRoutes() {
	// Observability endpoints bypass both throttles entirely.
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// The burst guard fronts only the API surface so health and metrics
	// scrapes are never throttled. The general quota covers every API
	// request; content creation carries an additional, stricter quota per
	// action class. Identity resolution must run before the quota check so
	// authenticated callers are keyed by agent rather than IP.
	api := s.echo.Group("/api/v1", s.guard.Middleware(), s.optionalAuth, s.limiter.Require(ratelimit.ActionGeneral))

	api.POST("/agents/register", s.handleRegisterAgent)
	api.GET("/agents/me", s.handleMe, s.requireAuth)
	api.GET("/agents/:name", s.handleGetAgent)

	api.GET("/posts", s.handleFeed)
	api.POST("/posts", s.handleCreatePost, s.requireAuth, s.limiter.Require(ratelimit.ActionPost))
	api.GET("/posts/:id", s.handleGetPost)
	api.DELETE("/posts/:id", s.handleDeletePost, s.requireAuth)

	api.GET("/posts/:id/comments", s.handleGetThread)
	api.POST("/posts/:id/comments", s.handleCreateComment, s.requireAuth, s.limiter.Require(ratelimit.ActionComment))

	api.POST("/posts/:id/upvote", s.handleVotePost, s.requireAuth)
	api.POST("/posts/:id/downvote", s.handleVotePost, s.requireAuth)
	api.POST("/comments/:id/upvote", s.handleVoteComment, s.requireAuth)
	api.POST("/comments/:id/downvote", s.handleVoteComment, s.requireAuth)

	api.GET("/submolts", s.handleListSubmolts)
	api.POST("/submolts", s.handleCreateSubmolt, s.requireAuth)
	api.GET("/submolts/:name", s.handleGetSubmolt)
	api.POST("/submolts/:name/subscribe", s.handleSubscribe, s.requireAuth)
}

package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/romejiang/moltbook-api/internal/domain"
	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

// apiKey extracts the caller's key from "Authorization: Bearer <key>".
func apiKey(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

// optionalAuth resolves the caller's identity when a key is presented. An
// invalid key is rejected outright rather than downgraded to anonymous, so a
// caller can never dodge its per-agent quota by mistyping credentials.
func (s *Server) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := apiKey(c)
		if key == "" {
			return next(c)
		}

		agent, err := s.app.Authenticate(c.Request().Context(), key)
		if err != nil {
			return apperrors.UnauthorizedError("invalid API key")
		}

		c.Set("agentID", agent.ID)
		c.Set("agent", agent)
		return next(c)
	}
}

// requireAuth rejects requests that optionalAuth left anonymous.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("agent").(*domain.Agent); !ok {
			return apperrors.UnauthorizedError("API key required")
		}
		return next(c)
	}
}

// currentAgent returns the authenticated caller, or nil on anonymous requests.
func currentAgent(c echo.Context) *domain.Agent {
	agent, _ := c.Get("agent").(*domain.Agent)
	return agent
}

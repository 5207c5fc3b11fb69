package ratelimit

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/romejiang/moltbook-api/internal/errors"
	"github.com/romejiang/moltbook-api/internal/metrics"
)

// ActionClass partitions quotas by what the request does. Each class is
// checked independently: exhausting the general quota does not loosen the
// stricter content quotas, and vice versa.
type ActionClass string

const (
	ActionGeneral ActionClass = "general"
	ActionPost    ActionClass = "post"
	ActionComment ActionClass = "comment"
)

// anonymousKey is the shared bucket for callers with no identity at all.
const anonymousKey = "anonymous"

// Limiter is the Echo-facing admission layer. It derives a key from the
// caller's identity and the route's action class, asks the controller for a
// decision, surfaces the decision as response headers, and rejects exhausted
// callers with a rate-limited error carrying retry metadata.
type Limiter struct {
	controller *AdmissionController
	limits     map[ActionClass]Limit
}

func NewLimiter(controller *AdmissionController, limits map[ActionClass]Limit) *Limiter {
	return &Limiter{controller: controller, limits: limits}
}

// Require returns middleware that checks the quota for the given action class.
func (l *Limiter) Require(class ActionClass) echo.MiddlewareFunc {
	limit, ok := l.limits[class]
	if !ok {
		panic(fmt.Sprintf("ratelimit: no limit configured for action class %q", class))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := string(class) + ":" + callerIdentity(c)
			decision := l.controller.Check(key, limit)

			writeHeaders(c, decision)

			if !decision.Allowed {
				metrics.AdmissionChecksTotal.WithLabelValues(string(class), "denied").Inc()
				return apperrors.RateLimitedError("rate limit exceeded", decision.RetryAfter).
					WithField("action", string(class)).
					WithField("limit", decision.Limit)
			}

			metrics.AdmissionChecksTotal.WithLabelValues(string(class), "allowed").Inc()
			return next(c)
		}
	}
}

// callerIdentity resolves the admission key component for the caller:
// authenticated agent identity first, then network origin, then the shared
// anonymous bucket.
func callerIdentity(c echo.Context) string {
	if agentID, ok := c.Get("agentID").(uuid.UUID); ok && agentID != uuid.Nil {
		return "agent:" + agentID.String()
	}
	if ip := c.RealIP(); ip != "" {
		return "ip:" + ip
	}
	return anonymousKey
}

// writeHeaders renders the decision as response metadata. Set on every check,
// allowed or not.
func writeHeaders(c echo.Context, d Decision) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

package server

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/romejiang/moltbook-api/internal/domain"
	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

// mapDomainError translates storage and ledger sentinels into structured HTTP
// errors. Anything unmapped falls through to the error middleware as a 500.
func mapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAgentNotFound):
		return apperrors.NotFoundError("agent not found")
	case errors.Is(err, domain.ErrPostNotFound):
		return apperrors.NotFoundError("post not found")
	case errors.Is(err, domain.ErrCommentNotFound):
		return apperrors.NotFoundError("comment not found")
	case errors.Is(err, domain.ErrSubmoltNotFound):
		return apperrors.NotFoundError("submolt not found")
	case errors.Is(err, domain.ErrTargetNotFound):
		return apperrors.NotFoundError("target not found")
	case errors.Is(err, domain.ErrNameTaken):
		return apperrors.ConflictError("name already taken")
	case errors.Is(err, domain.ErrInvalidAPIKey):
		return apperrors.UnauthorizedError("invalid API key")
	case errors.Is(err, domain.ErrNotAuthor):
		return apperrors.ForbiddenError("only the author may do that")
	case errors.Is(err, domain.ErrSelfVote):
		return apperrors.ValidationError("you cannot vote on your own content")
	case errors.Is(err, domain.ErrInvalidTarget):
		return apperrors.ValidationError("invalid vote target")
	case errors.Is(err, domain.ErrInvalidDirection):
		return apperrors.ValidationError("invalid vote direction")
	case errors.Is(err, domain.ErrMaxDepthExceeded):
		return apperrors.ValidationError("maximum reply depth exceeded")
	default:
		return err
	}
}

// agentID returns the authenticated caller's ID, or uuid.Nil when anonymous.
func agentID(c echo.Context) uuid.UUID {
	id, _ := c.Get("agentID").(uuid.UUID)
	return id
}

// pathUUID parses a UUID route parameter.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid " + name).WithField(name, c.Param(name))
	}
	return id, nil
}

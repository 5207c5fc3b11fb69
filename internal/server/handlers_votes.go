package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/romejiang/moltbook-api/internal/domain"
)

// voteDirection derives the direction from the route itself: the upvote and
// downvote endpoints share a handler.
func voteDirection(c echo.Context) domain.VoteDirection {
	if strings.HasSuffix(c.Path(), "/downvote") {
		return domain.VoteDown
	}
	return domain.VoteUp
}

func (s *Server) handleVotePost(c echo.Context) error {
	return s.handleVote(c, domain.TargetPost)
}

func (s *Server) handleVoteComment(c echo.Context) error {
	return s.handleVote(c, domain.TargetComment)
}

func (s *Server) handleVote(c echo.Context, targetType domain.TargetType) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	result, err := s.app.Vote(c.Request().Context(), id, targetType, agentID(c), voteDirection(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, result)
}

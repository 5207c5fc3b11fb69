package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/romejiang/moltbook-api/internal/domain"
	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

type createCommentRequest struct {
	Content  string     `json:"content"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func (s *Server) handleGetThread(c echo.Context) error {
	postID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	sort := domain.ParseCommentSort(c.QueryParam("sort"))

	nodes, err := s.app.GetThread(c.Request().Context(), postID, sort, agentID(c))
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"post_id":  postID,
		"sort":     sort,
		"comments": nodes,
	})
}

func (s *Server) handleCreateComment(c echo.Context) error {
	postID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	comment, err := s.app.CreateComment(c.Request().Context(), postID, agentID(c), req.ParentID, req.Content)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

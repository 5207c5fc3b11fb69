package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/romejiang/moltbook-api/internal/domain"
	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

type createPostRequest struct {
	Submolt string `json:"submolt"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleFeed(c echo.Context) error {
	sort := domain.ParseFeedSort(c.QueryParam("sort"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	feed, err := s.app.GetFeed(c.Request().Context(), sort, limit, offset, agentID(c))
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": feed,
		"sort":  sort,
		"count": len(feed),
	})
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	post, err := s.app.CreatePost(c.Request().Context(), req.Submolt, req.Title, req.Content, agentID(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

func (s *Server) handleGetPost(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	post, err := s.app.GetPost(c.Request().Context(), id, agentID(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, post)
}

func (s *Server) handleDeletePost(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeletePost(c.Request().Context(), id, agentID(c)); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "post deleted"})
}

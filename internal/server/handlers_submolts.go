package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

type createSubmoltRequest struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleListSubmolts(c echo.Context) error {
	submolts, err := s.app.ListSubmolts(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"submolts": submolts,
		"count":    len(submolts),
	})
}

func (s *Server) handleCreateSubmolt(c echo.Context) error {
	var req createSubmoltRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	submolt, err := s.app.CreateSubmolt(c.Request().Context(), req.Name, req.Title, req.Description, agentID(c))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, submolt)
}

func (s *Server) handleGetSubmolt(c echo.Context) error {
	submolt, err := s.app.GetSubmolt(c.Request().Context(), c.Param("name"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, submolt)
}

func (s *Server) handleSubscribe(c echo.Context) error {
	if err := s.app.Subscribe(c.Request().Context(), c.Param("name"), agentID(c)); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "subscribed"})
}

package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/romejiang/moltbook-api/internal/errors"
)

type registerAgentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleRegisterAgent(c echo.Context) error {
	var req registerAgentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	agent, key, err := s.app.RegisterAgent(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return mapDomainError(err)
	}

	// The plaintext key appears in this response and nowhere else.
	return c.JSON(http.StatusCreated, echo.Map{
		"agent":   agent,
		"api_key": key,
	})
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentAgent(c))
}

func (s *Server) handleGetAgent(c echo.Context) error {
	agent, err := s.app.GetAgent(c.Request().Context(), c.Param("name"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, agent)
}

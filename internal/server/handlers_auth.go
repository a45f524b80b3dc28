package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiscope/internal/apperror"
	"github.com/spacesedan/sentiscope/internal/models"
)

const tokenTypeBearer = "bearer"

func (s *Server) registerAuthRoutes(limiter echo.MiddlewareFunc) {
	s.echo.POST("/token", s.handleToken, limiter)
}

// handleToken exchanges form credentials for a signed access token.
func (s *Server) handleToken(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return apperror.BadRequest("username and password are required")
	}

	token, err := s.tokens.Issue(c.Request().Context(), username, password)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token.Value,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	})
}

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiscope/internal/apperror"
	"github.com/spacesedan/sentiscope/internal/metrics"
)

const (
	contextKeyUsername = "username"
	bearerScheme       = "Bearer"
)

// ErrorHandlingMiddleware maps errors returned by handlers to JSON responses.
// echo.HTTPErrors are passed through to the router's error handler.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			appErr := apperror.As(err)
			logError(c, appErr)
			metrics.HTTPErrors.WithLabelValues(string(appErr.Kind)).Inc()

			if c.Response().Committed {
				return nil
			}
			if appErr.Kind == apperror.KindUnauthorized {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, bearerScheme)
			}
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
	}
}

func logError(c echo.Context, appErr *apperror.Error) {
	attrs := []any{
		slog.String("kind", string(appErr.Kind)),
		slog.String("path", c.Path()),
		slog.String("method", c.Request().Method),
	}
	if appErr.Cause != nil {
		attrs = append(attrs, slog.String("cause", appErr.Cause.Error()))
	}

	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		slog.Error("[Server] "+appErr.Message, attrs...)
		return
	}
	slog.Debug("[Server] "+appErr.Message, attrs...)
}

// handleHTTPError renders router and middleware errors (404, 405, 413, ...)
// with the same body shape as application errors.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := http.StatusText(status)

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(status)
		}
	} else if appErr := apperror.As(err); appErr != nil {
		status = appErr.HTTPStatus()
		detail = appErr.Message
	}

	metrics.HTTPErrors.WithLabelValues("http_" + strconv.Itoa(status)).Inc()

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, apperror.Response{
			Detail: detail,
			Type:   apperror.Kind("http_" + strconv.Itoa(status)),
		})
	}
	if writeErr != nil {
		slog.Error("[Server] Failed to write error response", slog.String("error", writeErr.Error()))
	}
}

// requireAuth verifies the bearer token and stores the subject on the
// context under contextKeyUsername.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return apperror.Unauthorized(errors.New("missing bearer token"))
		}

		username, err := s.tokens.Verify(c.Request().Context(), token)
		if err != nil {
			return err
		}

		c.Set(contextKeyUsername, username)
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

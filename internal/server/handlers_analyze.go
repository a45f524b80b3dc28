package server

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentiscope/internal/apperror"
	"github.com/spacesedan/sentiscope/internal/ingest"
	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	formFieldText = "text"
	formFieldFile = "file"
	csvMediaType  = "text/csv"
)

func (s *Server) registerAnalyzeRoutes() {
	s.echo.POST("/analyze", s.handleAnalyze, s.requireAuth)
}

// handleAnalyze scores either a single text or every row of an uploaded CSV.
func (s *Server) handleAnalyze(c echo.Context) error {
	username, _ := c.Get(contextKeyUsername).(string)

	text, err := readText(c)
	if err != nil {
		return err
	}
	file, err := readFile(c)
	if err != nil {
		return err
	}

	switch {
	case text != "" && file != nil:
		return apperror.BadRequest("Provide either text or a file, not both")
	case text == "" && file == nil:
		return apperror.BadRequest("No text or file provided")
	}

	ctx := c.Request().Context()

	if file == nil {
		result, err := s.analyzer.AnalyzeText(ctx, username, text)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}

	table, err := parseUpload(file)
	if err != nil {
		return err
	}

	batch, err := s.analyzer.AnalyzeTable(ctx, username, table)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, batch)
}

// readText returns the text input from a JSON body, a form field or the
// query string. An empty string means no text was given.
func readText(c echo.Context) (string, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var body models.AnalyzeTextRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return "", httpErr
			}
			return "", apperror.BadRequest("Invalid JSON body")
		}
		return body.Text, nil
	}
	return c.FormValue(formFieldText), nil
}

func readFile(c echo.Context) (*multipart.FileHeader, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return nil, nil
	}

	fh, err := c.FormFile(formFieldFile)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, apperror.BadRequest("Invalid multipart body")
	}
}

func parseUpload(fh *multipart.FileHeader) (*ingest.Table, error) {
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get(echo.HeaderContentType))
	if err != nil || mediaType != csvMediaType {
		return nil, apperror.BadRequest("File must be a CSV")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperror.Internal("failed to open upload", err)
	}
	defer f.Close()

	table, err := ingest.ParseCSV(f)
	if err != nil {
		if errors.Is(err, ingest.ErrMissingTextColumn) {
			return nil, apperror.BadRequest(err.Error())
		}
		return nil, apperror.Parse(err)
	}
	return table, nil
}

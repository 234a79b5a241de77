package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
	"github.com/smallflock/coopkeeper/internal/server/middleware"
)

const dateLayout = "2006-01-02"

// envelope is the normalized success shape shared by every endpoint.
type envelope struct {
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// respondError maps repository sentinels onto HTTP statuses. Rows filtered
// out by ownership scoping surface as 404, never 403, so a non-owner cannot
// confirm that a row exists. Unexpected storage errors keep their message
// for diagnosability.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gormdb.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, gormdb.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "record already exists"})
	case errors.Is(err, gormdb.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// errValidation builds a request-validation error whose message is shown to
// the caller verbatim with a 400 status.
func errValidation(message string) error {
	return errors.New(message)
}

// owner returns the authenticated caller's id, aborting with 401 when the
// auth middleware did not run. The id is the owner stamp on every query.
func owner(c *gin.Context) (string, bool) {
	identity, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	return identity.ID, true
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted YYYY-MM-DD")
	}
	return date, nil
}

// parseDateQuery reads an optional date query parameter.
func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	date, err := parseDate(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &date, nil
}

// bindOneOrMany decodes a request body that may be either a single object or
// an array of objects into a slice.
func bindOneOrMany[T any](c *gin.Context) ([]T, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body")
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("request body is required")
	}

	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, fmt.Errorf("invalid request body")
		}
		return many, nil
	}

	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	return []T{one}, nil
}

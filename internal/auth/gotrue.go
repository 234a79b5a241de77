package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/config"
)

// GoTrueClient verifies bearer tokens against a GoTrue-style hosted auth
// service. There are no retries; verification is a single round-trip.
type GoTrueClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewGoTrueClient builds an auth client using the provided configuration values.
func NewGoTrueClient(cfg config.AuthConfig, logger *zap.Logger) *GoTrueClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &GoTrueClient{
		httpClient: restyClient,
		logger:     logger,
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// apiError represents a GoTrue error payload.
type apiError struct {
	Message          string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}

// GetUser resolves the caller behind the supplied bearer token. Every failure
// mode, including transport errors, maps to ErrUnauthenticated.
func (c *GoTrueClient) GetUser(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("no token presented: %w", ErrUnauthenticated)
	}

	result := new(userResponse)
	authErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(result).
		SetError(authErr).
		Get("/auth/v1/user")
	if err != nil {
		c.logger.Warn("auth service unreachable", zap.Error(err))
		return nil, fmt.Errorf("verify token: %w", ErrUnauthenticated)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Debug("token rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("reason", authErr.text()))
		return nil, fmt.Errorf("token rejected: %w", ErrUnauthenticated)
	}

	if result.ID == "" {
		return nil, fmt.Errorf("auth response missing user id: %w", ErrUnauthenticated)
	}

	return &Identity{ID: result.ID, Email: result.Email}, nil
}

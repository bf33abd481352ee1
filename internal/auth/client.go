// Package auth talks to the FrameSense account API and persists the local
// login session.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/framesense/agent/internal/httputil"
	"github.com/framesense/agent/internal/logging"
)

var log = logging.L("auth")

var (
	// ErrNotLoggedIn is returned by operations that need a stored session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrAuthFailed covers rejected credentials and invalid tokens.
	ErrAuthFailed = errors.New("authentication failed")
)

// Client performs account operations against the backend API.
type Client struct {
	baseURL  string
	http     *http.Client
	retry    httputil.RetryConfig
	sessions *SessionStore
}

func NewClient(baseURL string, sessions *SessionStore) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		retry:    httputil.DefaultRetryConfig(),
		sessions: sessions,
	}
}

// Login exchanges credentials for a token, converts the backend profile into
// a local User, and persists the session.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	headers := http.Header{"Content-Type": []string{"application/json"}}
	resp, err := httputil.Do(ctx, c.http, http.MethodPost, c.baseURL+"/api/auth/login", body, headers, c.retry)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var ar authResponse
	if err := decodeResponse(resp.Body, &ar); err != nil {
		return nil, err
	}
	if !ar.Success {
		if ar.Message != nil {
			return nil, fmt.Errorf("%w: %s", ErrAuthFailed, *ar.Message)
		}
		return nil, ErrAuthFailed
	}
	if ar.User == nil || ar.Token == nil {
		return nil, fmt.Errorf("%w: malformed login response", ErrAuthFailed)
	}

	user := fromBackend(ar.User, *ar.Token)
	if err := c.sessions.Save(user); err != nil {
		return nil, err
	}

	log.Info("user logged in", "email", user.Email, "tier", user.Tier)
	return user, nil
}

// VerifyToken asks the backend for the latest profile behind a token.
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	headers := http.Header{"Authorization": []string{"Bearer " + token}}
	resp, err := httputil.Do(ctx, c.http, http.MethodGet, c.baseURL+"/api/auth/verify", nil, headers, c.retry)
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var ar authResponse
	if err := decodeResponse(resp.Body, &ar); err != nil {
		return nil, err
	}
	if !ar.Success || ar.User == nil {
		return nil, fmt.Errorf("%w: token rejected", ErrAuthFailed)
	}

	return fromBackend(ar.User, token), nil
}

// RefreshUser re-verifies the stored session against the backend and
// persists the result when the tier changed, e.g. after a plan upgrade.
// Returns (nil, nil) when no session exists.
func (c *Client) RefreshUser(ctx context.Context) (*User, error) {
	current, err := c.sessions.Load()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	updated, err := c.VerifyToken(ctx, current.Token)
	if err != nil {
		return nil, err
	}
	if updated.Tier != current.Tier {
		log.Info("user tier updated", "from", current.Tier, "to", updated.Tier)
		if err := c.sessions.Save(updated); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Logout clears the stored session.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// CurrentUser returns the stored session, or (nil, nil) when logged out.
func (c *Client) CurrentUser() (*User, error) {
	return c.sessions.Load()
}

func decodeResponse(r io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// fromBackend fills local defaults for the optional backend fields.
func fromBackend(b *backendUser, token string) *User {
	now := time.Now().UTC()
	user := &User{
		ID:                 b.ID,
		Email:              b.Email,
		Name:               b.Name,
		Tier:               b.Tier,
		Token:              token,
		SubscriptionStatus: b.SubscriptionStatus,
		UpdatedAt:          b.UpdatedAt,
		CreatedAt:          now.Format(time.RFC3339),
		Usage: Usage{
			LastReset: now.Format("2006-01-02"),
		},
	}
	if b.CreatedAt != nil {
		user.CreatedAt = *b.CreatedAt
	}
	if b.UsageDaily != nil {
		user.Usage.Daily = *b.UsageDaily
	}
	if b.UsageTotal != nil {
		user.Usage.Total = *b.UsageTotal
	}
	return user
}

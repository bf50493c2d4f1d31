// Package client is a Go client for the vibe check HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vibe-check-backend/internal/models"
)

const defaultTimeout = 15 * time.Second

// Client calls the API on behalf of one user
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

// IsConflict reports whether err is a 409 from the server
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsUnauthorized reports whether err is a 401 or 403 from the server.
// The request may succeed unchanged once the caller logs in again.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsRetryable reports whether a request that failed with err may succeed
// later unchanged: transport failures and 5xx responses.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// AuthResponse is returned by Register and Login
type AuthResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an account and stores the returned token
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	body := map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// Login authenticates and stores the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// CreateRelationship starts a relationship and returns its invite code
func (c *Client) CreateRelationship(ctx context.Context) (*models.Relationship, error) {
	var rel models.Relationship
	if err := c.do(ctx, http.MethodPost, "/api/relationships", nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// JoinRelationship joins the relationship with the given invite code
func (c *Client) JoinRelationship(ctx context.Context, code string) (*models.Relationship, error) {
	var rel models.Relationship
	if err := c.do(ctx, http.MethodPost, "/api/relationships/join", map[string]string{"code": code}, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// MyRelationship returns the caller's relationship
func (c *Client) MyRelationship(ctx context.Context) (*models.Relationship, error) {
	var rel models.Relationship
	if err := c.do(ctx, http.MethodGet, "/api/relationships/mine", nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// SubmitVibe records today's mood
func (c *Client) SubmitVibe(ctx context.Context, mood int, note *string) (*models.Vibe, error) {
	body := map[string]interface{}{"mood": mood, "note": note}
	var vibe models.Vibe
	if err := c.do(ctx, http.MethodPost, "/api/vibes", body, &vibe); err != nil {
		return nil, err
	}
	return &vibe, nil
}

// CheckToday reports whether the caller already checked in today
func (c *Client) CheckToday(ctx context.Context) (bool, error) {
	var resp struct {
		Submitted bool `json:"submitted"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/vibes/check", nil, &resp); err != nil {
		return false, err
	}
	return resp.Submitted, nil
}

// History returns the last week of the relationship's check-ins
func (c *Client) History(ctx context.Context, relationshipID string) ([]models.DayRecord, error) {
	var history []models.DayRecord
	if err := c.do(ctx, http.MethodGet, "/api/vibes/"+url.PathEscape(relationshipID), nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string              `json:"message"`
			Errors  map[string][]string `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
			apiErr.Errors = payload.Errors
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

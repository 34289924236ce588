// Package authapi talks to the MRMS auth endpoints over HTTP.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrms/resource-management/internal/core/domain"
)

const maxErrorBody = 4 << 10

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Load() (string, error)
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username     string      `json:"username"`
	Password     string      `json:"password"`
	Email        string      `json:"email,omitempty"`
	FullName     string      `json:"fullName,omitempty"`
	Role         domain.Role `json:"role"`
	AssignedBase string      `json:"assignedBase,omitempty"`
}

// Client implements the auth operations against a base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	log        zerolog.Logger
}

// New creates a Client. timeout <= 0 leaves the http.Client without a deadline;
// callers then rely on their contexts.
func New(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		log:        log,
	}
}

// Login exchanges credentials for a token.
// POST /auth/login
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}

	var res LoginResult
	status, msg, err := c.do(ctx, "login", http.MethodPost, "/auth/login", false, body, &res)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		if res.Token == "" || res.User == nil {
			return nil, &NetworkError{Op: "login", Status: status, Err: errors.New("incomplete login response")}
		}
		return &res, nil
	case status == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		return nil, &ValidationError{Status: status, Message: msg}
	}
}

// Logout asks the server to revoke the current token.
// POST /auth/logout
func (c *Client) Logout(ctx context.Context) error {
	status, msg, err := c.do(ctx, "logout", http.MethodPost, "/auth/logout", true, nil, nil)
	if err != nil {
		return err
	}
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("logout: server answered %d: %s", status, msg)
	}
}

// Register creates an account. It does not sign the user in.
// POST /auth/register
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	status, msg, err := c.do(ctx, "register", http.MethodPost, "/auth/register", false, in, nil)
	if err != nil {
		return err
	}
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	default:
		return &ValidationError{Status: status, Message: msg}
	}
}

// GetCurrentUser validates the stored token and returns its account.
// GET /auth/me
func (c *Client) GetCurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	status, msg, err := c.do(ctx, "current user", http.MethodGet, "/auth/me", true, nil, &user)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		if user.ID == "" {
			return nil, &NetworkError{Op: "current user", Status: status, Err: errors.New("incomplete user in response")}
		}
		return &user, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("current user: server answered %d: %s", status, msg)
	}
}

// do sends one request. Transport failures and 5xx answers come back as
// *NetworkError; any other status is returned for the caller to interpret,
// with out decoded only for 2xx and msg holding the {"error"} text otherwise.
func (c *Client) do(ctx context.Context, op, method, path string, authenticated bool, in, out any) (status int, msg string, err error) {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, "", fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, "", fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated {
		token, err := c.tokens.Load()
		if err != nil {
			return 0, "", fmt.Errorf("%s: load token: %w", op, err)
		}
		if token == "" {
			return http.StatusUnauthorized, "no stored token", nil
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("auth api call")

	if resp.StatusCode >= 500 {
		return resp.StatusCode, "", &NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(readError(resp.Body))}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return resp.StatusCode, "", &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
			}
		}
		return resp.StatusCode, "", nil
	}

	return resp.StatusCode, readError(resp.Body), nil
}

// readError extracts the message from an {"error": "..."} body, falling back
// to the raw text.
func readError(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var env struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		return env.Error
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return "no error details"
}

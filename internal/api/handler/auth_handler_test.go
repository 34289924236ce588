package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mrms/resource-management/internal/api/middleware"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.User, error)
	currentFn  func(ctx context.Context, userID string) (*domain.User, error)
	logoutFn   func(ctx context.Context, claims ports.TokenClaims) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.currentFn(ctx, userID)
}

func (s *stubAuthService) Logout(ctx context.Context, claims ports.TokenClaims) error {
	return s.logoutFn(ctx, claims)
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func commanderClaims() ports.TokenClaims {
	return ports.TokenClaims{
		UserID:       "u-1",
		Username:     "commander1",
		Role:         domain.RoleBaseCommander,
		AssignedBase: "base-alpha",
		TokenID:      "tok-1",
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "commander1" || in.Role != domain.RoleBaseCommander || in.AssignedBase != "base-alpha" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u-1", Username: in.Username, FullName: in.FullName, Role: in.Role, AssignedBase: in.AssignedBase, PasswordHash: "hash"}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/auth/register",
		`{"username":"commander1","password":"password123","email":"c1@mrms.mil","fullName":"Alex Rivera","role":"BaseCommander","assignedBase":"base-alpha"}`)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user := resp["user"]
	if user["username"] != "commander1" || user["assignedBase"] != "base-alpha" || user["fullName"] != "Alex Rivera" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
}

func TestAuthHandler_Register_ServiceError(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _ := newTestContext(http.MethodPost, "/auth/register",
		`{"username":"commander1","password":"password123","role":"Admin"}`)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newTestContext(http.MethodPost, "/auth/register", "not-json")
	assertHTTPError(t, h.Register(c), http.StatusBadRequest)

	c, _ = newTestContext(http.MethodPost, "/auth/register", `{"username":"commander1","password":"short","role":"Admin"}`)
	assertHTTPError(t, h.Register(c), http.StatusUnprocessableEntity)

	c, _ = newTestContext(http.MethodPost, "/auth/register", `{"username":"commander1","password":"password123","role":"General"}`)
	assertHTTPError(t, h.Register(c), http.StatusUnprocessableEntity)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.User, error) {
			if username != "commander1" || password != "password123" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return "token123", &domain.User{Username: "commander1", Role: domain.RoleBaseCommander}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"username":"commander1","password":"password123"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "commander1" || user["role"] != "BaseCommander" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newTestContext(http.MethodPost, "/auth/login", `{"username":"commander1","password":"bad"}`)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newTestContext(http.MethodPost, "/auth/login", "{")
	assertHTTPError(t, h.Login(c), http.StatusBadRequest)

	c, _ = newTestContext(http.MethodPost, "/auth/login", `{"username":"commander1"}`)
	assertHTTPError(t, h.Login(c), http.StatusBadRequest)
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		currentFn: func(ctx context.Context, userID string) (*domain.User, error) {
			if userID != "u-1" {
				t.Fatalf("unexpected user id %q", userID)
			}
			return &domain.User{ID: "u-1", Username: "commander1", Role: domain.RoleBaseCommander, AssignedBase: "base-alpha"}, nil
		},
	}
	c, rec := newTestContext(http.MethodGet, "/auth/me", "")
	middleware.SetClaims(c, commanderClaims())

	if err := NewAuthHandler(stub).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if user.Username != "commander1" || user.AssignedBase != "base-alpha" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthHandler_Me_WithoutClaims(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/auth/me", "")
	assertHTTPError(t, NewAuthHandler(&stubAuthService{}).Me(c), http.StatusUnauthorized)
}

func TestAuthHandler_Logout(t *testing.T) {
	var got ports.TokenClaims
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, claims ports.TokenClaims) error {
			got = claims
			return nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/auth/logout", "")
	middleware.SetClaims(c, commanderClaims())

	if err := NewAuthHandler(stub).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got.TokenID != "tok-1" {
		t.Fatalf("expected claims to reach the service, got %+v", got)
	}
}

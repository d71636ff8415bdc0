package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/api/middleware"
	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			if in.Name != "Alice" || in.Email != "alice@example.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.RegisterResult{
				User:          &domain.User{ID: "u2", Name: in.Name, Email: in.Email, Role: domain.RoleAppSupport},
				NeedsApproval: true,
			}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret1"}`, nil)

	if err := NewAuthHandler(stub, false).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["needsApproval"] != true {
		t.Fatalf("expected needsApproval, got %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatal("password hash must not be serialised")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	cases := map[string]string{
		"short password": `{"name":"Alice","email":"alice@example.com","password":"123"}`,
		"bad email":      `{"name":"Alice","email":"alice","password":"secret1"}`,
		"short name":     `{"name":"A","email":"alice@example.com","password":"secret1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodPost, "/api/auth/register", body, nil)
			err := NewAuthHandler(stub, false).Register(c)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	c, _ := newTestContext(http.MethodPost, "/api/auth/register", "not-json", nil)

	err := NewAuthHandler(&stubAuthService{}, false).Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/auth/register",
		`{"name":"Bob","email":"bob@example.com","password":"secret1"}`, nil)

	if err := NewAuthHandler(stub, false).Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.Session, error) {
			if email != "alice@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.Session{Token: "token123", TokenID: "jti", ExpiresAt: expires, User: &domain.User{ID: "u1"}}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`, nil)

	if err := NewAuthHandler(stub, true).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" {
		t.Fatalf("expected token, got %q", resp.Token)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != middleware.SessionCookie || ck.Value != "token123" || !ck.HttpOnly || !ck.Secure {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.Session, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"bad"}`, nil)

	if err := NewAuthHandler(stub, false).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("no cookie expected on failure")
	}
}

func TestAuthHandler_SignOut(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	var gotID string
	stub := &stubAuthService{
		signOutFn: func(ctx context.Context, tokenID string, expiresAt time.Time) error {
			gotID = tokenID
			return nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/signout", "", memberPrincipal)
	c.Set("token_id", "jti-9")
	c.Set("token_expires", expires)

	if err := NewAuthHandler(stub, false).SignOut(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotID != "jti-9" {
		t.Fatalf("expected token id to be revoked, got %q", gotID)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("expected cleared cookie, got %+v", cookies)
	}
}

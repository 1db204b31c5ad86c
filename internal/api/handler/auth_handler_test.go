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

	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
)

type stubAuthService struct {
	registerFn    func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn       func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error)
	currentUserFn func(ctx context.Context, token string) (*domain.PublicUser, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, token string) (*domain.PublicUser, error) {
	return s.currentUserFn(ctx, token)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Email != "a@x.com" || in.Password != "secret1" || in.Name != "A" || in.Role != "" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				User:  domain.PublicUser{ID: "u1", Email: in.Email, Name: in.Name, Role: domain.RoleCustomer},
				Token: "tok",
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1","name":"A"}`), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["success"] != true {
		t.Fatalf("expected success envelope, got %v", resp)
	}
	data, _ := resp["data"].(map[string]any)
	user, ok := data["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response: %v", resp)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash must never be serialized")
	}
	if user["email"] != "a@x.com" || user["role"] != "customer" || data["token"] != "tok" {
		t.Fatalf("unexpected payload: %v", data)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1","name":"A"}`), rec)

	err := handler.Register(c)
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Message != "Failed to register user" {
		t.Fatalf("expected generic endpoint message, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := echo.New()
	handler := NewAuthHandler(&stubAuthService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":`), rec)

	if err := handler.Register(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			if in.Email != "a@x.com" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.RemoteIP == "" {
				t.Fatalf("expected remote ip to be forwarded")
			}
			return &ports.AuthResult{User: domain.PublicUser{ID: "u1", Email: in.Email}, Token: "tok"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"secret1"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, _ := decode(t, rec)["data"].(map[string]any)
	if data["token"] != "tok" {
		t.Fatalf("expected token, got %v", data)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := echo.New()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong12"}`), rec)

	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := echo.New()
	var gotToken string
	stub := &stubAuthService{
		currentUserFn: func(ctx context.Context, token string) (*domain.PublicUser, error) {
			gotToken = token
			if token == "" {
				return nil, domain.ErrUnauthorized
			}
			return &domain.PublicUser{ID: "u1", Email: "a@x.com"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()

	if err := handler.Me(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotToken != "abc.def.ghi" {
		t.Fatalf("expected bearer token to be extracted, got %q", gotToken)
	}
	data, _ := decode(t, rec)["data"].(map[string]any)
	if data["id"] != "u1" {
		t.Fatalf("unexpected user: %v", data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic Zm9vOmJhcg==")
	if err := handler.Me(e.NewContext(req, httptest.NewRecorder())); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-bearer header, got %v", err)
	}
}

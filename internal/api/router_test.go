package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/item-catalog/internal/api/middleware"
	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/service"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/db/memory"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/security"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	e      *echo.Echo
	tokens *security.JWTService
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	tokens, err := security.NewJWTService("router-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("jwt service: %v", err)
	}
	authSvc, err := service.NewAuthService(store.Users(), security.NewBcryptHasher(bcrypt.MinCost), tokens, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	e := NewRouter(Deps{
		AuthService:  authSvc,
		ItemService:  service.NewItemService(store.Items(), store.Users(), zerolog.Nop()),
		Tokens:       tokens,
		Policy:       middleware.DefaultAccessPolicy(),
		Logger:       zerolog.Nop(),
		Version:      "test",
		Dependencies: map[string]handlers.Pinger{"store": store},
		Registry:     prometheus.NewRegistry(),
	})
	return &testServer{e: e, tokens: tokens, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (int, apiResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, resp
}

type authData struct {
	User  map[string]any `json:"user"`
	Token string         `json:"token"`
}

type itemData struct {
	Item map[string]any `json:"item"`
}

func TestRouter_RegisterLoginAndGatedItems(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1","name":"A"}`, "")
	if code != http.StatusCreated || !resp.Success {
		t.Fatalf("register: expected 201, got %d %+v", code, resp)
	}
	var reg authData
	if err := json.Unmarshal(resp.Data, &reg); err != nil {
		t.Fatalf("register data: %v", err)
	}
	if _, leaked := reg.User["passwordHash"]; leaked {
		t.Fatalf("register response leaked the password hash")
	}
	if reg.User["role"] != "customer" || reg.Token == "" {
		t.Fatalf("unexpected register data: %+v", reg)
	}

	code, resp = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"secret1"}`, "")
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %+v", code, resp)
	}
	var login authData
	if err := json.Unmarshal(resp.Data, &login); err != nil {
		t.Fatalf("login data: %v", err)
	}

	regClaims, err := s.tokens.Verify(reg.Token)
	if err != nil {
		t.Fatalf("verify register token: %v", err)
	}
	loginClaims, err := s.tokens.Verify(login.Token)
	if err != nil {
		t.Fatalf("verify login token: %v", err)
	}
	if regClaims.Subject != loginClaims.Subject || regClaims.TokenID == loginClaims.TokenID {
		t.Fatalf("expected same subject and different jti: %+v %+v", regClaims, loginClaims)
	}

	code, _ = s.do(t, http.MethodGet, "/api/items", "", "")
	if code != http.StatusOK {
		t.Fatalf("public list: expected 200, got %d", code)
	}

	code, resp = s.do(t, http.MethodPost, "/api/items", `{"name":"Lamp"}`, "")
	if code != http.StatusUnauthorized || resp.Error != "Unauthorized" {
		t.Fatalf("anonymous create: expected 401 Unauthorized, got %d %+v", code, resp)
	}

	code, resp = s.do(t, http.MethodPost, "/api/items", `{"name":"Lamp"}`, login.Token)
	if code != http.StatusCreated {
		t.Fatalf("authenticated create: expected 201, got %d %+v", code, resp)
	}
	var created itemData
	_ = json.Unmarshal(resp.Data, &created)
	if created.Item["ownerId"] != loginClaims.Subject {
		t.Fatalf("expected caller to own the item, got %v", created.Item["ownerId"])
	}

	code, resp = s.do(t, http.MethodGet, "/api/auth/me", "", "")
	if code != http.StatusUnauthorized || resp.Error != "Unauthorized" {
		t.Fatalf("me without token: expected 401, got %d %+v", code, resp)
	}

	code, resp = s.do(t, http.MethodGet, "/api/auth/me", "", login.Token)
	if code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d %+v", code, resp)
	}
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1","name":"A"}`, "")

	codeWrong, wrong := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong12"}`, "")
	codeUnknown, unknown := s.do(t, http.MethodPost, "/api/auth/login", `{"email":"nobody@x.com","password":"secret1"}`, "")

	if codeWrong != http.StatusUnauthorized || codeUnknown != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", codeWrong, codeUnknown)
	}
	if wrong.Error != "Invalid credentials" || wrong.Error != unknown.Error {
		t.Fatalf("expected identical messages, got %q and %q", wrong.Error, unknown.Error)
	}
}

func TestRouter_DuplicateAndInvalidRegistration(t *testing.T) {
	s := newTestServer(t)
	body := `{"email":"a@x.com","password":"secret1","name":"A"}`
	s.do(t, http.MethodPost, "/api/auth/register", body, "")

	code, resp := s.do(t, http.MethodPost, "/api/auth/register", body, "")
	if code != http.StatusBadRequest || resp.Error != "Email already registered" {
		t.Fatalf("duplicate: expected 400, got %d %+v", code, resp)
	}

	code, resp = s.do(t, http.MethodPost, "/api/auth/register", `{"email":"not-an-email","password":"123","name":""}`, "")
	if code != http.StatusBadRequest || resp.Success {
		t.Fatalf("invalid: expected 400, got %d %+v", code, resp)
	}
}

func TestRouter_InvalidAndExpiredTokens(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(t, http.MethodDelete, "/api/items/abc", "", "not.a.jwt")
	if code != http.StatusUnauthorized || resp.Error != "Invalid token" {
		t.Fatalf("garbage token: expected 401 Invalid token, got %d %+v", code, resp)
	}

	other, _ := security.NewJWTService("some-other-secret", time.Hour)
	forged, _ := other.Issue(domain.Identity{UserID: "u1", Role: domain.RoleCustomer})
	code, resp = s.do(t, http.MethodGet, "/api/auth/me", "", forged)
	if code != http.StatusUnauthorized || resp.Error != "Invalid token" {
		t.Fatalf("foreign token: expected 401 Invalid token, got %d %+v", code, resp)
	}
}

func TestRouter_MeForDeletedUser(t *testing.T) {
	s := newTestServer(t)
	_, resp := s.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1","name":"A"}`, "")
	var reg authData
	_ = json.Unmarshal(resp.Data, &reg)

	claims, _ := s.tokens.Verify(reg.Token)
	s.store.DeleteUser(claims.Subject)

	code, resp := s.do(t, http.MethodGet, "/api/auth/me", "", reg.Token)
	if code != http.StatusNotFound || resp.Error != "User not found" {
		t.Fatalf("expected 404 User not found, got %d %+v", code, resp)
	}
}

func TestRouter_ItemLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, resp := s.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1","name":"A"}`, "")
	var reg authData
	_ = json.Unmarshal(resp.Data, &reg)

	_, resp = s.do(t, http.MethodPost, "/api/items", `{"name":"Lamp","description":"desk lamp"}`, reg.Token)
	var created itemData
	_ = json.Unmarshal(resp.Data, &created)
	id, _ := created.Item["id"].(string)
	if id == "" {
		t.Fatalf("create: expected data.item.id, got %s", resp.Data)
	}

	code, resp := s.do(t, http.MethodGet, "/api/items/"+id, "", "")
	var fetched itemData
	_ = json.Unmarshal(resp.Data, &fetched)
	if code != http.StatusOK || fetched.Item["name"] != "Lamp" {
		t.Fatalf("get: expected data.item, got %d %s", code, resp.Data)
	}

	code, resp = s.do(t, http.MethodPatch, "/api/items/"+id, `{"name":"Floor lamp"}`, reg.Token)
	var patched itemData
	_ = json.Unmarshal(resp.Data, &patched)
	if code != http.StatusOK || patched.Item["name"] != "Floor lamp" || patched.Item["description"] != "desk lamp" {
		t.Fatalf("patch: expected 200 with data.item, got %d %s", code, resp.Data)
	}

	code, resp = s.do(t, http.MethodGet, "/api/items?q=FLOOR", "", "")
	if code != http.StatusOK || !strings.Contains(string(resp.Data), `"total":1`) {
		t.Fatalf("search: got %d %s", code, resp.Data)
	}

	for _, target := range []string{"/api/items?page=0", "/api/items?pageSize=0", "/api/items?pageSize=101"} {
		code, resp = s.do(t, http.MethodGet, target, "", "")
		if code != http.StatusBadRequest || resp.Success {
			t.Fatalf("%s: expected 400, got %d %+v", target, code, resp)
		}
	}

	code, resp = s.do(t, http.MethodDelete, "/api/items/"+id, "", reg.Token)
	if code != http.StatusOK || string(resp.Data) != "null" {
		t.Fatalf("delete: expected 200 with null data, got %d %s", code, resp.Data)
	}

	code, resp = s.do(t, http.MethodGet, "/api/items/"+id, "", "")
	if code != http.StatusNotFound || resp.Error != "Item not found" {
		t.Fatalf("get deleted: expected 404, got %d %+v", code, resp)
	}
}

func TestRouter_SpoofedIdentityHeaderIsStripped(t *testing.T) {
	s := newTestServer(t)
	var seen string
	s.e.GET("/api/echo-identity", func(c echo.Context) error {
		seen = c.Request().Header.Get(middleware.HeaderUserID)
		return c.JSON(http.StatusOK, map[string]any{"success": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/echo-identity", nil)
	req.Header.Set(middleware.HeaderUserID, "admin-id")
	s.e.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "" {
		t.Fatalf("spoofed header reached the handler: %q", seen)
	}
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(t, http.MethodGet, "/api/health", "", "")
	if code != http.StatusOK || !strings.Contains(string(resp.Data), `"version":"test"`) {
		t.Fatalf("liveness: got %d %s", code, resp.Data)
	}

	code, _ = s.do(t, http.MethodGet, "/api/health/ready", "", "")
	if code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d", code)
	}
}

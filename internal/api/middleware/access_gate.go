package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/item-catalog/internal/api/metrics"
	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/security"
)

// AccessPolicy is the route-protection table. A request is protected when its
// path falls under one of ProtectedPrefixes, or under WritePrefix with one of
// WriteMethods. Prefixes match whole path segments.
type AccessPolicy struct {
	ProtectedPrefixes []string
	WritePrefix       string
	WriteMethods      []string
}

// DefaultAccessPolicy protects the current-user endpoint and every mutating
// call on items. Reads of items stay public.
func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{
		ProtectedPrefixes: []string{"/api/auth/me"},
		WritePrefix:       "/api/items",
		WriteMethods:      []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}
}

// Requires reports whether a request with method and path needs a valid token.
func (p AccessPolicy) Requires(method, path string) bool {
	for _, prefix := range p.ProtectedPrefixes {
		if underPrefix(path, prefix) {
			return true
		}
	}
	if p.WritePrefix == "" || !underPrefix(path, p.WritePrefix) {
		return false
	}
	for _, m := range p.WriteMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func (p AccessPolicy) clone() AccessPolicy {
	return AccessPolicy{
		ProtectedPrefixes: append([]string(nil), p.ProtectedPrefixes...),
		WritePrefix:       p.WritePrefix,
		WriteMethods:      append([]string(nil), p.WriteMethods...),
	}
}

func underPrefix(path, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Decision is the outcome of evaluating one request.
type Decision int

const (
	// Public requests are forwarded without identity.
	Public Decision = iota
	// Authenticated requests are forwarded with a verified identity.
	Authenticated
	// Rejected requests are answered with an error and never forwarded.
	Rejected
)

// AccessGate decides, per request, whether a verified identity is required
// and attaches it when present. It holds no per-request state.
type AccessGate struct {
	policy AccessPolicy
	tokens ports.TokenVerifier
}

// NewAccessGate copies policy so later changes by the caller have no effect.
func NewAccessGate(policy AccessPolicy, tokens ports.TokenVerifier) *AccessGate {
	return &AccessGate{policy: policy.clone(), tokens: tokens}
}

// Evaluate is the pure decision function over (method, path, Authorization).
// Missing credentials yield domain.ErrUnauthorized without consulting the
// token verifier; a present but bad token yields domain.ErrInvalidToken.
func (g *AccessGate) Evaluate(method, path, authorization string) (Decision, *domain.Identity, error) {
	if !g.policy.Requires(method, path) {
		return Public, nil, nil
	}

	token, ok := security.ExtractBearer(authorization)
	if !ok {
		return Rejected, nil, domain.ErrUnauthorized
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return Rejected, nil, domain.ErrInvalidToken
	}

	id := claims.Identity()
	return Authenticated, &id, nil
}

// Middleware adapts the gate to echo. It must wrap every API route.
func (g *AccessGate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			req.Header.Del(HeaderUserID)
			req.Header.Del(HeaderUserRole)

			decision, id, err := g.Evaluate(req.Method, req.URL.Path, req.Header.Get(echo.HeaderAuthorization))
			switch decision {
			case Rejected:
				if err == domain.ErrUnauthorized {
					metrics.AccessDecisionsTotal.WithLabelValues("unauthorized").Inc()
				} else {
					metrics.AccessDecisionsTotal.WithLabelValues("invalid_token").Inc()
				}
				return err
			case Authenticated:
				metrics.AccessDecisionsTotal.WithLabelValues("authenticated").Inc()
				req.Header.Set(HeaderUserID, id.UserID)
				req.Header.Set(HeaderUserRole, string(id.Role))
				c.SetRequest(req.WithContext(WithIdentity(req.Context(), *id)))
				c.Set(ContextUserID, id.UserID)
				c.Set(ContextRole, string(id.Role))
			default:
				metrics.AccessDecisionsTotal.WithLabelValues("public").Inc()
			}
			return next(c)
		}
	}
}

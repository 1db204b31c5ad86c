package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// DefaultTokenTTL is the absolute validity window of a session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrMissingSecret is returned by NewJWTService when no signing secret is
// configured. Callers must treat it as fatal at startup.
var ErrMissingSecret = errors.New("token signing secret is not configured")

var signingMethod = jwt.SigningMethodHS256

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 session tokens carrying
// {sub, role, jti, iat, exp}. It holds no mutable state and is safe for
// concurrent use.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a JWTService.
type Option func(*JWTService)

// WithClock overrides the time source used for issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewJWTService returns a token service signing with secret. A ttl <= 0
// selects DefaultTokenTTL.
func NewJWTService(secret string, ttl time.Duration, opts ...Option) (*JWTService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a fresh token for identity. Every call gets a new jti.
func (s *JWTService) Issue(identity domain.Identity) (string, error) {
	if identity.UserID == "" || !identity.Role.Valid() {
		return "", fmt.Errorf("issue token: incomplete identity (sub=%q role=%q)", identity.UserID, identity.Role)
	}

	now := s.now().UTC()
	claims := sessionClaims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and claim shape. Any failure is
// reported as domain.ErrInvalidToken; a token whose expiry equals the current
// time is already expired.
func (s *JWTService) Verify(token string) (*domain.SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &sessionClaims{}
	tkn, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	role := domain.Role(claims.Role)
	if claims.Subject == "" || claims.ID == "" || !role.Valid() || claims.IssuedAt == nil {
		return nil, domain.ErrInvalidToken
	}

	return &domain.SessionClaims{
		Subject:   claims.Subject,
		Role:      role,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

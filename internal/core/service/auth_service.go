package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/item-catalog/internal/api/metrics"
	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
	"github.com/sirpyerre/item-catalog/internal/pkg/validation"
)

// dummyPassword is hashed once at construction so that logins for unknown
// emails spend the same bcrypt time as logins with a wrong password.
const dummyPassword = "catalog-timing-equaliser"

// maxPasswordBytes is bcrypt's input limit. The validator's max counts runes,
// so the byte length is checked separately.
const maxPasswordBytes = 72

type registerPayload struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
	Name     string `validate:"required,min=1"`
	Role     string `validate:"omitempty,oneof=admin customer"`
}

type loginPayload struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
}

// AuthService implements registration, login and token resolution.
type AuthService struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenService
	limiter   ports.LoginLimiter
	audit     ports.AuditPublisher
	validate  *validation.Validator
	dummyHash string
	log       zerolog.Logger
}

// AuthOption configures optional AuthService collaborators.
type AuthOption func(*AuthService)

// WithLoginLimiter enables failed-login throttling.
func WithLoginLimiter(l ports.LoginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithAuditPublisher routes register/login outcomes to an audit trail.
func WithAuditPublisher(p ports.AuditPublisher) AuthOption {
	return func(s *AuthService) { s.audit = p }
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	log zerolog.Logger,
	opts ...AuthOption,
) (*AuthService, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare dummy hash: %w", err)
	}

	s := &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		limiter:   noopLimiter{},
		audit:     noopPublisher{},
		validate:  validation.New(),
		dummyHash: dummy,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a customer (or the requested role) account and returns the
// sanitized user together with a fresh session token.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if err := s.validate.Struct(registerPayload{Email: in.Email, Password: in.Password, Name: in.Name, Role: string(in.Role)}); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if err := checkPasswordBytes(in.Password); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:        in.Email,
		Name:         in.Name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrDuplicateEmail
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	token, err := s.tokens.Issue(domain.Identity{UserID: created.ID, Role: created.Role})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	s.audit.Publish(domain.AuthEvent{
		Type:     domain.AuthEventRegister,
		UserID:   created.ID,
		Email:    created.Email,
		RemoteIP: in.RemoteIP,
		Success:  true,
		At:       now,
	})

	return &ports.AuthResult{User: created.Public(), Token: token}, nil
}

// Login verifies credentials and issues a new token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	if err := s.validate.Struct(loginPayload{Email: in.Email, Password: in.Password}); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if err := checkPasswordBytes(in.Password); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if err := s.limiter.Check(ctx, in.Email); err != nil {
		if errors.Is(err, domain.ErrTooManyAttempts) {
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
			s.publishLogin(domain.AuthEventLoginThrottled, "", in)
			return nil, err
		}
		s.log.Warn().Err(err).Msg("login limiter check failed, continuing")
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: lookup email: %w", err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := s.hasher.Verify(in.Password, hash)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if user == nil || !ok {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		if err := s.limiter.RecordFailure(ctx, in.Email); err != nil {
			s.log.Warn().Err(err).Msg("failed to record login failure")
		}
		s.publishLogin(domain.AuthEventLoginFailed, "", in)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.limiter.Reset(ctx, in.Email); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login limiter")
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.publishLogin(domain.AuthEventLogin, user.ID, in)

	return &ports.AuthResult{User: user.Public(), Token: token}, nil
}

// CurrentUser resolves a bearer token to the user it names. A token for a
// user deleted after issuance verifies but resolves to ErrUserNotFound.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.PublicUser, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("current user: %w", err)
	}

	public := user.Public()
	return &public, nil
}

func (s *AuthService) publishLogin(kind domain.AuthEventType, userID string, in ports.LoginInput) {
	s.audit.Publish(domain.AuthEvent{
		Type:     kind,
		UserID:   userID,
		Email:    in.Email,
		RemoteIP: in.RemoteIP,
		Success:  kind == domain.AuthEventLogin,
		At:       time.Now().UTC(),
	})
}

func checkPasswordBytes(password string) error {
	if len(password) > maxPasswordBytes {
		return domain.NewValidationError("password must be at most 72 bytes")
	}
	return nil
}

type noopLimiter struct{}

func (noopLimiter) Check(context.Context, string) error         { return nil }
func (noopLimiter) RecordFailure(context.Context, string) error { return nil }
func (noopLimiter) Reset(context.Context, string) error         { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(domain.AuthEvent) {}

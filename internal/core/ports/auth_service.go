package ports

import (
	"context"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// RegisterInput carries the fields accepted by registration. An empty Role
// means the default role.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
	RemoteIP string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
	RemoteIP string
}

// AuthResult is returned by successful registration and login.
type AuthResult struct {
	User  domain.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// AuthService orchestrates registration, login and token resolution.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	CurrentUser(ctx context.Context, token string) (*domain.PublicUser, error)
}

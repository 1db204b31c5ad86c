package ports

import (
	"context"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when no user has the id.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create assigns the id and returns domain.ErrDuplicateEmail when the
	// email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

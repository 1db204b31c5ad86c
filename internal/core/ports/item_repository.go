package ports

import (
	"context"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// ListItemsFilter carries the query parameters for listing items.
type ListItemsFilter struct {
	Query  string // optional: case-insensitive match on name or description
	Offset int
	Limit  int
}

// ItemUpdate holds the fields to change; nil fields are left untouched.
type ItemUpdate struct {
	Name        *string
	Description *string
}

// ItemRepository defines persistence operations for items.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	// FindByID returns domain.ErrItemNotFound when absent.
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	// List returns a page of items, newest first, and the total match count.
	List(ctx context.Context, filter ListItemsFilter) ([]*domain.Item, int64, error)
	Update(ctx context.Context, id string, update ItemUpdate) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
}

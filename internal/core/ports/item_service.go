package ports

import (
	"context"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// Paging bounds for the list endpoint. DefaultPageSize applies only when the
// caller does not send pageSize at all.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListItemsInput carries the parameters for the list endpoint. Page and
// PageSize are taken as given; callers fill in defaults for absent values.
type ListItemsInput struct {
	Page     int
	PageSize int
	Query    string
}

// ListItemsResult is returned by ItemService.List.
type ListItemsResult struct {
	Items    []*domain.Item `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// CreateItemInput carries the fields for a new item. When OwnerID is empty,
// CallerID (the authenticated subject, if any) becomes the owner.
type CreateItemInput struct {
	Name        string
	Description string
	OwnerID     string
	CallerID    string
}

// ItemService defines use-case operations for items.
type ItemService interface {
	List(ctx context.Context, input ListItemsInput) (*ListItemsResult, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	Create(ctx context.Context, input CreateItemInput) (*domain.Item, error)
	Update(ctx context.Context, id string, update ItemUpdate) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/item-catalog/internal/api/metrics"
	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
)

type ItemService struct {
	items  ports.ItemRepository
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewItemService(items ports.ItemRepository, users ports.UserRepository, logger zerolog.Logger) *ItemService {
	return &ItemService{items: items, users: users, logger: logger}
}

// List returns one page of items, newest first.
func (s *ItemService) List(ctx context.Context, in ports.ListItemsInput) (*ports.ListItemsResult, error) {
	if in.Page < 1 {
		return nil, domain.NewValidationError("page must be a positive integer")
	}
	if in.PageSize < 1 || in.PageSize > ports.MaxPageSize {
		return nil, domain.NewValidationError(fmt.Sprintf("pageSize must be between 1 and %d", ports.MaxPageSize))
	}

	items, total, err := s.items.List(ctx, ports.ListItemsFilter{
		Query:  strings.TrimSpace(in.Query),
		Offset: (in.Page - 1) * in.PageSize,
		Limit:  in.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []*domain.Item{}
	}

	return &ports.ListItemsResult{
		Items:    items,
		Total:    total,
		Page:     in.Page,
		PageSize: in.PageSize,
	}, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	return s.items.FindByID(ctx, id)
}

// Create stores a new item. An explicit owner must exist; otherwise the
// authenticated caller, when known, becomes the owner.
func (s *ItemService) Create(ctx context.Context, in ports.CreateItemInput) (*domain.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("name is required")
	}

	owner := in.OwnerID
	if owner != "" {
		if _, err := s.users.FindByID(ctx, owner); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrOwnerNotFound
			}
			return nil, fmt.Errorf("create item: lookup owner: %w", err)
		}
	} else {
		owner = in.CallerID
	}

	now := time.Now().UTC()
	item, err := s.items.Create(ctx, &domain.Item{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create item")
		return nil, err
	}

	metrics.ItemsMutationsTotal.WithLabelValues("create").Inc()
	s.logger.Info().Str("item_id", item.ID).Str("owner_id", owner).Msg("item created")
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, id string, update ports.ItemUpdate) (*domain.Item, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, domain.NewValidationError("name must not be empty")
	}

	item, err := s.items.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	metrics.ItemsMutationsTotal.WithLabelValues("update").Inc()
	s.logger.Info().Str("item_id", id).Msg("item updated")
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, id string) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}

	metrics.ItemsMutationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

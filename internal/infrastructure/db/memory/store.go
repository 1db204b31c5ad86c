// Package memory provides mutex-guarded in-process repositories. It backs
// the "memory" store driver used for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
)

// Store holds users, items and audit events in memory.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*domain.User // by id
	byEmail map[string]string       // email -> id
	items   map[string]*domain.Item
	events  []domain.AuthEvent
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
		items:   make(map[string]*domain.Item),
	}
}

// Users returns the store's UserRepository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Items returns the store's ItemRepository view.
func (s *Store) Items() *ItemRepository { return &ItemRepository{s: s} }

// Ping always succeeds; it satisfies the readiness check contract.
func (s *Store) Ping(context.Context) error { return nil }

// Record appends an audit event.
func (s *Store) Record(_ context.Context, event domain.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded audit events.
func (s *Store) Events() []domain.AuthEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuthEvent, len(s.events))
	copy(out, s.events)
	return out
}

// DeleteUser removes a user. Outstanding tokens for it keep verifying until
// they expire; resolving them reports domain.ErrUserNotFound.
func (s *Store) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.users, id)
	}
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.byEmail[user.Email]; exists {
		return nil, domain.ErrDuplicateEmail
	}
	stored := cloneUser(user)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.s.users[stored.ID] = stored
	r.s.byEmail[stored.Email] = stored.ID
	return cloneUser(stored), nil
}

type ItemRepository struct {
	s *Store
}

func (r *ItemRepository) Create(_ context.Context, item *domain.Item) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := cloneItem(item)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.s.items[stored.ID] = stored
	return cloneItem(stored), nil
}

func (r *ItemRepository) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(it), nil
}

func (r *ItemRepository) List(_ context.Context, filter ports.ListItemsFilter) ([]*domain.Item, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(filter.Query)
	matched := make([]*domain.Item, 0, len(r.s.items))
	for _, it := range r.s.items {
		if q == "" ||
			strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Description), q) {
			matched = append(matched, it)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []*domain.Item{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}

	page := make([]*domain.Item, 0, end-filter.Offset)
	for _, it := range matched[filter.Offset:end] {
		page = append(page, cloneItem(it))
	}
	return page, total, nil
}

func (r *ItemRepository) Update(_ context.Context, id string, update ports.ItemUpdate) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if update.Name != nil {
		it.Name = *update.Name
	}
	if update.Description != nil {
		it.Description = *update.Description
	}
	it.UpdatedAt = time.Now().UTC()
	return cloneItem(it), nil
}

func (r *ItemRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.s.items, id)
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func cloneItem(it *domain.Item) *domain.Item {
	if it == nil {
		return nil
	}
	clone := *it
	return &clone
}

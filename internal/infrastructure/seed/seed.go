// Package seed loads users and items from a YAML fixture.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
)

//go:embed default.yaml
var defaultFixture []byte

// Fixture is the YAML document shape. Item owners are referenced by email.
type Fixture struct {
	Users []UserFixture `yaml:"users"`
	Items []ItemFixture `yaml:"items"`
}

type UserFixture struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

type ItemFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Owner       string `yaml:"owner"`
}

// Result counts what a seeding run changed.
type Result struct {
	UsersCreated int
	UsersSkipped int
	ItemsCreated int
	ItemsSkipped int
}

// Seeder writes fixtures through the repositories. Running it twice with the
// same fixture creates nothing the second time.
type Seeder struct {
	users  ports.UserRepository
	items  ports.ItemRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewSeeder(users ports.UserRepository, items ports.ItemRepository, hasher ports.PasswordHasher, log zerolog.Logger) *Seeder {
	return &Seeder{users: users, items: items, hasher: hasher, log: log}
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// SeedFromFile loads path, or the built-in demo fixture when path is empty.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (Result, error) {
	data := defaultFixture
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return Result{}, fmt.Errorf("read fixture: %w", err)
		}
	}
	f, err := Parse(data)
	if err != nil {
		return Result{}, err
	}
	return s.Seed(ctx, f)
}

func (s *Seeder) Seed(ctx context.Context, f *Fixture) (Result, error) {
	var res Result
	owners := make(map[string]string, len(f.Users))

	for _, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			continue
		}
		existing, err := s.users.FindByEmail(ctx, u.Email)
		if err == nil {
			owners[u.Email] = existing.ID
			res.UsersSkipped++
			continue
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}

		role := domain.Role(u.Role)
		if role == "" {
			role = domain.RoleCustomer
		}
		if !role.Valid() {
			return res, fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}

		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		now := time.Now().UTC()
		created, err := s.users.Create(ctx, &domain.User{
			Email:        u.Email,
			Name:         u.Name,
			Role:         role,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		owners[u.Email] = created.ID
		res.UsersCreated++
	}

	for _, it := range f.Items {
		if it.Name == "" {
			continue
		}
		exists, err := s.itemExists(ctx, it.Name)
		if err != nil {
			return res, fmt.Errorf("seed item %s: %w", it.Name, err)
		}
		if exists {
			res.ItemsSkipped++
			continue
		}

		ownerID, err := s.ownerID(ctx, owners, it.Owner)
		if err != nil {
			return res, fmt.Errorf("seed item %s: %w", it.Name, err)
		}
		now := time.Now().UTC()
		if _, err := s.items.Create(ctx, &domain.Item{
			Name:        it.Name,
			Description: it.Description,
			OwnerID:     ownerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return res, fmt.Errorf("seed item %s: %w", it.Name, err)
		}
		res.ItemsCreated++
	}

	s.log.Info().
		Int("users_created", res.UsersCreated).
		Int("users_skipped", res.UsersSkipped).
		Int("items_created", res.ItemsCreated).
		Int("items_skipped", res.ItemsSkipped).
		Msg("seed complete")
	return res, nil
}

func (s *Seeder) ownerID(ctx context.Context, known map[string]string, email string) (string, error) {
	if email == "" {
		return "", nil
	}
	if id, ok := known[email]; ok {
		return id, nil
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrOwnerNotFound
		}
		return "", err
	}
	known[email] = u.ID
	return u.ID, nil
}

// itemExists reports whether an item with exactly this name is stored.
func (s *Seeder) itemExists(ctx context.Context, name string) (bool, error) {
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		items, total, err := s.items.List(ctx, ports.ListItemsFilter{Query: name, Offset: offset, Limit: pageSize})
		if err != nil {
			return false, err
		}
		for _, it := range items {
			if it.Name == name {
				return true, nil
			}
		}
		if len(items) == 0 || int64(offset+len(items)) >= total {
			return false, nil
		}
	}
}

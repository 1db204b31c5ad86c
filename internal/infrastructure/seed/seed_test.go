package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/db/memory"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/security"
)

const fixtureYAML = `
users:
  - email: admin@example.com
    password: password123
    name: Admin User
    role: admin
  - email: customer@example.com
    password: password123
    name: Customer One
items:
  - name: Lamp
    description: Desk lamp
    owner: admin@example.com
  - name: Chair
    owner: customer@example.com
  - name: Orphan
`

func newSeeder(store *memory.Store) *Seeder {
	return NewSeeder(store.Users(), store.Items(), security.NewBcryptHasher(bcrypt.MinCost), zerolog.Nop())
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeedFromFile_IsIdempotent(t *testing.T) {
	store := memory.NewStore()
	s := newSeeder(store)
	path := writeFixture(t, fixtureYAML)
	ctx := context.Background()

	first, err := s.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Result{UsersCreated: 2, ItemsCreated: 3}, first)

	second, err := s.SeedFromFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Result{UsersSkipped: 2, ItemsSkipped: 3}, second)

	customer, err := store.Users().FindByEmail(ctx, "customer@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, customer.Role)
	assert.NotEqual(t, "password123", customer.PasswordHash)

	items, total, err := store.Items().List(ctx, ports.ListItemsFilter{Query: "lamp", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	admin, _ := store.Users().FindByEmail(ctx, "admin@example.com")
	assert.Equal(t, admin.ID, items[0].OwnerID)
}

func TestSeed_UnknownOwner(t *testing.T) {
	s := newSeeder(memory.NewStore())
	f := &Fixture{Items: []ItemFixture{{Name: "Lamp", Owner: "ghost@example.com"}}}

	_, err := s.Seed(context.Background(), f)
	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)
}

func TestSeed_UnknownRole(t *testing.T) {
	s := newSeeder(memory.NewStore())
	f := &Fixture{Users: []UserFixture{{Email: "a@x.com", Password: "secret1", Role: "root"}}}

	_, err := s.Seed(context.Background(), f)
	assert.ErrorContains(t, err, "unknown role")
}

func TestSeedFromFile_DefaultFixture(t *testing.T) {
	store := memory.NewStore()
	res, err := newSeeder(store).SeedFromFile(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.UsersCreated)
	assert.Equal(t, 20, res.ItemsCreated)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("users: [unterminated"))
	assert.Error(t, err)
}

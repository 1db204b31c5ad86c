package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
)

const itemColumns = `id, name, description, owner_id, created_at, updated_at`

// searchClause matches $1 case-insensitively against name or description;
// an empty $1 matches everything.
const searchClause = `($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')`

// ItemRepository implements ports.ItemRepository.
type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		it    domain.Item
		owner sql.NullString
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &owner, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.OwnerID = owner.String
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return &it, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	created := *item
	created.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		created.ID, created.Name, created.Description,
		sql.NullString{String: created.OwnerID, Valid: created.OwnerID != ""},
		created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return &created, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrItemNotFound
	}
	it, err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return it, nil
}

// List returns one page of items, newest first, with the total match count.
func (r *ItemRepository) List(ctx context.Context, f ports.ListItemsFilter) ([]*domain.Item, int64, error) {
	q := escapeLike(f.Query)

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE `+searchClause, q,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+searchClause+
			` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		q, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Item, 0, f.Limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", err)
	}
	return items, total, nil
}

// Update sets the non-nil fields and returns the updated row.
func (r *ItemRepository) Update(ctx context.Context, id string, u ports.ItemUpdate) (*domain.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrItemNotFound
	}
	it, err := scanItem(r.db.QueryRowContext(ctx,
		`UPDATE items SET name = COALESCE($2, name), description = COALESCE($3, description), updated_at = $4
		 WHERE id = $1 RETURNING `+itemColumns,
		id, nullable(u.Name), nullable(u.Description), time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrItemNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirpyerre/item-catalog/internal/core/domain"
)

// AuditRepository writes auth events to the auth_events table.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, event domain.AuthEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_events (type, user_id, email, remote_ip, success, at) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(event.Type),
		sql.NullString{String: event.UserID, Valid: event.UserID != ""},
		event.Email, event.RemoteIP, event.Success, event.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// auditTimeFormat is fixed-width so lexicographic order matches
// chronological order in the created_at index
const auditTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// AuditRepository handles audit trail operations in SQLite
type AuditRepository struct {
	conn   *Connection
	logger *slog.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(conn *Connection, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{
		conn:   conn,
		logger: logger,
	}
}

// Insert stores one audit entry
func (r *AuditRepository) Insert(ctx context.Context, e entity.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, action, kind, item_id, entity_value, entity_type, performed_by, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.conn.DB().ExecContext(ctx, query,
		e.ID, e.Action, string(e.Kind), e.ItemID, e.EntityValue, e.EntityType,
		e.PerformedBy, e.Detail, e.CreatedAt.UTC().Format(auditTimeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// Recent returns the latest audit entries, newest first
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]entity.AuditEntry, error) {
	query := `
		SELECT id, action, kind, item_id, entity_value, entity_type, performed_by, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.conn.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]entity.AuditEntry, 0, limit)
	for rows.Next() {
		var e entity.AuditEntry
		var kind, createdAt string
		if err := rows.Scan(&e.ID, &e.Action, &kind, &e.ItemID, &e.EntityValue,
			&e.EntityType, &e.PerformedBy, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		e.Kind = entity.ItemKind(kind)
		ts, err := time.Parse(auditTimeFormat, createdAt)
		if err != nil {
			r.logger.Warn("Audit entry has malformed timestamp", "id", e.ID, "value", createdAt)
		} else {
			e.CreatedAt = ts
		}

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}

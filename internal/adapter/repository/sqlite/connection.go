package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Connection wraps the audit database handle
type Connection struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnection opens the SQLite database at path, enables WAL mode and
// ensures the schema exists
func NewConnection(path string, logger *slog.Logger) (*Connection, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Connected to audit database", "path", path)

	return &Connection{
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the underlying handle
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Ping tests the connection
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database
func (c *Connection) Close() error {
	return c.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	kind TEXT NOT NULL,
	item_id TEXT NOT NULL,
	entity_value TEXT,
	entity_type TEXT,
	performed_by TEXT,
	detail TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
CREATE INDEX IF NOT EXISTS idx_audit_log_item_id ON audit_log(item_id);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return nil
}

package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/soanorm/internal/soa"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// WriteSQLite writes all five tables to a SQLite database file in one
// transaction.
func WriteSQLite(ctx context.Context, path string, tables *soa.Tables) error {
	client, err := NewSQLiteClient(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	defer func() { _ = client.Close() }()

	return writeSQL(ctx, client.GetDB(), tables)
}

// writeSQL runs the DDL and inserts through database/sql; shared by the
// SQLite and MySQL sinks, which both use ? placeholders.
func writeSQL(ctx context.Context, db *sql.DB, tables *soa.Tables) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	for _, batch := range batches(tables) {
		stmt, err := tx.PrepareContext(ctx, insertStatement(batch, false))
		if err != nil {
			return fmt.Errorf("failed to prepare insert for %s: %w", batch.table, err)
		}
		for _, row := range batch.rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				_ = stmt.Close()
				return fmt.Errorf("failed to insert into %s: %w", batch.table, err)
			}
		}
		if err := stmt.Close(); err != nil {
			return fmt.Errorf("failed to close statement for %s: %w", batch.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

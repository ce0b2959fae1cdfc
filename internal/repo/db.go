package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xxxsen/vecdash/internal/pkg/dbutil"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so a repo can run inside
// the seeding transaction or directly on the pool.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// seededTables are the tables whose serial ids may be written explicitly.
var seededTables = map[string]struct{}{
	"users":      {},
	"documents":  {},
	"embeddings": {},
}

// Truncate empties every demo table and restarts their id sequences.
func Truncate(ctx context.Context, db DBTX) error {
	_, err := db.ExecContext(ctx, "TRUNCATE users, documents, embeddings RESTART IDENTITY CASCADE")
	return err
}

// AdvanceSequence moves a serial sequence past the largest id in use, so
// rows inserted with explicit ids do not collide with generated ones.
func AdvanceSequence(ctx context.Context, db DBTX, table string) error {
	if _, ok := seededTables[table]; !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	query := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
		table, table,
	)
	_, err := db.ExecContext(ctx, query)
	return err
}

func insertReturningID(ctx context.Context, db DBTX, table string, data map[string]interface{}, build func(string, []map[string]interface{}) (string, []interface{}, error)) (int64, error) {
	sqlStr, args, err := build(table, []map[string]interface{}{data})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr+" RETURNING id", args)
	var id int64
	if err := db.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

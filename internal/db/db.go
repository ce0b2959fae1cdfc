package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vecdash/internal/config"
	"github.com/xxxsen/vecdash/internal/pkg/dbutil"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const embeddingTypePlaceholder = "{{embedding_type}}"

// VectorKind is the storage strategy of the embedding column. It is chosen
// once when the schema is first created and persisted in schema_meta.
type VectorKind string

const (
	// VectorKindNative stores vector(n) and ranks with the pgvector <=> operator.
	VectorKindNative VectorKind = "vector"
	// VectorKindArray stores real[] and ranks in process.
	VectorKindArray VectorKind = "array"
)

const (
	metaVectorKind = "vector_kind"
	metaDimension  = "dimension"
)

func (k VectorKind) ColumnType(dim int) string {
	if k == VectorKindNative {
		return fmt.Sprintf("vector(%d)", dim)
	}
	return "real[]"
}

func (k VectorKind) Valid() bool {
	return k == VectorKindNative || k == VectorKindArray
}

func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, &appErr.ConnectionError{Err: err}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &appErr.ConnectionError{Err: err}
	}
	return db, nil
}

// EnsureSchema creates the tables if missing and returns the vector
// strategy in effect. Safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *sql.DB, dim int) (VectorKind, error) {
	logger := logutil.GetLogger(ctx)
	if err := applyFile(ctx, db, "001_schema_meta.sql", ""); err != nil {
		return "", err
	}
	kind, storedDim, err := readMeta(ctx, db)
	if err != nil {
		return "", err
	}
	if storedDim != 0 && storedDim != dim {
		return "", fmt.Errorf("schema was created with dimension %d, configured dimension is %d", storedDim, dim)
	}
	if kind == "" {
		kind, err = detectExistingKind(ctx, db)
		if err != nil {
			return "", err
		}
	}
	switch {
	case kind == "":
		kind = detectVectorKind(ctx, db)
	case kind == VectorKindNative:
		if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return "", fmt.Errorf("schema uses pgvector but extension is unavailable: %w", err)
		}
	}
	logger.Info("vector storage selected", zap.String("kind", string(kind)), zap.Int("dimension", dim))

	files, err := migrationFiles()
	if err != nil {
		return "", err
	}
	for _, file := range files {
		if file == "001_schema_meta.sql" {
			continue
		}
		if err := applyFile(ctx, db, file, kind.ColumnType(dim)); err != nil {
			return "", err
		}
	}
	if err := writeMeta(ctx, db, kind, dim); err != nil {
		return "", err
	}
	return kind, nil
}

// LoadVectorKind reads the strategy persisted by EnsureSchema.
func LoadVectorKind(ctx context.Context, db *sql.DB) (VectorKind, error) {
	kind, _, err := readMeta(ctx, db)
	if err != nil {
		if dbutil.IsUndefinedTable(err) {
			return "", fmt.Errorf("schema metadata missing, run seed first: %w", err)
		}
		return "", err
	}
	if kind == "" {
		return "", fmt.Errorf("schema metadata missing, run seed first")
	}
	return kind, nil
}

func detectVectorKind(ctx context.Context, db *sql.DB) VectorKind {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logutil.GetLogger(ctx).Warn("pgvector extension not available, using real[] for embeddings", zap.Error(err))
		return VectorKindArray
	}
	logutil.GetLogger(ctx).Info("pgvector extension enabled")
	return VectorKindNative
}

// detectExistingKind inspects an embeddings table created before schema
// metadata existed.
func detectExistingKind(ctx context.Context, db *sql.DB) (VectorKind, error) {
	const query = `
		SELECT udt_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'embeddings' AND column_name = 'embedding'
	`
	var udt string
	if err := db.QueryRowContext(ctx, query).Scan(&udt); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	if udt == "vector" {
		return VectorKindNative, nil
	}
	return VectorKindArray, nil
}

func readMeta(ctx context.Context, db *sql.DB) (VectorKind, int, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM schema_meta WHERE key IN ($1, $2)`, metaVectorKind, metaDimension)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = rows.Close() }()
	var kind VectorKind
	var dim int
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", 0, err
		}
		switch key {
		case metaVectorKind:
			kind = VectorKind(value)
			if !kind.Valid() {
				return "", 0, fmt.Errorf("unknown vector kind %q in schema_meta", value)
			}
		case metaDimension:
			dim, err = strconv.Atoi(value)
			if err != nil {
				return "", 0, fmt.Errorf("invalid dimension %q in schema_meta", value)
			}
		}
	}
	return kind, dim, rows.Err()
}

func writeMeta(ctx context.Context, db *sql.DB, kind VectorKind, dim int) error {
	const query = `INSERT INTO schema_meta (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`
	if _, err := db.ExecContext(ctx, query, metaVectorKind, string(kind)); err != nil {
		return fmt.Errorf("persist vector kind: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, metaDimension, strconv.Itoa(dim)); err != nil {
		return fmt.Errorf("persist dimension: %w", err)
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// renderStatements splits a migration file into statements with the
// embedding column type substituted.
func renderStatements(content, embeddingType string) []string {
	content = strings.ReplaceAll(content, embeddingTypePlaceholder, embeddingType)
	var stmts []string
	for _, q := range strings.Split(content, ";") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		stmts = append(stmts, q)
	}
	return stmts
}

func applyFile(ctx context.Context, db *sql.DB, file, embeddingType string) error {
	content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
	if err != nil {
		return err
	}
	for _, q := range renderStatements(string(content), embeddingType) {
		if _, err := db.ExecContext(ctx, q); err != nil {
			if dbutil.IsAlreadyExists(err) {
				continue
			}
			return fmt.Errorf("execute query in %s: %w", file, err)
		}
	}
	return nil
}

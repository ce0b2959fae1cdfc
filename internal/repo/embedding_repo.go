package repo

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vecdash/internal/db"
	"github.com/xxxsen/vecdash/internal/model"
	"github.com/xxxsen/vecdash/internal/pkg/dbutil"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
	"github.com/xxxsen/vecdash/internal/pkg/vecmath"
)

// NewEmbedding is a row to append to the embeddings table.
type NewEmbedding struct {
	DocumentID int64
	Content    string
	Vector     []float32
}

// EmbeddingRepo reads and writes embeddings using the storage strategy
// fixed at schema creation.
type EmbeddingRepo struct {
	db   DBTX
	kind db.VectorKind
	dim  int
}

func NewEmbeddingRepo(conn DBTX, kind db.VectorKind, dim int) *EmbeddingRepo {
	return &EmbeddingRepo{db: conn, kind: kind, dim: dim}
}

func (r *EmbeddingRepo) Kind() db.VectorKind {
	return r.kind
}

func (r *EmbeddingRepo) encode(vec []float32) (driver.Valuer, error) {
	if len(vec) != r.dim {
		return nil, appErr.NewValidationError("embedding must have %d dimensions, got %d", r.dim, len(vec))
	}
	if r.kind == db.VectorKindNative {
		return pgvector.NewVector(vec), nil
	}
	return pq.Float32Array(vec), nil
}

func (r *EmbeddingRepo) Insert(ctx context.Context, item NewEmbedding) (int64, error) {
	value, err := r.encode(item.Vector)
	if err != nil {
		return 0, err
	}
	const query = `INSERT INTO embeddings (doc_id, content, embedding) VALUES ($1, $2, $3) RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, item.DocumentID, item.Content, value).Scan(&id); err != nil {
		if dbutil.IsForeignKeyViolation(err) {
			return 0, fmt.Errorf("document %d: %w", item.DocumentID, appErr.ErrNotFound)
		}
		return 0, err
	}
	return id, nil
}

// InsertIfAbsent appends the row unless one with the same document and
// content already exists.
func (r *EmbeddingRepo) InsertIfAbsent(ctx context.Context, item NewEmbedding) (bool, error) {
	value, err := r.encode(item.Vector)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
		INSERT INTO embeddings (doc_id, content, embedding)
		SELECT $1::integer, $2::text, $3::%s
		WHERE NOT EXISTS (SELECT 1 FROM embeddings WHERE doc_id = $1::integer AND content = $2::text)
	`, r.kind.ColumnType(r.dim))
	result, err := r.db.ExecContext(ctx, query, item.DocumentID, item.Content, value)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// InsertBatch appends all rows and returns how many were written. The first
// failure stops the batch; run it inside a transaction to keep it atomic.
func (r *EmbeddingRepo) InsertBatch(ctx context.Context, items []NewEmbedding) (int, error) {
	for i, item := range items {
		if _, err := r.Insert(ctx, item); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

// List returns every embedding with its vector, in id order.
func (r *EmbeddingRepo) List(ctx context.Context) ([]model.Embedding, error) {
	const query = `SELECT id, doc_id, content, embedding::real[] FROM embeddings ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []model.Embedding{}
	for rows.Next() {
		var item model.Embedding
		var vec pq.Float32Array
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.Content, &vec); err != nil {
			return nil, err
		}
		item.Vector = []float32(vec)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Search returns the limit embeddings most similar to query by cosine
// similarity, best first, ties by ascending id.
func (r *EmbeddingRepo) Search(ctx context.Context, query []float32, limit int) ([]model.SearchResult, error) {
	if err := vecmath.CheckDimension(query, r.dim); err != nil {
		return nil, err
	}
	if r.kind == db.VectorKindNative {
		return r.searchNative(ctx, query, limit)
	}
	return r.searchArray(ctx, query, limit)
}

func (r *EmbeddingRepo) searchNative(ctx context.Context, query []float32, limit int) ([]model.SearchResult, error) {
	const sqlStr = `
		SELECT e.id, e.doc_id, d.title, e.content, 1 - (e.embedding <=> $1::vector) AS score
		FROM embeddings e
		JOIN documents d ON d.id = e.doc_id
		WHERE e.embedding IS NOT NULL AND vector_norm(e.embedding) > 0
		ORDER BY e.embedding <=> $1::vector, e.id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, sqlStr, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	results := []model.SearchResult{}
	for rows.Next() {
		var item model.SearchResult
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.DocumentTitle, &item.Content, &item.Score); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *EmbeddingRepo) searchArray(ctx context.Context, query []float32, limit int) ([]model.SearchResult, error) {
	const sqlStr = `
		SELECT e.id, e.doc_id, d.title, e.content, e.embedding
		FROM embeddings e
		JOIN documents d ON d.id = e.doc_id
		WHERE e.embedding IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	byID := make(map[int64]model.SearchResult)
	var candidates []vecmath.Candidate
	for rows.Next() {
		var item model.SearchResult
		var vec pq.Float32Array
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.DocumentTitle, &item.Content, &vec); err != nil {
			return nil, err
		}
		if len(vec) != r.dim {
			logutil.GetLogger(ctx).Warn("stored embedding has wrong dimension, ignored",
				zap.Int64("id", item.ID), zap.Int("dimension", len(vec)), zap.Int("expected", r.dim))
			continue
		}
		if vecmath.IsZero(vec) {
			continue
		}
		byID[item.ID] = item
		candidates = append(candidates, vecmath.Candidate{ID: item.ID, Vector: []float32(vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	matches := vecmath.Rank(query, candidates, limit)
	results := make([]model.SearchResult, 0, len(matches))
	for _, m := range matches {
		item := byID[m.ID]
		item.Score = m.Score
		results = append(results, item)
	}
	return results, nil
}

package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/vecdash/internal/model"
	"github.com/xxxsen/vecdash/internal/pkg/dbutil"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
)

type DocumentRepo struct {
	db DBTX
}

func NewDocumentRepo(db DBTX) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"user_id": doc.UserID,
		"title":   doc.Title,
	}
	if doc.ID != 0 {
		data["id"] = doc.ID
	}
	id, err := insertReturningID(ctx, r.db, "documents", data, builder.BuildInsert)
	if err != nil {
		if dbutil.IsForeignKeyViolation(err) {
			return appErr.ErrNotFound
		}
		return err
	}
	doc.ID = id
	return nil
}

func (r *DocumentRepo) CreateIfAbsent(ctx context.Context, doc *model.Document) (bool, error) {
	data := map[string]interface{}{
		"id":      doc.ID,
		"user_id": doc.UserID,
		"title":   doc.Title,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr+" ON CONFLICT (id) DO NOTHING", args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *DocumentRepo) List(ctx context.Context) ([]model.Document, error) {
	where := map[string]interface{}{"_orderby": "id asc"}
	return r.list(ctx, where)
}

func (r *DocumentRepo) ListByUser(ctx context.Context, userID int64) ([]model.Document, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "id asc"}
	return r.list(ctx, where)
}

func (r *DocumentRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{"id", "user_id", "title", "upload_date"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := []model.Document{}
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.UploadDate); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

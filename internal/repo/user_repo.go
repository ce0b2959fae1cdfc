package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/vecdash/internal/model"
	"github.com/xxxsen/vecdash/internal/pkg/dbutil"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user. A zero ID lets the database assign one; the
// assigned ID is written back to user.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"email": user.Email,
		"tier":  user.Tier,
	}
	if user.ID != 0 {
		data["id"] = user.ID
	}
	id, err := insertReturningID(ctx, r.db, "users", data, builder.BuildInsert)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	user.ID = id
	return nil
}

// CreateIfAbsent inserts a user with an explicit ID, leaving an existing
// row with the same ID or email untouched. It reports whether a row was written.
func (r *UserRepo) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	data := map[string]interface{}{
		"id":    user.ID,
		"email": user.Email,
		"tier":  user.Tier,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr+" ON CONFLICT DO NOTHING", args)
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

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	where := map[string]interface{}{"_orderby": "id asc"}
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"id", "email", "tier", "created_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	users := []model.User{}
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Tier, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"id", "email", "tier", "created_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	var user model.User
	if err := rows.Scan(&user.ID, &user.Email, &user.Tier, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user. Documents and embeddings follow through the
// ON DELETE CASCADE foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := builder.BuildDelete("users", map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vecdash/internal/repo"
)

type UserService struct {
	users *repo.UserRepo
	docs  *repo.DocumentRepo
}

func NewUserService(users *repo.UserRepo, docs *repo.DocumentRepo) *UserService {
	return &UserService{users: users, docs: docs}
}

// Delete removes a user together with its documents and their embeddings.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	docs, err := s.docs.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("user deleted",
		zap.Int64("user_id", userID),
		zap.String("email", user.Email),
		zap.Int("documents", len(docs)),
	)
	return nil
}

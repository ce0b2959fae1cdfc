package service

import (
	"context"
	"database/sql"

	"github.com/xxxsen/vecdash/internal/model"
	"github.com/xxxsen/vecdash/internal/repo"
)

type Overview struct {
	Users      []model.User      `json:"users"`
	Documents  []model.Document  `json:"documents"`
	Embeddings []model.Embedding `json:"embeddings"`
}

// DashboardService serves the read-only listing and count endpoints.
type DashboardService struct {
	db         *sql.DB
	users      *repo.UserRepo
	docs       *repo.DocumentRepo
	embeddings *repo.EmbeddingRepo
	stats      *repo.StatsRepo
}

func NewDashboardService(conn *sql.DB, users *repo.UserRepo, docs *repo.DocumentRepo, embeddings *repo.EmbeddingRepo, stats *repo.StatsRepo) *DashboardService {
	return &DashboardService{db: conn, users: users, docs: docs, embeddings: embeddings, stats: stats}
}

func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, err
	}
	embeddings, err := s.embeddings.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{Users: users, Documents: docs, Embeddings: embeddings}, nil
}

func (s *DashboardService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *DashboardService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.docs.List(ctx)
}

func (s *DashboardService) ListEmbeddings(ctx context.Context) ([]model.Embedding, error) {
	return s.embeddings.List(ctx)
}

func (s *DashboardService) Stats(ctx context.Context) (*model.Stats, error) {
	return s.stats.Counts(ctx)
}

func (s *DashboardService) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package repo

import (
	"context"

	"github.com/xxxsen/vecdash/internal/model"
)

type StatsRepo struct {
	db DBTX
}

func NewStatsRepo(db DBTX) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) Counts(ctx context.Context) (*model.Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM embeddings)
	`
	var stats model.Stats
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Users, &stats.Documents, &stats.Embeddings); err != nil {
		return nil, err
	}
	return &stats, nil
}

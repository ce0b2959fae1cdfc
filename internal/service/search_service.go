package service

import (
	"context"

	"github.com/xxxsen/vecdash/internal/model"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
	"github.com/xxxsen/vecdash/internal/pkg/vecmath"
)

// EmbeddingSearcher ranks stored embeddings against a validated query.
type EmbeddingSearcher interface {
	Search(ctx context.Context, query []float32, limit int) ([]model.SearchResult, error)
}

type SearchService struct {
	searcher EmbeddingSearcher
	dim      int
	limit    int
}

func NewSearchService(searcher EmbeddingSearcher, dim, limit int) *SearchService {
	return &SearchService{searcher: searcher, dim: dim, limit: limit}
}

// Search parses a comma or space separated vector and returns the nearest
// embeddings. Malformed input fails with a ValidationError before the
// database is touched.
func (s *SearchService) Search(ctx context.Context, input string) ([]float32, []model.SearchResult, error) {
	query, err := vecmath.Parse(input, s.dim)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.SearchVector(ctx, query)
	if err != nil {
		return query, nil, err
	}
	return query, results, nil
}

func (s *SearchService) SearchVector(ctx context.Context, query []float32) ([]model.SearchResult, error) {
	if err := vecmath.CheckDimension(query, s.dim); err != nil {
		return nil, err
	}
	if vecmath.IsZero(query) {
		return nil, appErr.NewValidationError("query vector must not be all zeros")
	}
	results, err := s.searcher.Search(ctx, query, s.limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	return results, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vecdash/internal/db"
	"github.com/xxxsen/vecdash/internal/model"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
	"github.com/xxxsen/vecdash/internal/repo"
	"github.com/xxxsen/vecdash/internal/source"
)

// CSVSource binds a bulk-load input to the document its rows belong to.
type CSVSource struct {
	URI        string
	DocumentID int64
}

type SeedOptions struct {
	// Reset truncates all tables before seeding.
	Reset   bool
	Sources []CSVSource
}

type SeedReport struct {
	UsersInserted      int `json:"users_inserted"`
	DocumentsInserted  int `json:"documents_inserted"`
	EmbeddingsInserted int `json:"embeddings_inserted"`
	RowsSkipped        int `json:"rows_skipped"`
	SourcesMissing     int `json:"sources_missing"`
}

type sampleEmbedding struct {
	DocumentID int64
	Content    string
	Vector     []float32
}

var (
	sampleUsers = []model.User{
		{ID: 5, Email: "alice@example.com", Tier: model.TierPro},
		{ID: 42, Email: "bob@hk-tech.edu", Tier: model.TierFree},
	}
	sampleDocuments = []model.Document{
		{ID: 1, UserID: 42, Title: "Climate_Report.pdf"},
		{ID: 2, UserID: 5, Title: "AI_Ethics_v2.pdf"},
		{ID: 3, UserID: 5, Title: "DeepSeek_Architecture.pdf"},
	}
	sampleEmbeddings = []sampleEmbedding{
		{DocumentID: 1, Content: "Global temperatures rose by 1.5 degrees...", Vector: []float32{0.1, 0.9, 0.2}},
		{DocumentID: 2, Content: "The alignment problem in LLMs refers to...", Vector: []float32{0.7, 0.1, 0.8}},
	}
	// DefaultCSVSources are picked up by seed when present next to the binary.
	DefaultCSVSources = []CSVSource{
		{URI: "climate_report.csv", DocumentID: 1},
		{URI: "ai_ethics.csv", DocumentID: 2},
		{URI: "deepseek_architecture.csv", DocumentID: 3},
	}
)

type SeedService struct {
	db         *sql.DB
	kind       db.VectorKind
	dim        int
	sourceOpts source.Options
}

func NewSeedService(conn *sql.DB, kind db.VectorKind, dim int, sourceOpts source.Options) *SeedService {
	return &SeedService{db: conn, kind: kind, dim: dim, sourceOpts: sourceOpts}
}

// Seed writes the sample rows and any CSV sources in one transaction. Any
// database error rolls everything back.
func (s *SeedService) Seed(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	logger := logutil.GetLogger(ctx)
	report := &SeedReport{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		users := repo.NewUserRepo(tx)
		docs := repo.NewDocumentRepo(tx)
		embeddings := repo.NewEmbeddingRepo(tx, s.kind, s.dim)

		if opts.Reset {
			logger.Info("cleaning up existing data")
			if err := repo.Truncate(ctx, tx); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
		}

		logger.Info("inserting sample users")
		for i := range sampleUsers {
			user := sampleUsers[i]
			ok, err := users.CreateIfAbsent(ctx, &user)
			if err != nil {
				return fmt.Errorf("insert user %s: %w", user.Email, err)
			}
			if ok {
				report.UsersInserted++
			}
		}

		logger.Info("inserting sample documents")
		for i := range sampleDocuments {
			doc := sampleDocuments[i]
			ok, err := docs.CreateIfAbsent(ctx, &doc)
			if err != nil {
				return fmt.Errorf("insert document %s: %w", doc.Title, err)
			}
			if ok {
				report.DocumentsInserted++
			}
		}
		for _, table := range []string{"users", "documents"} {
			if err := repo.AdvanceSequence(ctx, tx, table); err != nil {
				return fmt.Errorf("advance %s sequence: %w", table, err)
			}
		}

		logger.Info("inserting sample embeddings")
		for _, item := range sampleEmbeddings {
			ok, err := embeddings.InsertIfAbsent(ctx, repo.NewEmbedding{
				DocumentID: item.DocumentID,
				Content:    item.Content,
				Vector:     item.Vector,
			})
			if err != nil {
				return fmt.Errorf("insert sample embedding for document %d: %w", item.DocumentID, err)
			}
			if ok {
				report.EmbeddingsInserted++
			}
		}

		for _, src := range opts.Sources {
			inserted, skipped, err := s.loadSource(ctx, embeddings, src)
			if errors.Is(err, source.ErrNotFound) {
				logger.Warn("csv source not found, skipping", zap.String("source", src.URI))
				report.SourcesMissing++
				continue
			}
			if err != nil {
				return err
			}
			report.EmbeddingsInserted += inserted
			report.RowsSkipped += skipped
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("database seeded",
		zap.Int("users", report.UsersInserted),
		zap.Int("documents", report.DocumentsInserted),
		zap.Int("embeddings", report.EmbeddingsInserted),
		zap.Int("skipped_rows", report.RowsSkipped),
	)
	return report, nil
}

// LoadCSV appends one bulk-load source to an existing document.
func (s *SeedService) LoadCSV(ctx context.Context, src CSVSource) (*SeedReport, error) {
	report := &SeedReport{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := repo.NewDocumentRepo(tx).Exists(ctx, src.DocumentID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("document %d: %w", src.DocumentID, appErr.ErrNotFound)
		}
		inserted, skipped, err := s.loadSource(ctx, repo.NewEmbeddingRepo(tx, s.kind, s.dim), src)
		if err != nil {
			return err
		}
		report.EmbeddingsInserted = inserted
		report.RowsSkipped = skipped
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *SeedService) loadSource(ctx context.Context, embeddings *repo.EmbeddingRepo, src CSVSource) (int, int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("source", src.URI), zap.Int64("doc_id", src.DocumentID))
	rc, err := source.Open(ctx, src.URI, s.sourceOpts)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = rc.Close() }()

	logger.Info("reading csv source")
	rows, skipped, err := ParseEmbeddingRows(ctx, rc, s.dim)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %s: %w", src.URI, err)
	}
	items := make([]repo.NewEmbedding, 0, len(rows))
	for _, row := range rows {
		items = append(items, repo.NewEmbedding{DocumentID: src.DocumentID, Content: row.Content, Vector: row.Vector})
	}
	inserted, err := embeddings.InsertBatch(ctx, items)
	if err != nil {
		return 0, 0, fmt.Errorf("import %s: %w", src.URI, err)
	}
	logger.Info("csv source imported", zap.Int("rows", inserted), zap.Int("skipped", len(skipped)))
	return inserted, len(skipped), nil
}

func (s *SeedService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/vecdash/internal/config"
	"github.com/xxxsen/vecdash/internal/model"
	appErr "github.com/xxxsen/vecdash/internal/pkg/errors"
	"github.com/xxxsen/vecdash/internal/repo"
	"github.com/xxxsen/vecdash/internal/service"
	"github.com/xxxsen/vecdash/internal/source"
	"github.com/xxxsen/vecdash/internal/testutil"
)

func TestSeedIsRerunnable(t *testing.T) {
	conn, kind, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	seeder := service.NewSeedService(conn, kind, config.Dimension, source.Options{})

	report, err := seeder.Seed(ctx, service.SeedOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, report.UsersInserted)
	require.Equal(t, 3, report.DocumentsInserted)
	require.Equal(t, 2, report.EmbeddingsInserted)

	report, err = seeder.Seed(ctx, service.SeedOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, report.UsersInserted)
	require.Equal(t, 0, report.EmbeddingsInserted)

	stats, err := repo.NewStatsRepo(conn).Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Stats{Users: 2, Documents: 3, Embeddings: 2}, *stats)

	// explicit seed ids must not collide with generated ones
	extra := &model.User{Email: "carol@example.com", Tier: model.TierFree}
	require.NoError(t, repo.NewUserRepo(conn).Create(ctx, extra))
	require.Greater(t, extra.ID, int64(42))
}

func TestSeedWithCSVSources(t *testing.T) {
	conn, kind, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "climate_report.csv")
	content := "Sea levels are rising,0.2,0.8,0.1\ntext,0.1,0.2\nArctic ice shrinks,0.15,0.95,0.05\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o600))

	seeder := service.NewSeedService(conn, kind, config.Dimension, source.Options{})
	report, err := seeder.Seed(ctx, service.SeedOptions{
		Sources: []service.CSVSource{
			{URI: csvPath, DocumentID: 1},
			{URI: filepath.Join(dir, "missing.csv"), DocumentID: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 4, report.EmbeddingsInserted)
	require.Equal(t, 1, report.RowsSkipped)
	require.Equal(t, 1, report.SourcesMissing)

	report, err = seeder.LoadCSV(ctx, service.CSVSource{URI: csvPath, DocumentID: 3})
	require.NoError(t, err)
	require.Equal(t, 2, report.EmbeddingsInserted)

	_, err = seeder.LoadCSV(ctx, service.CSVSource{URI: csvPath, DocumentID: 404})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	report, err = seeder.Seed(ctx, service.SeedOptions{Reset: true})
	require.NoError(t, err)
	require.Equal(t, 2, report.EmbeddingsInserted)
	stats, err := repo.NewStatsRepo(conn).Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Embeddings)
}

func TestSearchAgainstSeededData(t *testing.T) {
	conn, kind, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.NewSeedService(conn, kind, config.Dimension, source.Options{}).Seed(ctx, service.SeedOptions{})
	require.NoError(t, err)

	search := service.NewSearchService(repo.NewEmbeddingRepo(conn, kind, config.Dimension), config.Dimension, config.SearchLimit)
	_, results, err := search.Search(ctx, "0.15 0.85 0.15")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "Global temperatures rose by 1.5 degrees...", results[0].Content)
	require.Equal(t, "Climate_Report.pdf", results[0].DocumentTitle)
	require.Greater(t, results[0].Score, results[1].Score)
}

func TestUserServiceDeleteCascades(t *testing.T) {
	conn, kind, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := service.NewSeedService(conn, kind, config.Dimension, source.Options{}).Seed(ctx, service.SeedOptions{})
	require.NoError(t, err)

	users := service.NewUserService(repo.NewUserRepo(conn), repo.NewDocumentRepo(conn))
	require.NoError(t, users.Delete(ctx, 5))

	stats, err := repo.NewStatsRepo(conn).Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Stats{Users: 1, Documents: 1, Embeddings: 1}, *stats)
}

package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVectorKindColumnType(t *testing.T) {
	require.Equal(t, "vector(3)", VectorKindNative.ColumnType(3))
	require.Equal(t, "real[]", VectorKindArray.ColumnType(3))
	require.True(t, VectorKindNative.Valid())
	require.False(t, VectorKind("blob").Valid())
}

func TestMigrationFilesSorted(t *testing.T) {
	files, err := migrationFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"001_schema_meta.sql", "002_init.sql"}, files)
}

func TestRenderStatementsSubstitutesEmbeddingType(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/002_init.sql")
	require.NoError(t, err)

	stmts := renderStatements(string(content), "vector(3)")
	require.Len(t, stmts, 5)
	for _, stmt := range stmts {
		require.NotContains(t, stmt, embeddingTypePlaceholder)
		require.True(t, strings.HasPrefix(stmt, "CREATE "), stmt)
		require.Contains(t, stmt, "IF NOT EXISTS")
	}
	require.Contains(t, stmts[3], "embedding vector(3)")
	require.Contains(t, stmts[3], "REFERENCES documents(id) ON DELETE CASCADE")
	require.Contains(t, stmts[1], "REFERENCES users(id) ON DELETE CASCADE")

	fallback := renderStatements(string(content), "real[]")
	require.Contains(t, fallback[3], "embedding real[]")
}

package dbutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM users WHERE email = ? AND tier = ?", []interface{}{"a@b.c", "pro"})
	require.Equal(t, "SELECT id FROM users WHERE email = $1 AND tier = $2", query)
	require.Equal(t, []interface{}{"a@b.c", "pro"}, args)
}

func TestFinalizeRewritesLimitOffset(t *testing.T) {
	query, args := Finalize("SELECT id FROM documents WHERE user_id = ? LIMIT ?,?", []interface{}{5, 20, 10})
	require.Equal(t, "SELECT id FROM documents WHERE user_id = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{5, 10, 20}, args)
}

func TestPgErrorClassification(t *testing.T) {
	conflict := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	require.True(t, IsConflict(conflict))
	require.False(t, IsForeignKeyViolation(conflict))

	fk := &pq.Error{Code: "23503"}
	require.True(t, IsForeignKeyViolation(fk))

	require.True(t, IsAlreadyExists(&pq.Error{Code: "42P07"}))
	require.True(t, IsAlreadyExists(errors.New(`relation "users" already exists`)))
	require.False(t, IsAlreadyExists(errors.New("syntax error")))
	require.False(t, IsAlreadyExists(nil))
}

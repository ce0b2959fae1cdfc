package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesInvalid(t *testing.T) {
	err := fmt.Errorf("search: %w", NewValidationError("expected %d values, got %d", 3, 2))
	require.True(t, IsValidation(err))
	require.True(t, errors.Is(err, ErrInvalid))
	require.EqualError(t, err, "search: expected 3 values, got 2")
}

func TestConnectionErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("open db: %w", &ConnectionError{Err: cause})
	require.True(t, IsConnection(err))
	require.ErrorIs(t, err, cause)
	require.False(t, IsValidation(err))
}

func TestSkippedRowWarningMessage(t *testing.T) {
	w := &SkippedRowWarning{Line: 4, Reason: "expected 4 fields, got 3"}
	require.Equal(t, "line 4 skipped: expected 4 fields, got 3", w.Error())
}

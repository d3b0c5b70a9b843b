package repoerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("load: %w", NotFound("account", "42"))
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, &Error{Kind: EntityNotFound, Entity: "account"})
	require.NotErrorIs(t, err, &Error{Kind: EntityNotFound, Entity: "category"})

	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, EntityNotFound, kind)
	require.Equal(t, "entity not found: account 42", As(err).Error())
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Save("transaction", cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrSaveFailed)
	require.Equal(t, "save failed: transaction: disk full", err.Error())
}

func TestUntypedErrorHasNoKind(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	require.False(t, ok)
	require.Nil(t, As(errors.New("plain")))
}

func TestEveryKindHasAName(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds {
		name := k.String()
		require.NotContains(t, name, "kind(")
		require.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	require.Equal(t, "kind(0)", Kind(0).String())
}

package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/jaskledger/internal/database/repository"
	"github.com/jask/jaskledger/internal/domain"
)

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCheckSchemaBeforeAndAfterMigration(t *testing.T) {
	t.Parallel()
	db := openTemp(t)

	require.ErrorIs(t, CheckSchema(db), ErrSchemaOutdated)
	require.NoError(t, RunMigrations(db))
	require.NoError(t, RunMigrations(db), "second run is a no-op")
	require.NoError(t, CheckSchema(db))

	// The migrator must leave the handle usable.
	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTemp(t)
	require.NoError(t, RunMigrations(db))

	require.NoError(t, SeedDefaults(ctx, db, "UAH"))
	require.NoError(t, SeedDefaults(ctx, db, "UAH"))

	cats, err := repository.NewCategoryRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(DefaultCategories))
	require.Equal(t, domain.KeyGroceries, cats[0].Name)
	require.Equal(t, SeedID("cat", domain.KeyGroceries), cats[0].ID)
	for _, c := range cats {
		require.NoError(t, c.Validate())
	}

	accts, err := repository.NewAccountRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, accts, 1)
	require.True(t, accts[0].IsDefault)
	require.Equal(t, DefaultAccountTag, accts[0].Tag)
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTemp(t)
	require.NoError(t, RunMigrations(db))

	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		if err := repository.NewSettingsRepo(tx).Set(ctx, "k", "v"); err != nil {
			return err
		}
		return sql.ErrTxDone
	})
	require.ErrorIs(t, err, sql.ErrTxDone)

	_, ok, err := repository.NewSettingsRepo(db).Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUniqueTagIsConstraint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTemp(t)
	require.NoError(t, RunMigrations(db))
	require.NoError(t, SeedDefaults(ctx, db, "UAH"))

	repo := repository.NewAccountRepo(db)
	dup := domain.Account{ID: SeedID("acct", "other"), Name: "dup", Tag: "#CASH", Type: domain.AccountCash, Currency: "UAH", CreatedAt: Now(), UpdatedAt: Now()}
	err := repo.Insert(ctx, dup)
	require.Error(t, err)
	require.True(t, IsConstraint(err))
}

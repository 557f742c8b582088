package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/cashledger/internal/database/repository"
	"github.com/jask/cashledger/internal/ledger"
)

func TestSeedDefaults_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "seed.db")
	migrations, err := filepath.Abs("migrations")
	require.NoError(t, err)
	require.NoError(t, RunMigrations(dbPath, migrations))
	require.NoError(t, RunMigrations(dbPath, migrations))

	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	accounts := []ledger.Account{{ID: "bcp-pen", Currency: "PEN", Kind: ledger.KindBank, Label: "BCP soles"}}
	require.NoError(t, SeedDefaults(ctx, db, accounts, nil))
	require.NoError(t, SeedDefaults(ctx, db, accounts, nil))

	got, err := repository.NewAccountRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	bands, err := repository.NewFeeBandRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, bands, len(DefaultFeeBands))
}

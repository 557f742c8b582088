package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jask/cashledger/internal/database/repository"
	"github.com/jask/cashledger/internal/ledger"
)

// DefaultFeeBands is the financial-transaction tax table used when none is
// configured.
var DefaultFeeBands = []ledger.FeeBand{
	{RangeStart: decimal.RequireFromString("0"), RangeEnd: decimal.RequireFromString("999.99"), FixedFee: decimal.Zero},
	{RangeStart: decimal.RequireFromString("1000"), RangeEnd: decimal.RequireFromString("1999.99"), FixedFee: decimal.RequireFromString("0.05")},
	{RangeStart: decimal.RequireFromString("2000"), RangeEnd: decimal.RequireFromString("2999.99"), FixedFee: decimal.RequireFromString("0.10")},
	{RangeStart: decimal.RequireFromString("3000"), RangeEnd: decimal.RequireFromString("3999.99"), FixedFee: decimal.RequireFromString("0.15")},
	{RangeStart: decimal.RequireFromString("4000"), RangeEnd: decimal.RequireFromString("4999.99"), FixedFee: decimal.RequireFromString("0.20")},
	{RangeStart: decimal.RequireFromString("5000"), RangeEnd: decimal.RequireFromString("9999999.99"), FixedFee: decimal.RequireFromString("0.25")},
}

// SeedDefaults registers configured accounts and fills the fee band table
// when it is empty. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, accounts []ledger.Account, bands []ledger.FeeBand) error {
	acctRepo := repository.NewAccountRepo(db)
	for _, a := range accounts {
		if err := acctRepo.Upsert(ctx, a); err != nil {
			return fmt.Errorf("seed account %s: %w", a.ID, err)
		}
	}

	bandRepo := repository.NewFeeBandRepo(db)
	n, err := bandRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count fee bands: %w", err)
	}
	if n > 0 {
		return nil
	}
	if len(bands) == 0 {
		bands = DefaultFeeBands
	}
	return bandRepo.Replace(ctx, bands)
}

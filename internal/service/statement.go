package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/cache"
	"github.com/jask/cashledger/internal/database/repository"
	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/logging"
	"github.com/jask/cashledger/internal/metrics"
	"github.com/jask/cashledger/internal/operations"
)

// StatementService answers read-only ledger queries.
type StatementService struct {
	Transactions *repository.TransactionRepo
	Accounts     *repository.AccountRepo
	FeeBands     *cache.FeeBands
	Operations   operations.Source
	DateLayout   string
	Logger       *zap.Logger
}

func (s *StatementService) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	accts, err := s.Accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accts, nil
}

// GetFeeBands returns the band table ordered by range start.
func (s *StatementService) GetFeeBands(ctx context.Context) ([]ledger.FeeBand, error) {
	bands, err := s.FeeBands.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fee bands: %w", err)
	}
	return bands, nil
}

// QuoteFee returns the fixed fee charged on amount.
func (s *StatementService) QuoteFee(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	bands, err := s.GetFeeBands(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.FeeFor(amount.Abs(), bands), nil
}

// GetStatement returns the balanced, reconciled rows of accountID dated in
// [start, end).
func (s *StatementService) GetStatement(ctx context.Context, accountID string, start, end time.Time) ([]ledger.StatementRow, error) {
	start, end = ledger.Day(start), ledger.Day(end)
	if !end.After(start) {
		return nil, ledger.ErrInvalidRange
	}
	if _, err := requireAccount(ctx, s.Accounts, accountID); err != nil {
		return nil, err
	}

	w, err := s.Transactions.Window(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("read ledger window: %w", err)
	}
	balanced := ledger.Accumulate(ledger.OpeningBalance(w.Prior), w.InRange)

	var ops []ledger.Operation
	if s.Operations != nil {
		opStart, opEnd := yearSpan(start, end)
		ops, err = s.Operations.ForMatching(ctx, accountID, opStart, opEnd)
		if err != nil {
			return nil, fmt.Errorf("load operations: %w", err)
		}
	}
	rows := ledger.Match(balanced, ops)

	bands, err := s.GetFeeBands(ctx)
	if err != nil {
		return nil, err
	}
	matched := 0
	for i := range rows {
		rows[i].ExpectedFee = ledger.FeeFor(rows[i].Principal(), bands)
		if rows[i].Status == ledger.Matched {
			matched++
		}
	}

	metrics.StatementRows.WithLabelValues(accountID, string(ledger.Matched)).Add(float64(matched))
	metrics.StatementRows.WithLabelValues(accountID, string(ledger.Unmatched)).Add(float64(len(rows) - matched))
	logging.OrNop(s.Logger).Debug("statement served",
		zap.String("account_id", accountID),
		zap.Int("rows", len(rows)),
		zap.Int("matched", matched),
		zap.Int("operations", len(ops)),
	)
	return rows, nil
}

// ExportStatement flattens rows for tabular output.
func (s *StatementService) ExportStatement(rows []ledger.StatementRow) []ledger.FlatRow {
	return ledger.Export(rows, s.DateLayout)
}

// yearSpan widens [start, end) to whole calendar years. Matching is keyed by
// year, so an operation recorded before start can still own a row in range.
func yearSpan(start, end time.Time) (time.Time, time.Time) {
	last := end.AddDate(0, 0, -1)
	return time.Date(start.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(last.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/database/repository"
	"github.com/jask/cashledger/internal/events"
	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/logging"
	"github.com/jask/cashledger/internal/metrics"
)

// ImportService writes statement rows and opening balances. It is the only
// mutating surface of the ledger.
type ImportService struct {
	Transactions *repository.TransactionRepo
	Accounts     *repository.AccountRepo
	Events       events.Publisher
	Logger       *zap.Logger
}

// ImportResult summarizes one batch. Inserted+Duplicates counts the valid
// rows; Dropped counts rows rejected during normalization.
type ImportResult struct {
	BatchID    string                   `json:"batch_id"`
	Inserted   int                      `json:"inserted"`
	Duplicates int                      `json:"duplicates"`
	Dropped    int                      `json:"dropped"`
	Errors     []ledger.ValidationError `json:"-"`
}

func newBatchID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0)).String()
}

// ImportTransactions normalizes rows for accountID and stores them as one
// atomic batch. Rows already present under the import key are skipped, so
// re-importing a file inserts nothing.
func (s *ImportService) ImportTransactions(ctx context.Context, accountID string, rows []ledger.RawRow) (ImportResult, error) {
	logger := logging.OrNop(s.Logger).With(zap.String("account_id", accountID))
	start := time.Now()

	if _, err := requireAccount(ctx, s.Accounts, accountID); err != nil {
		return ImportResult{}, err
	}

	txs, invalid := ledger.Normalize(accountID, rows)
	res := ImportResult{Dropped: len(invalid), Errors: invalid}
	for _, v := range invalid {
		logger.Debug("row dropped", zap.Int("row", v.Row), zap.String("field", v.Field), zap.String("value", v.Value), zap.Error(v.Err))
	}
	metrics.ImportedRows.WithLabelValues(accountID, "dropped").Add(float64(res.Dropped))
	if len(txs) == 0 {
		logger.Warn("import rejected", zap.Int("dropped", res.Dropped), zap.Error(ledger.ErrEmptyBatch))
		return res, ledger.ErrEmptyBatch
	}

	res.BatchID = newBatchID(start)
	inserted, err := s.Transactions.InsertBatch(ctx, res.BatchID, txs)
	if err != nil {
		logger.Error("import failed", zap.String("batch_id", res.BatchID), zap.Int("rows", len(txs)), zap.Error(err))
		return ImportResult{Dropped: res.Dropped, Errors: invalid}, fmt.Errorf("import %d rows: %w", len(txs), err)
	}
	res.Inserted = inserted
	res.Duplicates = len(txs) - inserted

	metrics.ImportedRows.WithLabelValues(accountID, "inserted").Add(float64(res.Inserted))
	metrics.ImportedRows.WithLabelValues(accountID, "duplicate").Add(float64(res.Duplicates))
	metrics.ImportDuration.WithLabelValues(accountID).Observe(time.Since(start).Seconds())
	logger.Info("import committed",
		zap.String("batch_id", res.BatchID),
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("dropped", res.Dropped),
	)

	if s.Events != nil && res.Inserted > 0 {
		ev := events.ImportEvent{
			BatchID:    res.BatchID,
			AccountID:  accountID,
			Inserted:   res.Inserted,
			Duplicates: res.Duplicates,
			Dropped:    res.Dropped,
			ImportedAt: start.UTC(),
		}
		// the batch is committed; a lost event does not undo it
		if err := s.Events.PublishImport(ctx, ev); err != nil {
			metrics.EventPublishErrors.Inc()
			logger.Error("import event not published", zap.String("batch_id", res.BatchID), zap.Error(err))
		}
	}
	return res, nil
}

// SetOpeningBalance records the account's opening balance as of date,
// replacing any earlier one.
func (s *ImportService) SetOpeningBalance(ctx context.Context, accountID string, date time.Time, amount decimal.Decimal) (ledger.Transaction, error) {
	if _, err := requireAccount(ctx, s.Accounts, accountID); err != nil {
		return ledger.Transaction{}, err
	}
	if date.IsZero() {
		return ledger.Transaction{}, errors.New("opening balance date is required")
	}
	t, err := s.Transactions.UpsertOpening(ctx, accountID, date, amount)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("set opening balance: %w", err)
	}
	logging.OrNop(s.Logger).Info("opening balance set",
		zap.String("account_id", accountID),
		zap.String("date", t.Date.Format(time.DateOnly)),
		zap.String("amount", amount.StringFixed(2)),
	)
	return t, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/cashledger/internal/ledger"
)

// TransactionRepo is the statement store.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// InsertBatch appends txs in one transaction, skipping rows whose import key
// (account, date, movement number, amount) already exists. It returns how
// many rows were new. Either every new row is committed or none is.
func (r *TransactionRepo) InsertBatch(ctx context.Context, batchID string, txs []ledger.Transaction) (int, error) {
	inserted := 0
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_transactions(
		 id, account_id, tx_date, description, movement_number, movement_key,
		 debit, fee, credit, amount_key, batch_id, is_opening, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP)
		ON CONFLICT DO NOTHING;
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, t := range txs {
			id := t.ID
			if id == "" {
				id = uuid.NewString()
			}
			res, err := stmt.ExecContext(ctx,
				id, t.AccountID, t.Date.Format(dateLayout), t.Description, t.MovementNumber, t.Movement(),
				t.Debit.String(), t.Fee.String(), t.Credit.String(), t.ImportAmount().StringFixed(2), batchID)
			if err != nil {
				return fmt.Errorf("insert row %d: %w", i+1, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// UpsertOpening writes the account's opening-balance row, replacing the
// previous one in place. A positive amount is a credit, a negative a debit.
func (r *TransactionRepo) UpsertOpening(ctx context.Context, accountID string, date time.Time, amount decimal.Decimal) (ledger.Transaction, error) {
	t := ledger.Transaction{
		AccountID:   accountID,
		Date:        ledger.Day(date),
		Description: "Opening balance",
		Debit:       decimal.Zero,
		Fee:         decimal.Zero,
		Credit:      decimal.Zero,
		Opening:     true,
	}
	if amount.IsNegative() {
		t.Debit = amount.Abs()
	} else {
		t.Credit = amount
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE ledger_transactions
		SET tx_date = ?, description = ?, debit = ?, credit = ?, amount_key = ?
		WHERE account_id = ? AND is_opening = 1
		`, t.Date.Format(dateLayout), t.Description, t.Debit.String(), t.Credit.String(), amount.StringFixed(2), accountID)
		if err != nil {
			return fmt.Errorf("update opening: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_transactions(
			 id, account_id, tx_date, description, movement_key, debit, fee, credit, amount_key, is_opening, created_at)
			VALUES(?, ?, ?, ?, '', ?, '0', ?, ?, 1, CURRENT_TIMESTAMP)
			`, uuid.NewString(), accountID, t.Date.Format(dateLayout), t.Description,
				t.Debit.String(), t.Credit.String(), amount.StringFixed(2)); err != nil {
				return fmt.Errorf("insert opening: %w", err)
			}
		}
		row := tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM ledger_transactions WHERE account_id = ? AND is_opening = 1`, accountID)
		t, err = scanTransaction(row)
		return err
	})
	return t, err
}

// Window reads everything a statement for [start, end) needs in one snapshot.
func (r *TransactionRepo) Window(ctx context.Context, accountID string, start, end time.Time) (Window, error) {
	var w Window
	from, to := start.Format(dateLayout), end.Format(dateLayout)
	err := withReadTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+transactionColumns+` FROM ledger_transactions
		WHERE account_id = ? AND ((is_opening = 0 AND tx_date < ?) OR (is_opening = 1 AND tx_date < ?))
		ORDER BY tx_date, seq`, accountID, from, to)
		if err != nil {
			return fmt.Errorf("query prior: %w", err)
		}
		if w.Prior, err = collectTransactions(rows); err != nil {
			return fmt.Errorf("scan prior: %w", err)
		}

		rows, err = tx.QueryContext(ctx, `SELECT `+transactionColumns+` FROM ledger_transactions
		WHERE account_id = ? AND is_opening = 0 AND tx_date >= ? AND tx_date < ?
		ORDER BY tx_date, seq`, accountID, from, to)
		if err != nil {
			return fmt.Errorf("query range: %w", err)
		}
		if w.InRange, err = collectTransactions(rows); err != nil {
			return fmt.Errorf("scan range: %w", err)
		}
		return nil
	})
	return w, err
}

// Opening returns the account's opening-balance row, or nil.
func (r *TransactionRepo) Opening(ctx context.Context, accountID string) (*ledger.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM ledger_transactions WHERE account_id = ? AND is_opening = 1`, accountID)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CountByBatch returns how many rows an import batch wrote.
func (r *TransactionRepo) CountByBatch(ctx context.Context, batchID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_transactions WHERE batch_id = ?`, batchID).Scan(&n)
	return n, err
}

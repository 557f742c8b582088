package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jask/cashledger/internal/ledger"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Upsert creates or updates an account. The currency is frozen once the
// account has transactions.
func (r *AccountRepo) Upsert(ctx context.Context, a ledger.Account) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT currency FROM accounts WHERE id = ?`, a.ID).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		case current != a.Currency:
			var n int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_transactions WHERE account_id = ?`, a.ID).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return ledger.ErrCurrencyLocked
			}
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts(id, currency, kind, label, special, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
		 currency=excluded.currency,
		 kind=excluded.kind,
		 label=excluded.label,
		 special=excluded.special,
		 updated_at=CURRENT_TIMESTAMP;
		`, a.ID, a.Currency, string(a.Kind), a.Label, boolInt(a.Special))
		return err
	})
}

// Get returns the account or nil when it does not exist.
func (r *AccountRepo) Get(ctx context.Context, id string) (*ledger.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, currency, kind, label, special, created_at, updated_at FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) List(ctx context.Context) ([]ledger.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, currency, kind, label, special, created_at, updated_at FROM accounts ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row scanner) (ledger.Account, error) {
	var a ledger.Account
	var kind string
	var special int
	if err := row.Scan(&a.ID, &a.Currency, &kind, &a.Label, &special, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return ledger.Account{}, err
	}
	a.Kind = ledger.AccountKind(kind)
	a.Special = special == 1
	return a, nil
}

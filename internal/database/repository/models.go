package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/cashledger/internal/ledger"
)

const dateLayout = "2006-01-02"

// Window is a consistent read of one account for a statement range.
// Prior holds everything that folds into the opening balance: regular rows
// dated before start plus the opening-balance row when it predates end.
type Window struct {
	Prior   []ledger.Transaction
	InRange []ledger.Transaction
}

// scanner handles both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

const transactionColumns = `seq, id, account_id, tx_date, description, movement_number, debit, fee, credit, batch_id, is_opening, created_at`

func scanTransaction(row scanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	var date string
	var movement sql.NullString
	var opening int
	if err := row.Scan(&t.Seq, &t.ID, &t.AccountID, &date, &t.Description, &movement,
		&t.Debit, &t.Fee, &t.Credit, &t.BatchID, &opening, &t.CreatedAt); err != nil {
		return ledger.Transaction{}, err
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("transaction %s date %q: %w", t.ID, date, err)
	}
	t.Date = d
	if movement.Valid {
		t.MovementNumber = &movement.String
	}
	t.Opening = opening == 1
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]ledger.Transaction, error) {
	defer rows.Close()
	var out []ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one dated money movement on an account.
// Seq is the store's insertion order and breaks ties between equal dates.
type Transaction struct {
	ID             string          `json:"id"`
	Seq            int64           `json:"seq"`
	AccountID      string          `json:"account_id"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	MovementNumber *string         `json:"movement_number,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Fee            decimal.Decimal `json:"fee"`
	Credit         decimal.Decimal `json:"credit"`
	BatchID        string          `json:"batch_id,omitempty"`
	Opening        bool            `json:"opening,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Delta is the effect of the row on the account balance.
func (t Transaction) Delta() decimal.Decimal {
	return t.Credit.Sub(t.Debit).Sub(t.Fee)
}

// ImportAmount is the signed raw amount (principal plus fee) the row was
// imported with. It is part of the idempotency key; rows with the same date
// and net amount and no movement number are treated as the same row.
func (t Transaction) ImportAmount() decimal.Decimal {
	return t.Credit.Sub(t.Debit).Add(t.Fee)
}

// Principal is the unsigned amount moved, used for fee banding.
func (t Transaction) Principal() decimal.Decimal {
	if t.Credit.IsPositive() {
		return t.Credit
	}
	return t.Debit
}

// Movement returns the trimmed movement number, or "" when absent.
func (t Transaction) Movement() string {
	if t.MovementNumber == nil {
		return ""
	}
	return trimMovement(*t.MovementNumber)
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

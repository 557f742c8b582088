package ledger

import "time"

// AccountKind classifies where the money sits.
type AccountKind string

const (
	KindBank       AccountKind = "BANK"
	KindCashDrawer AccountKind = "CASH_DRAWER"
)

// Valid reports whether k is a known kind.
func (k AccountKind) Valid() bool {
	return k == KindBank || k == KindCashDrawer
}

// Account is a bank account or petty-cash drawer.
type Account struct {
	ID        string      `json:"id"`
	Currency  string      `json:"currency"`
	Kind      AccountKind `json:"kind"`
	Label     string      `json:"label"`
	Special   bool        `json:"special"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

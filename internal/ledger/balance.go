package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalancedRow is a transaction with the account balance right after it.
type BalancedRow struct {
	Transaction
	Balance decimal.Decimal `json:"balance"`
}

// SortLedger returns a copy of txs ordered by date, then insertion order.
func SortLedger(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// OpeningBalance folds every delta in prior into a single balance.
func OpeningBalance(prior []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range prior {
		sum = sum.Add(t.Delta())
	}
	return sum
}

// Accumulate derives the running balance for txs starting from opening.
// The input is not modified.
func Accumulate(opening decimal.Decimal, txs []Transaction) []BalancedRow {
	sorted := SortLedger(txs)
	out := make([]BalancedRow, len(sorted))
	running := opening
	for i, t := range sorted {
		running = running.Add(t.Delta())
		out[i] = BalancedRow{Transaction: t, Balance: running}
	}
	return out
}

package ledger

import "github.com/shopspring/decimal"

// MatchStatus tells whether a ledger row found its payment operation.
type MatchStatus string

const (
	Matched   MatchStatus = "MATCHED"
	Unmatched MatchStatus = "UNMATCHED"
)

// StatementRow is the read-only projection served for a statement query.
type StatementRow struct {
	BalancedRow
	Status      MatchStatus     `json:"status"`
	Operation   *Operation      `json:"operation,omitempty"`
	ExpectedFee decimal.Decimal `json:"expected_fee"`
}

// matchKey is a movement number scoped to a calendar year. Only the year of
// the date takes part.
type matchKey struct {
	movement string
	year     int
}

// Match pairs each balanced row with the operation sharing its movement
// number and year. Output has one row per input row, in input order.
// When several operations share a key the first one wins.
func Match(rows []BalancedRow, ops []Operation) []StatementRow {
	index := make(map[matchKey]*Operation, len(ops))
	for i := range ops {
		mv := trimMovement(ops[i].MovementNumber)
		if mv == "" {
			continue
		}
		k := matchKey{movement: mv, year: ops[i].Date.Year()}
		if _, seen := index[k]; !seen {
			index[k] = &ops[i]
		}
	}

	out := make([]StatementRow, len(rows))
	for i, r := range rows {
		out[i] = StatementRow{BalancedRow: r, Status: Unmatched, ExpectedFee: decimal.Zero}
		mv := r.Movement()
		if mv == "" {
			continue
		}
		if op, ok := index[matchKey{movement: mv, year: r.Date.Year()}]; ok {
			cp := *op
			out[i].Operation = &cp
			out[i].Status = Matched
		}
	}
	return out
}

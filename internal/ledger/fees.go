package ledger

import "github.com/shopspring/decimal"

// FeeBand maps an inclusive amount range to a fixed fee.
type FeeBand struct {
	RangeStart decimal.Decimal `json:"range_start"`
	RangeEnd   decimal.Decimal `json:"range_end"`
	FixedFee   decimal.Decimal `json:"fixed_fee"`
}

// Contains reports whether amount falls within [RangeStart, RangeEnd].
func (b FeeBand) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(b.RangeStart) && amount.LessThanOrEqual(b.RangeEnd)
}

// FeeFor returns the fixed fee of the first band containing amount, or zero.
// Bands are expected ordered by RangeStart; overlapping bands are not
// rejected, the earlier one simply wins.
func FeeFor(amount decimal.Decimal, bands []FeeBand) decimal.Decimal {
	for _, b := range bands {
		if b.Contains(amount) {
			return b.FixedFee
		}
	}
	return decimal.Zero
}

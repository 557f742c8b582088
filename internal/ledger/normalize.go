package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is one uploaded statement line before normalization.
// Date carries a native date cell; DateText is used when Date is zero.
type RawRow struct {
	Date           time.Time
	DateText       string
	Description    string
	Principal      string
	Fee            string
	MovementNumber *string
}

var dateLayouts = []string{"2/1/2006", "2-1-2006", "2/1/06", "2-1-06"}

// spreadsheetEpoch is day zero of the 1900 date system as exported by
// spreadsheet tools (serial 1 = 1900-01-01 with the 1900 leap-year quirk).
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var errBlank = errors.New("blank")

// serialPattern admits plain day numbers only; exponents and NaN are not dates.
var serialPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseDate reads a day/month/year date with "/" or "-" separators, or a
// spreadsheet serial day number. A trailing time part is ignored.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errBlank
	}
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	if serialPattern.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil || serial < 1 || serial > 2958465 {
			return time.Time{}, fmt.Errorf("serial %v out of range", serial)
		}
		return spreadsheetEpoch.AddDate(0, 0, int(serial)), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a day/month/year date")
}

// ParseAmount reads a signed amount. Thousands separators, spaces and a
// leading currency sign are ignored; "(12.50)" reads as -12.50. Blank is zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(",", "", " ", "", "$", "", "S/", "").Replace(s)
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// NormalizeMovement trims a movement number; blank becomes nil.
func NormalizeMovement(raw *string) *string {
	if raw == nil {
		return nil
	}
	s := trimMovement(*raw)
	if s == "" {
		return nil
	}
	return &s
}

func trimMovement(s string) string { return strings.TrimSpace(s) }

// Normalize turns raw rows into ledger transactions for accountID.
// Rows that fail to parse, or that move no money, are dropped and reported;
// the rest are returned in input order.
func Normalize(accountID string, rows []RawRow) ([]Transaction, []ValidationError) {
	out := make([]Transaction, 0, len(rows))
	var dropped []ValidationError
	for i, r := range rows {
		line := i + 1
		date := r.Date
		if date.IsZero() {
			d, err := ParseDate(r.DateText)
			if err != nil {
				dropped = append(dropped, ValidationError{Row: line, Field: "date", Value: r.DateText, Err: err})
				continue
			}
			date = d
		}
		principal, err := ParseAmount(r.Principal)
		if err != nil {
			dropped = append(dropped, ValidationError{Row: line, Field: "principal", Value: r.Principal, Err: err})
			continue
		}
		fee, err := ParseAmount(r.Fee)
		if err != nil {
			dropped = append(dropped, ValidationError{Row: line, Field: "fee", Value: r.Fee, Err: err})
			continue
		}

		t := Transaction{
			AccountID:      accountID,
			Date:           Day(date),
			Description:    strings.TrimSpace(r.Description),
			MovementNumber: NormalizeMovement(r.MovementNumber),
			Debit:          decimal.Zero,
			Fee:            decimal.Zero,
			Credit:         decimal.Zero,
		}
		if principal.IsNegative() {
			t.Debit = principal.Abs()
		} else {
			t.Credit = principal
		}
		// fees always reduce the balance, whichever sign the bank exported
		if fee.IsNegative() {
			t.Debit = t.Debit.Add(fee.Abs())
		} else {
			t.Fee = fee
		}
		if t.Debit.IsZero() && t.Credit.IsZero() && t.Fee.IsZero() {
			dropped = append(dropped, ValidationError{Row: line, Field: "amount", Value: r.Principal, Err: errors.New("zero movement")})
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}

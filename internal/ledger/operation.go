package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubInvoice is one child invoice of a multi-invoice payment operation.
type SubInvoice struct {
	DocumentNumber string          `json:"document_number"`
	Amount         decimal.Decimal `json:"amount"`
}

// Documents is either Single or Multiple.
type Documents interface {
	// Count is the number of documents backing the operation.
	Count() int
	isDocuments()
}

// Single is an operation backed by one document.
type Single struct {
	DocumentNumber string `json:"document_number"`
}

func (Single) Count() int   { return 1 }
func (Single) isDocuments() {}

// Multiple is an operation split across several sub-invoices.
type Multiple struct {
	subInvoices []SubInvoice
}

// NewMultiple builds a Multiple. When parent is valid the sub-invoice
// amounts must add up to it exactly.
func NewMultiple(parent decimal.NullDecimal, subs []SubInvoice) (Multiple, error) {
	if len(subs) == 0 {
		return Multiple{}, ErrNoSubInvoices
	}
	if parent.Valid {
		sum := decimal.Zero
		for _, s := range subs {
			sum = sum.Add(s.Amount)
		}
		if !sum.Equal(parent.Decimal) {
			return Multiple{}, ErrSubInvoiceSum
		}
	}
	cp := make([]SubInvoice, len(subs))
	copy(cp, subs)
	return Multiple{subInvoices: cp}, nil
}

// SubInvoices returns a copy of the children.
func (m Multiple) SubInvoices() []SubInvoice {
	cp := make([]SubInvoice, len(m.subInvoices))
	copy(cp, m.subInvoices)
	return cp
}

func (m Multiple) Count() int { return len(m.subInvoices) }
func (Multiple) isDocuments() {}

// Operation is a payment operation recorded by the operations back-office.
type Operation struct {
	MovementNumber string              `json:"movement_number"`
	Date           time.Time           `json:"date"`
	Detail         string              `json:"detail"`
	VoucherNumber  string              `json:"voucher_number"`
	Amount         decimal.NullDecimal `json:"amount"`
	Documents      Documents           `json:"-"`
}

// DocumentNumber is the single document number, or "" for split operations.
func (o Operation) DocumentNumber() string {
	if s, ok := o.Documents.(Single); ok {
		return s.DocumentNumber
	}
	return ""
}

// SubInvoices returns the children of a split operation, or nil.
func (o Operation) SubInvoices() []SubInvoice {
	if m, ok := o.Documents.(Multiple); ok {
		return m.SubInvoices()
	}
	return nil
}

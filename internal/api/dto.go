package api

import (
	"encoding/json"
	"strings"

	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/service"
)

// importRequest carries raw statement rows. Amounts may be JSON numbers or
// strings such as "2,500.00".
type importRequest struct {
	Rows []importRow `json:"rows"`
}

type importRow struct {
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	Principal      json.RawMessage `json:"principal"`
	Fee            json.RawMessage `json:"fee"`
	MovementNumber *string         `json:"movement_number"`
}

func (r importRow) raw() ledger.RawRow {
	return ledger.RawRow{
		DateText:       r.Date,
		Description:    r.Description,
		Principal:      amountText(r.Principal),
		Fee:            amountText(r.Fee),
		MovementNumber: r.MovementNumber,
	}
}

func amountText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

type importResponse struct {
	BatchID    string            `json:"batch_id"`
	Inserted   int               `json:"inserted"`
	Duplicates int               `json:"duplicates"`
	Dropped    int               `json:"dropped"`
	Errors     []validationError `json:"errors,omitempty"`
}

type validationError struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
	Error string `json:"error"`
}

func newImportResponse(res service.ImportResult) importResponse {
	out := importResponse{
		BatchID:    res.BatchID,
		Inserted:   res.Inserted,
		Duplicates: res.Duplicates,
		Dropped:    res.Dropped,
	}
	for _, v := range res.Errors {
		out.Errors = append(out.Errors, validationError{Row: v.Row, Field: v.Field, Value: v.Value, Error: v.Err.Error()})
	}
	return out
}

type openingRequest struct {
	Date   string          `json:"date"`
	Amount json.RawMessage `json:"amount"`
}

type operationJSON struct {
	MovementNumber string              `json:"movement_number"`
	Date           string              `json:"date"`
	Detail         string              `json:"detail"`
	VoucherNumber  string              `json:"voucher_number,omitempty"`
	Amount         *string             `json:"amount,omitempty"`
	DocumentNumber string              `json:"document_number,omitempty"`
	SubInvoices    []ledger.SubInvoice `json:"sub_invoices,omitempty"`
}

type statementRowJSON struct {
	ID             string         `json:"id"`
	Date           string         `json:"date"`
	Description    string         `json:"description"`
	MovementNumber string         `json:"movement_number,omitempty"`
	Debit          string         `json:"debit"`
	Fee            string         `json:"fee"`
	Credit         string         `json:"credit"`
	Balance        string         `json:"balance"`
	ExpectedFee    string         `json:"expected_fee"`
	Status         string         `json:"status"`
	Operation      *operationJSON `json:"operation,omitempty"`
}

func newStatementRows(rows []ledger.StatementRow) []statementRowJSON {
	out := make([]statementRowJSON, 0, len(rows))
	for _, r := range rows {
		row := statementRowJSON{
			ID:             r.ID,
			Date:           r.Date.Format(isoDate),
			Description:    r.Description,
			MovementNumber: r.Movement(),
			Debit:          r.Debit.StringFixed(2),
			Fee:            r.Fee.StringFixed(2),
			Credit:         r.Credit.StringFixed(2),
			Balance:        r.Balance.StringFixed(2),
			ExpectedFee:    r.ExpectedFee.StringFixed(2),
			Status:         string(r.Status),
		}
		if op := r.Operation; op != nil {
			oj := &operationJSON{
				MovementNumber: op.MovementNumber,
				Date:           op.Date.Format(isoDate),
				Detail:         op.Detail,
				VoucherNumber:  op.VoucherNumber,
				DocumentNumber: op.DocumentNumber(),
				SubInvoices:    op.SubInvoices(),
			}
			if op.Amount.Valid {
				a := op.Amount.Decimal.StringFixed(2)
				oj.Amount = &a
			}
			row.Operation = oj
		}
		out = append(out, row)
	}
	return out
}

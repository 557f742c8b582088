package ledger

import "fmt"

// SubInvoiceMarker indents sub-invoice rows under their parent.
const SubInvoiceMarker = "  ↳"

// DefaultDateLayout is the export date format (day/month/year).
const DefaultDateLayout = "02/01/2006"

// FlatRow is one exported line. Column order is fixed by Cells.
type FlatRow struct {
	Date           string `json:"date"`
	Description    string `json:"description"`
	AdminDetail    string `json:"admin_detail"`
	MovementNumber string `json:"movement_number"`
	Document       string `json:"document"`
	Debit          string `json:"debit"`
	Fee            string `json:"fee"`
	Credit         string `json:"credit"`
	Balance        string `json:"balance"`
	Child          bool   `json:"child,omitempty"`
}

// ExportHeader names the columns in Cells order.
func ExportHeader() []string {
	return []string{"Date", "Description", "Admin Detail", "Movement No.", "Document", "Debit", "Fee", "Credit", "Balance"}
}

// Cells returns the row in export column order.
func (r FlatRow) Cells() []string {
	return []string{r.Date, r.Description, r.AdminDetail, r.MovementNumber, r.Document, r.Debit, r.Fee, r.Credit, r.Balance}
}

// Export flattens statement rows. A split operation yields its parent row
// followed by one child row per sub-invoice.
func Export(rows []StatementRow, dateLayout string) []FlatRow {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	out := make([]FlatRow, 0, len(rows))
	for _, r := range rows {
		parent := FlatRow{
			Date:           r.Date.Format(dateLayout),
			Description:    r.Description,
			MovementNumber: r.Movement(),
			Debit:          r.Debit.StringFixed(2),
			Fee:            r.Fee.StringFixed(2),
			Credit:         r.Credit.StringFixed(2),
			Balance:        r.Balance.StringFixed(2),
		}
		var subs []SubInvoice
		if r.Operation != nil {
			parent.AdminDetail = r.Operation.Detail
			switch d := r.Operation.Documents.(type) {
			case Single:
				parent.Document = d.DocumentNumber
			case Multiple:
				parent.Document = fmt.Sprintf("Multiple (%d)", d.Count())
				subs = d.SubInvoices()
			}
		}
		out = append(out, parent)
		for _, s := range subs {
			out = append(out, FlatRow{
				AdminDetail: SubInvoiceMarker,
				Document:    s.DocumentNumber,
				Credit:      s.Amount.StringFixed(2),
				Child:       true,
			})
		}
	}
	return out
}

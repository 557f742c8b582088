package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExport_MultipleExpandsChildren(t *testing.T) {
	t.Parallel()
	docs, err := NewMultiple(decimal.NewNullDecimal(dec("100")), []SubInvoice{
		{DocumentNumber: "F001-1", Amount: dec("30.00")},
		{DocumentNumber: "F001-2", Amount: dec("70.00")},
	})
	require.NoError(t, err)

	row := StatementRow{
		BalancedRow: BalancedRow{
			Transaction: Transaction{Date: day(2025, 2, 1), Description: "ABONO", MovementNumber: strPtr("55"), Credit: dec("100")},
			Balance:     dec("1100"),
		},
		Status:    Matched,
		Operation: &Operation{MovementNumber: "55", Date: day(2025, 1, 30), Detail: "Cobro cliente", Documents: docs},
	}

	flat := Export([]StatementRow{row}, "")
	require.Len(t, flat, 3)

	parent := flat[0]
	require.Equal(t, []string{"01/02/2025", "ABONO", "Cobro cliente", "55", "Multiple (2)", "0.00", "0.00", "100.00", "1100.00"}, parent.Cells())
	require.False(t, parent.Child)

	require.Equal(t, []string{"", "", SubInvoiceMarker, "", "F001-1", "", "", "30.00", ""}, flat[1].Cells())
	require.Equal(t, []string{"", "", SubInvoiceMarker, "", "F001-2", "", "", "70.00", ""}, flat[2].Cells())
	require.True(t, flat[1].Child)
}

func TestExport_SingleAndUnmatched(t *testing.T) {
	t.Parallel()
	rows := []StatementRow{
		{
			BalancedRow: BalancedRow{Transaction: Transaction{Date: day(2025, 2, 1), Debit: dec("20"), Fee: dec("0.05")}, Balance: dec("-20.05")},
			Status:      Matched,
			Operation:   &Operation{Detail: "Peaje", Documents: Single{DocumentNumber: "B002-9"}},
		},
		{
			BalancedRow: BalancedRow{Transaction: Transaction{Date: day(2025, 2, 2), Credit: dec("5")}, Balance: dec("-15.05")},
			Status:      Unmatched,
		},
	}
	flat := Export(rows, "2006-01-02")
	require.Len(t, flat, 2)
	require.Equal(t, "B002-9", flat[0].Document)
	require.Equal(t, "Peaje", flat[0].AdminDetail)
	require.Equal(t, "-20.05", flat[0].Balance)
	require.Equal(t, "", flat[1].Document)
	require.Equal(t, "2025-02-02", flat[1].Date)
	require.Len(t, ExportHeader(), len(flat[0].Cells()))
}

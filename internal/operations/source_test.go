package operations

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/ledger"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestMemory_ForMatchingFiltersAccountRangeAndMovement(t *testing.T) {
	m := NewMemory()
	m.Add("BANK-1",
		ledger.Operation{MovementNumber: "200", Date: day(2025, 3, 2)},
		ledger.Operation{MovementNumber: "100", Date: day(2025, 3, 1)},
		ledger.Operation{MovementNumber: "  ", Date: day(2025, 3, 1)},
		ledger.Operation{MovementNumber: "300", Date: day(2025, 4, 1)},
	)
	m.Add("CASH-1", ledger.Operation{MovementNumber: "100", Date: day(2025, 3, 1)})

	ops, err := m.ForMatching(context.Background(), "BANK-1", day(2025, 3, 1), day(2025, 4, 1))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "100", ops[0].MovementNumber)
	assert.Equal(t, "200", ops[1].MovementNumber)

	ops, err = m.ForMatching(context.Background(), "UNKNOWN", day(2025, 1, 1), day(2026, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestBuildOperations(t *testing.T) {
	amount := func(s string) *string { return &s }
	rows := []operationRow{
		{ID: 1, MovementNumber: "10", Date: day(2025, 1, 5), Amount: amount("50.00"), DocumentNumber: "F001-1"},
		{ID: 2, MovementNumber: "11", Date: day(2025, 1, 6), Amount: amount("300.00"), DocumentNumber: "F001-2", Multiple: true},
		{ID: 3, MovementNumber: "12", Date: day(2025, 1, 7), Amount: amount("100.00"), DocumentNumber: "F001-3", Multiple: true},
	}
	invoices := map[int64][]ledger.SubInvoice{
		2: {
			{DocumentNumber: "F001-20", Amount: decimal.RequireFromString("100.00")},
			{DocumentNumber: "F001-21", Amount: decimal.RequireFromString("200.00")},
		},
		3: {{DocumentNumber: "F001-30", Amount: decimal.RequireFromString("99.00")}},
	}

	ops := buildOperations(rows, invoices, zap.NewNop())
	require.Len(t, ops, 3)

	assert.Equal(t, "F001-1", ops[0].DocumentNumber())
	assert.True(t, ops[0].Amount.Valid)

	require.IsType(t, ledger.Multiple{}, ops[1].Documents)
	assert.Equal(t, 2, ops[1].Documents.Count())

	// children summing to 99 against a 100 parent fall back to the primary document
	assert.Equal(t, "F001-3", ops[2].DocumentNumber())
	assert.Nil(t, ops[2].SubInvoices())
}

package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestAccumulate_RunningBalance(t *testing.T) {
	t.Parallel()
	txs := []Transaction{
		{ID: "c", Seq: 3, Date: day(2025, 3, 2), Debit: dec("40"), Fee: dec("0.5")},
		{ID: "a", Seq: 1, Date: day(2025, 3, 1), Credit: dec("100")},
		{ID: "b", Seq: 2, Date: day(2025, 3, 1), Debit: dec("25")},
	}
	rows := Accumulate(dec("10"), txs)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	require.True(t, dec("110").Equal(rows[0].Balance))
	require.True(t, dec("85").Equal(rows[1].Balance))
	require.True(t, dec("44.5").Equal(rows[2].Balance))

	// input untouched
	require.Equal(t, "c", txs[0].ID)
}

func TestAccumulate_SameDateTieBreakIsInsertionOrder(t *testing.T) {
	t.Parallel()
	txs := []Transaction{
		{ID: "late", Seq: 9, Date: day(2025, 1, 5), Credit: dec("1"), Description: "A"},
		{ID: "early", Seq: 2, Date: day(2025, 1, 5), Debit: dec("1000"), Description: "Z"},
	}
	rows := Accumulate(dec("0"), txs)
	require.Equal(t, "early", rows[0].ID)
	require.Equal(t, "late", rows[1].ID)
}

func TestAccumulate_FinalBalanceIsOpeningPlusDeltasAndStable(t *testing.T) {
	t.Parallel()
	prior := []Transaction{
		{Seq: 1, Date: day(2024, 12, 30), Credit: dec("1000")},
		{Seq: 2, Date: day(2024, 12, 31), Debit: dec("100"), Fee: dec("0.2")},
	}
	in := []Transaction{
		{Seq: 3, Date: day(2025, 1, 2), Credit: dec("50.5")},
		{Seq: 4, Date: day(2025, 1, 3), Debit: dec("10"), Fee: dec("0.05")},
		{Seq: 5, Date: day(2025, 1, 3), Fee: dec("1")},
	}
	opening := OpeningBalance(prior)
	require.True(t, dec("899.8").Equal(opening))

	want := opening
	for _, tx := range in {
		want = want.Add(tx.Credit).Sub(tx.Debit).Sub(tx.Fee)
	}
	first := Accumulate(opening, in)
	second := Accumulate(opening, in)
	require.True(t, want.Equal(first[len(first)-1].Balance))
	for i := range first {
		require.True(t, first[i].Balance.Equal(second[i].Balance))
	}
}

func TestOpeningBalance_Empty(t *testing.T) {
	t.Parallel()
	require.True(t, OpeningBalance(nil).IsZero())
	require.Empty(t, Accumulate(dec("5"), nil))
}

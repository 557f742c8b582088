package tui

import (
	"fmt"
	"strings"

	"github.com/jask/cashledger/internal/ledger"
)

func (a *App) renderAccounts() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Accounts") + "\n\n")
	if len(a.accounts) == 0 {
		b.WriteString("no accounts configured\n")
	}
	for i, acct := range a.accounts {
		line := fmt.Sprintf("%-14s %-24s %s %s", acct.ID, acct.Label, acct.Currency, acct.Kind)
		if i == a.acctCursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n[enter] statement  [q] quit")
	return b.String()
}

func (a *App) renderStatement() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", a.account, a.month.Format("January 2006"))) + "\n\n")
	b.WriteString(tableBorder.Render(a.table.View()) + "\n")

	unmatched := 0
	for _, r := range a.rows {
		if r.Status == ledger.Unmatched {
			unmatched++
		}
	}
	if len(a.rows) > 0 {
		closing := a.rows[len(a.rows)-1].Balance.StringFixed(2)
		b.WriteString(fmt.Sprintf("closing balance %s", closing))
		if unmatched > 0 {
			b.WriteString("  " + unmatchedStyle.Render(fmt.Sprintf("%d unmatched", unmatched)))
		}
		b.WriteString("\n")
	}
	b.WriteString("[ / ] month  [e] export csv  [esc] accounts  [q] quit")
	return b.String()
}

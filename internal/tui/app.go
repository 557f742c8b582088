// Package tui is a read-only terminal viewer for account statements.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/cashledger/internal/formats"
	"github.com/jask/cashledger/internal/ledger"
)

// Statements is what the viewer reads from.
type Statements interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	GetStatement(ctx context.Context, accountID string, start, end time.Time) ([]ledger.StatementRow, error)
	ExportStatement(rows []ledger.StatementRow) []ledger.FlatRow
}

type appState string

const (
	viewAccounts  appState = "accounts"
	viewStatement appState = "statement"
)

// App lists accounts and shows one month of a statement at a time.
type App struct {
	ctx        context.Context
	svc        Statements
	state      appState
	accounts   []ledger.Account
	acctCursor int
	account    string
	month      time.Time
	rows       []ledger.StatementRow
	table      table.Model
	status     string
	dateFormat string
	exportDir  string
}

type (
	accountsMsg  []ledger.Account
	statementMsg struct {
		accountID string
		month     time.Time
		rows      []ledger.StatementRow
	}
	statusMsg string
	errMsg    struct{ error }
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	unmatchedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	tableBorder    = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

// New builds the viewer. month selects the first statement period shown.
func New(ctx context.Context, svc Statements, month time.Time, dateFormat, exportDir string) *App {
	if month.IsZero() {
		month = time.Now().UTC()
	}
	if dateFormat == "" {
		dateFormat = ledger.DefaultDateLayout
	}
	t := table.New(table.WithColumns(statementColumns()), table.WithFocused(true), table.WithHeight(15))
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	return &App{
		ctx:        ctx,
		svc:        svc,
		state:      viewAccounts,
		month:      time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC),
		table:      t,
		dateFormat: dateFormat,
		exportDir:  exportDir,
	}
}

func statementColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Description", Width: 24},
		{Title: "Movement", Width: 9},
		{Title: "Debit", Width: 11},
		{Title: "Fee", Width: 7},
		{Title: "Credit", Width: 11},
		{Title: "Balance", Width: 12},
		{Title: "Status", Width: 9},
		{Title: "Document", Width: 14},
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadAccounts()
}

func (a *App) loadAccounts() tea.Cmd {
	return func() tea.Msg {
		accts, err := a.svc.ListAccounts(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return accountsMsg(accts)
	}
}

func (a *App) loadStatement(accountID string, month time.Time) tea.Cmd {
	return func() tea.Msg {
		rows, err := a.svc.GetStatement(a.ctx, accountID, month, month.AddDate(0, 1, 0))
		if err != nil {
			return errMsg{err}
		}
		return statementMsg{accountID: accountID, month: month, rows: rows}
	}
}

func (a *App) exportCmd() tea.Cmd {
	rows := a.rows
	name := fmt.Sprintf("statement-%s-%s.csv", a.account, a.month.Format("2006-01"))
	path := filepath.Join(a.exportDir, name)
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return errMsg{err}
		}
		defer f.Close()
		if err := formats.WriteCSV(f, a.svc.ExportStatement(rows)); err != nil {
			return errMsg{err}
		}
		return statusMsg("exported " + path)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		if h := m.Height - 8; h > 5 {
			a.table.SetHeight(h)
		}
	case tea.KeyMsg:
		switch m.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		}
		if a.state == viewAccounts {
			return a.handleAccountsKey(m)
		}
		return a.handleStatementKey(m)
	case accountsMsg:
		a.accounts = []ledger.Account(m)
		if a.acctCursor >= len(a.accounts) {
			a.acctCursor = 0
		}
	case statementMsg:
		a.account = m.accountID
		a.month = m.month
		a.rows = m.rows
		a.table.SetRows(a.tableRows())
		a.table.GotoTop()
		a.state = viewStatement
		a.status = fmt.Sprintf("%d rows", len(a.rows))
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

func (a *App) handleAccountsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "up", "k":
		if a.acctCursor > 0 {
			a.acctCursor--
		}
	case "down", "j":
		if a.acctCursor < len(a.accounts)-1 {
			a.acctCursor++
		}
	case "enter":
		if len(a.accounts) > 0 {
			a.status = "loading..."
			return a, a.loadStatement(a.accounts[a.acctCursor].ID, a.month)
		}
	}
	return a, nil
}

func (a *App) handleStatementKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc", "backspace":
		a.state = viewAccounts
		a.status = ""
		return a, nil
	case "[", "h":
		return a, a.loadStatement(a.account, a.month.AddDate(0, -1, 0))
	case "]", "l":
		return a, a.loadStatement(a.account, a.month.AddDate(0, 1, 0))
	case "e":
		if len(a.rows) == 0 {
			a.status = "nothing to export"
			return a, nil
		}
		return a, a.exportCmd()
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(m)
	return a, cmd
}

func (a *App) tableRows() []table.Row {
	out := make([]table.Row, 0, len(a.rows))
	for _, r := range a.rows {
		doc := ""
		if r.Operation != nil {
			doc = r.Operation.DocumentNumber()
			if n := len(r.Operation.SubInvoices()); n > 0 {
				doc = fmt.Sprintf("Multiple (%d)", n)
			}
		}
		out = append(out, table.Row{
			r.Date.Format(a.dateFormat),
			r.Description,
			r.Movement(),
			r.Debit.StringFixed(2),
			r.Fee.StringFixed(2),
			r.Credit.StringFixed(2),
			r.Balance.StringFixed(2),
			string(r.Status),
			doc,
		})
	}
	return out
}

func (a *App) View() string {
	var body string
	switch a.state {
	case viewStatement:
		body = a.renderStatement()
	default:
		body = a.renderAccounts()
	}
	if a.status != "" {
		body += "\n" + statusStyle.Render(a.status)
	}
	return body
}

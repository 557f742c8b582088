package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/api"
	"github.com/jask/cashledger/internal/config"
	"github.com/jask/cashledger/internal/formats"
	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/testdata"
	"github.com/jask/cashledger/internal/tui"
)

const isoDate = "2006-01-02"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cashledger",
		Short:         "Bank and petty-cash statement reconciliation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newStatementCmd(),
		newExportCmd(),
		newOpeningBalanceCmd(),
		newAccountsCmd(),
		newFeesCmd(),
		newViewCmd(),
		newDemoCmd(),
		newInitConfigCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			fmts, err := formats.Load(a.cfg.Import.FormatsPath)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              a.cfg.HTTP.Addr,
				Handler:           api.NewRouter(api.NewHandler(a.imports, a.statements, fmts, a.logger)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("listening", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("http server failed", zap.Error(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}
			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}),
	}
}

func newImportCmd() *cobra.Command {
	var accountID, format string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a bank export into an account",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			fmts, err := formats.Load(a.cfg.Import.FormatsPath)
			if err != nil {
				return err
			}
			f, err := formats.Find(fmts, format)
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer file.Close()

			rows, err := f.Read(file)
			if err != nil {
				return err
			}
			res, err := a.imports.ImportTransactions(cmd.Context(), accountID, rows)
			out := cmd.OutOrStdout()
			for _, v := range res.Errors {
				fmt.Fprintf(out, "skipped %v\n", v)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d inserted, %d duplicates, %d dropped (batch %s)\n", res.Inserted, res.Duplicates, res.Dropped, res.BatchID)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account id")
	cmd.Flags().StringVarP(&format, "format", "f", "generic", "export layout name")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

type rangeFlags struct {
	account, start, end string
}

func (r *rangeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.account, "account", "a", "", "account id")
	cmd.Flags().StringVar(&r.start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&r.end, "end", "", "day after the last, YYYY-MM-DD (default: one month after start)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("start")
}

func (r *rangeFlags) parse() (time.Time, time.Time, error) {
	start, err := time.Parse(isoDate, r.start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
	}
	if r.end == "" {
		return start, start.AddDate(0, 1, 0), nil
	}
	end, err := time.Parse(isoDate, r.end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
	}
	return start, end, nil
}

func (r *rangeFlags) statement(ctx context.Context, a *app) ([]ledger.StatementRow, error) {
	start, end, err := r.parse()
	if err != nil {
		return nil, err
	}
	return a.statements.GetStatement(ctx, r.account, start, end)
}

func newStatementCmd() *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Print a reconciled statement",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			rows, err := rf.statement(cmd.Context(), a)
			if err != nil {
				return err
			}
			printStatement(cmd.OutOrStdout(), rows, a.cfg.UI.DateFormat)
			return nil
		}),
	}
	rf.bind(cmd)
	return cmd
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func printStatement(w io.Writer, rows []ledger.StatementRow, layout string) {
	if layout == "" {
		layout = ledger.DefaultDateLayout
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Date", "Description", "Movement", "Debit", "Fee", "Expected fee", "Credit", "Balance", "Status").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(
			r.Date.Format(layout),
			r.Description,
			r.Movement(),
			r.Debit.StringFixed(2),
			r.Fee.StringFixed(2),
			r.ExpectedFee.StringFixed(2),
			r.Credit.StringFixed(2),
			r.Balance.StringFixed(2),
			string(r.Status),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func newExportCmd() *cobra.Command {
	var rf rangeFlags
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a statement as CSV, expanding split invoices",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			rows, err := rf.statement(cmd.Context(), a)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return formats.WriteCSV(w, a.statements.ExportStatement(rows))
		}),
	}
	rf.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file")
	return cmd
}

func newOpeningBalanceCmd() *cobra.Command {
	var accountID, date, amount string
	cmd := &cobra.Command{
		Use:   "opening-balance",
		Short: "Set an account's opening balance",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			d, err := time.Parse(isoDate, date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			amt, err := ledger.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			if _, err := a.imports.SetOpeningBalance(cmd.Context(), accountID, d, amt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opening balance of %s set to %s on %s\n", accountID, amt.StringFixed(2), d.Format(isoDate))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account id")
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD")
	cmd.Flags().StringVar(&amount, "amount", "", "signed amount")
	for _, f := range []string{"account", "date", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			accts, err := a.statements.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			t := table.New().Border(lipgloss.NormalBorder()).Headers("ID", "Label", "Currency", "Kind", "Special")
			for _, acct := range accts {
				t.Row(acct.ID, acct.Label, acct.Currency, string(acct.Kind), fmt.Sprint(acct.Special))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		}),
	}
}

func newFeesCmd() *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "List fee bands, or quote the fee for --amount",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			out := cmd.OutOrStdout()
			if amount != "" {
				amt, err := ledger.ParseAmount(amount)
				if err != nil {
					return fmt.Errorf("--amount: %w", err)
				}
				fee, err := a.statements.QuoteFee(cmd.Context(), amt)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, fee.StringFixed(2))
				return nil
			}
			bands, err := a.statements.GetFeeBands(cmd.Context())
			if err != nil {
				return err
			}
			t := table.New().Border(lipgloss.NormalBorder()).Headers("From", "To", "Fee")
			for _, b := range bands {
				t.Row(b.RangeStart.StringFixed(2), b.RangeEnd.StringFixed(2), b.FixedFee.StringFixed(2))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		}),
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to quote")
	return cmd
}

func runViewer(ctx context.Context, a *app, month time.Time) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	p := tea.NewProgram(tui.New(ctx, a.statements, month, a.cfg.UI.DateFormat, cwd), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func parseMonth(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01", s)
}

func newViewCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse statements in the terminal",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			m, err := parseMonth(month)
			if err != nil {
				return fmt.Errorf("--month: %w", err)
			}
			return runViewer(cmd.Context(), a, m)
		}),
	}
	cmd.Flags().StringVar(&month, "month", "", "first month shown, YYYY-MM")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var accountID, month string
	var rows int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Import a generated month with matching operations and open the viewer",
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if a.memoryOps == nil {
				return errors.New("demo needs the in-memory operations source; unset operations.dsn")
			}
			m, err := parseMonth(month)
			if err != nil {
				return fmt.Errorf("--month: %w", err)
			}
			m = time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
			res, err := testdata.Seed(cmd.Context(), a.imports, a.memoryOps, accountID, m, rows)
			if err != nil {
				return err
			}
			a.logger.Info("demo data imported", zap.String("account_id", accountID), zap.Int("inserted", res.Inserted))
			return runViewer(cmd.Context(), a, m)
		}),
	}
	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account id")
	cmd.Flags().StringVar(&month, "month", "", "month to generate, YYYY-MM")
	cmd.Flags().IntVar(&rows, "rows", 40, "rows to generate")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write the effective settings to the config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config written")
			return nil
		},
	}
}

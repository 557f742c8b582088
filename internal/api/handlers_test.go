package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/cashledger/internal/cache"
	"github.com/jask/cashledger/internal/database"
	"github.com/jask/cashledger/internal/database/repository"
	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/operations"
	"github.com/jask/cashledger/internal/service"
)

func setupAPITest(t *testing.T) (*httptest.Server, *operations.Memory) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dbPath := filepath.Join(t.TempDir(), "api.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.SeedDefaults(ctx, db,
		[]ledger.Account{{ID: "BANK-PEN", Label: "BCP soles", Currency: "PEN", Kind: ledger.KindBank}},
		[]ledger.FeeBand{{RangeStart: decimal.Zero, RangeEnd: decimal.RequireFromString("100.00"), FixedFee: decimal.RequireFromString("0.50")}},
	))

	txRepo := repository.NewTransactionRepo(db)
	acctRepo := repository.NewAccountRepo(db)
	ops := operations.NewMemory()
	imports := &service.ImportService{Transactions: txRepo, Accounts: acctRepo}
	statements := &service.StatementService{
		Transactions: txRepo,
		Accounts:     acctRepo,
		FeeBands:     cache.NewFeeBands(nil, 0, repository.NewFeeBandRepo(db).List, nil),
		Operations:   ops,
	}

	srv := httptest.NewServer(NewRouter(NewHandler(imports, statements, nil, nil)))
	t.Cleanup(srv.Close)
	return srv, ops
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, method, url, contentType, body string) (*http.Response, apiResponse) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out apiResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestImportAndStatement(t *testing.T) {
	t.Parallel()
	srv, ops := setupAPITest(t)
	ops.Add("BANK-PEN", ledger.Operation{
		MovementNumber: "3326",
		Date:           time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC),
		Detail:         "Pago flete",
		Documents:      ledger.Single{DocumentNumber: "F001-9"},
	})

	resp, _ := do(t, http.MethodPut, srv.URL+"/api/v1/accounts/BANK-PEN/opening-balance", "application/json",
		`{"date":"2025-01-01","amount":"1000.00"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := `{"rows":[
		{"date":"01/02/2025","description":"ABONO","principal":500,"movement_number":" 3326 "},
		{"date":"02/02/2025","description":"PAGO","principal":"-1,000.00","fee":"0.05"},
		{"date":"bad","principal":1}
	]}`
	resp, out := do(t, http.MethodPost, srv.URL+"/api/v1/accounts/BANK-PEN/imports", "application/json", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res importResponse
	require.NoError(t, json.Unmarshal(out.Data, &res))
	require.Equal(t, 2, res.Inserted)
	require.Equal(t, 1, res.Dropped)
	require.Len(t, res.Errors, 1)

	resp, out = do(t, http.MethodPost, srv.URL+"/api/v1/accounts/BANK-PEN/imports", "application/json", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(out.Data, &res))
	require.Equal(t, 0, res.Inserted)
	require.Equal(t, 2, res.Duplicates)

	resp, out = do(t, http.MethodGet, srv.URL+"/api/v1/accounts/BANK-PEN/statement?start=2025-02-01&end=2025-03-01", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []statementRowJSON
	require.NoError(t, json.Unmarshal(out.Data, &rows))
	require.Len(t, rows, 2)
	require.Equal(t, "1500.00", rows[0].Balance)
	require.Equal(t, "MATCHED", rows[0].Status)
	require.Equal(t, "F001-9", rows[0].Operation.DocumentNumber)
	require.Equal(t, "499.95", rows[1].Balance)
	require.Equal(t, "UNMATCHED", rows[1].Status)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/accounts/BANK-PEN/statement/export?start=2025-02-01&end=2025-03-01", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestImportCSV(t *testing.T) {
	t.Parallel()
	srv, _ := setupAPITest(t)

	csvBody := "Fecha,Descripcion,Monto,ITF,Operacion\n03/02/2025,DEPOSITO,\"2,500.00\",,3326\n"
	resp, out := do(t, http.MethodPost, srv.URL+"/api/v1/accounts/BANK-PEN/imports/csv?format=generic", "text/csv", csvBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res importResponse
	require.NoError(t, json.Unmarshal(out.Data, &res))
	require.Equal(t, 1, res.Inserted)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/accounts/BANK-PEN/imports/csv?format=nope", "text/csv", csvBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()
	srv, _ := setupAPITest(t)

	resp, out := do(t, http.MethodGet, srv.URL+"/api/v1/accounts/BANK-PEM/statement?start=2025-01-01&end=2025-02-01", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, out.Message, `did you mean "BANK-PEN"`)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/accounts/BANK-PEN/imports", "application/json", `{"rows":[{"date":"x","principal":1}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/accounts/BANK-PEN/statement?start=2025-02-01&end=2025-01-01", "", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/accounts/BANK-PEN/statement?start=yesterday&end=2025-01-01", "", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/accounts/BANK-PEN/imports", "application/json", `{not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	oversized := `{"date":"2025-01-01","amount":"1","note":"` + strings.Repeat("x", 70<<10) + `"}`
	resp, _ = do(t, http.MethodPut, srv.URL+"/api/v1/accounts/BANK-PEN/opening-balance", "application/json", oversized)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeeEndpoints(t *testing.T) {
	t.Parallel()
	srv, _ := setupAPITest(t)

	resp, out := do(t, http.MethodGet, srv.URL+"/api/v1/fee-bands/quote?amount=100.00", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quote map[string]string
	require.NoError(t, json.Unmarshal(out.Data, &quote))
	require.Equal(t, "0.50", quote["fee"])

	resp, out = do(t, http.MethodGet, srv.URL+"/api/v1/fee-bands", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bands []ledger.FeeBand
	require.NoError(t, json.Unmarshal(out.Data, &bands))
	require.Len(t, bands, 1)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/fee-bands/quote?amount=abc", "", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/formats"
	"github.com/jask/cashledger/internal/ledger"
)

const isoDate = "2006-01-02"

// maxImportBytes caps upload bodies.
const maxImportBytes = 10 << 20

const maxOpeningBytes = 64 << 10

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.statements.ListAccounts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accts)
}

func (h *Handler) GetFeeBands(w http.ResponseWriter, r *http.Request) {
	bands, err := h.statements.GetFeeBands(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bands)
}

func (h *Handler) QuoteFee(w http.ResponseWriter, r *http.Request) {
	amount, err := ledger.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	fee, err := h.statements.QuoteFee(r.Context(), amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount": amount.StringFixed(2),
		"fee":    fee.StringFixed(2),
	})
}

func (h *Handler) ListFormats(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(h.formats))
	for _, f := range h.formats {
		names = append(names, f.Name)
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) ImportRows(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rows := make([]ledger.RawRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, row.raw())
	}
	h.importRaw(w, r, rows)
}

// ImportCSV reads a bank export in the layout named by ?format=.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = "generic"
	}
	f, err := formats.Find(h.formats, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := f.Read(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.importRaw(w, r, rows)
}

func (h *Handler) importRaw(w http.ResponseWriter, r *http.Request, rows []ledger.RawRow) {
	res, err := h.imports.ImportTransactions(r.Context(), chi.URLParam(r, "accountID"), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newImportResponse(res))
}

func (h *Handler) SetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	var req openingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOpeningBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := time.Parse(isoDate, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	amount, err := decimal.NewFromString(amountText(req.Amount))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	t, err := h.imports.SetOpeningBalance(r.Context(), chi.URLParam(r, "accountID"), date, amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) ([]ledger.StatementRow, bool) {
	start, end, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	rows, err := h.statements.GetStatement(r.Context(), chi.URLParam(r, "accountID"), start, end)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return rows, true
}

func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.statement(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newStatementRows(rows))
}

func (h *Handler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.statement(w, r)
	if !ok {
		return
	}
	flat := h.statements.ExportStatement(rows)
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, flat)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
		fmt.Sprintf("statement-%s-%s.csv", chi.URLParam(r, "accountID"), r.URL.Query().Get("start"))))
	if err := formats.WriteCSV(w, flat); err != nil {
		h.logger.Warn("export write failed", zap.Error(err))
	}
}

// parseRange reads ?start= and ?end= as ISO dates. end is exclusive.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	start, err := time.Parse(isoDate, q.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start must be YYYY-MM-DD")
	}
	end, err := time.Parse(isoDate, q.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end must be YYYY-MM-DD")
	}
	return start, end, nil
}

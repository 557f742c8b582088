// Package api exposes the ledger over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/formats"
	"github.com/jask/cashledger/internal/logging"
	"github.com/jask/cashledger/internal/metrics"
	"github.com/jask/cashledger/internal/service"
)

// Handler serves the ledger endpoints.
type Handler struct {
	imports    *service.ImportService
	statements *service.StatementService
	formats    []formats.Format
	logger     *zap.Logger
}

func NewHandler(imports *service.ImportService, statements *service.StatementService, fmts []formats.Format, logger *zap.Logger) *Handler {
	if len(fmts) == 0 {
		fmts = formats.Defaults()
	}
	return &Handler{imports: imports, statements: statements, formats: fmts, logger: logging.OrNop(logger)}
}

// NewRouter wires every route, the metrics endpoint and middleware.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts", h.ListAccounts)
		r.Get("/fee-bands", h.GetFeeBands)
		r.Get("/fee-bands/quote", h.QuoteFee)
		r.Get("/formats", h.ListFormats)

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Post("/imports", h.ImportRows)
			r.Post("/imports/csv", h.ImportCSV)
			r.Put("/opening-balance", h.SetOpeningBalance)
			r.Get("/statement", h.GetStatement)
			r.Get("/statement/export", h.ExportStatement)
		})
	})
	return r
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

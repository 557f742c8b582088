package operations

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/logging"
)

// Connect opens a pool to the operations database, retrying with
// exponential backoff while the database comes up.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	logger = logging.OrNop(logger)
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse operations dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute

	const maxRetries = 5
	delay := 2 * time.Second
	for i := 1; i <= maxRetries; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := pgxpool.NewWithConfig(attemptCtx, cfg)
		if err == nil {
			err = pool.Ping(attemptCtx)
			if err == nil {
				cancel()
				return pool, nil
			}
			pool.Close()
		}
		cancel()
		logger.Warn("operations db not reachable", zap.Int("attempt", i), zap.Error(err))
		if i == maxRetries {
			return nil, fmt.Errorf("connect operations db after %d attempts: %w", maxRetries, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("connect operations db: unreachable")
}

// Postgres reads operations from the back-office database.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logging.OrNop(logger)}
}

type operationRow struct {
	ID             int64
	MovementNumber string
	Date           time.Time
	Detail         string
	VoucherNumber  string
	Amount         *string
	DocumentNumber string
	Multiple       bool
}

func (p *Postgres) ForMatching(ctx context.Context, accountID string, start, end time.Time) ([]ledger.Operation, error) {
	rows, err := p.pool.Query(ctx, `
	SELECT o.id, TRIM(o.movement_number), o.operation_date, COALESCE(o.detail, ''),
	       COALESCE(o.voucher_number, ''), o.amount::text, COALESCE(o.document_number, ''),
	       COALESCE(o.is_multiple, false)
	FROM payment_operations o
	WHERE o.account_id = $1
	  AND o.operation_date >= $2 AND o.operation_date < $3
	  AND o.movement_number IS NOT NULL AND TRIM(o.movement_number) <> ''
	ORDER BY o.operation_date, o.id`, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	opRows, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (operationRow, error) {
		var o operationRow
		err := r.Scan(&o.ID, &o.MovementNumber, &o.Date, &o.Detail, &o.VoucherNumber, &o.Amount, &o.DocumentNumber, &o.Multiple)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan operations: %w", err)
	}

	var multiIDs []int64
	for _, o := range opRows {
		if o.Multiple {
			multiIDs = append(multiIDs, o.ID)
		}
	}
	invoices := map[int64][]ledger.SubInvoice{}
	if len(multiIDs) > 0 {
		invoices, err = p.subInvoices(ctx, multiIDs)
		if err != nil {
			return nil, err
		}
	}
	return buildOperations(opRows, invoices, p.logger), nil
}

func (p *Postgres) subInvoices(ctx context.Context, ids []int64) (map[int64][]ledger.SubInvoice, error) {
	rows, err := p.pool.Query(ctx, `
	SELECT operation_id, document_number, amount::text
	FROM payment_operation_invoices
	WHERE operation_id = ANY($1)
	ORDER BY operation_id, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query sub-invoices: %w", err)
	}
	defer rows.Close()
	out := make(map[int64][]ledger.SubInvoice)
	for rows.Next() {
		var opID int64
		var doc, amount string
		if err := rows.Scan(&opID, &doc, &amount); err != nil {
			return nil, fmt.Errorf("scan sub-invoice: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("sub-invoice %s amount %q: %w", doc, amount, err)
		}
		out[opID] = append(out[opID], ledger.SubInvoice{DocumentNumber: doc, Amount: d})
	}
	return out, rows.Err()
}

// buildOperations turns raw rows into operations. A split whose children do
// not add up is reported and degraded to its primary document.
func buildOperations(rows []operationRow, invoices map[int64][]ledger.SubInvoice, logger *zap.Logger) []ledger.Operation {
	out := make([]ledger.Operation, 0, len(rows))
	for _, r := range rows {
		op := ledger.Operation{
			MovementNumber: r.MovementNumber,
			Date:           r.Date,
			Detail:         r.Detail,
			VoucherNumber:  r.VoucherNumber,
			Documents:      ledger.Single{DocumentNumber: r.DocumentNumber},
		}
		if r.Amount != nil {
			if d, err := decimal.NewFromString(*r.Amount); err == nil {
				op.Amount = decimal.NewNullDecimal(d)
			}
		}
		if r.Multiple {
			m, err := ledger.NewMultiple(op.Amount, invoices[r.ID])
			if err != nil {
				logger.Warn("operation sub-invoices rejected",
					zap.Int64("operation_id", r.ID),
					zap.String("movement_number", r.MovementNumber),
					zap.Error(err))
			} else {
				op.Documents = m
			}
		}
		out = append(out, op)
	}
	return out
}

// Package testdata builds a sample ledger for demos and manual testing.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/operations"
	"github.com/jask/cashledger/internal/service"
)

var descriptions = []string{
	"DEPOSITO EN EFECTIVO",
	"TRANSF. CLIENTE",
	"PAGO PROVEEDOR FLETE",
	"PAGO COMBUSTIBLE",
	"PEAJES RUTA SUR",
	"ABONO COBRANZA",
}

// Sample holds the generated statement rows and the operations recorded for
// some of them.
type Sample struct {
	Rows       []ledger.RawRow
	Operations []ledger.Operation
}

// Generate builds n statement rows dated in the month of start. About half
// carry a movement number with a matching operation, and every fifth
// operation is split across two invoices.
func Generate(rng *rand.Rand, start time.Time, n int) Sample {
	var s Sample
	movement := 3300
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, rng.Intn(28))
		cents := int64(rng.Intn(500000) + 100)
		amount := decimal.New(cents, -2)
		if rng.Intn(3) == 0 {
			amount = amount.Neg()
		}
		row := ledger.RawRow{
			DateText:    date.Format("02/01/2006"),
			Description: descriptions[rng.Intn(len(descriptions))],
			Principal:   amount.StringFixed(2),
		}
		if amount.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
			row.Fee = "0.05"
		}
		if rng.Intn(2) == 0 {
			movement++
			mv := fmt.Sprintf("%d", movement)
			row.MovementNumber = &mv
			s.Operations = append(s.Operations, operationFor(mv, date, amount.Abs(), len(s.Operations)))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func operationFor(mv string, date time.Time, amount decimal.Decimal, n int) ledger.Operation {
	op := ledger.Operation{
		MovementNumber: mv,
		Date:           date.AddDate(0, 0, -1),
		Detail:         "Operacion " + mv,
		VoucherNumber:  "V-" + mv,
		Amount:         decimal.NewNullDecimal(amount),
		Documents:      ledger.Single{DocumentNumber: "F001-" + mv},
	}
	if n%5 == 4 {
		half := amount.Div(decimal.NewFromInt(2)).Round(2)
		m, err := ledger.NewMultiple(op.Amount, []ledger.SubInvoice{
			{DocumentNumber: "F001-" + mv + "-1", Amount: half},
			{DocumentNumber: "F001-" + mv + "-2", Amount: amount.Sub(half)},
		})
		if err == nil {
			op.Documents = m
		}
	}
	return op
}

// Seed imports a generated month into accountID and registers its
// operations with ops.
func Seed(ctx context.Context, imports *service.ImportService, ops *operations.Memory, accountID string, start time.Time, n int) (service.ImportResult, error) {
	s := Generate(rand.New(rand.NewSource(start.Unix())), start, n)
	res, err := imports.ImportTransactions(ctx, accountID, s.Rows)
	if err != nil {
		return res, err
	}
	if ops != nil {
		ops.Add(accountID, s.Operations...)
	}
	return res, nil
}

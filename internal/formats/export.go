package formats

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jask/cashledger/internal/ledger"
)

// WriteCSV serializes exported statement rows with a header line.
func WriteCSV(w io.Writer, rows []ledger.FlatRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledger.ExportHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(r.Cells()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Package formats reads bank statement exports using column layouts
// described in a TOML file.
package formats

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jask/cashledger/internal/ledger"
)

// Format describes one bank export layout. Columns are zero-based;
// optional columns are omitted from the file when the export lacks them.
type Format struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	// DateFormat is a Go time layout. Empty falls back to day/month/year
	// and spreadsheet serial parsing.
	DateFormat  string `toml:"date_format"`
	HasHeader   bool   `toml:"has_header"`
	Delimiter   string `toml:"delimiter"`
	DateCol     int    `toml:"date_col"`
	DescCol     int    `toml:"desc_col"`
	AmountCol   int    `toml:"amount_col"`
	FeeCol      *int   `toml:"fee_col"`
	MovementCol *int   `toml:"movement_col"`
	AmountStrip string `toml:"amount_strip"` // chars removed from amounts
}

type formatsFile struct {
	Format []Format `toml:"format"`
}

const defaultFormatsTOML = `# cashledger bank export layouts
# Add [[format]] blocks to support other banks.

[[format]]
name = "generic"
description = "date, description, amount, fee, movement number"
has_header = true
delimiter = ","
date_col = 0
desc_col = 1
amount_col = 2
fee_col = 3
movement_col = 4

[[format]]
name = "BCP"
description = "BCP online banking export"
has_header = true
delimiter = ";"
date_col = 0
desc_col = 2
amount_col = 3
movement_col = 5
amount_strip = "S/"
`

// Defaults returns the built-in layouts.
func Defaults() []Format {
	f, err := Parse([]byte(defaultFormatsTOML))
	if err != nil {
		panic(err)
	}
	return f
}

// Load reads layouts from path, writing the defaults there first when the
// file does not exist. An empty path yields the defaults.
func Load(path string) ([]Format, error) {
	if path == "" {
		return Defaults(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create formats dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultFormatsTOML), 0o644); err != nil {
			return nil, fmt.Errorf("write default formats: %w", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formats: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates layouts.
func Parse(data []byte) ([]Format, error) {
	var f formatsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse formats: %w", err)
	}
	if len(f.Format) == 0 {
		return nil, errors.New("no formats defined")
	}
	for i, ft := range f.Format {
		if strings.TrimSpace(ft.Name) == "" {
			return nil, fmt.Errorf("format[%d]: name is required", i)
		}
		if ft.DateCol < 0 || ft.DescCol < 0 || ft.AmountCol < 0 {
			return nil, fmt.Errorf("format %q: negative column", ft.Name)
		}
		if len([]rune(ft.Delimiter)) > 1 {
			return nil, fmt.Errorf("format %q: delimiter must be one character", ft.Name)
		}
	}
	return f.Format, nil
}

// Find looks a layout up by name, ignoring case.
func Find(formats []Format, name string) (Format, error) {
	for _, f := range formats {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f, nil
		}
	}
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	return Format{}, fmt.Errorf("unknown format %q (have %s)", name, strings.Join(names, ", "))
}

// Read parses an export into raw rows. Short records are kept with blank
// cells so the normalizer reports them against their line.
func (f Format) Read(r io.Reader) ([]ledger.RawRow, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	if f.Delimiter != "" {
		cr.Comma = []rune(f.Delimiter)[0]
	}

	var out []ledger.RawRow
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s export: %w", f.Name, err)
		}
		line++
		if line == 1 && f.HasHeader {
			continue
		}
		if blankRecord(rec) {
			continue
		}
		out = append(out, f.row(rec))
	}
	return out, nil
}

func (f Format) row(rec []string) ledger.RawRow {
	row := ledger.RawRow{
		DateText:    cell(rec, f.DateCol),
		Description: cell(rec, f.DescCol),
		Principal:   f.strip(cell(rec, f.AmountCol)),
	}
	if f.DateFormat != "" {
		if t, err := time.Parse(f.DateFormat, row.DateText); err == nil {
			row.Date = t
		}
	}
	if f.FeeCol != nil {
		row.Fee = f.strip(cell(rec, *f.FeeCol))
	}
	if f.MovementCol != nil {
		if mv := cell(rec, *f.MovementCol); mv != "" {
			row.MovementNumber = &mv
		}
	}
	return row
}

func (f Format) strip(s string) string {
	if f.AmountStrip == "" {
		return s
	}
	return strings.ReplaceAll(s, f.AmountStrip, "")
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

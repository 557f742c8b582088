package formats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/cashledger/internal/ledger"
)

func TestDefaults(t *testing.T) {
	f := Defaults()
	require.Len(t, f, 2)
	require.Equal(t, "generic", f[0].Name)
	require.NotNil(t, f[0].FeeCol)
	require.Nil(t, f[1].FeeCol)
}

func TestParse_Validation(t *testing.T) {
	_, err := Parse([]byte(``))
	require.Error(t, err)

	_, err = Parse([]byte("[[format]]\ndate_col = 0\n"))
	require.ErrorContains(t, err, "name is required")

	_, err = Parse([]byte("[[format]]\nname = \"x\"\ndelimiter = \";;\"\n"))
	require.ErrorContains(t, err, "one character")
}

func TestLoad_WritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "formats.toml")
	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f, 2)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestFind(t *testing.T) {
	f, err := Find(Defaults(), "bcp")
	require.NoError(t, err)
	require.Equal(t, "BCP", f.Name)

	_, err = Find(Defaults(), "nope")
	require.ErrorContains(t, err, "generic, BCP")
}

func TestRead_GenericFeedsNormalizer(t *testing.T) {
	f, err := Find(Defaults(), "generic")
	require.NoError(t, err)

	data := strings.Join([]string{
		"Fecha,Descripcion,Monto,ITF,Operacion",
		"03/02/2025,DEPOSITO,\"2,500.00\",,3326",
		"",
		"04/02/2025,PAGO,-120.00,-0.05,",
		"05/02/2025,SHORT",
	}, "\n")

	rows, err := f.Read(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "2,500.00", rows[0].Principal)
	require.Equal(t, "3326", *rows[0].MovementNumber)
	require.Nil(t, rows[1].MovementNumber)
	require.Equal(t, "-0.05", rows[1].Fee)

	txs, dropped := ledger.Normalize("BANK-PEN", rows)
	require.Len(t, txs, 2)
	require.Len(t, dropped, 1)
	require.Equal(t, 3, dropped[0].Row)
	require.Equal(t, "120.05", txs[1].Debit.String())
}

func TestRead_DateLayoutAndStrip(t *testing.T) {
	formats, err := Parse([]byte(`
[[format]]
name = "iso"
date_format = "2006-01-02"
delimiter = ";"
date_col = 1
desc_col = 0
amount_col = 2
amount_strip = "S/"
`))
	require.NoError(t, err)

	rows, err := formats[0].Read(strings.NewReader("ABONO;2025-02-01;S/500.00\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	require.Equal(t, "500.00", rows[0].Principal)
}

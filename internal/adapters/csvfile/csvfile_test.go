package csvfile

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alejandrodnm/hedgelab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeries(t *testing.T) {
	in := "date,close,volume\n2024-01-02,100.5,10\n2024-01-03,,11\n2024-01-04, 101.25 ,12\n"
	s, err := ReadSeries(strings.NewReader(in), "spot", "close")
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "spot", s.Instrument)
	assert.Equal(t, 100.5, s.Points[0].Price)
	assert.True(t, s.Points[1].Missing())
	assert.Equal(t, 101.25, s.Points[2].Price)
	assert.Equal(t, domain.MustDate("2024-01-04"), s.Points[2].Date)
}

func TestReadSeries_ColumnCaseInsensitive(t *testing.T) {
	s, err := ReadSeries(strings.NewReader("Date,Price\n2024-01-02,7\n"), "fut", "price")
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Points[0].Price)
}

func TestReadSeries_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing column", "date,open\n2024-01-02,1\n"},
		{"bad date", "date,price\n02/01/2024,1\n"},
		{"bad price", "date,price\n2024-01-02,abc\n"},
		{"negative price", "date,price\n2024-01-02,-1\n"},
		{"unsorted", "date,price\n2024-01-03,1\n2024-01-02,2\n"},
		{"duplicate", "date,price\n2024-01-02,1\n2024-01-02,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeries(strings.NewReader(tt.in), "x", "price")
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestLoadSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spot.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,price\n2024-01-02,1\n2024-01-03,2\n"), 0o644))

	s, err := LoadSeries(path, "spot", "price")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = LoadSeries(filepath.Join(t.TempDir(), "missing.csv"), "spot", "price")
	assert.Error(t, err)
}

func TestWriteLedger(t *testing.T) {
	l := domain.Ledger{Rows: []domain.LedgerRow{
		{Date: domain.MustDate("2024-01-02"), SpotChange: 1, FutureChange: 0.5, SpotPnL: 1, FuturePnL: -1, UnhedgedPnL: 1, CumulativeUnhedged: 1},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, l))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "date", recs[0][0])
	assert.Equal(t, []string{"2024-01-02", "1", "0.5", "1", "-1", "1", "0", "1", "0"}, recs[1])
}

func TestWriteSensitivity_NaNIsEmpty(t *testing.T) {
	c := domain.SensitivityCurve{Points: []domain.SensitivityPoint{{Multiplier: 1, DeviationPct: math.NaN()}}}
	var buf bytes.Buffer
	require.NoError(t, WriteSensitivity(&buf, c))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1,0,,0,0,0,0", lines[1])
}

func TestExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e, err := NewExporter(dir)
	require.NoError(t, err)

	a := domain.Analysis{
		Stress: domain.StressReport{Periods: []domain.StressPeriod{{
			Start: domain.MustDate("2024-01-02"), End: domain.MustDate("2024-01-05"),
			Kind: domain.StressDecline, Days: 4, PriceChangePct: -6, TriggerReason: "decline",
		}}},
	}
	paths, err := e.Export(a)
	require.NoError(t, err)
	assert.Len(t, paths, 5)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "stress.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2024-01-02,2024-01-05,decline,4,-6,")
}

func TestSaveSeries_ReadBack(t *testing.T) {
	in := domain.NewSeries("CU0", []domain.PricePoint{
		{Date: domain.MustDate("2024-03-01"), Price: 68120},
		domain.MissingPoint(domain.MustDate("2024-03-04")),
		{Date: domain.MustDate("2024-03-05"), Price: 68395.5},
	})
	path := filepath.Join(t.TempDir(), "cu0.csv")
	require.NoError(t, SaveSeries(path, in, "close"))

	out, err := LoadSeries(path, "CU0", "close")
	require.NoError(t, err)
	require.Equal(t, in.Len(), out.Len())
	for i := range in.Points {
		assert.Equal(t, in.Points[i].Date, out.Points[i].Date)
	}
	assert.Equal(t, 68120.0, out.Points[0].Price)
	assert.True(t, out.Points[1].Missing())
	assert.Equal(t, 68395.5, out.Points[2].Price)
}

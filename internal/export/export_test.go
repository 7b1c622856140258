package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/destinos-group/destinos-cli/internal/model"
)

func sampleResult() *model.RankedResult {
	granada := model.Locality{Name: "Granada", Province: "Granada"}

	return &model.RankedResult{
		RunID: "test-run",
		Buckets: []model.Bucket{
			{
				City: model.ReferenceCity{Locality: granada},
				Assignments: []model.Assignment{
					{Locality: granada, DistanceKM: 0},
					{Locality: model.Locality{Name: "Lanjarón", Province: "Granada", CenterType: model.CenterTypeIES}, DistanceKM: 47.83},
					{Locality: model.Locality{Name: "Motril", Province: "Granada", CenterType: model.CenterTypeIES}, DistanceKM: 68.5},
				},
			},
		},
		Skipped: []model.Skipped{
			{Locality: model.Locality{Name: "Rota", Province: "Cádiz"}, Reason: "distance unavailable"},
		},
		Addendum: []model.Locality{
			{Name: "Fuera", Province: "Almería"},
		},
		MarginPct: 0,
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 6) // header + 3 bucket rows + 1 skipped + 1 addendum
	assert.Equal(t, rankingColumns, records[0])

	// Reference city row comes first, marked and at zero distance.
	assert.Equal(t, []string{"Granada", "1", "Granada", "Granada", "", "0.00", "reference"}, records[1])
	assert.Equal(t, "47.83", records[2][5])
	assert.Equal(t, "68.50", records[3][5])

	assert.Equal(t, "skipped: distance unavailable", records[4][6])
	assert.Equal(t, "addendum", records[5][6])
}

func TestExportXLSX_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.xlsx")
	require.NoError(t, ExportXLSX(sampleResult(), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Ranking", sheet.Name)
	require.Len(t, sheet.Rows, 6)
	assert.Equal(t, "Reference City", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Lanjarón", sheet.Rows[2].Cells[2].String())
	assert.Equal(t, "47.83", sheet.Rows[2].Cells[5].String())
}

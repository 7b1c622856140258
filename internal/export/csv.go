package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// WriteCSV writes a RankedResult as CSV to w.
func WriteCSV(w io.Writer, result *model.RankedResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(rankingColumns); err != nil {
		return eris.Wrap(err, "csv export: write header")
	}
	for _, row := range buildRows(result) {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "csv export: flush")
}

// ExportCSV writes a RankedResult to a CSV file at outputPath.
func ExportCSV(result *model.RankedResult, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "csv export: create file")
	}
	defer f.Close()

	return WriteCSV(f, result)
}

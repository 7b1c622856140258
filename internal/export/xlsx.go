package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// ExportXLSX writes a RankedResult to an XLSX workbook at outputPath, with a
// "Ranking" sheet mirroring the CSV layout.
func ExportXLSX(result *model.RankedResult, outputPath string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Ranking")
	if err != nil {
		return eris.Wrap(err, "xlsx export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range rankingColumns {
		header.AddCell().SetString(col)
	}

	for _, rowData := range buildRows(result) {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}

	if err := f.Save(outputPath); err != nil {
		return eris.Wrap(err, "xlsx export: save file")
	}
	return nil
}

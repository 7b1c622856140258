// Package export writes RankedResults to CSV and XLSX files for the output
// consumer.
package export

import (
	"strconv"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// rankingColumns defines the ordered output columns shared by all formats.
var rankingColumns = []string{
	"Reference City",
	"Priority",
	"Locality",
	"Province",
	"Center Type",
	"Distance (km)",
	"Note",
}

func formatKM(km float64) string {
	return strconv.FormatFloat(km, 'f', 2, 64)
}

// buildRows flattens a RankedResult into ordered string rows: buckets in
// priority order, then the skip report, then the addendum.
func buildRows(result *model.RankedResult) [][]string {
	var rows [][]string

	for i, bucket := range result.Buckets {
		priority := strconv.Itoa(i + 1)
		for j, a := range bucket.Assignments {
			note := ""
			if j == 0 {
				note = "reference"
			}
			rows = append(rows, []string{
				bucket.City.Name,
				priority,
				a.Locality.Name,
				a.Locality.Province,
				string(a.Locality.CenterType),
				formatKM(a.DistanceKM),
				note,
			})
		}
	}

	for _, s := range result.Skipped {
		rows = append(rows, []string{
			"", "",
			s.Locality.Name,
			s.Locality.Province,
			string(s.Locality.CenterType),
			"",
			"skipped: " + s.Reason,
		})
	}

	for _, l := range result.Addendum {
		rows = append(rows, []string{
			"", "",
			l.Name,
			l.Province,
			string(l.CenterType),
			"",
			"addendum",
		})
	}

	return rows
}

// Package importer loads candidate localities from the provincial
// educational-center CSV files.
package importer

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// decodeToUTF8 returns data as UTF-8 text. The source CSVs arrive in a mix
// of UTF-8, Windows-1252, and ISO-8859-1.
func decodeToUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		zap.L().Debug("csv decoded as windows-1252")
		return decoded, nil
	}

	decoded, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrap(err, "importer: undecodable csv")
	}
	zap.L().Debug("csv decoded as iso-8859-1")
	return decoded, nil
}

// column aliases as they appear across the provincial files.
var (
	localityColumns = []string{"localidad", "municipio"}
	provinceColumns = []string{"provincia"}
)

func findColumn(header []string, aliases []string) int {
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		for _, alias := range aliases {
			if name == alias {
				return i
			}
		}
	}
	return -1
}

// ParseLocalities reads one educational-center CSV and returns the unique
// localities it names. A missing provincia column falls back to
// defaultProvince; rows without a locality are skipped.
func ParseLocalities(r io.Reader, defaultProvince string, centerType model.CenterType) ([]model.Locality, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv")
	}
	data, err := decodeToUTF8(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read header")
	}

	locIdx := findColumn(header, localityColumns)
	if locIdx == -1 {
		return nil, eris.Errorf("importer: no locality column in header %v", header)
	}
	provIdx := findColumn(header, provinceColumns)

	seen := map[string]struct{}{}
	var out []model.Locality
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read row")
		}
		if locIdx >= len(record) {
			continue
		}

		name := model.NormalizeName(record[locIdx])
		if name == "" {
			continue
		}
		province := defaultProvince
		if provIdx != -1 && provIdx < len(record) && strings.TrimSpace(record[provIdx]) != "" {
			province = model.NormalizeName(record[provIdx])
		}

		l := model.Locality{Name: name, Province: province, CenterType: centerType}
		if _, dup := seen[l.Key()]; dup {
			continue
		}
		seen[l.Key()] = struct{}{}
		out = append(out, l)
	}

	return out, nil
}

package importer

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// provinceDirs maps accented province names to their accent-free data
// directory names.
var provinceDirs = map[string]string{
	"Almería": "Almeria",
	"Cádiz":   "Cadiz",
	"Córdoba": "Cordoba",
	"Jaén":    "Jaen",
	"Málaga":  "Malaga",
}

func dirForProvince(province string) string {
	if d, ok := provinceDirs[province]; ok {
		return d
	}
	return province
}

func fileForCenterType(ct model.CenterType) string {
	if ct == model.CenterTypeCEIP {
		return "colegios.csv"
	}
	return "institutos.csv"
}

// LoadProvinces reads the center files for the selected provinces from the
// data directory laid out as <dataDir>/<Provincia>/{institutos,colegios}.csv.
// Provinces without a file are logged and skipped.
func LoadProvinces(dataDir string, provinces []string, centerType model.CenterType) ([]model.Locality, error) {
	seen := map[string]struct{}{}
	var out []model.Locality

	for _, province := range provinces {
		path := filepath.Join(dataDir, dirForProvince(province), fileForCenterType(centerType))

		f, err := os.Open(path)
		if os.IsNotExist(err) {
			zap.L().Warn("no center file for province",
				zap.String("province", province),
				zap.String("path", path),
			)
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "importer: open %s", path)
		}

		localities, err := ParseLocalities(f, province, centerType)
		_ = f.Close()
		if err != nil {
			return nil, err
		}

		zap.L().Info("province loaded",
			zap.String("province", province),
			zap.Int("localities", len(localities)),
		)
		for _, l := range localities {
			// the files carry the province again; trust the directory
			l.Province = province
			if _, dup := seen[l.Key()]; dup {
				continue
			}
			seen[l.Key()] = struct{}{}
			out = append(out, l)
		}
	}

	if len(out) == 0 {
		return nil, eris.New("importer: no localities found for the selected provinces")
	}
	return out, nil
}

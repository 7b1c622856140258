package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/destinos-group/destinos-cli/internal/model"
)

const sampleCSV = `Código,Denominación,Localidad,Provincia
18001,IES Alpujarra,LANJARÓN,Granada
18002,IES Zaidín,granada,Granada
18003,IES Mediterráneo,MOTRIL,Granada
18004,IES Otro,LANJARÓN,Granada
18005,,  ,Granada
`

func TestParseLocalities(t *testing.T) {
	out, err := ParseLocalities(strings.NewReader(sampleCSV), "Granada", model.CenterTypeIES)
	require.NoError(t, err)

	require.Len(t, out, 3) // duplicates and the blank row dropped
	assert.Equal(t, "Lanjarón", out[0].Name)
	assert.Equal(t, "Granada", out[1].Name)
	assert.Equal(t, "Motril", out[2].Name)
	for _, l := range out {
		assert.Equal(t, "Granada", l.Province)
		assert.Equal(t, model.CenterTypeIES, l.CenterType)
	}
}

func TestParseLocalities_MunicipioColumn(t *testing.T) {
	csv := "Municipio,Provincia\nEL EJIDO,Almería\n"
	out, err := ParseLocalities(strings.NewReader(csv), "Almería", model.CenterTypeCEIP)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "El Ejido", out[0].Name)
	assert.Equal(t, "Almería", out[0].Province)
}

func TestParseLocalities_NoLocalityColumn(t *testing.T) {
	csv := "Nombre,Dependencia\nIES Algo,Pública\n"
	_, err := ParseLocalities(strings.NewReader(csv), "Granada", model.CenterTypeIES)
	assert.Error(t, err)
}

func TestParseLocalities_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(sampleCSV))
	require.NoError(t, err)

	out, err := ParseLocalities(strings.NewReader(string(encoded)), "Granada", model.CenterTypeIES)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Lanjarón", out[0].Name)
}

func TestParseLocalities_MissingProvinceColumnUsesDefault(t *testing.T) {
	csv := "Localidad\nBAZA\n"
	out, err := ParseLocalities(strings.NewReader(csv), "Granada", model.CenterTypeIES)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Granada", out[0].Province)
}

func TestLoadProvinces(t *testing.T) {
	dataDir := t.TempDir()

	// Málaga lives in an accent-free directory.
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "Malaga"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dataDir, "Malaga", "institutos.csv"),
		[]byte("Localidad,Provincia\nRONDA,Málaga\n"), 0o644))

	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "Granada"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dataDir, "Granada", "institutos.csv"),
		[]byte("Localidad,Provincia\nBAZA,Granada\nGUADIX,Granada\n"), 0o644))

	out, err := LoadProvinces(dataDir, []string{"Málaga", "Granada", "Huelva"}, model.CenterTypeIES)
	require.NoError(t, err)

	require.Len(t, out, 3) // Huelva has no file and is skipped
	assert.Equal(t, "Ronda", out[0].Name)
	assert.Equal(t, "Málaga", out[0].Province)
}

func TestLoadProvinces_NothingFound(t *testing.T) {
	_, err := LoadProvinces(t.TempDir(), []string{"Granada"}, model.CenterTypeIES)
	assert.Error(t, err)
}

package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinos-group/destinos-cli/internal/model"
)

func sampleProfile() *Profile {
	margin := 0.1
	return &Profile{
		Name:       "Granada Costa",
		Provinces:  []string{"Granada", "Málaga"},
		CenterType: model.CenterTypeIES,
		References: []Reference{
			{Name: "Granada", Province: "Granada"},
			{Name: "Motril", Province: "Granada", RadiusKM: 30},
		},
		Margin: &margin,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, sampleProfile()))

	loaded, err := Load(dir, "Granada Costa")
	require.NoError(t, err)
	assert.Equal(t, sampleProfile(), loaded)
}

func TestLoadIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, sampleProfile()))

	loaded, err := Load(dir, "granada costa")
	require.NoError(t, err)
	assert.Equal(t, "Granada Costa", loaded.Name)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "nadie")
	assert.Error(t, err)
}

func TestSaveRequiresName(t *testing.T) {
	err := Save(t.TempDir(), &Profile{})
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	names, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, Save(dir, sampleProfile()))
	other := sampleProfile()
	other.Name = "Almería Este"
	require.NoError(t, Save(dir, other))

	names, err = List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Almería Este", "Granada Costa"}, names)
}

func TestReferenceCitiesPriorityFromOrder(t *testing.T) {
	refs := sampleProfile().ReferenceCities()
	require.Len(t, refs, 2)

	assert.Equal(t, "Granada", refs[0].Name)
	assert.Equal(t, 1, refs[0].Priority)
	assert.Zero(t, refs[0].RadiusKM)

	assert.Equal(t, "Motril", refs[1].Name)
	assert.Equal(t, 2, refs[1].Priority)
	assert.InDelta(t, 30.0, refs[1].RadiusKM, 0.001)

	for _, r := range refs {
		assert.NoError(t, r.Validate())
	}
}

// Package profile persists named ranking configurations so users can rerun
// a selection without retyping provinces and reference cities.
package profile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// Reference is one reference city as written in a profile file. Order in
// the list is priority order.
type Reference struct {
	Name     string  `yaml:"name"`
	Province string  `yaml:"province"`
	RadiusKM float64 `yaml:"radius_km,omitempty"`
}

// Profile is a saved ranking configuration.
type Profile struct {
	Name       string           `yaml:"name"`
	Provinces  []string         `yaml:"provinces"`
	CenterType model.CenterType `yaml:"center_type"`
	References []Reference      `yaml:"reference_cities"`
	Margin     *float64         `yaml:"margin,omitempty"`
}

// ReferenceCities converts the profile's reference list into model values,
// with priority taken from list position.
func (p *Profile) ReferenceCities() []model.ReferenceCity {
	out := make([]model.ReferenceCity, len(p.References))
	for i, r := range p.References {
		out[i] = model.ReferenceCity{
			Locality: model.Locality{Name: r.Name, Province: r.Province},
			Priority: i + 1,
			RadiusKM: r.RadiusKM,
		}
	}
	return out
}

// slug converts a profile name into its file stem.
func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(s, " ", "-")
}

// Save writes the profile as YAML under dir, creating dir if needed.
func Save(dir string, p *Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return eris.New("profile: name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "profile: create directory")
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "profile: marshal")
	}

	path := filepath.Join(dir, slug(p.Name)+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "profile: write file")
	}
	return nil
}

// Load reads a profile by name from dir.
func Load(dir, name string) (*Profile, error) {
	path := filepath.Join(dir, slug(name)+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", path)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "profile: parse %s", path)
	}
	return &p, nil
}

// List returns the names of all saved profiles in dir, sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "profile: list directory")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p, err := Load(dir, strings.TrimSuffix(e.Name(), ".yaml"))
		if err != nil {
			continue // unreadable files don't break listing
		}
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names, nil
}

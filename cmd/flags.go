package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// parseReferenceCity parses a --city flag value of the form
// "Name,Province[,radius_km]".
func parseReferenceCity(s string, priority int) (model.ReferenceCity, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return model.ReferenceCity{}, eris.Errorf("city %q: want Name,Province[,radius_km]", s)
	}

	ref := model.ReferenceCity{
		Locality: model.Locality{
			Name:     model.NormalizeName(model.CleanCenterName(parts[0])),
			Province: model.NormalizeName(parts[1]),
		},
		Priority: priority,
	}

	if len(parts) == 3 {
		radius, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return model.ReferenceCity{}, eris.Errorf("city %q: bad radius %q", s, parts[2])
		}
		ref.RadiusKM = radius
	}

	if err := ref.Validate(); err != nil {
		return model.ReferenceCity{}, err
	}
	return ref, nil
}

func parseReferenceCities(specs []string) ([]model.ReferenceCity, error) {
	refs := make([]model.ReferenceCity, 0, len(specs))
	for i, s := range specs {
		ref, err := parseReferenceCity(s, i+1)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseCenterType accepts the short codes and the spoken names.
func parseCenterType(s string) (model.CenterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ies", "institutos":
		return model.CenterTypeIES, nil
	case "ceip", "colegios":
		return model.CenterTypeCEIP, nil
	default:
		return "", eris.Errorf("unknown center type %q (want ies or ceip)", s)
	}
}

package model

import (
	"strings"
	"unicode"
)

// CenterType distinguishes the kinds of educational centers a locality hosts.
type CenterType string

const (
	CenterTypeIES  CenterType = "ies"  // secondary schools (Institutos)
	CenterTypeCEIP CenterType = "ceip" // primary schools (Colegios)
)

// Locality identifies a town by name and province. Names are not unique across
// Spain, so the province is part of the identity.
type Locality struct {
	Name       string     `json:"name"`
	Province   string     `json:"province"`
	CenterType CenterType `json:"center_type,omitempty"`
}

// Qualified returns the "Name, Province" form used for geocoding and as the
// cache key component.
func (l Locality) Qualified() string {
	return l.Name + ", " + l.Province
}

// Key returns the normalized identity of the locality.
func (l Locality) Key() string {
	return strings.ToLower(strings.TrimSpace(l.Qualified()))
}

// ReferenceCity is a user-chosen anchor for proximity ranking. Priority is its
// 1-based position in the input order; RadiusKM of 0 means unbounded.
type ReferenceCity struct {
	Locality
	Priority int     `json:"priority"`
	RadiusKM float64 `json:"radius_km"`
}

// Validate rejects reference cities that would poison a ranking run before any
// distance lookups are issued.
func (r ReferenceCity) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &InvalidReferenceCityError{City: r, Reason: "empty name"}
	}
	if r.RadiusKM < 0 {
		return &InvalidReferenceCityError{City: r, Reason: "negative radius"}
	}
	return nil
}

// NormalizeName formats a locality name with each word capitalized, splitting
// on hyphens as the source CSVs do ("EL EJIDO" and "el-ejido" both become
// "El Ejido").
func NormalizeName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// CleanCenterName strips center-type prefixes ("IES ", "CEIP ") sometimes
// present in reference-city input pasted from center listings.
func CleanCenterName(name string) string {
	upper := strings.ToUpper(name)
	for _, prefix := range []string{"IES ", "CEIP "} {
		if strings.HasPrefix(upper, prefix) {
			return strings.TrimSpace(name[len(prefix):])
		}
	}
	return strings.TrimSpace(name)
}

// Package distance computes road or straight-line distances between
// Spanish localities through a cascade of providers.
package distance

import (
	"context"
	"fmt"
)

// Place identifies a locality to measure from or to.
type Place struct {
	Name     string
	Province string
}

// String returns the place formatted for queries and logs.
func (p Place) String() string {
	if p.Province == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Province)
}

// Result is a resolved distance between two places.
type Result struct {
	KM     float64
	Source string
}

// Provider represents a single distance backend.
type Provider interface {
	Name() string
	Available() bool
	Distance(ctx context.Context, a, b Place) (*Result, error)
}

// UnknownPlaceError indicates a place could not be located by any geocoder.
type UnknownPlaceError struct {
	Place string
}

func (e *UnknownPlaceError) Error() string {
	return fmt.Sprintf("unknown place: %s", e.Place)
}

package model

import "fmt"

// ResolutionError reports that no distance could be obtained for a pair of
// localities: the name is unknown to every provider or the providers were
// unreachable. It is non-fatal to a ranking run.
type ResolutionError struct {
	NameA  string
	NameB  string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("distance unresolved for %q and %q: %s", e.NameA, e.NameB, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// InvalidReferenceCityError marks a reference city rejected before any distance
// lookups are issued. It is fatal to the run.
type InvalidReferenceCityError struct {
	City   ReferenceCity
	Reason string
}

func (e *InvalidReferenceCityError) Error() string {
	return fmt.Sprintf("invalid reference city %q (%s): %s", e.City.Name, e.City.Province, e.Reason)
}

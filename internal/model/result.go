package model

import "time"

// Assignment binds a candidate locality to the reference city it ended up
// associated with, at the distance that decided the assignment.
type Assignment struct {
	Locality   Locality `json:"locality"`
	DistanceKM float64  `json:"distance_km"`
}

// Bucket groups the candidates finally assigned to one reference city,
// ordered by ascending distance. The reference city itself is the first
// entry, at distance 0.
type Bucket struct {
	City        ReferenceCity `json:"city"`
	Assignments []Assignment  `json:"assignments"`
}

// Skipped records a candidate excluded from the ranked output, with the
// reason, so no locality is silently lost.
type Skipped struct {
	Locality Locality `json:"locality"`
	Reason   string   `json:"reason"`
}

// RankedResult is the full outcome of one ranking run: buckets in reference
// priority order, the skip report, and the informational addendum of nearby
// localities outside the requested provinces or categories.
type RankedResult struct {
	RunID     string     `json:"run_id"`
	Buckets   []Bucket   `json:"buckets"`
	Skipped   []Skipped  `json:"skipped,omitempty"`
	Addendum  []Locality `json:"addendum,omitempty"`
	RankedAt  time.Time  `json:"ranked_at"`
	MarginPct float64    `json:"margin"`
}

// Flatten returns the single deduplicated ordered list: buckets in priority
// order, each bucket's assignments by ascending distance.
func (r *RankedResult) Flatten() []Assignment {
	var out []Assignment
	for _, b := range r.Buckets {
		out = append(out, b.Assignments...)
	}
	return out
}

// DistanceCacheEntry is one persisted distance, keyed by the canonical
// unordered pair of qualified locality names. Write-once: never updated or
// deleted by the core.
type DistanceCacheEntry struct {
	KeyA       string    `json:"key_a"`
	KeyB       string    `json:"key_b"`
	DistanceKM float64   `json:"distance_km"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanonicalPair orders two locality keys lexicographically so (A,B) and (B,A)
// resolve to the same cache entry.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

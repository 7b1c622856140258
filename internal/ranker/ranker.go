// Package ranker assigns candidate localities to reference cities by
// proximity, honoring per-city radius limits and the priority cascade.
package ranker

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// distance comparisons tolerate float noise; equidistant candidates stay
// with the higher-priority city.
const epsilon = 1e-9

// DistanceResolver answers pairwise distance lookups.
type DistanceResolver interface {
	Resolve(ctx context.Context, a, b model.Locality) (float64, error)
}

// Ranker computes RankedResults. Safe for concurrent use.
type Ranker struct {
	resolver    DistanceResolver
	margin      float64
	concurrency int
}

// Option configures the Ranker.
type Option func(*Ranker)

// WithMargin sets the cascade margin: a lower-priority city steals a
// candidate only if its distance is below assigned × (1 − margin). The
// default 0 means any strictly smaller distance reassigns.
func WithMargin(m float64) Option {
	return func(r *Ranker) {
		if m >= 0 && m < 1 {
			r.margin = m
		}
	}
}

// WithConcurrency bounds parallel distance lookups.
func WithConcurrency(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a Ranker over the given resolver.
func New(resolver DistanceResolver, opts ...Option) *Ranker {
	r := &Ranker{
		resolver:    resolver,
		margin:      0,
		concurrency: 10,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank assigns every candidate to exactly one reference city, or to the skip
// report when no distance could be resolved or every radius excludes it.
// Reference cities arrive ordered by priority, highest first. The addendum is
// passed through unranked. Invalid reference cities abort the run before any
// distance lookup is issued.
func (r *Ranker) Rank(ctx context.Context, candidates []model.Locality, refs []model.ReferenceCity, addendum []model.Locality) (*model.RankedResult, error) {
	if len(refs) == 0 {
		return nil, &model.InvalidReferenceCityError{Reason: "no reference cities given"}
	}
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	zap.L().Info("ranking run started",
		zap.String("run_id", runID),
		zap.Int("candidates", len(candidates)),
		zap.Int("reference_cities", len(refs)),
		zap.Float64("margin", r.margin),
	)

	candidates, refSelf := splitReferenceSelves(candidates, refs)

	matrix, skipped := r.distanceMatrix(ctx, candidates, refs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assigned := make([][]model.Assignment, len(refs))
	for i, cand := range candidates {
		if matrix[i] == nil {
			continue // already skipped
		}
		idx, ok := r.assign(matrix[i], refs)
		if !ok {
			skipped = append(skipped, model.Skipped{
				Locality: cand,
				Reason:   "outside every reference radius",
			})
			continue
		}
		assigned[idx] = append(assigned[idx], model.Assignment{
			Locality:   cand,
			DistanceKM: matrix[i][idx],
		})
	}

	buckets := make([]model.Bucket, len(refs))
	for i, ref := range refs {
		sort.Slice(assigned[i], func(a, b int) bool {
			if assigned[i][a].DistanceKM != assigned[i][b].DistanceKM {
				return assigned[i][a].DistanceKM < assigned[i][b].DistanceKM
			}
			return assigned[i][a].Locality.Qualified() < assigned[i][b].Locality.Qualified()
		})
		self := model.Assignment{Locality: ref.Locality, DistanceKM: 0}
		buckets[i] = model.Bucket{
			City:        ref,
			Assignments: append([]model.Assignment{self}, assigned[i]...),
		}
	}

	sort.Slice(skipped, func(a, b int) bool {
		return skipped[a].Locality.Qualified() < skipped[b].Locality.Qualified()
	})

	result := &model.RankedResult{
		RunID:     runID,
		Buckets:   buckets,
		Skipped:   skipped,
		Addendum:  addendum,
		RankedAt:  time.Now().UTC(),
		MarginPct: r.margin,
	}

	zap.L().Info("ranking run finished",
		zap.String("run_id", runID),
		zap.Int("assigned", len(result.Flatten())-len(refs)),
		zap.Int("skipped", len(skipped)),
		zap.Int("reference_selves", refSelf),
	)
	return result, nil
}

// splitReferenceSelves drops candidates that are themselves reference cities
// (and duplicate candidates) so each locality appears exactly once in the
// output; the reference city represents itself at distance 0.
func splitReferenceSelves(candidates []model.Locality, refs []model.ReferenceCity) ([]model.Locality, int) {
	refKeys := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		refKeys[ref.Key()] = struct{}{}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]model.Locality, 0, len(candidates))
	selves := 0
	for _, c := range candidates {
		if _, ok := refKeys[c.Key()]; ok {
			selves++
			continue
		}
		if _, ok := seen[c.Key()]; ok {
			continue
		}
		seen[c.Key()] = struct{}{}
		out = append(out, c)
	}
	return out, selves
}

// distanceMatrix resolves every candidate×reference distance with bounded
// parallelism. A candidate whose distances cannot all be resolved is
// reported as skipped and its row left nil. No ordering is applied until
// every lookup has settled.
func (r *Ranker) distanceMatrix(ctx context.Context, candidates []model.Locality, refs []model.ReferenceCity) ([][]float64, []model.Skipped) {
	matrix := make([][]float64, len(candidates))
	failures := make([]error, len(candidates))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for i, cand := range candidates {
		eg.Go(func() error {
			row := make([]float64, len(refs))
			for j, ref := range refs {
				km, err := r.resolver.Resolve(gCtx, cand, ref.Locality)
				if err != nil {
					failures[i] = err
					return nil // skip this candidate, keep the run going
				}
				row[j] = km
			}
			matrix[i] = row
			return nil
		})
	}
	_ = eg.Wait()

	var skipped []model.Skipped
	for i, err := range failures {
		if err == nil {
			continue
		}
		zap.L().Warn("candidate skipped",
			zap.String("locality", candidates[i].Qualified()),
			zap.Error(err),
		)
		skipped = append(skipped, model.Skipped{
			Locality: candidates[i],
			Reason:   "distance unavailable: " + err.Error(),
		})
	}
	return matrix, skipped
}

// assign applies the radius filter and the priority cascade to one
// candidate's distance row, returning the index of the winning reference
// city. ok is false when every radius excludes the candidate.
func (r *Ranker) assign(row []float64, refs []model.ReferenceCity) (int, bool) {
	eligible := func(j int) bool {
		return refs[j].RadiusKM == 0 || row[j] <= refs[j].RadiusKM+epsilon
	}

	best := -1
	for j := range refs {
		if !eligible(j) {
			continue
		}
		if best == -1 {
			best = j
			continue
		}
		// A lower-priority city steals only with a significantly smaller
		// distance; ties stay with the higher priority.
		if row[j] < row[best]*(1-r.margin)-epsilon {
			best = j
		}
	}
	return best, best != -1
}

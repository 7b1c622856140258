package distance

import (
	"context"

	"go.uber.org/zap"
)

// Cascade tries distance providers in order until one succeeds.
type Cascade struct {
	providers []Provider
}

// NewCascade creates a Cascade over the given providers. Order matters:
// earlier providers are preferred.
func NewCascade(providers ...Provider) *Cascade {
	return &Cascade{providers: providers}
}

// Name implements Provider.
func (c *Cascade) Name() string { return "cascade" }

// Available implements Provider.
func (c *Cascade) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// Distance implements Provider by trying each provider in order. An
// UnknownPlaceError from every provider means the pair is unresolvable
// and the last such error is returned.
func (c *Cascade) Distance(ctx context.Context, a, b Place) (*Result, error) {
	var lastErr error
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		result, err := p.Distance(ctx, a, b)
		if err != nil {
			zap.L().Debug("distance cascade: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.String("from", a.String()),
				zap.String("to", b.String()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if result != nil {
			return result, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &UnknownPlaceError{Place: a.String() + " / " + b.String()}
}

package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/ranker"
	"github.com/destinos-group/destinos-cli/internal/resolver"
	"github.com/destinos-group/destinos-cli/internal/store"
	"github.com/destinos-group/destinos-cli/pkg/anthropic"
	"github.com/destinos-group/destinos-cli/pkg/distance"
	"github.com/destinos-group/destinos-cli/pkg/geocode"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "destinos.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initDistanceCache layers the optional shared Redis tier in front of the
// store's persistent cache.
func initDistanceCache(ctx context.Context, st store.Store) (store.DistanceCache, error) {
	if !cfg.Redis.Enabled {
		return st, nil
	}
	redisCache, err := store.NewRedisDistanceCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	return store.NewTieredDistanceCache(redisCache, st), nil
}

func initGeocoder(st store.Store) geocode.Client {
	return geocode.NewClient(
		geocode.WithBaseURL(cfg.Nominatim.BaseURL),
		geocode.WithRateLimit(cfg.Nominatim.RatePerSec),
		geocode.WithCache(st),
	)
}

func initProviders(geocoder geocode.Client) (distance.Provider, error) {
	var providers []distance.Provider
	for _, name := range cfg.Rank.Providers {
		switch name {
		case "osrm":
			providers = append(providers, distance.NewOSRMProvider(geocoder,
				distance.WithOSRMBaseURL(cfg.OSRM.BaseURL),
				distance.WithOSRMRateLimit(cfg.OSRM.RatePerSec),
			))
		case "geodesic":
			providers = append(providers, distance.NewGeodesicProvider(geocoder))
		case "llm":
			client := anthropic.NewClient(cfg.Anthropic.Key)
			providers = append(providers, distance.NewLLMProvider(client,
				distance.WithLLMModel(cfg.Anthropic.Model),
			))
		default:
			return nil, eris.Errorf("unknown distance provider: %s", name)
		}
	}
	if len(providers) == 0 {
		return nil, eris.New("no distance providers configured")
	}

	zap.L().Debug("distance providers configured",
		zap.Strings("providers", cfg.Rank.Providers),
	)
	return distance.NewCascade(providers...), nil
}

// initRanker wires store, geocoder, providers, resolver, and ranker for one
// process.
func initRanker(ctx context.Context, st store.Store) (*ranker.Ranker, error) {
	cache, err := initDistanceCache(ctx, st)
	if err != nil {
		return nil, err
	}

	provider, err := initProviders(initGeocoder(st))
	if err != nil {
		return nil, err
	}

	res := resolver.New(cache, provider)
	return ranker.New(res,
		ranker.WithMargin(cfg.Rank.Margin),
		ranker.WithConcurrency(cfg.Rank.Concurrency),
	), nil
}

package main

import (
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/destinos-group/destinos-cli/internal/model"
	"github.com/destinos-group/destinos-cli/internal/profile"
	"github.com/destinos-group/destinos-cli/internal/resolver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and warm the distance cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "distances:   %d\n", stats.Distances)
		fmt.Fprintf(out, "localities:  %d\n", stats.Localities)
		fmt.Fprintf(out, "coordinates: %d\n", stats.Coordinates)
		return nil
	},
}

var cacheWarmProfile string

var cacheWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Pre-resolve all distances for a saved profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cacheWarmProfile == "" {
			return eris.New("--profile is required")
		}
		p, err := profile.Load(cfg.Profiles.Dir, cacheWarmProfile)
		if err != nil {
			return err
		}
		refs := p.ReferenceCities()
		for _, ref := range refs {
			if err := ref.Validate(); err != nil {
				return err
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		centerType := p.CenterType
		if centerType == "" {
			centerType = model.CenterTypeIES
		}
		candidates, err := st.ListLocalities(ctx, p.Provinces, centerType)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return eris.New("no localities in the store for this profile; run `destinos import` first")
		}

		cache, err := initDistanceCache(ctx, st)
		if err != nil {
			return err
		}
		provider, err := initProviders(initGeocoder(st))
		if err != nil {
			return err
		}
		res := resolver.New(cache, provider)

		var resolved, failed atomic.Int64
		eg, gCtx := errgroup.WithContext(ctx)
		eg.SetLimit(cfg.Rank.Concurrency)
		for _, cand := range candidates {
			eg.Go(func() error {
				for _, ref := range refs {
					if _, err := res.Resolve(gCtx, cand, ref.Locality); err != nil {
						failed.Add(1)
						continue
					}
					resolved.Add(1)
				}
				return nil
			})
		}
		_ = eg.Wait()

		counters := res.Counters()
		zap.L().Info("cache warm complete",
			zap.String("profile", p.Name),
			zap.Int64("resolved", resolved.Load()),
			zap.Int64("failed", failed.Load()),
			zap.Int64("cache_hits", counters.Hits),
			zap.Int64("cache_misses", counters.Misses),
		)
		return nil
	},
}

func init() {
	cacheWarmCmd.Flags().StringVar(&cacheWarmProfile, "profile", "", "profile whose pairs to resolve")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheWarmCmd)
	rootCmd.AddCommand(cacheCmd)
}

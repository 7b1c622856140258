package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/export"
	"github.com/destinos-group/destinos-cli/internal/importer"
	"github.com/destinos-group/destinos-cli/internal/model"
	"github.com/destinos-group/destinos-cli/internal/profile"
)

var (
	rankProvinces  []string
	rankCenterType string
	rankCities     []string
	rankProfile    string
	rankDataDir    string
	rankFromStore  bool
	rankMargin     float64
	rankOutput     string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank localities by proximity to your reference cities",
	RunE: func(cmd *cobra.Command, args []string) error {
		provinces := rankProvinces
		centerSpec := rankCenterType

		var refs []model.ReferenceCity
		if rankProfile != "" {
			p, err := profile.Load(cfg.Profiles.Dir, rankProfile)
			if err != nil {
				return err
			}
			if len(provinces) == 0 {
				provinces = p.Provinces
			}
			if centerSpec == "" {
				centerSpec = string(p.CenterType)
			}
			if p.Margin != nil && !cmd.Flags().Changed("margin") {
				cfg.Rank.Margin = *p.Margin
			}
			if len(rankCities) == 0 {
				refs = p.ReferenceCities()
			}
		}

		if refs == nil {
			var err error
			refs, err = parseReferenceCities(rankCities)
			if err != nil {
				return err
			}
		}
		return runRank(cmd, provinces, centerSpec, refs)
	},
}

func runRank(cmd *cobra.Command, provinces []string, centerSpec string, refs []model.ReferenceCity) error {
	ctx := cmd.Context()

	if cmd.Flags().Changed("margin") {
		cfg.Rank.Margin = rankMargin
	}
	if err := cfg.Validate("rank"); err != nil {
		return err
	}

	if centerSpec == "" {
		centerSpec = "ies"
	}
	centerType, err := parseCenterType(centerSpec)
	if err != nil {
		return err
	}
	if len(provinces) == 0 {
		return eris.New("at least one province is required (--provinces or a profile)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	var candidates []model.Locality
	if rankFromStore {
		candidates, err = st.ListLocalities(ctx, provinces, centerType)
	} else {
		candidates, err = importer.LoadProvinces(rankDataDir, provinces, centerType)
	}
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return eris.New("no candidate localities found; run `destinos import` first or pass --data-dir")
	}

	rk, err := initRanker(ctx, st)
	if err != nil {
		return err
	}

	result, err := rk.Rank(ctx, candidates, refs, nil)
	if err != nil {
		return err
	}

	printResult(cmd, result)

	if rankOutput != "" {
		if strings.HasSuffix(strings.ToLower(rankOutput), ".xlsx") {
			err = export.ExportXLSX(result, rankOutput)
		} else {
			err = export.ExportCSV(result, rankOutput)
		}
		if err != nil {
			return err
		}
		zap.L().Info("result exported", zap.String("path", rankOutput))
	}

	return nil
}

func printResult(cmd *cobra.Command, result *model.RankedResult) {
	out := cmd.OutOrStdout()
	for i, bucket := range result.Buckets {
		fmt.Fprintf(out, "%d. %s", i+1, bucket.City.Qualified())
		if bucket.City.RadiusKM > 0 {
			fmt.Fprintf(out, " (radius %.0f km)", bucket.City.RadiusKM)
		}
		fmt.Fprintln(out)
		for _, a := range bucket.Assignments[1:] {
			fmt.Fprintf(out, "   %-30s %7.2f km\n", a.Locality.Qualified(), a.DistanceKM)
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintln(out, "\nSkipped:")
		for _, s := range result.Skipped {
			fmt.Fprintf(out, "   %-30s %s\n", s.Locality.Qualified(), s.Reason)
		}
	}
	if len(result.Addendum) > 0 {
		fmt.Fprintln(out, "\nNearby (outside selection):")
		for _, l := range result.Addendum {
			fmt.Fprintf(out, "   %s\n", l.Qualified())
		}
	}
}

func init() {
	rankCmd.Flags().StringSliceVar(&rankProvinces, "provinces", nil, "provinces to include (repeatable)")
	rankCmd.Flags().StringVar(&rankCenterType, "center-type", "", "center type: ies or ceip (default ies)")
	rankCmd.Flags().StringArrayVar(&rankCities, "city", nil, `reference city "Name,Province[,radius_km]" in priority order (repeatable)`)
	rankCmd.Flags().StringVar(&rankProfile, "profile", "", "load provinces and cities from a saved profile")
	rankCmd.Flags().StringVar(&rankDataDir, "data-dir", "data", "directory with provincial center CSVs")
	rankCmd.Flags().BoolVar(&rankFromStore, "from-store", false, "read candidates from the store instead of CSV files")
	rankCmd.Flags().Float64Var(&rankMargin, "margin", 0, "cascade margin in [0,1)")
	rankCmd.Flags().StringVarP(&rankOutput, "output", "o", "", "write the result to a .csv or .xlsx file")
	rootCmd.AddCommand(rankCmd)
}

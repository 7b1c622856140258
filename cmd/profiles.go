package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage saved ranking profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := profile.List(cfg.Profiles.Dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var (
	profileSaveName       string
	profileSaveProvinces  []string
	profileSaveCenterType string
	profileSaveCities     []string
	profileSaveMargin     float64
)

var profilesSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a ranking profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		centerType, err := parseCenterType(profileSaveCenterType)
		if err != nil {
			return err
		}
		refs, err := parseReferenceCities(profileSaveCities)
		if err != nil {
			return err
		}

		p := &profile.Profile{
			Name:       profileSaveName,
			Provinces:  profileSaveProvinces,
			CenterType: centerType,
		}
		for _, r := range refs {
			p.References = append(p.References, profile.Reference{
				Name:     r.Name,
				Province: r.Province,
				RadiusKM: r.RadiusKM,
			})
		}
		if cmd.Flags().Changed("margin") {
			m := profileSaveMargin
			p.Margin = &m
		}

		if err := profile.Save(cfg.Profiles.Dir, p); err != nil {
			return err
		}
		zap.L().Info("profile saved", zap.String("name", p.Name))
		return nil
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(cfg.Profiles.Dir, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name:        %s\n", p.Name)
		fmt.Fprintf(out, "provinces:   %v\n", p.Provinces)
		fmt.Fprintf(out, "center type: %s\n", p.CenterType)
		if p.Margin != nil {
			fmt.Fprintf(out, "margin:      %.2f\n", *p.Margin)
		}
		fmt.Fprintln(out, "reference cities:")
		for i, r := range p.References {
			fmt.Fprintf(out, "  %d. %s, %s", i+1, r.Name, r.Province)
			if r.RadiusKM > 0 {
				fmt.Fprintf(out, " (radius %.0f km)", r.RadiusKM)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	profilesSaveCmd.Flags().StringVar(&profileSaveName, "name", "", "profile name")
	profilesSaveCmd.Flags().StringSliceVar(&profileSaveProvinces, "provinces", nil, "provinces to include")
	profilesSaveCmd.Flags().StringVar(&profileSaveCenterType, "center-type", "ies", "center type: ies or ceip")
	profilesSaveCmd.Flags().StringArrayVar(&profileSaveCities, "city", nil, `reference city "Name,Province[,radius_km]" in priority order`)
	profilesSaveCmd.Flags().Float64Var(&profileSaveMargin, "margin", 0, "cascade margin in [0,1)")

	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesSaveCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	rootCmd.AddCommand(profilesCmd)
}

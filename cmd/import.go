package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/destinos-group/destinos-cli/internal/importer"
)

var (
	importProvinces  []string
	importCenterType string
	importDataDir    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import candidate localities from provincial center CSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		centerType, err := parseCenterType(importCenterType)
		if err != nil {
			return err
		}
		if len(importProvinces) == 0 {
			return eris.New("at least one province is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		localities, err := importer.LoadProvinces(importDataDir, importProvinces, centerType)
		if err != nil {
			return err
		}

		n, err := st.UpsertLocalities(ctx, localities)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("localities", len(localities)),
			zap.Int64("upserted", n),
			zap.Strings("provinces", importProvinces),
			zap.String("center_type", string(centerType)),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringSliceVar(&importProvinces, "provinces", nil, "provinces to import (repeatable)")
	importCmd.Flags().StringVar(&importCenterType, "center-type", "ies", "center type: ies or ceip")
	importCmd.Flags().StringVar(&importDataDir, "data-dir", "data", "directory with provincial center CSVs")
	rootCmd.AddCommand(importCmd)
}

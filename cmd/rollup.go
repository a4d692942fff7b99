package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// rollupCmd represents the rollup command
var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Aggregate labeled videos into period buckets",
	Long: `Aggregate all labeled videos into contiguous per-month or per-week
buckets and print the result as a table.

Each bucket carries the video count, transcript coverage, the dominant
training phase, per-phase counts, event tag frequencies, and the mean
label confidence. Periods without uploads appear as empty rows so the
time axis has no gaps.`,
	Example: `  # Monthly rollup
  liftscope rollup

  # Weekly rollup
  liftscope rollup --period week`,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := internal.PeriodFromFlags(cmd)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Export(cmd.Context(), os.Stdout, period, format)
	},
}

func init() {
	internal.AddPeriodFlag(rollupCmd)
	rollupCmd.Flags().StringP("format", "f", internal.FormatTable, "Output format: table, csv, or json")
	rootCmd.AddCommand(rollupCmd)
}

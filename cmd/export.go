package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the rollup for BI tools",
	Long: `Export the rollup table as CSV or JSON for charting in a BI tool or
spreadsheet.

The CSV has one row per period with a stable column order: period
boundaries, video counts, the dominant phase, per-phase counts, mean
confidence, and the event tag frequencies. Output goes to stdout unless
--out is given.`,
	Example: `  # CSV to stdout
  liftscope export

  # JSON, weekly buckets, written to a file
  liftscope export --format json --period week --out rollup.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := internal.PeriodFromFlags(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if err := app.Export(cmd.Context(), out, period, format); err != nil {
			return err
		}

		if outPath != "" && !config.Quiet {
			fmt.Printf("Exported rollup to %s\n", outPath)
		}
		return nil
	},
}

func init() {
	internal.AddPeriodFlag(exportCmd)
	exportCmd.Flags().StringP("format", "f", internal.FormatCSV, "Output format: csv, json, or table")
	exportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

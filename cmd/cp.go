package cmd

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// cpCmd copies the rollup export to the system clipboard instead of printing to stdout.
var cpCmd = &cobra.Command{
	Use:   "cp",
	Short: "Copy the rollup export to the clipboard",
	Example: `  # Copy the monthly CSV, ready to paste into a spreadsheet
  liftscope cp

  # Weekly buckets as JSON
  liftscope cp --period week --format json`,
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

		var buf strings.Builder
		if err := app.Export(cmd.Context(), &buf, period, format); err != nil {
			return err
		}

		if err := clipboard.WriteAll(buf.String()); err != nil {
			return fmt.Errorf("copying rollup to clipboard: %w", err)
		}

		if !config.Quiet {
			fmt.Println("Rollup copied to clipboard")
		}

		return nil
	},
}

func init() {
	internal.AddPeriodFlag(cpCmd)
	cpCmd.Flags().StringP("format", "f", internal.FormatCSV, "Output format: csv, json, or table")
	rootCmd.AddCommand(cpCmd)
}

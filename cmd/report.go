package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the macrocycle report in the terminal",
	Long: `Render a markdown report of the channel's training macrocycle: the phase
timeline period by period, video counts, and dominant events.

When stdout is a terminal the markdown is rendered with styling; when
piped it passes through as plain markdown.`,
	Example: `  # Monthly macrocycle report
  liftscope report

  # Weekly resolution
  liftscope report --period week

  # Plain markdown to a file
  liftscope report > report.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := internal.PeriodFromFlags(cmd)
		if err != nil {
			return err
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.Report(cmd.Context(), period)
		if err != nil {
			return err
		}

		rendered, err := internal.RenderMarkdown(report)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	internal.AddPeriodFlag(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

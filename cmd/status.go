package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline progress for the stored channel",
	Example: `  # How far along is the pipeline?
  liftscope status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := app.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Videos:       %d\n", stats.Videos)
		fmt.Printf("Transcribed:  %d\n", stats.Transcribed)
		fmt.Printf("Failed:       %d\n", stats.Failed)
		fmt.Printf("Labeled:      %d\n", stats.Labeled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

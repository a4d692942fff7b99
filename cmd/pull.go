package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// pullCmd represents the pull command
var pullCmd = &cobra.Command{
	Use:   "pull [channel]",
	Short: "Fetch the channel's video metadata",
	Long: `Fetch the full upload history of a YouTube channel and store the metadata
(title, description, publish date, duration, view counts) locally.

The channel can be a handle, a channel ID, a channel URL, or free text
resolved through YouTube search. Without an argument the configured
channel is used. Re-running refreshes the stored metadata.`,
	Example: `  # Pull the configured channel
  liftscope pull

  # Pull a specific channel
  liftscope pull @HattonStrength
  liftscope pull UCa67yjHFkanhRnCfOHfdBIw`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if channelID, _ := cmd.Flags().GetString("channel-id"); channelID != "" {
			if !internal.IsValidChannelID(channelID) {
				return fmt.Errorf("invalid channel id: %s", channelID)
			}
			config.ChannelID = channelID
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		channel := ""
		if len(args) > 0 {
			channel = args[0]
		}

		_, err = app.Pull(cmd.Context(), channel)
		return err
	},
}

func init() {
	pullCmd.Flags().String("channel-id", "", "Explicit channel ID, bypasses channel search")
	rootCmd.AddCommand(pullCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// labelCmd represents the label command
var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Infer training phase and event tags for stored videos",
	Long: `Label every stored video with a training phase (base, build, peak,
deload) and the strongman events or lifts it covers, using a language
model over the video's title, description, and transcript.

Videos without a transcript are labeled from title and description
alone. Each run gets a fresh run id stored with the labels so they can
be traced back to the model and run that produced them.

With --keywords no API is used: a keyword matcher scans titles and
transcripts for phase and event vocabulary at reduced confidence.`,
	Example: `  # Label unlabeled videos with the configured model
  liftscope label

  # Use a specific model
  liftscope label --model gpt-4o

  # Re-label everything, e.g. after a prompt change
  liftscope label --relabel

  # Offline keyword classification, no API key needed
  liftscope label --keywords

  # Custom labeling prompt
  liftscope label --prompt ./prompts/strict.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.HandleLabelFlags(cmd, config); err != nil {
			return err
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		relabel, _ := cmd.Flags().GetBool("relabel")
		keywords, _ := cmd.Flags().GetBool("keywords")
		limit, _ := cmd.Flags().GetInt("limit")

		_, err = app.LabelVideos(cmd.Context(), internal.LabelOptions{
			Relabel:  relabel,
			Keywords: keywords,
			Limit:    limit,
		})
		return err
	},
}

func init() {
	internal.AddLabelFlags(labelCmd)
	rootCmd.AddCommand(labelCmd)
}

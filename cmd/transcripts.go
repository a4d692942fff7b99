package cmd

import (
	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// transcriptsCmd represents the transcripts command
var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "Fetch transcripts for stored videos",
	Long: `Fetch transcripts for every stored video that does not have one yet.

Caption tracks are preferred in order: manual captions in a configured
language, auto-generated captions in a configured language, then any
manual or auto track. Videos without captions are recorded as failed
unless --fallback-whisper is set, in which case the audio is downloaded
and transcribed with OpenAI Whisper (costs money).

Failures never abort the run; an interrupted run resumes where it
stopped.`,
	Example: `  # Fetch missing transcripts
  liftscope transcripts

  # Retry videos that failed before
  liftscope transcripts --retry-failed

  # Use Whisper for videos without captions (costs money)
  liftscope transcripts --fallback-whisper

  # Only process the next 20 videos
  liftscope transcripts --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("langs") {
			langs, err := cmd.Flags().GetStringSlice("langs")
			if err != nil {
				return err
			}
			config.Languages = langs
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		fallbackWhisper, _ := cmd.Flags().GetBool("fallback-whisper")
		retryFailed, _ := cmd.Flags().GetBool("retry-failed")
		limit, _ := cmd.Flags().GetInt("limit")

		_, _, err = app.FetchTranscripts(cmd.Context(), internal.TranscriptOptions{
			RetryFailed: retryFailed,
			Whisper:     fallbackWhisper,
			Limit:       limit,
		})
		return err
	},
}

func init() {
	internal.AddTranscriptFlags(transcriptsCmd)
	transcriptsCmd.Flags().StringSlice("langs", nil, "Preferred caption languages in order (e.g. en,de)")
	rootCmd.AddCommand(transcriptsCmd)
}

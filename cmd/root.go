package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liftscope/liftscope/internal"
)

var (
	config *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "liftscope [channel]",
	Short: "Macrocycle analytics for a strongman training channel",
	Long: `Liftscope maps the training macrocycle of a strongman athlete from their
YouTube uploads.

It pulls the channel's full video history, fetches transcripts from
YouTube captions (with an optional Whisper fallback), labels each video
with a training phase and event tags using a language model, and rolls
everything up into per-month or per-week summaries ready for charting.

Run without a subcommand to execute the whole pipeline end to end.`,
	Example: `  # Run the full pipeline for the configured channel
  liftscope

  # Run the full pipeline for a specific channel
  liftscope @HattonStrength
  liftscope "https://www.youtube.com/@HattonStrength"

  # Label with a specific model
  liftscope --model gpt-4o

  # Use Whisper for videos without captions (costs money)
  liftscope --fallback-whisper

  # Weekly buckets instead of monthly
  liftscope --period week`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return internal.HandleVerboseFlag(cmd, config)
	},
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.HandleLabelFlags(cmd, config); err != nil {
			return err
		}
		period, err := internal.PeriodFromFlags(cmd)
		if err != nil {
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

		channel := ""
		if len(args) > 0 {
			channel = args[0]
		}

		ctx := cmd.Context()
		if _, err := app.Pull(ctx, channel); err != nil {
			return err
		}

		fallbackWhisper, _ := cmd.Flags().GetBool("fallback-whisper")
		retryFailed, _ := cmd.Flags().GetBool("retry-failed")
		if _, _, err := app.FetchTranscripts(ctx, internal.TranscriptOptions{
			RetryFailed: retryFailed,
			Whisper:     fallbackWhisper,
		}); err != nil {
			return err
		}

		keywords, _ := cmd.Flags().GetBool("keywords")
		if _, err := app.LabelVideos(ctx, internal.LabelOptions{Keywords: keywords}); err != nil {
			return err
		}

		report, err := app.Report(ctx, period)
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

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Create a cancellable context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize configuration with Viper
	config = internal.InitConfig()

	// Ensure XDG directories exist
	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	// Ensure default config exists in XDG config directory
	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}

	// Ensure default prompt exists in XDG config directory
	if err := internal.EnsureDefaultPrompt(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompt: %v\n", err)
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Handle shutdown signal in a separate goroutine
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt signal. Cleaning up and shutting down...")

		// Cancel the main context to signal all operations to stop
		cancel()

		// Create a context with timeout for cleanup operations
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cleanupCancel()

		// Run cleanup with timeout context
		cleanupDone := make(chan struct{})
		go func() {
			if err := internal.CleanupTempDir(config.TempDir); err != nil {
				fmt.Fprintf(os.Stderr, "Error cleaning up temporary files: %v\n", err)
			}
			close(cleanupDone)
		}()

		// Wait for either cleanup to complete or timeout
		select {
		case <-cleanupDone:
			// Cleanup completed successfully
		case <-cleanupCtx.Done():
			// Timeout occurred
			fmt.Fprintln(os.Stderr, "Warning: Cleanup timed out, forcing exit")
		}

		// Exit the program
		os.Exit(0)
	}()

	// Set context on root command
	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

func init() {
	// Flags from both stages without the per-stage --limit caps: the full
	// pipeline always processes everything.
	rootCmd.Flags().Bool("fallback-whisper", false, "Fallback to Whisper for videos without captions (costs money)")
	rootCmd.Flags().Bool("retry-failed", false, "Retry videos whose transcript fetch failed before")
	rootCmd.Flags().StringP("model", "m", "", "Chat model to use for labeling")
	rootCmd.Flags().String("provider", "", "Labeling provider: openai or gemini")
	rootCmd.Flags().StringP("prompt", "p", "", "Custom labeling prompt (string or file path)")
	rootCmd.Flags().Bool("keywords", false, "Use the offline keyword classifier instead of a chat model")
	internal.AddPeriodFlag(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $XDG_CONFIG_HOME/liftscope/config.toml)")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

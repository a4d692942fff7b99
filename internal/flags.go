package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddTranscriptFlags adds flags for the transcript stage
func AddTranscriptFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("fallback-whisper", false, "Fallback to Whisper for videos without captions (costs money)")
	cmd.Flags().Bool("retry-failed", false, "Retry videos whose transcript fetch failed before")
	cmd.Flags().Int("limit", 0, "Process at most N videos this run (0 = all)")
}

// AddLabelFlags adds flags for the labeling stage
func AddLabelFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "Chat model to use for labeling")
	cmd.Flags().String("provider", "", "Labeling provider: openai or gemini")
	cmd.Flags().StringP("prompt", "p", "", "Custom labeling prompt (string or file path)")
	cmd.Flags().Bool("keywords", false, "Use the offline keyword classifier instead of a chat model")
	cmd.Flags().Bool("relabel", false, "Re-label videos that already have a label")
	cmd.Flags().Int("limit", 0, "Label at most N videos this run (0 = all)")
}

// AddPeriodFlag adds the rollup period flag
func AddPeriodFlag(cmd *cobra.Command) {
	cmd.Flags().String("period", "month", "Rollup bucket size: month or week")
}

// PeriodFromFlags reads and validates the --period flag.
func PeriodFromFlags(cmd *cobra.Command) (Period, error) {
	raw, err := cmd.Flags().GetString("period")
	if err != nil {
		return "", fmt.Errorf("failed to get period flag: %w", err)
	}
	return ParsePeriod(raw)
}

// HandlePromptFlag processes the --prompt flag to set a custom labeling prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}

	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if app.config.Verbose {
		if IsLikelyFilePath(prompt) && FileExists(prompt) {
			fmt.Printf("Using custom prompt file: %s\n", prompt)
		} else {
			fmt.Printf("Using custom prompt string\n")
		}
	}

	return nil
}

// HandleVerboseFlag processes the --verbose flag to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	config.Verbose = verbose
	return nil
}

// HandleLabelFlags applies the --model flag and validates the labeling setup.
// The keyword classifier needs no model or API key, so it skips validation.
func HandleLabelFlags(cmd *cobra.Command, config *Config) error {
	if keywords, _ := cmd.Flags().GetBool("keywords"); keywords {
		return nil
	}

	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		if provider != "openai" && provider != "gemini" {
			return fmt.Errorf("unknown provider: %s (valid: openai, gemini)", provider)
		}
		config.Provider = provider
	}

	modelFlag, _ := cmd.Flags().GetString("model")
	if modelFlag != "" {
		if err := ValidateModel(config.Provider, modelFlag); err != nil {
			return err
		}
		config.LabelModel = modelFlag
	} else if err := ValidateModel(config.Provider, config.LabelModel); err != nil {
		return fmt.Errorf("invalid model in config: %w", err)
	}

	return nil
}

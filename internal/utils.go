package internal

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// videoIDRe matches the 11-character YouTube video ID alphabet.
var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// channelIDRe matches YouTube channel IDs (UC + 22 characters).
var channelIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)

// IsValidVideoID checks if a string looks like a valid YouTube video ID
func IsValidVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}

// IsValidChannelID checks if a string looks like a valid YouTube channel ID
func IsValidChannelID(id string) bool {
	return channelIDRe.MatchString(id)
}

// ParseChannelArg normalizes a channel argument into either a channel ID or
// a search query. Accepted forms: a raw channel ID ("UC..."), a handle
// ("@HattonStrength"), a channel URL, or free text for channel search.
// Returns (channelID, query); exactly one is non-empty.
func ParseChannelArg(arg string) (string, string) {
	arg = strings.TrimSpace(arg)

	if IsValidChannelID(arg) {
		return arg, ""
	}

	if strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "http://") {
		if u, err := url.Parse(arg); err == nil &&
			(u.Host == "www.youtube.com" || u.Host == "youtube.com") {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			// /channel/UC... has the ID directly, /@handle searches by handle
			if len(parts) == 2 && parts[0] == "channel" && IsValidChannelID(parts[1]) {
				return parts[1], ""
			}
			if len(parts) >= 1 && strings.HasPrefix(parts[0], "@") {
				return "", parts[0]
			}
		}
		return "", arg
	}

	return "", arg
}

// getTerminalWidth gets terminal width with fallback
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}

	if width > 10 {
		return width - 4
	}

	return width
}

// RenderMarkdown renders markdown content with glamour. When stdout is not
// a terminal the markdown passes through unrendered so piping stays clean.
func RenderMarkdown(content string) (string, error) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return content, nil
	}

	width := getTerminalWidth()
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	renderedContent, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return renderedContent, nil
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// supportedOpenAIModels lists the chat models accepted for labeling.
var supportedOpenAIModels = []string{"gpt-4o", "gpt-4o-mini", "o4-mini", "gpt-4.1-nano"}

// ValidateModel checks if the model is supported for the given provider.
// Gemini model names are passed through to the API unchecked.
func ValidateModel(provider, model string) error {
	if provider == "gemini" {
		if model == "" {
			return fmt.Errorf("model is required for gemini provider")
		}
		return nil
	}
	if slices.Contains(supportedOpenAIModels, model) {
		return nil
	}
	return fmt.Errorf("unsupported model: %s (supported: %s)", model, strings.Join(supportedOpenAIModels, ", "))
}

// EnsureDirs creates directories if needed
func EnsureDirs(dir ...string) error {
	for _, dir := range dir {
		if !FileExists(dir) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}

// cleanupFiles removes temporary files
func cleanupFiles(files ...string) {
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove file %s: %v\n", file, err)
		}
	}
}

// CleanupTempDir purges files from a temporary directory
func CleanupTempDir(tempDir string) error {
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		return nil // Directory doesn't exist, nothing to clean up
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return fmt.Errorf("reading temp directory: %w", err)
	}

	for _, entry := range entries {
		filePath := tempDir + string(os.PathSeparator) + entry.Name()
		if err := os.Remove(filePath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove temporary file %s: %v\n", filePath, err)
		}
	}

	if err := os.Remove(tempDir); err != nil {
		// It's okay if we can't remove the directory (it might not be empty)
		fmt.Fprintf(os.Stderr, "Note: could not remove temp directory %s: %v\n", tempDir, err)
	}

	return nil
}

// ValidateOpenAIAPIKey checks if the OpenAI API key is set and returns a standardized error if not
func ValidateOpenAIAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("OpenAI API key is required - set it in config.toml or OPENAI_API_KEY environment variable")
	}
	return nil
}

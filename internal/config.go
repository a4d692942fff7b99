package internal

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/lrstanley/go-ytdlp"
	"github.com/spf13/viper"
)

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Config holds application settings
type Config struct {
	// User configurable settings
	Channel        string
	ChannelID      string
	LabelModel     string
	Provider       string
	Languages      []string
	LabelTimeout   time.Duration
	WhisperTimeout time.Duration
	MaxQPS         float64
	Verbose        bool
	Quiet          bool
	MCPLogEnabled  bool
	YouTubeAPIKey  string
	OpenAIAPIKey   string
	GeminiAPIKey   string
	Prompt         string

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
	TempDir   string
	DBPath    string
}

//go:embed config.toml prompt.txt
var defaultFS embed.FS

// WhisperLimit is the maximum file size accepted by OpenAI's Whisper API (25 MiB)
const WhisperLimit int64 = 25 << 20

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Printf("Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompt checks if a prompt.txt file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultPrompt(configDir string) error {
	return ensureDefaultFile(configDir, "prompt.txt", "labeling prompt template")
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	// Ensure yt-dlp is installed; captions and audio download depend on it
	ytdlp.MustInstall(context.Background(), nil)

	// The original workflow kept API keys in a local .env; keep honoring it.
	_ = godotenv.Load()

	// XDG standard directories
	configDir := filepath.Join(xdg.ConfigHome, "liftscope")
	dataDir := filepath.Join(xdg.DataHome, "liftscope")
	cacheDir := filepath.Join(xdg.CacheHome, "liftscope")
	tempDir := filepath.Join(cacheDir, "temp_chunks")

	v := viper.New()

	// Set default values for configurable settings
	v.SetDefault("channel", "@HattonStrength")
	v.SetDefault("channel_id", "")
	v.SetDefault("label_model", "gpt-4o-mini")
	v.SetDefault("provider", "openai")
	v.SetDefault("languages", []string{"en"})
	v.SetDefault("label_timeout", 2*time.Minute)
	v.SetDefault("whisper_timeout", 10*time.Minute)
	v.SetDefault("max_qps", 5.0)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("mcp_log", false)
	v.SetDefault("prompt", "") // if empty will use default prompt template
	v.SetDefault("db_path", filepath.Join(dataDir, "liftscope.db"))

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("LIFTSCOPE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("_", "_"))

	// API keys come from the conventional env vars, not the prefixed ones
	_ = v.BindEnv("youtube_api_key", "YOUTUBE_API_KEY")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := &Config{
		Channel:        v.GetString("channel"),
		ChannelID:      v.GetString("channel_id"),
		LabelModel:     v.GetString("label_model"),
		Provider:       v.GetString("provider"),
		Languages:      v.GetStringSlice("languages"),
		LabelTimeout:   v.GetDuration("label_timeout"),
		WhisperTimeout: v.GetDuration("whisper_timeout"),
		MaxQPS:         v.GetFloat64("max_qps"),
		Verbose:        v.GetBool("verbose"),
		Quiet:          v.GetBool("quiet"),
		MCPLogEnabled:  v.GetBool("mcp_log"),
		YouTubeAPIKey:  v.GetString("youtube_api_key"),
		OpenAIAPIKey:   v.GetString("openai_api_key"),
		GeminiAPIKey:   v.GetString("gemini_api_key"),
		Prompt:         v.GetString("prompt"),

		ConfigDir: configDir,
		DataDir:   dataDir,
		CacheDir:  cacheDir,
		TempDir:   tempDir,
		DBPath:    v.GetString("db_path"),
	}

	if config.Verbose {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}

package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// App holds the application state and dependencies
type App struct {
	store    *Store
	youtube  *YouTube
	captions *Captions
	whisper  *Whisper
	chat     ChatCompleter
	prompts  *PromptManager
	config   *Config
	ui       UIManager
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) (*App, error) {
	app := &App{
		prompts:  NewPromptManager(config.ConfigDir, config.Prompt),
		captions: NewCaptions(config.CacheDir, config.Verbose),
		config:   config,
		ui:       NewUIManager(config.Verbose, config.Quiet),
	}

	if config.OpenAIAPIKey != "" {
		client := NewOpenAIClient(config.OpenAIAPIKey)
		splitter := NewAudioSplitter(&DefaultCommandRunner{}, config.TempDir, config.Verbose)
		app.whisper = NewWhisper(client, splitter, WhisperLimit, config.WhisperTimeout, config.Verbose)
	}

	// Apply any custom options
	for _, option := range options {
		option(app)
	}

	if app.store == nil {
		store, err := OpenStore(config.DBPath)
		if err != nil {
			return nil, err
		}
		app.store = store
	}

	return app, nil
}

// AppOption customizes App creation
type AppOption func(*App)

// WithStore sets a custom store (used by tests)
func WithStore(store *Store) AppOption {
	return func(a *App) {
		a.store = store
	}
}

// WithYouTube sets a custom YouTube metadata client
func WithYouTube(youtube *YouTube) AppOption {
	return func(a *App) {
		a.youtube = youtube
	}
}

// WithCaptions sets a custom caption fetcher
func WithCaptions(captions *Captions) AppOption {
	return func(a *App) {
		a.captions = captions
	}
}

// WithChat sets a custom chat client for labeling
func WithChat(chat ChatCompleter) AppOption {
	return func(a *App) {
		a.chat = chat
	}
}

// WithWhisper sets a custom Whisper transcriber
func WithWhisper(whisper *Whisper) AppOption {
	return func(a *App) {
		a.whisper = whisper
	}
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.prompts = pm
}

// Close releases the store.
func (app *App) Close() error {
	if app.store == nil {
		return nil
	}
	return app.store.Close()
}

// Store exposes the underlying store for read-only callers.
func (app *App) Store() *Store { return app.store }

// youtubeClient lazily creates the Data API client so commands that never
// touch the API (rollup, export, report) work without a YouTube key.
func (app *App) youtubeClient(ctx context.Context) (*YouTube, error) {
	if app.youtube != nil {
		return app.youtube, nil
	}
	yt, err := NewYouTube(ctx, app.config.YouTubeAPIKey, app.config.MaxQPS, app.config.Verbose)
	if err != nil {
		return nil, err
	}
	app.youtube = yt
	return yt, nil
}

// chatClient lazily creates the provider's chat client.
func (app *App) chatClient(ctx context.Context) (ChatCompleter, error) {
	if app.chat != nil {
		return app.chat, nil
	}

	switch app.config.Provider {
	case "openai", "":
		if err := ValidateOpenAIAPIKey(app.config.OpenAIAPIKey); err != nil {
			return nil, err
		}
		app.chat = NewOpenAIClient(app.config.OpenAIAPIKey)
	case "gemini":
		if app.config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("Gemini API key is required - set it in config.toml or GEMINI_API_KEY environment variable")
		}
		client, err := NewGeminiClient(ctx, app.config.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		app.chat = client
	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: openai, gemini)", app.config.Provider)
	}

	return app.chat, nil
}

// Pull fetches the channel's full upload history and stores the metadata.
// channelArg overrides the configured channel when non-empty. Returns the
// number of videos stored.
func (app *App) Pull(ctx context.Context, channelArg string) (int, error) {
	yt, err := app.youtubeClient(ctx)
	if err != nil {
		return 0, err
	}

	if channelArg == "" {
		channelArg = app.config.Channel
	}

	channelID := app.config.ChannelID
	if id, query := ParseChannelArg(channelArg); id != "" {
		channelID = id
	} else if channelID == "" {
		spinner := app.ui.NewSpinner(fmt.Sprintf("Resolving channel %s...", channelArg))
		channelID, err = yt.ResolveChannel(ctx, query)
		spinner.Finish()
		if err != nil {
			return 0, err
		}
	}

	channel, err := yt.Channel(ctx, channelID)
	if err != nil {
		return 0, err
	}
	app.ui.Printf("Pulling uploads for %s (%s)\n", channel.Title, channel.ID)

	ids, err := yt.ListUploads(ctx, channel.UploadsPlaylist)
	if err != nil {
		return 0, fmt.Errorf("listing uploads: %w", err)
	}
	if len(ids) == 0 {
		app.ui.Println("Channel has no uploads.")
		return 0, nil
	}

	bar := app.ui.NewProgressBar(len(ids), "Fetching video details")
	videos, err := yt.VideoDetails(ctx, ids, bar.Set)
	bar.Finish()
	if err != nil {
		return 0, err
	}

	for i := range videos {
		if err := app.store.UpsertVideo(ctx, &videos[i]); err != nil {
			return 0, err
		}
	}

	app.ui.Printf("Stored %d videos.\n", len(videos))
	return len(videos), nil
}

// TranscriptOptions controls the transcript stage.
type TranscriptOptions struct {
	// RetryFailed re-attempts videos with a recorded fetch failure.
	RetryFailed bool
	// Whisper enables the audio-download + Whisper fallback for videos
	// without captions. Needs an OpenAI API key.
	Whisper bool
	// Limit caps how many videos are processed this run (0 = no cap).
	Limit int
}

// FetchTranscripts fetches captions for every stored video that has no
// transcript yet. Per-video failures are recorded and never abort the run,
// so an interrupted run resumes where it stopped. Returns (fetched, failed).
func (app *App) FetchTranscripts(ctx context.Context, opts TranscriptOptions) (int, int, error) {
	videos, err := app.store.VideosMissingTranscript(ctx, opts.RetryFailed)
	if err != nil {
		return 0, 0, err
	}
	if opts.Limit > 0 && len(videos) > opts.Limit {
		videos = videos[:opts.Limit]
	}
	if len(videos) == 0 {
		app.ui.Println("All videos have transcripts.")
		return 0, 0, nil
	}

	if opts.Whisper && app.whisper == nil {
		return 0, 0, fmt.Errorf("whisper fallback requires an OpenAI API key")
	}

	bar := app.ui.NewProgressBar(len(videos), "Fetching transcripts")
	var fetched, failed int
	for i := range videos {
		video := &videos[i]
		bar.Describe(fmt.Sprintf("Transcripts: %s", truncateString(video.Title, 40)))

		transcript, err := app.fetchOne(ctx, video, opts.Whisper)
		if err != nil {
			// Context cancellation aborts the run, everything else is
			// recorded against the video.
			if ctx.Err() != nil {
				bar.Finish()
				return fetched, failed, ctx.Err()
			}
			transcript = &Transcript{
				VideoID:   video.ID,
				ErrorKind: classifyTranscriptError(err),
				ErrorMsg:  err.Error(),
				FetchedAt: time.Now().UTC(),
			}
			failed++
			app.ui.Verbose("Transcript failed for %s: %v\n", video.ID, err)
		} else {
			fetched++
		}

		if err := app.store.SaveTranscript(ctx, transcript); err != nil {
			bar.Finish()
			return fetched, failed, err
		}
		bar.Set(i + 1)
	}
	bar.Finish()

	app.ui.Printf("Transcripts: %d fetched, %d failed.\n", fetched, failed)
	return fetched, failed, nil
}

// fetchOne fetches the transcript for a single video, falling back to
// Whisper when enabled and no caption track exists.
func (app *App) fetchOne(ctx context.Context, video *VideoRecord, useWhisper bool) (*Transcript, error) {
	transcript, err := app.captions.Fetch(ctx, video.ID, app.config.Languages)
	if err == nil {
		return transcript, nil
	}

	if !useWhisper || !errors.Is(err, ErrNoCaptions) {
		return nil, err
	}

	app.ui.Verbose("No captions for %s, falling back to Whisper\n", video.ID)
	audioFile, err := app.captions.Audio(ctx, video.ID)
	if err != nil {
		return nil, fmt.Errorf("downloading audio: %w", err)
	}

	text, err := app.whisper.Transcribe(ctx, audioFile)
	if err != nil {
		return nil, err
	}

	return &Transcript{
		VideoID:   video.ID,
		Text:      text,
		Language:  app.preferredLanguage(),
		Source:    SourceWhisper,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (app *App) preferredLanguage() string {
	if len(app.config.Languages) > 0 {
		return app.config.Languages[0]
	}
	return "en"
}

// classifyTranscriptError maps fetch errors onto the stored error kinds.
func classifyTranscriptError(err error) string {
	switch {
	case errors.Is(err, ErrNoCaptions):
		return "no_captions"
	case errors.Is(err, ErrDownloadFailed):
		return "download_failed"
	case strings.Contains(err.Error(), "transcribing"):
		return "whisper_failed"
	}
	return "error"
}

// LabelOptions controls the labeling stage.
type LabelOptions struct {
	// Relabel re-labels videos that already have a label.
	Relabel bool
	// Keywords uses the offline keyword classifier instead of a chat model.
	Keywords bool
	// Limit caps how many videos are labeled this run (0 = no cap).
	Limit int
}

// LabelVideos labels stored videos with training phase and event tags.
// Each invocation gets a fresh run id so labels can be traced back to the
// run and model that produced them. Returns the number of videos labeled.
func (app *App) LabelVideos(ctx context.Context, opts LabelOptions) (int, error) {
	var videos []VideoRecord
	var err error
	if opts.Relabel {
		videos, err = app.store.ListVideos(ctx)
	} else {
		videos, err = app.store.VideosMissingLabel(ctx)
	}
	if err != nil {
		return 0, err
	}
	if opts.Limit > 0 && len(videos) > opts.Limit {
		videos = videos[:opts.Limit]
	}
	if len(videos) == 0 {
		app.ui.Println("All videos are labeled.")
		return 0, nil
	}

	var labeler *Labeler
	if !opts.Keywords {
		if err := ValidateModel(app.config.Provider, app.config.LabelModel); err != nil {
			return 0, err
		}
		chat, err := app.chatClient(ctx)
		if err != nil {
			return 0, err
		}
		labeler = NewLabeler(chat, app.prompts, app.config.LabelModel, app.config.LabelTimeout, app.config.Verbose)
	}

	runID := uuid.NewString()
	app.ui.Verbose("Label run %s: %d videos\n", runID, len(videos))

	bar := app.ui.NewProgressBar(len(videos), "Labeling videos")
	var labeled int
	for i := range videos {
		video := &videos[i]
		bar.Describe(fmt.Sprintf("Labeling: %s", truncateString(video.Title, 40)))

		text := ""
		if t, err := app.store.GetTranscript(ctx, video.ID); err == nil && t.OK() {
			text = t.Text
		}

		var label *Label
		if opts.Keywords {
			label = KeywordLabeler{}.Label(video, text)
		} else {
			label, err = labeler.Label(ctx, video, text)
			if err != nil {
				if ctx.Err() != nil {
					bar.Finish()
					return labeled, ctx.Err()
				}
				// Leave the video unlabeled, the next run picks it up.
				app.ui.Verbose("Labeling failed for %s: %v\n", video.ID, err)
				bar.Set(i + 1)
				continue
			}
		}

		label.RunID = runID
		if err := app.store.SaveLabel(ctx, label); err != nil {
			bar.Finish()
			return labeled, err
		}
		labeled++
		bar.Set(i + 1)
	}
	bar.Finish()

	app.ui.Printf("Labeled %d videos (run %s).\n", labeled, runID)
	return labeled, nil
}

// BuildRollup aggregates all labeled videos into period buckets.
func (app *App) BuildRollup(ctx context.Context, period Period) ([]RollupBucket, error) {
	labeled, err := app.store.ListLabeled(ctx)
	if err != nil {
		return nil, err
	}
	transcribed, err := app.store.TranscribedIDs(ctx)
	if err != nil {
		return nil, err
	}
	return Rollup(labeled, transcribed, period), nil
}

// Export writes the rollup table for the given period to w.
func (app *App) Export(ctx context.Context, w io.Writer, period Period, format string) error {
	buckets, err := app.BuildRollup(ctx, period)
	if err != nil {
		return err
	}

	switch format {
	case FormatCSV:
		return WriteCSV(w, buckets)
	case FormatJSON:
		return WriteJSON(w, buckets)
	case FormatTable:
		RenderRollupTable(w, buckets)
		return nil
	}
	return fmt.Errorf("invalid format %q (valid: csv, json, table)", format)
}

// Report builds the markdown macrocycle report for the stored channel.
func (app *App) Report(ctx context.Context, period Period) (string, error) {
	buckets, err := app.BuildRollup(ctx, period)
	if err != nil {
		return "", err
	}

	channel := app.config.Channel
	if videos, err := app.store.ListVideos(ctx); err == nil && len(videos) > 0 && videos[0].ChannelTitle != "" {
		channel = videos[0].ChannelTitle
	}

	return BuildReport(channel, buckets), nil
}

// Stats returns store counts for status output.
func (app *App) Stats(ctx context.Context) (*Stats, error) {
	return app.store.Stats(ctx)
}

package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// ErrNoCaptions indicates the video has no usable caption track.
var ErrNoCaptions = errors.New("no captions available")

// ErrDownloadFailed indicates yt-dlp failed to deliver the subtitle file.
var ErrDownloadFailed = errors.New("caption download failed")

// Captions fetches YouTube caption tracks through yt-dlp and flattens them
// to plain transcript text.
type Captions struct {
	cacheDir string
	verbose  bool
}

// NewCaptions creates a caption fetcher writing intermediate files to cacheDir.
func NewCaptions(cacheDir string, verbose bool) *Captions {
	return &Captions{cacheDir: cacheDir, verbose: verbose}
}

// captionTracks is the subtitle availability parsed from yt-dlp metadata.
type captionTracks struct {
	Manual []string // language codes with manually created captions
	Auto   []string // language codes with auto-generated captions
}

// PickTrack selects a caption track given availability and language
// preference:
//  1. manual track in a preferred language
//  2. auto track in a preferred language
//  3. any manual track
//  4. any auto track
//
// Returns the language, the source ("manual"/"auto"), and false when no
// track exists at all.
func PickTrack(tracks captionTracks, preferred []string) (string, string, bool) {
	for _, lang := range preferred {
		for _, have := range tracks.Manual {
			if have == lang || strings.HasPrefix(have, lang+"-") {
				return have, SourceManual, true
			}
		}
	}
	for _, lang := range preferred {
		for _, have := range tracks.Auto {
			if have == lang || strings.HasPrefix(have, lang+"-") {
				return have, SourceAuto, true
			}
		}
	}
	if len(tracks.Manual) > 0 {
		return tracks.Manual[0], SourceManual, true
	}
	if len(tracks.Auto) > 0 {
		return tracks.Auto[0], SourceAuto, true
	}
	return "", "", false
}

// Tracks queries yt-dlp metadata for the caption tracks of a video.
func (c *Captions) Tracks(ctx context.Context, videoID string) (captionTracks, error) {
	dl := ytdlp.New().
		DumpSingleJSON().
		NoPlaylist().
		SkipDownload()

	result, err := dl.Run(ctx, watchURL(videoID))
	if err != nil {
		if c.verbose && result != nil {
			fmt.Printf("Metadata extraction error: %v\nStderr: %s\n", err, result.Stderr)
		}
		return captionTracks{}, fmt.Errorf("extracting caption availability: %w", err)
	}

	var rawData struct {
		Subtitles         map[string]json.RawMessage `json:"subtitles"`
		AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &rawData); err != nil {
		return captionTracks{}, fmt.Errorf("parsing caption availability: %w", err)
	}

	var tracks captionTracks
	for lang := range rawData.Subtitles {
		tracks.Manual = append(tracks.Manual, lang)
	}
	for lang := range rawData.AutomaticCaptions {
		tracks.Auto = append(tracks.Auto, lang)
	}
	return tracks, nil
}

// Fetch downloads and flattens the best caption track for a video.
// Returns ErrNoCaptions when the video has no track at all.
func (c *Captions) Fetch(ctx context.Context, videoID string, preferred []string) (*Transcript, error) {
	tracks, err := c.Tracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	lang, source, ok := PickTrack(tracks, preferred)
	if !ok {
		return nil, ErrNoCaptions
	}

	if c.verbose {
		fmt.Printf("Downloading %s captions (%s) for %s\n", source, lang, videoID)
	}

	if err := EnsureDirs(c.cacheDir); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	outputPath := filepath.Join(c.cacheDir, "%(id)s")

	dl := ytdlp.New().
		SubLangs(lang).
		ConvertSubs("srt").
		SkipDownload().
		NoPlaylist().
		Output(outputPath)
	if source == SourceManual {
		dl = dl.WriteSubs()
	} else {
		dl = dl.WriteAutoSubs()
	}

	result, err := dl.Run(ctx, watchURL(videoID))
	if err != nil {
		if c.verbose && result != nil {
			fmt.Printf("Subtitle download error: %v\nStderr: %s\n", err, result.Stderr)
		}
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	srtPath, err := c.findSubtitleFile(videoID)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(srtPath)
	if err != nil {
		return nil, fmt.Errorf("reading SRT file: %w", err)
	}
	// Intermediate SRT is not needed once flattened
	if err := os.Remove(srtPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to remove SRT file from cache: %v\n", err)
	}

	text := FlattenSRT(string(content))
	if text == "" {
		return nil, ErrNoCaptions
	}

	return &Transcript{
		VideoID:   videoID,
		Text:      text,
		Language:  lang,
		Source:    source,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// findSubtitleFile locates the SRT yt-dlp wrote for a video.
func (c *Captions) findSubtitleFile(videoID string) (string, error) {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("%s*.srt", videoID))
	files, err := filepath.Glob(pattern)
	if err != nil || len(files) == 0 {
		if c.verbose {
			fmt.Printf("No subtitle files found for pattern: %s\n", pattern)
		}
		return "", fmt.Errorf("%w: no subtitle files found after download", ErrDownloadFailed)
	}
	return files[0], nil
}

// Audio downloads the video's audio track as mp3 into the cache directory
// and returns the file path. Used by the Whisper fallback.
func (c *Captions) Audio(ctx context.Context, videoID string) (string, error) {
	if c.verbose {
		fmt.Printf("Downloading audio for %s\n", videoID)
	}

	if err := EnsureDirs(c.cacheDir); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}
	outputPath := filepath.Join(c.cacheDir, "%(id)s.%(ext)s")

	dl := ytdlp.New().
		Format("bestaudio").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("10").
		NoPlaylist().
		Output(outputPath)

	result, err := dl.Run(ctx, watchURL(videoID))
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = result.Stderr
		}
		return "", fmt.Errorf("yt-dlp failed: %w\nOutput: %s", err, stderr)
	}

	return filepath.Join(c.cacheDir, videoID+".mp3"), nil
}

// FlattenSRT extracts the spoken text from SRT content, dropping sequence
// numbers and timestamps and collapsing the overlapping repeats YouTube
// auto-captions produce.
func FlattenSRT(content string) string {
	var lines []string

	for block := range strings.SplitSeq(content, "\n\n") {
		blockLines := strings.Split(block, "\n")
		if len(blockLines) >= 3 {
			// Skip sequence number and timestamp, keep text lines
			for i := 2; i < len(blockLines); i++ {
				if strings.TrimSpace(blockLines[i]) != "" {
					lines = append(lines, strings.TrimSpace(blockLines[i]))
				}
			}
		}
	}

	return strings.TrimSpace(strings.Join(removeDuplicates(lines), "\n"))
}

// removeDuplicates eliminates consecutive repeated or overlapping lines.
func removeDuplicates(lines []string) []string {
	result := make([]string, 0, len(lines))
	prevLine := ""

	for _, line := range lines {
		isDuplicate := prevLine != "" && (strings.Contains(line, prevLine) || strings.Contains(prevLine, line))
		if !isDuplicate {
			result = append(result, line)
		}
		prevLine = line
	}

	return result
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

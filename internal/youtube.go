package internal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ChannelInfo identifies the resolved channel and its uploads playlist.
type ChannelInfo struct {
	ID              string
	Title           string
	UploadsPlaylist string
}

// YouTube wraps the YouTube Data API v3 for channel metadata pulls.
type YouTube struct {
	service *youtube.Service
	limiter *rate.Limiter
	verbose bool
}

// NewYouTube creates a Data API client authenticated with an API key.
func NewYouTube(ctx context.Context, apiKey string, maxQPS float64, verbose bool) (*YouTube, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required - set it in config.toml or YOUTUBE_API_KEY environment variable")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating YouTube service: %w", err)
	}

	if maxQPS <= 0 {
		maxQPS = 5
	}

	return &YouTube{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(maxQPS), 1),
		verbose: verbose,
	}, nil
}

// ResolveChannel resolves a handle or free-text query (e.g. "@HattonStrength"
// or "Lucas Hatton strength") to a channel via YouTube search. The first
// search result wins, matching the original workflow.
func (yt *YouTube) ResolveChannel(ctx context.Context, query string) (string, error) {
	if err := yt.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := yt.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(5).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("searching for channel %q: %w", query, err)
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("no channel found for query: %s", query)
	}

	channelID := resp.Items[0].Snippet.ChannelId
	if yt.verbose {
		fmt.Printf("Resolved %q to channel %s (%s)\n", query, channelID, resp.Items[0].Snippet.Title)
	}
	return channelID, nil
}

// Channel fetches the channel's title and uploads playlist ID.
func (yt *YouTube) Channel(ctx context.Context, channelID string) (*ChannelInfo, error) {
	if err := yt.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := yt.service.Channels.List([]string{"contentDetails", "snippet"}).
		Id(channelID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("fetching channel %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel not found: %s", channelID)
	}

	item := resp.Items[0]
	if item.ContentDetails == nil || item.ContentDetails.RelatedPlaylists == nil ||
		item.ContentDetails.RelatedPlaylists.Uploads == "" {
		return nil, fmt.Errorf("channel %s has no uploads playlist", channelID)
	}

	return &ChannelInfo{
		ID:              item.Id,
		Title:           item.Snippet.Title,
		UploadsPlaylist: item.ContentDetails.RelatedPlaylists.Uploads,
	}, nil
}

// ListUploads pages through the uploads playlist and returns all video ids,
// oldest continuation order as returned by the API.
func (yt *YouTube) ListUploads(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		if err := yt.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := yt.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(50).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing playlist %s: %w", playlistID, err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return ids, nil
}

// VideoDetails fetches snippet/contentDetails/statistics for the given ids
// in batches of 50 (the API maximum). The progress callback, if non-nil, is
// invoked after each batch with the number of videos fetched so far.
func (yt *YouTube) VideoDetails(ctx context.Context, ids []string, progress func(done int)) ([]VideoRecord, error) {
	const batchSize = 50
	now := time.Now().UTC()
	records := make([]VideoRecord, 0, len(ids))

	for i := 0; i < len(ids); i += batchSize {
		end := min(i+batchSize, len(ids))

		if err := yt.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := yt.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(strings.Join(ids[i:end], ",")).
			MaxResults(batchSize).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("fetching video details (batch %d): %w", i/batchSize+1, err)
		}

		for _, item := range resp.Items {
			rec := VideoRecord{
				ID:        item.Id,
				FetchedAt: now,
			}
			if item.Snippet != nil {
				rec.Title = item.Snippet.Title
				rec.Description = item.Snippet.Description
				rec.ChannelID = item.Snippet.ChannelId
				rec.ChannelTitle = item.Snippet.ChannelTitle
				if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
					rec.PublishedAt = t.UTC()
				}
			}
			if item.ContentDetails != nil {
				rec.Duration = ParseISODuration(item.ContentDetails.Duration)
			}
			if item.Statistics != nil {
				rec.ViewCount = int64(item.Statistics.ViewCount)
				rec.LikeCount = int64(item.Statistics.LikeCount)
				rec.CommentCount = int64(item.Statistics.CommentCount)
			}
			records = append(records, rec)
		}

		if progress != nil {
			progress(len(records))
		}
	}

	return records, nil
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts an ISO 8601 duration like "PT1H2M3S" to seconds.
// Malformed input yields 0.
func ParseISODuration(duration string) int {
	m := isoDurationRe.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}

	var total int
	if m[1] != "" {
		if h, err := strconv.Atoi(m[1]); err == nil {
			total += h * 3600
		}
	}
	if m[2] != "" {
		if mins, err := strconv.Atoi(m[2]); err == nil {
			total += mins * 60
		}
	}
	if m[3] != "" {
		if sec, err := strconv.Atoi(m[3]); err == nil {
			total += sec
		}
	}
	return total
}

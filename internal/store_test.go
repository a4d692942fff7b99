package internal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testVideo(id string, published time.Time) *VideoRecord {
	return &VideoRecord{
		ID:           id,
		Title:        "Heavy deadlift session",
		Description:  "Working up to a top set",
		ChannelID:    "UCa67yjHFkanhRnCfOHfdBIw",
		ChannelTitle: "Hatton Strength",
		PublishedAt:  published,
		Duration:     754,
		ViewCount:    1200,
		LikeCount:    80,
		CommentCount: 15,
		FetchedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestStoreVideoRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	want := testVideo("aaaaaaaaaaa", published)
	require.NoError(t, store.UpsertVideo(ctx, want))

	got, err := store.GetVideo(ctx, "aaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Duration, got.Duration)
	assert.Equal(t, want.ViewCount, got.ViewCount)
	assert.True(t, got.PublishedAt.Equal(published))
}

func TestStoreUpsertReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	v := testVideo("aaaaaaaaaaa", time.Now().UTC())
	require.NoError(t, store.UpsertVideo(ctx, v))

	v.Title = "Updated title"
	v.ViewCount = 5000
	require.NoError(t, store.UpsertVideo(ctx, v))

	got, err := store.GetVideo(ctx, "aaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "Updated title", got.Title)
	assert.Equal(t, int64(5000), got.ViewCount)

	videos, err := store.ListVideos(ctx)
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}

func TestStoreGetVideoNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetVideo(context.Background(), "zzzzzzzzzzz")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListVideosOrdered(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	newer := testVideo("bbbbbbbbbbb", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	older := testVideo("aaaaaaaaaaa", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.UpsertVideo(ctx, newer))
	require.NoError(t, store.UpsertVideo(ctx, older))

	videos, err := store.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "aaaaaaaaaaa", videos[0].ID)
	assert.Equal(t, "bbbbbbbbbbb", videos[1].ID)
}

func TestStoreTranscriptLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertVideo(ctx, testVideo("aaaaaaaaaaa", time.Now().UTC())))
	require.NoError(t, store.UpsertVideo(ctx, testVideo("bbbbbbbbbbb", time.Now().UTC())))
	require.NoError(t, store.UpsertVideo(ctx, testVideo("ccccccccccc", time.Now().UTC())))

	// One good transcript, one recorded failure, one untouched
	require.NoError(t, store.SaveTranscript(ctx, &Transcript{
		VideoID:   "aaaaaaaaaaa",
		Text:      "heavy deadlift session",
		Language:  "en",
		Source:    SourceManual,
		FetchedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.SaveTranscript(ctx, &Transcript{
		VideoID:   "bbbbbbbbbbb",
		ErrorKind: "no_captions",
		ErrorMsg:  "no captions available",
		FetchedAt: time.Now().UTC(),
	}))

	got, err := store.GetTranscript(ctx, "aaaaaaaaaaa")
	require.NoError(t, err)
	assert.True(t, got.OK())
	assert.Equal(t, "heavy deadlift session", got.Text)

	failed, err := store.GetTranscript(ctx, "bbbbbbbbbbb")
	require.NoError(t, err)
	assert.False(t, failed.OK())
	assert.Equal(t, "no_captions", failed.ErrorKind)

	// Recorded failures are skipped by default
	missing, err := store.VideosMissingTranscript(ctx, false)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "ccccccccccc", missing[0].ID)

	// ...and retried on demand
	missing, err = store.VideosMissingTranscript(ctx, true)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	ids, err := store.TranscribedIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"aaaaaaaaaaa": true}, ids)
}

func TestStoreLabelLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertVideo(ctx, testVideo("aaaaaaaaaaa", published)))
	require.NoError(t, store.UpsertVideo(ctx, testVideo("bbbbbbbbbbb", published.AddDate(0, 0, 7))))

	missing, err := store.VideosMissingLabel(ctx)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	require.NoError(t, store.SaveLabel(ctx, &Label{
		VideoID:    "aaaaaaaaaaa",
		Phase:      PhaseBuild,
		Events:     []string{"deadlift", "yoke"},
		Confidence: 0.85,
		Model:      "gpt-4o-mini",
		RunID:      "run-1",
		LabeledAt:  time.Now().UTC(),
	}))

	missing, err = store.VideosMissingLabel(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "bbbbbbbbbbb", missing[0].ID)

	labeled, err := store.ListLabeled(ctx)
	require.NoError(t, err)
	require.Len(t, labeled, 1)
	assert.Equal(t, "aaaaaaaaaaa", labeled[0].Video.ID)
	assert.Equal(t, PhaseBuild, labeled[0].Label.Phase)
	assert.Equal(t, []string{"deadlift", "yoke"}, labeled[0].Label.Events)
	assert.Equal(t, "run-1", labeled[0].Label.RunID)
	assert.InDelta(t, 0.85, labeled[0].Label.Confidence, 1e-9)
}

func TestStoreStats(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.UpsertVideo(ctx, testVideo("aaaaaaaaaaa", now)))
	require.NoError(t, store.UpsertVideo(ctx, testVideo("bbbbbbbbbbb", now)))
	require.NoError(t, store.SaveTranscript(ctx, &Transcript{
		VideoID: "aaaaaaaaaaa", Text: "ok", Language: "en", Source: SourceAuto, FetchedAt: now,
	}))
	require.NoError(t, store.SaveTranscript(ctx, &Transcript{
		VideoID: "bbbbbbbbbbb", ErrorKind: "no_captions", ErrorMsg: "none", FetchedAt: now,
	}))
	require.NoError(t, store.SaveLabel(ctx, &Label{
		VideoID: "aaaaaaaaaaa", Phase: PhaseBase, Events: []string{}, Confidence: 0.5, LabeledAt: now,
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Videos)
	assert.Equal(t, 1, stats.Transcribed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Labeled)
}

func TestStoreErrorMessage(t *testing.T) {
	err := &StoreError{Op: "get", Entity: "video", ID: "aaaaaaaaaaa", Err: ErrNotFound}
	assert.Contains(t, err.Error(), "get video aaaaaaaaaaa")
	assert.ErrorIs(t, err, ErrNotFound)
}

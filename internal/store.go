package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Sentinel errors for common store conditions.
var (
	// ErrNotFound indicates the requested row was not found.
	ErrNotFound = errors.New("store: not found")
)

// StoreError wraps store errors with operation and entity context.
type StoreError struct {
	Op     string // "upsert", "get", "list", ...
	Entity string // "video", "transcript", "label"
	ID     string
	Err    error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store persists the pipeline state in a single SQLite database. It is the
// on-disk cache that lets pull/transcripts/label runs resume without
// re-querying the external APIs.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the SQLite database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS videos (
		video_id      TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		description   TEXT,
		channel_id    TEXT,
		channel_title TEXT,
		published_at  TEXT NOT NULL,
		duration      INTEGER,
		view_count    INTEGER,
		like_count    INTEGER,
		comment_count INTEGER,
		fetched_at    TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS transcripts (
		video_id   TEXT PRIMARY KEY REFERENCES videos(video_id),
		text       TEXT,
		language   TEXT,
		source     TEXT,
		error_kind TEXT,
		error_msg  TEXT,
		fetched_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS labels (
		video_id   TEXT PRIMARY KEY REFERENCES videos(video_id),
		phase      TEXT NOT NULL,
		events     TEXT NOT NULL,
		confidence REAL NOT NULL,
		model      TEXT,
		run_id     TEXT,
		labeled_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_videos_published ON videos(published_at);
	`)
	return err
}

// UpsertVideo inserts or replaces a video record.
func (s *Store) UpsertVideo(ctx context.Context, v *VideoRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (video_id, title, description, channel_id, channel_title,
			published_at, duration, view_count, like_count, comment_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title=excluded.title, description=excluded.description,
			channel_id=excluded.channel_id, channel_title=excluded.channel_title,
			published_at=excluded.published_at, duration=excluded.duration,
			view_count=excluded.view_count, like_count=excluded.like_count,
			comment_count=excluded.comment_count, fetched_at=excluded.fetched_at`,
		v.ID, v.Title, v.Description, v.ChannelID, v.ChannelTitle,
		v.PublishedAt.UTC().Format(time.RFC3339), v.Duration,
		v.ViewCount, v.LikeCount, v.CommentCount,
		v.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return &StoreError{Op: "upsert", Entity: "video", ID: v.ID, Err: err}
	}
	return nil
}

// GetVideo retrieves a single video by its YouTube ID.
func (s *Store) GetVideo(ctx context.Context, id string) (*VideoRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT video_id, title, description, channel_id, channel_title,
			published_at, duration, view_count, like_count, comment_count, fetched_at
		FROM videos WHERE video_id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Op: "get", Entity: "video", ID: id, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Entity: "video", ID: id, Err: err}
	}
	return v, nil
}

// ListVideos returns all stored videos ordered by publish time.
func (s *Store) ListVideos(ctx context.Context) ([]VideoRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id, title, description, channel_id, channel_title,
			published_at, duration, view_count, like_count, comment_count, fetched_at
		FROM videos ORDER BY published_at`)
	if err != nil {
		return nil, &StoreError{Op: "list", Entity: "video", Err: err}
	}
	defer rows.Close()

	var videos []VideoRecord
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, &StoreError{Op: "list", Entity: "video", Err: err}
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Entity: "video", Err: err}
	}
	return videos, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(sc scanner) (*VideoRecord, error) {
	var v VideoRecord
	var published, fetched string
	if err := sc.Scan(&v.ID, &v.Title, &v.Description, &v.ChannelID, &v.ChannelTitle,
		&published, &v.Duration, &v.ViewCount, &v.LikeCount, &v.CommentCount, &fetched); err != nil {
		return nil, err
	}
	var err error
	if v.PublishedAt, err = time.Parse(time.RFC3339, published); err != nil {
		return nil, fmt.Errorf("parsing published_at: %w", err)
	}
	if v.FetchedAt, err = time.Parse(time.RFC3339, fetched); err != nil {
		return nil, fmt.Errorf("parsing fetched_at: %w", err)
	}
	return &v, nil
}

// SaveTranscript inserts or replaces the transcript row for a video.
// Failed fetches are stored too so reruns skip known-bad videos.
func (s *Store) SaveTranscript(ctx context.Context, t *Transcript) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (video_id, text, language, source, error_kind, error_msg, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			text=excluded.text, language=excluded.language, source=excluded.source,
			error_kind=excluded.error_kind, error_msg=excluded.error_msg,
			fetched_at=excluded.fetched_at`,
		t.VideoID, t.Text, t.Language, t.Source, t.ErrorKind, t.ErrorMsg,
		t.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return &StoreError{Op: "upsert", Entity: "transcript", ID: t.VideoID, Err: err}
	}
	return nil
}

// GetTranscript retrieves the transcript row for a video.
func (s *Store) GetTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT video_id, text, language, source, error_kind, error_msg, fetched_at
		FROM transcripts WHERE video_id = ?`, videoID)

	var t Transcript
	var fetched string
	err := row.Scan(&t.VideoID, &t.Text, &t.Language, &t.Source, &t.ErrorKind, &t.ErrorMsg, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Op: "get", Entity: "transcript", ID: videoID, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Entity: "transcript", ID: videoID, Err: err}
	}
	if t.FetchedAt, err = time.Parse(time.RFC3339, fetched); err != nil {
		return nil, &StoreError{Op: "get", Entity: "transcript", ID: videoID, Err: err}
	}
	return &t, nil
}

// VideosMissingTranscript returns videos without any transcript row,
// ordered by publish time. Videos with a recorded failure are not
// returned again unless retryFailed is set.
func (s *Store) VideosMissingTranscript(ctx context.Context, retryFailed bool) ([]VideoRecord, error) {
	query := `
		SELECT v.video_id, v.title, v.description, v.channel_id, v.channel_title,
			v.published_at, v.duration, v.view_count, v.like_count, v.comment_count, v.fetched_at
		FROM videos v LEFT JOIN transcripts t ON v.video_id = t.video_id
		WHERE t.video_id IS NULL`
	if retryFailed {
		query += ` OR (t.error_kind != '' AND t.error_kind IS NOT NULL)`
	}
	query += ` ORDER BY v.published_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &StoreError{Op: "list", Entity: "video", Err: err}
	}
	defer rows.Close()

	var videos []VideoRecord
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, &StoreError{Op: "list", Entity: "video", Err: err}
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// SaveLabel inserts or replaces the label for a video.
func (s *Store) SaveLabel(ctx context.Context, l *Label) error {
	events, err := json.Marshal(l.Events)
	if err != nil {
		return &StoreError{Op: "upsert", Entity: "label", ID: l.VideoID, Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO labels (video_id, phase, events, confidence, model, run_id, labeled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			phase=excluded.phase, events=excluded.events, confidence=excluded.confidence,
			model=excluded.model, run_id=excluded.run_id, labeled_at=excluded.labeled_at`,
		l.VideoID, string(l.Phase), string(events), l.Confidence, l.Model, l.RunID,
		l.LabeledAt.UTC().Format(time.RFC3339))
	if err != nil {
		return &StoreError{Op: "upsert", Entity: "label", ID: l.VideoID, Err: err}
	}
	return nil
}

// VideosMissingLabel returns videos that have no label yet.
func (s *Store) VideosMissingLabel(ctx context.Context) ([]VideoRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.video_id, v.title, v.description, v.channel_id, v.channel_title,
			v.published_at, v.duration, v.view_count, v.like_count, v.comment_count, v.fetched_at
		FROM videos v LEFT JOIN labels l ON v.video_id = l.video_id
		WHERE l.video_id IS NULL
		ORDER BY v.published_at`)
	if err != nil {
		return nil, &StoreError{Op: "list", Entity: "video", Err: err}
	}
	defer rows.Close()

	var videos []VideoRecord
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, &StoreError{Op: "list", Entity: "video", Err: err}
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// ListLabeled returns every video joined with its label, ordered by publish
// time. This is the read-only input of the rollup stage.
func (s *Store) ListLabeled(ctx context.Context) ([]LabeledVideo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.video_id, v.title, v.description, v.channel_id, v.channel_title,
			v.published_at, v.duration, v.view_count, v.like_count, v.comment_count, v.fetched_at,
			l.phase, l.events, l.confidence, l.model, l.run_id, l.labeled_at
		FROM videos v JOIN labels l ON v.video_id = l.video_id
		ORDER BY v.published_at`)
	if err != nil {
		return nil, &StoreError{Op: "list", Entity: "label", Err: err}
	}
	defer rows.Close()

	var labeled []LabeledVideo
	for rows.Next() {
		var lv LabeledVideo
		var published, fetched, events, labeledAt string
		var phase string
		if err := rows.Scan(&lv.Video.ID, &lv.Video.Title, &lv.Video.Description,
			&lv.Video.ChannelID, &lv.Video.ChannelTitle, &published, &lv.Video.Duration,
			&lv.Video.ViewCount, &lv.Video.LikeCount, &lv.Video.CommentCount, &fetched,
			&phase, &events, &lv.Label.Confidence, &lv.Label.Model, &lv.Label.RunID,
			&labeledAt); err != nil {
			return nil, &StoreError{Op: "list", Entity: "label", Err: err}
		}
		if lv.Video.PublishedAt, err = time.Parse(time.RFC3339, published); err != nil {
			return nil, &StoreError{Op: "list", Entity: "label", Err: err}
		}
		if lv.Video.FetchedAt, err = time.Parse(time.RFC3339, fetched); err != nil {
			return nil, &StoreError{Op: "list", Entity: "label", Err: err}
		}
		if lv.Label.LabeledAt, err = time.Parse(time.RFC3339, labeledAt); err != nil {
			return nil, &StoreError{Op: "list", Entity: "label", Err: err}
		}
		if err := json.Unmarshal([]byte(events), &lv.Label.Events); err != nil {
			return nil, &StoreError{Op: "list", Entity: "label", Err: err}
		}
		lv.Label.VideoID = lv.Video.ID
		lv.Label.Phase = NormalizePhase(phase)
		labeled = append(labeled, lv)
	}
	return labeled, rows.Err()
}

// TranscribedIDs returns the set of video ids with a usable transcript.
// Used by the rollup stage for coverage stats.
func (s *Store) TranscribedIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT video_id FROM transcripts
		WHERE (error_kind = '' OR error_kind IS NULL) AND text != ''`)
	if err != nil {
		return nil, &StoreError{Op: "list", Entity: "transcript", Err: err}
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &StoreError{Op: "list", Entity: "transcript", Err: err}
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Stats summarizes store contents for status output.
type Stats struct {
	Videos      int
	Transcribed int
	Failed      int
	Labeled     int
}

// Stats returns row counts for status output.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM videos),
			(SELECT COUNT(*) FROM transcripts WHERE (error_kind = '' OR error_kind IS NULL) AND text != ''),
			(SELECT COUNT(*) FROM transcripts WHERE error_kind != '' AND error_kind IS NOT NULL),
			(SELECT COUNT(*) FROM labels)`)
	if err := row.Scan(&st.Videos, &st.Transcribed, &st.Failed, &st.Labeled); err != nil {
		return nil, &StoreError{Op: "get", Entity: "stats", Err: err}
	}
	return &st, nil
}

package internal

import (
	"strings"
	"time"
)

// Phase is the training-phase tag inferred for a video. Phases follow the
// usual macrocycle breakdown: base -> build -> peak, with deload weeks
// interleaved. Videos the model cannot place get PhaseUnknown.
type Phase string

const (
	PhaseBase    Phase = "base"
	PhaseBuild   Phase = "build"
	PhasePeak    Phase = "peak"
	PhaseDeload  Phase = "deload"
	PhaseUnknown Phase = "unknown"
)

// Phases lists the known phases in macrocycle order.
var Phases = []Phase{PhaseBase, PhaseBuild, PhasePeak, PhaseDeload}

// Valid reports whether the phase is one of the known tags.
func (p Phase) Valid() bool {
	switch p {
	case PhaseBase, PhaseBuild, PhasePeak, PhaseDeload, PhaseUnknown:
		return true
	}
	return false
}

// NormalizePhase maps free-form model output onto a known phase tag.
func NormalizePhase(s string) Phase {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "", "none", "n/a", "unclear":
		return PhaseUnknown
	case "offseason", "off-season", "volume", "accumulation", "gpp":
		return PhaseBase
	case "intensification", "strength":
		return PhaseBuild
	case "peaking", "taper", "competition", "comp prep", "prep":
		return PhasePeak
	case "recovery", "rest":
		return PhaseDeload
	}
	if p.Valid() {
		return p
	}
	return PhaseUnknown
}

// Transcript sources, in order of preference.
const (
	SourceManual  = "manual"
	SourceAuto    = "auto"
	SourceWhisper = "whisper"
)

// VideoRecord is one upload of the tracked channel, as returned by the
// YouTube Data API. Records are immutable once fetched; re-running the pull
// stage replaces them wholesale.
type VideoRecord struct {
	ID           string    `json:"video_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	PublishedAt  time.Time `json:"published_at"`
	Duration     int       `json:"duration_seconds"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// URL returns the watch URL for the video.
func (v *VideoRecord) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Transcript holds the fetched caption text for a video, or the error that
// prevented fetching it. Exactly one of Text / ErrorKind is meaningful.
type Transcript struct {
	VideoID   string    `json:"video_id"`
	Text      string    `json:"text,omitempty"`
	Language  string    `json:"language,omitempty"`
	Source    string    `json:"source,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	ErrorMsg  string    `json:"error_message,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// OK reports whether a usable transcript was fetched.
func (t *Transcript) OK() bool { return t.ErrorKind == "" && t.Text != "" }

// Label is the inferred annotation for a single video.
type Label struct {
	VideoID    string    `json:"video_id"`
	Phase      Phase     `json:"phase"`
	Events     []string  `json:"events"`
	Confidence float64   `json:"confidence"`
	Model      string    `json:"model"`
	RunID      string    `json:"run_id"`
	LabeledAt  time.Time `json:"labeled_at"`
}

// LabeledVideo joins a video with its label for aggregation. The rollup
// stage consumes these read-only.
type LabeledVideo struct {
	Video VideoRecord
	Label Label
}

// RollupBucket aggregates labeled videos over one contiguous time period
// (a calendar month or an ISO week).
type RollupBucket struct {
	Period         string         `json:"period"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Videos         int            `json:"videos"`
	Transcribed    int            `json:"transcribed"`
	DominantPhase  Phase          `json:"dominant_phase"`
	PhaseCounts    map[Phase]int  `json:"phase_counts"`
	EventCounts    map[string]int `json:"event_counts"`
	MeanConfidence float64        `json:"mean_confidence"`
}

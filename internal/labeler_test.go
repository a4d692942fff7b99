package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabelResponse(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantPhase      Phase
		wantEvents     []string
		wantConfidence float64
		wantErr        bool
	}{
		{
			name:           "clean JSON",
			response:       `{"phase": "build", "events": ["deadlift", "yoke"], "confidence": 0.8}`,
			wantPhase:      PhaseBuild,
			wantEvents:     []string{"deadlift", "yoke"},
			wantConfidence: 0.8,
		},
		{
			name:           "JSON wrapped in prose and code fence",
			response:       "Here is the label:\n```json\n{\"phase\": \"peak\", \"events\": [], \"confidence\": 0.9}\n```",
			wantPhase:      PhasePeak,
			wantEvents:     nil,
			wantConfidence: 0.9,
		},
		{
			name:           "phase synonym normalized",
			response:       `{"phase": "Peaking", "events": ["Log Press"], "confidence": 0.7}`,
			wantPhase:      PhasePeak,
			wantEvents:     []string{"log_press"},
			wantConfidence: 0.7,
		},
		{
			name:           "confidence clamped above one",
			response:       `{"phase": "base", "events": [], "confidence": 1.5}`,
			wantPhase:      PhaseBase,
			wantConfidence: 1.0,
		},
		{
			name:           "confidence clamped below zero",
			response:       `{"phase": "base", "events": [], "confidence": -0.2}`,
			wantPhase:      PhaseBase,
			wantConfidence: 0.0,
		},
		{
			name:           "unknown phase falls back",
			response:       `{"phase": "cardio", "events": [], "confidence": 0.5}`,
			wantPhase:      PhaseUnknown,
			wantConfidence: 0.5,
		},
		{
			name:     "no JSON at all",
			response: "I cannot label this video.",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := ParseLabelResponse(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPhase, label.Phase)
			assert.Equal(t, tt.wantEvents, label.Events)
			assert.InDelta(t, tt.wantConfidence, label.Confidence, 1e-9)
		})
	}
}

func TestNormalizeEvents(t *testing.T) {
	got := NormalizeEvents([]string{"Log Press", "atlas-stones", "log press", "", "  yoke  "})
	assert.Equal(t, []string{"atlas_stones", "log_press", "yoke"}, got)
}

func TestNormalizePhase(t *testing.T) {
	tests := []struct {
		in   string
		want Phase
	}{
		{"base", PhaseBase},
		{"BUILD", PhaseBuild},
		{"Peaking", PhasePeak},
		{"taper", PhasePeak},
		{"gpp", PhaseBase},
		{"strength", PhaseBuild},
		{"recovery", PhaseDeload},
		{"", PhaseUnknown},
		{"cardio", PhaseUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhase(tt.in), "input %q", tt.in)
	}
}

// fakeChat returns a canned response for labeler tests.
type fakeChat struct {
	response string
	err      error
	prompt   string
}

func (f *fakeChat) Complete(ctx context.Context, model, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestLabelerLabel(t *testing.T) {
	chat := &fakeChat{response: `{"phase": "deload", "events": ["sandbag"], "confidence": 0.6}`}
	prompts := NewPromptManager("", "Label this: {{.Title}}\n{{.Transcript}}")
	labeler := NewLabeler(chat, prompts, "gpt-4o-mini", time.Minute, false)

	video := &VideoRecord{ID: "dQw4w9WgXcQ", Title: "Deload week vlog"}
	label, err := labeler.Label(context.Background(), video, "easy movement today")
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", label.VideoID)
	assert.Equal(t, PhaseDeload, label.Phase)
	assert.Equal(t, []string{"sandbag"}, label.Events)
	assert.Equal(t, "gpt-4o-mini", label.Model)
	assert.False(t, label.LabeledAt.IsZero())
	assert.Contains(t, chat.prompt, "Deload week vlog")
	assert.Contains(t, chat.prompt, "easy movement today")
}

func TestLabelerLabelChatError(t *testing.T) {
	chat := &fakeChat{err: errors.New("rate limited")}
	prompts := NewPromptManager("", "{{.Title}}")
	labeler := NewLabeler(chat, prompts, "gpt-4o-mini", time.Minute, false)

	_, err := labeler.Label(context.Background(), &VideoRecord{ID: "dQw4w9WgXcQ"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestKeywordLabeler(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		transcript string
		wantPhase  Phase
		wantEvents []string
	}{
		{
			name:       "deload in title",
			title:      "Deload week - light yoke work",
			wantPhase:  PhaseDeload,
			wantEvents: []string{"yoke"},
		},
		{
			name:       "peak prep in transcript",
			title:      "Training vlog",
			transcript: "last heavy session before comp prep wraps up, hit some stone loads",
			wantPhase:  PhasePeak,
			wantEvents: []string{"atlas_stones"},
		},
		{
			name:       "no signal",
			title:      "Q&A",
			transcript: "answering your questions",
			wantPhase:  PhaseUnknown,
		},
		{
			name:       "multiple events sorted",
			title:      "Log press and deadlift off season training",
			wantPhase:  PhaseBase,
			wantEvents: []string{"deadlift", "log_press"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video := &VideoRecord{ID: "dQw4w9WgXcQ", Title: tt.title}
			label := KeywordLabeler{}.Label(video, tt.transcript)

			assert.Equal(t, tt.wantPhase, label.Phase)
			assert.Equal(t, tt.wantEvents, label.Events)
			assert.Equal(t, KeywordModelName, label.Model)
			if tt.wantPhase == PhaseUnknown {
				assert.Zero(t, label.Confidence)
			} else {
				assert.Equal(t, keywordConfidence, label.Confidence)
			}
		})
	}
}

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickTrack(t *testing.T) {
	tests := []struct {
		name       string
		tracks     captionTracks
		preferred  []string
		wantLang   string
		wantSource string
		wantOK     bool
	}{
		{
			name:       "manual preferred language wins",
			tracks:     captionTracks{Manual: []string{"en"}, Auto: []string{"en"}},
			preferred:  []string{"en"},
			wantLang:   "en",
			wantSource: SourceManual,
			wantOK:     true,
		},
		{
			name:       "auto preferred beats manual other language",
			tracks:     captionTracks{Manual: []string{"de"}, Auto: []string{"en"}},
			preferred:  []string{"en"},
			wantLang:   "en",
			wantSource: SourceAuto,
			wantOK:     true,
		},
		{
			name:       "regional variant matches language prefix",
			tracks:     captionTracks{Manual: []string{"en-US"}},
			preferred:  []string{"en"},
			wantLang:   "en-US",
			wantSource: SourceManual,
			wantOK:     true,
		},
		{
			name:       "any manual when no preferred available",
			tracks:     captionTracks{Manual: []string{"de"}, Auto: []string{"fr"}},
			preferred:  []string{"en"},
			wantLang:   "de",
			wantSource: SourceManual,
			wantOK:     true,
		},
		{
			name:       "any auto as last resort",
			tracks:     captionTracks{Auto: []string{"fr"}},
			preferred:  []string{"en"},
			wantLang:   "fr",
			wantSource: SourceAuto,
			wantOK:     true,
		},
		{
			name:      "no tracks at all",
			tracks:    captionTracks{},
			preferred: []string{"en"},
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, source, ok := PickTrack(tt.tracks, tt.preferred)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantLang, lang)
				assert.Equal(t, tt.wantSource, source)
			}
		})
	}
}

func TestFlattenSRT(t *testing.T) {
	srt := "1\n00:00:00,000 --> 00:00:02,000\nheavy deadlift session\n\n" +
		"2\n00:00:02,000 --> 00:00:04,000\nworking up to a top set\n\n" +
		"3\n00:00:04,000 --> 00:00:06,000\nworking up to a top set\n\n"

	got := FlattenSRT(srt)
	assert.Equal(t, "heavy deadlift session\nworking up to a top set", got)
}

func TestFlattenSRTEmpty(t *testing.T) {
	assert.Equal(t, "", FlattenSRT(""))
	assert.Equal(t, "", FlattenSRT("not an srt file"))
}

func TestRemoveDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "consecutive exact repeats collapse",
			lines: []string{"a", "a", "b"},
			want:  []string{"a", "b"},
		},
		{
			name:  "overlapping continuation collapses",
			lines: []string{"log press", "log press for reps"},
			want:  []string{"log press"},
		},
		{
			name:  "non-consecutive repeats survive",
			lines: []string{"yoke", "stones", "yoke"},
			want:  []string{"yoke", "stones", "yoke"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, removeDuplicates(tt.lines))
		})
	}
}

package internal

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuckets() []RollupBucket {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []RollupBucket{
		{
			Period:         "2024-01",
			Start:          start,
			End:            start.AddDate(0, 1, 0),
			Videos:         3,
			Transcribed:    2,
			DominantPhase:  PhaseBuild,
			PhaseCounts:    map[Phase]int{PhaseBuild: 2, PhaseDeload: 1},
			EventCounts:    map[string]int{"deadlift": 2, "yoke": 2, "sandbag": 1},
			MeanConfidence: 0.75,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, testBuckets()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t,
		"period,start,end,videos,transcribed,dominant_phase,base,build,peak,deload,unknown,mean_confidence,top_events",
		lines[0])
	assert.Equal(t,
		"2024-01,2024-01-01,2024-02-01,3,2,build,0,2,0,1,0,0.75,deadlift:2;yoke:2;sandbag:1",
		lines[1])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, nil))

	// Header only
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
}

func TestWriteJSON(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteJSON(&buf, testBuckets()))

	var decoded []RollupBucket
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "2024-01", decoded[0].Period)
	assert.Equal(t, PhaseBuild, decoded[0].DominantPhase)
}

func TestFormatEventCounts(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   string
	}{
		{"empty", nil, ""},
		{"single", map[string]int{"yoke": 3}, "yoke:3"},
		{
			"frequency then alphabetical",
			map[string]int{"yoke": 2, "deadlift": 2, "sandbag": 5},
			"sandbag:5;deadlift:2;yoke:2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatEventCounts(tt.counts))
		})
	}
}

func TestTopEvents(t *testing.T) {
	counts := map[string]int{"deadlift": 4, "yoke": 3, "sandbag": 2, "keg": 1}
	assert.Equal(t, "deadlift, yoke, sandbag", topEvents(counts, 3))
	assert.Equal(t, "deadlift", topEvents(counts, 1))
	assert.Equal(t, "-", topEvents(nil, 3))
}

func TestRenderRollupTable(t *testing.T) {
	var buf strings.Builder
	RenderRollupTable(&buf, testBuckets())

	out := buf.String()
	assert.Contains(t, out, "PERIOD")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "build")
}

func TestBuildReport(t *testing.T) {
	report := BuildReport("Hatton Strength", testBuckets())

	assert.Contains(t, report, "# Macrocycle report: Hatton Strength")
	assert.Contains(t, report, "| 2024-01 | 3 | build | 0.75 |")
	assert.Contains(t, report, "## Phase timeline")
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport("Hatton Strength", nil)
	assert.Contains(t, report, "No labeled videos yet")
}

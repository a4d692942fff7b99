package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledAt(t time.Time, phase Phase, confidence float64, events ...string) LabeledVideo {
	return LabeledVideo{
		Video: VideoRecord{ID: "vid" + t.Format("20060102"), PublishedAt: t},
		Label: Label{Phase: phase, Confidence: confidence, Events: events},
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("month")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	p, err = ParsePeriod("week")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, p)

	_, err = ParsePeriod("quarter")
	assert.Error(t, err)
}

func TestPeriodKey(t *testing.T) {
	// Friday 2024-03-01 falls in ISO week 9
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03", PeriodKey(ts, PeriodMonth))
	assert.Equal(t, "2024-W09", PeriodKey(ts, PeriodWeek))

	// First days of January can belong to the previous ISO year
	newYear := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-W53", PeriodKey(newYear, PeriodWeek))
}

func TestBucketStart(t *testing.T) {
	friday := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), bucketStart(friday, PeriodMonth))
	// ISO weeks start on Monday
	assert.Equal(t, time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), bucketStart(friday, PeriodWeek))

	sunday := time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC), bucketStart(sunday, PeriodWeek))

	monday := time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, bucketStart(monday, PeriodWeek))
}

func TestRollupEmpty(t *testing.T) {
	assert.Nil(t, Rollup(nil, nil, PeriodMonth))
}

func TestRollupFillsGaps(t *testing.T) {
	labeled := []LabeledVideo{
		labeledAt(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), PhaseBase, 0.8, "deadlift"),
		labeledAt(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), PhaseBuild, 0.9, "yoke"),
	}

	buckets := Rollup(labeled, nil, PeriodMonth)
	require.Len(t, buckets, 3)

	assert.Equal(t, "2024-01", buckets[0].Period)
	assert.Equal(t, "2024-02", buckets[1].Period)
	assert.Equal(t, "2024-03", buckets[2].Period)

	// The empty middle month keeps the axis contiguous
	assert.Equal(t, 0, buckets[1].Videos)
	assert.Equal(t, PhaseUnknown, buckets[1].DominantPhase)

	assert.Equal(t, 1, buckets[0].Videos)
	assert.Equal(t, PhaseBase, buckets[0].DominantPhase)
	assert.Equal(t, map[string]int{"deadlift": 1}, buckets[0].EventCounts)
}

func TestRollupAggregates(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	labeled := []LabeledVideo{
		{
			Video: VideoRecord{ID: "aaaaaaaaaaa", PublishedAt: jan},
			Label: Label{Phase: PhaseBuild, Confidence: 0.8, Events: []string{"deadlift", "yoke"}},
		},
		{
			Video: VideoRecord{ID: "bbbbbbbbbbb", PublishedAt: jan.AddDate(0, 0, 5)},
			Label: Label{Phase: PhaseBuild, Confidence: 0.6, Events: []string{"deadlift"}},
		},
		{
			Video: VideoRecord{ID: "ccccccccccc", PublishedAt: jan.AddDate(0, 0, 10)},
			Label: Label{Phase: PhaseDeload, Confidence: 1.0},
		},
	}
	transcribed := map[string]bool{"aaaaaaaaaaa": true, "ccccccccccc": true}

	buckets := Rollup(labeled, transcribed, PeriodMonth)
	require.Len(t, buckets, 1)

	b := buckets[0]
	assert.Equal(t, 3, b.Videos)
	assert.Equal(t, 2, b.Transcribed)
	assert.Equal(t, PhaseBuild, b.DominantPhase)
	assert.Equal(t, map[Phase]int{PhaseBuild: 2, PhaseDeload: 1}, b.PhaseCounts)
	assert.Equal(t, map[string]int{"deadlift": 2, "yoke": 1}, b.EventCounts)
	assert.InDelta(t, 0.8, b.MeanConfidence, 1e-9)
}

func TestDominantPhase(t *testing.T) {
	tests := []struct {
		name   string
		videos []LabeledVideo
		want   Phase
	}{
		{
			name: "majority wins",
			videos: []LabeledVideo{
				{Label: Label{Phase: PhaseBase, Confidence: 0.5}},
				{Label: Label{Phase: PhaseBase, Confidence: 0.5}},
				{Label: Label{Phase: PhasePeak, Confidence: 0.9}},
			},
			want: PhaseBase,
		},
		{
			name: "count tie broken by cumulative confidence",
			videos: []LabeledVideo{
				{Label: Label{Phase: PhaseBase, Confidence: 0.4}},
				{Label: Label{Phase: PhasePeak, Confidence: 0.9}},
			},
			want: PhasePeak,
		},
		{
			name: "full tie broken by macrocycle order",
			videos: []LabeledVideo{
				{Label: Label{Phase: PhaseBuild, Confidence: 0.5}},
				{Label: Label{Phase: PhasePeak, Confidence: 0.5}},
			},
			want: PhaseBuild,
		},
		{
			name: "unknown only when nothing else",
			videos: []LabeledVideo{
				{Label: Label{Phase: PhaseUnknown, Confidence: 0.9}},
				{Label: Label{Phase: PhaseUnknown, Confidence: 0.9}},
				{Label: Label{Phase: PhaseDeload, Confidence: 0.1}},
			},
			want: PhaseDeload,
		},
		{
			name: "all unknown",
			videos: []LabeledVideo{
				{Label: Label{Phase: PhaseUnknown, Confidence: 0.5}},
			},
			want: PhaseUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dominantPhase(tt.videos))
		})
	}
}

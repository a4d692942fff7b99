package internal

import (
	"fmt"
	"time"
)

// Period selects the rollup bucket size.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodWeek  Period = "week"
)

// ParsePeriod validates a period flag value.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodMonth, PeriodWeek:
		return Period(s), nil
	}
	return "", fmt.Errorf("invalid period %q (valid: month, week)", s)
}

// PeriodKey formats the bucket key for a timestamp: "2024-03" for months,
// "2024-W09" for ISO weeks.
func PeriodKey(t time.Time, period Period) string {
	t = t.UTC()
	if period == PeriodWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return t.Format("2006-01")
}

// bucketStart returns the start of the bucket containing t.
func bucketStart(t time.Time, period Period) time.Time {
	t = t.UTC()
	if period == PeriodWeek {
		// ISO weeks start on Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -(weekday - 1))
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// nextBucket returns the start of the bucket following start.
func nextBucket(start time.Time, period Period) time.Time {
	if period == PeriodWeek {
		return start.AddDate(0, 0, 7)
	}
	return start.AddDate(0, 1, 0)
}

// Rollup groups labeled videos into contiguous, non-overlapping buckets of
// the given period. Gaps between the first and last upload produce empty
// buckets so downstream charts get an unbroken time axis. transcribed is
// the set of video ids with a usable transcript (may be nil).
func Rollup(labeled []LabeledVideo, transcribed map[string]bool, period Period) []RollupBucket {
	if len(labeled) == 0 {
		return nil
	}

	// Videos arrive ordered by publish time; find the full range.
	first := bucketStart(labeled[0].Video.PublishedAt, period)
	last := first
	byStart := make(map[time.Time][]LabeledVideo)
	for _, lv := range labeled {
		start := bucketStart(lv.Video.PublishedAt, period)
		byStart[start] = append(byStart[start], lv)
		if start.Before(first) {
			first = start
		}
		if start.After(last) {
			last = start
		}
	}

	var buckets []RollupBucket
	for start := first; !start.After(last); start = nextBucket(start, period) {
		bucket := RollupBucket{
			Period:        PeriodKey(start, period),
			Start:         start,
			End:           nextBucket(start, period),
			DominantPhase: PhaseUnknown,
			PhaseCounts:   make(map[Phase]int),
			EventCounts:   make(map[string]int),
		}

		var confidenceSum float64
		for _, lv := range byStart[start] {
			bucket.Videos++
			if transcribed[lv.Video.ID] {
				bucket.Transcribed++
			}
			bucket.PhaseCounts[lv.Label.Phase]++
			for _, event := range lv.Label.Events {
				bucket.EventCounts[event]++
			}
			confidenceSum += lv.Label.Confidence
		}
		if bucket.Videos > 0 {
			bucket.MeanConfidence = confidenceSum / float64(bucket.Videos)
			bucket.DominantPhase = dominantPhase(byStart[start])
		}

		buckets = append(buckets, bucket)
	}

	return buckets
}

// dominantPhase picks the most frequent known phase in a bucket. Ties break
// by cumulative confidence, then by macrocycle order so the result is
// deterministic. Unknown wins only when nothing else is present.
func dominantPhase(videos []LabeledVideo) Phase {
	counts := make(map[Phase]int)
	confidence := make(map[Phase]float64)
	for _, lv := range videos {
		counts[lv.Label.Phase]++
		confidence[lv.Label.Phase] += lv.Label.Confidence
	}

	best := PhaseUnknown
	for _, p := range Phases {
		if counts[p] == 0 {
			continue
		}
		if best == PhaseUnknown ||
			counts[p] > counts[best] ||
			(counts[p] == counts[best] && confidence[p] > confidence[best]) {
			best = p
		}
	}
	return best
}

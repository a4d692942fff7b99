package internal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Export formats for the rollup table.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatTable = "table"
)

// csvHeader is the stable column order the BI tool imports.
var csvHeader = []string{
	"period", "start", "end", "videos", "transcribed",
	"dominant_phase", "base", "build", "peak", "deload", "unknown",
	"mean_confidence", "top_events",
}

// WriteCSV writes the rollup table as CSV, one row per bucket.
func WriteCSV(w io.Writer, buckets []RollupBucket) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, b := range buckets {
		row := []string{
			b.Period,
			b.Start.Format("2006-01-02"),
			b.End.Format("2006-01-02"),
			strconv.Itoa(b.Videos),
			strconv.Itoa(b.Transcribed),
			string(b.DominantPhase),
			strconv.Itoa(b.PhaseCounts[PhaseBase]),
			strconv.Itoa(b.PhaseCounts[PhaseBuild]),
			strconv.Itoa(b.PhaseCounts[PhasePeak]),
			strconv.Itoa(b.PhaseCounts[PhaseDeload]),
			strconv.Itoa(b.PhaseCounts[PhaseUnknown]),
			strconv.FormatFloat(b.MeanConfidence, 'f', 2, 64),
			formatEventCounts(b.EventCounts),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", b.Period, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rollup table as indented JSON.
func WriteJSON(w io.Writer, buckets []RollupBucket) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buckets)
}

// formatEventCounts renders event frequencies as "deadlift:3;yoke:2",
// most frequent first, ties alphabetical.
func formatEventCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}

	events := make([]string, 0, len(counts))
	for event := range counts {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		if counts[events[i]] != counts[events[j]] {
			return counts[events[i]] > counts[events[j]]
		}
		return events[i] < events[j]
	})

	parts := make([]string, len(events))
	for i, event := range events {
		parts[i] = fmt.Sprintf("%s:%d", event, counts[event])
	}
	return strings.Join(parts, ";")
}

// RenderRollupTable renders a plain-text table for terminal output.
func RenderRollupTable(w io.Writer, buckets []RollupBucket) {
	fmt.Fprintf(w, "%-10s %7s %12s %-8s %5s  %s\n",
		"PERIOD", "VIDEOS", "TRANSCRIBED", "PHASE", "CONF", "TOP EVENTS")
	for _, b := range buckets {
		fmt.Fprintf(w, "%-10s %7d %12d %-8s %5.2f  %s\n",
			b.Period, b.Videos, b.Transcribed, b.DominantPhase,
			b.MeanConfidence, topEvents(b.EventCounts, 3))
	}
}

// BuildReport builds the markdown macrocycle report rendered by glamour.
func BuildReport(channel string, buckets []RollupBucket) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Macrocycle report: %s\n\n", channel))

	if len(buckets) == 0 {
		sb.WriteString("No labeled videos yet. Run the pipeline first.\n")
		return sb.String()
	}

	totalVideos := 0
	for _, b := range buckets {
		totalVideos += b.Videos
	}
	sb.WriteString(fmt.Sprintf("%d videos across %d periods (%s to %s).\n\n",
		totalVideos, len(buckets), buckets[0].Period, buckets[len(buckets)-1].Period))

	sb.WriteString("| Period | Videos | Dominant phase | Confidence | Top events |\n")
	sb.WriteString("|--------|-------:|----------------|-----------:|------------|\n")
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %.2f | %s |\n",
			b.Period, b.Videos, b.DominantPhase, b.MeanConfidence,
			topEvents(b.EventCounts, 3)))
	}

	sb.WriteString("\n## Phase timeline\n\n")
	for _, b := range buckets {
		if b.Videos == 0 {
			sb.WriteString(fmt.Sprintf("- **%s**: no uploads\n", b.Period))
			continue
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %s (%d videos)\n",
			b.Period, b.DominantPhase, b.Videos))
	}

	return sb.String()
}

// topEvents renders the n most frequent events as "deadlift, yoke".
func topEvents(counts map[string]int, n int) string {
	formatted := formatEventCounts(counts)
	if formatted == "" {
		return "-"
	}
	parts := strings.Split(formatted, ";")
	if len(parts) > n {
		parts = parts[:n]
	}
	for i, p := range parts {
		parts[i] = strings.SplitN(p, ":", 2)[0]
	}
	return strings.Join(parts, ", ")
}

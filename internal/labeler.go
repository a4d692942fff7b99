package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// transcriptExcerptLimit caps how much transcript text goes into the
// labeling prompt. Titles and descriptions carry most of the signal;
// the excerpt is supporting context.
const transcriptExcerptLimit = 6000

// Labeler infers training-phase and event/lift tags for videos using a
// chat model.
type Labeler struct {
	chat    ChatCompleter
	prompts *PromptManager
	model   string
	timeout time.Duration
	verbose bool
}

// NewLabeler creates a labeler backed by the given chat client.
func NewLabeler(chat ChatCompleter, prompts *PromptManager, model string, timeout time.Duration, verbose bool) *Labeler {
	return &Labeler{
		chat:    chat,
		prompts: prompts,
		model:   model,
		timeout: timeout,
		verbose: verbose,
	}
}

// Label infers tags for one video. transcript may be empty, in which case
// the model works from title and description alone.
func (l *Labeler) Label(ctx context.Context, video *VideoRecord, transcript string) (*Label, error) {
	prompt, err := l.prompts.CreatePrompt(video, truncateString(transcript, transcriptExcerptLimit))
	if err != nil {
		return nil, fmt.Errorf("creating prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	response, err := l.chat.Complete(ctx, l.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("labeling %s: %w", video.ID, err)
	}

	label, err := ParseLabelResponse(response)
	if err != nil {
		return nil, fmt.Errorf("parsing label response for %s: %w", video.ID, err)
	}

	label.VideoID = video.ID
	label.Model = l.model
	label.LabeledAt = time.Now().UTC()
	return label, nil
}

// ParseLabelResponse extracts the label JSON from a model response. Models
// wrap JSON in prose or code fences often enough that we slice from the
// first '{' to the last '}' and sanitize before giving up.
func ParseLabelResponse(response string) (*Label, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("no JSON found in response: %s", truncateString(response, 200))
	}

	jsonStr := response[startIdx : endIdx+1]

	var result struct {
		Phase      string   `json:"phase"`
		Events     []string `json:"events"`
		Confidence float64  `json:"confidence"`
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		sanitized := sanitizeJSON(jsonStr)
		if sanitizedErr := json.Unmarshal([]byte(sanitized), &result); sanitizedErr != nil {
			return nil, fmt.Errorf("unmarshaling label JSON %q: %w (sanitized version also failed: %v)",
				truncateString(jsonStr, 200), err, sanitizedErr)
		}
	}

	confidence := result.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return &Label{
		Phase:      NormalizePhase(result.Phase),
		Events:     NormalizeEvents(result.Events),
		Confidence: confidence,
	}, nil
}

// NormalizeEvents lowercases tags, converts spaces and hyphens to
// underscores, and drops duplicates and empties. Output order is sorted
// for stable storage and export.
func NormalizeEvents(events []string) []string {
	seen := make(map[string]bool, len(events))
	var out []string
	for _, e := range events {
		tag := strings.ToLower(strings.TrimSpace(e))
		tag = strings.ReplaceAll(tag, " ", "_")
		tag = strings.ReplaceAll(tag, "-", "_")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// sanitizeJSON fixes the common formatting faults in model JSON output,
// mainly unescaped quotes inside string values.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	var sanitizedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, ":") && strings.Contains(line, "\"") {
			colonIdx := strings.Index(line, ":")
			if colonIdx != -1 {
				beforeColon := line[:colonIdx+1]
				afterColon := strings.TrimSpace(line[colonIdx+1:])

				if strings.HasPrefix(afterColon, "\"") {
					lastQuoteIdx := strings.LastIndex(afterColon, "\"")
					if lastQuoteIdx > 0 {
						stringContent := afterColon[1:lastQuoteIdx]
						stringContent = strings.ReplaceAll(stringContent, "\\\"", "\"")
						stringContent = strings.ReplaceAll(stringContent, "\"", "\\\"")
						remainder := afterColon[lastQuoteIdx+1:]
						line = beforeColon + " \"" + stringContent + "\"" + remainder
					}
				}
			}
		}

		sanitizedLines = append(sanitizedLines, line)
	}

	return strings.Join(sanitizedLines, "\n")
}

// eventKeywords maps event/lift tags to the phrases that indicate them in
// titles and transcripts.
var eventKeywords = map[string][]string{
	"deadlift":        {"deadlift", "pulls from the floor"},
	"squat":           {"squat", "ssb "},
	"log_press":       {"log press", "log clean"},
	"axle_press":      {"axle press", "axle clean"},
	"overhead_press":  {"overhead press", "ohp", "push press", "strict press", "viking press"},
	"bench_press":     {"bench press", "bench day"},
	"yoke":            {"yoke"},
	"farmers_carry":   {"farmers carry", "farmer's carry", "farmers walk", "farmer's walk"},
	"sandbag":         {"sandbag"},
	"atlas_stones":    {"atlas stone", "stone load", "stone over bar", "stones"},
	"tire_flip":       {"tire flip", "tyre flip"},
	"sled_drag":       {"sled drag", "sled push", "prowler"},
	"car_deadlift":    {"car deadlift", "frame deadlift", "frame pull"},
	"circus_dumbbell": {"circus dumbbell", "circus db"},
	"keg":             {"keg toss", "keg carry", "keg run"},
}

// phaseKeywords maps phases to explicit phrases athletes use in titles.
var phaseKeywords = map[Phase][]string{
	PhaseDeload: {"deload", "recovery week", "rest week"},
	PhasePeak:   {"peak week", "comp prep", "competition prep", "taper", "openers", "last heavy"},
	PhaseBuild:  {"heavy triples", "heavy singles", "pr attempt", "top set", "working up heavy"},
	PhaseBase:   {"off season", "off-season", "volume block", "hypertrophy", "base building", "gpp"},
}

// KeywordLabeler is the no-API fallback classifier. It only sees titles,
// descriptions and transcript text, so its confidence is fixed low.
type KeywordLabeler struct{}

// KeywordModelName identifies keyword-derived labels in storage.
const KeywordModelName = "keywords"

// keywordConfidence is the fixed confidence for keyword-derived phases.
const keywordConfidence = 0.3

// Label classifies a video by keyword matching.
func (KeywordLabeler) Label(video *VideoRecord, transcript string) *Label {
	haystack := strings.ToLower(video.Title + "\n" + video.Description + "\n" + transcript)

	var events []string
	for tag, keywords := range eventKeywords {
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				events = append(events, tag)
				break
			}
		}
	}

	phase := PhaseUnknown
	confidence := 0.0
	// Title matches are the strongest signal, check it before the rest.
	title := strings.ToLower(video.Title)
	for _, source := range []string{title, haystack} {
		for _, p := range []Phase{PhaseDeload, PhasePeak, PhaseBuild, PhaseBase} {
			for _, kw := range phaseKeywords[p] {
				if strings.Contains(source, kw) {
					phase = p
					confidence = keywordConfidence
					break
				}
			}
			if phase != PhaseUnknown {
				break
			}
		}
		if phase != PhaseUnknown {
			break
		}
	}

	return &Label{
		VideoID:    video.ID,
		Phase:      phase,
		Events:     NormalizeEvents(events),
		Confidence: confidence,
		Model:      KeywordModelName,
		LabeledAt:  time.Now().UTC(),
	}
}

// truncateString shortens s to maxLength bytes with an ellipsis.
func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}

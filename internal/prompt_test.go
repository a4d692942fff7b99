package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePromptFromString(t *testing.T) {
	pm := NewPromptManager("", "Video: {{.Title}} ({{.Published}})\nPhases: {{.PhaseList}}\n{{.Transcript}}")

	video := &VideoRecord{
		ID:          "dQw4w9WgXcQ",
		Title:       "Deload week",
		PublishedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	prompt, err := pm.CreatePrompt(video, "light movement only")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Video: Deload week (2024-03-01)")
	assert.Contains(t, prompt, "Phases: base, build, peak, deload")
	assert.Contains(t, prompt, "light movement only")
}

func TestCreatePromptFromFile(t *testing.T) {
	dir := t.TempDir()
	promptFile := filepath.Join(dir, "custom.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("Label: {{.Title}}"), 0644))

	pm := NewPromptManager(dir, promptFile)
	prompt, err := pm.CreatePrompt(&VideoRecord{Title: "Yoke day"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Label: Yoke day", prompt)
}

func TestCreatePromptDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureDefaultPrompt(dir))

	pm := NewPromptManager(dir, "")
	prompt, err := pm.CreatePrompt(&VideoRecord{Title: "Stone loading practice"}, "atlas stones over bar")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Stone loading practice")
	assert.Contains(t, prompt, "atlas stones over bar")
}

func TestCreatePromptTruncatesDescription(t *testing.T) {
	longDescription := make([]byte, 2000)
	for i := range longDescription {
		longDescription[i] = 'x'
	}

	pm := NewPromptManager("", "{{.Description}}")
	prompt, err := pm.CreatePrompt(&VideoRecord{Description: string(longDescription)}, "")
	require.NoError(t, err)
	assert.Len(t, prompt, 1003) // 1000 chars plus ellipsis
}

func TestIsLikelyFilePath(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"./prompts/strict.txt", true},
		{"prompt.txt", true},
		{"C:\\prompts\\label.tmpl", true},
		{"Label this video with a phase", false},
		{"single-word", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLikelyFilePath(tt.input), "input %q", tt.input)
	}
}

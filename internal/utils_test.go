package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidVideoID(t *testing.T) {
	assert.True(t, IsValidVideoID("dQw4w9WgXcQ"))
	assert.True(t, IsValidVideoID("a_b-c_d-e_f"))
	assert.False(t, IsValidVideoID("tooshort"))
	assert.False(t, IsValidVideoID("waytoolongforavideoid"))
	assert.False(t, IsValidVideoID("bad!chars&&"))
}

func TestIsValidChannelID(t *testing.T) {
	assert.True(t, IsValidChannelID("UCa67yjHFkanhRnCfOHfdBIw"))
	assert.False(t, IsValidChannelID("a67yjHFkanhRnCfOHfdBIw"))
	assert.False(t, IsValidChannelID("UCshort"))
}

func TestParseChannelArg(t *testing.T) {
	tests := []struct {
		name      string
		arg       string
		wantID    string
		wantQuery string
	}{
		{
			name:   "raw channel id",
			arg:    "UCa67yjHFkanhRnCfOHfdBIw",
			wantID: "UCa67yjHFkanhRnCfOHfdBIw",
		},
		{
			name:      "handle",
			arg:       "@HattonStrength",
			wantQuery: "@HattonStrength",
		},
		{
			name:   "channel url",
			arg:    "https://www.youtube.com/channel/UCa67yjHFkanhRnCfOHfdBIw",
			wantID: "UCa67yjHFkanhRnCfOHfdBIw",
		},
		{
			name:      "handle url",
			arg:       "https://www.youtube.com/@HattonStrength",
			wantQuery: "@HattonStrength",
		},
		{
			name:      "handle url with subpage",
			arg:       "https://youtube.com/@HattonStrength/videos",
			wantQuery: "@HattonStrength",
		},
		{
			name:      "free text",
			arg:       "Lucas Hatton strongman",
			wantQuery: "Lucas Hatton strongman",
		},
		{
			name:      "whitespace trimmed",
			arg:       "  @HattonStrength  ",
			wantQuery: "@HattonStrength",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, query := ParseChannelArg(tt.arg)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}

func TestValidateModel(t *testing.T) {
	assert.NoError(t, ValidateModel("openai", "gpt-4o-mini"))
	assert.NoError(t, ValidateModel("openai", "gpt-4o"))
	assert.Error(t, ValidateModel("openai", "gpt-3.5-turbo"))
	assert.Error(t, ValidateModel("openai", ""))

	assert.NoError(t, ValidateModel("gemini", "gemini-2.0-flash"))
	assert.Error(t, ValidateModel("gemini", ""))
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/nonexistent/path/file.txt"))

	dir := t.TempDir()
	assert.True(t, FileExists(dir))
}

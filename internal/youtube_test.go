package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		want     int
	}{
		{"seconds only", "PT45S", 45},
		{"minutes and seconds", "PT12M34S", 754},
		{"hours minutes seconds", "PT1H2M3S", 3723},
		{"hours only", "PT2H", 7200},
		{"minutes only", "PT30M", 1800},
		{"zero seconds", "PT0S", 0},
		{"empty", "", 0},
		{"malformed", "1:02:03", 0},
		{"days not supported", "P1DT2H", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseISODuration(tt.duration))
		})
	}
}

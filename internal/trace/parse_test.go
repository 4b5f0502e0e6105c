package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"midnight", "12:00:00 AM", 0},
		{"just after midnight", "12:00:05 AM", 5000},
		{"morning", "8:00:05 AM", (8*3600 + 5) * 1000},
		{"leading zero without space", "08:00:00AM", 8 * 3600 * 1000},
		{"noon", "12:00:00 PM", 12 * 3600 * 1000},
		{"afternoon", "1:30:15 PM", (13*3600 + 30*60 + 15) * 1000},
		{"last second", "11:59:59 PM", (23*3600 + 59*60 + 59) * 1000},
		{"lowercase marker", "3:04:05 pm", (15*3600 + 4*60 + 5) * 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseClockRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "08:00:00", "13:00:00 PM", "8:61:00 AM", "noon"} {
		_, err := ParseClock(input)
		assert.ErrorIs(t, err, ErrMalformedFix, "input %q", input)
	}
}

func TestParseFix(t *testing.T) {
	fix, err := ParseFix("1/2/2012,8:00:05 AM,47.6012, -122.3301,27")
	require.NoError(t, err)
	assert.Equal(t, int64((8*3600+5)*1000), fix.Time)
	assert.Equal(t, 47.6012, fix.Lat)
	assert.Equal(t, -122.3301, fix.Lon)
}

func TestParseFixRejectsMalformed(t *testing.T) {
	for _, line := range []string{
		"1/2/2012,8:00:05 AM,47.6",
		"1/2/2012,8:00:05 AM,north,-122.33",
		"1/2/2012,8:00:05 AM,47.6,west",
		"1/2/2012,later,47.6,-122.33",
	} {
		_, err := ParseFix(line)
		assert.ErrorIs(t, err, ErrMalformedFix, "line %q", line)
	}
}

package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elasticpathing/traceprep/internal/models"
)

// ErrMalformedFix is returned for data lines that do not follow the raw
// trace format.
var ErrMalformedFix = errors.New("malformed fix")

// Raw trace columns. Column 0 holds the date and is not used.
const (
	colTime = 1
	colLat  = 2
	colLon  = 3
)

// ParseFix parses one comma-separated data line into a fix.
func ParseFix(line string) (models.RawFix, error) {
	fields := strings.Split(line, ",")
	if len(fields) <= colLon {
		return models.RawFix{}, fmt.Errorf("%w: expected at least %d columns, got %d", ErrMalformedFix, colLon+1, len(fields))
	}

	ms, err := ParseClock(fields[colTime])
	if err != nil {
		return models.RawFix{}, err
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[colLat]), 64)
	if err != nil {
		return models.RawFix{}, fmt.Errorf("%w: latitude %q", ErrMalformedFix, fields[colLat])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[colLon]), 64)
	if err != nil {
		return models.RawFix{}, fmt.Errorf("%w: longitude %q", ErrMalformedFix, fields[colLon])
	}

	return models.RawFix{Time: ms, Lat: lat, Lon: lon}, nil
}

// ParseClock converts a 12-hour wall-clock time such as "8:00:05 PM" or
// "08:00:05AM" into milliseconds since midnight. 12 AM is hour 0 and PM hours
// other than 12 are shifted by 12.
func ParseClock(s string) (int64, error) {
	v := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	t, err := time.Parse("3:04:05PM", v)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q", ErrMalformedFix, s)
	}

	h, m, sec := t.Clock()
	return int64(h)*3600*1000 + int64(m)*60*1000 + int64(sec)*1000, nil
}

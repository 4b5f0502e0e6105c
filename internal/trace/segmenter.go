package trace

import (
	"github.com/elasticpathing/traceprep/internal/models"
	"github.com/elasticpathing/traceprep/internal/spatial"
)

// Defaults for the Seattle trace logs.
const (
	DefaultSampleInterval = int64(5000) // ms between raw fixes
	DefaultOutputStep     = int64(1000) // ms between interpolated samples
	DefaultMinStoreLines  = 40
)

// Decision tells the caller what to do with the current store after a fix.
type Decision int

const (
	// Continue keeps writing into the current store.
	Continue Decision = iota
	// StartNew closes the current store and opens the next one.
	StartNew
	// Reuse closes the current store and reopens it empty, discarding a
	// fragment too short to keep.
	Reuse
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case StartNew:
		return "start_new"
	case Reuse:
		return "reuse"
	}
	return "unknown"
}

// Step is the outcome of pushing one fix.
type Step struct {
	Decision Decision
	Samples  []models.TraceSample
}

// SegmenterOptions configures a Segmenter. Zero values take the defaults.
type SegmenterOptions struct {
	SampleInterval int64
	OutputStep     int64
	MinStoreLines  int
}

// Segmenter splits a stream of raw fixes at time gaps and interpolates each
// contiguous span to the output step.
type Segmenter struct {
	interval int64
	step     int64
	minLines int

	prev      models.RawFix
	hasPrev   bool
	prevSpeed float64
	seeded    bool
	lines     int // raw lines in the current store
}

// NewSegmenter creates a segmenter
func NewSegmenter(opts SegmenterOptions) *Segmenter {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	if opts.OutputStep <= 0 {
		opts.OutputStep = DefaultOutputStep
	}
	if opts.MinStoreLines <= 0 {
		opts.MinStoreLines = DefaultMinStoreLines
	}
	return &Segmenter{
		interval: opts.SampleInterval,
		step:     opts.OutputStep,
		minLines: opts.MinStoreLines,
	}
}

// Lines returns the number of raw lines in the current store.
func (s *Segmenter) Lines() int {
	return s.lines
}

// Push consumes the next fix in file order.
func (s *Segmenter) Push(fix models.RawFix) Step {
	if !s.hasPrev {
		s.prev, s.hasPrev = fix, true
		s.lines = 1
		return Step{Decision: Continue}
	}

	if fix.Time != s.prev.Time+s.interval {
		decision := Reuse
		if s.lines > s.minLines {
			decision = StartNew
		}
		s.prev = fix
		s.lines = 1
		s.seeded = false
		return Step{Decision: decision}
	}

	samples := s.interpolate(s.prev, fix)
	s.prev = fix
	s.lines++
	return Step{Decision: Continue, Samples: samples}
}

// interpolate emits one sample per output step in (prev.Time, cur.Time].
// Speed is the average over the span, blended from the previous span's speed.
func (s *Segmenter) interpolate(prev, cur models.RawFix) []models.TraceSample {
	seconds := float64(s.interval) / 1000
	speed := spatial.HaversineMiles(prev.Lat, prev.Lon, cur.Lat, cur.Lon) / seconds * 3600
	if !s.seeded {
		s.prevSpeed, s.seeded = speed, true
	}

	n := int(s.interval / s.step)
	samples := make([]models.TraceSample, 0, n)
	for k := 1; k <= n; k++ {
		samples = append(samples, models.TraceSample{
			Time:  prev.Time + int64(k)*s.step,
			Lat:   spatial.Lerp(prev.Lat, cur.Lat, k, n),
			Lon:   spatial.Lerp(prev.Lon, cur.Lon, k, n),
			Speed: spatial.Lerp(s.prevSpeed, speed, k, n),
		})
	}

	s.prevSpeed = speed
	return samples
}

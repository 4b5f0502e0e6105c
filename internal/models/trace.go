package models

// RawFix is one positional reading from a raw trace log.
type RawFix struct {
	Time int64   // milliseconds since midnight
	Lat  float64 // degrees
	Lon  float64 // degrees
}

// TraceSample is one interpolated 1-second sample of a trace store.
// Time is in milliseconds since midnight, Speed in miles per hour.
type TraceSample struct {
	Time  int64
	Lat   float64
	Lon   float64
	Speed float64
}

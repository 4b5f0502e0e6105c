package spatial

import "math"

// Box is an axis-aligned latitude/longitude rectangle in degrees.
type Box struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// BoxAround returns the box extending radius degrees on each side of (lat, lon).
func BoxAround(lat, lon, radius float64) Box {
	return Box{
		MinLat: lat - radius,
		MinLon: lon - radius,
		MaxLat: lat + radius,
		MaxLon: lon + radius,
	}
}

// Contains reports whether (lat, lon) lies inside the box, edges included.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Extend returns the smallest box holding b and (lat, lon).
func (b Box) Extend(lat, lon float64) Box {
	b.MinLat = math.Min(b.MinLat, lat)
	b.MaxLat = math.Max(b.MaxLat, lat)
	b.MinLon = math.Min(b.MinLon, lon)
	b.MaxLon = math.Max(b.MaxLon, lon)
	return b
}

// Lerp interpolates linearly from a to b at step k of n. The final step
// returns b exactly.
func Lerp(a, b float64, k, n int) float64 {
	if k >= n {
		return b
	}
	return a + (b-a)*float64(k)/float64(n)
}

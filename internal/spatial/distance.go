package spatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMiles is Earth's mean radius in miles.
const EarthRadiusMiles = 3959.0

// DistanceFunc computes the great-circle distance in miles between two points
// given in degrees.
type DistanceFunc func(lat1, lon1, lat2, lon2 float64) float64

// HaversineMiles calculates the great-circle distance between two points in miles.
// s2.LatLng.Distance uses the haversine form, which stays accurate for points
// a few meters apart.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMiles
}

// LawOfCosinesMiles calculates the great-circle distance in miles with the
// spherical law of cosines. It loses precision below a few meters; the node
// matching threshold of 0.01 miles was calibrated against it.
func LawOfCosinesMiles(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)

	lat1Rad, lat2Rad := p1.Lat.Radians(), p2.Lat.Radians()
	lonDiff := p2.Lng.Radians() - p1.Lng.Radians()

	cos := math.Sin(lat1Rad)*math.Sin(lat2Rad) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)
	// floating point drift can push the argument just outside acos's domain
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * EarthRadiusMiles
}

// Formula names a distance implementation.
type Formula string

const (
	FormulaCosines   Formula = "cosines"
	FormulaHaversine Formula = "haversine"
)

// ParseFormula resolves a formula name.
func ParseFormula(name string) (Formula, error) {
	switch Formula(name) {
	case FormulaCosines, FormulaHaversine:
		return Formula(name), nil
	}
	return "", fmt.Errorf("unknown distance formula %q", name)
}

// Func returns the distance function for the formula. Unknown formulas fall
// back to haversine.
func (f Formula) Func() DistanceFunc {
	if f == FormulaCosines {
		return LawOfCosinesMiles
	}
	return HaversineMiles
}

package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used for all distance checks.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a just past 1 for near-antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceKm is HaversineKm for orb points.
func DistanceKm(a, b orb.Point) float64 {
	return HaversineKm(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// ParseLatLon parses decimal-degree strings into a point (lon, lat order).
func ParseLatLon(latStr, lonStr string) (orb.Point, bool) {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err1 != nil || err2 != nil {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

// Valid reports whether p lies within the latitude and longitude ranges.
func Valid(p orb.Point) bool {
	return p.Lat() >= -90 && p.Lat() <= 90 && p.Lon() >= -180 && p.Lon() <= 180
}

// ValidComponent is the lenient single-value check used by the quality report:
// any number in [-180, 180].
func ValidComponent(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && v >= -180 && v <= 180
}

// FormatCoord renders a coordinate the way the exports store it.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

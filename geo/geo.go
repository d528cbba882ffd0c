// Package geo holds time arithmetic and geodesy: HH:MM:SS clock
// conversion, haversine distance, and the spatial-grid cell key used to
// bucket stops for nearest-neighbour queries.
package geo

import (
	"math"

	"meetway.dev/meetway/model"
)

// Grid cell dimensions in degrees, per the feed's equirectangular
// bucketing scheme.
const (
	DLat = 0.004
	DLon = 0.007

	metersPerDegLat = 111320.0
)

// ParseClock parses an "HH:MM:SS" clock value into seconds since service
// midnight. Hours may exceed 24 to encode post-midnight service.
func ParseClock(s string) (int, bool) {
	return model.ParseHMSToSeconds(s)
}

// FormatClockHM renders seconds since midnight, truncated to minutes, as
// "HH:MM".
func FormatClockHM(sec int) string {
	return model.FormatSecondsToHM(sec)
}

// HaversineMeters returns the great-circle distance between two
// lat/lon points in meters.
func HaversineMeters(aLat, aLon, bLat, bLon float64) float64 {
	const earthRadiusM = 6371000.0

	aLatRad := aLat * math.Pi / 180
	aLonRad := aLon * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	bLonRad := bLon * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLon := aLonRad - bLonRad

	a := math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2) + math.Pow(math.Sin(deltaLat/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * earthRadiusM
}

// CellKey is the spatial grid bucket a (lat, lon) pair falls into.
type CellKey struct {
	Lat int
	Lon int
}

// Cell computes the grid cell a point belongs to: floor(lat/DLat),
// floor(lon/DLon).
func Cell(lat, lon float64) CellKey {
	return CellKey{
		Lat: int(math.Floor(lat / DLat)),
		Lon: int(math.Floor(lon / DLon)),
	}
}

// CellRadius returns the half-extent, in cells, of a bounding box around
// a point at the given latitude that fully covers a circle of radiusM
// meters — a flat-earth approximation, good enough as a candidate filter
// since the final haversine check is exact.
func CellRadius(lat, radiusM float64) (latCells, lonCells int) {
	metersPerDegLon := metersPerDegLat * math.Cos(lat*math.Pi/180)
	if metersPerDegLon <= 0 {
		metersPerDegLon = metersPerDegLat
	}

	latCells = int(math.Ceil(radiusM/(metersPerDegLat*DLat))) + 1
	lonCells = int(math.Ceil(radiusM/(metersPerDegLon*DLon))) + 1
	return latCells, lonCells
}

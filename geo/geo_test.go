package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAndFormatClockRoundTrip(t *testing.T) {
	sec, ok := ParseClock("10:30:45")
	assert.True(t, ok)
	assert.Equal(t, 10*3600+30*60+45, sec)
	assert.Equal(t, "10:30", FormatClockHM(sec))
}

func TestParseClockMalformed(t *testing.T) {
	for _, s := range []string{"", "garbage", "10:99:00", "1:2:3"} {
		_, ok := ParseClock(s)
		assert.False(t, ok, s)
	}
}

func TestParseClockAbove24h(t *testing.T) {
	sec, ok := ParseClock("25:00:01")
	assert.True(t, ok)
	assert.Equal(t, 25*3600+1, sec)
}

func TestHaversineMetersZeroDistance(t *testing.T) {
	d := HaversineMeters(52.5, 13.4, 52.5, 13.4)
	assert.InDelta(t, 0, d, 1e-6)
}

func TestHaversineMetersKnownDistance(t *testing.T) {
	// Roughly one degree of latitude, ~111.2 km.
	d := HaversineMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 500)
}

func TestCellBucketing(t *testing.T) {
	a := Cell(52.5003, 13.4003)
	b := Cell(52.5003, 13.4004)
	assert.Equal(t, a, b)

	c := Cell(52.5003+DLat, 13.4003)
	assert.NotEqual(t, a, c)
}

func TestCellRadiusGrowsWithRadius(t *testing.T) {
	latSmall, lonSmall := CellRadius(52.5, 100)
	latBig, lonBig := CellRadius(52.5, 780)
	assert.Less(t, latSmall, latBig)
	assert.Less(t, lonSmall, lonBig)
}

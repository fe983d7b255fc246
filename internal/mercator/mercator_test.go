package mercator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandatlas/footprint/internal/model"
)

func TestProjectKnownPoints(t *testing.T) {
	tests := []struct {
		name  string
		coord model.Coordinate
		zoom  float64
		x, y  float64
	}{
		{name: "origin at zoom 0", coord: model.Coordinate{Lat: 0, Lng: 0}, zoom: 0, x: 128, y: 128},
		{name: "date line west", coord: model.Coordinate{Lat: 0, Lng: -180}, zoom: 0, x: 0, y: 128},
		{name: "origin at zoom 2", coord: model.Coordinate{Lat: 0, Lng: 0}, zoom: 2, x: 512, y: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(tt.coord, tt.zoom)
			assert.InDelta(t, tt.x, p.X, 1e-6)
			assert.InDelta(t, tt.y, p.Y, 1e-6)
		})
	}
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	coords := []model.Coordinate{
		{Lat: 23.1291, Lng: 113.2644},
		{Lat: 39.9042, Lng: 116.4074},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0, Lng: 0},
	}
	for _, c := range coords {
		for _, zoom := range []float64{0, 4, 11, 18} {
			got := Unproject(Project(c, zoom), zoom)
			assert.InDelta(t, c.Lat, got.Lat, 1e-6)
			assert.InDelta(t, c.Lng, got.Lng, 1e-6)
		}
	}
}

func TestProjectClampsPolarLatitude(t *testing.T) {
	p := Project(model.Coordinate{Lat: 89.9, Lng: 0}, 0)
	assert.True(t, p.Y >= 0, "clamped projection stays inside the world")
}

func TestShift(t *testing.T) {
	start := model.Coordinate{Lat: 39.9042, Lng: 116.4074}

	south := Shift(start, 0, 100, 10)
	assert.Less(t, south.Lat, start.Lat)
	assert.InDelta(t, start.Lng, south.Lng, 1e-9)

	east := Shift(start, 100, 0, 10)
	assert.Greater(t, east.Lng, start.Lng)

	// Shifting back restores the original point.
	back := Shift(south, 0, -100, 10)
	assert.InDelta(t, start.Lat, back.Lat, 1e-6)
}

func TestBoundsOf(t *testing.T) {
	_, ok := BoundsOf(nil)
	assert.False(t, ok)

	b, ok := BoundsOf([]model.Coordinate{
		{Lat: 23.1, Lng: 113.3},
		{Lat: 39.9, Lng: 116.4},
	})
	require.True(t, ok)
	assert.InDelta(t, 113.3, b.Min(0), 1e-9)
	assert.InDelta(t, 23.1, b.Min(1), 1e-9)
	assert.InDelta(t, 116.4, b.Max(0), 1e-9)
	assert.InDelta(t, 39.9, b.Max(1), 1e-9)
}

func TestFitCamera(t *testing.T) {
	b, ok := BoundsOf([]model.Coordinate{
		{Lat: 20.0, Lng: 110.0},
		{Lat: 25.0, Lng: 117.0},
	})
	require.True(t, ok)

	center, zoom := FitCamera(b, 800, 600, 40)
	require.False(t, math.IsInf(zoom, 1))

	// Center sits inside the box.
	assert.Greater(t, center.Lat, 20.0)
	assert.Less(t, center.Lat, 25.0)
	assert.Greater(t, center.Lng, 110.0)
	assert.Less(t, center.Lng, 117.0)

	// At the returned zoom the box fits within the padded viewport.
	nw := Project(model.Coordinate{Lat: 25.0, Lng: 110.0}, zoom)
	se := Project(model.Coordinate{Lat: 20.0, Lng: 117.0}, zoom)
	assert.LessOrEqual(t, se.X-nw.X, 800.0-2*40+1e-6)
	assert.LessOrEqual(t, se.Y-nw.Y, 600.0-2*40+1e-6)

	// A single point cannot determine a zoom; the caller clamps.
	pb, ok := BoundsOf([]model.Coordinate{{Lat: 23.0, Lng: 113.0}})
	require.True(t, ok)
	pc, pz := FitCamera(pb, 800, 600, 40)
	assert.True(t, math.IsInf(pz, 1))
	assert.InDelta(t, 23.0, pc.Lat, 1e-6)
	assert.InDelta(t, 113.0, pc.Lng, 1e-6)
}

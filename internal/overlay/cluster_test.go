package overlay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandatlas/footprint/internal/mercator"
	"github.com/brandatlas/footprint/internal/model"
)

// cellInteriorPoint returns a coordinate whose projection at the given zoom
// lands well inside a grid cell, so small pixel offsets stay in the cell.
func cellInteriorPoint(t *testing.T, zoom, cellPx float64) model.Coordinate {
	t.Helper()
	base := mercator.Project(model.Coordinate{Lat: 31.23, Lng: 121.47}, zoom)
	aligned := mercator.Pixel{
		X: math.Floor(base.X/cellPx)*cellPx + cellPx/2,
		Y: math.Floor(base.Y/cellPx)*cellPx + cellPx/2,
	}
	return mercator.Unproject(aligned, zoom)
}

func TestGridCellsGroupsNearbyPoints(t *testing.T) {
	const zoom, cellPx = 9.0, 60.0
	a := cellInteriorPoint(t, zoom, cellPx)
	b := mercator.Shift(a, 5, 0, zoom)

	cells := GridCells([]Point{
		{ID: "s1", At: a},
		{ID: "s2", At: b},
	}, zoom, cellPx)

	require.Len(t, cells, 1)
	assert.Len(t, cells[0].Members, 2)

	// The cell position is the projected midpoint of the members.
	got := mercator.Project(cells[0].At, zoom)
	pa := mercator.Project(a, zoom)
	pb := mercator.Project(b, zoom)
	assert.InDelta(t, (pa.X+pb.X)/2, got.X, 0.5)
	assert.InDelta(t, (pa.Y+pb.Y)/2, got.Y, 0.5)
}

func TestGridCellsSeparatesDistantPoints(t *testing.T) {
	const zoom, cellPx = 9.0, 60.0
	a := cellInteriorPoint(t, zoom, cellPx)
	far := mercator.Shift(a, 10*cellPx, 0, zoom)

	cells := GridCells([]Point{
		{ID: "s1", At: a},
		{ID: "s2", At: far},
	}, zoom, cellPx)

	require.Len(t, cells, 2)
	assert.Len(t, cells[0].Members, 1)
	assert.Len(t, cells[1].Members, 1)
}

func TestGridCellsDeterministicOrder(t *testing.T) {
	points := []Point{
		{ID: "a", At: model.Coordinate{Lat: 23.1, Lng: 113.3}},
		{ID: "b", At: model.Coordinate{Lat: 31.2, Lng: 121.5}},
		{ID: "c", At: model.Coordinate{Lat: 39.9, Lng: 116.4}},
	}
	first := GridCells(points, 5, 60)
	second := GridCells(points, 5, 60)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
	}
}

func TestClusterDiameter(t *testing.T) {
	opts := DefaultClusterOptions()

	tests := []struct {
		name  string
		count int
		want  float64
	}{
		{name: "floor at one member", count: 1, want: 36},
		{name: "pair", count: 2, want: 46},
		{name: "eight members", count: 8, want: 66},
		{name: "clamped at ceiling", count: 1000, want: 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, opts.Diameter(tt.count), 0.01)
		})
	}

	// Monotonic in count up to the clamp.
	prev := 0.0
	for n := 1; n <= 64; n *= 2 {
		d := opts.Diameter(n)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestClusterActiveThreshold(t *testing.T) {
	opts := DefaultClusterOptions()
	assert.True(t, opts.Active(opts.MaxZoom-0.5))
	assert.False(t, opts.Active(opts.MaxZoom))
	assert.False(t, opts.Active(opts.MaxZoom+3))
}

package overlay

import (
	"fmt"
	"math"
	"sort"

	"github.com/brandatlas/footprint/internal/mercator"
	"github.com/brandatlas/footprint/internal/model"
)

// ClusterOptions tune the grid clusterer. Clustering applies strictly below
// MaxZoom; at or above it every point renders individually.
type ClusterOptions struct {
	MaxZoom       float64
	CellSizePx    float64
	MinDiameterPx float64
	MaxDiameterPx float64
}

// DefaultClusterOptions returns the stock tuning: cluster up to street
// level, 60 px cells, badge diameters between 36 and 72 px.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		MaxZoom:       11,
		CellSizePx:    60,
		MinDiameterPx: 36,
		MaxDiameterPx: 72,
	}
}

// Active reports whether clustering applies at the given zoom.
func (o ClusterOptions) Active(zoom float64) bool {
	return zoom < o.MaxZoom
}

// Diameter returns the badge diameter for a cluster of the given size,
// growing with the logarithm of the member count and clamped to the
// configured range. Monotonic in count.
func (o ClusterOptions) Diameter(count int) float64 {
	if count < 1 {
		count = 1
	}
	d := o.MinDiameterPx + 10*math.Log2(float64(count))
	if d < o.MinDiameterPx {
		d = o.MinDiameterPx
	}
	if d > o.MaxDiameterPx {
		d = o.MaxDiameterPx
	}
	return d
}

// Point is one clusterable input position.
type Point struct {
	ID string
	At model.Coordinate
}

// Cell is one occupied grid cell: its members and their mean position.
type Cell struct {
	Key     string
	At      model.Coordinate
	Members []Point
}

// GridCells buckets points into fixed pixel cells at the given zoom and
// returns the occupied cells sorted by key. The cell key embeds the integer
// zoom so ids stay distinct across zoom levels, and the cell position is
// the mean of the members in projected space, which keeps the badge over
// the visual middle of the group rather than the cell corner.
func GridCells(points []Point, zoom float64, cellSizePx float64) []Cell {
	if cellSizePx <= 0 {
		cellSizePx = DefaultClusterOptions().CellSizePx
	}
	buckets := make(map[string][]Point)
	for _, p := range points {
		px := mercator.Project(p.At, zoom)
		cx := int(math.Floor(px.X / cellSizePx))
		cy := int(math.Floor(px.Y / cellSizePx))
		key := fmt.Sprintf("c%d_%d_%d", int(zoom), cx, cy)
		buckets[key] = append(buckets[key], p)
	}

	cells := make([]Cell, 0, len(buckets))
	for key, members := range buckets {
		var sx, sy float64
		for _, p := range members {
			px := mercator.Project(p.At, zoom)
			sx += px.X
			sy += px.Y
		}
		n := float64(len(members))
		at := mercator.Unproject(mercator.Pixel{X: sx / n, Y: sy / n}, zoom)
		cells = append(cells, Cell{Key: key, At: at, Members: members})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Key < cells[j].Key })
	return cells
}

// Package mercator implements the Web Mercator projection math shared by
// the marker clusterer, the viewport controller, and the headless map
// surface. All pixel values are in world pixel space: a 256px square world
// at zoom 0, doubling per zoom level.
package mercator

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/brandatlas/footprint/internal/model"
)

// TileSize is the pixel width of the zoom-0 world.
const TileSize = 256.0

// Latitudes beyond the Mercator singularity are clamped.
const maxLatitude = 85.05112878

// Pixel is a point in world pixel space at some zoom.
type Pixel struct {
	X float64
	Y float64
}

func worldSize(zoom float64) float64 {
	return TileSize * math.Exp2(zoom)
}

// Project converts a WGS84 coordinate to world pixel space at the zoom.
func Project(c model.Coordinate, zoom float64) Pixel {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, c.Lat))
	size := worldSize(zoom)

	x := (c.Lng + 180) / 360
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi

	return Pixel{X: x * size, Y: y * size}
}

// Unproject converts world pixel space at the zoom back to WGS84.
func Unproject(p Pixel, zoom float64) model.Coordinate {
	size := worldSize(zoom)
	x := p.X/size - 0.5
	y := 0.5 - p.Y/size

	lat := 90 - 360*math.Atan(math.Exp(-y*2*math.Pi))/math.Pi
	lng := 360 * x

	return model.Coordinate{Lat: lat, Lng: lng}
}

// Shift moves a coordinate by a pixel delta at the given zoom. Positive dy
// moves south in screen terms.
func Shift(c model.Coordinate, dx, dy, zoom float64) model.Coordinate {
	p := Project(c, zoom)
	return Unproject(Pixel{X: p.X + dx, Y: p.Y + dy}, zoom)
}

// BoundsOf accumulates a geographic bounding box over located points.
// The second return is false when no points were supplied.
func BoundsOf(points []model.Coordinate) (*geom.Bounds, bool) {
	if len(points) == 0 {
		return nil, false
	}
	flat := make([]float64, 0, len(points)*2)
	for _, c := range points {
		flat = append(flat, c.Lng, c.Lat)
	}
	// Bounds.ExtendFlatCoords is not exported before go-geom v1.6; Extend on
	// an XY multipoint reaches the same accumulation.
	b := geom.NewBounds(geom.XY)
	b.Extend(geom.NewMultiPointFlat(geom.XY, flat))
	return b, true
}

// FitCamera returns the center and largest zoom at which bounds fits inside
// a width×height pixel viewport with padding pixels on every side. The zoom
// is unclamped; callers apply their own level-appropriate maximum. A
// degenerate (single point) bounds yields +Inf zoom for the same reason.
func FitCamera(b *geom.Bounds, width, height, padding float64) (model.Coordinate, float64) {
	nw := Project(model.Coordinate{Lat: b.Max(1), Lng: b.Min(0)}, 0)
	se := Project(model.Coordinate{Lat: b.Min(1), Lng: b.Max(0)}, 0)

	center := Unproject(Pixel{X: (nw.X + se.X) / 2, Y: (nw.Y + se.Y) / 2}, 0)

	availW := width - 2*padding
	availH := height - 2*padding
	if availW <= 0 || availH <= 0 {
		return center, 0
	}

	zoom := math.Inf(1)
	if dx := se.X - nw.X; dx > 0 {
		zoom = math.Min(zoom, math.Log2(availW/dx))
	}
	if dy := se.Y - nw.Y; dy > 0 {
		zoom = math.Min(zoom, math.Log2(availH/dy))
	}
	if zoom < 0 {
		zoom = 0
	}
	return center, zoom
}

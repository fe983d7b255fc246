package boundary

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/model"
)

// Attribute column names in mirrored boundary shapefiles. DBF limits field
// names to ten characters, hence the abbreviations.
const (
	fieldName      = "name"
	fieldAdcode    = "adcode"
	fieldCenterLng = "cnt_lng"
	fieldCenterLat = "cnt_lat"
)

// ShapefileSource reads boundary shapes from a directory of mirrored
// shapefiles, one `<adcode>.shp` per region holding that region's children.
// It serves as the offline fallback behind the HTTP source.
type ShapefileSource struct {
	dir string
}

// NewShapefileSource creates a source over the given directory.
func NewShapefileSource(dir string) *ShapefileSource {
	return &ShapefileSource{dir: dir}
}

// FetchBoundaries implements Source.
func (s *ShapefileSource) FetchBoundaries(ctx context.Context, adcode string) ([]Shape, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "boundary: shapefile fetch")
	}

	path := filepath.Join(s.dir, adcode+".shp")
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "boundary: no mirrored shapefile for %s", adcode)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map. DBF pads names with NULs.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	nameIdx, ok := fieldIdx[fieldName]
	if !ok {
		return nil, eris.Errorf("boundary: shapefile %s has no %s field", path, fieldName)
	}
	codeIdx, ok := fieldIdx[fieldAdcode]
	if !ok {
		return nil, eris.Errorf("boundary: shapefile %s has no %s field", path, fieldAdcode)
	}
	lngIdx, hasLng := fieldIdx[fieldCenterLng]
	latIdx, hasLat := fieldIdx[fieldCenterLat]

	log := zap.L().With(zap.String("component", "boundary.shapefile"))

	var shapes []Shape
	for reader.Next() {
		row, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			log.Debug("skipping non-polygon row", zap.Int("row", row))
			continue
		}

		mp := shpPolygonToMultiPolygon(poly)
		if mp == nil {
			log.Debug("skipping degenerate polygon row", zap.Int("row", row))
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		code := strings.TrimSpace(strings.TrimRight(reader.Attribute(codeIdx), "\x00"))
		if name == "" || code == "" {
			log.Debug("skipping unnamed row", zap.Int("row", row))
			continue
		}

		sh := Shape{Name: name, Adcode: code, Geometry: mp}
		if hasLng && hasLat {
			lng, lngErr := strconv.ParseFloat(strings.TrimSpace(reader.Attribute(lngIdx)), 64)
			lat, latErr := strconv.ParseFloat(strings.TrimSpace(reader.Attribute(latIdx)), 64)
			if lngErr == nil && latErr == nil {
				sh.Center = model.Coordinate{Lat: lat, Lng: lng}
			}
		}
		if sh.Center == (model.Coordinate{}) {
			b := mp.Bounds()
			sh.Center = model.Coordinate{
				Lat: (b.Min(1) + b.Max(1)) / 2,
				Lng: (b.Min(0) + b.Max(0)) / 2,
			}
		}

		shapes = append(shapes, sh)
	}
	if len(shapes) == 0 {
		return nil, eris.Errorf("boundary: shapefile %s holds no usable shapes", path)
	}
	return shapes, nil
}

// shpPolygonToMultiPolygon converts a shapefile polygon, treating each part
// as a separate single-ring polygon. Returns nil when nothing usable
// remains.
func shpPolygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

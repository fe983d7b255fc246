// Package boundary loads, parses, and caches the administrative boundary
// polygons behind the choropleth layers. Boundary geometry is immutable
// reference data: fetched at most once per region code and retained for the
// life of the process.
package boundary

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/model"
)

// Shape is one named administrative region's boundary geometry. Never
// mutated after insertion into the cache.
type Shape struct {
	Name     string
	Adcode   string
	Center   model.Coordinate
	Geometry *geom.MultiPolygon
}

// Bounds returns the shape's geographic bounding box.
func (s Shape) Bounds() *geom.Bounds {
	return s.Geometry.Bounds()
}

// featureCollection mirrors the subset of the upstream payload we consume.
// The adcode arrives as a number from some mirrors and a string from others.
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Properties struct {
		Adcode json.Number `json:"adcode"`
		Name   string      `json:"name"`
		Center []float64   `json:"center"`
	} `json:"properties"`
	Geometry json.RawMessage `json:"geometry"`
}

// ParseFeatureCollection decodes a boundary feature collection. Degenerate
// features (missing name, missing code, unusable geometry) are dropped with
// a debug log rather than failing the whole payload; the caller decides
// whether an empty result constitutes a failure.
func ParseFeatureCollection(data []byte) ([]Shape, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "boundary: parse feature collection")
	}

	log := zap.L().With(zap.String("component", "boundary.parse"))

	shapes := make([]Shape, 0, len(fc.Features))
	for i, f := range fc.Features {
		name := strings.TrimSpace(f.Properties.Name)
		adcode := f.Properties.Adcode.String()
		if name == "" || adcode == "" || adcode == "0" {
			log.Debug("dropping unnamed feature", zap.Int("index", i))
			continue
		}

		mp, err := decodeMultiPolygon(f.Geometry)
		if err != nil {
			log.Debug("dropping feature with unusable geometry",
				zap.String("name", name), zap.Error(err))
			continue
		}

		shapes = append(shapes, Shape{
			Name:     name,
			Adcode:   adcode,
			Center:   featureCenter(f.Properties.Center, mp),
			Geometry: mp,
		})
	}
	return shapes, nil
}

// decodeMultiPolygon unmarshals a GeoJSON geometry and normalizes it to a
// multi-polygon. Polygons are wrapped; everything else is rejected.
func decodeMultiPolygon(raw json.RawMessage) (*geom.MultiPolygon, error) {
	if len(raw) == 0 {
		return nil, eris.New("boundary: missing geometry")
	}

	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(err, "boundary: decode geometry")
	}

	var mp *geom.MultiPolygon
	switch t := g.(type) {
	case *geom.MultiPolygon:
		mp = t
	case *geom.Polygon:
		mp = geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(t); err != nil {
			return nil, eris.Wrap(err, "boundary: wrap polygon")
		}
	default:
		return nil, eris.Errorf("boundary: unsupported geometry type %T", g)
	}

	if mp.NumPolygons() == 0 {
		return nil, eris.New("boundary: zero rings")
	}
	return mp, nil
}

// featureCenter prefers the upstream center property and falls back to the
// middle of the geometry's bounding box.
func featureCenter(center []float64, mp *geom.MultiPolygon) model.Coordinate {
	if len(center) == 2 {
		return model.Coordinate{Lat: center[1], Lng: center[0]}
	}
	b := mp.Bounds()
	return model.Coordinate{
		Lat: (b.Min(1) + b.Max(1)) / 2,
		Lng: (b.Min(0) + b.Max(0)) / 2,
	}
}

// MarshalFeatureCollection encodes shapes back into the upstream feature
// collection form, so a resolved layer can be served to clients that speak
// plain GeoJSON.
func MarshalFeatureCollection(shapes []Shape) ([]byte, error) {
	type outFeature struct {
		Type       string          `json:"type"`
		Properties map[string]any  `json:"properties"`
		Geometry   json.RawMessage `json:"geometry"`
	}
	out := struct {
		Type     string       `json:"type"`
		Features []outFeature `json:"features"`
	}{Type: "FeatureCollection"}

	for _, s := range shapes {
		raw, err := geojson.Marshal(s.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: encode geometry %s", s.Adcode)
		}
		out.Features = append(out.Features, outFeature{
			Type: "Feature",
			Properties: map[string]any{
				"name":   s.Name,
				"adcode": s.Adcode,
				"center": []float64{s.Center.Lng, s.Center.Lat},
			},
			Geometry: raw,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: encode feature collection")
	}
	return data, nil
}

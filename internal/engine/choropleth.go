package engine

import (
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/aggregate"
	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/drill"
	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/model"
	"github.com/brandatlas/footprint/internal/overlay"
)

const (
	regionPolygonPrefix = "region:"
	regionStroke        = "#FFFFFF"
	regionFillOpacity   = 0.55
	neutralFill         = "#E5E7EB"
	neutralFillOpacity  = 0.25
)

// syncChoropleth redraws the region layer for the current stage. Fills blend
// between the rival and focal brand colors by focal share; regions with no
// presence stay neutral. Only boundaries already in the cache are drawn, so
// rendering never blocks on the network.
func (e *Engine) syncChoropleth(surface mapkit.Surface, state drill.State) {
	shapes := e.stageShapes(state)
	level := model.LevelProvince
	if state.Stage != drill.StageOverview {
		level = model.LevelCity
	}
	stats := aggregate.ByRegion(e.visibleStores, level, e.brands)

	names := make(map[string]string, len(shapes))
	for _, s := range shapes {
		if s.Geometry == nil || s.Adcode == "" {
			continue
		}
		id := regionPolygonPrefix + s.Adcode
		fill, opacity := e.regionFill(stats[shapeKey(state, level, s)])
		err := surface.AddPolygon(mapkit.Polygon{
			ID:          id,
			Geometry:    s.Geometry,
			FillColor:   fill,
			FillOpacity: opacity,
			StrokeColor: regionStroke,
		})
		if err != nil {
			zap.L().Warn("engine: polygon add", zap.String("region", s.Name), zap.Error(err))
			continue
		}
		names[id] = s.Name
	}
	for id := range e.polygons {
		if _, ok := names[id]; !ok {
			if err := surface.RemovePolygon(id); err != nil {
				zap.L().Debug("engine: polygon remove", zap.String("id", id), zap.Error(err))
			}
		}
	}
	e.polygons = names
}

// stageShapes returns the cached boundary layer for the current stage:
// provinces at overview, a province's cities once drilled in, and the city
// outline at the bottom. A layer that is not cached yet draws nothing.
func (e *Engine) stageShapes(state drill.State) []boundary.Shape {
	code := drill.RootCode
	switch state.Stage {
	case drill.StageProvince:
		code = state.ProvinceCode
	case drill.StageCity:
		code = state.CityCode
	}
	if code == "" {
		return nil
	}
	shapes, ok := e.boundaries.Peek(code)
	if !ok {
		return nil
	}
	return shapes
}

// shapeKey maps a boundary shape to its aggregation key. At city stage the
// layer may carry sub-city geometry, so every shape takes the drilled
// city's stats.
func shapeKey(state drill.State, level model.Level, s boundary.Shape) string {
	if level == model.LevelProvince {
		return model.RegionKey(level, s.Name, "")
	}
	if state.Stage == drill.StageCity {
		return model.RegionKey(level, state.Province, state.City)
	}
	return model.RegionKey(level, state.Province, s.Name)
}

func (e *Engine) regionFill(st *aggregate.Stats) (string, float64) {
	if st == nil {
		return neutralFill, neutralFillOpacity
	}
	share, ok := st.FocalShare()
	if !ok {
		return neutralFill, neutralFillOpacity
	}
	return overlay.BlendHex(e.brands.Rival.Color, e.brands.Focal.Color, share), regionFillOpacity
}

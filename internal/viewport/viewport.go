// Package viewport owns camera policy: where the map homes, how far a
// fit-to-region may zoom in at each drill stage, and how a focused record
// is framed so its popup has room on screen.
package viewport

import (
	"math"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/drill"
	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/mercator"
	"github.com/brandatlas/footprint/internal/model"
)

// DefaultHome frames the national overview.
var DefaultHome = mapkit.Camera{
	Center: model.Coordinate{Lat: 35.0, Lng: 105.0},
	Zoom:   4,
}

const (
	defaultFitPaddingPx  = 48
	defaultPopupHeightPx = 180
	defaultMinFocusZoom  = 14
)

// defaultFitZoomLimits caps how far a fit may zoom in per drill stage, so a
// geographically tiny region never drops the user at street level.
var defaultFitZoomLimits = map[drill.Stage]float64{
	drill.StageOverview: 5,
	drill.StageProvince: 9,
	drill.StageCity:     12,
}

// Planner applies camera policy to a surface. All operations are
// fire-and-forget: the surface's camera is the single source of truth and
// the planner holds no positional state beyond the last reset token.
type Planner struct {
	surface       mapkit.Surface
	home          mapkit.Camera
	fitPaddingPx  float64
	popupHeightPx float64
	minFocusZoom  float64
	fitZoomLimits map[drill.Stage]float64

	mu             sync.Mutex
	lastResetToken uint64
}

// Option customizes a Planner.
type Option func(*Planner)

// WithHome overrides the overview camera.
func WithHome(c mapkit.Camera) Option {
	return func(p *Planner) { p.home = c }
}

// WithPopupHeight sets the popup height budgeted above a focused marker.
func WithPopupHeight(px float64) Option {
	return func(p *Planner) { p.popupHeightPx = px }
}

// WithMinFocusZoom sets the zoom floor applied when focusing a record.
func WithMinFocusZoom(zoom float64) Option {
	return func(p *Planner) { p.minFocusZoom = zoom }
}

// WithFitZoomLimit caps fit zoom for one drill stage.
func WithFitZoomLimit(stage drill.Stage, zoom float64) Option {
	return func(p *Planner) { p.fitZoomLimits[stage] = zoom }
}

// NewPlanner creates a Planner driving the given surface.
func NewPlanner(surface mapkit.Surface, opts ...Option) *Planner {
	p := &Planner{
		surface:       surface,
		home:          DefaultHome,
		fitPaddingPx:  defaultFitPaddingPx,
		popupHeightPx: defaultPopupHeightPx,
		minFocusZoom:  defaultMinFocusZoom,
		fitZoomLimits: make(map[drill.Stage]float64, len(defaultFitZoomLimits)),
	}
	for stage, zoom := range defaultFitZoomLimits {
		p.fitZoomLimits[stage] = zoom
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Home moves the camera to the overview frame.
func (p *Planner) Home() error {
	return p.surface.SetCamera(p.home)
}

// Recenter moves the camera without changing zoom.
func (p *Planner) Recenter(at model.Coordinate) error {
	cam := p.surface.Camera()
	cam.Center = at
	return p.surface.SetCamera(cam)
}

// FitShapes frames the union of the given boundary shapes, clamped to the
// stage's zoom cap.
func (p *Planner) FitShapes(shapes []boundary.Shape, stage drill.Stage) error {
	union, ok := unionBounds(shapes)
	if !ok {
		return eris.New("viewport: no geometry to fit")
	}
	return p.fit(union, stage)
}

// FitCoordinates frames a point collection, clamped to the stage's zoom
// cap. Used when a region has no resolvable boundary and the members
// themselves define the frame.
func (p *Planner) FitCoordinates(coords []model.Coordinate, stage drill.Stage) error {
	b, ok := mercator.BoundsOf(coords)
	if !ok {
		return eris.New("viewport: no coordinates to fit")
	}
	return p.fit(b, stage)
}

func (p *Planner) fit(b *geom.Bounds, stage drill.Stage) error {
	width, height := p.surface.Size()
	center, zoom := mercator.FitCamera(b, float64(width), float64(height), p.fitPaddingPx)
	if limit, ok := p.fitZoomLimits[stage]; ok && zoom > limit {
		zoom = limit
	}
	if math.IsInf(zoom, 0) || math.IsNaN(zoom) {
		// A degenerate bounds with no stage cap would otherwise escape to
		// infinity.
		zoom = p.minFocusZoom
	}
	return p.surface.SetCamera(mapkit.Camera{Center: center, Zoom: zoom})
}

// Focus frames a single record for its detail popup. Zoom only ever moves
// in: a user already closer than the focus floor keeps their zoom. The
// center shifts up by half the popup height so marker plus popup sit
// vertically balanced.
func (p *Planner) Focus(at model.Coordinate) error {
	zoom := p.surface.Camera().Zoom
	if zoom < p.minFocusZoom {
		zoom = p.minFocusZoom
	}
	center := mercator.Shift(at, 0, -p.popupHeightPx/2, zoom)
	return p.surface.SetCamera(mapkit.Camera{Center: center, Zoom: zoom})
}

// SyncReset re-homes the camera when the drill reset token has moved since
// the last call. Returns whether it re-homed. The token comparison makes
// reset idempotent per request while still firing on every distinct reset,
// including back-to-back resets at the overview.
func (p *Planner) SyncReset(token uint64) (bool, error) {
	p.mu.Lock()
	if token == p.lastResetToken {
		p.mu.Unlock()
		return false, nil
	}
	p.lastResetToken = token
	p.mu.Unlock()

	zap.L().Debug("viewport: re-homing camera", zap.Uint64("reset_token", token))
	return true, p.Home()
}

// unionBounds folds shape bounding boxes into one. Returns false when no
// shape contributes geometry.
func unionBounds(shapes []boundary.Shape) (*geom.Bounds, bool) {
	union := geom.NewBounds(geom.XY)
	found := false
	for _, s := range shapes {
		if s.Geometry == nil || s.Geometry.Empty() {
			continue
		}
		sb := s.Geometry.Bounds()
		if !found {
			union.Set(sb.Min(0), sb.Min(1), sb.Max(0), sb.Max(1))
			found = true
			continue
		}
		union.Set(
			math.Min(union.Min(0), sb.Min(0)),
			math.Min(union.Min(1), sb.Min(1)),
			math.Max(union.Max(0), sb.Max(0)),
			math.Max(union.Max(1), sb.Max(1)),
		)
	}
	return union, found
}

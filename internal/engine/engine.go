// Package engine composes the dashboard: datasets, brand config, boundary
// cache, drill state, favorites, and a map surface, reconciled into frames.
// One engine serves one dashboard session; all methods are safe for
// concurrent use.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/drill"
	"github.com/brandatlas/footprint/internal/favorites"
	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/model"
	"github.com/brandatlas/footprint/internal/overlay"
	"github.com/brandatlas/footprint/internal/viewport"
)

// DefaultNewWindow is how far back an opening date still counts as a new
// store for badge purposes.
const DefaultNewWindow = 90 * 24 * time.Hour

// Mode selects which record layer renders as markers. Region polygons and
// the aggregation tables always come from the store layer.
type Mode int

const (
	ModeStores Mode = iota
	ModeMalls
)

func (m Mode) String() string {
	if m == ModeMalls {
		return "malls"
	}
	return "stores"
}

// Config carries the immutable inputs an Engine is built from.
type Config struct {
	Brands     model.BrandSet
	Stores     []model.StoreRecord
	Malls      []model.MallRecord
	Boundaries *boundary.Cache
	SDK        mapkit.LoadFunc
	Favorites  *favorites.Tracker // optional; defaults to in-memory
}

// Engine owns the session state behind the dashboard and drives the map
// surface. Baseline datasets are never mutated after construction; filters
// derive a visible view from them.
type Engine struct {
	brands         model.BrandSet
	baselineStores []model.StoreRecord
	baselineMalls  []model.MallRecord

	boundaries *boundary.Cache
	nav        *drill.Controller
	boot       *mapkit.Bootstrapper
	favorites  *favorites.Tracker

	nowFunc   func() time.Time
	newWindow time.Duration
	cluster   overlay.ClusterOptions
	mallColor overlay.MallColorMode
	vpOpts    []viewport.Option

	mu            sync.Mutex
	surface       mapkit.Surface
	planner       *viewport.Planner
	markers       *overlay.Set
	polygons      map[string]string // polygon id -> region name, for click dispatch
	visibleStores []model.StoreRecord
	visibleMalls  []model.MallRecord
	storeFiltered bool
	mallFiltered  bool
	mode          Mode
}

// Option tunes engine construction.
type Option func(*Engine)

// WithClock overrides the time source. Tests pin it.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.nowFunc = fn }
}

// WithNewWindow overrides the new-store badge window. Zero disables the
// badge entirely.
func WithNewWindow(d time.Duration) Option {
	return func(e *Engine) { e.newWindow = d }
}

// WithClusterOptions overrides the marker clustering tuning.
func WithClusterOptions(o overlay.ClusterOptions) Option {
	return func(e *Engine) { e.cluster = o }
}

// WithMallColorMode selects how mall markers are colored.
func WithMallColorMode(m overlay.MallColorMode) Option {
	return func(e *Engine) { e.mallColor = m }
}

// WithViewport forwards options to the camera planner built once the SDK
// surface is up.
func WithViewport(opts ...viewport.Option) Option {
	return func(e *Engine) { e.vpOpts = append(e.vpOpts, opts...) }
}

// New builds an Engine. The SDK is not loaded here; the first render (or
// Start) triggers the bootstrap.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Boundaries == nil {
		return nil, eris.New("engine: boundary cache required")
	}
	if cfg.SDK == nil {
		return nil, eris.New("engine: sdk loader required")
	}
	e := &Engine{
		brands:         cfg.Brands,
		baselineStores: cfg.Stores,
		baselineMalls:  cfg.Malls,
		boundaries:     cfg.Boundaries,
		nav:            drill.NewController(cfg.Boundaries),
		boot:           mapkit.NewBootstrapper(cfg.SDK),
		favorites:      cfg.Favorites,
		nowFunc:        time.Now,
		newWindow:      DefaultNewWindow,
		cluster:        overlay.DefaultClusterOptions(),
		polygons:       make(map[string]string),
		visibleStores:  cfg.Stores,
		visibleMalls:   cfg.Malls,
	}
	for _, o := range opts {
		o(e)
	}
	if e.favorites == nil {
		t, err := favorites.NewTracker(context.Background(), favorites.NewMemory())
		if err != nil {
			return nil, eris.Wrap(err, "engine: favorites")
		}
		e.favorites = t
	}
	return e, nil
}

// Start warms the engine: boundary bootstrap for the province layer, SDK
// load, and an initial render. Neither failure is fatal; the dashboard
// degrades to a data-only frame and later renders retry.
func (e *Engine) Start(ctx context.Context) (Frame, error) {
	if _, err := e.nav.Bootstrap(ctx); err != nil {
		zap.L().Warn("engine: boundary bootstrap failed", zap.Error(err))
	}
	return e.Render(ctx)
}

// Render reconciles the surface with the current state and returns a frame.
// When the SDK is unavailable the frame carries data only and no error.
func (e *Engine) Render(ctx context.Context) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderLocked(ctx)
}

// State returns the current drill state.
func (e *Engine) State() drill.State {
	return e.nav.State()
}

// Ready reports whether the map SDK finished loading.
func (e *Engine) Ready() bool {
	return e.boot.Ready()
}

func (e *Engine) renderLocked(ctx context.Context) (Frame, error) {
	surface, err := e.attachSurface(ctx)
	if err != nil {
		zap.L().Warn("engine: map sdk unavailable, serving data-only frame", zap.Error(err))
		return e.frameLocked(nil), nil
	}
	state := e.nav.State()
	if _, err := e.planner.SyncReset(state.ResetToken); err != nil {
		zap.L().Warn("engine: camera reset", zap.Error(err))
	}
	e.syncChoropleth(surface, state)
	next := e.buildMarkers(surface, state)
	e.applyMarkers(surface, next)
	return e.frameLocked(surface), nil
}

// attachSurface memoizes the SDK surface and wires click dispatch and the
// camera planner the first time it comes up.
func (e *Engine) attachSurface(ctx context.Context) (mapkit.Surface, error) {
	surface, err := e.boot.Surface(ctx)
	if err != nil {
		return nil, err
	}
	if e.surface == surface {
		return surface, nil
	}
	e.surface = surface
	e.planner = viewport.NewPlanner(surface, e.vpOpts...)
	surface.OnMarkerClick(func(id string) {
		if _, err := e.HandleMarkerClick(context.Background(), id); err != nil {
			zap.L().Debug("engine: marker click", zap.String("id", id), zap.Error(err))
		}
	})
	surface.OnPolygonClick(func(id string) {
		if _, err := e.HandlePolygonClick(context.Background(), id); err != nil {
			zap.L().Debug("engine: polygon click", zap.String("id", id), zap.Error(err))
		}
	})
	if err := e.planner.Home(); err != nil {
		zap.L().Warn("engine: initial camera", zap.Error(err))
	}
	return surface, nil
}

// buildMarkers assembles the overlay set for the current scope and camera.
func (e *Engine) buildMarkers(surface mapkit.Surface, state drill.State) *overlay.Set {
	opts := []overlay.BuilderOption{
		overlay.WithFavorites(e.favorites.All()),
		overlay.WithClusterOptions(e.cluster),
		overlay.WithMallColorMode(e.mallColor),
	}
	if e.newWindow > 0 {
		opts = append(opts, overlay.WithNewSince(e.nowFunc().Add(-e.newWindow)))
	}
	b := overlay.NewBuilder(e.brands, opts...)
	if e.mode == ModeMalls {
		return b.BuildMalls(e.scopedMalls(state), state.SelectedID)
	}
	return b.Build(e.scopedStores(state), surface.Camera().Zoom, state.SelectedID)
}

// applyMarkers diffs the next overlay set against the previous one and
// issues the minimal add/remove calls. Unchanged markers are left alone so
// the SDK does not flicker them.
func (e *Engine) applyMarkers(surface mapkit.Surface, next *overlay.Set) {
	prev := e.markers
	if prev != nil {
		for _, m := range prev.Markers {
			if _, ok := next.Lookup(m.ID); !ok {
				if err := surface.RemoveMarker(m.ID); err != nil {
					zap.L().Debug("engine: marker remove", zap.String("id", m.ID), zap.Error(err))
				}
			}
		}
	}
	for _, m := range next.Markers {
		if prev != nil {
			if old, ok := prev.Lookup(m.ID); ok && old.At == m.At && old.Style == m.Style {
				continue
			}
		}
		if err := surface.AddMarker(mapkit.Marker{ID: m.ID, At: m.At, Style: m.Style}); err != nil {
			zap.L().Warn("engine: marker add", zap.String("id", m.ID), zap.Error(err))
		}
	}
	e.markers = next
}

// scopedStores returns the visible stores inside the drill scope.
func (e *Engine) scopedStores(state drill.State) []model.StoreRecord {
	if state.Stage == drill.StageOverview {
		return e.visibleStores
	}
	out := make([]model.StoreRecord, 0, len(e.visibleStores))
	for _, r := range e.visibleStores {
		if state.Contains(r.Province, r.City) {
			out = append(out, r)
		}
	}
	return out
}

// scopedMalls returns the visible malls inside the drill scope.
func (e *Engine) scopedMalls(state drill.State) []model.MallRecord {
	if state.Stage == drill.StageOverview {
		return e.visibleMalls
	}
	out := make([]model.MallRecord, 0, len(e.visibleMalls))
	for _, r := range e.visibleMalls {
		if state.Contains(r.Province, r.City) {
			out = append(out, r)
		}
	}
	return out
}

// fitStage frames the camera on the shapes of a freshly entered region,
// falling back to the scoped record coordinates when geometry is missing.
// With neither shapes nor located records the camera re-homes to the national
// view instead of staying wherever the last drill left it.
func (e *Engine) fitStage(shapes []boundary.Shape, state drill.State) {
	if e.planner == nil {
		return
	}
	if len(shapes) > 0 {
		if err := e.planner.FitShapes(shapes, state.Stage); err == nil {
			return
		}
	}
	var coords []model.Coordinate
	if e.mode == ModeMalls {
		for _, r := range e.scopedMalls(state) {
			if r.Located {
				coords = append(coords, r.Location)
			}
		}
	} else {
		for _, r := range e.scopedStores(state) {
			if r.Located {
				coords = append(coords, r.Location)
			}
		}
	}
	if len(coords) == 0 {
		if err := e.planner.Home(); err != nil {
			zap.L().Debug("engine: home fallback", zap.Error(err))
		}
		return
	}
	if err := e.planner.FitCoordinates(coords, state.Stage); err != nil {
		zap.L().Debug("engine: fit fallback", zap.Error(err))
	}
}

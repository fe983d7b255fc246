package engine

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/dataset"
	"github.com/brandatlas/footprint/internal/drill"
	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/overlay"
)

// clusterZoomStep is how far a cluster tap zooms in. Repeated taps walk the
// camera below street level until the cluster splits apart.
const (
	clusterZoomStep      = 2
	maxClusterExpandZoom = 18
)

// SelectProvince drills into a province by name and re-renders. The drill
// state advances even when boundary geometry is unavailable; the camera
// then fits the scoped records instead of the polygon extent.
func (e *Engine) SelectProvince(ctx context.Context, name string) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, shapes, err := e.nav.SelectProvince(ctx, name)
	if err != nil {
		return e.frameLocked(e.surface), err
	}
	e.fitStage(shapes, state)
	return e.renderLocked(ctx)
}

// SelectCity drills into a city of the current province and re-renders.
func (e *Engine) SelectCity(ctx context.Context, name string) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, shapes, err := e.nav.SelectCity(ctx, name)
	if err != nil {
		return e.frameLocked(e.surface), err
	}
	e.fitStage(shapes, state)
	return e.renderLocked(ctx)
}

// Reset returns to the national overview. The camera re-homes exactly once
// per reset, even if the drill state was already at the top.
func (e *Engine) Reset(ctx context.Context) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nav.Reset()
	return e.renderLocked(ctx)
}

// HandleMarkerClick dispatches a marker tap by overlay ID. A cluster tap
// zooms toward the cluster; a point tap selects the record, restyles the
// affected markers in place, and pans the point into the upper viewport
// half so a popup below center stays clear of it.
func (e *Engine) HandleMarkerClick(ctx context.Context, overlayID string) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.markers == nil {
		return e.frameLocked(e.surface), eris.New("engine: no overlays rendered")
	}
	m, ok := e.markers.Lookup(overlayID)
	if !ok {
		return e.frameLocked(e.surface), eris.Errorf("engine: unknown overlay %s", overlayID)
	}
	if m.Cluster {
		return e.expandCluster(ctx, m)
	}
	e.nav.SelectStore(m.RecordID)
	e.applyRestyle(e.markers.Restyle(m.RecordID))
	if e.planner != nil {
		if err := e.planner.Focus(m.At); err != nil {
			zap.L().Warn("engine: focus", zap.Error(err))
		}
	}
	return e.frameLocked(e.surface), nil
}

// expandCluster zooms a step toward the cluster and rebuilds the overlay
// set at the new zoom.
func (e *Engine) expandCluster(ctx context.Context, m overlay.Marker) (Frame, error) {
	if e.surface == nil {
		return e.frameLocked(nil), nil
	}
	zoom := e.surface.Camera().Zoom + clusterZoomStep
	if zoom > maxClusterExpandZoom {
		zoom = maxClusterExpandZoom
	}
	if err := e.surface.SetCamera(mapkit.Camera{Center: m.At, Zoom: zoom}); err != nil {
		zap.L().Warn("engine: cluster zoom", zap.Error(err))
	}
	return e.renderLocked(ctx)
}

// HandlePolygonClick dispatches a region tap by polygon ID: provinces drill
// to province, cities drill to city. At city stage the tap is inert.
func (e *Engine) HandlePolygonClick(ctx context.Context, polygonID string) (Frame, error) {
	e.mu.Lock()
	name, ok := e.polygons[polygonID]
	stage := e.nav.State().Stage
	if !ok {
		f := e.frameLocked(e.surface)
		e.mu.Unlock()
		return f, eris.Errorf("engine: unknown polygon %s", polygonID)
	}
	e.mu.Unlock()

	switch stage {
	case drill.StageOverview:
		return e.SelectProvince(ctx, name)
	case drill.StageProvince:
		return e.SelectCity(ctx, name)
	default:
		return e.Render(ctx)
	}
}

// ClearSelection drops the selected record and restores its marker style.
func (e *Engine) ClearSelection(ctx context.Context) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nav.ClearSelection()
	if e.markers != nil {
		e.applyRestyle(e.markers.Restyle(""))
	}
	return e.frameLocked(e.surface), nil
}

// ToggleFavorite flips a record's favorite mark, persists the full set, and
// re-renders so the badge and z-order change everywhere the record shows.
// The returned bool is the record's state after the flip.
func (e *Engine) ToggleFavorite(ctx context.Context, recordID string) (bool, Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	marked, err := e.favorites.Toggle(ctx, recordID)
	if err != nil {
		return marked, e.frameLocked(e.surface), err
	}
	f, rerr := e.renderLocked(ctx)
	return marked, f, rerr
}

// SetStoreFilter applies a store filter to the visible view and re-renders.
// The baseline dataset is untouched; clearing the filter restores it.
func (e *Engine) SetStoreFilter(ctx context.Context, f dataset.StoreFilter) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visibleStores = f.Apply(e.baselineStores)
	e.storeFiltered = true
	return e.renderLocked(ctx)
}

// SetMallFilter applies a mall filter to the visible view and re-renders.
func (e *Engine) SetMallFilter(ctx context.Context, f dataset.MallFilter) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visibleMalls = f.Apply(e.baselineMalls)
	e.mallFiltered = true
	return e.renderLocked(ctx)
}

// ClearFilters restores the visible view to the full baseline.
func (e *Engine) ClearFilters(ctx context.Context) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visibleStores = e.baselineStores
	e.visibleMalls = e.baselineMalls
	e.storeFiltered = false
	e.mallFiltered = false
	return e.renderLocked(ctx)
}

// SetMode switches the marker layer between stores and malls. Selection is
// dropped on a switch since record IDs do not cross layers.
func (e *Engine) SetMode(ctx context.Context, m Mode) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m != e.mode {
		e.mode = m
		e.nav.ClearSelection()
	}
	return e.renderLocked(ctx)
}

// applyRestyle pushes in-place style updates for the given overlay IDs.
func (e *Engine) applyRestyle(ids []string) {
	if e.surface == nil {
		return
	}
	for _, id := range ids {
		m, ok := e.markers.Lookup(id)
		if !ok {
			continue
		}
		if err := e.surface.UpdateMarker(id, m.Style); err != nil {
			zap.L().Debug("engine: marker restyle", zap.String("id", id), zap.Error(err))
		}
	}
}

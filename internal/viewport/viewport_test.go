package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/drill"
	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/model"
)

func spanShape(name string, lng, lat, span float64) boundary.Shape {
	ring := []float64{lng, lat, lng + span, lat, lng + span, lat + span, lng, lat + span, lng, lat}
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	if err := mp.Push(geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})); err != nil {
		panic(err)
	}
	return boundary.Shape{
		Name:     name,
		Adcode:   "000000",
		Center:   model.Coordinate{Lat: lat + span/2, Lng: lng + span/2},
		Geometry: mp,
	}
}

func newTestPlanner(opts ...Option) (*Planner, *mapkit.Headless) {
	surface := mapkit.NewHeadless(800, 600, DefaultHome)
	return NewPlanner(surface, opts...), surface
}

func TestHomeAndRecenter(t *testing.T) {
	p, surface := newTestPlanner(WithHome(mapkit.Camera{
		Center: model.Coordinate{Lat: 30, Lng: 110},
		Zoom:   5,
	}))

	require.NoError(t, p.Home())
	assert.Equal(t, 5.0, surface.Camera().Zoom)
	assert.Equal(t, 110.0, surface.Camera().Center.Lng)

	require.NoError(t, p.Recenter(model.Coordinate{Lat: 23.1, Lng: 113.2}))
	cam := surface.Camera()
	assert.Equal(t, 5.0, cam.Zoom, "recenter keeps zoom")
	assert.Equal(t, 113.2, cam.Center.Lng)
}

func TestFitShapesClampsPerStage(t *testing.T) {
	tiny := spanShape("小区域", 113.2, 23.1, 0.01)

	tests := []struct {
		name     string
		stage    drill.Stage
		wantZoom float64
	}{
		{name: "province cap", stage: drill.StageProvince, wantZoom: 9},
		{name: "city cap", stage: drill.StageCity, wantZoom: 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, surface := newTestPlanner()
			require.NoError(t, p.FitShapes([]boundary.Shape{tiny}, tt.stage))
			assert.InDelta(t, tt.wantZoom, surface.Camera().Zoom, 0.001)
		})
	}
}

func TestFitShapesWideExtentStaysUnclamped(t *testing.T) {
	p, surface := newTestPlanner()

	shapes := []boundary.Shape{
		spanShape("西部", 80, 20, 1),
		spanShape("东北", 130, 50, 1),
	}
	require.NoError(t, p.FitShapes(shapes, drill.StageProvince))

	cam := surface.Camera()
	assert.Greater(t, cam.Zoom, 3.0)
	assert.Less(t, cam.Zoom, 9.0, "a country-wide extent sits well under the stage cap")
	assert.InDelta(t, 105.5, cam.Center.Lng, 3)
}

func TestFitCoordinatesSinglePointUsesStageCap(t *testing.T) {
	p, surface := newTestPlanner()

	err := p.FitCoordinates([]model.Coordinate{{Lat: 23.1, Lng: 113.2}}, drill.StageCity)
	require.NoError(t, err)

	cam := surface.Camera()
	assert.InDelta(t, 12, cam.Zoom, 0.001, "degenerate bounds clamp to the stage cap instead of infinity")
	assert.InDelta(t, 113.2, cam.Center.Lng, 0.01)
	assert.InDelta(t, 23.1, cam.Center.Lat, 0.01)
}

func TestFitWithoutInputErrors(t *testing.T) {
	p, _ := newTestPlanner()

	assert.Error(t, p.FitShapes(nil, drill.StageProvince))
	assert.Error(t, p.FitCoordinates(nil, drill.StageCity))
	assert.Error(t, p.FitShapes([]boundary.Shape{{Name: "空", Adcode: "1"}}, drill.StageProvince),
		"shapes without geometry contribute nothing")
}

func TestFocusRaisesZoomToFloor(t *testing.T) {
	p, surface := newTestPlanner()
	at := model.Coordinate{Lat: 31.23, Lng: 121.47}

	require.NoError(t, p.Focus(at))
	assert.Equal(t, 14.0, surface.Camera().Zoom)
}

func TestFocusNeverZoomsOut(t *testing.T) {
	p, surface := newTestPlanner()
	at := model.Coordinate{Lat: 31.23, Lng: 121.47}

	require.NoError(t, surface.SetCamera(mapkit.Camera{Center: at, Zoom: 16.5}))
	require.NoError(t, p.Focus(at))
	assert.Equal(t, 16.5, surface.Camera().Zoom, "focus keeps a closer zoom")
}

func TestFocusLeavesRoomForPopup(t *testing.T) {
	p, surface := newTestPlanner()
	at := model.Coordinate{Lat: 31.23, Lng: 121.47}

	require.NoError(t, p.Focus(at))

	// The focused marker lands half a popup height below screen center.
	px := surface.Project(at)
	assert.InDelta(t, 400, px.X, 0.5)
	assert.InDelta(t, 300+defaultPopupHeightPx/2, px.Y, 0.5)
}

func TestSyncResetFiresOncePerToken(t *testing.T) {
	p, surface := newTestPlanner()

	rehomed, err := p.SyncReset(0)
	require.NoError(t, err)
	assert.False(t, rehomed, "token zero is the initial state")

	require.NoError(t, surface.SetCamera(mapkit.Camera{
		Center: model.Coordinate{Lat: 23, Lng: 113},
		Zoom:   10,
	}))

	rehomed, err = p.SyncReset(1)
	require.NoError(t, err)
	assert.True(t, rehomed)
	assert.Equal(t, DefaultHome.Zoom, surface.Camera().Zoom)

	rehomed, err = p.SyncReset(1)
	require.NoError(t, err)
	assert.False(t, rehomed, "same token does not re-home twice")

	rehomed, err = p.SyncReset(2)
	require.NoError(t, err)
	assert.True(t, rehomed, "every new token re-homes, even from the overview")
}

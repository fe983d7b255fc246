package mapkit

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/brandatlas/footprint/internal/mercator"
	"github.com/brandatlas/footprint/internal/model"
)

// Headless is an in-memory Surface. Tests drive it directly and the serve
// command uses it to render overlay snapshots without a real map SDK.
type Headless struct {
	mu       sync.Mutex
	width    int
	height   int
	camera   Camera
	markers  map[string]Marker
	polygons map[string]Polygon

	markerClick  func(id string)
	polygonClick func(id string)
}

// NewHeadless creates a Headless surface with the given viewport size and
// initial camera.
func NewHeadless(width, height int, camera Camera) *Headless {
	return &Headless{
		width:    width,
		height:   height,
		camera:   camera,
		markers:  make(map[string]Marker),
		polygons: make(map[string]Polygon),
	}
}

// AddMarker implements Surface. Re-adding an existing ID replaces it.
func (h *Headless) AddMarker(m Marker) error {
	if m.ID == "" {
		return eris.New("mapkit: marker without id")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markers[m.ID] = m
	return nil
}

// UpdateMarker implements Surface.
func (h *Headless) UpdateMarker(id string, style MarkerStyle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.markers[id]
	if !ok {
		return eris.Errorf("mapkit: update of unknown marker %s", id)
	}
	m.Style = style
	h.markers[id] = m
	return nil
}

// RemoveMarker implements Surface. Removing an absent ID is a no-op.
func (h *Headless) RemoveMarker(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.markers, id)
	return nil
}

// AddPolygon implements Surface.
func (h *Headless) AddPolygon(p Polygon) error {
	if p.ID == "" {
		return eris.New("mapkit: polygon without id")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.polygons[p.ID] = p
	return nil
}

// RemovePolygon implements Surface.
func (h *Headless) RemovePolygon(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.polygons, id)
	return nil
}

// SetCamera implements Surface. Commands are applied immediately;
// last-write-wins mirrors how SDK animations collapse under rapid input.
func (h *Headless) SetCamera(c Camera) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.camera = c
	return nil
}

// Camera implements Surface.
func (h *Headless) Camera() Camera {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.camera
}

// Size implements Surface.
func (h *Headless) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// Project implements Surface.
func (h *Headless) Project(c model.Coordinate) Pixel {
	h.mu.Lock()
	cam, w, hgt := h.camera, h.width, h.height
	h.mu.Unlock()

	pt := mercator.Project(c, cam.Zoom)
	ctr := mercator.Project(cam.Center, cam.Zoom)
	return Pixel{
		X: pt.X - ctr.X + float64(w)/2,
		Y: pt.Y - ctr.Y + float64(hgt)/2,
	}
}

// Unproject implements Surface.
func (h *Headless) Unproject(p Pixel) model.Coordinate {
	h.mu.Lock()
	cam, w, hgt := h.camera, h.width, h.height
	h.mu.Unlock()

	ctr := mercator.Project(cam.Center, cam.Zoom)
	return mercator.Unproject(mercator.Pixel{
		X: ctr.X + p.X - float64(w)/2,
		Y: ctr.Y + p.Y - float64(hgt)/2,
	}, cam.Zoom)
}

// OnMarkerClick implements Surface.
func (h *Headless) OnMarkerClick(fn func(id string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markerClick = fn
}

// OnPolygonClick implements Surface.
func (h *Headless) OnPolygonClick(fn func(id string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.polygonClick = fn
}

// ClickMarker simulates a user tap on a marker.
func (h *Headless) ClickMarker(id string) {
	h.mu.Lock()
	fn := h.markerClick
	h.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

// ClickPolygon simulates a user tap on a polygon.
func (h *Headless) ClickPolygon(id string) {
	h.mu.Lock()
	fn := h.polygonClick
	h.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

// Markers returns the current markers sorted by ID.
func (h *Headless) Markers() []Marker {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Marker, 0, len(h.markers))
	for _, m := range h.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Polygons returns the current polygons sorted by ID.
func (h *Headless) Polygons() []Polygon {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Polygon, 0, len(h.polygons))
	for _, p := range h.polygons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type snapshotFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type snapshotCollection struct {
	Type     string            `json:"type"`
	Camera   Camera            `json:"camera"`
	Features []snapshotFeature `json:"features"`
}

// Snapshot serializes the current overlays as a GeoJSON feature collection,
// one Point feature per marker and one MultiPolygon feature per polygon,
// with the camera as a foreign member. Output is deterministic across
// calls.
func (h *Headless) Snapshot() ([]byte, error) {
	fc := snapshotCollection{Type: "FeatureCollection", Camera: h.Camera()}
	for _, p := range h.Polygons() {
		raw, err := geojson.Marshal(p.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "mapkit: encode polygon %s", p.ID)
		}
		fc.Features = append(fc.Features, snapshotFeature{
			Type: "Feature",
			Properties: map[string]any{
				"kind":         "polygon",
				"id":           p.ID,
				"fill_color":   p.FillColor,
				"fill_opacity": p.FillOpacity,
			},
			Geometry: raw,
		})
	}
	for _, m := range h.Markers() {
		raw, err := json.Marshal(map[string]any{
			"type":        "Point",
			"coordinates": []float64{m.At.Lng, m.At.Lat},
		})
		if err != nil {
			return nil, eris.Wrapf(err, "mapkit: encode marker %s", m.ID)
		}
		fc.Features = append(fc.Features, snapshotFeature{
			Type: "Feature",
			Properties: map[string]any{
				"kind":    "marker",
				"id":      m.ID,
				"variant": m.Style.Variant,
				"color":   m.Style.Color,
				"label":   m.Style.Label,
				"size_px": m.Style.SizePx,
				"z_index": m.Style.ZIndex,
			},
			Geometry: raw,
		})
	}

	out, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "mapkit: encode snapshot")
	}
	return out, nil
}

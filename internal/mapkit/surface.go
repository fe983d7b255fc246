// Package mapkit defines the capability contract the engine drives a map
// SDK through. The engine only ever issues the primitives below; everything
// else (tiles, gestures, animation) belongs to the SDK adapter. A headless
// in-memory implementation backs tests and the CLI snapshot surface.
package mapkit

import (
	"github.com/twpayne/go-geom"

	"github.com/brandatlas/footprint/internal/model"
)

// Camera is a map camera position.
type Camera struct {
	Center model.Coordinate `json:"center"`
	Zoom   float64          `json:"zoom"`
}

// MarkerStyle is the mutable visual part of a marker. Selection changes
// rewrite the style in place instead of recreating the marker.
type MarkerStyle struct {
	Variant string  `json:"variant"` // visual class, e.g. "focal", "rival/new", "cluster"
	Color   string  `json:"color"`   // hex fill
	Label   string  `json:"label,omitempty"`
	SizePx  float64 `json:"size_px"`
	ZIndex  int     `json:"z_index"`
}

// Marker is a point overlay.
type Marker struct {
	ID    string           `json:"id"`
	At    model.Coordinate `json:"at"`
	Style MarkerStyle      `json:"style"`
}

// Polygon is a filled region overlay.
type Polygon struct {
	ID          string             `json:"id"`
	Geometry    *geom.MultiPolygon `json:"-"`
	FillColor   string             `json:"fill_color"`
	FillOpacity float64            `json:"fill_opacity"`
	StrokeColor string             `json:"stroke_color"`
}

// Pixel is a screen-space position relative to the viewport's top-left
// corner.
type Pixel struct {
	X float64
	Y float64
}

// Surface is the minimal capability interface a map SDK adapter must
// provide. Marker and polygon identity is the caller's: operations are
// keyed by the IDs the caller assigned. Click handlers receive those IDs
// back, so dispatch works by arena lookup instead of captured objects.
type Surface interface {
	AddMarker(m Marker) error
	UpdateMarker(id string, style MarkerStyle) error
	RemoveMarker(id string) error

	AddPolygon(p Polygon) error
	RemovePolygon(id string) error

	SetCamera(c Camera) error
	Camera() Camera
	Size() (width, height int)

	// Project converts a coordinate to screen space under the current
	// camera; Unproject inverts it.
	Project(c model.Coordinate) Pixel
	Unproject(p Pixel) model.Coordinate

	OnMarkerClick(fn func(id string))
	OnPolygonClick(fn func(id string))
}

// Package model defines the canonical record shapes the analytics engine
// operates on. Field aliasing, coordinate order, and name normalization are
// resolved by the dataset loader; everything past that boundary relies on
// these shapes as-is.
package model

import "time"

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Plausibility bounding box for mainland coordinates (degrees).
const (
	boundsMinLat = 18.0
	boundsMaxLat = 54.0
	boundsMinLng = 73.0
	boundsMaxLng = 136.0
)

// InBounds reports whether the point falls inside the mainland plausibility
// box used for coordinate sanity checks.
func (c Coordinate) InBounds() bool {
	return c.Lat >= boundsMinLat && c.Lat <= boundsMaxLat &&
		c.Lng >= boundsMinLng && c.Lng <= boundsMaxLng
}

// Sanitize returns a renderable coordinate. A point outside the plausibility
// box is retried with lat/lng swapped, which catches the most common feed
// defect. The second return is false when neither orientation is plausible;
// such records still count in aggregates but are excluded from rendering.
func (c Coordinate) Sanitize() (Coordinate, bool) {
	if c.InBounds() {
		return c, true
	}
	swapped := Coordinate{Lat: c.Lng, Lng: c.Lat}
	if swapped.InBounds() {
		return swapped, true
	}
	return c, false
}

// StoreRecord is one opened point of presence for a brand.
type StoreRecord struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Brand    string     `json:"brand"`
	Type     string     `json:"type,omitempty"`
	Province string     `json:"province"`
	City     string     `json:"city"`
	Address  string     `json:"address,omitempty"`
	MallID   string     `json:"mall_id,omitempty"`
	Location Coordinate `json:"location"`
	Located  bool       `json:"located"`
	OpenedAt *time.Time `json:"opened_at,omitempty"`
}

// OpenedSince reports whether the store opened on or after the cutoff.
// Stores without an opened date are never considered new.
func (s StoreRecord) OpenedSince(cutoff time.Time) bool {
	return s.OpenedAt != nil && !s.OpenedAt.Before(cutoff)
}

// MallRecord is a candidate retail venue with per-brand presence signals.
// Malls without a located point cannot be rendered but still count in
// aggregates.
type MallRecord struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Province string     `json:"province"`
	City     string     `json:"city"`
	Location Coordinate `json:"location"`
	Located  bool       `json:"located"`
	Signals  Signals    `json:"signals"`
}

// Status derives the mall's competitive status from its presence signals.
// It is a pure function of Signals and is never stored or mutated
// independently.
func (m MallRecord) Status() Status {
	return Classify(m.Signals)
}

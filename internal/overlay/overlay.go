// Package overlay converts visible record collections into the marker
// overlays the engine reconciles against the map surface. A Set is a value:
// rebuilt wholesale when data or zoom changes, mutated in place only for
// selection restyles.
package overlay

import (
	"strings"

	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/model"
)

// Z-order tiers. An overlay takes the highest tier whose flag applies.
const (
	zDefault  = 10
	zFavorite = 20
	zNew      = 30
	zSelected = 40
)

// Flags are the per-record display states that drive z-order and variant.
// They are independent of classification status.
type Flags struct {
	Selected bool
	New      bool
	Favorite bool
}

// ZIndex returns the z-order tier for the flag set: selected outranks new,
// new outranks favorited, favorited outranks default.
func (f Flags) ZIndex() int {
	switch {
	case f.Selected:
		return zSelected
	case f.New:
		return zNew
	case f.Favorite:
		return zFavorite
	default:
		return zDefault
	}
}

// variant composes the visual class from a base (brand side or mall mode)
// and every applicable flag, highest tier first.
func (f Flags) variant(base string) string {
	parts := []string{base}
	if f.Selected {
		parts = append(parts, "selected")
	}
	if f.New {
		parts = append(parts, "new")
	}
	if f.Favorite {
		parts = append(parts, "fav")
	}
	return strings.Join(parts, "/")
}

// Marker is one rendered point or cluster overlay together with its source
// references.
type Marker struct {
	ID       string
	RecordID string   // single-point source record; empty for clusters
	Members  []string // all source record ids under this overlay
	Cluster  bool
	Count    int
	At       model.Coordinate
	Flags    Flags
	Style    mapkit.MarkerStyle

	variantBase string
}

// Set is the complete overlay output of one render pass, indexed by overlay
// id so clicks dispatch by lookup and selection restyles hit the right
// marker without a rebuild.
type Set struct {
	Markers []Marker
	index   map[string]int
}

func newSet(markers []Marker) *Set {
	s := &Set{Markers: markers, index: make(map[string]int, len(markers))}
	for i, m := range markers {
		s.index[m.ID] = i
	}
	return s
}

// EmptySet returns a Set with no markers.
func EmptySet() *Set {
	return newSet(nil)
}

// Len returns the number of markers.
func (s *Set) Len() int {
	return len(s.Markers)
}

// Lookup returns the marker with the given overlay id.
func (s *Set) Lookup(id string) (Marker, bool) {
	i, ok := s.index[id]
	if !ok {
		return Marker{}, false
	}
	return s.Markers[i], true
}

// SourceRecord resolves an overlay id to its single source record id.
// Clusters have no single source and report false.
func (s *Set) SourceRecord(id string) (string, bool) {
	m, ok := s.Lookup(id)
	if !ok || m.Cluster {
		return "", false
	}
	return m.RecordID, true
}

// Coordinates returns every marker position, for fit-to-bounds camera math.
func (s *Set) Coordinates() []model.Coordinate {
	out := make([]model.Coordinate, 0, len(s.Markers))
	for _, m := range s.Markers {
		out = append(out, m.At)
	}
	return out
}

// Restyle moves the selection to the record with the given id, updating
// affected markers' flags, variant, and z-order in place. Clustering and
// colors are untouched, so a pure selection change never churns markers.
// Returns the overlay ids whose style changed.
func (s *Set) Restyle(selectedRecordID string) []string {
	var changed []string
	for i := range s.Markers {
		m := &s.Markers[i]
		if m.Cluster {
			continue
		}
		want := m.RecordID != "" && m.RecordID == selectedRecordID
		if m.Flags.Selected == want {
			continue
		}
		m.Flags.Selected = want
		m.Style.Variant = m.Flags.variant(m.variantBase)
		m.Style.ZIndex = m.Flags.ZIndex()
		changed = append(changed, m.ID)
	}
	return changed
}

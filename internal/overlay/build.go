package overlay

import (
	"strconv"
	"time"

	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/model"
)

// Point overlays render at a fixed diameter; only cluster badges scale.
const pointDiameterPx = 24

// MallColorMode selects how venue markers are painted.
type MallColorMode int

const (
	// MallColorStatus paints each venue by its classified status.
	MallColorStatus MallColorMode = iota
	// MallColorCompetitive paints each venue by brand presence.
	MallColorCompetitive
)

// Builder turns record collections into overlay Sets using one fixed
// styling configuration. Builders are cheap and safe to share; Build is a
// pure function of its inputs.
type Builder struct {
	brands       model.BrandSet
	newSince     time.Time
	favorites    map[string]bool
	cluster      ClusterOptions
	clusterColor string
	mallMode     MallColorMode
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithNewSince marks stores opened at or after t with the "new" flag.
// A zero time disables the flag entirely.
func WithNewSince(t time.Time) BuilderOption {
	return func(b *Builder) { b.newSince = t }
}

// WithFavorites supplies the favorited record ids.
func WithFavorites(ids map[string]bool) BuilderOption {
	return func(b *Builder) { b.favorites = ids }
}

// WithClusterOptions overrides the clustering tuning.
func WithClusterOptions(o ClusterOptions) BuilderOption {
	return func(b *Builder) { b.cluster = o }
}

// WithClusterColor overrides the cluster badge color.
func WithClusterColor(hex string) BuilderOption {
	return func(b *Builder) { b.clusterColor = hex }
}

// WithMallColorMode selects status or competitive venue coloring.
func WithMallColorMode(m MallColorMode) BuilderOption {
	return func(b *Builder) { b.mallMode = m }
}

// NewBuilder returns a Builder for the given brand pairing.
func NewBuilder(brands model.BrandSet, opts ...BuilderOption) *Builder {
	b := &Builder{
		brands:       brands,
		cluster:      DefaultClusterOptions(),
		clusterColor: defaultClusterColor,
		mallMode:     MallColorStatus,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders store records at the given zoom. Below the cluster
// threshold, stores sharing a grid cell collapse into one counted badge;
// above it every located store gets its own marker. selectedRecordID marks
// the selection, empty for none.
func (b *Builder) Build(stores []model.StoreRecord, zoom float64, selectedRecordID string) *Set {
	if b.cluster.Active(zoom) {
		return b.buildClustered(stores, zoom, selectedRecordID)
	}

	markers := make([]Marker, 0, len(stores))
	for _, rec := range stores {
		if !rec.Located {
			continue
		}
		markers = append(markers, b.storeMarker(rec, selectedRecordID))
	}
	return newSet(markers)
}

func (b *Builder) buildClustered(stores []model.StoreRecord, zoom float64, selectedRecordID string) *Set {
	points := make([]Point, 0, len(stores))
	byID := make(map[string]model.StoreRecord, len(stores))
	for _, rec := range stores {
		if !rec.Located {
			continue
		}
		points = append(points, Point{ID: rec.ID, At: rec.Location})
		byID[rec.ID] = rec
	}

	var markers []Marker
	for _, cell := range GridCells(points, zoom, b.cluster.CellSizePx) {
		if len(cell.Members) == 1 {
			markers = append(markers, b.storeMarker(byID[cell.Members[0].ID], selectedRecordID))
			continue
		}
		markers = append(markers, b.clusterMarker(cell))
	}
	return newSet(markers)
}

func (b *Builder) storeMarker(rec model.StoreRecord, selectedRecordID string) Marker {
	flags := Flags{
		Selected: rec.ID == selectedRecordID,
		New:      !b.newSince.IsZero() && rec.OpenedSince(b.newSince),
		Favorite: b.favorites[rec.ID],
	}
	base := "other"
	color := defaultPointColor
	switch {
	case b.brands.IsFocal(rec.Brand):
		base = "focal"
		color = brandColor(b.brands.Focal)
	case b.brands.IsRival(rec.Brand):
		base = "rival"
		color = brandColor(b.brands.Rival)
	}
	return Marker{
		ID:          rec.ID,
		RecordID:    rec.ID,
		Members:     []string{rec.ID},
		Count:       1,
		At:          rec.Location,
		Flags:       flags,
		variantBase: base,
		Style: mapkit.MarkerStyle{
			Variant: flags.variant(base),
			Color:   color,
			SizePx:  pointDiameterPx,
			ZIndex:  flags.ZIndex(),
		},
	}
}

func (b *Builder) clusterMarker(cell Cell) Marker {
	members := make([]string, 0, len(cell.Members))
	for _, p := range cell.Members {
		members = append(members, p.ID)
	}
	count := len(members)
	return Marker{
		ID:          cell.Key,
		Members:     members,
		Cluster:     true,
		Count:       count,
		At:          cell.At,
		variantBase: "cluster",
		Style: mapkit.MarkerStyle{
			Variant: "cluster",
			Color:   b.clusterColor,
			Label:   strconv.Itoa(count),
			SizePx:  b.cluster.Diameter(count),
			ZIndex:  zDefault,
		},
	}
}

// BuildMalls renders venue records. Venues never cluster: the venue layer
// is sparse enough to stay readable, and each badge carries status meaning
// a counted cluster would hide.
func (b *Builder) BuildMalls(malls []model.MallRecord, selectedRecordID string) *Set {
	markers := make([]Marker, 0, len(malls))
	for _, rec := range malls {
		if !rec.Located {
			continue
		}
		markers = append(markers, b.mallMarker(rec, selectedRecordID))
	}
	return newSet(markers)
}

func (b *Builder) mallMarker(rec model.MallRecord, selectedRecordID string) Marker {
	flags := Flags{
		Selected: rec.ID == selectedRecordID,
		Favorite: b.favorites[rec.ID],
	}
	var base, color string
	switch b.mallMode {
	case MallColorCompetitive:
		base = "mall"
		color = CompetitiveColor(rec.Signals, b.brands)
	default:
		status := rec.Status()
		base = "mall/" + string(status)
		color = StatusColor(status)
	}
	return Marker{
		ID:          rec.ID,
		RecordID:    rec.ID,
		Members:     []string{rec.ID},
		Count:       1,
		At:          rec.Location,
		Flags:       flags,
		variantBase: base,
		Style: mapkit.MarkerStyle{
			Variant: flags.variant(base),
			Color:   color,
			SizePx:  pointDiameterPx,
			ZIndex:  flags.ZIndex(),
		},
	}
}

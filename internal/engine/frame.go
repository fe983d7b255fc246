package engine

import (
	"time"

	"github.com/brandatlas/footprint/internal/aggregate"
	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/drill"
	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/model"
)

// RegionTable is one ranked aggregation table at a region level.
type RegionTable struct {
	Level model.Level       `json:"level"`
	Rows  []aggregate.Stats `json:"rows"`
}

// Frame is a dashboard snapshot. Baseline counts always cover the full
// dataset inside the drill scope; Visible additionally applies the active
// filters, so side-by-side the two expose what the filter hid.
type Frame struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	Stage        string               `json:"stage"`
	Breadcrumb   string               `json:"breadcrumb"`
	Mode         string               `json:"mode"`
	SelectedID   string               `json:"selected_id,omitempty"`
	Brands       model.BrandSet       `json:"brands"`
	SDKReady     bool                 `json:"sdk_ready"`
	Camera       *mapkit.Camera       `json:"camera,omitempty"`
	Markers      int                  `json:"markers"`
	Regions      int                  `json:"regions"`
	Filtered     bool                 `json:"filtered"`
	Baseline     RegionTable          `json:"baseline"`
	Visible      RegionTable          `json:"visible"`
	StatusCounts map[model.Status]int `json:"status_counts"`
	Favorites    int                  `json:"favorites"`
	Boundaries   boundary.CacheStats  `json:"boundaries"`
}

func (e *Engine) frameLocked(surface mapkit.Surface) Frame {
	state := e.nav.State()
	level := model.LevelProvince
	if state.Stage != drill.StageOverview {
		level = model.LevelCity
	}

	f := Frame{
		GeneratedAt:  e.nowFunc(),
		Stage:        state.Stage.String(),
		Breadcrumb:   state.Breadcrumb(),
		Mode:         e.mode.String(),
		SelectedID:   state.SelectedID,
		Brands:       e.brands,
		SDKReady:     surface != nil,
		Filtered:     e.storeFiltered || e.mallFiltered,
		Baseline:     e.regionTable(e.baselineStores, level, state),
		Visible:      e.regionTable(e.visibleStores, level, state),
		StatusCounts: aggregate.StatusCounts(e.scopedMalls(state)),
		Favorites:    e.favorites.Count(),
		Boundaries:   e.boundaries.Stats(),
	}
	if surface != nil {
		cam := surface.Camera()
		f.Camera = &cam
		if e.markers != nil {
			f.Markers = e.markers.Len()
		}
		f.Regions = len(e.polygons)
	}
	return f
}

// regionTable ranks records at the given level and trims the rows to the
// drill scope, so a province drill lists that province's cities only.
func (e *Engine) regionTable(records []model.StoreRecord, level model.Level, state drill.State) RegionTable {
	rows := aggregate.Ranked(aggregate.ByRegion(records, level, e.brands))
	if state.Stage == drill.StageOverview {
		return RegionTable{Level: level, Rows: rows}
	}
	scoped := make([]aggregate.Stats, 0, len(rows))
	for _, r := range rows {
		if state.Contains(r.Province, r.City) {
			scoped = append(scoped, r)
		}
	}
	return RegionTable{Level: level, Rows: scoped}
}

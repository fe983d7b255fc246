// Package drill implements the region drill-down state machine behind the
// dashboard: overview, province selected, city selected. Transitions resolve
// boundary geometry through the process cache and learn the name-to-adcode
// mapping from the layers they resolve, so no static region table ships with
// the binary.
package drill

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/model"
)

// RootCode is the national boundary code whose children are the provinces.
const RootCode = "100000"

// Stage is the drill depth.
type Stage int

const (
	StageOverview Stage = iota
	StageProvince
	StageCity
)

func (s Stage) String() string {
	switch s {
	case StageProvince:
		return "province"
	case StageCity:
		return "city"
	default:
		return "overview"
	}
}

// State is the published drill position. It is a value: callers receive a
// copy and never observe in-progress transitions.
type State struct {
	Stage        Stage
	Province     string // normalized, set at province stage and deeper
	ProvinceCode string // empty when the name could not be resolved
	City         string
	CityCode     string
	SelectedID   string // selected record id, independent of stage
	ResetToken   uint64 // bumped by every Reset, even a redundant one
}

// Contains reports whether a record in the given province and city falls
// inside the drill scope. City comparison is lenient to tolerate suffix
// drift between record fields and boundary layer names.
func (s State) Contains(province, city string) bool {
	switch s.Stage {
	case StageProvince:
		return model.NormalizeProvince(province) == s.Province
	case StageCity:
		return model.NormalizeProvince(province) == s.Province &&
			model.CityMatches(city, s.City)
	default:
		return true
	}
}

// Breadcrumb renders the position for headers and logs.
func (s State) Breadcrumb() string {
	switch s.Stage {
	case StageProvince:
		return s.Province
	case StageCity:
		return s.Province + " · " + s.City
	default:
		return "全国"
	}
}

// Controller serializes drill transitions. A transition that cannot resolve
// boundary geometry still succeeds: list scoping works off names alone, and
// the caller falls back to framing the member records instead of a polygon.
type Controller struct {
	boundaries *boundary.Cache
	rootCode   string

	mu            sync.Mutex
	state         State
	provinceIndex map[string]string // normalized province name -> adcode
	cityIndex     map[string]string // normalized city name -> adcode, current province only
}

// Option customizes a Controller.
type Option func(*Controller)

// WithRootCode overrides the national boundary code.
func WithRootCode(code string) Option {
	return func(c *Controller) { c.rootCode = code }
}

// NewController creates a Controller over the given boundary cache.
func NewController(boundaries *boundary.Cache, opts ...Option) *Controller {
	c := &Controller{
		boundaries:    boundaries,
		rootCode:      RootCode,
		provinceIndex: make(map[string]string),
		cityIndex:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current drill position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bootstrap resolves the province layer for the overview choropleth and
// learns the province name index from it.
func (c *Controller) Bootstrap(ctx context.Context) ([]boundary.Shape, error) {
	shapes, err := c.boundaries.Get(ctx, c.rootCode)
	if err != nil {
		return nil, eris.Wrap(err, "drill: bootstrap province layer")
	}

	c.mu.Lock()
	for _, s := range shapes {
		c.provinceIndex[model.NormalizeProvince(s.Name)] = s.Adcode
	}
	c.mu.Unlock()
	return shapes, nil
}

// SelectProvince drills into a province by name, from any stage. The
// returned shapes are the province's city subdivisions, used for the city
// choropleth; they are empty when geometry could not be resolved.
func (c *Controller) SelectProvince(ctx context.Context, name string) (State, []boundary.Shape, error) {
	norm := model.NormalizeProvince(name)
	if norm == model.UnknownRegion {
		return c.State(), nil, eris.New("drill: province name required")
	}

	code := c.lookupProvince(norm)
	if code == "" {
		// The index is learned lazily; a cold start may not have seen the
		// province layer yet.
		if _, err := c.Bootstrap(ctx); err != nil {
			zap.L().Warn("drill: province index unavailable", zap.String("province", norm), zap.Error(err))
		}
		code = c.lookupProvince(norm)
	}

	var shapes []boundary.Shape
	if code == "" {
		zap.L().Warn("drill: unresolved province, scoping by name only", zap.String("province", norm))
	} else {
		var err error
		shapes, err = c.boundaries.Get(ctx, code)
		if err != nil {
			zap.L().Warn("drill: city layer unavailable",
				zap.String("province", norm),
				zap.String("adcode", code),
				zap.Error(err))
			shapes = nil
		}
	}

	c.mu.Lock()
	c.cityIndex = make(map[string]string, len(shapes))
	for _, s := range shapes {
		c.cityIndex[model.NormalizeCity(s.Name)] = s.Adcode
	}
	c.state = State{
		Stage:        StageProvince,
		Province:     norm,
		ProvinceCode: code,
		ResetToken:   c.state.ResetToken,
	}
	st := c.state
	c.mu.Unlock()
	return st, shapes, nil
}

// SelectCity drills into a city of the currently selected province. Calling
// it from the overview stage is a programming error and is rejected.
func (c *Controller) SelectCity(ctx context.Context, name string) (State, []boundary.Shape, error) {
	norm := model.NormalizeCity(name)
	if norm == model.UnknownRegion {
		return c.State(), nil, eris.New("drill: city name required")
	}

	c.mu.Lock()
	if c.state.Stage == StageOverview {
		c.mu.Unlock()
		return c.State(), nil, eris.New("drill: no province selected")
	}
	code := c.cityIndex[norm]
	if code == "" {
		// Lenient fallback: record city names and boundary layer names
		// disagree on suffixes often enough that exact lookup misses. When
		// it hits, adopt the layer's name so the published state matches
		// what the map actually shows.
		for indexed, adcode := range c.cityIndex {
			if model.CityMatches(indexed, norm) {
				norm, code = indexed, adcode
				break
			}
		}
	}
	c.mu.Unlock()

	var shapes []boundary.Shape
	if code == "" {
		zap.L().Warn("drill: unresolved city, scoping by name only", zap.String("city", norm))
	} else {
		var err error
		shapes, err = c.boundaries.Get(ctx, code)
		if err != nil {
			zap.L().Warn("drill: city boundary unavailable",
				zap.String("city", norm),
				zap.String("adcode", code),
				zap.Error(err))
			shapes = nil
		}
	}

	c.mu.Lock()
	c.state = State{
		Stage:        StageCity,
		Province:     c.state.Province,
		ProvinceCode: c.state.ProvinceCode,
		City:         norm,
		CityCode:     code,
		ResetToken:   c.state.ResetToken,
	}
	st := c.state
	c.mu.Unlock()
	return st, shapes, nil
}

// SelectStore records a store or venue selection without changing stage.
func (c *Controller) SelectStore(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedID = id
	return c.state
}

// ClearSelection drops the record selection without changing stage.
func (c *Controller) ClearSelection() State {
	return c.SelectStore("")
}

// Reset returns to the overview and bumps the reset token. The token moves
// even when the controller is already at the overview, so the camera
// re-homes on every reset request.
func (c *Controller) Reset() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cityIndex = make(map[string]string)
	c.state = State{
		Stage:      StageOverview,
		ResetToken: c.state.ResetToken + 1,
	}
	return c.state
}

func (c *Controller) lookupProvince(norm string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provinceIndex[norm]
}

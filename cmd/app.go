package main

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandatlas/footprint/internal/boundary"
	"github.com/brandatlas/footprint/internal/dataset"
	"github.com/brandatlas/footprint/internal/engine"
	"github.com/brandatlas/footprint/internal/favorites"
	"github.com/brandatlas/footprint/internal/mapkit"
	"github.com/brandatlas/footprint/internal/model"
	"github.com/brandatlas/footprint/internal/overlay"
	"github.com/brandatlas/footprint/internal/viewport"
)

// appEnv bundles the wired dashboard components a command runs against.
type appEnv struct {
	engine   *engine.Engine
	surface  *mapkit.Headless
	cache    *boundary.Cache
	favStore favorites.Store
	brands   model.BrandSet
	stores   []model.StoreRecord
	malls    []model.MallRecord
}

func (e *appEnv) Close() {
	if e.favStore != nil {
		if err := e.favStore.Close(); err != nil {
			zap.L().Warn("close favorites store", zap.Error(err))
		}
	}
}

// loadDatasets reads the brand config and both record feeds. Feeds ending in
// .xlsx are read as workbooks, anything else as JSON. A missing or empty mall
// feed is tolerated; the mall layer just stays empty.
func loadDatasets() (model.BrandSet, []model.StoreRecord, []model.MallRecord, error) {
	brands, err := dataset.LoadBrands(cfg.Data.BrandsPath)
	if err != nil {
		return model.BrandSet{}, nil, nil, err
	}

	stores, err := loadStoreFeed(cfg.Data.StoresPath, brands)
	if err != nil {
		return model.BrandSet{}, nil, nil, err
	}

	var malls []model.MallRecord
	if cfg.Data.MallsPath != "" {
		malls, err = loadMallFeed(cfg.Data.MallsPath)
		if err != nil {
			zap.L().Warn("mall feed unavailable, venue layer disabled",
				zap.String("path", cfg.Data.MallsPath), zap.Error(err))
			malls = nil
		}
	}
	return brands, stores, malls, nil
}

func loadStoreFeed(path string, brands model.BrandSet) ([]model.StoreRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return dataset.LoadStoresXLSX(path, brands)
	}
	return dataset.LoadStores(path, brands)
}

func loadMallFeed(path string) ([]model.MallRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return dataset.LoadMallsXLSX(path)
	}
	return dataset.LoadMalls(path)
}

// newBoundaryCache wires the boundary cascade: the public HTTP service
// first, mirrored shapefiles as the offline fallback.
func newBoundaryCache() *boundary.Cache {
	sources := []boundary.Source{
		boundary.NewHTTPSource(
			boundary.WithBaseURL(cfg.Boundary.BaseURL),
			boundary.WithRateLimit(cfg.Boundary.RateLimitRPS),
		),
	}
	if cfg.Boundary.MirrorDir != "" {
		sources = append(sources, boundary.NewShapefileSource(cfg.Boundary.MirrorDir))
	}
	return boundary.NewCache(boundary.NewCascadeSource(sources...))
}

// newFavoritesTracker builds the persistence backend named by the config.
func newFavoritesTracker(ctx context.Context) (*favorites.Tracker, favorites.Store, error) {
	var st favorites.Store
	switch cfg.Favorites.Driver {
	case "memory":
		st = favorites.NewMemory()
	case "sqlite":
		sq, err := favorites.NewSQLite(cfg.Favorites.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := sq.Migrate(ctx); err != nil {
			_ = sq.Close()
			return nil, nil, eris.Wrap(err, "migrate favorites store")
		}
		st = sq
	case "postgres":
		pg, err := favorites.NewPostgres(ctx, cfg.Favorites.DatabaseURL, nil)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, eris.Wrap(err, "migrate favorites store")
		}
		st = pg
	default:
		return nil, nil, eris.Errorf("unknown favorites driver %q", cfg.Favorites.Driver)
	}

	tracker, err := favorites.NewTracker(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return tracker, st, nil
}

// initApp wires the full dashboard engine from configuration.
func initApp(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate("serve"); err != nil {
		return nil, err
	}

	brands, stores, malls, err := loadDatasets()
	if err != nil {
		return nil, err
	}

	tracker, favStore, err := newFavoritesTracker(ctx)
	if err != nil {
		return nil, err
	}

	home := mapkit.Camera{
		Center: model.Coordinate{Lat: cfg.Map.HomeLat, Lng: cfg.Map.HomeLng},
		Zoom:   cfg.Map.HomeZoom,
	}
	surface := mapkit.NewHeadless(cfg.Map.Width, cfg.Map.Height, home)
	cache := newBoundaryCache()

	eng, err := engine.New(engine.Config{
		Brands:     brands,
		Stores:     stores,
		Malls:      malls,
		Boundaries: cache,
		Favorites:  tracker,
		SDK: func(context.Context) (mapkit.Surface, error) {
			return surface, nil
		},
	},
		engine.WithNewWindow(time.Duration(cfg.Map.NewWindowDays)*24*time.Hour),
		engine.WithClusterOptions(overlay.ClusterOptions{
			MaxZoom:       cfg.Map.Cluster.MaxZoom,
			CellSizePx:    cfg.Map.Cluster.CellSizePx,
			MinDiameterPx: cfg.Map.Cluster.MinDiameterPx,
			MaxDiameterPx: cfg.Map.Cluster.MaxDiameterPx,
		}),
		engine.WithViewport(
			viewport.WithHome(home),
			viewport.WithPopupHeight(cfg.Map.PopupHeightPx),
			viewport.WithMinFocusZoom(cfg.Map.MinFocusZoom),
		),
	)
	if err != nil {
		_ = favStore.Close()
		return nil, err
	}

	env := &appEnv{
		engine:   eng,
		surface:  surface,
		cache:    cache,
		favStore: favStore,
		brands:   brands,
		stores:   stores,
		malls:    malls,
	}
	return env, nil
}

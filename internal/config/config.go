package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Boundary  BoundaryConfig  `yaml:"boundary" mapstructure:"boundary"`
	Favorites FavoritesConfig `yaml:"favorites" mapstructure:"favorites"`
	Map       MapConfig       `yaml:"map" mapstructure:"map"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input feeds.
type DataConfig struct {
	StoresPath string `yaml:"stores_path" mapstructure:"stores_path"`
	MallsPath  string `yaml:"malls_path" mapstructure:"malls_path"`
	BrandsPath string `yaml:"brands_path" mapstructure:"brands_path"`
}

// BoundaryConfig configures the administrative boundary sources.
type BoundaryConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimitRPS     float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	MirrorDir        string  `yaml:"mirror_dir" mapstructure:"mirror_dir"`
	ArchiveURL       string  `yaml:"archive_url" mapstructure:"archive_url"`
	PrefetchParallel int     `yaml:"prefetch_parallel" mapstructure:"prefetch_parallel"`
}

// FavoritesConfig configures the favorites persistence backend.
type FavoritesConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // memory, sqlite or postgres
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite database file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MapConfig configures the rendering surface and camera policy.
type MapConfig struct {
	Width         int           `yaml:"width" mapstructure:"width"`
	Height        int           `yaml:"height" mapstructure:"height"`
	HomeLat       float64       `yaml:"home_lat" mapstructure:"home_lat"`
	HomeLng       float64       `yaml:"home_lng" mapstructure:"home_lng"`
	HomeZoom      float64       `yaml:"home_zoom" mapstructure:"home_zoom"`
	PopupHeightPx float64       `yaml:"popup_height_px" mapstructure:"popup_height_px"`
	MinFocusZoom  float64       `yaml:"min_focus_zoom" mapstructure:"min_focus_zoom"`
	NewWindowDays int           `yaml:"new_window_days" mapstructure:"new_window_days"`
	Cluster       ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
}

// ClusterConfig tunes marker clustering.
type ClusterConfig struct {
	MaxZoom       float64 `yaml:"max_zoom" mapstructure:"max_zoom"`
	CellSizePx    float64 `yaml:"cell_size_px" mapstructure:"cell_size_px"`
	MinDiameterPx float64 `yaml:"min_diameter_px" mapstructure:"min_diameter_px"`
	MaxDiameterPx float64 `yaml:"max_diameter_px" mapstructure:"max_diameter_px"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FOOTPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.stores_path", "data/stores.json")
	v.SetDefault("data.malls_path", "data/malls.json")
	v.SetDefault("data.brands_path", "data/brands.yaml")
	v.SetDefault("boundary.base_url", "https://geo.datav.aliyun.com/areas_v3/bound")
	v.SetDefault("boundary.rate_limit_rps", 4.0)
	v.SetDefault("boundary.mirror_dir", "data/boundaries")
	v.SetDefault("boundary.prefetch_parallel", 4)
	v.SetDefault("favorites.driver", "sqlite")
	v.SetDefault("favorites.path", "footprint.db")
	v.SetDefault("map.width", 1280)
	v.SetDefault("map.height", 800)
	v.SetDefault("map.home_lat", 35.0)
	v.SetDefault("map.home_lng", 105.0)
	v.SetDefault("map.home_zoom", 4.0)
	v.SetDefault("map.popup_height_px", 180.0)
	v.SetDefault("map.min_focus_zoom", 14.0)
	v.SetDefault("map.new_window_days", 90)
	v.SetDefault("map.cluster.max_zoom", 11.0)
	v.SetDefault("map.cluster.cell_size_px", 60.0)
	v.SetDefault("map.cluster.min_diameter_px", 36.0)
	v.SetDefault("map.cluster.max_diameter_px", 72.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given run mode. Problems are
// accumulated so one run surfaces every missing or out-of-range field.
func (c *Config) Validate(mode string) error {
	var problems []string

	appendBounds := func() {
		if c.Map.Width <= 0 || c.Map.Height <= 0 {
			problems = append(problems, "map.width and map.height must be > 0")
		}
		if c.Map.NewWindowDays < 0 {
			problems = append(problems, "map.new_window_days must be >= 0")
		}
		cl := c.Map.Cluster
		if cl.MinDiameterPx <= 0 || cl.MaxDiameterPx < cl.MinDiameterPx {
			problems = append(problems, "map.cluster diameters must satisfy 0 < min <= max")
		}
		if cl.CellSizePx <= 0 {
			problems = append(problems, "map.cluster.cell_size_px must be > 0")
		}
		if c.Boundary.RateLimitRPS <= 0 {
			problems = append(problems, "boundary.rate_limit_rps must be > 0")
		}
		if c.Boundary.PrefetchParallel < 1 || c.Boundary.PrefetchParallel > 16 {
			problems = append(problems, "boundary.prefetch_parallel must be between 1 and 16")
		}
	}

	appendData := func() {
		if c.Data.StoresPath == "" {
			problems = append(problems, "data.stores_path is required")
		}
		if c.Data.BrandsPath == "" {
			problems = append(problems, "data.brands_path is required")
		}
	}

	appendFavorites := func() {
		switch c.Favorites.Driver {
		case "memory":
		case "sqlite":
			if c.Favorites.Path == "" {
				problems = append(problems, "favorites.path is required for the sqlite driver")
			}
		case "postgres":
			if c.Favorites.DatabaseURL == "" {
				problems = append(problems, "favorites.database_url is required for the postgres driver")
			}
		default:
			problems = append(problems, "favorites.driver must be memory, sqlite or postgres")
		}
	}

	switch mode {
	case "analyze":
		appendData()
		appendBounds()
	case "serve":
		appendData()
		appendFavorites()
		appendBounds()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "boundaries":
		if c.Boundary.MirrorDir == "" {
			problems = append(problems, "boundary.mirror_dir is required")
		}
		appendBounds()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

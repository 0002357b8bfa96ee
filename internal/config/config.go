// Package config loads cityscape configuration from cityscape.yaml and
// CITYSCAPE_* environment variables, and sets up the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cityscape/internal/palette"
	"cityscape/internal/projection"
	"cityscape/internal/scene"
)

// Config is the root configuration.
type Config struct {
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Palette    palette.Ramp     `yaml:"palette" mapstructure:"palette"`
	Scene      SceneConfig      `yaml:"scene" mapstructure:"scene"`
	View       ViewConfig       `yaml:"view" mapstructure:"view"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ProjectionConfig is the local tangent-plane origin.
type ProjectionConfig struct {
	OriginLon float64 `yaml:"origin_lon" mapstructure:"origin_lon"`
	OriginLat float64 `yaml:"origin_lat" mapstructure:"origin_lat"`
}

type SceneConfig struct {
	HeightPolicy     string  `yaml:"height_policy" mapstructure:"height_policy"`
	MinExtrudeHeight float64 `yaml:"min_extrude_height" mapstructure:"min_extrude_height"`
	Highlight        string  `yaml:"highlight" mapstructure:"highlight"`
}

// ViewConfig configures the terminal viewer.
type ViewConfig struct {
	Source      string  `yaml:"source" mapstructure:"source"` // file path or URL loaded at start
	Dir         string  `yaml:"dir" mapstructure:"dir"`       // directory listed in the sidebar
	Tilt        float64 `yaml:"tilt" mapstructure:"tilt"`
	Outline     bool    `yaml:"outline" mapstructure:"outline"`
	MetricsAddr string  `yaml:"metrics_addr" mapstructure:"metrics_addr"` // empty disables the viewer's /metrics listener
}

// ServerConfig configures the building service.
type ServerConfig struct {
	Port   int    `yaml:"port" mapstructure:"port"`
	Source string `yaml:"source" mapstructure:"source"`
}

// LogConfig configures logging. An empty File logs to stderr.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("cityscape")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CITYSCAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	ramp := palette.DefaultRamp()
	v.SetDefault("projection.origin_lon", projection.DefaultOriginLon)
	v.SetDefault("projection.origin_lat", projection.DefaultOriginLat)
	v.SetDefault("palette.min_height", ramp.MinHeight)
	v.SetDefault("palette.max_height", ramp.MaxHeight)
	v.SetDefault("palette.min_lightness", ramp.MinLightness)
	v.SetDefault("palette.max_lightness", ramp.MaxLightness)
	v.SetDefault("palette.hue", ramp.Hue)
	v.SetDefault("palette.saturation", ramp.Saturation)
	v.SetDefault("scene.height_policy", string(scene.PolicyReject))
	v.SetDefault("scene.min_extrude_height", scene.DefaultMinExtrudeHeight)
	v.SetDefault("scene.highlight", palette.HighlightHex)
	v.SetDefault("view.source", "")
	v.SetDefault("view.dir", ".")
	v.SetDefault("view.tilt", 0.5)
	v.SetDefault("view.outline", true)
	v.SetDefault("view.metrics_addr", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.source", "buildings.geojson")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

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

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if err := c.Palette.Validate(); err != nil {
		return eris.Wrap(err, "config")
	}
	if _, err := scene.ParseHeightPolicy(c.Scene.HeightPolicy); err != nil {
		return eris.Wrap(err, "config")
	}
	if _, err := palette.ParseHex(c.Scene.Highlight); err != nil {
		return eris.Wrap(err, "config")
	}
	if c.View.Tilt < 0 || c.View.Tilt > 2 {
		return eris.Errorf("config: view.tilt must be within [0, 2], got %v", c.View.Tilt)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// SceneOptions assembles scene.Options from the projection, palette and
// scene sections.
func (c *Config) SceneOptions() (scene.Options, error) {
	policy, err := scene.ParseHeightPolicy(c.Scene.HeightPolicy)
	if err != nil {
		return scene.Options{}, eris.Wrap(err, "config")
	}
	highlight, err := palette.ParseHex(c.Scene.Highlight)
	if err != nil {
		return scene.Options{}, eris.Wrap(err, "config")
	}
	return scene.Options{
		Origin:           projection.Origin{Lon: c.Projection.OriginLon, Lat: c.Projection.OriginLat},
		Ramp:             c.Palette,
		Policy:           policy,
		MinExtrudeHeight: c.Scene.MinExtrudeHeight,
		Highlight:        highlight,
	}, nil
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

	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Package config loads ls-transit settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/litescript/ls-transit/internal/logging"
	"github.com/litescript/ls-transit/internal/scale"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/texture"
	"github.com/litescript/ls-transit/internal/transit"
)

// EnvPrefix prefixes environment overrides, e.g. LS_TRANSIT_ANALYSIS_ENDPOINT.
const EnvPrefix = "LS_TRANSIT"

// Config represents the complete application configuration
type Config struct {
	Scene    SceneConfig    `mapstructure:"scene"`
	Transit  TransitConfig  `mapstructure:"transit"`
	Texture  TextureConfig  `mapstructure:"texture"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SceneConfig holds the animation driver and scale settings
type SceneConfig struct {
	Mode             string        `mapstructure:"mode"`
	TimeScale        float64       `mapstructure:"time_scale"`
	Tick             time.Duration `mapstructure:"tick"`
	Didactic         bool          `mapstructure:"didactic"`
	RadiusScale      float64       `mapstructure:"radius_scale"`
	MinVisibleRadius float64       `mapstructure:"min_visible_radius"`
	DistanceScale    float64       `mapstructure:"distance_scale"`
	MinOrbitRadius   float64       `mapstructure:"min_orbit_radius"`
	PeriodScale      float64       `mapstructure:"period_scale"`
}

// TransitConfig holds the light-curve simulator defaults
type TransitConfig struct {
	StarRadius        float64 `mapstructure:"star_radius"`
	PlanetRadius      float64 `mapstructure:"planet_radius"`
	Period            float64 `mapstructure:"period"`
	Inclination       float64 `mapstructure:"inclination"`
	LimbDarkening     float64 `mapstructure:"limb_darkening"`
	StellarNoise      float64 `mapstructure:"stellar_noise"`
	InstrumentalNoise float64 `mapstructure:"instrumental_noise"`
	Window            int     `mapstructure:"window"`
	CurvePoints       int     `mapstructure:"curve_points"`
	DaysPerTick       float64 `mapstructure:"days_per_tick"`
	Seed              uint64  `mapstructure:"seed"`
}

// TextureConfig holds surface synthesis settings
type TextureConfig struct {
	Width  int  `mapstructure:"width"`
	Height int  `mapstructure:"height"`
	Storms bool `mapstructure:"storms"`
}

// AnalysisConfig holds the remote classifier settings
type AnalysisConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `mapstructure:"burst"`
}

// ServerConfig holds the frame stream server settings
type ServerConfig struct {
	Addr          string        `mapstructure:"addr"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from path, or searches the working directory and
// ~/.config/ls-transit for ls-transit.{yaml,toml,json} when path is empty.
// A missing searched-for file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ls-transit")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ls-transit")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Scene defaults
	v.SetDefault("scene.mode", "simplified")
	v.SetDefault("scene.time_scale", 1.0)
	v.SetDefault("scene.tick", "80ms")
	v.SetDefault("scene.didactic", true)
	v.SetDefault("scene.radius_scale", scale.RadiusScale)
	v.SetDefault("scene.min_visible_radius", scale.MinVisibleRadius)
	v.SetDefault("scene.distance_scale", scale.DistanceScale)
	v.SetDefault("scene.min_orbit_radius", scale.MinOrbitRadius)
	v.SetDefault("scene.period_scale", scale.PeriodScale)

	// Transit defaults
	t := transit.DefaultOptions()
	v.SetDefault("transit.star_radius", t.StarRadius)
	v.SetDefault("transit.planet_radius", t.PlanetRadius)
	v.SetDefault("transit.period", t.OrbitalPeriod)
	v.SetDefault("transit.inclination", t.InclinationDeg)
	v.SetDefault("transit.limb_darkening", t.LimbDarkening)
	v.SetDefault("transit.stellar_noise", t.StellarNoise)
	v.SetDefault("transit.instrumental_noise", t.InstrumentalNoise)
	v.SetDefault("transit.window", transit.DefaultWindow)
	v.SetDefault("transit.curve_points", transit.CurvePoints)
	v.SetDefault("transit.days_per_tick", 0.01)
	v.SetDefault("transit.seed", 42)

	// Texture defaults
	v.SetDefault("texture.width", texture.DefaultWidth)
	v.SetDefault("texture.height", texture.DefaultHeight)
	v.SetDefault("texture.storms", true)

	// Analysis defaults
	v.SetDefault("analysis.endpoint", "http://localhost:8000/analyze")
	v.SetDefault("analysis.timeout", "60s")
	v.SetDefault("analysis.rate_limit", 1.0)
	v.SetDefault("analysis.burst", 2)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.frame_interval", "100ms")
	v.SetDefault("server.write_timeout", "5s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Scene config
	if c.Scene.Mode != "simplified" && c.Scene.Mode != "realistic" {
		return fmt.Errorf("scene.mode must be one of: simplified, realistic")
	}
	if c.Scene.TimeScale <= 0 {
		return fmt.Errorf("scene.time_scale must be positive")
	}
	if c.Scene.Tick < 10*time.Millisecond {
		return fmt.Errorf("scene.tick must be at least 10ms")
	}
	if c.Scene.RadiusScale <= 0 || c.Scene.DistanceScale <= 0 || c.Scene.PeriodScale <= 0 {
		return fmt.Errorf("scene scale factors must be positive")
	}
	if c.Scene.MinVisibleRadius < 0 || c.Scene.MinOrbitRadius < 0 {
		return fmt.Errorf("scene minimum radii must not be negative")
	}

	// Validate Transit config
	if _, err := transit.NewParams(c.Transit.Options()); err != nil {
		return fmt.Errorf("transit: %w", err)
	}
	if c.Transit.Window < 1 {
		return fmt.Errorf("transit.window must be at least 1")
	}
	if c.Transit.CurvePoints < 2 {
		return fmt.Errorf("transit.curve_points must be at least 2")
	}
	if c.Transit.DaysPerTick <= 0 {
		return fmt.Errorf("transit.days_per_tick must be positive")
	}

	// Validate Texture config
	if c.Texture.Width < 8 || c.Texture.Height < 4 {
		return fmt.Errorf("texture size must be at least 8x4")
	}

	// Validate Analysis config
	if c.Analysis.Endpoint == "" {
		return fmt.Errorf("analysis.endpoint is required")
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis.timeout must be positive")
	}
	if c.Analysis.RateLimit < 0 {
		return fmt.Errorf("analysis.rate_limit must not be negative")
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.FrameInterval < 10*time.Millisecond {
		return fmt.Errorf("server.frame_interval must be at least 10ms")
	}

	// Validate Logging config
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

// Scaler returns the configured scale constants.
func (s SceneConfig) Scaler() scale.Scaler {
	return scale.Scaler{
		RadiusScale:      s.RadiusScale,
		MinVisibleRadius: s.MinVisibleRadius,
		DistanceScale:    s.DistanceScale,
		MinOrbitRadius:   s.MinOrbitRadius,
		PeriodScale:      s.PeriodScale,
	}
}

// DriverConfig returns the scene driver settings.
func (s SceneConfig) DriverConfig() scene.Config {
	return scene.Config{
		TimeScale: s.TimeScale,
		Mode:      scene.ParseMode(s.Mode),
		Scaler:    s.Scaler(),
	}
}

// Options returns the transit simulator inputs.
func (t TransitConfig) Options() transit.Options {
	return transit.Options{
		StarRadius:        t.StarRadius,
		PlanetRadius:      t.PlanetRadius,
		OrbitalPeriod:     t.Period,
		InclinationDeg:    t.Inclination,
		LimbDarkening:     t.LimbDarkening,
		StellarNoise:      t.StellarNoise,
		InstrumentalNoise: t.InstrumentalNoise,
	}
}

// Options returns the texture synthesis options.
func (t TextureConfig) Options() texture.Options {
	return texture.Options{Width: t.Width, Height: t.Height, Storms: t.Storms}
}

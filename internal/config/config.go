package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/projection"
)

// Prefix is the environment variable prefix, e.g. REGIONPAINT_MARGIN.
const Prefix = "regionpaint"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	// File, when set, names a TOML file whose values override the
	// environment.
	File string `envconfig:"CONFIG" toml:"-"`

	Background        string        `envconfig:"BACKGROUND" default:"black" toml:"background"`
	Margin            float64       `envconfig:"MARGIN" default:"0.10" toml:"margin"`
	SimplifyEpsilon   float64       `envconfig:"SIMPLIFY_EPSILON" default:"0" toml:"simplify_epsilon"`
	SimplifyMinPoints int           `envconfig:"SIMPLIFY_MIN_POINTS" default:"200" toml:"simplify_min_points"`
	MinSegmentPx      float64       `envconfig:"MIN_SEGMENT_PX" default:"0.8" toml:"min_segment_px"`
	Animate           bool          `envconfig:"ANIMATE" default:"true" toml:"animate"`
	Delay             time.Duration `envconfig:"DELAY" default:"80ms" toml:"-"`
	Order             string        `envconfig:"ORDER" default:"area" toml:"order"`
	UpdateEvery       int           `envconfig:"UPDATE_EVERY" default:"300" toml:"update_every"`
	WaitAtEnd         bool          `envconfig:"WAIT_AT_END" default:"true" toml:"wait_at_end"`
	Width             int           `envconfig:"WIDTH" default:"1000" toml:"width"`
	Height            int           `envconfig:"HEIGHT" default:"800" toml:"height"`
	Seed              uint64        `envconfig:"SEED" default:"0" toml:"seed"`
	Output            string        `envconfig:"OUTPUT" default:"regions.png" toml:"output"`
	FrameDir          string        `envconfig:"FRAME_DIR" toml:"frame_dir"`

	Port           int    `envconfig:"PORT" default:"8080" toml:"port"`
	DatabaseURL    string `envconfig:"DATABASE_URL" toml:"database_url"`
	DocumentDir    string `envconfig:"DOCUMENT_DIR" default:"./data/documents" toml:"document_dir"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production" toml:"jwt_secret"`
	FfmpegPath     string `envconfig:"FFMPEG_PATH" default:"ffmpeg" toml:"ffmpeg_path"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"localhost:5173,localhost:3000" toml:"allowed_origins"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info" toml:"log_level"`
}

// Load reads the environment, applies the optional TOML file and validates
// the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.File != "" {
		if err := cfg.ApplyFile(cfg.File); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyFile overlays the values present in a TOML file.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.ApplyTOML(data)
}

// ApplyTOML overlays the keys present in data; absent keys keep their value.
// Durations are written as strings such as "40ms".
func (c *Config) ApplyTOML(data []byte) error {
	var durations struct {
		Delay *string `toml:"delay"`
	}
	if err := toml.Unmarshal(data, &durations); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}

	next := *c
	if err := toml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	if durations.Delay != nil {
		d, err := time.ParseDuration(*durations.Delay)
		if err != nil {
			return fmt.Errorf("%w: delay: %w", ErrInvalid, err)
		}
		next.Delay = d
	}
	*c = next
	return nil
}

// Validate rejects values the renderer cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.Margin < 0 || c.Margin > projection.MaxMargin {
		errs = append(errs, fmt.Errorf("margin %v outside [0, %v]", c.Margin, projection.MaxMargin))
	}
	if c.SimplifyEpsilon < 0 {
		errs = append(errs, fmt.Errorf("simplify epsilon %v is negative", c.SimplifyEpsilon))
	}
	if c.SimplifyMinPoints < 0 {
		errs = append(errs, fmt.Errorf("simplify min points %d is negative", c.SimplifyMinPoints))
	}
	if c.MinSegmentPx < 0 {
		errs = append(errs, fmt.Errorf("min segment %v is negative", c.MinSegmentPx))
	}
	if c.Delay <= 0 || c.Delay > engine.MaxDelay {
		errs = append(errs, fmt.Errorf("delay %v outside (0, %v]", c.Delay, engine.MaxDelay))
	}
	if c.UpdateEvery <= 0 {
		errs = append(errs, fmt.Errorf("update every %d is not positive", c.UpdateEvery))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d is not positive", c.Width, c.Height))
	}
	if _, err := geometry.ParseOrder(c.Order); err != nil {
		errs = append(errs, err)
	}
	if _, err := colorspec.Parse(c.Background); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Pipeline returns the geometry settings for engine.Prepare.
func (c *Config) Pipeline() engine.PipelineOptions {
	order, _ := geometry.ParseOrder(c.Order)
	return engine.PipelineOptions{
		Margin:            c.Margin,
		SimplifyEpsilon:   c.SimplifyEpsilon,
		SimplifyMinPoints: c.SimplifyMinPoints,
		MinSegmentPx:      c.MinSegmentPx,
		Order:             order,
		Width:             c.Width,
		Height:            c.Height,
	}
}

// Origins splits AllowedOrigins into websocket origin patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

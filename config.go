package lumen

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
)

// Config is the host-facing configuration file. Every section is optional;
// missing keys keep the values from DefaultConfig.
//
//	[render]
//	width = 1280
//	height = 720
//	background = "#171717"   # or a CSS name such as "midnightblue"
//	kernel = "bilinear"
//
//	[animation]
//	transition_ms = 2000
//	easing = "easeInOut"
//	mode = "pingpong"
//
//	[audio]
//	low = 1.0
//
//	[log]
//	level = "debug"
type Config struct {
	Render    RenderSection    `toml:"render"`
	Animation AnimationSection `toml:"animation"`
	Audio     AudioGains       `toml:"audio"`
	Log       LogSection       `toml:"log"`
	Remote    RemoteSection    `toml:"remote"`
	Paths     PathsSection     `toml:"paths"`
	Seed      uint64           `toml:"seed"`
}

// RenderSection configures the output raster.
type RenderSection struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
	Kernel     Kernel `toml:"kernel"`
}

// AnimationSection configures the snapshot transport.
type AnimationSection struct {
	TransitionMS int      `toml:"transition_ms"`
	Easing       Easing   `toml:"easing"`
	Mode         PlayMode `toml:"mode"`
	StrobeSafety bool     `toml:"strobe_safety"`
	LockGeometry bool     `toml:"lock_geometry"`
}

// LogSection configures the package logger installed by hosts.
type LogSection struct {
	Level string `toml:"level"`
	// Debug enables per-frame timing logs.
	Debug bool `toml:"debug"`
}

// RemoteSection configures the remote control server. An empty Addr
// disables it.
type RemoteSection struct {
	Addr string `toml:"addr"`
}

// PathsSection names files and directories used by hosts.
type PathsSection struct {
	Presets   string `toml:"presets"`
	ExportDir string `toml:"export_dir"`
	Source    string `toml:"source"`
	Cue       string `toml:"cue"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Render: RenderSection{
			Width:      960,
			Height:     540,
			Background: "#171717",
			Kernel:     KernelBilinear,
		},
		Animation: AnimationSection{TransitionMS: int(defaultTransition / time.Millisecond)},
		Audio:     AudioGains{Low: 1, Mid: 1, High: 1},
		Log:       LogSection{Level: "info"},
		Paths:     PathsSection{ExportDir: "exports"},
	}
}

// LoadConfig decodes TOML from r on top of DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if _, err := cfg.Background(); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a TOML config from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Background parses the configured background colour.
func (c Config) Background() (Color, error) {
	return ParseColor(c.Render.Background)
}

// LogLevel returns the configured slog level.
func (c Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

// EngineConfig converts the file configuration into engine settings. The
// preset book is left nil; hosts load Paths.Presets themselves.
func (c Config) EngineConfig() EngineConfig {
	bg, _ := c.Background()
	return EngineConfig{
		Render: RenderConfig{
			Width:      c.Render.Width,
			Height:     c.Render.Height,
			Background: bg,
			Kernel:     c.Render.Kernel,
		},
		Transport: TransportConfig{
			TransitionTime: time.Duration(c.Animation.TransitionMS) * time.Millisecond,
			Easing:         c.Animation.Easing,
			Mode:           c.Animation.Mode,
			StrobeSafety:   c.Animation.StrobeSafety,
			LockGeometry:   c.Animation.LockGeometry,
		},
		Audio:     c.Audio,
		ExportDir: c.Paths.ExportDir,
		Seed:      c.Seed,
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" or a CSS colour name.
// An empty string is DefaultBackground.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultBackground, nil
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return parseHex(hex)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: float64(c.A) / 255}, nil
	}
	return Color{}, fmt.Errorf("unknown colour %q", s)
}

func parseHex(hex string) (Color, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("bad hex colour %q", "#"+hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("bad hex colour %q: %w", "#"+hex, err)
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

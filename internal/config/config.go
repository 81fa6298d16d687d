package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// HardMaxPages is the ceiling on data pages. No config can raise it.
const HardMaxPages = 16

type Config struct {
	AppName    string          `toml:"app_name"`
	SocketPath string          `toml:"socket_path"`
	ConfigDir  string          `toml:"config_dir"`
	Grid       GridConfig      `toml:"grid"`
	Pages      PagesConfig     `toml:"pages"`
	Scheduler  SchedulerConfig `toml:"scheduler"`
	Log        LogConfig       `toml:"log"`
	Metrics    MetricsConfig   `toml:"metrics"`
	Theme      ThemeConfig     `toml:"theme"`
}

type GridConfig struct {
	MaxPages        int     `toml:"max_pages"`
	UsageRatio      float64 `toml:"usage_ratio"`
	MinCellSize     int     `toml:"min_cell_size"`
	ViewportWidth   int     `toml:"viewport_width"`
	ViewportHeight  int     `toml:"viewport_height"`
	ViewportSource  string  `toml:"viewport_source"` // "fixed" or "sway"
	LayoutCacheSize int     `toml:"layout_cache_size"`
}

type PagesConfig struct {
	Fields       []string `toml:"fields"`
	UtilityPage  bool     `toml:"utility_page"`
	TitleFormat  string   `toml:"title_format"`
	UtilityTitle string   `toml:"utility_title"`
}

type SchedulerConfig struct {
	IntervalMs int `toml:"interval_ms"`
	SampleMin  int `toml:"sample_min"`
	SampleMax  int `toml:"sample_max"`
}

// Interval returns the sampling period as a duration.
func (c SchedulerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

type ThemeConfig struct {
	Dark      bool   `toml:"dark"`
	CustomCSS string `toml:"custom_css"`
}

var DefaultConfig = Config{
	AppName:    "pagegrid",
	SocketPath: "/tmp/pagegrid_socket",
	ConfigDir:  "~/.config/pagegrid",
	Grid: GridConfig{
		MaxPages:        HardMaxPages,
		UsageRatio:      0.8,
		MinCellSize:     100,
		ViewportWidth:   1700,
		ViewportHeight:  900,
		ViewportSource:  "fixed",
		LayoutCacheSize: 64,
	},
	Pages: PagesConfig{
		Fields:       []string{"x", "y", "z"},
		UtilityPage:  true,
		TitleFormat:  "Page %d",
		UtilityTitle: "Calculator",
	},
	Scheduler: SchedulerConfig{
		IntervalMs: 2000,
		SampleMin:  1,
		SampleMax:  10,
	},
	Log: LogConfig{
		Level:      "info",
		File:       "~/.cache/pagegrid/pagegrid.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
	},
	Metrics: MetricsConfig{
		Enabled: false,
		Address: "127.0.0.1:9464",
	},
	Theme: ThemeConfig{
		Dark:      false,
		CustomCSS: "~/.config/pagegrid/style.css",
	},
}

// Default returns a deep copy of DefaultConfig.
func Default() *Config {
	cfg := DefaultConfig
	cfg.Pages.Fields = append([]string(nil), DefaultConfig.Pages.Fields...)
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	expandedPath := expandPath(path)

	// Unset keys keep their default values.
	cfg := Default()

	data, err := os.ReadFile(expandedPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ConfigDir = expandPath(cfg.ConfigDir)
	cfg.SocketPath = expandPath(cfg.SocketPath)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Theme.CustomCSS = expandPath(cfg.Theme.CustomCSS)

	return cfg, nil
}

func LoadAndValidateConfig(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		usr, err := user.Current()
		if err == nil {
			return filepath.Join(usr.HomeDir, path[1:])
		}
	}
	return path
}

func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(expandedPath, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.validateGrid(); err != nil {
		return err
	}
	if err := c.validatePages(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGrid() error {
	g := c.Grid
	if g.MaxPages < 1 || g.MaxPages > HardMaxPages {
		return fmt.Errorf("invalid max_pages: %d (must be 1-%d)", g.MaxPages, HardMaxPages)
	}
	if g.UsageRatio <= 0 || g.UsageRatio > 1 {
		return fmt.Errorf("invalid usage_ratio: %v (must be in (0, 1])", g.UsageRatio)
	}
	if g.MinCellSize < 1 {
		return fmt.Errorf("invalid min_cell_size: %d (must be >= 1)", g.MinCellSize)
	}
	if g.ViewportWidth < 100 || g.ViewportWidth > 10000 {
		return fmt.Errorf("invalid viewport_width: %d (must be 100-10000)", g.ViewportWidth)
	}
	if g.ViewportHeight < 100 || g.ViewportHeight > 10000 {
		return fmt.Errorf("invalid viewport_height: %d (must be 100-10000)", g.ViewportHeight)
	}
	switch g.ViewportSource {
	case "", "fixed", "sway":
	default:
		return fmt.Errorf("invalid viewport_source: %s (must be one of: fixed, sway)", g.ViewportSource)
	}
	if g.LayoutCacheSize < 1 || g.LayoutCacheSize > 4096 {
		return fmt.Errorf("invalid layout_cache_size: %d (must be 1-4096)", g.LayoutCacheSize)
	}
	return nil
}

func (c *Config) validatePages() error {
	p := c.Pages
	if len(p.Fields) == 0 {
		return fmt.Errorf("pages.fields must name at least one field")
	}
	seen := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("pages.fields contains an empty name")
		}
		if seen[f] {
			return fmt.Errorf("pages.fields contains duplicate name: %s", f)
		}
		seen[f] = true
	}
	verbs := strings.ReplaceAll(p.TitleFormat, "%%", "")
	if strings.Count(verbs, "%") != 1 || strings.Count(verbs, "%d") != 1 {
		return fmt.Errorf("invalid title_format: %q (must contain exactly one %%d)", p.TitleFormat)
	}
	return nil
}

func (c *Config) validateScheduler() error {
	s := c.Scheduler
	if s.IntervalMs < 1 || s.IntervalMs > 3600000 {
		return fmt.Errorf("invalid interval_ms: %d (must be 1-3600000)", s.IntervalMs)
	}
	if s.SampleMin > s.SampleMax {
		return fmt.Errorf("invalid sample range: %d..%d (min must not exceed max)", s.SampleMin, s.SampleMax)
	}
	return nil
}

func (c *Config) validateLog() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("invalid log rotation: max_size_mb=%d max_backups=%d (must be >= 0)", c.Log.MaxSizeMB, c.Log.MaxBackups)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics enabled but no address provided")
	}
	return nil
}

func ValidateConfig(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"gamelib/internal/browse"
	"gamelib/internal/cover"
	"gamelib/internal/virtual"
)

const (
	// EnvPrefix namespaces environment overrides: GAMELIB_SOURCE,
	// GAMELIB_LOG_LEVEL, GAMELIB_BROWSE_MATCH and so on.
	EnvPrefix = "GAMELIB"
	FileName  = ".gamelib"
)

type Settings struct {
	Source   string                  `mapstructure:"source" yaml:"source"`
	Log      LogSettings             `mapstructure:"log" yaml:"log"`
	Browse   BrowseSettings          `mapstructure:"browse" yaml:"browse"`
	Geometry GeometrySettings        `mapstructure:"geometry" yaml:"geometry"`
	Consoles map[string]ConsoleStyle `mapstructure:"consoles" yaml:"consoles"`
}

type LogSettings struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

type BrowseSettings struct {
	GridSearchThreshold int    `mapstructure:"grid_search_threshold" yaml:"grid_search_threshold"`
	Match               string `mapstructure:"match" yaml:"match"`
	Locale              string `mapstructure:"locale" yaml:"locale"`
	Placeholder         string `mapstructure:"placeholder" yaml:"placeholder"`
	// SerialFirst and GenericSerials replace the built-in sets when set.
	SerialFirst    []string          `mapstructure:"serial_first" yaml:"serial_first"`
	GenericSerials []string          `mapstructure:"generic_serials" yaml:"generic_serials"`
	ConsoleKeys    map[string]string `mapstructure:"console_keys" yaml:"console_keys"`
	// CoverCache bounds how many probed covers are remembered.
	CoverCache int `mapstructure:"cover_cache" yaml:"cover_cache"`
}

// GeometrySettings are in terminal cells.
type GeometrySettings struct {
	RowHeight     int `mapstructure:"row_height" yaml:"row_height"`
	TileWidth     int `mapstructure:"tile_width" yaml:"tile_width"`
	Gap           int `mapstructure:"gap" yaml:"gap"`
	CaptionHeight int `mapstructure:"caption_height" yaml:"caption_height"`
	ListOverscan  int `mapstructure:"list_overscan" yaml:"list_overscan"`
	GridOverscan  int `mapstructure:"grid_overscan" yaml:"grid_overscan"`
	ObserveMargin int `mapstructure:"observe_margin" yaml:"observe_margin"`
}

// ConsoleStyle decorates a console's rows: an icon under the source's
// icons/ folder and a background color.
type ConsoleStyle struct {
	Icon  string `mapstructure:"icon" yaml:"icon"`
	Color string `mapstructure:"color" yaml:"color"`
}

// New returns a viper instance carrying every default, the env binding and
// the config file location. path overrides the ~/.gamelib.yaml lookup.
func New(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", ".")
	v.SetDefault("log.file", DefaultLogFile())
	v.SetDefault("log.level", "info")

	v.SetDefault("browse.grid_search_threshold", browse.DefaultGridSearchThreshold)
	v.SetDefault("browse.match", string(browse.MatchContains))
	v.SetDefault("browse.locale", "")
	v.SetDefault("browse.placeholder", cover.DefaultPlaceholder)
	v.SetDefault("browse.cover_cache", 512)

	v.SetDefault("geometry.row_height", 1)
	v.SetDefault("geometry.tile_width", 18)
	v.SetDefault("geometry.gap", 2)
	v.SetDefault("geometry.caption_height", 2)
	v.SetDefault("geometry.list_overscan", virtual.DefaultListOverscan)
	v.SetDefault("geometry.grid_overscan", virtual.DefaultGridOverscan)
	v.SetDefault("geometry.observe_margin", 20)

	v.SetDefault("consoles", map[string]any{
		"GameCube":      map[string]any{"icon": "gamecube.png", "color": "#6d28d9"},
		"Wii":           map[string]any{"icon": "wii.png", "color": "#f8fafc"},
		"PlayStation 1": map[string]any{"icon": "ps1.png", "color": "#9ca3af"},
		"PlayStation 2": map[string]any{"icon": "ps2.png", "color": "#1a2930"},
		"PS2":           map[string]any{"icon": "ps2.png", "color": "#374151"},
		"PS1":           map[string]any{"icon": "ps1.png", "color": "#9ca3af"},
	})
	return v
}

// Load reads the config file if there is one and unmarshals the merged
// settings. A missing ~/.gamelib.yaml is fine; a missing --config file is not.
func Load(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &s, nil
}

// Defaults is the built-in settings plus environment overrides, without
// reading any file.
func Defaults() (*Settings, error) {
	var s Settings
	if err := New("").Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode default config: %w", err)
	}
	return &s, nil
}

func DefaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "gamelib.log")
	}
	return filepath.Join(home, ".gamelib", "gamelib.log")
}

// Policy layers the configured cover settings over the defaults.
func (s *Settings) Policy() cover.Policy {
	b := s.Browse
	return cover.DefaultPolicy().Merge(cover.Policy{
		ConsoleKeys:    b.ConsoleKeys,
		SerialFirst:    cover.KeySet(b.SerialFirst),
		GenericSerials: cover.CodeSet(b.GenericSerials),
		Placeholder:    b.Placeholder,
	})
}

func (s *Settings) EngineOptions() browse.Options {
	return browse.Options{
		GridSearchThreshold: s.Browse.GridSearchThreshold,
		Locale:              s.Browse.Locale,
	}
}

// MatchMode falls back to substring matching for unknown values.
func (s *Settings) MatchMode() browse.MatchMode {
	m, err := browse.ParseMatchMode(s.Browse.Match)
	if err != nil {
		return browse.MatchContains
	}
	return m
}

func (s *Settings) ListGeometry() virtual.ListGeometry {
	return virtual.ListGeometry{
		RowHeight: float64(max(s.Geometry.RowHeight, 1)),
		Overscan:  s.Geometry.ListOverscan,
	}
}

func (s *Settings) GridGeometry() virtual.GridGeometry {
	return virtual.GridGeometry{
		TileWidth:     float64(max(s.Geometry.TileWidth, 4)),
		Gap:           float64(s.Geometry.Gap),
		CaptionHeight: float64(max(s.Geometry.CaptionHeight, 1)),
		VerticalScale: 0.5,
		Snap:          true,
		Overscan:      s.Geometry.GridOverscan,
	}
}

// Style looks a console up case-insensitively; viper lowercases map keys.
func (s *Settings) Style(console string) (ConsoleStyle, bool) {
	if st, ok := s.Consoles[console]; ok {
		return st, true
	}
	for name, st := range s.Consoles {
		if strings.EqualFold(name, console) {
			return st, true
		}
	}
	return ConsoleStyle{}, false
}

// YAML renders the effective settings for `config show`.
func (s *Settings) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

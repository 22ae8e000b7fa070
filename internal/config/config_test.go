package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamelib/internal/browse"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gamelib.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Source != "." {
		t.Errorf("Source = %q", s.Source)
	}
	if s.Browse.GridSearchThreshold != browse.DefaultGridSearchThreshold {
		t.Errorf("GridSearchThreshold = %d", s.Browse.GridSearchThreshold)
	}
	if s.MatchMode() != browse.MatchContains {
		t.Errorf("MatchMode = %q", s.MatchMode())
	}
	if s.Geometry.ListOverscan != 8 || s.Geometry.GridOverscan != 4 {
		t.Errorf("overscan = %d/%d", s.Geometry.ListOverscan, s.Geometry.GridOverscan)
	}
	st, ok := s.Style("Wii")
	if !ok || st.Color != "#f8fafc" || st.Icon != "wii.png" {
		t.Errorf("Style(Wii) = %+v, %v", st, ok)
	}
	if _, ok := s.Style("Dreamcast"); ok {
		t.Error("unstyled console reported a style")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
source: https://example.com/site
log:
  level: debug
browse:
  grid_search_threshold: 3
  match: fuzzy
  placeholder: img/none.png
  serial_first: [ps2]
  console_keys:
    Dreamcast: dc
geometry:
  tile_width: 24
consoles:
  Dreamcast:
    icon: dc.png
    color: "#ff6600"
`)

	s, err := Load(New(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Source != "https://example.com/site" || s.Log.Level != "debug" {
		t.Errorf("settings = %+v", s)
	}
	if s.MatchMode() != browse.MatchFuzzy {
		t.Errorf("MatchMode = %q", s.MatchMode())
	}
	if opts := s.EngineOptions(); opts.GridSearchThreshold != 3 {
		t.Errorf("EngineOptions = %+v", opts)
	}
	if g := s.GridGeometry(); g.TileWidth != 24 || g.VerticalScale != 0.5 {
		t.Errorf("GridGeometry = %+v", g)
	}

	p := s.Policy()
	if p.Placeholder != "img/none.png" {
		t.Errorf("Placeholder = %q", p.Placeholder)
	}
	if key, ok := p.ConsoleKey("dreamcast"); !ok || key != "dc" {
		t.Errorf("ConsoleKey(dreamcast) = %q, %v", key, ok)
	}
	if key, _ := p.ConsoleKey("PlayStation 2"); key != "ps2" {
		t.Errorf("built-in console keys lost: %q", key)
	}
	if !p.SerialFirst["ps2"] || p.SerialFirst["ps1"] {
		t.Errorf("SerialFirst = %v", p.SerialFirst)
	}
	if !p.IsGeneric("nes") {
		t.Error("default generic serials lost")
	}
	if st, ok := s.Style("DREAMCAST"); !ok || st.Icon != "dc.png" {
		t.Errorf("Style(DREAMCAST) = %+v, %v", st, ok)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GAMELIB_SOURCE", "/srv/games")
	t.Setenv("GAMELIB_BROWSE_MATCH", "prefix")

	s, err := Load(New(""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Source != "/srv/games" {
		t.Errorf("Source = %q", s.Source)
	}
	if s.MatchMode() != browse.MatchPrefix {
		t.Errorf("MatchMode = %q", s.MatchMode())
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(New(filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("explicit missing config file should fail")
	}
	if _, err := Load(New(writeConfig(t, "browse: [not, a, map"))); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func TestUnknownMatchFallsBack(t *testing.T) {
	s := &Settings{Browse: BrowseSettings{Match: "regex"}}
	if s.MatchMode() != browse.MatchContains {
		t.Errorf("MatchMode = %q", s.MatchMode())
	}
}

func TestYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s, err := Load(New(""))
	if err != nil {
		t.Fatal(err)
	}
	out, err := s.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	for _, want := range []string{"grid_search_threshold: 2", "placeholder: img/placeholder.webp", "list_overscan: 8"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
}

func TestDefaults(t *testing.T) {
	s, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() failed: %v", err)
	}
	if s.Browse.Placeholder != "img/placeholder.webp" || s.Geometry.RowHeight != 1 {
		t.Errorf("Defaults() = %+v", s)
	}
	if len(s.Consoles) != 6 {
		t.Errorf("default console styles = %d, want 6", len(s.Consoles))
	}
}

func TestDefaultsReportsBadEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GAMELIB_GEOMETRY_GAP", "wide")
	if _, err := Defaults(); err == nil {
		t.Error("Defaults() accepted a non-numeric gap")
	}
}

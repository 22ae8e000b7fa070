package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"gamelib/internal/catalog"
)

const gamesDoc = `[
	{"title":"Zelda","console":"GameCube","serial":"GZLE01"},
	{"title":"Metroid","console":"GameCube","serial":"GM8E01"},
	{"title":"Okami","console":"PlayStation 2","serial":"SLUS-21115"}
]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// run executes the root command with a scratch HOME so no user config is
// picked up.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	stdoutIsTerminal = func() bool { return false }

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	site := t.TempDir()
	writeFile(t, filepath.Join(site, "games.json"), gamesDoc)
	writeFile(t, filepath.Join(site, "coverIndex.json"),
		`{"bySerial":{"wii_gc":{"GZLE01":"Covers/wii_gc/GZLE01.webp"}},"byTitle":{}}`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "title order",
			args: []string{"query", site},
			want: "Metroid [GM8E01]\nOkami [SLUS-21115]\nZelda [GZLE01]\n3 / 3 shown\n",
		},
		{
			name: "search",
			args: []string{"query", site, "--search", "ZEL"},
			want: "Zelda [GZLE01]\n1 / 3 shown\n",
		},
		{
			name: "console and limit",
			args: []string{"query", site, "-c", "GameCube", "-n", "1"},
			want: "Metroid [GM8E01]\n2 / 3 shown\n",
		},
		{
			name: "console sort",
			args: []string{"query", site, "--sort", "console"},
			want: "Metroid [GM8E01]\nZelda [GZLE01]\nOkami [SLUS-21115]\n3 / 3 shown\n",
		},
		{
			name: "grid hides uncovered",
			args: []string{"query", site, "--view", "grid"},
			want: "Zelda [GZLE01]\n1 / 3 shown (2 without cover hidden)\n",
		},
		{
			name: "grid search shows everything",
			args: []string{"query", site, "--view", "grid", "--search", "ok"},
			want: "Okami [SLUS-21115]\n1 / 3 shown\n",
		},
		{
			name: "prefix match",
			args: []string{"query", site, "--match", "prefix", "--search", "eld"},
			want: "0 / 3 shown\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("output =\n%s\nwant\n%s", out, tt.want)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	site := t.TempDir()
	writeFile(t, filepath.Join(site, "games.json"), `{"not":"an array"}`)

	if _, err := run(t, "query", site); !errors.Is(err, catalog.ErrCatalog) {
		t.Errorf("non-array catalog error = %v, want ErrCatalog", err)
	}
	if _, err := run(t, "query", site, "--view", "tiles"); err == nil {
		t.Error("unknown view accepted")
	}
	if _, err := run(t, "query", site, "--sort", "year"); err == nil {
		t.Error("unknown sort accepted")
	}
	if _, err := run(t, "--config", filepath.Join(site, "missing.yaml"), "config", "show"); err == nil {
		t.Error("missing --config file accepted")
	}
}

func TestBuildGamesThenQuery(t *testing.T) {
	site := t.TempDir()
	writeFile(t, filepath.Join(site, "lists", "Indexs", "ps2_Index", "ps2_index.json"), `{
  "meta": {"system": "PS2", "id_type": "serial"},
  "games": [
    {"id": "SLUS-20265", "displayTitle": "Zeta (USA)"},
    {"id": "SCUS-97101", "datTitle": "Alpha (En,Ja) [SCUS-97101]"}
  ]
}`)

	if _, err := run(t, "build", "games", "--root", site); err != nil {
		t.Fatalf("build games failed: %v", err)
	}
	out, err := run(t, "query", site)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if want := "Alpha [PS2]\nZeta [PS2]\n2 / 2 shown\n"; out != want {
		t.Errorf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestBuildCoversWithManifest(t *testing.T) {
	site := t.TempDir()
	for _, name := range []string{"GZLE01.webp", "Metroid Prime [GM8E01].png"} {
		writeFile(t, filepath.Join(site, "Covers", "wii_gc", name), "img")
	}
	dbPath := filepath.Join(t.TempDir(), "covers.db")

	if _, err := run(t, "build", "covers", "--root", site, "--manifest", dbPath, "--hash"); err != nil {
		t.Fatalf("build covers failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(site, "docs", "coverIndex.json")); err != nil {
		t.Fatalf("cover index not written: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	var files, hashed int
	if err := db.QueryRow("SELECT COUNT(*), COUNT(sha256) FROM covers").Scan(&files, &hashed); err != nil {
		t.Fatalf("Failed to count covers: %v", err)
	}
	if files != 2 || hashed != 2 {
		t.Errorf("manifest has %d covers, %d hashed; want 2 and 2", files, hashed)
	}
}

func TestConfigShow(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "gamelib.yaml")
	writeFile(t, cfg, "browse:\n  match: fuzzy\n")

	out, err := run(t, "--config", cfg, "--log-level", "debug", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"# " + cfg, "match: fuzzy", "level: debug", "gamecube:"} {
		if !strings.Contains(strings.ToLower(out), strings.ToLower(want)) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

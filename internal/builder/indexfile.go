package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
)

// ErrNoIndexes is returned when the per-system index folder is missing.
var ErrNoIndexes = errors.New("index folder not found")

// IndexMeta is the header of a <system>_index.json file.
type IndexMeta struct {
	System string
	IDType string
	ArtDir string
}

// IndexGame is one game row of an index file. Fields arrive loosely typed
// (ids are sometimes numbers) and are coerced to strings.
type IndexGame struct {
	ID           string
	DisplayTitle string
	DatTitle     string
	CoverFile    string
}

// IndexFile is one parsed index file and the system folder it came from.
type IndexFile struct {
	Path   string
	Folder string
	Meta   IndexMeta
	Games  []IndexGame
}

type rawIndexFile struct {
	Meta  map[string]any `json:"meta"`
	Games any            `json:"games"`
}

// ScanIndexes reads every root/<system>_Index/*_index.json in directory
// order. Files that are not valid JSON are skipped with a warning.
func ScanIndexes(root string, log zerolog.Logger) ([]IndexFile, error) {
	systems, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoIndexes, root)
		}
		return nil, err
	}

	var out []IndexFile
	for _, sys := range systems {
		if !sys.IsDir() {
			continue
		}
		dir := filepath.Join(root, sys.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("skipping unreadable system folder")
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), "_index.json") {
				continue
			}
			path := filepath.Join(dir, f.Name())
			ix, err := readIndexFile(path)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("skipping invalid index file")
				continue
			}
			ix.Folder = sys.Name()
			out = append(out, *ix)
		}
	}
	return out, nil
}

func readIndexFile(path string) (*IndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw rawIndexFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	ix := &IndexFile{
		Path: path,
		Meta: IndexMeta{
			System: strings.TrimSpace(cast.ToString(raw.Meta["system"])),
			IDType: strings.TrimSpace(cast.ToString(raw.Meta["id_type"])),
			ArtDir: cast.ToString(raw.Meta["art_dir"]),
		},
	}
	// A non-array games value is treated as empty.
	games, _ := raw.Games.([]any)
	for _, g := range games {
		row, ok := g.(map[string]any)
		if !ok {
			continue
		}
		ix.Games = append(ix.Games, IndexGame{
			ID:           strings.ToUpper(strings.TrimSpace(cast.ToString(row["id"]))),
			DisplayTitle: strings.TrimSpace(cast.ToString(row["displayTitle"])),
			DatTitle:     cast.ToString(row["datTitle"]),
			CoverFile:    cast.ToString(row["coverFile"]),
		})
	}
	return ix, nil
}

package builder

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"gamelib/internal/cover"
)

// CoverExts are the image types picked up when walking Covers/.
var CoverExts = parseExtSet(".webp,.png,.jpg,.jpeg")

var (
	trailingSerialRe = regexp.MustCompile(`\[([^\]]+)\]$`)
	productCodeRe    = regexp.MustCompile(`(?i)([A-Z]{3,5}-\d{3,6})`)
	discIDRe         = regexp.MustCompile(`(?i)([A-Z0-9]{6})`)
)

// ConsoleKeyFromIndexFolder maps a "<system>_Index" folder to the cover
// console key. Wii and GameCube share one key.
func ConsoleKeyFromIndexFolder(folder string) string {
	base := strings.ToLower(folder)
	switch {
	case strings.HasPrefix(base, "ps2"):
		return "ps2"
	case strings.HasPrefix(base, "ps1"):
		return "ps1"
	case strings.HasPrefix(base, "n64"):
		return "n64"
	case strings.HasPrefix(base, "nes"):
		return "nes"
	case strings.HasPrefix(base, "snes"):
		return "snes"
	case strings.HasPrefix(base, "gba"):
		return "gba"
	case strings.HasPrefix(base, "wii"), strings.HasPrefix(base, "gc"):
		return "wii_gc"
	}
	return ""
}

// CoverFolderFromArtDir returns the last element of an art_dir path, which
// may use either separator.
func CoverFolderFromArtDir(artDir string) string {
	parts := strings.FieldsFunc(artDir, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// CoverIndexFromIndexes builds the cover index from curated index files.
// Paths are "Covers/<folder>/<coverFile>" where folder is the meta art_dir
// folder when it exists under coversRoot, else the console key. ok is false
// when no file had any games.
func CoverIndexFromIndexes(files []IndexFile, coversRoot string) (ix *cover.Index, ok bool) {
	ix = cover.NewIndex()
	for _, f := range files {
		if len(f.Games) == 0 {
			continue
		}
		ok = true

		key := ConsoleKeyFromIndexFolder(f.Folder)
		folder := key
		if art := CoverFolderFromArtDir(f.Meta.ArtDir); art != "" && isDir(filepath.Join(coversRoot, art)) {
			folder = art
		}

		for _, g := range f.Games {
			if g.CoverFile == "" {
				continue
			}
			rel := strings.ReplaceAll(path.Join("Covers", folder, g.CoverFile), `\`, "/")
			title := g.DisplayTitle
			if title == "" {
				title = cover.StripTrailingBracketSerial(g.DatTitle)
			}
			ix.Add(key, g.ID, cover.NormalizeTitle(title), rel)
		}
	}
	return ix, ok
}

// CoverIndexFromDir walks coversRoot/<console>/ for images. The serial comes
// from a trailing "[...]" tag in the file name, else from the first
// product-code or six-character disc-id looking run. Paths are relative to
// siteRoot with forward slashes. visit, when set, sees every image.
func CoverIndexFromDir(siteRoot, coversRoot string, visit func(path string, d fs.DirEntry)) (*cover.Index, error) {
	ix := cover.NewIndex()
	err := filepath.WalkDir(coversRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if _, ok := CoverExts[ext]; !ok {
			return nil
		}

		relCovers, err := filepath.Rel(coversRoot, p)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(relCovers), "/")
		if len(parts) < 2 {
			// images directly under Covers/ have no console folder
			return nil
		}
		key := strings.ToLower(parts[0])

		rel, err := filepath.Rel(siteRoot, p)
		if err != nil {
			return nil
		}

		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		serial, title := serialFromFileName(base)
		ix.Add(key, serial, cover.NormalizeTitle(title), filepath.ToSlash(rel))
		if visit != nil {
			visit(p, d)
		}
		return nil
	})
	return ix, err
}

func serialFromFileName(base string) (serial, title string) {
	if m := trailingSerialRe.FindStringSubmatchIndex(base); m != nil {
		return strings.ToUpper(strings.TrimSpace(base[m[2]:m[3]])), strings.TrimSpace(base[:m[0]])
	}
	if m := productCodeRe.FindStringSubmatch(base); m != nil {
		return strings.ToUpper(m[1]), base
	}
	if m := discIDRe.FindStringSubmatch(base); m != nil {
		return strings.ToUpper(m[1]), base
	}
	return "", base
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

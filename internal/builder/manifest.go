package builder

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const manifestBatch = 1000

// ManifestOptions controls a cover manifest run.
type ManifestOptions struct {
	// Exts limits which files are recorded; empty records every file.
	Exts map[string]struct{}
	// Hash stores a sha256 of each file. Slow on large trees.
	Hash bool
	// Estimated is the expected file count reported with progress; zero
	// means unknown.
	Estimated int64
}

// ManifestSummary describes one finished manifest run.
type ManifestSummary struct {
	RunID    string
	Files    int64
	Folders  int64
	Bytes    int64
	Started  time.Time
	Finished time.Time
}

// RecordManifest walks root and upserts every matching file into the
// sqlite database at dbPath, tagged with a fresh run id. Rows are committed
// in batches of manifestBatch; progress is called after each commit and
// once at the end.
func RecordManifest(ctx context.Context, root, dbPath string, opts ManifestOptions, progress func(Progress)) (*ManifestSummary, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := initSchema(db); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA temp_store=MEMORY;`); err != nil {
		return nil, err
	}

	sum := &ManifestSummary{RunID: uuid.NewString(), Started: time.Now().UTC()}
	root = filepath.Clean(root)
	if _, err := db.Exec(`INSERT INTO runs(id, root, started_utc) VALUES(?, ?, ?)`,
		sum.RunID, root, sum.Started.Format(time.RFC3339)); err != nil {
		return nil, err
	}

	w, err := newBatchWriter(db)
	if err != nil {
		return nil, err
	}

	report := func(last string) {
		progress(Progress{Stage: "manifest", Done: sum.Files, Total: opts.Estimated, Folders: sum.Folders, Bytes: sum.Bytes, Last: last})
	}

	errWalk := filepath.WalkDir(root, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			sum.Folders++
			return nil
		}

		ext := strings.ToLower(filepath.Ext(p))
		if len(opts.Exts) > 0 {
			if _, ok := opts.Exts[ext]; !ok {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		console := ""
		if i := strings.IndexByte(rel, '/'); i > 0 {
			console = strings.ToLower(rel[:i])
		}

		var digest *string
		if opts.Hash {
			if s := hashFile(p); s != "" {
				digest = &s
			}
		}

		sum.Files++
		sum.Bytes += info.Size()
		mtime := info.ModTime().UTC().Format(time.RFC3339)
		if _, err := w.file.Exec(rel, console, filepath.Base(p), ext, info.Size(), mtime, detectMIME(ext), digest, sum.RunID); err != nil {
			return err
		}

		flushed, err := w.tick()
		if err != nil {
			return err
		}
		if flushed {
			report(p)
		}
		return nil
	})
	if errWalk != nil {
		w.rollback()
		return nil, errWalk
	}
	if err := w.commit(); err != nil {
		return nil, err
	}

	sum.Finished = time.Now().UTC()
	if _, err := db.Exec(`UPDATE runs SET finished_utc=?, files=?, bytes=? WHERE id=?`,
		sum.Finished.Format(time.RFC3339), sum.Files, sum.Bytes, sum.RunID); err != nil {
		return nil, err
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_covers_console ON covers(console);`)
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_covers_run ON covers(run_id);`)

	report("")
	return sum, nil
}

// batchWriter holds the open transaction and its prepared upsert, and
// swaps both every manifestBatch rows.
type batchWriter struct {
	db   *sql.DB
	tx   *sql.Tx
	file *sql.Stmt
	n    int
}

func newBatchWriter(db *sql.DB) (*batchWriter, error) {
	w := &batchWriter{db: db}
	return w, w.begin()
}

func (w *batchWriter) begin() error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO covers(rel_path, console, name, ext, size, mtime_utc, mime, sha256, run_id)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rel_path) DO UPDATE SET
		  size=excluded.size, mtime_utc=excluded.mtime_utc, mime=excluded.mime,
		  sha256=COALESCE(excluded.sha256, covers.sha256), run_id=excluded.run_id
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	w.tx, w.file, w.n = tx, stmt, 0
	return nil
}

// tick counts one row and commits when the batch is full.
func (w *batchWriter) tick() (bool, error) {
	w.n++
	if w.n < manifestBatch {
		return false, nil
	}
	if err := w.commit(); err != nil {
		return false, err
	}
	return true, w.begin()
}

func (w *batchWriter) commit() error {
	w.file.Close()
	return w.tx.Commit()
}

func (w *batchWriter) rollback() {
	w.file.Close()
	_ = w.tx.Rollback()
}

func initSchema(db *sql.DB) error {
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	root         TEXT NOT NULL,
	started_utc  TEXT,
	finished_utc TEXT,
	files        INTEGER,
	bytes        INTEGER
);
CREATE TABLE IF NOT EXISTS covers (
	rel_path  TEXT PRIMARY KEY,
	console   TEXT,
	name      TEXT NOT NULL,
	ext       TEXT,
	size      INTEGER,
	mtime_utc TEXT,
	mime      TEXT,
	sha256    TEXT,
	run_id    TEXT REFERENCES runs(id)
);
`
	_, err := db.Exec(ddl)
	return err
}

// parseExtSet turns ".png, jpg" into {".png", ".jpg"}.
func parseExtSet(s string) map[string]struct{} {
	m := map[string]struct{}{}
	if s == "" {
		return m
	}
	for _, e := range strings.Split(s, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = struct{}{}
	}
	return m
}

func detectMIME(ext string) string {
	if ext == ".webp" {
		return "image/webp"
	}
	mt := mime.TypeByExtension(ext)
	if mt != "" {
		return mt
	}
	return "application/octet-stream"
}

func hashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha256.New()
	_, _ = io.Copy(h, f)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// CountFiles estimates the work for a manifest run.
func CountFiles(root string, exts map[string]struct{}) int64 {
	var count int64
	filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if len(exts) > 0 {
			if _, ok := exts[strings.ToLower(filepath.Ext(p))]; !ok {
				return nil
			}
		}
		count++
		return nil
	})
	return count
}

// Package snapshot stores target descriptors in a SQLite file so a target can
// later be compared against its recorded state.
package snapshot

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/agentic-research/targetdiff/api"
	"github.com/agentic-research/targetdiff/internal/report"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS targets (
	name TEXT PRIMARY KEY,
	type TEXT,
	descriptor JSON NOT NULL,
	created INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS target_files (
	target TEXT NOT NULL,
	category TEXT NOT NULL,
	path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_target_files ON target_files(target, category);
`

// Writer records descriptors. All writes share one transaction that is
// committed by Close.
type Writer struct {
	db         *sql.DB
	tx         *sql.Tx
	stmtTarget *sql.Stmt
	stmtFile   *sql.Stmt
	stmtDelete *sql.Stmt
	mu         sync.Mutex
	now        func() time.Time
}

// Create opens or creates the snapshot database at dbPath.
func Create(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &Writer{db: db, now: time.Now}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) beginTx() error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return err
	}
	w.stmtTarget, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO targets (name, type, descriptor, created)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	w.stmtDelete, err = w.tx.Prepare(`DELETE FROM target_files WHERE target = ?`)
	if err != nil {
		return err
	}
	w.stmtFile, err = w.tx.Prepare(`INSERT INTO target_files (target, category, path) VALUES (?, ?, ?)`)
	return err
}

// Put stores d, replacing an earlier descriptor of the same target.
func (w *Writer) Put(d *api.Descriptor) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.stmtTarget.Exec(d.Name, d.Type, string(report.Encode(d)), w.now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert target %s: %w", d.Name, err)
	}
	if _, err := w.stmtDelete.Exec(d.Name); err != nil {
		return fmt.Errorf("clear files of %s: %w", d.Name, err)
	}
	for category, paths := range map[string][]string{
		"sources":    d.Files.Sources,
		"resources":  d.Files.Resources,
		"frameworks": d.Files.Frameworks,
	} {
		for _, p := range paths {
			if _, err := w.stmtFile.Exec(d.Name, category, p); err != nil {
				return fmt.Errorf("insert file %s of %s: %w", p, d.Name, err)
			}
		}
	}
	return nil
}

// Close commits everything written and closes the database.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, stmt := range []*sql.Stmt{w.stmtTarget, w.stmtDelete, w.stmtFile} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return w.db.Close()
}

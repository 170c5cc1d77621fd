package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"

	_ "modernc.org/sqlite"
)

var (
	// ErrTargetNotFound is returned for a target the snapshot does not hold.
	ErrTargetNotFound = errors.New("target not in snapshot")
	// ErrUnknownCategory is returned for a file category other than Categories.
	ErrUnknownCategory = errors.New("unknown file category")
)

// Categories are the member file lists recorded per target.
var Categories = []string{"sources", "resources", "frameworks"}

// Reader reads descriptors from a snapshot database.
type Reader struct {
	db *sql.DB
}

// Open opens an existing snapshot.
func Open(dbPath string) (*Reader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM targets`).Scan(&n); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s is not a snapshot: %w", dbPath, err)
	}
	return &Reader{db: db}, nil
}

// Names returns the stored target names, sorted.
func (r *Reader) Names() ([]string, error) {
	rows, err := r.db.Query(`SELECT name FROM targets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Get returns the serialized descriptor of a target.
func (r *Reader) Get(name string) ([]byte, error) {
	var raw string
	err := r.db.QueryRow(`SELECT descriptor FROM targets WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query target %s: %w", name, err)
	}
	return []byte(raw), nil
}

// Files returns the stored paths of one of Categories for a target, sorted.
func (r *Reader) Files(name, category string) ([]string, error) {
	if !slices.Contains(Categories, category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if _, err := r.Get(name); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(
		`SELECT path FROM target_files WHERE target = ? AND category = ? ORDER BY path`, name, category)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Close releases the database handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

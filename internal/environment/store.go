package environment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultTablePrefix matches a stock install.
const DefaultTablePrefix = "wp_"

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ErrInvalidPrefix is returned by SetPrefix for prefixes that could not be
// used safely inside table names.
var ErrInvalidPrefix = errors.New("invalid table prefix")

// Store is the host database with a swappable table prefix.
type Store struct {
	db   *sql.DB
	base string

	mu     sync.Mutex
	prefix string
}

// OpenStore opens the sqlite database at dsn.
func OpenStore(dsn, prefix string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", dsn, err)
	}
	// A single connection keeps ":memory:" databases coherent and matches the
	// single-runner model.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("connecting to database %q: %w", dsn, err)
	}
	s, err := NewStore(db, prefix)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, prefix string) (*Store, error) {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	if !prefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return &Store{db: db, base: prefix, prefix: prefix}, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// BasePrefix is the prefix of the live tables.
func (s *Store) BasePrefix() string { return s.base }

// Prefix is the prefix currently in use.
func (s *Store) Prefix() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefix
}

// SetPrefix switches the current prefix and returns the previous one.
func (s *Store) SetPrefix(prefix string) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.prefix
	s.prefix = prefix
	return old, nil
}

// Table returns name qualified with the current prefix.
func (s *Store) Table(name string) string {
	return s.Prefix() + name
}

// TableExists reports whether table (already prefixed) exists.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("looking up table %s: %w", table, err)
	}
	return n > 0, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

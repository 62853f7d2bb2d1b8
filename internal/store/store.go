package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a connection with the same
	// (from_id, to_id, label) already exists.
	ErrDuplicate = errors.New("duplicate")
)

// Store handles database operations
type Store struct {
	db    *sql.DB
	clock *clock
}

// New opens (or creates) the database at dbPath and applies the schema.
// Pragmas go in the DSN so every pooled connection enforces foreign keys.
func New(dbPath string) (*Store, error) {
	dsn := "file:" + dbPath +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, clock: newClock(time.Now)}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Now returns a millisecond timestamp strictly greater than any previously
// returned by this store. Ideas are paginated on created_at with a strict
// less-than comparator, so timestamps must not collide.
func (s *Store) Now() int64 {
	return s.clock.next()
}

type clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newClock(now func() time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isQuerySyntaxError reports whether err is a generic SQLITE_ERROR, which
// is what a MATCH expression the FTS5 parser rejects produces. Only call it
// on errors from a MATCH query: there, I/O, locking and constraint failures
// carry other result codes.
func isQuerySyntaxError(err error) bool {
	var e *sqlite.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code()&0xff == sqlite3.SQLITE_ERROR
}

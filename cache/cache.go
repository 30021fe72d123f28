// Package cache stores compiled chunks in SQLite, keyed by a hash of the
// source they were compiled from.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/pkg/bytecode"
)

var log = commonlog.GetLogger("clox.cache")

// Store handles SQLite storage for compiled chunks.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create table if needed
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		hash TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Key returns the cache key for source: the hex SHA-256 of its bytes.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached chunk for source. A row that fails to decode is
// logged and reported as a miss.
func (s *Store) Get(source string) (*bytecode.Chunk, bool, error) {
	key := Key(source)

	var data []byte
	err := s.db.QueryRow("SELECT data FROM chunks WHERE hash = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying chunk: %w", err)
	}

	chunk, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		log.Warningf("discarding corrupt cache entry %s: %s", key[:12], err)
		return nil, false, nil
	}
	return chunk, true, nil
}

// Put stores chunk as the compiled form of source, replacing any existing
// entry.
func (s *Store) Put(source string, chunk *bytecode.Chunk) error {
	data, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO chunks (hash, data, created_at) VALUES (?, ?, ?)",
		Key(source), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// Compile returns the chunk for source, compiling and storing it on a miss.
// Compile errors are returned unchanged and never cached. A failure to read
// or write the cache is logged and does not fail the compilation.
func (s *Store) Compile(source string) (*bytecode.Chunk, bool, error) {
	chunk, hit, err := s.Get(source)
	if err != nil {
		log.Errorf("cache lookup failed: %s", err)
	} else if hit {
		log.Debugf("cache hit %s", Key(source)[:12])
		return chunk, true, nil
	}

	chunk, err = compiler.Compile(source)
	if err != nil {
		return nil, false, err
	}
	if err := s.Put(source, chunk); err != nil {
		log.Errorf("cache store failed: %s", err)
	}
	return chunk, false, nil
}

// Len returns the number of cached chunks.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Clear removes every cached chunk.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	return nil
}

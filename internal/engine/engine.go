package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// Config describes one DuckDB session.
type Config struct {
	// Path of the database file. Empty means an in-memory database, which
	// is enough when queries read parquet files directly.
	Path string
	// Threads pins PRAGMA threads when > 0; 0 keeps the engine default.
	Threads int
	// ProfileOutput enables JSON query profiling into this file when
	// non-empty.
	ProfileOutput string
}

// DB is one exclusively owned engine session. A benchmark run opens exactly
// one and passes it to everything that executes queries; there is no
// ambient connection state.
type DB struct {
	db  *sql.DB
	cfg Config
}

// Open opens the session and verifies it with a Ping so a bad path fails
// here instead of during the first timed query.
func Open(cfg Config) (*DB, error) {
	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("engine: failed to ping database: %w", err)
	}

	// Pragmas are per connection, so the pool must stay at one.
	db.SetMaxOpenConns(1)

	if cfg.Threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA threads=%d", cfg.Threads)); err != nil {
			db.Close()
			return nil, fmt.Errorf("engine: failed to set threads: %w", err)
		}
	}
	if cfg.ProfileOutput != "" {
		if _, err := db.Exec("PRAGMA enable_profiling='json'"); err != nil {
			db.Close()
			return nil, fmt.Errorf("engine: failed to enable profiling: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA profile_output='%s'", cfg.ProfileOutput)); err != nil {
			db.Close()
			return nil, fmt.Errorf("engine: failed to set profile output: %w", err)
		}
	}

	log.Printf("engine: session ready (path=%q, threads=%d)", cfg.Path, cfg.Threads)
	return &DB{db: db, cfg: cfg}, nil
}

// Query executes one opaque SQL statement and materializes the full result
// set, so timing a call covers dispatch through materialization.
func (db *DB) Query(ctx context.Context, query string) (*Result, error) {
	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("engine: query failed: %w", err)
	}
	defer rows.Close()
	return serializeRows(rows)
}

// Close shuts the session down.
func (db *DB) Close() error {
	log.Println("engine: closing session")
	return db.db.Close()
}

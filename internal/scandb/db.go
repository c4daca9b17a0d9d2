// Package scandb persists scan sessions so runs over the same capture can
// be compared as the layout hypothesis evolves.
package scandb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/framesift/internal/scan"
	"github.com/banshee-data/framesift/internal/wire"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if needed) the SQLite database at path and brings
// the schema up to date.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db := &DB{DB: sqlDB, path: path}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// migrateUp applies pending embedded migrations.
func (db *DB) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("scandb: load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("scandb: create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("scandb: create migrate instance: %w", err)
	}
	// Closing m would also close the shared DB connection, so it is left
	// to be garbage collected.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("scandb: migration failed: %w", err)
	}
	return nil
}

// Session is one recorded scan run.
type Session struct {
	ID           int64
	Source       string
	BufferLength int
	PayloadStart int
	LayoutName   string
	MinAbs       float64
	MaxAbs       float64
	Windows      int
	HitRate      float64
	EntropyBits  float64
	CreatedAt    time.Time
}

func (s *Session) String() string {
	return fmt.Sprintf("session %d: %s (%d bytes, payload@%d, %d windows, hit rate %.3f)",
		s.ID, s.Source, s.BufferLength, s.PayloadStart, s.Windows, s.HitRate)
}

// RecordSession stores a scan run and its surviving candidates in one
// transaction, returning the new session ID.
func (db *DB) RecordSession(s Session, candidates []scan.Candidate) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO scan_sessions
			(source, buffer_length, payload_start, layout_name, min_abs, max_abs, windows, hit_rate, entropy_bits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Source, s.BufferLength, s.PayloadStart, s.LayoutName,
		s.MinAbs, s.MaxAbs, s.Windows, s.HitRate, s.EntropyBits)
	if err != nil {
		return 0, fmt.Errorf("scandb: insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_candidates (session_id, byte_offset, byte_order, value)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, c := range candidates {
		if _, err := stmt.Exec(id, c.Offset, c.ByteOrder.String(), float64(c.Value)); err != nil {
			return 0, fmt.Errorf("scandb: insert candidate at offset %d: %w", c.Offset, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// Sessions lists recorded sessions, newest first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT session_id, source, buffer_length, payload_start, layout_name,
		       min_abs, max_abs, windows, hit_rate, entropy_bits, created_at
		FROM scan_sessions ORDER BY session_id DESC LIMIT 500`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Source, &s.BufferLength, &s.PayloadStart, &s.LayoutName,
			&s.MinAbs, &s.MaxAbs, &s.Windows, &s.HitRate, &s.EntropyBits, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Candidates returns a session's candidates in ascending offset order,
// matching the order the scanner emitted them.
func (db *DB) Candidates(sessionID int64) ([]scan.Candidate, error) {
	rows, err := db.Query(`
		SELECT byte_offset, byte_order, value
		FROM scan_candidates WHERE session_id = ?
		ORDER BY candidate_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scan.Candidate
	for rows.Next() {
		var (
			offset int
			order  string
			value  float64
		)
		if err := rows.Scan(&offset, &order, &value); err != nil {
			return nil, err
		}
		c := scan.Candidate{Offset: offset, Value: float32(value)}
		if order == "le" {
			c.ByteOrder = wire.LittleEndian
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

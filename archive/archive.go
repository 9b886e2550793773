// Package archive persists solve results to a local sqlite database so
// that sessions can be reviewed later.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS solves (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at INTEGER NOT NULL,
	target INTEGER NOT NULL,
	sources TEXT NOT NULL,
	found INTEGER NOT NULL,
	steps INTEGER NOT NULL,
	expression TEXT NOT NULL,
	nodes INTEGER NOT NULL,
	micros INTEGER NOT NULL
)`

// Record is one archived solve attempt.
type Record struct {
	ID         int64
	CreatedAt  time.Time
	Target     int
	Sources    []int
	Found      bool
	Steps      int
	Expression string
	Nodes      uint64
	Micros     int64
}

// Summary aggregates the whole archive.
type Summary struct {
	Total      int
	Solved     int
	MeanMicros float64
}

func (s Summary) String() string {
	if s.Total == 0 {
		return "the archive is empty"
	}
	return fmt.Sprintf("%d archived attempts, %d solved (%.1f%%), mean solve time %.2fms",
		s.Total, s.Solved, 100*float64(s.Solved)/float64(s.Total),
		s.MeanMicros/1000)
}

// Archive wraps the sqlite database holding past solves.
type Archive struct {
	db *sql.DB
}

// Open opens or creates the archive database at path.
func Open(ctx context.Context, path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; serializing connections avoids
	// busy errors when the shell and a batch both log solves.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Add inserts a record and returns its assigned id. A zero CreatedAt is
// filled in with the current time.
func (a *Archive) Add(ctx context.Context, rec Record) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	res, err := a.db.ExecContext(ctx,
		`INSERT INTO solves (created_at, target, sources, found, steps, expression, nodes, micros)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt.Unix(), rec.Target, joinInts(rec.Sources), rec.Found,
		rec.Steps, rec.Expression, int64(rec.Nodes), rec.Micros)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Last returns up to n of the most recent records, newest first.
func (a *Archive) Last(ctx context.Context, n int) ([]Record, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, created_at, target, sources, found, steps, expression, nodes, micros
		 FROM solves ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var created int64
		var sources string
		var nodes int64
		if err := rows.Scan(&rec.ID, &created, &rec.Target, &sources,
			&rec.Found, &rec.Steps, &rec.Expression, &nodes, &rec.Micros); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(created, 0).UTC()
		rec.Sources, err = splitInts(sources)
		if err != nil {
			return nil, err
		}
		rec.Nodes = uint64(nodes)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Stats summarizes the archive.
func (a *Archive) Stats(ctx context.Context) (Summary, error) {
	var s Summary
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(found), 0), COALESCE(AVG(micros), 0) FROM solves`).
		Scan(&s.Total, &s.Solved, &s.MeanMicros)
	return s, err
}

func joinInts(vals []int) string {
	return strings.Join(lo.Map(vals, func(v int, _ int) string {
		return strconv.Itoa(v)
	}), " ")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Fields(s)
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad sources column %q: %w", s, err)
		}
		vals[i] = v
	}
	return vals, nil
}

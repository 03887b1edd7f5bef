// Package journal persists routing decisions using SQLite.
//
// The journal backs the cost dashboard: how often turns stayed on free
// local inference versus paid cloud calls. Writes are best effort; a
// failed insert never affects routing.
package journal

import (
	"database/sql"
	"strings"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"

	"github.com/relay-ai/relay/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	target     TEXT NOT NULL,
	provider   TEXT NOT NULL,
	model      TEXT NOT NULL,
	score      REAL NOT NULL,
	reason     TEXT NOT NULL,
	tags       TEXT
);
CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at);
CREATE INDEX IF NOT EXISTS idx_decisions_target ON decisions(target);
`

// Store is a SQLite-backed decision journal.
type Store struct {
	db *sql.DB
}

// Open opens the journal database at the given path, creating the
// schema if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one routing decision.
func (s *Store) Record(d *model.Decision) error {
	_, err := s.db.Exec(
		`INSERT INTO decisions (id, created_at, target, provider, model, score, reason, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		time.Now().UTC(),
		string(d.Target),
		d.Model.Provider,
		d.Model.ID,
		d.Score,
		d.Reason,
		strings.Join(d.Tags, ","),
	)
	return err
}

// Summary aggregates journal contents.
type Summary struct {
	Total     int64   `json:"total"`
	Local     int64   `json:"local"`
	LocalText int64   `json:"local_text"`
	Cloud     int64   `json:"cloud"`
	LocalRate float64 `json:"local_rate"` // percentage handled locally
	AvgScore  float64 `json:"avg_score"`
}

// Summarize returns aggregate counts over all recorded decisions.
func (s *Store) Summarize() (*Summary, error) {
	rows, err := s.db.Query(`SELECT target, COUNT(*), AVG(score) FROM decisions GROUP BY target`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum := &Summary{}
	var scoreWeighted float64
	for rows.Next() {
		var target string
		var count int64
		var avgScore sql.NullFloat64
		if err := rows.Scan(&target, &count, &avgScore); err != nil {
			return nil, err
		}
		sum.Total += count
		scoreWeighted += avgScore.Float64 * float64(count)
		switch model.Target(target) {
		case model.TargetLocal:
			sum.Local += count
		case model.TargetLocalText:
			sum.LocalText += count
		case model.TargetCloud:
			sum.Cloud += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if sum.Total > 0 {
		sum.LocalRate = float64(sum.Local+sum.LocalText) / float64(sum.Total) * 100
		sum.AvgScore = scoreWeighted / float64(sum.Total)
	}
	return sum, nil
}

// Recent returns the most recent n decisions, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, target, provider, model, score, reason, tags
		 FROM decisions ORDER BY created_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var tags string
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Target, &e.Provider, &e.Model, &e.Score, &e.Reason, &tags); err != nil {
			return nil, err
		}
		if tags != "" {
			e.Tags = strings.Split(tags, ",")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Entry is one journal row.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Target    string    `json:"target"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
	Tags      []string  `json:"tags,omitempty"`
}

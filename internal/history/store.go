// Package history persists feed/clean events and snapshots to SQLite so the
// dashboard can chart care activity over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"aquariumd/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id   TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_kind_at ON events(kind, at);

CREATE TABLE IF NOT EXISTS snapshots (
	id                  TEXT PRIMARY KEY,
	taken_at            INTEGER NOT NULL,
	ammonia_ppm         REAL NOT NULL,
	nitrite_ppm         REAL NOT NULL,
	nitrate_ppm         REAL NOT NULL,
	ph                  REAL NOT NULL,
	seconds_since_feed  INTEGER NOT NULL,
	seconds_since_clean INTEGER NOT NULL,
	mood                TEXT NOT NULL,
	mood_total          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);
`

// snapshotBuffer is the sink queue depth; beyond it snapshots are dropped
// rather than blocking the dashboard.
const snapshotBuffer = 64

// Store is the SQLite-backed history log.
type Store struct {
	db    *sql.DB
	log   zerolog.Logger
	clock func() time.Time
	snaps chan types.Snapshot
}

// Open opens (creating if needed) the history database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{
		db:    db,
		log:   log.With().Str("component", "history").Logger(),
		clock: time.Now,
		snaps: make(chan types.Snapshot, snapshotBuffer),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordEvent stores one feed/clean event.
func (s *Store) RecordEvent(kind string, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO events (id, kind, at) VALUES (?, ?, ?)`,
		uuid.NewString(), kind, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", kind, err)
	}
	return nil
}

// RecordSnapshot stores one dashboard snapshot.
func (s *Store) RecordSnapshot(snap types.Snapshot) error {
	_, err := s.db.Exec(`INSERT INTO snapshots
		(id, taken_at, ammonia_ppm, nitrite_ppm, nitrate_ppm, ph,
		 seconds_since_feed, seconds_since_clean, mood, mood_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), snap.TakenAtUnix,
		snap.Params.AmmoniaPPM, snap.Params.NitritePPM, snap.Params.NitratePPM, snap.Params.PH,
		snap.SecondsSinceFeed, snap.SecondsSinceClean,
		snap.Mood.Category.String(), snap.Mood.Total)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// DailyCounts returns per-day event counts for the trailing window, oldest
// first, with zero rows for days that had no events.
func (s *Store) DailyCounts(kind string, days int) ([]types.DayCount, error) {
	if days < 1 {
		days = 1
	}
	now := s.clock().UTC()
	since := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	rows, err := s.db.Query(`
		SELECT date(at, 'unixepoch') AS day, COUNT(*)
		FROM events
		WHERE kind = ? AND at >= ?
		GROUP BY day`, kind, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		byDay[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]types.DayCount, 0, days)
	for d := 0; d < days; d++ {
		day := since.AddDate(0, 0, d).Format("2006-01-02")
		out = append(out, types.DayCount{Day: day, Count: byDay[day]})
	}
	return out, nil
}

// Publish queues a snapshot for persistence. It never blocks: when the
// queue is full the snapshot is dropped with a warning.
func (s *Store) Publish(snap types.Snapshot) {
	select {
	case s.snaps <- snap:
	default:
		s.log.Warn().Msg("snapshot queue full, dropping")
	}
}

// Run drains queued snapshots into the database until ctx is canceled.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-s.snaps:
			if err := s.RecordSnapshot(snap); err != nil {
				s.log.Warn().Err(err).Msg("snapshot persist failed")
			}
		}
	}
}

package manifest

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vibble/engine/internal/asset"
)

// Store persists a record of every spawned asset so a generated world can
// be audited or diffed across sessions. It implements spawn.Recorder.
type Store struct {
	db *sql.DB
}

// Open opens (creating if missing) a manifest database at path. Use
// ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest db %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging manifest db %q: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS spawned_assets (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			spawn_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			method      TEXT NOT NULL,
			x           INTEGER NOT NULL,
			y           INTEGER NOT NULL,
			depth       INTEGER NOT NULL DEFAULT 0,
			room        TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_spawned_assets_spawn_id ON spawned_assets(spawn_id);
		CREATE INDEX IF NOT EXISTS idx_spawned_assets_room ON spawned_assets(room);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating manifest schema: %w", err)
	}
	return nil
}

// RecordSpawn writes one spawned asset. Called synchronously from the spawn
// path, so failures are logged rather than propagated.
func (s *Store) RecordSpawn(a *asset.Asset) {
	if a == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO spawned_assets (spawn_id, name, method, x, y, depth, room, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SpawnID, a.Name(), a.SpawnMethod, a.Pos.X, a.Pos.Y, a.Depth, a.OwningRoomName(), time.Now().UTC(),
	)
	if err != nil {
		slog.Error("recording spawned asset", "spawn_id", a.SpawnID, "name", a.Name(), "err", err)
	}
}

// Entry is one persisted spawn record.
type Entry struct {
	SpawnID string
	Name    string
	Method  string
	X, Y    int
	Depth   int
	Room    string
}

// ByRoom returns all records for one room, oldest first.
func (s *Store) ByRoom(room string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT spawn_id, name, method, x, y, depth, room
		 FROM spawned_assets WHERE room = ? ORDER BY id`, room)
	if err != nil {
		return nil, fmt.Errorf("querying manifest for room %q: %w", room, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// BySpawnID returns all records produced by one spawn group.
func (s *Store) BySpawnID(spawnID string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT spawn_id, name, method, x, y, depth, room
		 FROM spawned_assets WHERE spawn_id = ? ORDER BY id`, spawnID)
	if err != nil {
		return nil, fmt.Errorf("querying manifest for spawn group %q: %w", spawnID, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// DeleteBySpawnID drops a group's records, returning how many were removed.
// Regeneration calls this before re-running a group.
func (s *Store) DeleteBySpawnID(spawnID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM spawned_assets WHERE spawn_id = ?`, spawnID)
	if err != nil {
		return 0, fmt.Errorf("deleting manifest records for %q: %w", spawnID, err)
	}
	return res.RowsAffected()
}

// Count returns the total number of records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM spawned_assets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting manifest records: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SpawnID, &e.Name, &e.Method, &e.X, &e.Y, &e.Depth, &e.Room); err != nil {
			return nil, fmt.Errorf("scanning manifest row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest rows: %w", err)
	}
	return out, nil
}

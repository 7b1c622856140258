package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/destinos-group/destinos-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS distance_cache (
	key_a       TEXT NOT NULL,
	key_b       TEXT NOT NULL,
	distance_km REAL NOT NULL CHECK (distance_km >= 0),
	source      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (key_a, key_b)
);

CREATE TABLE IF NOT EXISTS localities (
	name        TEXT NOT NULL,
	province    TEXT NOT NULL,
	center_type TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (name, province, center_type)
);

CREATE TABLE IF NOT EXISTS geocode_cache (
	key         TEXT PRIMARY KEY,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	geocoded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_localities_province ON localities(province);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetDistance(ctx context.Context, keyA, keyB string) (*model.DistanceCacheEntry, error) {
	keyA, keyB = model.CanonicalPair(keyA, keyB)
	row := s.db.QueryRowContext(ctx,
		`SELECT key_a, key_b, distance_km, source, created_at FROM distance_cache WHERE key_a = ? AND key_b = ?`,
		keyA, keyB,
	)
	var e model.DistanceCacheEntry
	err := row.Scan(&e.KeyA, &e.KeyB, &e.DistanceKM, &e.Source, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get distance %s|%s", keyA, keyB)
	}
	return &e, nil
}

func (s *SQLiteStore) PutDistanceIfAbsent(ctx context.Context, entry model.DistanceCacheEntry) (*model.DistanceCacheEntry, error) {
	entry.KeyA, entry.KeyB = model.CanonicalPair(entry.KeyA, entry.KeyB)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO distance_cache (key_a, key_b, distance_km, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.KeyA, entry.KeyB, entry.DistanceKM, entry.Source, entry.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: put distance %s|%s", entry.KeyA, entry.KeyB)
	}

	// Re-read so a losing concurrent insert returns the stored winner.
	stored, err := s.GetDistance(ctx, entry.KeyA, entry.KeyB)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, eris.Errorf("sqlite: distance %s|%s vanished after insert", entry.KeyA, entry.KeyB)
	}
	return stored, nil
}

func (s *SQLiteStore) UpsertLocalities(ctx context.Context, localities []model.Locality) (int64, error) {
	if len(localities) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert localities")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO localities (name, province, center_type) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert localities")
	}
	defer stmt.Close()

	var inserted int64
	for _, l := range localities {
		res, err := stmt.ExecContext(ctx, l.Name, l.Province, string(l.CenterType))
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert locality %s", l.Qualified())
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert localities")
	}
	return inserted, nil
}

func (s *SQLiteStore) ListLocalities(ctx context.Context, provinces []string, centerType model.CenterType) ([]model.Locality, error) {
	query := `SELECT name, province, center_type FROM localities WHERE 1=1`
	var args []any

	if len(provinces) > 0 {
		query += fmt.Sprintf(` AND province IN (?%s)`, strings.Repeat(", ?", len(provinces)-1))
		for _, p := range provinces {
			args = append(args, p)
		}
	}
	if centerType != "" {
		query += ` AND center_type = ?`
		args = append(args, string(centerType))
	}
	query += ` ORDER BY province, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list localities")
	}
	defer rows.Close()

	var out []model.Locality
	for rows.Next() {
		var l model.Locality
		var ct string
		if err := rows.Scan(&l.Name, &l.Province, &ct); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan locality")
		}
		l.CenterType = model.CenterType(ct)
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate localities")
}

func (s *SQLiteStore) GetCoordinates(ctx context.Context, key string) (*Coordinates, error) {
	row := s.db.QueryRowContext(ctx, `SELECT lat, lon FROM geocode_cache WHERE key = ?`, key)
	var c Coordinates
	err := row.Scan(&c.Lat, &c.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get coordinates %s", key)
	}
	return &c, nil
}

func (s *SQLiteStore) PutCoordinates(ctx context.Context, key string, c Coordinates) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (key, lat, lon, geocoded_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET lat = excluded.lat, lon = excluded.lon, geocoded_at = excluded.geocoded_at`,
		key, c.Lat, c.Lon, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put coordinates %s", key)
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	for _, q := range []struct {
		sql  string
		dest *int64
	}{
		{`SELECT COUNT(*) FROM distance_cache`, &st.Distances},
		{`SELECT COUNT(*) FROM localities`, &st.Localities},
		{`SELECT COUNT(*) FROM geocode_cache`, &st.Coordinates},
	} {
		if err := s.db.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return Stats{}, eris.Wrap(err, "sqlite: stats")
		}
	}
	return st, nil
}

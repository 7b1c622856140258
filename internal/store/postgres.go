package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/destinos-group/destinos-cli/internal/db"
	"github.com/destinos-group/destinos-cli/internal/model"
)

// PostgresStore implements Store using pgxpool, for deployments where the
// distance cache is shared between users.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS distance_cache (
	key_a       TEXT NOT NULL,
	key_b       TEXT NOT NULL,
	distance_km DOUBLE PRECISION NOT NULL CHECK (distance_km >= 0),
	source      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
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
	lat         DOUBLE PRECISION NOT NULL,
	lon         DOUBLE PRECISION NOT NULL,
	geocoded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_localities_province ON localities(province);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetDistance(ctx context.Context, keyA, keyB string) (*model.DistanceCacheEntry, error) {
	keyA, keyB = model.CanonicalPair(keyA, keyB)
	row := s.pool.QueryRow(ctx,
		`SELECT key_a, key_b, distance_km, source, created_at FROM distance_cache WHERE key_a = $1 AND key_b = $2`,
		keyA, keyB,
	)
	var e model.DistanceCacheEntry
	err := row.Scan(&e.KeyA, &e.KeyB, &e.DistanceKM, &e.Source, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get distance %s|%s", keyA, keyB)
	}
	return &e, nil
}

func (s *PostgresStore) PutDistanceIfAbsent(ctx context.Context, entry model.DistanceCacheEntry) (*model.DistanceCacheEntry, error) {
	entry.KeyA, entry.KeyB = model.CanonicalPair(entry.KeyA, entry.KeyB)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	// ON CONFLICT DO NOTHING keeps the first writer's value; RETURNING only
	// fires on insert, so a losing writer re-reads the stored winner.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO distance_cache (key_a, key_b, distance_km, source, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key_a, key_b) DO NOTHING
		 RETURNING key_a, key_b, distance_km, source, created_at`,
		entry.KeyA, entry.KeyB, entry.DistanceKM, entry.Source, entry.CreatedAt,
	)

	var stored model.DistanceCacheEntry
	err := row.Scan(&stored.KeyA, &stored.KeyB, &stored.DistanceKM, &stored.Source, &stored.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.GetDistance(ctx, entry.KeyA, entry.KeyB)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: put distance %s|%s", entry.KeyA, entry.KeyB)
	}
	return &stored, nil
}

func (s *PostgresStore) UpsertLocalities(ctx context.Context, localities []model.Locality) (int64, error) {
	if len(localities) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(localities))
	for _, l := range localities {
		rows = append(rows, []any{l.Name, l.Province, string(l.CenterType)})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "localities",
		Columns:      []string{"name", "province", "center_type"},
		ConflictKeys: []string{"name", "province", "center_type"},
		UpdateCols:   []string{"center_type"},
	}, rows)
}

func (s *PostgresStore) ListLocalities(ctx context.Context, provinces []string, centerType model.CenterType) ([]model.Locality, error) {
	query := `SELECT name, province, center_type FROM localities WHERE 1=1`
	var args []any

	if len(provinces) > 0 {
		placeholders := make([]string, len(provinces))
		for i, p := range provinces {
			args = append(args, p)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += ` AND province IN (` + strings.Join(placeholders, ", ") + `)`
	}
	if centerType != "" {
		args = append(args, string(centerType))
		query += fmt.Sprintf(` AND center_type = $%d`, len(args))
	}
	query += ` ORDER BY province, name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list localities")
	}
	defer rows.Close()

	var out []model.Locality
	for rows.Next() {
		var l model.Locality
		var ct string
		if err := rows.Scan(&l.Name, &l.Province, &ct); err != nil {
			return nil, eris.Wrap(err, "postgres: scan locality")
		}
		l.CenterType = model.CenterType(ct)
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate localities")
}

func (s *PostgresStore) GetCoordinates(ctx context.Context, key string) (*Coordinates, error) {
	row := s.pool.QueryRow(ctx, `SELECT lat, lon FROM geocode_cache WHERE key = $1`, key)
	var c Coordinates
	err := row.Scan(&c.Lat, &c.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get coordinates %s", key)
	}
	return &c, nil
}

func (s *PostgresStore) PutCoordinates(ctx context.Context, key string, c Coordinates) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO geocode_cache (key, lat, lon, geocoded_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE SET lat = EXCLUDED.lat, lon = EXCLUDED.lon, geocoded_at = now()`,
		key, c.Lat, c.Lon,
	)
	return eris.Wrapf(err, "postgres: put coordinates %s", key)
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM distance_cache),
			(SELECT COUNT(*) FROM localities),
			(SELECT COUNT(*) FROM geocode_cache)`)
	if err := row.Scan(&st.Distances, &st.Localities, &st.Coordinates); err != nil {
		return Stats{}, eris.Wrap(err, "postgres: stats")
	}
	return st, nil
}

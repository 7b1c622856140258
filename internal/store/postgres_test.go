package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/destinos-group/destinos-cli/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_GetDistance_Hit(t *testing.T) {
	st, mock := newMockPostgres(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Lookup always uses the canonical ordering regardless of argument order.
	mock.ExpectQuery("SELECT key_a, key_b, distance_km, source, created_at FROM distance_cache").
		WithArgs("granada, granada", "motril, granada").
		WillReturnRows(
			pgxmock.NewRows([]string{"key_a", "key_b", "distance_km", "source", "created_at"}).
				AddRow("granada, granada", "motril, granada", 68.42, "osrm", created),
		)

	got, err := st.GetDistance(context.Background(), "motril, granada", "granada, granada")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 68.42, got.DistanceKM)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetDistance_Miss(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT key_a, key_b, distance_km, source, created_at FROM distance_cache").
		WithArgs("a, cádiz", "b, cádiz").
		WillReturnRows(pgxmock.NewRows([]string{"key_a", "key_b", "distance_km", "source", "created_at"}))

	got, err := st.GetDistance(context.Background(), "a, cádiz", "b, cádiz")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutDistanceIfAbsent_Inserts(t *testing.T) {
	st, mock := newMockPostgres(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO distance_cache").
		WithArgs("a, jaén", "b, jaén", 10.5, "osrm", created).
		WillReturnRows(
			pgxmock.NewRows([]string{"key_a", "key_b", "distance_km", "source", "created_at"}).
				AddRow("a, jaén", "b, jaén", 10.5, "osrm", created),
		)

	stored, err := st.PutDistanceIfAbsent(context.Background(), model.DistanceCacheEntry{
		KeyA: "b, jaén", KeyB: "a, jaén", DistanceKM: 10.5, Source: "osrm", CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.5, stored.DistanceKM)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutDistanceIfAbsent_LosesRaceAndRereads(t *testing.T) {
	st, mock := newMockPostgres(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// ON CONFLICT DO NOTHING: RETURNING yields no row for the losing writer.
	mock.ExpectQuery("INSERT INTO distance_cache").
		WithArgs("a, jaén", "b, jaén", 99.9, "geodesic", created).
		WillReturnRows(pgxmock.NewRows([]string{"key_a", "key_b", "distance_km", "source", "created_at"}))

	mock.ExpectQuery("SELECT key_a, key_b, distance_km, source, created_at FROM distance_cache").
		WithArgs("a, jaén", "b, jaén").
		WillReturnRows(
			pgxmock.NewRows([]string{"key_a", "key_b", "distance_km", "source", "created_at"}).
				AddRow("a, jaén", "b, jaén", 10.5, "osrm", created),
		)

	stored, err := st.PutDistanceIfAbsent(context.Background(), model.DistanceCacheEntry{
		KeyA: "a, jaén", KeyB: "b, jaén", DistanceKM: 99.9, Source: "geodesic", CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.5, stored.DistanceKM)
	assert.Equal(t, "osrm", stored.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListLocalities_Filters(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT name, province, center_type FROM localities").
		WithArgs("Granada", "Málaga", "ies").
		WillReturnRows(
			pgxmock.NewRows([]string{"name", "province", "center_type"}).
				AddRow("Motril", "Granada", "ies").
				AddRow("Nerja", "Málaga", "ies"),
		)

	got, err := st.ListLocalities(context.Background(), []string{"Granada", "Málaga"}, model.CenterTypeIES)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.CenterTypeIES, got[0].CenterType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Stats(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(pgxmock.NewRows([]string{"d", "l", "c"}).AddRow(int64(120), int64(800), int64(340)))

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), stats.Distances)
	assert.Equal(t, int64(800), stats.Localities)
	assert.Equal(t, int64(340), stats.Coordinates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Redis
// ============================================================================

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestRedis_JSONRoundTripAndExpiry(t *testing.T) {
	rc, mr := newTestRedis(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	require.NoError(t, rc.Ping(ctx))
	require.NoError(t, rc.SetJSON(ctx, "k", payload{Name: "Acme", Score: 71}, time.Minute))

	var got payload
	require.NoError(t, rc.GetJSON(ctx, "k", &got))
	assert.Equal(t, payload{Name: "Acme", Score: 71}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, rc.GetJSON(ctx, "k", &got), ErrCacheMiss)
}

func TestRedis_GetJSONCorruptValue(t *testing.T) {
	rc, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "bad", "{not json", 0))
	var out map[string]interface{}
	err := rc.GetJSON(ctx, "bad", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, rc.Del(ctx, "bad"))
	_, err = rc.Get(ctx, "bad")
	assert.ErrorIs(t, err, redis.Nil)
}

// ============================================================================
// Postgres
// ============================================================================

func TestPostgres_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS lease_decisions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_log").WillReturnResult(sqlmock.NewResult(0, 0))

	pg := &PostgresClient{DB: db}
	require.NoError(t, pg.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureSchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS lease_decisions").WillReturnError(assert.AnError)

	pg := &PostgresClient{DB: db}
	err = pg.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema migration failed")
}

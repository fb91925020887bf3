package creditsafe

import (
	"context"
	"errors"
	"testing"
	"time"

	"lease-risk-workers/internal/common/database"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls  int
	report *models.CompanyReport
	err    error
}

func (f *countingFetcher) FetchCompany(ctx context.Context, vat string) (*models.CompanyReport, error) {
	f.calls++
	return f.report, f.err
}

func sampleCompany() *models.CompanyReport {
	score := 64
	return &models.CompanyReport{CompanyID: "BE-X-1", Name: "Acme", VATNumber: "BE0123456789", CreditScore: &score, Active: true}
}

func TestCachedBureau_CacheAside(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	next := &countingFetcher{report: sampleCompany()}

	b := NewCachedBureau(next, rc, time.Hour, logger.NewTestLogger(t))

	first, err := b.FetchCompany(context.Background(), "be0123456789")
	require.NoError(t, err)
	second, err := b.FetchCompany(context.Background(), "BE0123456789")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 64, *second.CreditScore)
	assert.True(t, mr.Exists(CacheKey("BE0123456789")))

	mr.FastForward(2 * time.Hour)
	_, err = b.FetchCompany(context.Background(), "BE0123456789")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedBureau_FetchErrorNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	next := &countingFetcher{err: errors.New("status 503")}

	b := NewCachedBureau(next, rc, time.Hour, logger.NewNoOpLogger())
	_, err := b.FetchCompany(context.Background(), "BE0123456789")
	require.Error(t, err)
	assert.False(t, mr.Exists(CacheKey("BE0123456789")))
}

func TestCachedBureau_RedisUnavailableFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	key := CacheKey("BE0123456789")

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.CustomMatch(func(expected, actual []interface{}) error { return nil }).
		ExpectSet(key, nil, time.Hour).SetErr(errors.New("connection refused"))

	next := &countingFetcher{report: sampleCompany()}
	b := NewCachedBureau(next, database.NewRedisFromClient(db), time.Hour, logger.NewNoOpLogger())

	report, err := b.FetchCompany(context.Background(), "BE0123456789")
	require.NoError(t, err)
	assert.Equal(t, "Acme", report.Name)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

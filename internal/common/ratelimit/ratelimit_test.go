package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/database"
	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/logger"
)

func TestLocal_Allow(t *testing.T) {
	l := NewLocal(1, 2)
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, "a"))
	require.NoError(t, l.Allow(ctx, "a"))

	err := l.Allow(ctx, "a")
	require.Error(t, err)
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeRateLimited, stdErr.Code)

	// Keys have independent buckets.
	assert.NoError(t, l.Allow(ctx, "b"))
}

func TestRedis_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedis(database.NewRedisFromClient(db), 2, time.Minute, nil, logger.NewTestLogger(t))
	ctx := context.Background()
	fixed := time.Date(2030, 1, 1, 12, 0, 30, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	key := r.WindowKey("client-1", fixed)
	assert.Equal(t, fmt.Sprintf("worldbuilder:ratelimit:client-1:%d", fixed.Unix()/60), key)
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectIncr(key).SetVal(3)

	assert.NoError(t, r.Allow(ctx, "client-1"))
	assert.NoError(t, r.Allow(ctx, "client-1"))

	err := r.Allow(ctx, "client-1")
	require.Error(t, err)
	stdErr, _ := errors.As(err)
	assert.Equal(t, errors.ErrCodeRateLimited, stdErr.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_FallsBackWhenStoreFails(t *testing.T) {
	db, mock := redismock.NewClientMock()
	fallback := NewLocal(1, 1)
	r := NewRedis(database.NewRedisFromClient(db), 100, time.Minute, fallback, logger.NewTestLogger(t))
	ctx := context.Background()
	fixed := time.Date(2030, 1, 1, 12, 0, 30, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	key := r.WindowKey("client-2", fixed)
	mock.ExpectIncr(key).SetErr(fmt.Errorf("connection refused"))
	mock.ExpectIncr(key).SetErr(fmt.Errorf("connection refused"))

	assert.NoError(t, r.Allow(ctx, "client-2"))
	assert.Error(t, r.Allow(ctx, "client-2"), "local fallback has a burst of one")
}

func TestNew_SelectsImplementation(t *testing.T) {
	log := logger.NewNoOpLogger()

	assert.IsType(t, Unlimited{}, New(config.RateLimitConfig{Enabled: false}, nil, log))
	assert.IsType(t, &Local{}, New(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 10, Burst: 2}, nil, log))

	db, _ := redismock.NewClientMock()
	assert.IsType(t, &Redis{}, New(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 10}, database.NewRedisFromClient(db), log))
}

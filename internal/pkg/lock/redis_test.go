package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memberKey = "attendance_group_member:e-1"

func newRedisLockerMock(t *testing.T) (*RedisLocker, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, time.Minute, time.Millisecond), mock
}

func TestRedisLocker_AcquireRunRelease(t *testing.T) {
	locker, mock := newRedisLockerMock(t)
	key := redisKeyFor(memberKey)

	mock.Regexp().ExpectSetNX(key, `.+`, time.Minute).SetVal(true)
	mock.Regexp().ExpectEvalSha(releaseScript.Hash(), []string{key}, `.+`).SetVal(int64(1))

	ran := false
	err := locker.BlockingRun(context.Background(), memberKey, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_WaitsWhileBusy(t *testing.T) {
	locker, mock := newRedisLockerMock(t)
	key := redisKeyFor(memberKey)

	mock.Regexp().ExpectSetNX(key, `.+`, time.Minute).SetVal(false)
	mock.Regexp().ExpectSetNX(key, `.+`, time.Minute).SetVal(false)
	mock.Regexp().ExpectSetNX(key, `.+`, time.Minute).SetVal(true)
	mock.Regexp().ExpectEvalSha(releaseScript.Hash(), []string{key}, `.+`).SetVal(int64(1))

	got, err := Run(context.Background(), locker, memberKey, func(ctx context.Context) (string, error) {
		return "assigned", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "assigned", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_AcquireError(t *testing.T) {
	locker, mock := newRedisLockerMock(t)
	key := redisKeyFor(memberKey)

	mock.Regexp().ExpectSetNX(key, `.+`, time.Minute).SetErr(errors.New("connection refused"))

	ran := false
	err := locker.BlockingRun(context.Background(), memberKey, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire lock "+memberKey)
	assert.False(t, ran)
}

func TestRedisLocker_ReleaseFailureKeepsResult(t *testing.T) {
	locker, mock := newRedisLockerMock(t)
	key := redisKeyFor(memberKey)
	wantErr := errors.New("group is inactive")

	mock.Regexp().ExpectSetNX(key, `.+`, time.Minute).SetVal(true)
	mock.Regexp().ExpectEvalSha(releaseScript.Hash(), []string{key}, `.+`).SetErr(errors.New("connection reset"))

	err := locker.BlockingRun(context.Background(), memberKey, func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestRedisLocker_CallbackBoundedByTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { _ = client.Close() })
	ttl := 20 * time.Millisecond
	locker := NewRedisLocker(client, ttl, time.Millisecond)
	key := redisKeyFor(memberKey)

	mock.Regexp().ExpectSetNX(key, `.+`, ttl).SetVal(true)
	// The key already expired, so the release script deletes nothing.
	mock.Regexp().ExpectEvalSha(releaseScript.Hash(), []string{key}, `.+`).SetVal(int64(0))

	err := locker.BlockingRun(context.Background(), memberKey, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisKeyFor(t *testing.T) {
	assert.Equal(t, "lock:attendance_group_member:e-1", redisKeyFor(memberKey))
}

func TestNewRedisLocker_Defaults(t *testing.T) {
	l := NewRedisLocker(nil, 0, 0)
	assert.Equal(t, DefaultTTL, l.ttl)
	assert.Equal(t, DefaultRetryInterval, l.retryInterval)
}

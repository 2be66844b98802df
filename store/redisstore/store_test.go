package redisstore

import (
	"context"
	"testing"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/store/storetest"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) account.Store {
		_, rdb := newTestRedis(t)
		return New(rdb, "test")
	})
}

func TestCreateAssignsSequenceID(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := New(rdb, "")
	created, err := s.Create(context.Background(), storetest.NewAccount(0, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestRenameMovesIndexes(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "gc")
	ctx := context.Background()

	a, err := s.Create(ctx, storetest.NewAccount(5, "alice"))
	require.NoError(t, err)
	a.Username = "alicia"
	a.Email = "alicia@example.com"
	_, err = s.Save(ctx, a)
	require.NoError(t, err)

	assert.False(t, mr.Exists("gc:user:alice"))
	assert.False(t, mr.Exists("gc:email:alice@example.com"))
	got, err := s.FindByUsername(ctx, "alicia")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
}

func TestRenameOntoTakenUsername(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := New(rdb, "gc")
	ctx := context.Background()

	_, err := s.Create(ctx, storetest.NewAccount(1, "alice"))
	require.NoError(t, err)
	b, err := s.Create(ctx, storetest.NewAccount(2, "bob"))
	require.NoError(t, err)

	b.Username = "alice"
	_, err = s.Save(ctx, b)
	assert.ErrorIs(t, err, account.ErrDuplicate)
}

func TestRedisDownIsUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "gc")
	mr.Close()

	_, err := s.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, account.ErrUnavailable)
}

func TestCorruptRecordIsUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s := New(rdb, "gc")
	require.NoError(t, mr.Set("gc:acct:9", `{"v":99}`))

	_, err := s.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, account.ErrUnavailable)
}

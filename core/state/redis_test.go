package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreContract(t *testing.T) {
	_, client := newMiniredis(t)
	runStoreContract(t, NewRedisStore(client))
}

func TestRedisStoreKeyLayoutAndTTL(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStore(client, WithPrefix("test:"), WithTTL(time.Minute))
	ctx := context.Background()

	_, err := store.Create(ctx, 42, "finance")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:42"))
	assert.Equal(t, time.Minute, mr.TTL("test:42"))

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreWidensNumbers(t *testing.T) {
	_, client := newMiniredis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	s, err := store.Create(ctx, 5, "registration")
	require.NoError(t, err)
	s.Fields["age"] = 12
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, float64(12), got.Fields["age"])

	var out struct {
		Age int `mapstructure:"age"`
	}
	require.NoError(t, got.DecodeFields(&out))
	assert.Equal(t, 12, out.Age)
}

func TestRedisStoreFailuresAreStorageErrors(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStore(client)
	mr.Close()

	ctx := context.Background()
	_, err := store.Get(ctx, 1)
	var se *StorageError
	require.True(t, errors.As(err, &se), "expected StorageError, got %v", err)
	assert.Equal(t, "get", se.Op)

	err = store.Put(ctx, NewSession(1, "finance", fixedNow))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "put", se.Op)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisStore(client)
	require.NoError(t, mr.Set(defaultRedisPrefix+"9", "{not json"))

	_, err := store.Get(context.Background(), 9)
	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/dialogbot/core/logger"
)

// Locker grants exclusive access to one user's session for the duration of a turn.
type Locker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. Entries are reference counted and
// dropped once no goroutine holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

// NewKeyedMutex constructs an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*lockEntry)}
}

// Lock blocks until the user's lock is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, userID int64) (func(), error) {
	entry := k.acquire(userID)
	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(userID)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			k.release(userID)
		})
	}, nil
}

func (k *KeyedMutex) acquire(userID int64) *lockEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry, ok := k.locks[userID]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		k.locks[userID] = entry
	}
	entry.refs++
	return entry
}

func (k *KeyedMutex) release(userID int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry, ok := k.locks[userID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(k.locks, userID)
	}
}

// ErrLockTimeout is returned when the distributed lock stays taken past the wait budget.
var ErrLockTimeout = errors.New("state: lock wait timeout")

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker serializes a user's turns across processes with SET NX PX.
// Waiters inside one process queue on a KeyedMutex first so only one of them polls Redis.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
	local  *KeyedMutex
}

// NewRedisLocker builds a distributed locker. ttl bounds how long a crashed holder blocks others.
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		poll:   50 * time.Millisecond,
		local:  NewKeyedMutex(),
	}
}

// Lock acquires the local and then the Redis lock for userID.
func (l *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := l.prefix + "lock:" + strconv.FormatInt(userID, 10)
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
			}
			return nil, storageErr("lock", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() {
		// The turn context may already be cancelled; release on a short detached one.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
			logger.Warn(rctx, logger.CompDialogue, "lock.release_failed",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		unlockLocal()
	}, nil
}

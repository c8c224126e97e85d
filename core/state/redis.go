package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "dialogbot:session:"

// RedisStore keeps each session as a JSON value under <prefix><user_id>.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL expires idle sessions after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore wraps an existing client. The caller owns the client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

// Get loads and decodes the user's session.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, storageErr("get", fmt.Errorf("decode session: %w", err))
	}
	if sess.Fields == nil {
		sess.Fields = make(map[string]any)
	}
	return &sess, nil
}

// Create writes a fresh session, replacing any prior value.
func (s *RedisStore) Create(ctx context.Context, userID int64, flow string) (*Session, error) {
	sess := NewSession(userID, flow, s.now())
	if err := s.write(ctx, "create", sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Put upserts s and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	if sess == nil {
		return storageErr("put", errNilSession)
	}
	c := sess.Clone()
	c.UpdatedAt = s.now()
	return s.write(ctx, "put", c)
}

func (s *RedisStore) write(ctx context.Context, op string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return storageErr(op, fmt.Errorf("encode session: %w", err))
	}
	return storageErr(op, s.client.Set(ctx, s.key(sess.UserID), data, s.ttl).Err())
}

// Delete removes the session key.
func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	return storageErr("delete", s.client.Del(ctx, s.key(userID)).Err())
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

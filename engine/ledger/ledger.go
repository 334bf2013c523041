// Package ledger remembers the last content hash written for each card so
// unchanged records can skip embedding and upsert.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Ledger maps card ids to content hashes.
type Ledger interface {
	// Get returns the stored hash and whether one exists.
	Get(ctx context.Context, id string) (string, bool, error)
	Put(ctx context.Context, id, hash string) error
}

// Scoped prefixes every id with scope, so ledgers for different
// collections never share entries. An empty scope returns l unchanged.
func Scoped(l Ledger, scope string) Ledger {
	if scope == "" {
		return l
	}
	return &scoped{l: l, prefix: scope + "/"}
}

type scoped struct {
	l      Ledger
	prefix string
}

func (s *scoped) Get(ctx context.Context, id string) (string, bool, error) {
	return s.l.Get(ctx, s.prefix+id)
}

func (s *scoped) Put(ctx context.Context, id, hash string) error {
	return s.l.Put(ctx, s.prefix+id, hash)
}

// Memory is a process-local ledger.
type Memory struct {
	c *cache.Cache
}

// NewMemory creates a Memory ledger. A zero ttl keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Memory{c: cache.New(ttl, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, id string) (string, bool, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (m *Memory) Put(_ context.Context, id, hash string) error {
	m.c.SetDefault(id, hash)
	return nil
}

// KeyPrefix namespaces ledger keys in Redis.
const KeyPrefix = "courtside:hash:"

type redisCmds interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis is a ledger shared between processes.
type Redis struct {
	rdb redisCmds
	ttl time.Duration
}

// NewRedis wraps a Redis client. A zero ttl keeps entries forever.
func NewRedis(rdb redisCmds, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Dial connects to Redis at addr and checks the connection.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Redis, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ledger: connect redis %s: %w", addr, err)
	}
	return NewRedis(client, ttl), client, nil
}

func (r *Redis) Get(ctx context.Context, id string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, KeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ledger: get %s: %w", id, err)
	}
	return v, true, nil
}

func (r *Redis) Put(ctx context.Context, id, hash string) error {
	if err := r.rdb.Set(ctx, KeyPrefix+id, hash, r.ttl).Err(); err != nil {
		return fmt.Errorf("ledger: put %s: %w", id, err)
	}
	return nil
}

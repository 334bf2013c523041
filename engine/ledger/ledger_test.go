package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	_, ok, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "doc-1", "h1"))
	require.NoError(t, m.Put(ctx, "doc-1", "h2"))
	h, ok, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h2", h)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10 * time.Millisecond)
	require.NoError(t, m.Put(ctx, "doc-1", "h1"))
	time.Sleep(30 * time.Millisecond)
	_, ok, _ := m.Get(ctx, "doc-1")
	assert.False(t, ok)
}

type fakeRedis struct {
	data   map[string]string
	getErr error
	setErr error
	ttl    time.Duration
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = value.(string)
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRedis{data: map[string]string{}}
	r := NewRedis(fr, time.Hour)

	_, ok, err := r.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Put(ctx, "doc-1", "h1"))
	assert.Equal(t, "h1", fr.data[KeyPrefix+"doc-1"])
	assert.Equal(t, time.Hour, fr.ttl)

	h, ok, err := r.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h1", h)
}

func TestRedis_Errors(t *testing.T) {
	ctx := context.Background()
	r := NewRedis(&fakeRedis{data: map[string]string{}, getErr: errors.New("down"), setErr: errors.New("down")}, 0)

	_, _, err := r.Get(ctx, "doc-1")
	assert.Error(t, err)
	assert.Error(t, r.Put(ctx, "doc-1", "h"))
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRedis{data: map[string]string{}}
	base := NewRedis(fr, 0)
	games := Scoped(base, "sports/games")
	other := Scoped(base, "sports_v2/games")

	require.NoError(t, games.Put(ctx, "doc-1", "h1"))
	assert.Equal(t, "h1", fr.data[KeyPrefix+"sports/games/doc-1"])

	h, ok, err := games.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h1", h)

	_, ok, err = other.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok, "a new collection starts with an empty ledger")

	assert.Same(t, base, Scoped(base, ""))
}

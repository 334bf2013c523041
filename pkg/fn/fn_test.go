package fn

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestResult(t *testing.T) {
	v, err := Ok(3).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	r := FromPair(0, errBoom)
	assert.True(t, r.IsErr())
	assert.False(t, r.IsOk())
	_, err = r.Unwrap()
	assert.ErrorIs(t, err, errBoom)

	assert.True(t, FromPair("x", nil).IsOk())
}

func TestThen(t *testing.T) {
	parse := Stage[string, int](func(_ context.Context, s string) Result[int] {
		return FromPair(strconv.Atoi(s))
	})
	double := Stage[int, int](func(_ context.Context, n int) Result[int] { return Ok(n * 2) })
	stage := Traced("parse-double", Then(parse, double))

	v, err := stage(context.Background(), "21").Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	called := false
	never := Stage[int, int](func(_ context.Context, n int) Result[int] { called = true; return Ok(n) })
	_, err = Then(parse, never)(context.Background(), "x").Unwrap()
	assert.Error(t, err)
	assert.False(t, called, "second stage is skipped after an error")
}

func TestFanOut(t *testing.T) {
	out := FanOut(context.Background(),
		func(context.Context) Result[int] { time.Sleep(5 * time.Millisecond); return Ok(1) },
		func(context.Context) Result[int] { return Err[int](errBoom) },
		func(context.Context) Result[int] { return Ok(3) },
	)
	require.Len(t, out, 3)
	v, err := out[0].Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, out[1].IsErr())
	v, _ = out[2].Unwrap()
	assert.Equal(t, 3, v)

	assert.Empty(t, FanOut[int](context.Background()))
}

func TestFanOut_PanicBecomesError(t *testing.T) {
	out := FanOut(context.Background(),
		func(context.Context) Result[string] { panic("feed exploded") },
		func(context.Context) Result[string] { return Ok("fine") },
	)
	_, err := out[0].Unwrap()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed exploded")
	assert.True(t, out[1].IsOk())
}

func TestFanOut_SharesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := FanOut(ctx, func(ctx context.Context) Result[int] { return FromPair(0, ctx.Err()) })
	_, err := out[0].Unwrap()
	assert.ErrorIs(t, err, context.Canceled)
}

func fastRetry(n int) RetryOpts {
	return RetryOpts{MaxAttempts: n, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	var calls atomic.Int32
	r := Retry(context.Background(), fastRetry(3), func(context.Context) Result[string] {
		if calls.Add(1) < 3 {
			return Err[string](errBoom)
		}
		return Ok("ok")
	})
	v, err := r.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetry_GivesUp(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastRetry(2), func(context.Context) Result[int] {
		calls++
		return Err[int](errBoom)
	}).Unwrap()
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, calls)
}

func TestRetry_NotRetryable(t *testing.T) {
	opts := fastRetry(5)
	opts.Retryable = func(err error) bool { return !errors.Is(err, errBoom) }
	var calls int
	_, err := Retry(context.Background(), opts, func(context.Context) Result[int] {
		calls++
		return Err[int](errBoom)
	}).Unwrap()
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := RetryOpts{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour}
	var calls int
	_, err := Retry(ctx, opts, func(context.Context) Result[int] {
		calls++
		cancel()
		return Err[int](errBoom)
	}).Unwrap()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

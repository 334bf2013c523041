package espn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/pkg/resilience"
)

func testClient(url string) *Client {
	return NewClient(ClientConfig{
		BaseURL:    url,
		Timeout:    2 * time.Second,
		RatePerSec: 1000,
		Retries:    2,
		RetryWait:  time.Millisecond,
	}, nil)
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba/scoreboard", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events": []}`))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).Fetch(context.Background(), Feed{Sport: "basketball", League: "nba", Kind: "scoreboard"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"events": []}`, string(body))
}

func TestClient_FetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"articles": []}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), Feed{Sport: "football", League: "nfl", Kind: "news"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_FetchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	feed := Feed{Sport: "football", League: "nfl", Kind: "news"}
	_, err := testClient(srv.URL).Fetch(context.Background(), feed)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

	var se *domain.SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "football-nfl-news", se.Source)
}

func TestClient_FetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), Feed{Sport: "football", League: "nfl", Kind: "news"})
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/football/nfl/bogus" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"events": []}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	bad := Feed{Sport: "football", League: "nfl", Kind: "bogus"}
	for range 2 * resilience.DefaultBreakerOpts.FailThreshold {
		_, err := c.Fetch(context.Background(), bad)
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}
	assert.Equal(t, resilience.StateClosed, c.breaker.State())

	_, err := c.Fetch(context.Background(), Feed{Sport: "basketball", League: "nba", Kind: "scoreboard"})
	require.NoError(t, err)
}

func TestUpstreamFailure(t *testing.T) {
	assert.False(t, upstreamFailure(&statusError{code: http.StatusNotFound}))
	assert.False(t, upstreamFailure(&statusError{code: http.StatusBadRequest}))
	assert.True(t, upstreamFailure(&statusError{code: http.StatusTooManyRequests}))
	assert.True(t, upstreamFailure(&statusError{code: http.StatusBadGateway}))
	assert.True(t, upstreamFailure(errors.New("dial tcp: refused")))
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(resilience.ErrCircuitOpen))
	assert.False(t, retryable(&statusError{code: http.StatusNotFound}))
	assert.True(t, retryable(&statusError{code: http.StatusTooManyRequests}))
	assert.True(t, retryable(&statusError{code: http.StatusServiceUnavailable}))
	assert.True(t, retryable(errors.New("connection reset")))
}

func TestClient_URL(t *testing.T) {
	c := NewClient(ClientConfig{}, nil)
	assert.Equal(t,
		"https://site.api.espn.com/apis/site/v2/sports/basketball/nba/news",
		c.URL(Feed{Sport: "basketball", League: "nba", Kind: "news"}))
}

func TestFeed_Origin(t *testing.T) {
	o, err := Feed{Sport: "basketball", League: "NBA", Kind: "scoreboard"}.Origin()
	require.NoError(t, err)
	assert.Equal(t, domain.SportNBA, o.Sport)
	assert.Equal(t, domain.ContentScore, o.ContentType)
	assert.Equal(t, "basketball-NBA-scoreboard", o.Source)

	_, err = Feed{Sport: "baseball", League: "mlb", Kind: "news"}.Origin()
	assert.ErrorIs(t, err, domain.ErrUnknownSport)

	_, err = Feed{Sport: "football", League: "nfl", Kind: "videos"}.Origin()
	assert.ErrorIs(t, err, domain.ErrUnknownContentType)
}

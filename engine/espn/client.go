package espn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/pkg/fn"
	"github.com/WessleyAI/courtside/pkg/resilience"
)

// DefaultBaseURL is the public ESPN site API root.
const DefaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports"

const maxBodyBytes = 16 << 20

// Feed names one live upstream endpoint, e.g. basketball/nba/scoreboard.
type Feed struct {
	Sport  string `koanf:"sport"`
	League string `koanf:"league"`
	Kind   string `koanf:"kind"`
}

// Label is the source label recorded on cards built from this feed.
func (f Feed) Label() string {
	return fmt.Sprintf("%s-%s-%s", f.Sport, f.League, f.Kind)
}

// Origin maps the feed onto a domain sport and content type. The league
// names the sport ("nba", "nfl"); "scoreboard" and "scores" map to score.
func (f Feed) Origin() (Origin, error) {
	sp, err := domain.ParseSport(f.League)
	if err != nil {
		return Origin{}, err
	}
	var ct domain.ContentType
	switch strings.ToLower(f.Kind) {
	case "news":
		ct = domain.ContentNews
	case "scoreboard", "scores", "score":
		ct = domain.ContentScore
	default:
		return Origin{}, domain.NewValidationError("kind", f.Kind, domain.ErrUnknownContentType)
	}
	return Origin{Sport: sp, ContentType: ct, Source: f.Label()}, nil
}

// DefaultFeeds are the four endpoints synced when none are configured.
var DefaultFeeds = []Feed{
	{Sport: "football", League: "nfl", Kind: "news"},
	{Sport: "basketball", League: "nba", Kind: "news"},
	{Sport: "football", League: "nfl", Kind: "scoreboard"},
	{Sport: "basketball", League: "nba", Kind: "scoreboard"},
}

// ClientConfig configures the upstream HTTP client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Retries    int
	RetryWait  time.Duration
}

// Client fetches raw feed bodies. Requests are rate limited, retried with
// backoff and guarded by a circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	retry   fn.RetryOpts
	log     *zap.Logger
}

// NewClient builds a Client. Zero config values fall back to defaults.
func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}

	log = log.Named("espn")
	breakerOpts := resilience.DefaultBreakerOpts
	breakerOpts.IsFailure = upstreamFailure
	breakerOpts.OnStateChange = func(from, to resilience.State) {
		log.Warn("circuit breaker", zap.Stringer("from", from), zap.Stringer("to", to))
	}

	retry := fn.DefaultRetry
	retry.MaxAttempts = cfg.Retries
	retry.InitialWait = cfg.RetryWait
	retry.MaxWait = 10 * cfg.RetryWait
	retry.Retryable = retryable

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		breaker: resilience.NewBreaker(breakerOpts),
		retry:   retry,
		log:     log,
	}
}

// URL returns the endpoint for a feed.
func (c *Client) URL(f Feed) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, f.Sport, f.League, f.Kind)
}

// Fetch downloads the raw body of one feed.
func (c *Client) Fetch(ctx context.Context, f Feed) ([]byte, error) {
	url := c.URL(f)
	res := fn.Retry(ctx, c.retry, func(ctx context.Context) fn.Result[[]byte] {
		return resilience.CallResult(c.breaker, ctx, func(ctx context.Context) fn.Result[[]byte] {
			return fn.FromPair(c.get(ctx, url))
		})
	})
	body, err := res.Unwrap()
	if err != nil {
		c.log.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		return nil, &domain.SourceError{Source: f.Label(), Err: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)}
	}
	c.log.Debug("fetched", zap.String("url", url), zap.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "courtside/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, url: url}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

// retryable reports whether another attempt could succeed. An open breaker
// and client errors other than 429 are final.
func retryable(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	return upstreamFailure(err)
}

// upstreamFailure reports whether err says the upstream is unhealthy. A
// 4xx other than 429 is a bad request for one feed, not an outage.
func upstreamFailure(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

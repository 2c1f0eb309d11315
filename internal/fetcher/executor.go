package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"hedera-defi/internal/cache"
	"hedera-defi/internal/metrics"
	"hedera-defi/internal/units"
)

// Empty is returned in place of a payload when an upstream call fails.
var Empty = json.RawMessage(`{}`)

// Failure kinds used when logging upstream errors.
const (
	KindTimeout     = "timeout"
	KindConnection  = "connection"
	KindRateLimited = "rate_limited"
	KindHTTPStatus  = "http_status"
	KindInvalidJSON = "invalid_json"
	KindCanceled    = "canceled"
)

// FetchError classifies a failed upstream call.
type FetchError struct {
	Kind       string
	Status     int
	RetryAfter string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options parameterise the executor.
type Options struct {
	Timeout           time.Duration
	Retry             units.RetryPolicy
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// ExecutorStats counts network-layer activity.
type ExecutorStats struct {
	NetworkRequests int64 `json:"network_requests"`
	CacheHits       int64 `json:"cache_hits"`
	Failures        int64 `json:"failures"`
}

// Executor performs cached GET requests against any Source. Failures never
// propagate: callers receive Empty and false.
type Executor struct {
	cache   *cache.Store
	client  *http.Client
	timeout time.Duration
	retry   units.RetryPolicy
	rps     float64
	logger  zerolog.Logger

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	requests atomic.Int64
	hits     atomic.Int64
	failures atomic.Int64
}

// NewExecutor constructs an executor backed by store.
func NewExecutor(store *cache.Store, opts Options, logger zerolog.Logger) *Executor {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Executor{
		cache:    store,
		client:   client,
		timeout:  timeout,
		retry:    opts.Retry,
		rps:      opts.RequestsPerSecond,
		logger:   logger.With().Str("component", "request_executor").Logger(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Execute returns the payload for path on src, from cache when fresh.
// The boolean is false when the upstream call failed and Empty was returned.
func (e *Executor) Execute(ctx context.Context, src Source, path string, params url.Values) (json.RawMessage, bool) {
	key := src.CacheKey(path, params)
	if payload, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		metrics.ObserveUpstream(src.Name, metrics.OutcomeCacheHit, 0)
		return payload, true
	}

	start := time.Now()
	endpoint := src.URL(path, params)
	var body []byte
	err := backoff.Retry(func() error {
		if err := e.wait(ctx, src.Name); err != nil {
			return backoff.Permanent(&FetchError{Kind: KindCanceled, Err: err})
		}
		payload, err := e.do(ctx, src, endpoint)
		if err != nil {
			return err
		}
		body = payload
		return nil
	}, e.retry.NewBackOff(ctx))
	if err != nil {
		e.failures.Add(1)
		metrics.ObserveUpstream(src.Name, metrics.OutcomeFailed, time.Since(start))
		e.logFailure(src, path, err)
		return Empty, false
	}

	metrics.ObserveUpstream(src.Name, metrics.OutcomeOK, time.Since(start))
	e.cache.Put(key, body)
	return body, true
}

// Stats returns the network-layer counters.
func (e *Executor) Stats() ExecutorStats {
	return ExecutorStats{
		NetworkRequests: e.requests.Load(),
		CacheHits:       e.hits.Load(),
		Failures:        e.failures.Load(),
	}
}

// ResetStats zeroes the network-layer counters.
func (e *Executor) ResetStats() {
	e.requests.Store(0)
	e.hits.Store(0)
	e.failures.Store(0)
}

// do performs one attempt. The deadline applies even when the injected
// http.Client has no Timeout of its own.
func (e *Executor) do(ctx context.Context, src Source, endpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(&FetchError{Kind: KindConnection, Err: err})
	}
	for name, value := range src.Headers {
		req.Header.Set(name, value)
	}

	e.requests.Add(1)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &FetchError{
			Kind:       KindRateLimited,
			Status:     resp.StatusCode,
			RetryAfter: resp.Header.Get("Retry-After"),
			Err:        parseHTTPError(src.Name, resp.StatusCode, payload),
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &FetchError{Kind: KindHTTPStatus, Status: resp.StatusCode, Err: parseHTTPError(src.Name, resp.StatusCode, payload)}
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(&FetchError{Kind: KindHTTPStatus, Status: resp.StatusCode, Err: parseHTTPError(src.Name, resp.StatusCode, payload)})
	}

	if !gjson.ValidBytes(payload) {
		return nil, backoff.Permanent(&FetchError{Kind: KindInvalidJSON, Status: resp.StatusCode, Err: errors.New("response body is not valid json")})
	}
	return payload, nil
}

func (e *Executor) wait(ctx context.Context, source string) error {
	if e.rps <= 0 {
		return nil
	}

	e.limiterMu.Lock()
	limiter, ok := e.limiters[source]
	if !ok {
		burst := int(e.rps)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(e.rps), burst)
		e.limiters[source] = limiter
	}
	e.limiterMu.Unlock()

	return limiter.Wait(ctx)
}

func (e *Executor) logFailure(src Source, path string, err error) {
	event := e.logger.Warn().Str("source", src.Name).Str("path", path).Err(err)

	var fe *FetchError
	if errors.As(err, &fe) {
		event = event.Str("kind", fe.Kind)
		if fe.Status != 0 {
			event = event.Int("status", fe.Status)
		}
		if fe.Kind == KindRateLimited {
			event.Str("retry_after", fe.RetryAfter).Msg("upstream rate limited; returning empty payload")
			return
		}
	}
	event.Msg("upstream request failed; returning empty payload")
}

func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return backoff.Permanent(&FetchError{Kind: KindCanceled, Err: err})
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: KindConnection, Err: err}
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  struct {
		Messages []struct {
			Message string `json:"message"`
		} `json:"messages"`
	} `json:"_status"`
}

func parseHTTPError(source string, status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if len(apiErr.Status.Messages) > 0 && apiErr.Status.Messages[0].Message != "" {
			return fmt.Errorf("%s api error (%d): %s", source, status, apiErr.Status.Messages[0].Message)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%s api error (%d): %s", source, status, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("%s api error (%d): %s", source, status, apiErr.Error)
		}
	}
	if len(payload) > 0 {
		snippet := strings.TrimSpace(string(payload))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return fmt.Errorf("%s api error (%d): %s", source, status, snippet)
	}
	return fmt.Errorf("%s api error (%d)", source, status)
}

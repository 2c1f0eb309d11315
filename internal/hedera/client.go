// Package hedera exposes typed accessors over the Hedera mirror node, the
// SaucerSwap DEX API and the Bonzo Finance lending API.
//
// Only argument validation errors are returned to callers. Upstream failures
// are logged by the executor and surface as zero values, so one flaky source
// degrades a single facet of an aggregate instead of failing it.
package hedera

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"hedera-defi/internal/cache"
	"hedera-defi/internal/calltrack"
	"hedera-defi/internal/fetcher"
	"hedera-defi/internal/units"
)

// Options parameterise a Client. Zero values select the defaults.
type Options struct {
	MirrorURL     string
	SaucerSwapURL string
	BonzoURL      string
	RelayURL      string

	CacheTTL          time.Duration
	Timeout           time.Duration
	APIKey            string
	RetryAttempts     int
	RetryBackoff      time.Duration
	RequestsPerSecond float64

	HTTPClient *http.Client
	Relay      fetcher.ChainReader
	Now        func() time.Time
}

const (
	defaultTimeout     = 30 * time.Second
	defaultRetryDelay  = 500 * time.Millisecond
	maxRetryDelay      = 5 * time.Second
	mirrorPageSize     = 100
	maxTopTokensLimit  = 1000
	maxTopPoolsLimit   = 1000
	defaultTopPoolsCap = 10
)

// Client owns its cache and call counters; separate clients share nothing.
type Client struct {
	cache   *cache.Store
	tracker *calltrack.Tracker
	exec    *fetcher.Executor
	relay   fetcher.ChainReader

	mirror  fetcher.Source
	dex     fetcher.Source
	lending fetcher.Source

	now    func() time.Time
	logger zerolog.Logger
}

// New constructs a client.
func New(opts Options, logger zerolog.Logger) *Client {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryDelay
	}

	store := cache.New(opts.CacheTTL, cache.WithClock(now))
	exec := fetcher.NewExecutor(store, fetcher.Options{
		Timeout: timeout,
		Retry: units.RetryPolicy{
			Attempts:  opts.RetryAttempts,
			BaseDelay: backoff,
			MaxDelay:  maxRetryDelay,
		},
		RequestsPerSecond: opts.RequestsPerSecond,
		HTTPClient:        opts.HTTPClient,
	}, logger)

	relay := opts.Relay
	if relay == nil {
		rpcURL := opts.RelayURL
		if rpcURL == "" {
			rpcURL = fetcher.DefaultRelayURL
		}
		relay = fetcher.NewRelay(fetcher.RelayOptions{RPCURL: rpcURL, Timeout: timeout}, logger)
	}

	return &Client{
		cache:   store,
		tracker: calltrack.New(logger),
		exec:    exec,
		relay:   relay,
		mirror:  fetcher.MirrorSource(opts.MirrorURL, opts.APIKey),
		dex:     fetcher.SaucerSwapSource(opts.SaucerSwapURL),
		lending: fetcher.BonzoSource(opts.BonzoURL),
		now:     now,
		logger:  logger.With().Str("component", "hedera_client").Logger(),
	}
}

// Close releases the relay connection, if one was opened.
func (c *Client) Close() {
	if closer, ok := c.relay.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *Client) track(method string) {
	c.tracker.Track(method)
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
	"github.com/airbuddy/airbuddy-api/internal/cache"
	"github.com/airbuddy/airbuddy-api/internal/metrics"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 4 << 20

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// Options are shared by every HTTP-backed provider.
type Options struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries int
	Cache      cache.Cache
	CacheTTL   time.Duration
	Logger     *zap.SugaredLogger
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// statusError is returned for any non-2xx upstream response.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// retryable reports whether another attempt could succeed.
func (e *statusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func newCircuitBreaker(name string, log *zap.SugaredLogger) *gobreaker.CircuitBreaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Client errors such as 404 mean the upstream is healthy.
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return !se.retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			log.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// doRequestWithResilience executes the HTTP request with retries, exponential backoff,
// and a circuit breaker. Non-2xx responses are closed and returned as *statusError.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				resp.Body.Close()
				return nil, &statusError{Code: resp.StatusCode, Body: string(snippet)}
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		// Backoff with exponential delay.
		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}

// upstream holds what every HTTP provider needs to fetch and cache payloads.
type upstream struct {
	name     string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	cache    cache.Cache
	cacheTTL time.Duration
	log      *zap.SugaredLogger
}

func newUpstream(name string, opts Options) upstream {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return upstream{
		name: name,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      retries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit:  newCircuitBreaker(name, log),
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      log.With("provider", name),
	}
}

// cached returns a previously stored payload for key, if any.
func (u *upstream) cached(ctx context.Context, key string) ([]byte, bool) {
	if u.cache == nil || u.cacheTTL <= 0 {
		return nil, false
	}
	b, err := u.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			u.log.Warnw("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return b, true
}

// store saves a payload that decoded successfully.
func (u *upstream) store(ctx context.Context, key string, body []byte) {
	if u.cache == nil || u.cacheTTL <= 0 {
		return
	}
	if err := u.cache.Set(ctx, key, body, u.cacheTTL); err != nil {
		u.log.Warnw("cache write failed", "key", key, "error", err)
	}
}

// fetch performs the request and returns the response body.
func (u *upstream) fetch(ctx context.Context, buildRequest func() (*http.Request, error)) ([]byte, error) {
	start := time.Now()
	resp, err := doRequestWithResilience(ctx, u.httpCfg, u.circuit, buildRequest)
	metrics.UpstreamRequestDuration.WithLabelValues(u.name).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, errCircuitOpen) {
			outcome = "rejected"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(u.name, outcome).Inc()
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(u.name, "error").Inc()
		return nil, fmt.Errorf("%w: read %s response: %v", airquality.ErrNetworkUnreachable, u.name, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(u.name, "success").Inc()
	return body, nil
}

// unreachable wraps failures that never produced an HTTP response, including
// an open circuit and context cancellation.
func unreachable(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", airquality.ErrNetworkUnreachable, name, err)
}

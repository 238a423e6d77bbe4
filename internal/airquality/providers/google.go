package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
	"github.com/airbuddy/airbuddy-api/internal/common"
	"github.com/airbuddy/airbuddy-api/internal/metrics"
)

// The geocoder package keeps its key in a global.
var googleMu sync.Mutex

// GoogleGeocoder resolves place names through the Google Geocoding API.
type GoogleGeocoder struct {
	name    string
	apiKey  string
	circuit *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

func NewGoogleGeocoder(apiKey string, log *zap.SugaredLogger) *GoogleGeocoder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &GoogleGeocoder{
		name:    "google",
		apiKey:  apiKey,
		circuit: newCircuitBreaker("google", log),
		log:     log.With("provider", "google"),
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// Geocode returns the first match for query. The display name echoes the query
// because the library only reports coordinates.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (airquality.GeocodeResult, error) {
	if g.apiKey == "" {
		return airquality.GeocodeResult{}, fmt.Errorf("%w: google api key is not configured", airquality.ErrServiceMisconfigured)
	}
	if err := ctx.Err(); err != nil {
		return airquality.GeocodeResult{}, unreachable(g.name, err)
	}

	start := time.Now()
	result, err := g.circuit.Execute(func() (interface{}, error) {
		googleMu.Lock()
		defer googleMu.Unlock()
		geocoder.ApiKey = g.apiKey
		return geocoder.Geocoding(geocoder.Address{City: query})
	})
	metrics.UpstreamRequestDuration.WithLabelValues(g.name).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequestsTotal.WithLabelValues(g.name, "rejected").Inc()
			return airquality.GeocodeResult{}, unreachable(g.name, fmt.Errorf("%w: %v", errCircuitOpen, err))
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(g.name, "error").Inc()
		return airquality.GeocodeResult{}, classifyGoogleError(query, err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(g.name, "success").Inc()

	loc, ok := result.(geocoder.Location)
	if !ok {
		return airquality.GeocodeResult{}, fmt.Errorf("%w: unexpected result type from circuit breaker", airquality.ErrServiceError)
	}
	return airquality.GeocodeResult{Lat: loc.Latitude, Lon: loc.Longitude, DisplayName: query}, nil
}

func classifyGoogleError(query string, err error) error {
	msg := err.Error()
	switch {
	case common.HasAny(msg, "zero_results", "no results"):
		return fmt.Errorf("%w: no match for %q", airquality.ErrNotFound, query)
	case common.HasAny(msg, "request_denied", "denied", "over_query_limit", "quota"):
		return fmt.Errorf("%w: google: %v", airquality.ErrServiceMisconfigured, err)
	default:
		return fmt.Errorf("%w: google: %v", airquality.ErrServiceError, err)
	}
}

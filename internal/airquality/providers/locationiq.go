package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
)

// DefaultLocationIQBaseURL is the LocationIQ forward geocoding endpoint.
const DefaultLocationIQBaseURL = "https://us1.locationiq.com/v1/search"

// LocationIQGeocoder resolves place names through LocationIQ.
type LocationIQGeocoder struct {
	upstream
	apiKey  string
	baseURL string
}

func NewLocationIQGeocoder(apiKey string, opts Options) *LocationIQGeocoder {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultLocationIQBaseURL
	}
	return &LocationIQGeocoder{
		upstream: newUpstream("locationiq", opts),
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

func (g *LocationIQGeocoder) Name() string {
	return g.name
}

// locationIQPlace is one search match. Coordinates arrive as strings.
type locationIQPlace struct {
	Lat         coordinate `json:"lat"`
	Lon         coordinate `json:"lon"`
	DisplayName string     `json:"display_name"`
}

// coordinate accepts both "9.93" and 9.93.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("coordinate %q: %w", s, err)
	}
	*c = coordinate(f)
	return nil
}

// Geocode returns the first match for query.
func (g *LocationIQGeocoder) Geocode(ctx context.Context, query string) (airquality.GeocodeResult, error) {
	if g.apiKey == "" {
		return airquality.GeocodeResult{}, fmt.Errorf("%w: locationiq api key is not configured", airquality.ErrServiceMisconfigured)
	}

	key := "locationiq:" + strings.ToLower(query)
	body, ok := g.cached(ctx, key)
	if !ok {
		buildRequest := func() (*http.Request, error) {
			values := url.Values{}
			values.Set("key", g.apiKey)
			values.Set("q", query)
			values.Set("format", "json")
			return http.NewRequest(http.MethodGet, g.baseURL+"?"+values.Encode(), nil)
		}

		var err error
		body, err = g.fetch(ctx, buildRequest)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) {
				if se.Code == http.StatusNotFound {
					return airquality.GeocodeResult{}, fmt.Errorf("%w: no match for %q", airquality.ErrNotFound, query)
				}
				return airquality.GeocodeResult{}, fmt.Errorf("%w: locationiq: %v", airquality.ErrServiceError, err)
			}
			return airquality.GeocodeResult{}, unreachable(g.name, err)
		}
	}

	res, err := decodeLocationIQ(body)
	if err != nil {
		return airquality.GeocodeResult{}, fmt.Errorf("%w for %q", err, query)
	}
	if !ok {
		g.store(ctx, key, body)
	}
	return res, nil
}

func decodeLocationIQ(body []byte) (airquality.GeocodeResult, error) {
	var places []locationIQPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return airquality.GeocodeResult{}, fmt.Errorf("%w: decode locationiq response: %v", airquality.ErrServiceError, err)
	}
	if len(places) == 0 {
		return airquality.GeocodeResult{}, fmt.Errorf("%w: no match", airquality.ErrNotFound)
	}

	first := places[0]
	return airquality.GeocodeResult{Lat: float64(first.Lat), Lon: float64(first.Lon), DisplayName: first.DisplayName}, nil
}

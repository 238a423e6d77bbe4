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
	"github.com/airbuddy/airbuddy-api/internal/common"
)

// DefaultWAQIBaseURL is the public World Air Quality Index API.
const DefaultWAQIBaseURL = "https://api.waqi.info"

// WAQIProvider reads station feeds and map bounds from the World Air Quality Index API.
type WAQIProvider struct {
	upstream
	apiKey  string
	baseURL string
}

// NewWAQIProvider creates a provider authenticated with apiKey.
func NewWAQIProvider(apiKey string, opts Options) *WAQIProvider {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultWAQIBaseURL
	}
	return &WAQIProvider{
		upstream: newUpstream("waqi", opts),
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

func (p *WAQIProvider) Name() string {
	return p.name
}

// Feed returns the feed of the station nearest to lat/lon.
func (p *WAQIProvider) Feed(ctx context.Context, lat, lon float64) (airquality.Feed, error) {
	var feed airquality.Feed
	u := fmt.Sprintf("%s/feed/geo:%s;%s/", p.baseURL, coord(lat), coord(lon))
	key := "waqi:feed:" + coord(lat) + ":" + coord(lon)
	if err := p.get(ctx, key, u, nil, &feed); err != nil {
		return airquality.Feed{}, err
	}
	return feed, nil
}

// Stations lists the stations inside the viewport.
func (p *WAQIProvider) Stations(ctx context.Context, b airquality.Bounds) ([]airquality.Station, error) {
	latlng := strings.Join([]string{coord(b.Lat1), coord(b.Lng1), coord(b.Lat2), coord(b.Lng2)}, ",")
	values := url.Values{}
	values.Set("latlng", latlng)
	values.Set("networks", "all")

	stations := []airquality.Station{}
	if err := p.get(ctx, "waqi:bounds:"+latlng, p.baseURL+"/map/bounds", values, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (p *WAQIProvider) get(ctx context.Context, key, endpoint string, values url.Values, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("%w: waqi api key is not configured", airquality.ErrServiceMisconfigured)
	}

	if body, ok := p.cached(ctx, key); ok {
		if err := decodeWAQI(body, out); err == nil {
			return nil
		}
	}

	buildRequest := func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("token", p.apiKey)
		return http.NewRequest(http.MethodGet, endpoint+"?"+q.Encode(), nil)
	}

	body, err := p.fetch(ctx, buildRequest)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return fmt.Errorf("%w: waqi: %v", airquality.ErrUpstreamError, err)
		}
		return unreachable(p.name, err)
	}

	if err := decodeWAQI(body, out); err != nil {
		return err
	}
	p.store(ctx, key, body)
	return nil
}

// waqiEnvelope wraps every response. On error, data is a message string.
type waqiEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decodeWAQI(body []byte, out any) error {
	var env waqiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: decode waqi response: %v", airquality.ErrUpstreamError, err)
	}
	if env.Status != "ok" {
		msg := waqiMessage(env.Data)
		if common.HasAny(msg, "invalid key", "over quota") {
			return fmt.Errorf("%w: waqi: %s", airquality.ErrServiceMisconfigured, msg)
		}
		return fmt.Errorf("%w: waqi status %q: %s", airquality.ErrUpstreamUnavailable, env.Status, msg)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode waqi data: %v", airquality.ErrUpstreamError, err)
	}
	return nil
}

func waqiMessage(data json.RawMessage) string {
	var msg string
	if err := json.Unmarshal(data, &msg); err == nil {
		return msg
	}
	return string(data)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

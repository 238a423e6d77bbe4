package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
)

type fakeService struct {
	err error

	gotLat, gotLon float64
	gotPollutant   string
	gotBounds      *airquality.Bounds
	gotCustom      []airquality.Location
	gotQuery       string
}

func (f *fakeService) Report(_ context.Context, lat, lon float64) (airquality.Report, error) {
	f.gotLat, f.gotLon = lat, lon
	if f.err != nil {
		return airquality.Report{}, f.err
	}
	return airquality.Report{
		Location: airquality.Location{Lat: lat, Lon: lon, Name: "Kochi"},
		Current:  airquality.CurrentSnapshot{AQI: 42, Category: airquality.Categorize(42)},
		Forecast: []airquality.ForecastDay{{Day: "2025-03-01", AQI: 50, MainPollutant: "pm2_5"}},
	}, nil
}

func (f *fakeService) Point(_ context.Context, lat, lon float64) (airquality.CurrentAirQuality, error) {
	f.gotLat, f.gotLon = lat, lon
	if f.err != nil {
		return airquality.CurrentAirQuality{}, f.err
	}
	return airquality.CurrentAirQuality{Location: airquality.Location{Lat: lat, Lon: lon, Name: "Kochi"}, AQI: 42}, nil
}

func (f *fakeService) Forecast(_ context.Context, lat, lon float64) (airquality.PollutantForecast, error) {
	if f.err != nil {
		return airquality.PollutantForecast{}, f.err
	}
	avg := 40.0
	return airquality.PollutantForecast{
		Location: "Kochi",
		Forecast: map[string][]airquality.DailyEntry{"pm25": {{Day: "2025-03-01", Avg: &avg}}},
	}, nil
}

func (f *fakeService) Trend(_ context.Context, lat, lon float64, pollutant string) (airquality.TrendReport, error) {
	f.gotPollutant = pollutant
	if f.err != nil {
		return airquality.TrendReport{}, f.err
	}
	return airquality.TrendReport{Location: "Kochi", Pollutant: "pm2_5", Trend: airquality.LinearTrend([]float64{1, 2}, 2)}, nil
}

func (f *fakeService) Map(_ context.Context, bounds *airquality.Bounds, custom []airquality.Location) ([]airquality.StationReading, error) {
	f.gotBounds, f.gotCustom = bounds, custom
	if f.err != nil {
		return nil, f.err
	}
	out := []airquality.StationReading{}
	for _, loc := range custom {
		out = append(out, airquality.StationReading{Location: loc})
	}
	return out, nil
}

func (f *fakeService) Geocode(_ context.Context, query string) (airquality.GeocodeResult, error) {
	f.gotQuery = query
	if f.err != nil {
		return airquality.GeocodeResult{}, f.err
	}
	return airquality.GeocodeResult{Lat: 9.93, Lon: 76.26, DisplayName: "Kochi, Kerala, India"}, nil
}

func newTestApp(svc Service, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(zap.NewNop().Sugar()),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	RegisterRoutes(app, svc, opts)
	return app
}

func get(t *testing.T, app *fiber.App, target string) (int, map[string]any, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var obj map[string]any
	_ = json.Unmarshal(body, &obj)
	return resp.StatusCode, obj, body
}

func TestCoordinateValidation(t *testing.T) {
	app := newTestApp(&fakeService{}, Options{})

	cases := []struct {
		target string
		msg    string
	}{
		{"/api/aqi", "Latitude and longitude are required"},
		{"/api/aqi?lat=9.9", "Latitude and longitude are required"},
		{"/api/aqi?lat=abc&lon=1", "Invalid latitude"},
		{"/api/aqi/point?lat=1&lon=xyz", "Invalid longitude"},
		{"/api/aqi/forecast?lat=91&lon=0", "Latitude or longitude out of range"},
		{"/api/aqi/trend?lat=0&lon=-181", "Latitude or longitude out of range"},
	}
	for _, tc := range cases {
		status, body, _ := get(t, app, tc.target)
		assert.Equal(t, http.StatusBadRequest, status, tc.target)
		assert.Equal(t, tc.msg, body["error"], tc.target)
	}
}

func TestReportRoute(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc, Options{})

	status, body, _ := get(t, app, "/api/aqi?lat=9.93&lon=76.26")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 9.93, svc.gotLat)
	assert.Equal(t, 76.26, svc.gotLon)

	current := body["current"].(map[string]any)
	assert.Equal(t, 42.0, current["aqi"])
	category := current["category"].(map[string]any)
	assert.Equal(t, "Good", category["name"])
	assert.Equal(t, "bg-green-500", category["colorClass"])
	assert.Len(t, body["forecast"], 1)
}

func TestPointForecastAndTrendRoutes(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc, Options{})

	status, body, _ := get(t, app, "/api/aqi/point?lat=1&lon=2")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Kochi", body["location"].(map[string]any)["name"])

	status, body, _ = get(t, app, "/api/aqi/forecast?lat=1&lon=2")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Kochi", body["location"])
	assert.Contains(t, body["forecast"], "pm25")

	status, body, _ = get(t, app, "/api/aqi/trend?lat=1&lon=2&pollutant=o3")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "o3", svc.gotPollutant)
	assert.Len(t, body["trend"].(map[string]any)["predicted"], 2)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: station offline", airquality.ErrUpstreamUnavailable), http.StatusBadRequest},
		{fmt.Errorf("%w: 500", airquality.ErrUpstreamError), http.StatusBadGateway},
		{airquality.ErrServiceMisconfigured, http.StatusInternalServerError},
		{airquality.ErrServiceError, http.StatusInternalServerError},
		{airquality.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: dial tcp", airquality.ErrNetworkUnreachable), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := newTestApp(&fakeService{err: tc.err}, Options{})
		status, body, _ := get(t, app, "/api/aqi/point?lat=1&lon=2")
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.NotEmpty(t, body["error"], tc.err.Error())
	}
}

func TestTrendNotFound(t *testing.T) {
	app := newTestApp(&fakeService{err: airquality.ErrNotFound}, Options{})
	status, body, _ := get(t, app, "/api/aqi/trend?lat=1&lon=2")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No forecast data for pollutant", body["error"])
}

func TestMapRoute(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc, Options{})

	locations := url.QueryEscape(`[{"lat":9.93,"lon":76.26,"name":"Kochi"},{"lat":10.78,"lon":76.65,"name":"Palakkad"}]`)
	status, _, raw := get(t, app, "/api/aqi/map?bounds=9,75,11,77&zoom=8&locations="+locations)
	require.Equal(t, http.StatusOK, status)

	require.NotNil(t, svc.gotBounds)
	assert.Equal(t, airquality.Bounds{Lat1: 9, Lng1: 75, Lat2: 11, Lng2: 77}, *svc.gotBounds)
	require.Len(t, svc.gotCustom, 2)
	assert.Equal(t, "Palakkad", svc.gotCustom[1].Name)

	var readings []airquality.StationReading
	require.NoError(t, json.Unmarshal(raw, &readings))
	assert.Len(t, readings, 2)
}

func TestMapRouteValidation(t *testing.T) {
	app := newTestApp(&fakeService{}, Options{})

	targets := []string{
		"/api/aqi/map",
		"/api/aqi/map?bounds=1,2,3",
		"/api/aqi/map?bounds=1,2,3,abc",
		"/api/aqi/map?bounds=100,0,0,0",
		"/api/aqi/map?bounds=1,2,3,4&zoom=21",
		"/api/aqi/map?bounds=1,2,3,4&zoom=far",
		"/api/aqi/map?locations=" + url.QueryEscape(`{"lat":1}`),
	}
	for _, target := range targets {
		status, body, _ := get(t, app, target)
		assert.Equal(t, http.StatusBadRequest, status, target)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestMapRouteLimitsLocations(t *testing.T) {
	locs := make([]airquality.Location, maxCustomLocations+1)
	raw, err := json.Marshal(locs)
	require.NoError(t, err)

	app := newTestApp(&fakeService{}, Options{})
	status, body, _ := get(t, app, "/api/aqi/map?locations="+url.QueryEscape(string(raw)))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "at most")
}

func TestGeocodeRoute(t *testing.T) {
	svc := &fakeService{}
	app := newTestApp(svc, Options{})

	status, body, _ := get(t, app, "/api/geocode?location="+url.QueryEscape("Kochi, Kerala"))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Kochi, Kerala", svc.gotQuery)
	assert.Equal(t, "Kochi, Kerala, India", body["display_name"])

	status, body, _ = get(t, app, "/api/geocode")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Location is required", body["error"])

	app = newTestApp(&fakeService{err: airquality.ErrNotFound}, Options{})
	status, body, _ = get(t, app, "/api/geocode?location=Atlantis")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Location not found", body["error"])
}

func TestEnvCheckRoute(t *testing.T) {
	app := newTestApp(&fakeService{}, Options{Environment: "production", AQIKeyLoaded: true})

	status, body, _ := get(t, app, "/api/env-check")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Environment check", body["status"])
	assert.Equal(t, "production", body["environment"])
	vars := body["variables"].(map[string]any)
	assert.Equal(t, "loaded", vars["aqi_api_key"])
	assert.Equal(t, "not loaded", vars["locationiq_api_key"])
}

func TestCitiesRoute(t *testing.T) {
	cities := []airquality.Location{{Name: "Kochi", Lat: 9.93, Lon: 76.26}}
	app := newTestApp(&fakeService{}, Options{Cities: cities})

	status, _, raw := get(t, app, "/api/cities")
	require.Equal(t, http.StatusOK, status)
	var got []airquality.Location
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, cities, got)

	app = newTestApp(&fakeService{}, Options{})
	_, _, raw = get(t, app, "/api/cities")
	assert.JSONEq(t, `[]`, string(raw))
}

func TestRootLiveness(t *testing.T) {
	app := newTestApp(&fakeService{}, Options{})

	status, _, raw := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Server is running", string(raw))
}

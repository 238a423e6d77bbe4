package airquality

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/airbuddy/airbuddy-api/internal/metrics"
)

const defaultBatchConcurrency = 8

var validate = validator.New()

// Service orchestrates upstream providers and the pure reshaping functions.
type Service struct {
	feeds    FeedProvider
	stations StationProvider
	geocoder Geocoder

	log              *zap.SugaredLogger
	batchConcurrency int
	now              func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for dropped batch points and upstream failures.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithBatchConcurrency bounds the number of concurrent custom-location lookups.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithClock overrides the time source used for missing upstream timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service.
func NewService(feeds FeedProvider, stations StationProvider, geocoder Geocoder, opts ...Option) *Service {
	s := &Service{
		feeds:            feeds,
		stations:         stations,
		geocoder:         geocoder,
		log:              zap.NewNop().Sugar(),
		batchConcurrency: defaultBatchConcurrency,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report returns current conditions and the aggregated daily forecast for a point.
func (s *Service) Report(ctx context.Context, lat, lon float64) (Report, error) {
	loc := Location{Lat: lat, Lon: lon}
	feed, err := s.feed(ctx, loc)
	if err != nil {
		return Report{}, err
	}

	current, err := TransformCurrent(loc, feed, s.now())
	if err != nil {
		return Report{}, err
	}

	return Report{
		Location: current.Location,
		Current: CurrentSnapshot{
			AQI:           current.AQI,
			MainPollutant: current.MainPollutant,
			Components:    current.Components,
			Timestamp:     current.Timestamp,
			Category:      current.Category,
		},
		Forecast: BuildForecast(feed.Forecast.Daily),
	}, nil
}

// Point returns current conditions for a single point.
func (s *Service) Point(ctx context.Context, lat, lon float64) (CurrentAirQuality, error) {
	loc := Location{Lat: lat, Lon: lon}
	feed, err := s.feed(ctx, loc)
	if err != nil {
		return CurrentAirQuality{}, err
	}
	return TransformCurrent(loc, feed, s.now())
}

// Forecast returns the raw per-pollutant daily series, each cut to ForecastDays.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) (PollutantForecast, error) {
	feed, err := s.feed(ctx, Location{Lat: lat, Lon: lon})
	if err != nil {
		return PollutantForecast{}, err
	}

	name := feed.City.Name
	if name == "" {
		name = unknownLocation
	}
	return PollutantForecast{
		Location: name,
		Forecast: SliceForecast(feed.Forecast.Daily, ForecastDays),
	}, nil
}

// Trend fits a line over the daily averages of one pollutant and projects
// PredictionHorizon days past the forecast. Both "pm25" and "pm2_5" name PM2.5.
func (s *Service) Trend(ctx context.Context, lat, lon float64, pollutant string) (TrendReport, error) {
	code := strings.ToLower(strings.TrimSpace(pollutant))
	switch code {
	case "", PollutantPM25:
		code = PollutantPM25Upstream
	}

	feed, err := s.feed(ctx, Location{Lat: lat, Lon: lon})
	if err != nil {
		return TrendReport{}, err
	}

	series := append([]DailyEntry(nil), feed.Forecast.Daily[code]...)
	sort.SliceStable(series, func(i, j int) bool { return series[i].Day < series[j].Day })

	report := TrendReport{
		Location:  feed.City.Name,
		Pollutant: renamePollutant(code),
		Days:      []string{},
		Observed:  []float64{},
	}
	if report.Location == "" {
		report.Location = unknownLocation
	}
	for _, e := range series {
		if e.Day == "" || e.Avg == nil {
			continue
		}
		report.Days = append(report.Days, e.Day)
		report.Observed = append(report.Observed, *e.Avg)
	}
	if len(report.Observed) == 0 {
		return TrendReport{}, fmt.Errorf("%w: no forecast averages for %s", ErrNotFound, code)
	}

	report.Trend = LinearTrend(report.Observed, PredictionHorizon)
	return report, nil
}

// Map returns the stations inside bounds (if given) followed by the custom
// locations that could be resolved. A custom location whose lookup fails is
// dropped; only a failing viewport query fails the call.
func (s *Service) Map(ctx context.Context, bounds *Bounds, custom []Location) ([]StationReading, error) {
	readings := make([]StationReading, 0, len(custom))

	if bounds != nil {
		if s.stations == nil {
			return nil, fmt.Errorf("%w: no station provider configured", ErrServiceMisconfigured)
		}
		stations, err := s.stations.Stations(ctx, *bounds)
		if err != nil {
			return nil, err
		}
		for _, st := range stations {
			if r, ok := StationFromBounds(st); ok {
				readings = append(readings, r)
			}
		}
	}

	if len(custom) == 0 {
		return readings, nil
	}

	p := pool.NewWithResults[StationReading]().
		WithMaxGoroutines(s.batchConcurrency).
		WithErrors()
	for _, loc := range custom {
		p.Go(func() (StationReading, error) {
			return s.customPoint(ctx, loc)
		})
	}

	// Results of failed lookups are discarded by the pool.
	points, err := p.Wait()
	if err != nil {
		dropped := len(custom) - len(points)
		metrics.BatchPointsDropped.Add(float64(dropped))
		s.log.Debugw("dropped custom locations", "dropped", dropped, "requested", len(custom), "error", err)
	}

	return append(readings, points...), nil
}

func (s *Service) customPoint(ctx context.Context, loc Location) (StationReading, error) {
	if err := validate.Struct(loc); err != nil {
		return StationReading{}, fmt.Errorf("%w: location %q: %v", ErrInvalidParameter, loc.Name, err)
	}
	feed, err := s.feed(ctx, loc)
	if err != nil {
		return StationReading{}, err
	}
	return StationFromFeed(loc, feed, s.now())
}

// Geocode resolves a place name to its first match.
func (s *Service) Geocode(ctx context.Context, query string) (GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return GeocodeResult{}, fmt.Errorf("%w: location", ErrMissingParameter)
	}
	if s.geocoder == nil {
		return GeocodeResult{}, fmt.Errorf("%w: no geocoder configured", ErrServiceMisconfigured)
	}
	res, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warnw("geocoding failed", "geocoder", s.geocoder.Name(), "query", query, "error", err)
		}
		return GeocodeResult{}, err
	}
	return res, nil
}

func (s *Service) feed(ctx context.Context, loc Location) (Feed, error) {
	if s.feeds == nil {
		return Feed{}, fmt.Errorf("%w: no feed provider configured", ErrServiceMisconfigured)
	}
	feed, err := s.feeds.Feed(ctx, loc.Lat, loc.Lon)
	if err != nil {
		s.log.Debugw("feed lookup failed", "lat", loc.Lat, "lon", loc.Lon, "error", err)
		return Feed{}, err
	}
	return feed, nil
}

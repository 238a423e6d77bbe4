package airquality

import "context"

// FeedProvider returns the air-quality feed of the station nearest to a point.
type FeedProvider interface {
	Feed(ctx context.Context, lat, lon float64) (Feed, error)
}

// StationProvider lists the stations inside a map viewport.
type StationProvider interface {
	Stations(ctx context.Context, bounds Bounds) ([]Station, error)
}

// Geocoder resolves a free-text place name (e.g. LocationIQ, Google).
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
)

// GeocoderChain tries each geocoder in order and returns the first match.
type GeocoderChain struct {
	geocoders []airquality.Geocoder
}

// NewGeocoderChain skips nil entries.
func NewGeocoderChain(geocoders ...airquality.Geocoder) *GeocoderChain {
	c := &GeocoderChain{}
	for _, g := range geocoders {
		if g != nil {
			c.geocoders = append(c.geocoders, g)
		}
	}
	return c
}

func (c *GeocoderChain) Name() string {
	names := make([]string, 0, len(c.geocoders))
	for _, g := range c.geocoders {
		names = append(names, g.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Geocode returns the first successful result. When every geocoder fails the
// first meaningful error is returned; a missing key only counts if nothing
// else was tried.
func (c *GeocoderChain) Geocode(ctx context.Context, query string) (airquality.GeocodeResult, error) {
	if len(c.geocoders) == 0 {
		return airquality.GeocodeResult{}, fmt.Errorf("%w: no geocoder configured", airquality.ErrServiceMisconfigured)
	}

	var firstErr error
	for _, g := range c.geocoders {
		res, err := g.Geocode(ctx, query)
		if err == nil {
			return res, nil
		}
		if firstErr == nil || errors.Is(firstErr, airquality.ErrServiceMisconfigured) {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return airquality.GeocodeResult{}, firstErr
}

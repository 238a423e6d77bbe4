package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/airbuddy/airbuddy-api/internal/airquality"
)

var validate = validator.New()

// maxCustomLocations bounds the custom points accepted by the map endpoint.
const maxCustomLocations = 50

// Service is what the handlers need from the air-quality layer.
type Service interface {
	Report(ctx context.Context, lat, lon float64) (airquality.Report, error)
	Point(ctx context.Context, lat, lon float64) (airquality.CurrentAirQuality, error)
	Forecast(ctx context.Context, lat, lon float64) (airquality.PollutantForecast, error)
	Trend(ctx context.Context, lat, lon float64, pollutant string) (airquality.TrendReport, error)
	Map(ctx context.Context, bounds *airquality.Bounds, custom []airquality.Location) ([]airquality.StationReading, error)
	Geocode(ctx context.Context, query string) (airquality.GeocodeResult, error)
}

// Options carries the static data some routes report.
type Options struct {
	Environment         string
	AQIKeyLoaded        bool
	LocationIQKeyLoaded bool
	Cities              []airquality.Location
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service, opts Options) {
	// Plain-text liveness kept for clients that ping the root.
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Server is running")
	})

	api := app.Group("/api")

	api.Get("/aqi", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		report, err := service.Report(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return err
		}
		return c.JSON(report)
	})

	api.Get("/aqi/point", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		current, err := service.Point(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return err
		}
		return c.JSON(current)
	})

	api.Get("/aqi/forecast", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		forecast, err := service.Forecast(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return err
		}
		return c.JSON(forecast)
	})

	api.Get("/aqi/trend", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return err
		}
		pollutant := c.Query("pollutant")
		report, err := service.Trend(c.UserContext(), q.Lat, q.Lon, pollutant)
		if err != nil {
			if errors.Is(err, airquality.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "No forecast data for pollutant")
			}
			return err
		}
		return c.JSON(report)
	})

	api.Get("/aqi/map", func(c *fiber.Ctx) error {
		var req mapQuery
		if err := req.bind(c); err != nil {
			return err
		}
		readings, err := service.Map(c.UserContext(), req.Bounds, req.Locations)
		if err != nil {
			return err
		}
		return c.JSON(readings)
	})

	api.Get("/geocode", func(c *fiber.Ctx) error {
		location := strings.TrimSpace(c.Query("location"))
		if location == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Location is required")
		}
		res, err := service.Geocode(c.UserContext(), location)
		if err != nil {
			return err
		}
		return c.JSON(res)
	})

	api.Get("/env-check", func(c *fiber.Ctx) error {
		env := opts.Environment
		if env == "" {
			env = "development"
		}
		return c.JSON(fiber.Map{
			"status":      "Environment check",
			"environment": env,
			"variables": fiber.Map{
				"aqi_api_key":        loaded(opts.AQIKeyLoaded),
				"locationiq_api_key": loaded(opts.LocationIQKeyLoaded),
			},
		})
	})

	cities := opts.Cities
	if cities == nil {
		cities = []airquality.Location{}
	}
	api.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(cities)
	})
}

func loaded(ok bool) string {
	if ok {
		return "loaded"
	}
	return "not loaded"
}

// coordinateQuery holds the lat/lon query parameters shared by point routes.
type coordinateQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func parseCoordinates(c *fiber.Ctx) (coordinateQuery, error) {
	var q coordinateQuery

	latStr, lonStr := strings.TrimSpace(c.Query("lat")), strings.TrimSpace(c.Query("lon"))
	if latStr == "" || lonStr == "" {
		return q, fiber.NewError(fiber.StatusBadRequest, "Latitude and longitude are required")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "Invalid latitude")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "Invalid longitude")
	}

	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "Latitude or longitude out of range")
	}
	return q, nil
}

// mapQuery holds query parameters for the map endpoint. Zoom is accepted for
// the map widget but does not change the station query.
type mapQuery struct {
	Bounds    *airquality.Bounds
	Zoom      int                   `validate:"gte=0,lte=20"`
	Locations []airquality.Location `validate:"max=50"`
}

func (m *mapQuery) bind(c *fiber.Ctx) error {
	if raw := strings.TrimSpace(c.Query("bounds")); raw != "" {
		b, err := parseBounds(raw)
		if err != nil {
			return err
		}
		m.Bounds = &b
	}

	if raw := strings.TrimSpace(c.Query("zoom")); raw != "" {
		zoom, err := strconv.Atoi(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid zoom")
		}
		m.Zoom = zoom
	}

	if raw := strings.TrimSpace(c.Query("locations")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &m.Locations); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "locations must be a JSON array of {lat, lon, name}")
		}
	}

	if m.Bounds == nil && len(m.Locations) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "bounds or locations is required")
	}

	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Locations" {
			return fiber.NewError(fiber.StatusBadRequest, "at most "+strconv.Itoa(maxCustomLocations)+" locations are allowed")
		}
		return fiber.NewError(fiber.StatusBadRequest, "Invalid map query")
	}
	return nil
}

// parseBounds reads "lat1,lng1,lat2,lng2".
func parseBounds(raw string) (airquality.Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return airquality.Bounds{}, fiber.NewError(fiber.StatusBadRequest, "bounds must be lat1,lng1,lat2,lng2")
	}

	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return airquality.Bounds{}, fiber.NewError(fiber.StatusBadRequest, "bounds must be lat1,lng1,lat2,lng2")
		}
		vals[i] = v
	}

	b := airquality.Bounds{Lat1: vals[0], Lng1: vals[1], Lat2: vals[2], Lng2: vals[3]}
	if err := validate.Struct(b); err != nil {
		return airquality.Bounds{}, fiber.NewError(fiber.StatusBadRequest, "bounds out of range")
	}
	return b, nil
}

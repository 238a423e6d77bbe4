package airquality

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AQIValue is an index reported either as a JSON number or a numeric string.
// "-", "" and null mark the value as unavailable.
type AQIValue struct {
	Value int
	Valid bool
}

// UnmarshalJSON accepts 42, 42.4, "42" and "-".
func (v *AQIValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = AQIValue{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("aqi: %w", err)
		}
		s = strings.TrimSpace(unquoted)
		if s == "" || s == "-" {
			*v = AQIValue{}
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("aqi: unexpected value %q", s)
	}
	*v = AQIValue{Value: int(math.Round(f)), Valid: true}
	return nil
}

// MarshalJSON writes the value as a number, or "-" when unavailable.
func (v AQIValue) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte(`"-"`), nil
	}
	return []byte(strconv.Itoa(v.Value)), nil
}

// IAQIValue is a single individual-index entry, e.g. iaqi.pm25.
type IAQIValue struct {
	V float64 `json:"v"`
}

// IAQI lists the individual pollutant indices of a feed. Absent entries are nil.
type IAQI struct {
	CO   *IAQIValue `json:"co,omitempty"`
	NO   *IAQIValue `json:"no,omitempty"`
	NO2  *IAQIValue `json:"no2,omitempty"`
	O3   *IAQIValue `json:"o3,omitempty"`
	SO2  *IAQIValue `json:"so2,omitempty"`
	PM25 *IAQIValue `json:"pm25,omitempty"`
	PM10 *IAQIValue `json:"pm10,omitempty"`
	NH3  *IAQIValue `json:"nh3,omitempty"`
}

// FeedCity describes the station the feed resolved to.
type FeedCity struct {
	Name string    `json:"name"`
	Geo  []float64 `json:"geo,omitempty"`
}

// FeedTime is the measurement time of a feed.
type FeedTime struct {
	ISO string `json:"iso"`
}

// DailyEntry is one day of a pollutant's forecast series.
type DailyEntry struct {
	Day string   `json:"day"`
	Avg *float64 `json:"avg,omitempty"`
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// FeedForecast holds per-pollutant daily series keyed by upstream code.
type FeedForecast struct {
	Daily map[string][]DailyEntry `json:"daily"`
}

// Feed is the data block of a WAQI geo feed response.
type Feed struct {
	AQI         AQIValue     `json:"aqi"`
	DominentPol string       `json:"dominentpol"`
	City        FeedCity     `json:"city"`
	IAQI        IAQI         `json:"iaqi"`
	Time        FeedTime     `json:"time"`
	Forecast    FeedForecast `json:"forecast"`
}

// StationInfo names a station returned by a bounds query.
type StationInfo struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// Station is one entry of a WAQI map/bounds response.
type Station struct {
	Lat     float64     `json:"lat"`
	Lon     float64     `json:"lon"`
	UID     int         `json:"uid"`
	AQI     AQIValue    `json:"aqi"`
	Station StationInfo `json:"station"`
}

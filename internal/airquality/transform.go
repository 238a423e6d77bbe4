package airquality

import (
	"fmt"
	"sort"
	"time"
)

// ForecastDays is the number of entries kept per pollutant series.
const ForecastDays = 5

const unknownLocation = "Unknown"

// TransformCurrent reshapes a feed into the current-conditions view.
// Pollutants missing from iaqi are reported as 0.
func TransformCurrent(loc Location, feed Feed, now time.Time) (CurrentAirQuality, error) {
	if !feed.AQI.Valid {
		return CurrentAirQuality{}, fmt.Errorf("%w: station reports no aqi", ErrUpstreamUnavailable)
	}

	mainPollutant := feed.DominentPol
	if mainPollutant == "" {
		mainPollutant = PollutantPM25Upstream
	}

	timestamp := feed.Time.ISO
	if timestamp == "" {
		timestamp = now.UTC().Format(time.RFC3339)
	}

	return CurrentAirQuality{
		Location:      resolveLocation(loc, feed.City.Name),
		AQI:           feed.AQI.Value,
		MainPollutant: mainPollutant,
		Components:    componentsOf(feed.IAQI),
		Timestamp:     timestamp,
		Category:      Categorize(float64(feed.AQI.Value)),
	}, nil
}

func resolveLocation(loc Location, cityName string) Location {
	switch {
	case loc.Name != "":
	case cityName != "":
		loc.Name = cityName
	default:
		loc.Name = unknownLocation
	}
	return loc
}

func componentsOf(iaqi IAQI) Components {
	return Components{
		CO:   iaqiValue(iaqi.CO),
		NO:   iaqiValue(iaqi.NO),
		NO2:  iaqiValue(iaqi.NO2),
		O3:   iaqiValue(iaqi.O3),
		SO2:  iaqiValue(iaqi.SO2),
		PM25: iaqiValue(iaqi.PM25),
		PM10: iaqiValue(iaqi.PM10),
		NH3:  iaqiValue(iaqi.NH3),
	}
}

func iaqiValue(v *IAQIValue) float64 {
	if v == nil {
		return 0
	}
	return v.V
}

// renamePollutant maps an upstream pollutant code to its response key.
func renamePollutant(code string) string {
	if code == PollutantPM25Upstream {
		return PollutantPM25
	}
	return code
}

// BuildForecast groups per-pollutant daily series into one entry per day,
// sorted by date. Pollutants are visited in lexicographic order of their
// upstream code, so equal maxima resolve to the first code in that order.
// A pollutant without data for a day is absent from that day's components.
func BuildForecast(daily map[string][]DailyEntry) []ForecastDay {
	codes := make([]string, 0, len(daily))
	for code := range daily {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	seen := make(map[string]struct{})
	var days []string
	for _, code := range codes {
		for _, e := range daily[code] {
			if e.Day == "" {
				continue
			}
			if _, ok := seen[e.Day]; ok {
				continue
			}
			seen[e.Day] = struct{}{}
			days = append(days, e.Day)
		}
	}
	// YYYY-MM-DD is fixed width, so lexicographic order is chronological.
	sort.Strings(days)

	forecast := make([]ForecastDay, 0, len(days))
	for _, day := range days {
		components := make(map[string]DayStats)
		var maxAQI float64
		mainPollutant := ""

		for _, code := range codes {
			entry, ok := entryForDay(daily[code], day)
			if !ok {
				continue
			}
			key := renamePollutant(code)
			components[key] = DayStats{
				Avg: clone(entry.Avg),
				Min: clone(entry.Min),
				Max: clone(entry.Max),
			}
			if entry.Max != nil && *entry.Max > maxAQI {
				maxAQI = *entry.Max
				mainPollutant = key
			}
		}

		aqi := maxAQI
		if mainPollutant == "" {
			mainPollutant = PollutantPM25
			aqi = fallbackAQI(components[PollutantPM25])
		}

		forecast = append(forecast, ForecastDay{
			Day:           day,
			AQI:           aqi,
			MainPollutant: mainPollutant,
			Components:    components,
		})
	}
	return forecast
}

// entryForDay returns the first entry of the series for the given day.
func entryForDay(series []DailyEntry, day string) (DailyEntry, bool) {
	for _, e := range series {
		if e.Day == day {
			return e, true
		}
	}
	return DailyEntry{}, false
}

// fallbackAQI prefers PM2.5 max, then PM2.5 avg; zero values are skipped.
func fallbackAQI(pm25 DayStats) float64 {
	if pm25.Max != nil && *pm25.Max != 0 {
		return *pm25.Max
	}
	if pm25.Avg != nil && *pm25.Avg != 0 {
		return *pm25.Avg
	}
	return 0
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// SliceForecast copies at most n leading entries of every series.
func SliceForecast(daily map[string][]DailyEntry, n int) map[string][]DailyEntry {
	out := make(map[string][]DailyEntry, len(daily))
	for code, series := range daily {
		if len(series) > n {
			series = series[:n]
		}
		entries := make([]DailyEntry, len(series))
		for i, e := range series {
			entries[i] = DailyEntry{Day: e.Day, Avg: clone(e.Avg), Min: clone(e.Min), Max: clone(e.Max)}
		}
		out[code] = entries
	}
	return out
}

// StationFromBounds converts a bounds entry into a map marker. Stations
// without a usable AQI are reported as not ok.
func StationFromBounds(s Station) (StationReading, bool) {
	if !s.AQI.Valid {
		return StationReading{}, false
	}
	name := s.Station.Name
	if name == "" {
		name = unknownLocation
	}
	return StationReading{
		Location: Location{Lat: s.Lat, Lon: s.Lon, Name: name},
		Pollution: Pollution{
			AQIUS:     s.AQI.Value,
			Timestamp: s.Station.Time,
		},
	}, true
}

// StationFromFeed converts a point feed into a map marker.
func StationFromFeed(loc Location, feed Feed, now time.Time) (StationReading, error) {
	current, err := TransformCurrent(loc, feed, now)
	if err != nil {
		return StationReading{}, err
	}
	return StationReading{
		Location: current.Location,
		Pollution: Pollution{
			AQIUS:     current.AQI,
			MainUS:    current.MainPollutant,
			Timestamp: current.Timestamp,
		},
	}, nil
}

package airquality

// Pollutant codes used in responses. Upstream reports PM2.5 as "pm25";
// the internal shape uses "pm2_5".
const (
	PollutantPM25Upstream = "pm25"
	PollutantPM25         = "pm2_5"
)

// Location is a named point on the map.
type Location struct {
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
	Name string  `json:"name"`
}

// Components holds the fixed set of pollutant concentrations reported for
// current conditions. Every key is always present in JSON output.
type Components struct {
	CO   float64 `json:"co"`
	NO   float64 `json:"no"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	SO2  float64 `json:"so2"`
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
	NH3  float64 `json:"nh3"`
}

// CurrentAirQuality is the normalized view of a station's current reading.
type CurrentAirQuality struct {
	Location      Location   `json:"location"`
	AQI           int        `json:"aqi"`
	MainPollutant string     `json:"mainPollutant"`
	Components    Components `json:"components"`
	Timestamp     string     `json:"timestamp"`
	Category      Category   `json:"category"`
}

// DayStats carries the daily statistics of one pollutant. Fields absent
// upstream stay nil and are omitted.
type DayStats struct {
	Avg *float64 `json:"avg,omitempty"`
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ForecastDay is one aggregated forecast day.
// Components only contains pollutants the upstream reported for that day.
type ForecastDay struct {
	Day           string              `json:"day"`
	AQI           float64             `json:"aqi"`
	MainPollutant string              `json:"mainPollutant"`
	Components    map[string]DayStats `json:"components"`
}

// CurrentSnapshot is the "current" block of a Report.
type CurrentSnapshot struct {
	AQI           int        `json:"aqi"`
	MainPollutant string     `json:"mainPollutant"`
	Components    Components `json:"components"`
	Timestamp     string     `json:"timestamp"`
	Category      Category   `json:"category"`
}

// Report combines current conditions with the aggregated daily forecast.
type Report struct {
	Location Location        `json:"location"`
	Current  CurrentSnapshot `json:"current"`
	Forecast []ForecastDay   `json:"forecast"`
}

// PollutantForecast is the raw per-pollutant daily series for a point.
type PollutantForecast struct {
	Location string                  `json:"location"`
	Forecast map[string][]DailyEntry `json:"forecast"`
}

// Pollution is the compact reading attached to a map marker.
type Pollution struct {
	AQIUS     int    `json:"aqius"`
	MainUS    string `json:"mainus"`
	Timestamp string `json:"timestamp"`
}

// StationReading is one marker on the pollution map.
type StationReading struct {
	Location  Location  `json:"location"`
	Pollution Pollution `json:"pollution"`
}

// Bounds is a map viewport given by two opposite corners.
type Bounds struct {
	Lat1 float64 `validate:"gte=-90,lte=90"`
	Lng1 float64 `validate:"gte=-180,lte=180"`
	Lat2 float64 `validate:"gte=-90,lte=90"`
	Lng2 float64 `validate:"gte=-180,lte=180"`
}

// GeocodeResult is the first match of a place-name search.
type GeocodeResult struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// TrendReport is the linear trend over a pollutant's forecast averages.
type TrendReport struct {
	Location  string    `json:"location"`
	Pollutant string    `json:"pollutant"`
	Days      []string  `json:"days"`
	Observed  []float64 `json:"observed"`
	Trend     Trend     `json:"trend"`
}

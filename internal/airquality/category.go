package airquality

import "math"

// Category is the severity band of an AQI value along with its display hints.
type Category struct {
	Level      int    `json:"level"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	ColorClass string `json:"colorClass"`
	Advice     string `json:"advice"`
}

// bands are ordered by upper bound; an AQI belongs to the first band whose
// upper bound it does not exceed.
var bands = []struct {
	upper    float64
	category Category
}{
	{50, Category{
		Level: 1, Name: "Good", Color: "#00E400", ColorClass: "bg-green-500",
		Advice: "Air quality is satisfactory, and air pollution poses little or no risk.",
	}},
	{100, Category{
		Level: 2, Name: "Moderate", Color: "#FFFF00", ColorClass: "bg-yellow-500",
		Advice: "Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution.",
	}},
	{150, Category{
		Level: 3, Name: "Unhealthy for Sensitive Groups", Color: "#FF7E00", ColorClass: "bg-orange-500",
		Advice: "Members of sensitive groups may experience health effects. The general public is less likely to be affected.",
	}},
	{200, Category{
		Level: 4, Name: "Unhealthy", Color: "#FF0000", ColorClass: "bg-red-500",
		Advice: "Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects.",
	}},
	{300, Category{
		Level: 5, Name: "Very Unhealthy", Color: "#8F3F97", ColorClass: "bg-purple-500",
		Advice: "Health alert: The risk of health effects is increased for everyone.",
	}},
	{math.Inf(1), Category{
		Level: 6, Name: "Hazardous", Color: "#7E0023", ColorClass: "bg-pink-800",
		Advice: "Health warning of emergency conditions: everyone is more likely to be affected.",
	}},
}

// Categorize maps an AQI to one of six fixed severity bands.
func Categorize(aqi float64) Category {
	for _, b := range bands {
		if aqi <= b.upper {
			return b.category
		}
	}
	// NaN compares false against every bound.
	return bands[len(bands)-1].category
}

package airquality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		aqi   float64
		level int
		name  string
		class string
	}{
		{0, 1, "Good", "bg-green-500"},
		{42, 1, "Good", "bg-green-500"},
		{50, 1, "Good", "bg-green-500"},
		{50.5, 2, "Moderate", "bg-yellow-500"},
		{100, 2, "Moderate", "bg-yellow-500"},
		{101, 3, "Unhealthy for Sensitive Groups", "bg-orange-500"},
		{200, 4, "Unhealthy", "bg-red-500"},
		{201, 5, "Very Unhealthy", "bg-purple-500"},
		{300, 5, "Very Unhealthy", "bg-purple-500"},
		{301, 6, "Hazardous", "bg-pink-800"},
		{999, 6, "Hazardous", "bg-pink-800"},
	}
	for _, tc := range cases {
		c := Categorize(tc.aqi)
		assert.Equal(t, tc.level, c.Level, "aqi %v", tc.aqi)
		assert.Equal(t, tc.name, c.Name, "aqi %v", tc.aqi)
		assert.Equal(t, tc.class, c.ColorClass, "aqi %v", tc.aqi)
		assert.NotEmpty(t, c.Advice)
	}
}

func TestCategorizeGoodColor(t *testing.T) {
	assert.Equal(t, "#00E400", Categorize(42).Color)
	assert.Equal(t, 6, Categorize(math.NaN()).Level)
}

package airquality

// PredictionHorizon is how many points past the observed series are projected.
const PredictionHorizon = 2

// Trend is a least-squares line fitted over x = 0..n-1.
type Trend struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Fitted    []float64 `json:"fitted"`
	Predicted []float64 `json:"predicted"`
}

// At evaluates the line at x.
func (t Trend) At(x float64) float64 {
	return t.Intercept + t.Slope*x
}

// LinearTrend fits y = intercept + slope*x to the series and extrapolates
// ahead points beyond it. A single point yields a flat line through it.
func LinearTrend(series []float64, ahead int) Trend {
	if ahead < 0 {
		ahead = 0
	}
	n := len(series)
	t := Trend{
		Fitted:    make([]float64, n),
		Predicted: make([]float64, 0, ahead),
	}
	if n == 0 {
		return t
	}

	// Center both axes. Offsetting y by its first value keeps the mean exact
	// for a constant series, so its slope is exactly 0.
	nf := float64(n)
	ref := series[0]
	var sumDev float64
	for _, y := range series {
		sumDev += y - ref
	}
	meanY := ref + sumDev/nf
	meanX := float64(n-1) / 2

	var sxy, sxx float64
	for i, y := range series {
		dx := float64(i) - meanX
		sxy += dx * (y - meanY)
		sxx += dx * dx
	}
	if sxx != 0 {
		t.Slope = sxy / sxx
	}
	t.Intercept = meanY - t.Slope*meanX

	for i := range series {
		t.Fitted[i] = t.At(float64(i))
	}
	for j := 0; j < ahead; j++ {
		t.Predicted = append(t.Predicted, t.At(float64(n+j)))
	}
	return t
}

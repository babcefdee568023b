package trend

// RegressionResult contains the output of a linear regression.
type RegressionResult struct {
	Slope     float64 // Change in y per unit of x
	Intercept float64 // Value at x=0
	RSquared  float64 // Coefficient of determination (0-1)
}

// LinearRegression performs ordinary least-squares regression of ys on xs.
// Returns nil if fewer than 2 points are provided or the lengths differ.
func LinearRegression(xs, ys []float64) *RegressionResult {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return nil
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var ssXY, ssXX, ssYY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		ssXY += dx * dy
		ssXX += dx * dx
		ssYY += dy * dy
	}

	if ssXX == 0 {
		return &RegressionResult{Intercept: meanY}
	}

	slope := ssXY / ssXX
	result := &RegressionResult{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
	}
	if ssYY > 0 {
		result.RSquared = (ssXY * ssXY) / (ssXX * ssYY)
	}
	return result
}

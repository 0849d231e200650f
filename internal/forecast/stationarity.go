package forecast

import (
	"fmt"
	"math"
)

// minADFObservations is the minimum series length for the Dickey-Fuller
// regression to be meaningful.
const minADFObservations = 20

// Order holds ARIMA model orders (p, d, q).
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// ADFResult holds the outcome of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	IsStationary bool
}

// ADF runs the Augmented Dickey-Fuller unit-root test on values.
// The null hypothesis is that the series has a unit root (non-stationary);
// p-value < 0.05 rejects the null. maxLag <= 0 selects floor((n-1)^(1/3)).
func ADF(values []float64, maxLag int) (*ADFResult, error) {
	n := len(values)
	if n < minADFObservations {
		return nil, fmt.Errorf("adf needs at least %d observations, got %d: %w", minADFObservations, n, ErrInsufficientData)
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := diffSeries(values, 1)

	// Regression: delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i}).
	// beta = 0 means unit root; beta < 0 means stationary.
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil, fmt.Errorf("adf regression has %d usable observations: %w", nObs, ErrInsufficientData)
	}

	y := make([]float64, nObs)
	x := make([][]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff[t]
		row := make([]float64, 2+maxLag)
		row[0] = 1
		row[1] = values[t]
		for j := 1; j <= maxLag; j++ {
			row[1+j] = diff[t-j]
		}
		x[i] = row
	}

	coeffs, se := olsRegression(x, y)
	if coeffs == nil || se == nil || len(coeffs) < 2 || len(se) < 2 || se[1] == 0 {
		return nil, fmt.Errorf("adf regression is singular: %w", ErrNonConvergence)
	}

	tStat := coeffs[1] / se[1]
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         maxLag,
		NObs:         nObs,
		IsStationary: pValue < 0.05,
	}, nil
}

// DetermineOrder picks the ARIMA order for a series: d is 1 when the ADF
// test cannot reject a unit root at the 0.05 level, otherwise 0. p and q
// are passed through from configuration; they are deliberate defaults, not
// searched.
func DetermineOrder(values []float64, p, q int) (Order, error) {
	res, err := ADF(values, 0)
	if err != nil {
		return Order{}, err
	}
	d := 0
	if res.PValue >= 0.05 {
		d = 1
	}
	return Order{P: p, D: d, Q: q}, nil
}

// diffSeries returns the n-th order difference of values.
func diffSeries(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return nil
	}
	out := make([]float64, len(values)-n)
	for i := n; i < len(values); i++ {
		out[i-n] = values[i] - values[i-n]
	}
	return out
}

// olsRegression runs ordinary least squares, returning coefficients and
// their standard errors. Returns nils when the normal equations are singular.
func olsRegression(x [][]float64, y []float64) (coeffs, stdErrors []float64) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, nil
	}
	k := len(x[0])

	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)

	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			xty[j] += x[i][j] * y[i]
			for l := 0; l < k; l++ {
				xtx[j][l] += x[i][j] * x[i][l]
			}
		}
	}

	inv := invertMatrix(xtx)
	if inv == nil {
		return nil, nil
	}

	coeffs = make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			coeffs[i] += inv[i][j] * xty[j]
		}
	}

	sse := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < k; j++ {
			pred += coeffs[j] * x[i][j]
		}
		r := y[i] - pred
		sse += r * r
	}
	if n <= k {
		return coeffs, nil
	}

	s2 := sse / float64(n-k)
	stdErrors = make([]float64, k)
	for i := 0; i < k; i++ {
		stdErrors[i] = math.Sqrt(s2 * inv[i][i])
	}
	return coeffs, stdErrors
}

// invertMatrix inverts a square matrix by Gauss-Jordan elimination.
func invertMatrix(m [][]float64) [][]float64 {
	n := len(m)
	if n == 0 {
		return nil
	}

	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, 2*n)
		copy(aug[i][:n], m[i])
		aug[i][n+i] = 1
	}

	for i := 0; i < n; i++ {
		maxRow := i
		for k := i + 1; k < n; k++ {
			if math.Abs(aug[k][i]) > math.Abs(aug[maxRow][i]) {
				maxRow = k
			}
		}
		aug[i], aug[maxRow] = aug[maxRow], aug[i]

		if math.Abs(aug[i][i]) < 1e-10 {
			return nil
		}

		pivot := aug[i][i]
		for j := 0; j < 2*n; j++ {
			aug[i][j] /= pivot
		}
		for k := 0; k < n; k++ {
			if k == i {
				continue
			}
			factor := aug[k][i]
			for j := 0; j < 2*n; j++ {
				aug[k][j] -= factor * aug[i][j]
			}
		}
	}

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		copy(out[i], aug[i][n:])
	}
	return out
}

// mackinnonPValue approximates the ADF p-value for the constant-only
// regression, following MacKinnon (1994) asymptotic critical values.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}

package forecast

import (
	"fmt"
	"math"
)

const (
	cssMaxIter      = 500
	cssTolerance    = 1e-6
	cssLearningRate = 0.01
)

// ARIMA is an autoregressive integrated moving average model fit by
// conditional sum of squares with iterative gradient refinement.
type ARIMA struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64

	fitted     bool
	data       []float64 // original training series
	diffData   []float64 // d-times differenced series
	residuals  []float64 // on the differenced scale
	fittedVals []float64 // on the original scale, NaN during warm-up
}

// NewARIMA creates an unfitted ARIMA(p,d,q) model.
func NewARIMA(order Order) *ARIMA {
	return &ARIMA{
		Order:    order,
		ARCoeffs: make([]float64, order.P),
		MACoeffs: make([]float64, order.Q),
	}
}

// Fit estimates the model on series by maximum likelihood (CSS).
// Returns ErrInsufficientData when the series cannot support the order and
// ErrNonConvergence when the optimizer diverges.
func (m *ARIMA) Fit(series []float64) error {
	minLen := m.Order.P + m.Order.Q + m.Order.D + 10
	if len(series) < minLen {
		return fmt.Errorf("arima(%d,%d,%d) needs %d observations, got %d: %w",
			m.Order.P, m.Order.D, m.Order.Q, minLen, len(series), ErrInsufficientData)
	}

	m.data = make([]float64, len(series))
	copy(m.data, series)

	diff := m.data
	for i := 0; i < m.Order.D; i++ {
		diff = diffSeries(diff, 1)
		if len(diff) == 0 {
			return fmt.Errorf("differencing emptied the series: %w", ErrInsufficientData)
		}
	}
	m.diffData = diff

	if err := m.fitCSS(); err != nil {
		return err
	}
	m.alignFittedValues()

	m.fitted = true
	return nil
}

// fitCSS estimates intercept, AR and MA coefficients on the differenced
// series.
func (m *ARIMA) fitCSS() error {
	y := m.diffData
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	m.Intercept = mean

	if p == 0 && q == 0 {
		m.residuals = make([]float64, n)
		m.fittedVals = nil
		variance := 0.0
		for i, v := range y {
			m.residuals[i] = v - mean
			variance += m.residuals[i] * m.residuals[i]
		}
		m.Variance = variance / float64(n-1)
		return nil
	}

	if p > 0 {
		if acf := autocorrelation(y, p); acf != nil {
			if phi := yuleWalker(acf, p); phi != nil {
				copy(m.ARCoeffs, phi)
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	start := maxInt(p, q)
	residuals := make([]float64, n)

	for iter := 0; iter < cssMaxIter; iter++ {
		prevSSE := m.computeResiduals(y, residuals, start)

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := start; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
		}

		for i := 0; i < p; i++ {
			m.ARCoeffs[i] -= cssLearningRate * arGrad[i] / float64(n)
			m.ARCoeffs[i] = clampCoeff(m.ARCoeffs[i]) // stationarity bound
		}
		for i := 0; i < q; i++ {
			m.MACoeffs[i] -= cssLearningRate * maGrad[i] / float64(n)
			m.MACoeffs[i] = clampCoeff(m.MACoeffs[i]) // invertibility bound
		}

		newSSE := m.computeResiduals(y, residuals, start)
		if math.IsNaN(newSSE) || math.IsInf(newSSE, 0) {
			return fmt.Errorf("css diverged at iteration %d: %w", iter, ErrNonConvergence)
		}
		// Iteration exhaustion is not an error: the coefficients stay
		// bounded by the clamp, so a fit that oscillates against it (MA
		// roots near the unit circle do this) is accepted as-is.
		if math.Abs(prevSSE-newSSE) < cssTolerance*(1+prevSSE) {
			break
		}
	}

	// Final residual pass; warm-up positions predict the intercept.
	m.residuals = make([]float64, n)
	diffFitted := make([]float64, n)
	for t := 0; t < n; t++ {
		if t < start {
			diffFitted[t] = m.Intercept
			m.residuals[t] = y[t] - diffFitted[t]
			continue
		}
		pred := m.onePoint(y, m.residuals, t)
		diffFitted[t] = pred
		m.residuals[t] = y[t] - pred
	}
	m.fittedVals = diffFitted

	sse := 0.0
	count := 0
	for t := start; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count > p+q+1 {
		m.Variance = sse / float64(count-p-q-1)
	} else if count > 0 {
		m.Variance = sse / float64(count)
	}
	return nil
}

// computeResiduals fills residuals and returns the conditional SSE.
func (m *ARIMA) computeResiduals(y, residuals []float64, start int) float64 {
	sse := 0.0
	for t := range residuals {
		residuals[t] = 0
	}
	for t := start; t < len(y); t++ {
		pred := m.onePoint(y, residuals, t)
		residuals[t] = y[t] - pred
		sse += residuals[t] * residuals[t]
	}
	return sse
}

// onePoint computes the one-step prediction at position t on the
// differenced scale.
func (m *ARIMA) onePoint(y, residuals []float64, t int) float64 {
	pred := m.Intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}
	return pred
}

// alignFittedValues maps fitted values from the differenced scale back onto
// the original series positions. The first max(p,q)+d positions have no
// defined one-step prediction and carry NaN.
func (m *ARIMA) alignFittedValues() {
	d := m.Order.D
	warm := maxInt(m.Order.P, m.Order.Q)
	diffFitted := m.fittedVals

	if d == 0 {
		out := make([]float64, len(m.data))
		for t := range out {
			if t < warm || diffFitted == nil {
				out[t] = math.NaN()
				continue
			}
			out[t] = diffFitted[t]
		}
		m.fittedVals = out
		return
	}

	// Undo differencing one level at a time: a one-step prediction of the
	// level-L series at index t is the previous observed level-L value plus
	// the predicted level-(L+1) increment.
	levels := make([][]float64, d+1)
	levels[0] = m.data
	for l := 1; l <= d; l++ {
		levels[l] = diffSeries(levels[l-1], 1)
	}

	pred := diffFitted // aligned with levels[d]
	for l := d - 1; l >= 0; l-- {
		z := levels[l]
		next := make([]float64, len(z))
		for t := range next {
			if t == 0 || pred == nil || t-1 >= len(pred) || t-1 < warm {
				next[t] = math.NaN()
				continue
			}
			next[t] = z[t-1] + pred[t-1]
		}
		pred = next
	}
	m.fittedVals = pred
}

// Predict forecasts steps values ahead on the original scale.
// Forecasts are multi-step (non-rolling): future residuals are zero.
func (m *ARIMA) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, fmt.Errorf("arima predict: %w", ErrNotFitted)
	}
	if steps < 1 {
		return nil, fmt.Errorf("arima predict: steps must be >= 1, got %d", steps)
	}

	y := m.diffData
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)
	extRes := make([]float64, n+steps)
	copy(extRes, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}
		for i := 0; i < m.Order.Q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * extRes[t-i-1]
		}
		extY[t] = pred
		extRes[t] = 0
	}

	forecasts := make([]float64, steps)
	copy(forecasts, extY[n:])
	if m.Order.D > 0 {
		forecasts = m.integrate(forecasts)
	}
	return forecasts, nil
}

// integrate undoes differencing to bring forecasts back to the original
// scale.
func (m *ARIMA) integrate(forecasts []float64) []float64 {
	out := make([]float64, len(forecasts))
	copy(out, forecasts)
	for i := 0; i < m.Order.D; i++ {
		last := m.data[len(m.data)-1-i]
		for j := range out {
			if j == 0 {
				out[j] += last
			} else {
				out[j] += out[j-1]
			}
		}
	}
	return out
}

// FittedValues returns in-sample one-step predictions positionally aligned
// with the training series. Warm-up positions (the first max(p,q)+d) are
// NaN. Returns nil before Fit.
func (m *ARIMA) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.fittedVals))
	copy(out, m.fittedVals)
	return out
}

// Residuals returns observed minus fitted on the original scale, aligned
// with the training series; warm-up positions are NaN.
func (m *ARIMA) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.data))
	for t := range out {
		out[t] = m.data[t] - m.fittedVals[t]
	}
	return out
}

// autocorrelation computes sample autocorrelations up to maxLag, including
// lag 0.
func autocorrelation(values []float64, maxLag int) []float64 {
	n := len(values)
	if n == 0 || maxLag >= n {
		return nil
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	c0 := 0.0
	for _, v := range values {
		c0 += (v - mean) * (v - mean)
	}
	if c0 == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	acf[0] = 1
	for k := 1; k <= maxLag; k++ {
		ck := 0.0
		for t := k; t < n; t++ {
			ck += (values[t] - mean) * (values[t-k] - mean)
		}
		acf[k] = ck / c0
	}
	return acf
}

// yuleWalker solves the Yule-Walker equations by Levinson-Durbin recursion
// to seed the AR coefficients.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
		if v <= 0 {
			break
		}
	}
	return phi
}

func clampCoeff(c float64) float64 {
	return math.Max(-0.99, math.Min(0.99, c))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"AlphaCast/internal/domain/models"
)

// Objective names accepted by the optimizer.
const (
	ObjectiveMinVolatility = "min_volatility"
	ObjectiveMaxSharpe     = "max_sharpe"
)

const (
	pgMaxIter  = 2000
	pgInitStep = 1.0
	pgMinStep  = 1e-12
	pgTol      = 1e-9
	armijoC    = 1e-4
	// penalty weight for the optional target-return equality constraint
	targetPenalty = 50.0
)

// Optimizer computes long-only portfolio weights by projected gradient
// descent over the probability simplex.
type Optimizer struct {
	objective    string
	targetReturn float64
	riskFree     float64
}

func NewOptimizer(objective string, targetReturn, riskFree float64) (*Optimizer, error) {
	switch objective {
	case ObjectiveMinVolatility, ObjectiveMaxSharpe:
	default:
		return nil, fmt.Errorf("unknown portfolio objective %q", objective)
	}
	return &Optimizer{objective: objective, targetReturn: targetReturn, riskFree: riskFree}, nil
}

// Optimize turns per-symbol return series into an allocation. Series are
// truncated to the shortest common length. At least two symbols and two
// observations are required.
func (o *Optimizer) Optimize(returns map[string][]float64) (models.Allocation, error) {
	symbols := make([]string, 0, len(returns))
	for s := range returns {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	if len(symbols) < 2 {
		return models.Allocation{}, fmt.Errorf("need at least 2 instruments, got %d", len(symbols))
	}
	minLen := math.MaxInt
	for _, s := range symbols {
		if n := len(returns[s]); n < minLen {
			minLen = n
		}
	}
	if minLen < 2 {
		return models.Allocation{}, fmt.Errorf("need at least 2 return observations per instrument")
	}

	n := len(symbols)
	// Observations in rows, aligned on the most recent minLen returns.
	samples := mat.NewDense(minLen, n, nil)
	mu := make([]float64, n)
	for j, s := range symbols {
		series := returns[s][len(returns[s])-minLen:]
		sum := 0.0
		for i, v := range series {
			samples.Set(i, j, v)
			sum += v
		}
		mu[j] = sum / float64(minLen)
	}

	var sigma mat.SymDense
	stat.CovarianceMatrix(&sigma, samples, nil)

	w := o.solve(mu, &sigma, n)

	alloc := models.Allocation{
		GeneratedAt: time.Now().UTC(),
		Objective:   o.objective,
		Weights:     make(map[string]float64, n),
	}
	for j, s := range symbols {
		alloc.Weights[s] = w[j]
	}
	alloc.ExpectedReturn = dot(mu, w)
	alloc.Volatility = math.Sqrt(quadForm(&sigma, w))
	if alloc.Volatility > 0 {
		alloc.Sharpe = (alloc.ExpectedReturn - o.riskFree) / alloc.Volatility
	}
	return alloc, nil
}

// solve runs projected gradient descent starting from equal weights. The
// step is chosen by backtracking line search, so gradients of any scale
// (daily-return covariances sit around 1e-3) make real progress.
func (o *Optimizer) solve(mu []float64, sigma *mat.SymDense, n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	grad := make([]float64, n)
	next := make([]float64, n)
	step := pgInitStep
	for iter := 0; iter < pgMaxIter; iter++ {
		o.gradient(mu, sigma, w, grad)
		fw := o.value(mu, sigma, w)

		// Halve the step until the projected move satisfies the Armijo
		// decrease condition.
		t := step
		for {
			for i := range next {
				next[i] = w[i] - t*grad[i]
			}
			projectSimplex(next)

			decrease := 0.0
			for i := range w {
				decrease += grad[i] * (next[i] - w[i])
			}
			if o.value(mu, sigma, next) <= fw+armijoC*decrease || t <= pgMinStep {
				break
			}
			t /= 2
		}
		step = math.Min(pgInitStep, 2*t)

		delta := 0.0
		for i := range w {
			delta += math.Abs(next[i] - w[i])
		}
		copy(w, next)
		if delta < pgTol {
			break
		}
	}
	return w
}

// value evaluates the minimized objective at w for the line search.
func (o *Optimizer) value(mu []float64, sigma *mat.SymDense, w []float64) float64 {
	variance := quadForm(sigma, w)
	switch o.objective {
	case ObjectiveMinVolatility:
		v := variance
		if o.targetReturn != 0 {
			gap := dot(mu, w) - o.targetReturn
			v += targetPenalty * gap * gap
		}
		return v
	case ObjectiveMaxSharpe:
		vol := math.Sqrt(variance)
		if vol == 0 {
			return -dot(mu, w)
		}
		return -(dot(mu, w) - o.riskFree) / vol
	}
	return variance
}

// gradient fills grad with the descent direction for the active objective.
func (o *Optimizer) gradient(mu []float64, sigma *mat.SymDense, w, grad []float64) {
	n := len(w)
	sw := make([]float64, n) // sigma * w
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < n; j++ {
			s += sigma.At(i, j) * w[j]
		}
		sw[i] = s
	}

	switch o.objective {
	case ObjectiveMinVolatility:
		for i := range grad {
			grad[i] = 2 * sw[i]
		}
		if o.targetReturn != 0 {
			gap := dot(mu, w) - o.targetReturn
			for i := range grad {
				grad[i] += 2 * targetPenalty * gap * mu[i]
			}
		}
	case ObjectiveMaxSharpe:
		variance := dot(w, sw)
		vol := math.Sqrt(variance)
		if vol == 0 {
			for i := range grad {
				grad[i] = -mu[i]
			}
			return
		}
		excess := dot(mu, w) - o.riskFree
		// Descent on the negative Sharpe ratio.
		for i := range grad {
			dSharpe := mu[i]/vol - excess*sw[i]/(vol*variance)
			grad[i] = -dSharpe
		}
	}
}

// projectSimplex maps v onto {w : w >= 0, sum(w) = 1} by Euclidean
// projection (Duchi et al. sort-based algorithm).
func projectSimplex(v []float64) {
	n := len(v)
	u := make([]float64, n)
	copy(u, v)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	cum := 0.0
	rho := -1
	var theta float64
	for i := 0; i < n; i++ {
		cum += u[i]
		t := (cum - 1) / float64(i+1)
		if u[i]-t > 0 {
			rho = i
			theta = t
		}
	}
	if rho < 0 {
		for i := range v {
			v[i] = 1 / float64(n)
		}
		return
	}
	for i := range v {
		v[i] = math.Max(0, v[i]-theta)
	}
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func quadForm(sigma *mat.SymDense, w []float64) float64 {
	n := len(w)
	s := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s += w[i] * sigma.At(i, j) * w[j]
		}
	}
	return s
}

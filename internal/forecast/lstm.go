package forecast

import (
	"fmt"
	"math"
	"math/rand"
)

// LSTMConfig holds residual-learner hyperparameters.
type LSTMConfig struct {
	HiddenSize   int
	Epochs       int
	BatchSize    int
	Patience     int
	LearningRate float64
	Dropout      float64
}

// DefaultLSTMConfig mirrors the hyperparameters the pipeline trains with
// unless configuration overrides them.
func DefaultLSTMConfig() LSTMConfig {
	return LSTMConfig{
		HiddenSize:   32,
		Epochs:       100,
		BatchSize:    16,
		Patience:     10,
		LearningRate: 0.001,
		Dropout:      0.2,
	}
}

// LSTM is a single-cell recurrent network with a dropout layer on the final
// hidden state and a linear dense head. It learns one-step-ahead targets
// from scaled residual windows.
type LSTM struct {
	cfg LSTMConfig
	rng *rand.Rand

	w         *lstmWeights
	timeSteps int
	fitted    bool
}

// NewLSTM builds an untrained network. rng drives weight initialization,
// epoch shuffling and dropout masks; callers pass an explicit seeded source
// so runs are reproducible.
func NewLSTM(cfg LSTMConfig, rng *rand.Rand) *LSTM {
	return &LSTM{cfg: cfg, rng: rng}
}

// lstmWeights holds every trainable parameter. Input dimension is 1, so the
// input weights are H-vectors; recurrent matrices are H*H row-major.
type lstmWeights struct {
	wf, wi, wc, wo []float64 // input weights, len H
	uf, ui, uc, uo []float64 // recurrent weights, len H*H
	bf, bi, bc, bo []float64 // gate biases, len H
	wy             []float64 // dense head, len H
	by             []float64 // dense bias, len 1
	hidden         int
}

func newLSTMWeights(hidden int, rng *rand.Rand) *lstmWeights {
	w := &lstmWeights{
		wf: make([]float64, hidden), wi: make([]float64, hidden),
		wc: make([]float64, hidden), wo: make([]float64, hidden),
		uf: make([]float64, hidden*hidden), ui: make([]float64, hidden*hidden),
		uc: make([]float64, hidden*hidden), uo: make([]float64, hidden*hidden),
		bf: make([]float64, hidden), bi: make([]float64, hidden),
		bc: make([]float64, hidden), bo: make([]float64, hidden),
		wy: make([]float64, hidden), by: make([]float64, 1),
		hidden: hidden,
	}
	inScale := math.Sqrt(6.0 / float64(1+hidden))
	recScale := math.Sqrt(6.0 / float64(2*hidden))
	headScale := math.Sqrt(6.0 / float64(hidden+1))
	for _, s := range [][]float64{w.wf, w.wi, w.wc, w.wo} {
		fillUniform(s, inScale, rng)
	}
	for _, s := range [][]float64{w.uf, w.ui, w.uc, w.uo} {
		fillUniform(s, recScale, rng)
	}
	fillUniform(w.wy, headScale, rng)
	// Forget-gate bias starts at 1 so early training retains state.
	for i := range w.bf {
		w.bf[i] = 1
	}
	return w
}

func fillUniform(s []float64, scale float64, rng *rand.Rand) {
	for i := range s {
		s[i] = (rng.Float64()*2 - 1) * scale
	}
}

// params returns every parameter slice in a fixed order so optimizer state
// stays aligned across steps and clones.
func (w *lstmWeights) params() [][]float64 {
	return [][]float64{
		w.wf, w.wi, w.wc, w.wo,
		w.uf, w.ui, w.uc, w.uo,
		w.bf, w.bi, w.bc, w.bo,
		w.wy, w.by,
	}
}

func (w *lstmWeights) clone() *lstmWeights {
	c := &lstmWeights{hidden: w.hidden}
	dst := []*[]float64{&c.wf, &c.wi, &c.wc, &c.wo, &c.uf, &c.ui, &c.uc, &c.uo, &c.bf, &c.bi, &c.bc, &c.bo, &c.wy, &c.by}
	for i, src := range w.params() {
		s := make([]float64, len(src))
		copy(s, src)
		*dst[i] = s
	}
	return c
}

func (w *lstmWeights) copyFrom(o *lstmWeights) {
	dst := w.params()
	for i, src := range o.params() {
		copy(dst[i], src)
	}
}

// lstmGrads accumulates gradients with the same shapes as the weights.
type lstmGrads struct{ *lstmWeights }

func newLSTMGrads(hidden int) lstmGrads {
	g := &lstmWeights{
		wf: make([]float64, hidden), wi: make([]float64, hidden),
		wc: make([]float64, hidden), wo: make([]float64, hidden),
		uf: make([]float64, hidden*hidden), ui: make([]float64, hidden*hidden),
		uc: make([]float64, hidden*hidden), uo: make([]float64, hidden*hidden),
		bf: make([]float64, hidden), bi: make([]float64, hidden),
		bc: make([]float64, hidden), bo: make([]float64, hidden),
		wy: make([]float64, hidden), by: make([]float64, 1),
		hidden: hidden,
	}
	return lstmGrads{g}
}

func (g lstmGrads) zero() {
	for _, s := range g.params() {
		for i := range s {
			s[i] = 0
		}
	}
}

func (g lstmGrads) scale(f float64) {
	for _, s := range g.params() {
		for i := range s {
			s[i] *= f
		}
	}
}

// clipNorm rescales gradients when their global L2 norm exceeds limit.
func (g lstmGrads) clipNorm(limit float64) {
	sum := 0.0
	for _, s := range g.params() {
		for _, v := range s {
			sum += v * v
		}
	}
	norm := math.Sqrt(sum)
	if norm > limit && norm > 0 {
		g.scale(limit / norm)
	}
}

// adam is the Adam optimizer state (first and second moments per parameter).
type adam struct {
	m, v [][]float64
	t    int
	lr   float64
}

func newAdam(shapes [][]float64, lr float64) *adam {
	a := &adam{lr: lr}
	for _, s := range shapes {
		a.m = append(a.m, make([]float64, len(s)))
		a.v = append(a.v, make([]float64, len(s)))
	}
	return a
}

func (a *adam) step(params, grads [][]float64) {
	const (
		beta1 = 0.9
		beta2 = 0.999
		eps   = 1e-8
	)
	a.t++
	bc1 := 1 - math.Pow(beta1, float64(a.t))
	bc2 := 1 - math.Pow(beta2, float64(a.t))
	for i, p := range params {
		g := grads[i]
		for j := range p {
			a.m[i][j] = beta1*a.m[i][j] + (1-beta1)*g[j]
			a.v[i][j] = beta2*a.v[i][j] + (1-beta2)*g[j]*g[j]
			mhat := a.m[i][j] / bc1
			vhat := a.v[i][j] / bc2
			p[j] -= a.lr * mhat / (math.Sqrt(vhat) + eps)
		}
	}
}

// lstmCache stores per-timestep activations for backpropagation through time.
type lstmCache struct {
	f, i, cbar, o [][]float64
	c, h, tanhc   [][]float64
	x             []float64
	hdrop         []float64
	mask          []float64
}

// forward runs the cell over a window. mask is nil at inference; during
// training it holds the inverted-dropout multiplier for the final hidden
// state.
func (n *LSTM) forward(x []float64, mask []float64) (float64, *lstmCache) {
	h := n.w.hidden
	T := len(x)
	cache := &lstmCache{
		f: make([][]float64, T), i: make([][]float64, T),
		cbar: make([][]float64, T), o: make([][]float64, T),
		c: make([][]float64, T), h: make([][]float64, T),
		tanhc: make([][]float64, T),
		x:     x, mask: mask,
	}

	hPrev := make([]float64, h)
	cPrev := make([]float64, h)
	for t := 0; t < T; t++ {
		ft := make([]float64, h)
		it := make([]float64, h)
		ct := make([]float64, h)
		ot := make([]float64, h)
		cbar := make([]float64, h)
		ht := make([]float64, h)
		tc := make([]float64, h)
		for j := 0; j < h; j++ {
			zf := n.w.wf[j]*x[t] + n.w.bf[j]
			zi := n.w.wi[j]*x[t] + n.w.bi[j]
			zc := n.w.wc[j]*x[t] + n.w.bc[j]
			zo := n.w.wo[j]*x[t] + n.w.bo[j]
			row := j * h
			for k := 0; k < h; k++ {
				zf += n.w.uf[row+k] * hPrev[k]
				zi += n.w.ui[row+k] * hPrev[k]
				zc += n.w.uc[row+k] * hPrev[k]
				zo += n.w.uo[row+k] * hPrev[k]
			}
			ft[j] = sigmoid(zf)
			it[j] = sigmoid(zi)
			cbar[j] = math.Tanh(zc)
			ot[j] = sigmoid(zo)
			ct[j] = ft[j]*cPrev[j] + it[j]*cbar[j]
			tc[j] = math.Tanh(ct[j])
			ht[j] = ot[j] * tc[j]
		}
		cache.f[t], cache.i[t], cache.cbar[t], cache.o[t] = ft, it, cbar, ot
		cache.c[t], cache.h[t], cache.tanhc[t] = ct, ht, tc
		hPrev, cPrev = ht, ct
	}

	hdrop := make([]float64, h)
	copy(hdrop, hPrev)
	if mask != nil {
		for j := range hdrop {
			hdrop[j] *= mask[j]
		}
	}
	cache.hdrop = hdrop

	y := n.w.by[0]
	for j := 0; j < h; j++ {
		y += n.w.wy[j] * hdrop[j]
	}
	return y, cache
}

// backward accumulates gradients for one sample given dy, the loss gradient
// with respect to the prediction.
func (n *LSTM) backward(cache *lstmCache, dy float64, g lstmGrads) {
	h := n.w.hidden
	T := len(cache.x)

	g.by[0] += dy
	dh := make([]float64, h)
	for j := 0; j < h; j++ {
		g.wy[j] += dy * cache.hdrop[j]
		d := dy * n.w.wy[j]
		if cache.mask != nil {
			d *= cache.mask[j]
		}
		dh[j] = d
	}

	dc := make([]float64, h)
	for t := T - 1; t >= 0; t-- {
		ft, it, cbar, ot := cache.f[t], cache.i[t], cache.cbar[t], cache.o[t]
		tc := cache.tanhc[t]
		var hPrev, cPrev []float64
		if t > 0 {
			hPrev, cPrev = cache.h[t-1], cache.c[t-1]
		} else {
			hPrev = make([]float64, h)
			cPrev = make([]float64, h)
		}

		dzf := make([]float64, h)
		dzi := make([]float64, h)
		dzc := make([]float64, h)
		dzo := make([]float64, h)
		for j := 0; j < h; j++ {
			do := dh[j] * tc[j]
			dc[j] += dh[j] * ot[j] * (1 - tc[j]*tc[j])
			dcb := dc[j] * it[j]
			di := dc[j] * cbar[j]
			df := dc[j] * cPrev[j]

			dzo[j] = do * ot[j] * (1 - ot[j])
			dzc[j] = dcb * (1 - cbar[j]*cbar[j])
			dzi[j] = di * it[j] * (1 - it[j])
			dzf[j] = df * ft[j] * (1 - ft[j])

			g.wf[j] += dzf[j] * cache.x[t]
			g.wi[j] += dzi[j] * cache.x[t]
			g.wc[j] += dzc[j] * cache.x[t]
			g.wo[j] += dzo[j] * cache.x[t]
			g.bf[j] += dzf[j]
			g.bi[j] += dzi[j]
			g.bc[j] += dzc[j]
			g.bo[j] += dzo[j]
			row := j * h
			for k := 0; k < h; k++ {
				g.uf[row+k] += dzf[j] * hPrev[k]
				g.ui[row+k] += dzi[j] * hPrev[k]
				g.uc[row+k] += dzc[j] * hPrev[k]
				g.uo[row+k] += dzo[j] * hPrev[k]
			}
		}

		dhPrev := make([]float64, h)
		for j := 0; j < h; j++ {
			row := j * h
			for k := 0; k < h; k++ {
				dhPrev[k] += n.w.uf[row+k]*dzf[j] +
					n.w.ui[row+k]*dzi[j] +
					n.w.uc[row+k]*dzc[j] +
					n.w.uo[row+k]*dzo[j]
			}
		}
		for j := 0; j < h; j++ {
			dc[j] *= ft[j]
		}
		dh = dhPrev
	}
}

// Fit trains on train with early stopping against val. Validation loss is
// tracked each epoch; when it fails to improve for Patience epochs training
// stops and the best-seen weights are restored. When val is empty the
// training loss drives the stop instead. Returns the best validation loss.
func (n *LSTM) Fit(train, val *Dataset) (float64, error) {
	if train == nil || train.Len() == 0 {
		return 0, fmt.Errorf("lstm fit on empty dataset: %w", ErrInsufficientData)
	}
	n.timeSteps = train.TimeSteps
	n.w = newLSTMWeights(n.cfg.HiddenSize, n.rng)

	grads := newLSTMGrads(n.cfg.HiddenSize)
	opt := newAdam(n.w.params(), n.cfg.LearningRate)

	batch := n.cfg.BatchSize
	if batch < 1 {
		batch = 1
	}

	best := math.Inf(1)
	var bestWeights *lstmWeights
	wait := 0

	for epoch := 0; epoch < n.cfg.Epochs; epoch++ {
		perm := n.rng.Perm(train.Len())
		for s := 0; s < len(perm); s += batch {
			e := s + batch
			if e > len(perm) {
				e = len(perm)
			}
			grads.zero()
			for _, idx := range perm[s:e] {
				mask := n.dropoutMask()
				y, cache := n.forward(train.X[idx], mask)
				dy := 2 * (y - train.Y[idx])
				n.backward(cache, dy, grads)
			}
			grads.scale(1 / float64(e-s))
			grads.clipNorm(5)
			opt.step(n.w.params(), grads.params())
		}

		loss := n.meanLoss(val)
		if val == nil || val.Len() == 0 {
			loss = n.meanLoss(train)
		}
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return 0, fmt.Errorf("lstm training diverged at epoch %d: %w", epoch, ErrNonConvergence)
		}
		if loss < best {
			best = loss
			bestWeights = n.w.clone()
			wait = 0
		} else {
			wait++
			if n.cfg.Patience > 0 && wait >= n.cfg.Patience {
				break
			}
		}
	}

	if bestWeights != nil {
		n.w.copyFrom(bestWeights)
	}
	n.fitted = true
	return best, nil
}

// dropoutMask builds an inverted-dropout multiplier for the final hidden
// state, or nil when dropout is disabled.
func (n *LSTM) dropoutMask() []float64 {
	p := n.cfg.Dropout
	if p <= 0 {
		return nil
	}
	mask := make([]float64, n.cfg.HiddenSize)
	keep := 1 - p
	for j := range mask {
		if n.rng.Float64() < keep {
			mask[j] = 1 / keep
		}
	}
	return mask
}

// meanLoss computes MSE over a dataset with dropout off.
func (n *LSTM) meanLoss(ds *Dataset) float64 {
	if ds == nil || ds.Len() == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range ds.X {
		y, _ := n.forward(ds.X[i], nil)
		d := y - ds.Y[i]
		sum += d * d
	}
	return sum / float64(ds.Len())
}

// Predict returns the one-step-ahead output for a scaled window.
func (n *LSTM) Predict(window []float64) (float64, error) {
	if !n.fitted {
		return 0, fmt.Errorf("lstm predict: %w", ErrNotFitted)
	}
	if len(window) != n.timeSteps {
		return 0, fmt.Errorf("lstm predict: window length %d, trained on %d: %w", len(window), n.timeSteps, ErrShapeMismatch)
	}
	y, _ := n.forward(window, nil)
	return y, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

package model

import (
	"fmt"
	"math"
	"math/rand"

	"LoadPulse/internal/domain/models"
)

// Config fixes the architecture. Changing any field invalidates persisted
// snapshots, which is why every field feeds the version string.
type Config struct {
	SeqLen      int     `json:"seq_len"`
	InputSize   int     `json:"input_size"`
	Hidden1     int     `json:"hidden1"`
	Hidden2     int     `json:"hidden2"`
	DenseHidden int     `json:"dense_hidden"`
	OutputSize  int     `json:"output_size"`
	Dropout     float64 `json:"dropout"`
	LearnRate   float64 `json:"learn_rate"`
}

// DefaultConfig returns the fixed architecture for the given input window.
func DefaultConfig(seqLen int) Config {
	return Config{
		SeqLen:      seqLen,
		InputSize:   models.NumChannels,
		Hidden1:     64,
		Hidden2:     32,
		DenseHidden: 32,
		OutputSize:  models.HorizonDays,
		Dropout:     0.2,
		LearnRate:   0.001,
	}
}

// Version derives the versioned identifier persisted snapshots carry.
func (c Config) Version() string {
	return fmt.Sprintf("gru-v1-s%dx%d-h%d-%d-d%d-o%d",
		c.SeqLen, c.InputSize, c.Hidden1, c.Hidden2, c.DenseHidden, c.OutputSize)
}

type mat [][]float64

func newMat(rows, cols int) mat {
	m := make(mat, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func (m mat) clone() mat {
	out := make(mat, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

type gruLayer struct {
	In     int `json:"in"`
	Hidden int `json:"hidden"`

	Wz, Wr, Wh mat // hidden x in
	Uz, Ur, Uh mat // hidden x hidden
	Bz, Br, Bh []float64
}

type denseLayer struct {
	W mat       `json:"w"` // out x in
	B []float64 `json:"b"`
}

type layerNorm struct {
	Gain []float64 `json:"gain"`
	Bias []float64 `json:"bias"`
}

// Network is the fatigue sequence model: two stacked GRU layers with a layer
// norm between them, then a small dense head ending in sigmoids. The numeric
// core is hand-rolled on float64 slices; all per-step buffers are local to
// one forward or training call.
type Network struct {
	cfg  Config
	l1   *gruLayer
	norm *layerNorm
	l2   *gruLayer
	d1   *denseLayer
	d2   *denseLayer

	adam *adamState
	rng  *rand.Rand
}

// NewNetwork builds a freshly initialized network. The seed only drives
// weight init and dropout masks; inference is deterministic.
func NewNetwork(cfg Config, seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	n := &Network{
		cfg:  cfg,
		l1:   newGRULayer(cfg.InputSize, cfg.Hidden1, rng),
		norm: newLayerNorm(cfg.Hidden1),
		l2:   newGRULayer(cfg.Hidden1, cfg.Hidden2, rng),
		d1:   newDenseLayer(cfg.Hidden2, cfg.DenseHidden, rng),
		d2:   newDenseLayer(cfg.DenseHidden, cfg.OutputSize, rng),
		rng:  rng,
	}
	n.adam = newAdamState(n)
	return n
}

// Config returns the architecture parameters.
func (n *Network) Config() Config { return n.cfg }

// Version returns the architecture version identifier.
func (n *Network) Version() string { return n.cfg.Version() }

func newGRULayer(in, hidden int, rng *rand.Rand) *gruLayer {
	g := &gruLayer{
		In: in, Hidden: hidden,
		Wz: glorot(hidden, in, rng), Wr: glorot(hidden, in, rng), Wh: glorot(hidden, in, rng),
		Uz: glorot(hidden, hidden, rng), Ur: glorot(hidden, hidden, rng), Uh: glorot(hidden, hidden, rng),
		Bz: make([]float64, hidden), Br: make([]float64, hidden), Bh: make([]float64, hidden),
	}
	return g
}

func newDenseLayer(in, out int, rng *rand.Rand) *denseLayer {
	return &denseLayer{W: glorot(out, in, rng), B: make([]float64, out)}
}

func newLayerNorm(size int) *layerNorm {
	ln := &layerNorm{Gain: make([]float64, size), Bias: make([]float64, size)}
	for i := range ln.Gain {
		ln.Gain[i] = 1
	}
	return ln
}

// glorot initializes a rows x cols matrix with Glorot-uniform values.
func glorot(rows, cols int, rng *rand.Rand) mat {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	m := newMat(rows, cols)
	for i := range m {
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * limit
		}
	}
	return m
}

// --- forward pass -------------------------------------------------------

// gruStep computes one timestep. hPrev must not be mutated.
func (g *gruLayer) step(x, hPrev []float64) (z, r, hc, h []float64) {
	z = make([]float64, g.Hidden)
	r = make([]float64, g.Hidden)
	hc = make([]float64, g.Hidden)
	h = make([]float64, g.Hidden)

	for i := 0; i < g.Hidden; i++ {
		z[i] = sigmoid(dot(g.Wz[i], x) + dot(g.Uz[i], hPrev) + g.Bz[i])
		r[i] = sigmoid(dot(g.Wr[i], x) + dot(g.Ur[i], hPrev) + g.Br[i])
	}
	rh := make([]float64, g.Hidden)
	for i := range rh {
		rh[i] = r[i] * hPrev[i]
	}
	for i := 0; i < g.Hidden; i++ {
		hc[i] = math.Tanh(dot(g.Wh[i], x) + dot(g.Uh[i], rh) + g.Bh[i])
		h[i] = (1-z[i])*hPrev[i] + z[i]*hc[i]
	}
	return z, r, hc, h
}

const lnEpsilon = 1e-5

func (ln *layerNorm) apply(x []float64) (y, xhat []float64, invStd float64) {
	n := float64(len(x))
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= n
	variance := 0.0
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= n
	invStd = 1 / math.Sqrt(variance+lnEpsilon)

	y = make([]float64, len(x))
	xhat = make([]float64, len(x))
	for i, v := range x {
		xhat[i] = (v - mean) * invStd
		y[i] = ln.Gain[i]*xhat[i] + ln.Bias[i]
	}
	return y, xhat, invStd
}

func (d *denseLayer) apply(x []float64) []float64 {
	out := make([]float64, len(d.W))
	for i := range d.W {
		out[i] = dot(d.W[i], x) + d.B[i]
	}
	return out
}

// Predict runs a deterministic forward pass (no dropout) over a seqLen x
// inputSize matrix and returns the OutputSize fatigue levels in [0,1].
func (n *Network) Predict(input [][]float64) []float64 {
	h1 := make([]float64, n.cfg.Hidden1)
	h2 := make([]float64, n.cfg.Hidden2)

	for t := range input {
		_, _, _, h1 = n.l1.step(input[t], h1)
		y, _, _ := n.norm.apply(h1)
		_, _, _, h2 = n.l2.step(y, h2)
	}

	a := n.d1.apply(h2)
	for i := range a {
		a[i] = relu(a[i])
	}
	out := n.d2.apply(a)
	for i := range out {
		out[i] = sigmoid(out[i])
	}
	return out
}

// --- training -----------------------------------------------------------

// Sample is one normalized training example.
type Sample struct {
	Input  [][]float64
	Target []float64
}

// TrainEpoch runs one pass over samples with the given batch size,
// accumulating gradients per batch and applying a single Adam step each.
// Returns the mean per-sample loss. Caller shuffles.
func (n *Network) TrainEpoch(samples []*Sample, batchSize int) float64 {
	if len(samples) == 0 {
		return 0
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	totalLoss := 0.0
	for start := 0; start < len(samples); start += batchSize {
		end := start + batchSize
		if end > len(samples) {
			end = len(samples)
		}
		batch := samples[start:end]

		g := newGradients(n)
		for _, s := range batch {
			totalLoss += n.backprop(s, g)
		}
		g.scale(1 / float64(len(batch)))
		n.adam.step(n, g)
	}
	return totalLoss / float64(len(samples))
}

// Loss computes the mean MSE over samples without touching weights.
func (n *Network) Loss(samples []*Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range samples {
		out := n.Predict(s.Input)
		total += mse(out, s.Target)
	}
	return total / float64(len(samples))
}

// trace holds per-timestep activations for backprop. It is local to one
// backprop call and garbage the moment the call returns.
type gruTrace struct {
	x, hPrev, z, r, hc, h [][]float64
}

func (n *Network) backprop(s *Sample, g *gradients) float64 {
	T := len(s.Input)
	keep := 1 - n.cfg.Dropout

	tr1 := &gruTrace{}
	tr2 := &gruTrace{}
	masks := make([][]float64, T)
	xhats := make([][]float64, T)
	invStds := make([]float64, T)

	h1 := make([]float64, n.cfg.Hidden1)
	h2 := make([]float64, n.cfg.Hidden2)

	for t := 0; t < T; t++ {
		z1, r1, hc1, h1n := n.l1.step(s.Input[t], h1)
		tr1.record(s.Input[t], h1, z1, r1, hc1, h1n)
		h1 = h1n

		// inverted dropout on the recurrent outputs feeding upward
		mask := make([]float64, n.cfg.Hidden1)
		drop := make([]float64, n.cfg.Hidden1)
		for i := range mask {
			if n.cfg.Dropout <= 0 || n.rng.Float64() >= n.cfg.Dropout {
				mask[i] = 1 / keep
			}
			drop[i] = h1[i] * mask[i]
		}
		masks[t] = mask

		y, xhat, invStd := n.norm.apply(drop)
		xhats[t] = xhat
		invStds[t] = invStd

		z2, r2, hc2, h2n := n.l2.step(y, h2)
		tr2.record(y, h2, z2, r2, hc2, h2n)
		h2 = h2n
	}

	preA := n.d1.apply(h2)
	a := make([]float64, len(preA))
	for i := range preA {
		a[i] = relu(preA[i])
	}
	preOut := n.d2.apply(a)
	out := make([]float64, len(preOut))
	for i := range preOut {
		out[i] = sigmoid(preOut[i])
	}
	loss := mse(out, s.Target)

	// output layer
	k := float64(len(out))
	dPreOut := make([]float64, len(out))
	for i := range out {
		dOut := 2 * (out[i] - s.Target[i]) / k
		dPreOut[i] = dOut * out[i] * (1 - out[i])
	}
	dA := g.d2.accumulate(n.d2, a, dPreOut)
	dPreA := make([]float64, len(a))
	for i := range a {
		if preA[i] > 0 {
			dPreA[i] = dA[i]
		}
	}
	dH2Last := g.d1.accumulate(n.d1, h2, dPreA)

	// second GRU: gradient enters only at the final state
	dX2 := n.bpttGRU(n.l2, g.l2, tr2, dH2Last, nil)

	// layer norm + dropout, per timestep
	dH1Extra := make([][]float64, T)
	for t := 0; t < T; t++ {
		dDrop := g.norm.accumulate(n.norm, dX2[t], xhats[t], invStds[t])
		dh := make([]float64, n.cfg.Hidden1)
		for i := range dh {
			dh[i] = dDrop[i] * masks[t][i]
		}
		dH1Extra[t] = dh
	}

	// first GRU: gradient enters at every timestep
	n.bpttGRU(n.l1, g.l1, tr1, nil, dH1Extra)

	return loss
}

func (tr *gruTrace) record(x, hPrev, z, r, hc, h []float64) {
	tr.x = append(tr.x, x)
	tr.hPrev = append(tr.hPrev, append([]float64(nil), hPrev...))
	tr.z = append(tr.z, z)
	tr.r = append(tr.r, r)
	tr.hc = append(tr.hc, hc)
	tr.h = append(tr.h, h)
}

// bpttGRU back-propagates through one GRU layer. dLast seeds the gradient
// at the final hidden state; perStep adds a gradient at every timestep's
// output (either may be nil). Returns the per-timestep input gradients.
func (n *Network) bpttGRU(l *gruLayer, g *gruGrads, tr *gruTrace, dLast []float64, perStep [][]float64) [][]float64 {
	T := len(tr.x)
	dX := make([][]float64, T)
	dh := make([]float64, l.Hidden)
	if dLast != nil {
		copy(dh, dLast)
	}

	for t := T - 1; t >= 0; t-- {
		if perStep != nil {
			for i := range dh {
				dh[i] += perStep[t][i]
			}
		}

		z, r, hc := tr.z[t], tr.r[t], tr.hc[t]
		hPrev := tr.hPrev[t]

		dz := make([]float64, l.Hidden)
		dhcPre := make([]float64, l.Hidden)
		for i := 0; i < l.Hidden; i++ {
			dz[i] = dh[i] * (hc[i] - hPrev[i])
			dhc := dh[i] * z[i]
			dhcPre[i] = dhc * (1 - hc[i]*hc[i])
		}

		rh := make([]float64, l.Hidden)
		for i := range rh {
			rh[i] = r[i] * hPrev[i]
		}

		// candidate gate params
		addOuter(g.Wh, dhcPre, tr.x[t])
		addOuter(g.Uh, dhcPre, rh)
		addVec(g.Bh, dhcPre)

		uhT := matTvec(l.Uh, dhcPre)
		dr := make([]float64, l.Hidden)
		dhPrev := make([]float64, l.Hidden)
		for i := 0; i < l.Hidden; i++ {
			dr[i] = uhT[i] * hPrev[i]
			dhPrev[i] = dh[i]*(1-z[i]) + uhT[i]*r[i]
		}

		dzPre := make([]float64, l.Hidden)
		drPre := make([]float64, l.Hidden)
		for i := 0; i < l.Hidden; i++ {
			dzPre[i] = dz[i] * z[i] * (1 - z[i])
			drPre[i] = dr[i] * r[i] * (1 - r[i])
		}

		addOuter(g.Wz, dzPre, tr.x[t])
		addOuter(g.Uz, dzPre, hPrev)
		addVec(g.Bz, dzPre)
		addOuter(g.Wr, drPre, tr.x[t])
		addOuter(g.Ur, drPre, hPrev)
		addVec(g.Br, drPre)

		dx := matTvec(l.Wz, dzPre)
		addInto(dx, matTvec(l.Wr, drPre))
		addInto(dx, matTvec(l.Wh, dhcPre))
		dX[t] = dx

		addInto(dhPrev, matTvec(l.Uz, dzPre))
		addInto(dhPrev, matTvec(l.Ur, drPre))
		dh = dhPrev
	}
	return dX
}

// --- math helpers -------------------------------------------------------

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func mse(out, target []float64) float64 {
	s := 0.0
	for i := range out {
		d := out[i] - target[i]
		s += d * d
	}
	return s / float64(len(out))
}

// addOuter adds d ⊗ x into m.
func addOuter(m mat, d, x []float64) {
	for i := range d {
		row := m[i]
		for j := range x {
			row[j] += d[i] * x[j]
		}
	}
}

func addVec(dst, src []float64) {
	for i := range src {
		dst[i] += src[i]
	}
}

func addInto(dst, src []float64) {
	for i := range src {
		dst[i] += src[i]
	}
}

// matTvec computes mᵀ · v.
func matTvec(m mat, v []float64) []float64 {
	if len(m) == 0 {
		return nil
	}
	out := make([]float64, len(m[0]))
	for i := range m {
		vi := v[i]
		row := m[i]
		for j := range row {
			out[j] += row[j] * vi
		}
	}
	return out
}

// AllFinite reports whether every value is a usable number. A false result
// means the forecast must be discarded rather than surfaced.
func AllFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

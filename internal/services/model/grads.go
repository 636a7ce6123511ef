package model

import "math"

// Gradient accumulators mirror the trainable tensors. One set lives per
// batch and is released when the Adam step completes.

type gruGrads struct {
	Wz, Wr, Wh mat
	Uz, Ur, Uh mat
	Bz, Br, Bh []float64
}

type denseGrads struct {
	W mat
	B []float64
}

type lnGrads struct {
	Gain []float64
	Bias []float64
}

type gradients struct {
	l1   *gruGrads
	norm *lnGrads
	l2   *gruGrads
	d1   *denseGrads
	d2   *denseGrads
}

func newGruGrads(l *gruLayer) *gruGrads {
	return &gruGrads{
		Wz: newMat(l.Hidden, l.In), Wr: newMat(l.Hidden, l.In), Wh: newMat(l.Hidden, l.In),
		Uz: newMat(l.Hidden, l.Hidden), Ur: newMat(l.Hidden, l.Hidden), Uh: newMat(l.Hidden, l.Hidden),
		Bz: make([]float64, l.Hidden), Br: make([]float64, l.Hidden), Bh: make([]float64, l.Hidden),
	}
}

func newGradients(n *Network) *gradients {
	return &gradients{
		l1:   newGruGrads(n.l1),
		norm: &lnGrads{Gain: make([]float64, len(n.norm.Gain)), Bias: make([]float64, len(n.norm.Bias))},
		l2:   newGruGrads(n.l2),
		d1:   &denseGrads{W: newMat(len(n.d1.W), len(n.d1.W[0])), B: make([]float64, len(n.d1.B))},
		d2:   &denseGrads{W: newMat(len(n.d2.W), len(n.d2.W[0])), B: make([]float64, len(n.d2.B))},
	}
}

// accumulate adds this sample's dense gradients and returns the gradient
// with respect to the layer input.
func (g *denseGrads) accumulate(l *denseLayer, input, dPre []float64) []float64 {
	addOuter(g.W, dPre, input)
	addVec(g.B, dPre)
	return matTvec(l.W, dPre)
}

// accumulate adds this timestep's layer-norm gradients and returns the
// gradient with respect to the normalized input.
func (g *lnGrads) accumulate(ln *layerNorm, dY, xhat []float64, invStd float64) []float64 {
	n := float64(len(dY))
	dxhat := make([]float64, len(dY))
	var sumDxhat, sumDxhatXhat float64
	for i := range dY {
		g.Gain[i] += dY[i] * xhat[i]
		g.Bias[i] += dY[i]
		dxhat[i] = dY[i] * ln.Gain[i]
		sumDxhat += dxhat[i]
		sumDxhatXhat += dxhat[i] * xhat[i]
	}

	dX := make([]float64, len(dY))
	for i := range dY {
		dX[i] = invStd / n * (n*dxhat[i] - sumDxhat - xhat[i]*sumDxhatXhat)
	}
	return dX
}

func (g *gradients) scale(f float64) {
	for _, p := range g.pairsWith(nil) {
		for i := range p.g {
			p.g[i] *= f
		}
	}
}

type paramPair struct {
	w []float64 // nil when only gradients are being walked
	g []float64
}

// pairsWith enumerates every (weight row, gradient row) pair in a fixed,
// deterministic order. With a nil network only the gradient side is filled.
func (g *gradients) pairsWith(n *Network) []paramPair {
	var out []paramPair

	addM := func(w, gr mat) {
		for i := range gr {
			var wr []float64
			if w != nil {
				wr = w[i]
			}
			out = append(out, paramPair{w: wr, g: gr[i]})
		}
	}
	addV := func(w, gr []float64) {
		out = append(out, paramPair{w: w, g: gr})
	}

	var l1, l2 *gruLayer
	var norm *layerNorm
	var d1, d2 *denseLayer
	if n != nil {
		l1, l2, norm, d1, d2 = n.l1, n.l2, n.norm, n.d1, n.d2
	}

	gru := func(l *gruLayer, gg *gruGrads) {
		var wz, wr, wh, uz, ur, uh mat
		var bz, br, bh []float64
		if l != nil {
			wz, wr, wh, uz, ur, uh = l.Wz, l.Wr, l.Wh, l.Uz, l.Ur, l.Uh
			bz, br, bh = l.Bz, l.Br, l.Bh
		}
		addM(wz, gg.Wz)
		addM(wr, gg.Wr)
		addM(wh, gg.Wh)
		addM(uz, gg.Uz)
		addM(ur, gg.Ur)
		addM(uh, gg.Uh)
		addV(bz, gg.Bz)
		addV(br, gg.Br)
		addV(bh, gg.Bh)
	}

	gru(l1, g.l1)
	if norm != nil {
		addV(norm.Gain, g.norm.Gain)
		addV(norm.Bias, g.norm.Bias)
	} else {
		addV(nil, g.norm.Gain)
		addV(nil, g.norm.Bias)
	}
	gru(l2, g.l2)

	dense := func(d *denseLayer, dg *denseGrads) {
		var w mat
		var b []float64
		if d != nil {
			w, b = d.W, d.B
		}
		addM(w, dg.W)
		addV(b, dg.B)
	}
	dense(d1, g.d1)
	dense(d2, g.d2)

	return out
}

// --- Adam ---------------------------------------------------------------

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// adamState keeps first/second moment estimates per parameter, indexed by
// the deterministic pair order.
type adamState struct {
	t int
	m [][]float64
	v [][]float64
}

func newAdamState(n *Network) *adamState {
	g := newGradients(n)
	pairs := g.pairsWith(n)
	st := &adamState{
		m: make([][]float64, len(pairs)),
		v: make([][]float64, len(pairs)),
	}
	for i, p := range pairs {
		st.m[i] = make([]float64, len(p.g))
		st.v[i] = make([]float64, len(p.g))
	}
	return st
}

// step applies one Adam update with the accumulated gradients.
func (a *adamState) step(n *Network, g *gradients) {
	a.t++
	lr := n.cfg.LearnRate
	bc1 := 1 - math.Pow(adamBeta1, float64(a.t))
	bc2 := 1 - math.Pow(adamBeta2, float64(a.t))

	for i, p := range g.pairsWith(n) {
		m, v := a.m[i], a.v[i]
		for j := range p.g {
			grad := p.g[j]
			m[j] = adamBeta1*m[j] + (1-adamBeta1)*grad
			v[j] = adamBeta2*v[j] + (1-adamBeta2)*grad*grad
			mhat := m[j] / bc1
			vhat := v[j] / bc2
			p.w[j] -= lr * mhat / (math.Sqrt(vhat) + adamEpsilon)
		}
	}
}

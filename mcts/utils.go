package mcts

import (
	"github.com/chewxy/math32"
)

// logEpsilon keeps log(visits) finite for unvisited children.
const logEpsilon = 1e-10

// visitDistribution is softmax(log(visits + ε) / τ).
func visitDistribution(visits []float32, temperature float32) []float32 {
	retVal := make([]float32, len(visits))
	max := math32.Inf(-1)
	for i, v := range visits {
		retVal[i] = math32.Log(v+logEpsilon) / temperature
		if retVal[i] > max {
			max = retVal[i]
		}
	}

	var sum float32
	for i := range retVal {
		retVal[i] = math32.Exp(retVal[i] - max)
		sum += retVal[i]
	}
	for i := range retVal {
		retVal[i] /= sum
	}
	return retVal
}

// sample picks an index of the distribution probs given a uniform number in [0, 1).
func sample(probs []float32, uniform float32) int {
	var sum float32
	for _, p := range probs {
		sum += p
	}
	rnd := uniform * sum
	var accum float32
	for i, p := range probs {
		accum += p
		if rnd < accum {
			return i
		}
	}
	return argmax(probs)
}

// addNoise blends Dirichlet noise into the distribution p in place: p = (1-ε)p + εη.
func (t *MCTS) addNoise(p []float32) {
	if len(p) < 2 || t.DirichletWeight == 0 {
		return
	}
	alpha := make([]float64, len(p))
	for i := range alpha {
		alpha[i] = t.DirichletAlpha
	}
	eta := t.dirichlet.Dirichlet(alpha)
	for i := range p {
		p[i] = (1-t.DirichletWeight)*p[i] + t.DirichletWeight*float32(eta[i])
	}
}

func argmax(a []float32) int {
	var retVal int
	var max float32 = math32.Inf(-1)
	for i := range a {
		if a[i] > max {
			max = a[i]
			retVal = i
		}
	}
	return retVal
}

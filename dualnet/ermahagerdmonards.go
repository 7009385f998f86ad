package dual

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/gorgonia/ops/nn"
	"gorgonia.org/tensor"
)

type maebe struct {
	err error
}

type batchNormOp interface {
	SetTraining()
	SetTesting()
	Reset() error
}

// generic monad... may be useful
func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) conv(input *G.Node, filterCount, size int, name string) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	featureCount := input.Shape()[1]
	padding := findPadding(input.Shape()[2], input.Shape()[3], size, size)
	filter := G.NewTensor(input.Graph(), Float, 4, G.WithShape(filterCount, featureCount, size, size), G.WithName("Filter"+name), G.WithInit(G.GlorotU(1.0)))

	// assume well behaved images
	if retVal, m.err = nnops.Conv2d(input, filter, []int{size, size}, padding, []int{1, 1}, []int{1, 1}); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) batchnorm(input *G.Node) (retVal *G.Node, retOp batchNormOp) {
	if m.err != nil {
		return nil, nil
	}
	// note: the scale and biases will still be created
	// and they will still be backpropagated
	if retVal, _, _, retOp, m.err = nnops.BatchNorm(input, nil, nil, 0.997, 1e-5); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) res(input *G.Node, filterCount int, name string) (*G.Node, batchNormOp) {
	convolved := m.conv(input, filterCount, 3, name)
	normalized, op := m.batchnorm(convolved)
	retVal := m.rectify(normalized)
	return retVal, op
}

func (m *maebe) share(input *G.Node, filterCount, layer int) (*G.Node, batchNormOp, batchNormOp) {
	layer1, l1Op := m.res(input, filterCount, fmt.Sprintf("Layer1 of Shared Layer %d", layer))
	layer2, l2Op := m.res(input, filterCount, fmt.Sprintf("Layer2 of Shared Layer %d", layer))
	added := m.do(func() (*G.Node, error) { return G.Add(layer1, layer2) })
	retVal := m.rectify(added)
	return retVal, l1Op, l2Op
}

func (m *maebe) linear(input *G.Node, units int, name string) *G.Node {
	if m.err != nil {
		return nil
	}
	// figure out size
	w := G.NewTensor(input.Graph(), Float, 2, G.WithShape(input.Shape()[1], units), G.WithInit(G.GlorotN(1.0)), G.WithName(name+"_w"))
	xw := m.do(func() (*G.Node, error) { return G.Mul(input, w) })
	if m.err != nil {
		return nil
	}
	b := G.NewTensor(xw.Graph(), Float, xw.Shape().Dims(), G.WithShape(xw.Shape().Clone()...), G.WithName(name+"_b"), G.WithInit(G.Zeroes()))
	return m.do(func() (*G.Node, error) { return G.Add(xw, b) })
}

func (m *maebe) rectify(input *G.Node) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = nnops.Rectify(input); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) reshape(input *G.Node, to tensor.Shape) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = G.Reshape(input, to); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// xent is the categorical cross entropy -Σ target·log(output), averaged over every element.
func (m *maebe) xent(output, target *G.Node) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	eps := G.NewConstant(float32(policyEpsilon))
	logged := m.do(func() (*G.Node, error) { return G.Add(output, eps) })
	logged = m.do(func() (*G.Node, error) { return G.Log(logged) })
	retVal = m.do(func() (*G.Node, error) { return G.HadamardProd(target, logged) })
	retVal = m.do(func() (*G.Node, error) { return G.Mean(retVal) })
	return m.do(func() (*G.Node, error) { return G.Neg(retVal) })
}

// policyHead turns the shared tower into the policy logits.
func (m *maebe) policyHead(tower *G.Node, boardSize, actionSpace int) (*G.Node, batchNormOp) {
	policy, op := m.batchnorm(m.conv(tower, 2, 1, "PolicyHead"))
	policy = m.rectify(policy)
	if m.err != nil {
		return nil, op
	}
	policy = m.reshape(policy, tensor.Shape{batchesOf(policy, boardSize*2), boardSize * 2})
	return m.linear(policy, actionSpace, "Policy"), op
}

// valueHead turns the shared tower into one (pre-tanh) value per batch entry.
func (m *maebe) valueHead(tower *G.Node, boardSize, hidden int) (*G.Node, batchNormOp) {
	value, op := m.batchnorm(m.conv(tower, 1, 1, "ValueHead"))
	value = m.rectify(value)
	if m.err != nil {
		return nil, op
	}
	value = m.reshape(value, tensor.Shape{batchesOf(value, boardSize), boardSize})
	value = m.linear(value, hidden, "Value") // value hidden
	value = m.rectify(value)
	value = m.linear(value, 1, "ValueOutput")
	if m.err != nil {
		return nil, op
	}
	return m.reshape(value, tensor.Shape{value.Shape().TotalSize()}), op
}

func batchesOf(n *G.Node, rowSize int) int {
	if batches := n.Shape().TotalSize() / rowSize; batches > 0 {
		return batches
	}
	return 1
}

func findPadding(inputX, inputY, kernelX, kernelY int) []int {
	return []int{
		(inputX - 1 - inputX + kernelX) / 2,
		(inputY - 1 - inputY + kernelY) / 2,
	}
}

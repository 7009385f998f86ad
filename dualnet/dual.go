package dual

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var Float = G.Float32

// policyEpsilon keeps the log of the predicted policy finite.
const policyEpsilon = 1e-7

// Dual is the whole neural network architecture of the dual network.
//
// A residual tower is shared by a policy head (softmax over ActionSpace) and a value head (tanh).
type Dual struct {
	Config
	ops []batchNormOp

	g    *G.ExprGraph
	Π, V *G.Node // policy and value labels

	planes       *G.Node
	policyOutput *G.Node
	valueOutput  *G.Node

	policyValue G.Value // policy predicted
	value       G.Value // the actual value predicted
	cost        G.Value // cost, for training recoring
}

// New returns a new, uninitialized *Dual.
func New(conf Config) *Dual {
	return &Dual{Config: conf}
}

// Init builds the expression graph.
func (d *Dual) Init() error {
	if !d.Config.IsValid() {
		return errors.Errorf("invalid network configuration %+v", d.Config)
	}
	d.reset()
	d.g = G.NewGraph()
	if err := d.fwd(); err != nil {
		return err
	}
	return d.bwd()
}

func (d *Dual) fwd() error {
	// note, the data should be arranged like so:
	//	BatchSize, Features, Height, Width
	// because Gorgonia only supports doing convolutions on BCHW format
	d.planes = G.NewTensor(d.g, Float, 4, G.WithShape(d.BatchSize, d.Features, d.Height, d.Width), G.WithName("Planes"))

	var m maebe
	tower, op := m.res(d.planes, d.K, "Init")
	d.ops = append(d.ops, op)
	for i := 0; i < d.SharedLayers; i++ {
		var op1, op2 batchNormOp
		tower, op1, op2 = m.share(tower, d.K, i)
		d.ops = append(d.ops, op1, op2)
	}

	logits, pop := m.policyHead(tower, d.Height*d.Width, d.ActionSpace)
	d.policyOutput = m.do(func() (*G.Node, error) { return G.SoftMax(logits) })

	value, vop := m.valueHead(tower, d.Height*d.Width, d.FC)
	d.valueOutput = m.do(func() (*G.Node, error) { return G.Tanh(value) })
	if m.err != nil {
		return m.err
	}

	// Read to output which can be used for deciding the policy
	G.Read(d.policyOutput, &d.policyValue)
	G.Read(d.valueOutput, &d.value)
	d.ops = append(d.ops, pop, vop)
	return nil
}

// bwd adds the cost: cross entropy of the policy against the search probabilities, plus the squared
// error of the value against the game outcome.
func (d *Dual) bwd() error {
	if d.FwdOnly {
		return nil
	}
	d.Π = G.NewMatrix(d.g, Float, G.WithShape(d.BatchSize, d.ActionSpace), G.WithName("Π"))
	d.V = G.NewVector(d.g, Float, G.WithShape(d.BatchSize), G.WithName("V"))

	var m maebe
	pcost := m.xent(d.policyOutput, d.Π)
	vcost := m.do(func() (*G.Node, error) { return G.Sub(d.valueOutput, d.V) })
	vcost = m.do(func() (*G.Node, error) { return G.Square(vcost) })
	vcost = m.do(func() (*G.Node, error) { return G.Mean(vcost) })
	ccost := m.do(func() (*G.Node, error) { return G.Add(pcost, vcost) })
	if m.err != nil {
		return m.err
	}
	G.Read(ccost, &d.cost)

	if _, err := G.Grad(ccost, d.Model()...); err != nil {
		return errors.Wrap(err, "unable to differentiate the cost")
	}
	return nil
}

// Model returns the learnables.
func (d *Dual) Model() G.Nodes {
	retVal := make(G.Nodes, 0, d.g.Nodes().Len())
	for _, n := range d.g.AllNodes() {
		if n.IsVar() && n != d.planes && n != d.Π && n != d.V {
			retVal = append(retVal, n)
		}
	}
	return retVal
}

func (d *Dual) SetTesting() {
	for _, op := range d.ops {
		op.SetTesting()
	}
}

func (d *Dual) SetTraining() {
	for _, op := range d.ops {
		op.SetTraining()
	}
}

// Clone creates a network with the same configuration and a copy of the weights.
func (d *Dual) Clone() (*Dual, error) {
	d2 := New(d.Config)
	if err := d2.Init(); err != nil {
		return nil, err
	}
	if err := copyWeights(d2.Model(), d.Model()); err != nil {
		return nil, err
	}
	return d2, nil
}

// Dual implemented Dualer
func (d *Dual) Dual() *Dual { return d }

func (d *Dual) reset() {
	d.ops = nil
	d.g = nil
	d.Π = nil
	d.V = nil

	d.planes = nil
	d.policyOutput = nil
	d.valueOutput = nil
}

func (d *Dual) GobEncode() (retVal []byte, err error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, n := range d.Model() {
		v := n.Value()
		if err = enc.Encode(&v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (d *Dual) GobDecode(p []byte) error {
	if err := d.Init(); err != nil {
		return err
	}

	dec := gob.NewDecoder(bytes.NewBuffer(p))
	for _, n := range d.Model() {
		var v G.Value
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if err := G.Let(n, v); err != nil {
			return err
		}
	}
	return nil
}

// copyWeights copies the values of src into dst. Both must come from identically configured networks.
func copyWeights(dst, src G.Nodes) error {
	if len(dst) != len(src) {
		return errors.Errorf("cannot copy %d learnables into %d", len(src), len(dst))
	}
	for i, n := range src {
		original, ok := n.Value().(*tensor.Dense)
		if !ok {
			return errors.Errorf("learnable %v has no dense value", n)
		}
		if err := G.Let(dst[i], original.Clone()); err != nil {
			return err
		}
	}
	return nil
}

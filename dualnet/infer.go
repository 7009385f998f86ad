package dual

import (
	"bytes"
	"log"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Inferencer is a struct that holds the state for a *Dual and a VM. By using an Inferece struct,
// there is no longer a need to create a VM every time an inference needs to be done.
//
// The forward graph keeps the batch size of the trained network; a single board occupies the first
// slot of the batch.
type Inferencer struct {
	d *Dual
	m G.VM

	input *tensor.Dense
	buf   *bytes.Buffer
}

// Infer takes a trained *Dual, and creates a interence data structure such that it'd be easy to infer
func Infer(d *Dual, toLog bool) (*Inferencer, error) {
	conf := d.Config
	conf.FwdOnly = true
	retVal := &Inferencer{
		d:     New(conf),
		input: tensor.New(tensor.WithShape(conf.BatchSize, conf.Features, conf.Height, conf.Width), tensor.Of(Float)),
		buf:   new(bytes.Buffer),
	}
	if err := retVal.d.Init(); err != nil {
		return nil, err
	}
	if err := copyWeights(retVal.d.Model(), d.Model()); err != nil {
		return nil, errors.Wrap(err, "unable to copy the trained weights")
	}
	retVal.d.SetTesting()

	if toLog {
		logger := log.New(retVal.buf, "", 0)
		retVal.m = G.NewTapeMachine(retVal.d.g,
			G.WithLogger(logger),
			G.WithWatchlist(),
			G.TraceExec(),
			G.WithValueFmt("%+1.1v"),
			G.WithNaNWatch(),
		)
	} else {
		retVal.m = G.NewTapeMachine(retVal.d.g)
	}
	return retVal, nil
}

// Dual implements Dualer
func (m *Inferencer) Dual() *Dual { return m.d }

// Infer takes the feature planes of one board and returns the policy over ActionSpace and the value.
func (m *Inferencer) Infer(planes []float32) (policy []float32, value float32, err error) {
	size := m.d.Features * m.d.Height * m.d.Width
	if len(planes) != size {
		return nil, 0, errors.Errorf("expected %d inputs. Got %d", size, len(planes))
	}
	m.buf.Reset()
	for _, op := range m.d.ops {
		op.Reset()
	}

	// copy board to the provided preallocated input tensor
	m.input.Zero()
	copy(m.input.Data().([]float32), planes)

	m.m.Reset()
	G.Let(m.d.planes, m.input)
	if err = m.m.RunAll(); err != nil {
		return nil, 0, err
	}
	policy = make([]float32, m.d.ActionSpace)
	copy(policy, m.d.policyValue.Data().([]float32))
	value = m.d.value.Data().([]float32)[0]
	return policy, value, nil
}

// ExecLog returns the execution log. If Infer was called with toLog = false, then it will return an empty string
func (m *Inferencer) ExecLog() string { return m.buf.String() }

// Close implements a closer, because well, a gorgonia VM is a resource.
func (m *Inferencer) Close() error { return m.m.Close() }

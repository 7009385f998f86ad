package dual

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// Train is a basic trainer.
//
// Xs holds the planes (examples×Features×Height×Width), policies the search probabilities
// (examples×ActionSpace) and values the game outcomes. Every iteration goes over batches batches and
// shuffles the examples afterwards. The mean cost of the last iteration is returned.
func Train(d *Dual, Xs, policies, values *tensor.Dense, batches, iterations int) (cost float32, err error) {
	if Xs.Shape()[0] < batches*d.BatchSize {
		return 0, errors.Errorf("%d examples cannot fill %d batches of %d", Xs.Shape()[0], batches, d.BatchSize)
	}
	d.SetTraining()
	defer d.SetTesting()

	m := G.NewTapeMachine(d.g, G.BindDualValues(d.Model()...))
	defer m.Close()
	model := G.NodesToValueGrads(d.Model())
	opts := []G.SolverOpt{G.WithLearnRate(d.LearnRate)}
	if d.L2 > 0 {
		opts = append(opts, G.WithL2Reg(d.L2))
	}
	solver := G.NewVanillaSolver(opts...)
	r := rand.New(rand.NewSource(uint64(d.Seed)))

	for i := 0; i < iterations; i++ {
		var total float32
		for bat := 0; bat < batches; bat++ {
			var Xs2, π, v *tensor.Dense
			if Xs2, err = batchOf(Xs, bat, d.BatchSize); err != nil {
				return 0, err
			}
			if π, err = batchOf(policies, bat, d.BatchSize); err != nil {
				return 0, err
			}
			if v, err = batchOf(values, bat, d.BatchSize); err != nil {
				return 0, err
			}

			G.Let(d.planes, Xs2)
			G.Let(d.Π, π)
			G.Let(d.V, v)
			if err = m.RunAll(); err != nil {
				return 0, errors.Wrapf(err, "iteration %d batch %d", i, bat)
			}
			if c, ok := d.cost.Data().(float32); ok {
				total += c
			}
			if err = solver.Step(model); err != nil {
				return 0, err
			}
			m.Reset()
		}
		if err = shuffleBatch(r, Xs, policies, values); err != nil {
			return 0, err
		}
		cost = total / float32(batches)
		d.Logger.Debug().Int("iteration", i).Float32("cost", cost).Msg("trained")
	}
	return cost, nil
}

// shuffleBatch shuffles the examples, keeping every plane, policy and value together.
func shuffleBatch(r *rand.Rand, Xs, π, v *tensor.Dense) (err error) {
	oriXs := Xs.Shape().Clone()
	oriPis := π.Shape().Clone()
	defer func() {
		Xs.Reshape(oriXs...)
		π.Reshape(oriPis...)
	}()

	if err = Xs.Reshape(as2D(Xs.Shape())...); err != nil {
		return errors.Wrapf(err, "shuffle batch failed - reshape X")
	}
	if err = π.Reshape(as2D(π.Shape())...); err != nil {
		return errors.Wrapf(err, "shuffle batch failed - reshape pi")
	}

	var matXs, matPis [][]float32
	if matXs, err = native.MatrixF32(Xs); err != nil {
		return errors.Wrapf(err, "shuffle batch failed - matX")
	}
	if matPis, err = native.MatrixF32(π); err != nil {
		return errors.Wrapf(err, "shuffle batch failed - pi")
	}
	vs := v.Data().([]float32)

	tmpX := make([]float32, len(matXs[0]))
	tmpPi := make([]float32, len(matPis[0]))
	for i := len(matXs) - 1; i > 0; i-- {
		j := r.Intn(i + 1)

		copy(tmpX, matXs[i])
		copy(matXs[i], matXs[j])
		copy(matXs[j], tmpX)

		copy(tmpPi, matPis[i])
		copy(matPis[i], matPis[j])
		copy(matPis[j], tmpPi)

		vs[i], vs[j] = vs[j], vs[i]
	}
	return nil
}

func as2D(s tensor.Shape) tensor.Shape {
	retVal := make(tensor.Shape, 2)
	retVal[0] = s[0]
	retVal[1] = 1
	for i := 1; i < len(s); i++ {
		retVal[1] *= s[i]
	}
	return retVal
}

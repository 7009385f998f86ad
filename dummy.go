package reversi

// dummyInferer thinks every move is as good as any other and every position is even.
type dummyInferer struct {
	outputSize int
}

func (d dummyInferer) Infer(a []float32) (policy []float32, value float32, err error) {
	policy = make([]float32, d.outputSize)
	for i := range policy {
		policy[i] = 1 / float32(d.outputSize)
	}
	return policy, 0, nil
}

func (d dummyInferer) Close() error { return nil }

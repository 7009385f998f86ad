// Package onnxnet evaluates positions with a dual network exported to ONNX, run through onnxruntime.
package onnxnet

import (
	"os"
	"sync"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// Config describes the exported model.
type Config struct {
	ModelPath   string
	LibraryPath string // path to the onnxruntime shared library. Empty uses ORT_SHARED_LIBRARY_PATH, then the default.

	Input, Policy, Value string // tensor names

	Features, Height, Width int
	ActionSpace             int  // policy width, pass included
	Logits                  bool // the policy output is unnormalized and needs a softmax
	Threads                 int  // intra-op threads

	Logger zerolog.Logger
}

// DefaultConfig describes a model with the four 8×8 input planes used by the dual network.
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:   modelPath,
		Input:       "input",
		Policy:      "policy",
		Value:       "value",
		Features:    4,
		Height:      8,
		Width:       8,
		ActionSpace: 65,
		Threads:     1,
		Logger:      zerolog.Nop(),
	}
}

func (c Config) validate() error {
	switch {
	case c.ModelPath == "":
		return errors.New("no model path")
	case c.Input == "" || c.Policy == "" || c.Value == "":
		return errors.Errorf("tensor names must be set. Got input %q policy %q value %q", c.Input, c.Policy, c.Value)
	case c.Features < 1 || c.Height < 1 || c.Width < 1:
		return errors.Errorf("bad input shape (%d, %d, %d)", c.Features, c.Height, c.Width)
	case c.ActionSpace < c.Height*c.Width:
		return errors.Errorf("action space %d does not cover the %d×%d board", c.ActionSpace, c.Height, c.Width)
	}
	return nil
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Inferer runs one position at a time through an onnxruntime session.
type Inferer struct {
	sync.Mutex
	conf    Config
	session *ort.DynamicAdvancedSession
	log     zerolog.Logger
}

// New loads the model described by conf.
func New(conf Config) (*Inferer, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(conf.ModelPath); err != nil {
		return nil, errors.Wrap(err, "unable to find the model")
	}

	lib := conf.LibraryPath
	if lib == "" {
		lib = os.Getenv("ORT_SHARED_LIBRARY_PATH")
	}
	ortInitOnce.Do(func() {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, errors.Wrap(ortInitErr, "failed to initialize onnxruntime")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()
	if conf.Threads > 0 {
		if err := options.SetIntraOpNumThreads(conf.Threads); err != nil {
			return nil, err
		}
	}

	session, err := ort.NewDynamicAdvancedSession(conf.ModelPath, []string{conf.Input}, []string{conf.Policy, conf.Value}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create a session for %v", conf.ModelPath)
	}
	log := conf.Logger.With().Str("model", conf.ModelPath).Logger()
	log.Info().Int("actions", conf.ActionSpace).Msg("onnx model loaded")
	return &Inferer{
		conf:    conf,
		session: session,
		log:     log,
	}, nil
}

// Infer takes the feature planes of one board and returns the policy over ActionSpace and the value.
func (m *Inferer) Infer(planes []float32) (policy []float32, value float32, err error) {
	if want := m.conf.Features * m.conf.Height * m.conf.Width; len(planes) != want {
		return nil, 0, errors.Errorf("expected %d inputs. Got %d", want, len(planes))
	}

	m.Lock()
	defer m.Unlock()
	if m.session == nil {
		return nil, 0, errors.New("inferer is closed")
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(m.conf.Features), int64(m.conf.Height), int64(m.conf.Width)), planes)
	if err != nil {
		return nil, 0, err
	}
	defer input.Destroy()
	policyOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(m.conf.ActionSpace)))
	if err != nil {
		return nil, 0, err
	}
	defer policyOut.Destroy()
	valueOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return nil, 0, err
	}
	defer valueOut.Destroy()

	if err = m.session.Run([]ort.Value{input}, []ort.Value{policyOut, valueOut}); err != nil {
		m.log.Error().Err(err).Msg("inference failed")
		return nil, 0, errors.Wrap(err, "inference failed")
	}

	policy = make([]float32, m.conf.ActionSpace)
	copy(policy, policyOut.GetData())
	if m.conf.Logits {
		softmax(policy)
	}
	return policy, valueOut.GetData()[0], nil
}

// Close releases the session.
func (m *Inferer) Close() error {
	m.Lock()
	defer m.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}

// softmax normalizes a in place.
func softmax(a []float32) {
	hi := math32.Inf(-1)
	for _, v := range a {
		if v > hi {
			hi = v
		}
	}
	var sum float32
	for i, v := range a {
		a[i] = math32.Exp(v - hi)
		sum += a[i]
	}
	for i := range a {
		a[i] /= sum
	}
}

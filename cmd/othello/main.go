package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorgonia/reversi"
	dual "github.com/gorgonia/reversi/dualnet"
	"github.com/gorgonia/reversi/encoding/gif"
	"github.com/gorgonia/reversi/game"
	"github.com/gorgonia/reversi/game/othello"
	"github.com/gorgonia/reversi/gtp"
	"github.com/gorgonia/reversi/mcts"
	"github.com/gorgonia/reversi/onnxnet"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	mode     = flag.String("mode", "arena", "one of learn, selfplay, arena, serve or gtp")
	playouts = flag.Int("playouts", 400, "playouts per move")
	games    = flag.Int("games", 2, "games to play")
	epochs   = flag.Int("epochs", 5, "training epochs (learn)")
	episodes = flag.Int("episodes", 10, "self-play games per epoch (learn)")
	nniters  = flag.Int("nniters", 100, "training iterations per epoch (learn)")
	gifOut   = flag.String("gif", "", "render the arena games into this GIF")
	stats    = flag.String("stats", "", "dump the training statistics into this CSV (learn)")
	model    = flag.String("model", "", "ONNX model to play with instead of a fresh network")
	ortlib   = flag.String("ortlib", "", "path to the onnxruntime shared library")
	addr     = flag.String("addr", ":8080", "listen address (serve)")
	seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	verbose  = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()
	log := newLogger(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch *mode {
	case "learn":
		err = learn(log)
	case "selfplay":
		err = selfPlay(log)
	case "arena":
		err = arena(log)
	case "serve":
		err = serve(ctx, log)
	case "gtp":
		err = playGTP(log)
	default:
		err = errors.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", *mode).Msg("failed")
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func searchConf(m mcts.Mode, log zerolog.Logger) mcts.Config {
	conf := mcts.DefaultConfig()
	if m == mcts.Evaluation {
		conf = mcts.EvaluationConfig()
	}
	conf.Budget = *playouts
	conf.Seed = *seed
	conf.Logger = log
	return conf
}

// newAgent builds an agent that plays with the ONNX model if one was given, or with a freshly initialized
// network otherwise.
func newAgent(name string, conf mcts.Config, log zerolog.Logger) (*reversi.Agent, error) {
	if *model != "" {
		oconf := onnxnet.DefaultConfig(*model)
		oconf.LibraryPath = *ortlib
		oconf.Logger = log
		inf, err := onnxnet.New(oconf)
		if err != nil {
			return nil, err
		}
		a := reversi.NewAgent(name, nil, reversi.PlaneEncoder, conf)
		return a, a.UseInferer(inf)
	}

	nnConf := dual.DefaultConf(othello.Size, othello.Size, othello.Cells+1)
	nnConf.BatchSize = 1
	nnConf.Seed = *seed
	nnConf.Logger = log
	nn := dual.New(nnConf)
	if err := nn.Init(); err != nil {
		return nil, err
	}
	a := reversi.NewAgent(name, nn, reversi.PlaneEncoder, conf)
	return a, a.SwitchToInference()
}

func learn(log zerolog.Logger) error {
	conf := reversi.DefaultConfig("Othello", othello.Size, othello.Size)
	conf.MCTSConf = searchConf(mcts.SelfPlay, log)
	conf.ArenaConf = searchConf(mcts.Evaluation, log)
	conf.NNConf.Seed = *seed
	conf.NNConf.Logger = log
	conf.Seed = *seed
	conf.Logger = log
	if *gifOut != "" {
		f, err := os.Create(*gifOut)
		if err != nil {
			return err
		}
		defer f.Close()
		conf.OutputEncoder = gif.NewEncoder(f, gif.DefaultCell)
	}

	az, err := reversi.New(othello.New(), conf)
	if err != nil {
		return err
	}
	defer az.Close()
	if err := az.Learn(*epochs, *episodes, *nniters, *games); err != nil {
		return err
	}
	log.Info().Int("generation", az.Generation()).Msg("done learning")
	if *stats != "" {
		return az.DumpFile(*stats)
	}
	return nil
}

func selfPlay(log zerolog.Logger) error {
	conf := searchConf(mcts.SelfPlay, log)
	a, err := newAgent("self", conf, log)
	if err != nil {
		return err
	}
	defer a.Close()

	for i := 0; i < *games; i++ {
		g := othello.New()
		examples, winner, err := reversi.SelfPlay(g, a, conf.Reward)
		if err != nil {
			return err
		}
		log.Info().
			Int("game", i).
			Int("examples", len(examples)).
			Float32("black", g.Score(game.Player(game.Black))).
			Float32("white", g.Score(game.Player(game.White))).
			Int("winner", int(winner)).
			Msg("self-play game")
	}
	return nil
}

func arena(log zerolog.Logger) error {
	conf := searchConf(mcts.Evaluation, log)
	A, err := newAgent("network", conf, log)
	if err != nil {
		return err
	}
	defer A.Close()
	B := reversi.NewAgent("uniform", nil, reversi.PlaneEncoder, conf)
	if err := B.UseDummy(othello.Cells); err != nil {
		return err
	}

	var enc reversi.OutputEncoder
	if *gifOut != "" {
		f, err := os.Create(*gifOut)
		if err != nil {
			return err
		}
		defer f.Close()
		enc = gif.NewEncoder(f, gif.DefaultCell)
	}

	ar := reversi.NewArena(othello.New(), A, B, "Othello", log)
	rate, err := ar.Evaluate(*games, enc)
	if err != nil {
		return err
	}
	log.Info().Float64("rate", rate).Float32("wins", A.Wins).Float32("losses", A.Loss).Float32("draws", A.Draw).Msg("arena")
	if enc != nil {
		return enc.Flush()
	}
	return nil
}

func newRouter(hub *Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/ws", hub.ServeHTTP)
	return r
}

// serve plays arena games until interrupted, streaming every ply to the websocket spectators.
func serve(ctx context.Context, log zerolog.Logger) error {
	conf := searchConf(mcts.Evaluation, log)
	A, err := newAgent("network", conf, log)
	if err != nil {
		return err
	}
	defer A.Close()
	B, err := newAgent("challenger", conf, log)
	if err != nil {
		return err
	}
	defer B.Close()
	ar := reversi.NewArena(othello.New(), A, B, "Othello", log)
	return spectate(ctx, log, *addr, ar, *games)
}

// spectate serves the hub on addr while ar plays batches of n games. It returns once the server has
// stopped and the batch in progress is over.
func spectate(ctx context.Context, log zerolog.Logger, addr string, ar *reversi.Arena, n int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := NewHub(log)
	srv := &http.Server{Addr: addr, Handler: newRouter(hub)}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			if _, err := ar.Evaluate(n, hub); err != nil {
				log.Error().Err(err).Msg("arena")
				return
			}
		}
	}()

	log.Info().Str("addr", addr).Msg("serving spectators on /ws")
	err := srv.ListenAndServe()
	cancel()
	<-done
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "serving on %q", addr)
	}
	return nil
}

// playGTP lets a front end play against the network over stdin and stdout.
func playGTP(log zerolog.Logger) error {
	a, err := newAgent("gtp", searchConf(mcts.Evaluation, log), log)
	if err != nil {
		return err
	}
	defer a.Close()

	e := gtp.New(othello.New(), "reversi", "0.1", nil).WithLogger(log)
	e.Generate = a.Search
	return e.Run(os.Stdin, os.Stdout)
}

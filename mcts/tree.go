package mcts

import (
	"sync"

	"github.com/gorgonia/reversi/game"
	rng "github.com/leesper/go_rng"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// MCTS is essentially a "global" manager of sorts for the memories. The goal is to build MCTS without much pointer chasing.
//
// Nodes live in a single arena and refer to each other by index. A search is single threaded; the embedded
// mutex only keeps concurrent callers from interleaving.
type MCTS struct {
	sync.Mutex
	Config
	nn        Inferencer
	rand      *rand.Rand
	dirichlet *rng.DirichletGenerator
	log       zerolog.Logger

	// memory related fields
	nodes    []Node
	children [][]naughty
	freelist []naughty

	root     naughty
	expected game.State // the position the root describes, nil when the tree is to be discarded
	policies []float32  // training label of the latest self-play search
	playouts int
}

func New(conf Config, nn Inferencer) *MCTS {
	return &MCTS{
		Config:    conf,
		nn:        nn,
		rand:      rand.New(rand.NewSource(uint64(conf.Seed))),
		dirichlet: rng.NewDirichletGenerator(conf.Seed),
		log:       conf.Logger.With().Str("component", "mcts").Logger(),

		nodes:    make([]Node, 0, 12288),
		children: make([][]naughty, 0, 12288),
		root:     nilNode,
	}
}

// alloc tries to get a node from the free list. If none is found a new node is allocated into the master arena
func (t *MCTS) alloc(move game.Single, prior float32, parent naughty) naughty {
	if l := len(t.freelist); l > 0 {
		n := t.freelist[l-1]
		t.freelist = t.freelist[:l-1]
		t.nodes[n] = Node{move: move, prior: prior, id: n, parent: parent}
		return n
	}

	n := naughty(len(t.nodes))
	t.nodes = append(t.nodes, Node{move: move, prior: prior, id: n, parent: parent})
	if len(t.children) < cap(t.children) {
		// reuse the backing array of a child list left over from a reset
		t.children = t.children[:n+1]
		t.children[n] = t.children[n][:0]
	} else {
		t.children = append(t.children, make([]naughty, 0, 16))
	}
	return n
}

// free puts the node back into the freelist.
//
// Because the there isn't really strong reference tracking, there may be
// use-after-free issues. Therefore it's absolutely vital that any calls to free()
// has to be done with careful consideration.
func (t *MCTS) free(n naughty) {
	t.children[n] = t.children[n][:0]
	t.nodes[n].reset()
	t.freelist = append(t.freelist, n)
}

// freeSubtree frees n and everything below it.
func (t *MCTS) freeSubtree(n naughty) {
	for _, kid := range t.children[n] {
		t.freeSubtree(kid)
	}
	t.free(n)
}

// cleanup makes newRoot the root. Every other subtree of oldRoot is freed along with oldRoot itself.
func (t *MCTS) cleanup(oldRoot, newRoot naughty) {
	for _, kid := range t.children[oldRoot] {
		if kid != newRoot {
			t.freeSubtree(kid)
		}
	}
	t.free(oldRoot)
	t.nodes[newRoot].parent = nilNode
	t.root = newRoot
}

// Reset throws the whole tree away.
func (t *MCTS) Reset() {
	t.Lock()
	t.reset()
	t.Unlock()
}

func (t *MCTS) reset() {
	t.nodes = t.nodes[:0]
	t.children = t.children[:0]
	t.freelist = t.freelist[:0]
	t.root = nilNode
	t.expected = nil
	t.policies = nil
	t.playouts = 0
}

// Nodes returns the number of live nodes in the tree.
func (t *MCTS) Nodes() int {
	t.Lock()
	defer t.Unlock()
	return len(t.nodes) - len(t.freelist)
}

// Playouts returns the number of playouts run since the tree was last discarded.
func (t *MCTS) Playouts() int {
	t.Lock()
	defer t.Unlock()
	return t.playouts
}

// Root returns a copy of the root node and its children. ok is false when there is no tree.
func (t *MCTS) Root() (root Node, children []Node, ok bool) {
	t.Lock()
	defer t.Unlock()
	if t.root == nilNode {
		return Node{}, nil, false
	}
	for _, kid := range t.children[t.root] {
		children = append(children, t.nodes[kid])
	}
	return t.nodes[t.root], children, true
}

// Policies returns the training label of the latest self-play search: the visit distribution at τ=1
// over ActionSpace()+1 moves, pass last. It is nil after an evaluation search.
func (t *MCTS) Policies() []float32 {
	t.Lock()
	defer t.Unlock()
	if t.policies == nil {
		return nil
	}
	retVal := make([]float32, len(t.policies))
	copy(retVal, t.policies)
	return retVal
}

func (t *MCTS) nodeFromNaughty(ptr naughty) *Node { return &t.nodes[ptr] }

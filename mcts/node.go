package mcts

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gorgonia/reversi/game"
)

// Node holds the statistics of one move in the tree. It stores no board: the position is recovered by
// replaying moves from the root.
type Node struct {
	move   game.Single
	visits uint32  // N(s, a)
	value  float32 // W(s, a), from the point of view of the player who made move
	prior  float32 // P(s, a), fixed at expansion

	id     naughty
	parent naughty
}

func (n *Node) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "{NodeID: %v Move: %v, Prior: %v, Visits %v Q: %v}", n.id, n.move, n.prior, n.visits, n.Q())
}

// Move gets the move associated with the node
func (n *Node) Move() game.Single { return n.move }

func (n *Node) Visits() uint32 { return n.visits }

// Value returns the accumulated value W.
func (n *Node) Value() float32 { return n.value }

// Prior returns the prior probability given by the network at expansion.
func (n *Node) Prior() float32 { return n.prior }

// Q is the mean value W/N. It is 0 for an unvisited node.
func (n *Node) Q() float32 {
	if n.visits == 0 {
		return 0
	}
	return n.value / float32(n.visits)
}

func (n *Node) ID() int { return int(n.id) }

func (n *Node) update(v float32) {
	n.visits++
	n.value += v
}

func (n *Node) reset() {
	n.move = Pass
	n.visits = 0
	n.value = 0
	n.prior = 0
	n.parent = nilNode
}

// selectChild picks the child maximizing the upper bound
//	U(s, a) = Q(s, a) + PUCT * P(s, a) * sqrt(N(s)) / (1 + N(s, a))
// The first child with the maximum wins ties.
func (t *MCTS) selectChild(of naughty) naughty {
	numerator := math32.Sqrt(float32(t.nodes[of].visits))

	best := nilNode
	bestValue := math32.Inf(-1)
	for _, kid := range t.children[of] {
		child := &t.nodes[kid]
		usa := child.Q() + t.PUCT*child.prior*numerator/(1+float32(child.visits))
		if usa > bestValue {
			bestValue = usa
			best = kid
		}
	}
	if best == nilNode {
		panic("Cannot return nil")
	}
	return best
}

// findChild finds the first child that has the wanted move
func (t *MCTS) findChild(of naughty, move game.Single) naughty {
	for _, kid := range t.children[of] {
		if t.nodes[kid].move == move {
			return kid
		}
	}
	return nilNode
}

// countChildren counts the nodes below n.
func (t *MCTS) countChildren(n naughty) (retVal int) {
	for _, kid := range t.children[n] {
		retVal += t.countChildren(kid) + 1
	}
	return
}

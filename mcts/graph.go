package mcts

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/awalterschulze/gographviz"
	"github.com/gorgonia/reversi/game"
)

type dotNode struct {
	*Node
	Player game.Player // the player who made Move
}

// ToDot renders the tree from the current root in the Graphviz dot language.
//
// rootPlayer is the player who made the root's move, i.e. the opponent of the player to move at the root.
func (t *MCTS) ToDot(rootPlayer game.Player) string {
	t.Lock()
	defer t.Unlock()

	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)
	if !t.root.isValid() {
		return g.String()
	}

	var buf bytes.Buffer
	var walk func(n naughty, player game.Player)
	walk = func(n naughty, player game.Player) {
		tmpl.Execute(&buf, dotNode{Node: t.nodeFromNaughty(n), Player: player})
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		g.AddNode("G", fmt.Sprintf("%v", n), attrs)
		buf.Reset()

		kids := make([]naughty, len(t.children[n]))
		copy(kids, t.children[n])
		sort.Slice(kids, func(i, j int) bool { return t.nodes[kids[i]].move < t.nodes[kids[j]].move })
		for _, kid := range kids {
			if t.nodes[kid].visits == 0 {
				continue
			}
			walk(kid, opponent(player))
			g.AddEdge(fmt.Sprintf("%v", n), fmt.Sprintf("%v", kid), true, nil)
		}
	}
	walk(t.root, rootPlayer)
	return g.String()
}

func opponent(p game.Player) game.Player {
	if !p.IsValid() {
		return Black
	}
	return p.Opponent()
}

const tmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Node ID</TD><TD>{{.ID}}</TD></TR>
<TR><TD>Move</TD><TD>{{.Move}}</TD></TR>
<TR><TD>Player</TD><TD>{{printf "%v" .Player}}</TD></TR>
<TR><TD>Visits</TD><TD>{{.Visits}}</TD></TR>
<TR><TD>Prior</TD><TD>{{printf "%.3f" .Prior}}</TD></TR>
<TR><TD>Q</TD><TD>{{printf "%.3f" .Q}}</TD></TR>
</TABLE>
>
`

var tmpl *template.Template

func init() {
	tmpl = template.Must(template.New("name").Parse(tmplRaw))
}

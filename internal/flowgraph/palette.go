package flowgraph

// Palette is the Tableau 10 categorical palette.
var Palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// Colors assigns a palette color per node. Nodes sharing a label share a
// color across steps; distinct labels take colors in first-seen order and
// wrap past the palette size.
func Colors(g *Graph) map[NodeKey]string {
	byLabel := make(map[string]string)
	out := make(map[NodeKey]string, len(g.Nodes()))
	for _, n := range g.Nodes() {
		c, ok := byLabel[n.Label]
		if !ok {
			c = Palette[len(byLabel)%len(Palette)]
			byLabel[n.Label] = c
		}
		out[n.Key] = c
	}
	return out
}

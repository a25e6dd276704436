package layout

// Column layout defaults.
const (
	DefaultNodeWidth   = 15.0
	DefaultNodePadding = 10.0
)

// Columns places one column per step and stacks nodes top to bottom in
// input order. One scale factor maps values to pixels across all columns
// so band widths stay comparable.
func Columns(nodes []NodeInput, links []LinkInput, width, height float64) Result {
	res := Result{Width: width, Height: height}
	if len(nodes) == 0 || width <= 0 || height <= 0 {
		return res
	}

	columns := 0
	for _, n := range nodes {
		columns = max(columns, n.Step+1)
	}
	perColumn := make([][]int, columns)
	totals := make([]float64, columns)
	for i, n := range nodes {
		perColumn[n.Step] = append(perColumn[n.Step], i)
		totals[n.Step] += n.Value
	}

	scale := 0.0
	for c, idx := range perColumn {
		if len(idx) == 0 || totals[c] <= 0 {
			continue
		}
		free := height - DefaultNodePadding*float64(len(idx)-1)
		k := max(free, 1) / totals[c]
		if scale == 0 || k < scale {
			scale = k
		}
	}

	step := 0.0
	if columns > 1 {
		step = (width - DefaultNodeWidth) / float64(columns-1)
	}

	res.Nodes = make([]Node, len(nodes))
	pos := make(map[string]int, len(nodes))
	for c, idx := range perColumn {
		y := 0.0
		for _, i := range idx {
			h := nodes[i].Value * scale
			x := step * float64(c)
			res.Nodes[i] = Node{ID: nodes[i].ID, X0: x, X1: x + DefaultNodeWidth, Y0: y, Y1: y + h, Column: c}
			pos[nodes[i].ID] = i
			y += h + DefaultNodePadding
		}
	}

	outOffset := make(map[string]float64, len(nodes))
	inOffset := make(map[string]float64, len(nodes))
	res.Links = make([]Link, 0, len(links))
	for _, l := range links {
		si, ok1 := pos[l.Source]
		ti, ok2 := pos[l.Target]
		if !ok1 || !ok2 {
			continue
		}
		w := l.Value * scale
		y0 := res.Nodes[si].Y0 + outOffset[l.Source] + w/2
		y1 := res.Nodes[ti].Y0 + inOffset[l.Target] + w/2
		outOffset[l.Source] += w
		inOffset[l.Target] += w
		res.Links = append(res.Links, Link{ID: l.ID, Source: l.Source, Target: l.Target, Y0: y0, Y1: y1, Width: w})
	}
	return res
}

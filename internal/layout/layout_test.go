package layout

import (
	"testing"

	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/internal/testutil"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputs(t *testing.T) {
	g, err := flowgraph.NewBuilder(pathmodel.GroupUnknown, nil).Build(testutil.FunnelTable())
	require.NoError(t, err)

	nodes, links := Inputs(g, core.MetricAmount)
	require.Len(t, nodes, 4)
	assert.Equal(t, NodeInput{ID: "0::Online", Step: 0, Value: 150}, nodes[0])
	assert.Equal(t, NodeInput{ID: "1::Won", Step: 1, Value: 300}, nodes[2])

	require.Len(t, links, 3)
	assert.Equal(t, LinkInput{ID: "0::Online→1::Won", Source: "0::Online", Target: "1::Won", Value: 100}, links[0])
}

func TestColumns(t *testing.T) {
	nodes := []NodeInput{
		{ID: "a", Step: 0, Value: 2},
		{ID: "b", Step: 0, Value: 1},
		{ID: "c", Step: 1, Value: 3},
	}
	links := []LinkInput{
		{ID: "a→c", Source: "a", Target: "c", Value: 2},
		{ID: "b→c", Source: "b", Target: "c", Value: 1},
		{ID: "x→c", Source: "x", Target: "c", Value: 1},
	}
	res := Columns(nodes, links, 215, 110)

	require.Len(t, res.Nodes, 3)
	a, _ := res.NodeByID("a")
	b, _ := res.NodeByID("b")
	c, _ := res.NodeByID("c")

	// Column 0 has 100px for 3 units, column 1 has 110px for 3 units.
	assert.InDelta(t, 0, a.X0, 1e-9)
	assert.InDelta(t, 200, c.X0, 1e-9)
	assert.InDelta(t, 66.67, a.Y1-a.Y0, 0.01)
	assert.InDelta(t, a.Y1+DefaultNodePadding, b.Y0, 1e-9)
	assert.InDelta(t, 100, c.Y1-c.Y0, 0.01)

	require.Len(t, res.Links, 2, "links to unknown nodes are skipped")
	assert.InDelta(t, 66.67, res.Links[0].Width, 0.01)
	assert.InDelta(t, res.Links[0].Width, res.Links[1].Y1-res.Links[1].Width/2-c.Y0, 0.01, "incoming bands stack")

	_, ok := res.NodeByID("zzz")
	assert.False(t, ok)
}

func TestColumns_Degenerate(t *testing.T) {
	assert.Empty(t, Columns(nil, nil, 100, 100).Nodes)
	assert.Empty(t, Columns([]NodeInput{{ID: "a"}}, nil, 0, 100).Nodes)

	res := Columns([]NodeInput{{ID: "a", Step: 0, Value: 1}}, nil, 100, 50)
	require.Len(t, res.Nodes, 1)
	assert.InDelta(t, 0, res.Nodes[0].X0, 1e-9)
}

func TestColumns_Deterministic(t *testing.T) {
	nodes := []NodeInput{{ID: "a", Step: 0, Value: 1}, {ID: "b", Step: 1, Value: 1}}
	links := []LinkInput{{ID: "a→b", Source: "a", Target: "b", Value: 1}}
	var f Func = Columns
	assert.Equal(t, f(nodes, links, 300, 200), f(nodes, links, 300, 200))
}

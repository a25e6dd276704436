package flowgraph

import (
	"fmt"
	"testing"

	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/internal/testutil"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	g := build(t, testutil.FunnelTable(), pathmodel.GroupUnknown)

	tests := []struct {
		metric core.MetricType
		want   []float64
	}{
		{core.MetricCount, []float64{1, 1, 1}},
		{core.MetricAmount, []float64{100, 50, 200}},
	}
	for _, tt := range tests {
		t.Run(tt.metric.String(), func(t *testing.T) {
			weights := Project(g, tt.metric)
			require.Len(t, weights, len(tt.want))
			for i, w := range weights {
				assert.Equal(t, g.Links()[i].Key, w.Key)
				assert.InDelta(t, tt.want[i], w.Weight, 1e-9)
			}
		})
	}
}

func TestProject_Floor(t *testing.T) {
	table := &core.Table{
		Steps: []string{"A", "B"},
		Records: []core.Record{
			{ID: "1", Amount: 0, Values: map[string]string{"A": "x", "B": "y"}},
			{ID: "2", Amount: -40, Values: map[string]string{"A": "x", "B": "z"}},
		},
	}
	g := build(t, table, pathmodel.GroupUnknown)

	for _, w := range Project(g, core.MetricAmount) {
		assert.Equal(t, MinWeight, w.Weight, w.ID)
	}
	// Raw values stay untouched.
	l, _ := g.LinkByID("0::x→1::z")
	assert.InDelta(t, -40.0, l.Amount, 1e-9)
}

func TestNodeWeights(t *testing.T) {
	g := build(t, testutil.FunnelTable(), pathmodel.GroupUnknown)

	w := NodeWeights(g, core.MetricAmount)
	assert.InDelta(t, 150.0, w[key(0, "Online")], 1e-9)
	assert.InDelta(t, 200.0, w[key(0, "Branch")], 1e-9)
	assert.InDelta(t, 300.0, w[key(1, "Won")], 1e-9)
	assert.InDelta(t, 50.0, w[key(1, "Lost")], 1e-9)

	w = NodeWeights(g, core.MetricCount)
	assert.InDelta(t, 2.0, w[key(1, "Won")], 1e-9)
}

func TestColors(t *testing.T) {
	table := &core.Table{
		Steps: []string{"A", "B"},
		Records: []core.Record{
			{ID: "1", Values: map[string]string{"A": "Open", "B": "Closed"}},
			{ID: "2", Values: map[string]string{"A": "Closed", "B": "Open"}},
		},
	}
	g := build(t, table, pathmodel.GroupUnknown)
	colors := Colors(g)

	assert.Equal(t, Palette[0], colors[key(0, "Open")])
	assert.Equal(t, Palette[1], colors[key(0, "Closed")])
	assert.Equal(t, colors[key(0, "Open")], colors[key(1, "Open")], "same label, same color")
	assert.Equal(t, colors[key(0, "Closed")], colors[key(1, "Closed")])
}

func TestColors_Wraps(t *testing.T) {
	table := &core.Table{Steps: []string{"A", "B"}}
	for i := 0; i <= len(Palette); i++ {
		table.Records = append(table.Records, core.Record{
			ID:     fmt.Sprint(i),
			Values: map[string]string{"A": fmt.Sprintf("v%02d", i), "B": "end"},
		})
	}
	g := build(t, table, pathmodel.GroupUnknown)
	colors := Colors(g)

	assert.Equal(t, Palette[0], colors[key(0, "v10")], "11th label wraps to the first color")
	assert.Equal(t, Palette[len(Palette)-1], colors[key(0, "v09")])
	assert.Equal(t, Palette[1], colors[key(1, "end")], "12th label continues after the wrap")
}

package selection

import (
	"testing"

	"github.com/leapstack-labs/leapflow/internal/flowgraph"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/pathmodel"
	"github.com/leapstack-labs/leapflow/internal/testutil"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func funnel(t *testing.T) *flowgraph.Graph {
	t.Helper()
	g, err := flowgraph.NewBuilder(pathmodel.GroupUnknown, testutil.NewTestLogger(t)).Build(testutil.FunnelTable())
	require.NoError(t, err)
	return g
}

func pipeline(t *testing.T, policy pathmodel.NullHandling) *flowgraph.Graph {
	t.Helper()
	g, err := flowgraph.NewBuilder(policy, nil).Build(testutil.PipelineTable())
	require.NoError(t, err)
	return g
}

func nk(step int, text string) flowgraph.NodeKey {
	return flowgraph.NodeKey{Step: step, Value: pathmodel.Known(text)}
}

func lk(s1 int, v1 string, v2 string) flowgraph.LinkKey {
	return flowgraph.LinkKey{Source: nk(s1, v1), Target: nk(s1+1, v2)}
}

func flowState(step int, value pathmodel.Value) interaction.State {
	s, _ := interaction.Initial().SetMode(interaction.FlowTrace)
	s, _ = s.SelectFlowStepAndValue(step, value)
	return s
}

func recordState(id string, stepCount int) interaction.State {
	s, _ := interaction.Initial().SetMode(interaction.RecordTrace)
	s, _ = s.SelectRecord(id, stepCount)
	return s
}

func TestResolve(t *testing.T) {
	g := funnel(t)

	tests := []struct {
		name     string
		state    interaction.State
		want     []int // nil means unrestricted
		wantWarn bool
	}{
		{"aggregate", interaction.Initial(), nil, false},
		{"record trace", recordState("r2", 2), []int{1}, false},
		{"record trace without record", interaction.State{Mode: interaction.RecordTrace}, nil, false},
		{"record trace unknown id", recordState("nope", 2), nil, true},
		{"flow trace", flowState(1, pathmodel.Known("Won")), []int{0, 2}, false},
		{"flow trace step only", interaction.State{Mode: interaction.FlowTrace, FlowStep: new(int)}, nil, false},
		{"flow trace unresolved", flowState(1, pathmodel.Known("Pending")), nil, true},
		{"flow trace out of range", flowState(9, pathmodel.Known("Won")), nil, true},
		{"clicked node", interaction.State{Mode: interaction.Aggregate, ClickedID: "0::Online"}, []int{0, 1}, false},
		{"clicked link", interaction.State{Mode: interaction.Aggregate, ClickedID: "0::Branch→1::Won"}, []int{2}, false},
		{"clicked unknown", interaction.State{Mode: interaction.Aggregate, ClickedID: "0::Mail"}, nil, true},
		{"record trace ignored in aggregate", interaction.State{Mode: interaction.Aggregate, RecordID: "r1"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, warn := Resolve(g, tt.state)
			if tt.wantWarn {
				require.NotNil(t, warn)
				assert.NotEmpty(t, warn.Error())
			} else {
				assert.Nil(t, warn)
			}
			if tt.want == nil {
				assert.False(t, active.Restricted())
				return
			}
			require.True(t, active.Restricted())
			assert.Equal(t, tt.want, active.Set().Indices())
			assert.Equal(t, active, ActiveSet(g, tt.state))
		})
	}
}

func TestResolve_ClickWinsOverRecordTrace(t *testing.T) {
	g := funnel(t)
	s := recordState("r2", 2)
	s, _ = s.ClickElement("1::Won")

	active := ActiveSet(g, s)
	require.True(t, active.Restricted())
	assert.Equal(t, []int{0, 2}, active.Set().Indices(), "clicked element wins over the traced record")
}

func TestActive(t *testing.T) {
	u := Unrestricted()
	assert.True(t, u.Contains(42))
	assert.True(t, u.Lights(flowgraph.NewRecordSet()))
	assert.Equal(t, "unrestricted", u.String())

	empty := Restrict(nil)
	assert.True(t, empty.Restricted())
	assert.False(t, empty.Contains(0))
	assert.False(t, empty.Lights(flowgraph.NewRecordSet(0)), "an empty selection lights nothing")
	assert.Equal(t, "[]", empty.String())
}

func TestProject_FlowTraceWon(t *testing.T) {
	g := funnel(t)
	h, warn := ProjectState(g, flowState(1, pathmodel.Known("Won")))
	require.Nil(t, warn)

	assert.Equal(t, LinkHighlight, h.LinkState(lk(0, "Online", "Won")))
	assert.Equal(t, LinkHighlight, h.LinkState(lk(0, "Branch", "Won")))
	assert.Equal(t, LinkDim, h.LinkState(lk(0, "Online", "Lost")))

	assert.Equal(t, NodeNormal, h.NodeState(nk(1, "Won")))
	assert.Equal(t, NodeNormal, h.NodeState(nk(0, "Online")), "Online shares record 0")
	assert.Equal(t, NodeDimmed, h.NodeState(nk(1, "Lost")))
	assert.Empty(t, h.Overlay)
}

func TestProject_Unrestricted(t *testing.T) {
	g := funnel(t)
	h := Project(g, Unrestricted())

	require.Len(t, h.Links, 3)
	for key, st := range h.Links {
		assert.Equal(t, LinkBase, st, key.ID())
	}
	for key, st := range h.Nodes {
		assert.Equal(t, NodeNormal, st, key.ID())
	}
	assert.Empty(t, h.Overlay)
}

func TestProject_EmptySelectionDimsEverything(t *testing.T) {
	g := funnel(t)
	h := Project(g, Restrict(flowgraph.NewRecordSet()))
	for _, st := range h.Links {
		assert.Equal(t, LinkDim, st)
	}
	for _, st := range h.Nodes {
		assert.Equal(t, NodeDimmed, st)
	}
}

func TestOverlay_RecordTrace(t *testing.T) {
	g := funnel(t)

	s := recordState("r2", g.StepCount())
	s, _ = s.TraceReset(g.StepCount())
	h, _ := ProjectState(g, s)
	assert.Equal(t, []flowgraph.LinkKey{lk(0, "Online", "Lost")}, h.Overlay)
	assert.True(t, h.InOverlay(lk(0, "Online", "Lost")))
	assert.False(t, h.InOverlay(lk(0, "Online", "Won")))

	next, ev := s.TraceNext(g.StepCount())
	assert.Nil(t, ev, "cursor is already on the last pair")
	assert.Equal(t, s, next)
}

func TestOverlay_Cursor(t *testing.T) {
	g := pipeline(t, pathmodel.GroupUnknown)

	tests := []struct {
		record int
		cursor int
		want   []flowgraph.LinkKey
	}{
		{0, 0, []flowgraph.LinkKey{lk(0, "Web", "Manual")}},
		{0, 1, []flowgraph.LinkKey{lk(0, "Web", "Manual"), lk(1, "Manual", "Approved")}},
		{0, 2, []flowgraph.LinkKey{lk(0, "Web", "Manual"), lk(1, "Manual", "Approved"), lk(2, "Approved", "Funded")}},
		{0, 9, []flowgraph.LinkKey{lk(0, "Web", "Manual"), lk(1, "Manual", "Approved"), lk(2, "Approved", "Funded")}},
		{0, -1, nil},
		{99, 2, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Overlay(g, tt.record, tt.cursor), "record %d cursor %d", tt.record, tt.cursor)
	}
}

func TestOverlay_StopShortPath(t *testing.T) {
	g := pipeline(t, pathmodel.Stop)
	// L-006 stops after its channel, so it walks no links.
	assert.Empty(t, Overlay(g, 5, 2))
	// L-003 stops before funding.
	assert.Len(t, Overlay(g, 2, 2), 2)
}

func TestOverlay_IndependentOfClick(t *testing.T) {
	g := funnel(t)
	s := recordState("r1", 2)
	s, _ = s.ClickElement("0::Branch")

	h, _ := ProjectState(g, s)
	assert.Equal(t, []flowgraph.LinkKey{lk(0, "Online", "Won")}, h.Overlay)
	assert.Equal(t, LinkDim, h.LinkState(lk(0, "Online", "Won")), "dim state follows the click")
}

func TestNeighborhood(t *testing.T) {
	g := funnel(t)

	h, ok := Neighborhood(g, "0::Branch")
	require.True(t, ok)
	assert.Equal(t, LinkHighlight, h.LinkState(lk(0, "Branch", "Won")))
	assert.Equal(t, LinkDim, h.LinkState(lk(0, "Online", "Won")))
	assert.Equal(t, NodeNormal, h.NodeState(nk(1, "Won")))
	assert.Equal(t, NodeDimmed, h.NodeState(nk(0, "Online")))
	assert.Equal(t, NodeDimmed, h.NodeState(nk(1, "Lost")))

	_, ok = Neighborhood(g, "7::none")
	assert.False(t, ok)
}

func TestStateOpacities(t *testing.T) {
	assert.InDelta(t, 0.35, LinkBase.Opacity(), 1e-9)
	assert.InDelta(t, 0.07, LinkDim.Opacity(), 1e-9)
	assert.InDelta(t, 0.72, LinkHighlight.Opacity(), 1e-9)
	assert.InDelta(t, 1.0, NodeNormal.Opacity(), 1e-9)
	assert.InDelta(t, 0.2, NodeDimmed.Opacity(), 1e-9)
	assert.Equal(t, "highlight", LinkHighlight.String())
	assert.Equal(t, "dimmed", NodeDimmed.String())
}

func TestWarningIsTyped(t *testing.T) {
	_, warn := Resolve(funnel(t), recordState("ghost", 2))
	require.NotNil(t, warn)
	var err error = warn
	var target *core.SelectionMiscomputedWarning
	assert.ErrorAs(t, err, &target)
}

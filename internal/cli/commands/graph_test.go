package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/cli/testutil"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

func TestRenderSnapshot_NotReady(t *testing.T) {
	tr := testutil.NewTestRendererText()
	err := renderSnapshot(tr.Renderer, explorer.Snapshot{})
	assert.ErrorIs(t, err, core.ErrNoData)
}

func TestRenderSnapshot_Text(t *testing.T) {
	_, ex, _ := newTestShell(t)
	tr := testutil.NewTestRendererText()

	require.NoError(t, renderSnapshot(tr.Renderer, ex.Snapshot()))

	out := tr.Output()
	assert.Contains(t, out, "Flow: LoanApplication")
	assert.Contains(t, out, "Source → Qualification → Review → Outcome")
	assert.Contains(t, out, "Online")
}

func TestRenderSnapshot_Markdown(t *testing.T) {
	_, ex, _ := newTestShell(t)
	_, err := ex.Apply(interaction.ClickElementIntent{ID: "0::Online"})
	require.NoError(t, err)
	tr := testutil.NewTestRendererMarkdown()

	require.NoError(t, renderSnapshot(tr.Renderer, ex.Snapshot()))

	out := tr.Output()
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "0::Online")
	assert.Contains(t, out, "State")
}

func TestGraphOutput_RecordTrace(t *testing.T) {
	_, ex, _ := newTestShell(t)
	for _, in := range []interaction.Intent{
		interaction.SetModeIntent{Mode: interaction.RecordTrace},
		interaction.SelectRecordIntent{RecordID: "R001"},
		interaction.TraceNextIntent{},
		interaction.TraceNextIntent{},
	} {
		_, err := ex.Apply(in)
		require.NoError(t, err)
	}

	data := graphOutput(ex.Snapshot())

	overlay := 0
	for _, l := range data.Links {
		if l.Overlay {
			overlay++
		}
	}
	assert.Equal(t, 3, overlay, "cursor 2 covers every transition of a four step path")
	assert.Equal(t, "RECORD_TRACE", data.Mode)
	assert.Empty(t, data.Warnings)
}

func TestGraphOutput_JSON(t *testing.T) {
	_, ex, _ := newTestShell(t)
	tr := testutil.NewTestRendererJSON()

	require.NoError(t, renderSnapshot(tr.Renderer, ex.Snapshot()))

	var g output.GraphOutput
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &g))
	assert.Equal(t, 20, g.Records)
	assert.Equal(t, "COUNT", g.Metric)

	total := 0
	for _, n := range g.Nodes {
		if n.Step == 0 {
			total += n.Count
		}
	}
	assert.Equal(t, 20, total, "every record passes through the first step")
}

func TestRenderInsights(t *testing.T) {
	_, ex, _ := newTestShell(t)
	snap := ex.Snapshot()
	tr := testutil.NewTestRendererMarkdown()

	require.NoError(t, renderInsights(tr.Renderer, InsightsOutput{
		Object:   snap.Config.Object,
		Metric:   string(snap.Config.MetricType),
		KPIs:     insights.Summarize(snap.Graph),
		TopPaths: insights.TopPaths(snap.Graph, snap.Config.MetricType, 3),
	}))

	out := tr.Output()
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "Insights: LoanApplication")
	assert.Contains(t, out, "Top paths by count")
}

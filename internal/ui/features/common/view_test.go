package common

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/source"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

func loadedExplorer(t *testing.T) *explorer.Explorer {
	t.Helper()
	ex := explorer.New(explorer.Config{Loader: source.Sample(), Width: 800, Height: 400})
	require.NoError(t, ex.Load(context.Background(), source.SampleConfiguration()))
	return ex
}

func apply(t *testing.T, ex *explorer.Explorer, intents ...interaction.Intent) {
	t.Helper()
	for _, in := range intents {
		_, err := ex.Apply(in)
		require.NoError(t, err)
	}
}

func TestBuildFlowView_NotReady(t *testing.T) {
	ex := explorer.New(explorer.Config{Loader: source.Sample(), Width: 800, Height: 400})
	snap := ex.Snapshot()

	v := BuildFlowView(snap, snap.Highlight, "sample")

	assert.False(t, v.Ready)
	assert.Empty(t, v.Nodes)
	assert.Empty(t, v.Links)
	assert.NotEmpty(t, v.ModeOptions)
}

func TestBuildFlowView_Aggregate(t *testing.T) {
	ex := loadedExplorer(t)
	snap := ex.Snapshot()

	v := BuildFlowView(snap, snap.Highlight, "sample")

	require.True(t, v.Ready)
	assert.Equal(t, "sample", v.Source)
	assert.Equal(t, 20, v.Records)
	require.Len(t, v.Steps, 4)
	assert.Equal(t, "Source", v.Steps[0].Label)
	assert.Less(t, v.Steps[0].X, v.Steps[3].X)

	require.NotEmpty(t, v.Nodes)
	for _, n := range v.Nodes {
		assert.Positive(t, n.W, n.ID)
		assert.GreaterOrEqual(t, n.H, 1.0, n.ID)
		assert.NotEmpty(t, n.Color, n.ID)
	}
	require.NotEmpty(t, v.Links)
	for _, l := range v.Links {
		assert.True(t, strings.HasPrefix(l.Path, "M"), l.Path)
		assert.False(t, l.Overlay)
		assert.Contains(t, l.Title, " → ")
	}
	assert.Empty(t, v.Detail)
	assert.Nil(t, v.FlowKPIs)
}

func TestBuildFlowView_Clicked(t *testing.T) {
	ex := loadedExplorer(t)
	apply(t, ex, interaction.ClickElementIntent{ID: "0::Online"})
	snap := ex.Snapshot()

	v := BuildFlowView(snap, snap.Highlight, "sample")

	assert.Equal(t, "Selected 0::Online", v.Detail)
	clicked := 0
	for _, n := range v.Nodes {
		if n.Clicked {
			clicked++
			assert.Equal(t, "0::Online", n.ID)
			assert.Equal(t, 1.0, n.Opacity)
		}
	}
	assert.Equal(t, 1, clicked)
}

func TestBuildFlowView_RecordTraceOverlay(t *testing.T) {
	ex := loadedExplorer(t)
	apply(t, ex,
		interaction.SetModeIntent{Mode: interaction.RecordTrace},
		interaction.SelectRecordIntent{RecordID: "R001"},
		interaction.TraceNextIntent{},
	)
	snap := ex.Snapshot()

	v := BuildFlowView(snap, snap.Highlight, "sample")

	var overlay []LinkView
	for _, l := range v.Links {
		if l.Overlay {
			overlay = append(overlay, l)
		}
	}
	require.Len(t, overlay, 2)
	assert.Equal(t, overlay, v.Links[len(v.Links)-2:], "overlay bands draw last")
	for _, l := range overlay {
		assert.Equal(t, overlayColor, l.Color)
		assert.Equal(t, 1.0, l.Opacity)
	}
	assert.Equal(t, "Trace R001 Acme Corp Loan: Online → Qualified → Auto Review", v.Detail)
}

func TestBuildFlowView_FlowTrace(t *testing.T) {
	ex := loadedExplorer(t)
	apply(t, ex, interaction.SetModeIntent{Mode: interaction.FlowTrace})

	snap := ex.Snapshot()
	v := BuildFlowView(snap, snap.Highlight, "sample")
	assert.Equal(t, "Pick a step and a value to trace everything through it.", v.Detail)

	apply(t, ex, interaction.SelectFlowValueIntent{Step: 0, Value: "Online"})
	snap = ex.Snapshot()
	v = BuildFlowView(snap, snap.Highlight, "sample")

	require.NotNil(t, v.FlowKPIs)
	assert.Contains(t, v.Detail, "Flow through Source = Online")
	assert.NotEmpty(t, v.ValueOptions)
}

func TestBandPath(t *testing.T) {
	assert.Equal(t, "M10.0,20.0 C55.0,20.0 55.0,80.0 100.0,80.0", bandPath(10, 20, 100, 80))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "12.3", Ftoa(12.34))
	assert.Equal(t, "0.25", Opacity(0.25))
	assert.Equal(t, "7", FormatValue(core.MetricCount, 7, 1500))
	assert.Equal(t, "2K", FormatValue(core.MetricAmount, 7, 1500))
	assert.Equal(t, "Count", MetricLabel(core.MetricCount))
	assert.Equal(t, "Amount", MetricLabel(core.MetricAmount))
}

package fingerprint

import (
	"testing"

	"github.com/leapstack-labs/leapflow/internal/testutil"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestCompute_Stable(t *testing.T) {
	a := Compute(testutil.FunnelTable(), core.MetricCount, core.GroupUnknown)
	b := Compute(testutil.FunnelTable(), core.MetricCount, core.GroupUnknown)

	assert.False(t, a.IsZero())
	assert.Equal(t, a, b)
	assert.False(t, ShouldRebuild(a, b))
	assert.Len(t, a.Short(), 12)
}

func TestCompute_Defaults(t *testing.T) {
	assert.Equal(t,
		Compute(testutil.FunnelTable(), core.MetricCount, core.GroupUnknown),
		Compute(testutil.FunnelTable(), "", ""))
}

func TestShouldRebuild(t *testing.T) {
	base := Compute(testutil.FunnelTable(), core.MetricCount, core.GroupUnknown)

	tests := []struct {
		name   string
		mutate func(*core.Table) (core.MetricType, core.NullHandling)
		want   bool
	}{
		{
			name:   "identical",
			mutate: func(*core.Table) (core.MetricType, core.NullHandling) { return core.MetricCount, core.GroupUnknown },
			want:   false,
		},
		{
			name:   "metric changed",
			mutate: func(*core.Table) (core.MetricType, core.NullHandling) { return core.MetricAmount, core.GroupUnknown },
			want:   true,
		},
		{
			name:   "policy changed",
			mutate: func(*core.Table) (core.MetricType, core.NullHandling) { return core.MetricCount, core.Stop },
			want:   true,
		},
		{
			name: "value changed",
			mutate: func(tb *core.Table) (core.MetricType, core.NullHandling) {
				tb.Records[1].Values["Stage"] = "Won"
				return core.MetricCount, core.GroupUnknown
			},
			want: true,
		},
		{
			name: "amount changed",
			mutate: func(tb *core.Table) (core.MetricType, core.NullHandling) {
				tb.Records[0].Amount = 101
				return core.MetricCount, core.GroupUnknown
			},
			want: true,
		},
		{
			name: "steps reordered",
			mutate: func(tb *core.Table) (core.MetricType, core.NullHandling) {
				tb.Steps = []string{"Stage", "Source"}
				return core.MetricCount, core.GroupUnknown
			},
			want: true,
		},
		{
			name: "record dropped",
			mutate: func(tb *core.Table) (core.MetricType, core.NullHandling) {
				tb.Records = tb.Records[:2]
				return core.MetricCount, core.GroupUnknown
			},
			want: true,
		},
		{
			name: "non-step column ignored",
			mutate: func(tb *core.Table) (core.MetricType, core.NullHandling) {
				tb.Records[0].Values["Owner"] = "someone"
				return core.MetricCount, core.GroupUnknown
			},
			want: false,
		},
		{
			name: "empty value equals missing",
			mutate: func(tb *core.Table) (core.MetricType, core.NullHandling) {
				tb.Records[0].Values["Extra"] = ""
				return core.MetricCount, core.GroupUnknown
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := testutil.FunnelTable()
			metric, policy := tt.mutate(table)
			next := Compute(table, metric, policy)
			assert.Equal(t, tt.want, ShouldRebuild(base, next))
		})
	}
}

func TestShouldRebuild_ZeroAlwaysStale(t *testing.T) {
	var zero Fingerprint
	assert.True(t, zero.IsZero())
	assert.True(t, ShouldRebuild(zero, Compute(nil, core.MetricCount, core.GroupUnknown)))
	assert.True(t, ShouldRebuild(zero, Compute(&core.Table{}, core.MetricCount, core.GroupUnknown)))
}

func TestCompute_LengthPrefixed(t *testing.T) {
	a := &core.Table{Steps: []string{"ab", "c"}}
	b := &core.Table{Steps: []string{"a", "bc"}}
	assert.NotEqual(t, Compute(a, "", ""), Compute(b, "", ""))
}

func TestCompute_Aggregates(t *testing.T) {
	plain := testutil.FunnelTable()
	withAgg := testutil.FunnelTable()
	withAgg.Aggregates = &core.Aggregates{Nodes: []core.AggregateNode{{Step: 0, Value: "Online"}}}

	assert.NotEqual(t, Compute(plain, "", ""), Compute(withAgg, "", ""))
}

package testutil

import "github.com/leapstack-labs/leapflow/pkg/core"

// FunnelTable returns three records over the steps Source and Stage:
//
//	r1 Online -> Won  100
//	r2 Online -> Lost  50
//	r3 Branch -> Won  200
func FunnelTable() *core.Table {
	return &core.Table{
		Steps: []string{"Source", "Stage"},
		Records: []core.Record{
			{ID: "r1", Name: "Alpha", Amount: 100, Values: map[string]string{"Source": "Online", "Stage": "Won"}},
			{ID: "r2", Name: "Bravo", Amount: 50, Values: map[string]string{"Source": "Online", "Stage": "Lost"}},
			{ID: "r3", Name: "Charlie", Amount: 200, Values: map[string]string{"Source": "Branch", "Stage": "Won"}},
		},
	}
}

// PipelineTable returns a four-step loan pipeline with gaps at later steps.
func PipelineTable() *core.Table {
	rec := func(id, name string, amount float64, vals ...string) core.Record {
		steps := []string{"Channel", "Review", "Decision", "Funding"}
		m := make(map[string]string, len(vals))
		for i, v := range vals {
			m[steps[i]] = v
		}
		return core.Record{ID: id, Name: name, Amount: amount, Values: m}
	}
	return &core.Table{
		Steps: []string{"Channel", "Review", "Decision", "Funding"},
		Records: []core.Record{
			rec("L-001", "Acme Corp", 250000, "Web", "Manual", "Approved", "Funded"),
			rec("L-002", "Birch LLC", 120000, "Web", "Auto", "Approved", "Funded"),
			rec("L-003", "Cobalt Inc", 80000, "Broker", "Manual", "Declined"),
			rec("L-004", "Delta Co", 45000, "Branch", "Auto", "Approved", ""),
			rec("L-005", "Ember Ltd", 300000, "Broker", "Manual", "Approved", "Funded"),
			rec("L-006", "Fjord AS", 60000, "Web", "", "Withdrawn"),
		},
	}
}

package home

import (
	"github.com/leapstack-labs/leapflow/internal/source"
	"github.com/leapstack-labs/leapflow/internal/state"
)

func savedFlow(name string) state.SavedConfig {
	return state.SavedConfig{Name: name, Configuration: source.SampleConfiguration()}
}

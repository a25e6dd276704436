package common

import (
	"context"

	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
)

const lastUsedLayout = "2006-01-02 15:04"

// BuildAppData gathers what the app shell renders for one explorer.
func BuildAppData(ctx context.Context, ex *explorer.Explorer, ws *workspace.Workspace, store state.Store, status string) (AppData, error) {
	snap := ex.Snapshot()
	data := AppData{
		Flow:   BuildFlowView(snap, snap.Highlight, ws.Description()),
		Status: status,
	}
	saved, err := SavedViews(ctx, store)
	if err != nil {
		return data, err
	}
	data.Saved = saved
	return data, nil
}

// SavedViews lists the saved configurations for the side panel.
func SavedViews(ctx context.Context, store state.Store) ([]SavedView, error) {
	list, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SavedView, 0, len(list))
	for _, sc := range list {
		v := SavedView{
			ID:          sc.ID,
			Name:        sc.Name,
			Description: sc.Description,
			Object:      sc.Configuration.Object,
		}
		if sc.LastOpenedAt != nil {
			v.LastUsed = sc.LastOpenedAt.Format(lastUsedLayout)
		}
		out = append(out, v)
	}
	return out, nil
}

package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
)

// AppShell is the patchable application view. Its root id is "app", so a
// patch replaces the whole view by morphing.
func AppShell(data common.AppData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		v := data.Flow

		h.raw("<div id=\"app\" class=\"app\">\n<header class=\"app-header\">\n<h1>LeapFlow</h1>\n")
		if v.Object != "" {
			h.f("<span class=\"muted\">%s · %s · %s records · %s</span>\n",
				esc(v.Object), esc(v.Source), itoa(v.Records), esc(common.MetricLabel(v.Metric)))
		}
		if v.Truncated {
			h.f("<span class=\"badge warning\">truncated at %s records</span>\n", itoa(v.Limit))
		}
		h.raw("</header>\n<div class=\"app-body\">\n<section class=\"flow-panel\">\n")
		h.component(ctx, Controls(v))
		h.component(ctx, FlowChart(v))
		h.raw("</section>\n<aside class=\"side-panel\">\n")
		h.component(ctx, TooltipPanel(data.Tooltip))
		h.component(ctx, KPIPanel(v))
		h.component(ctx, ConfigList(data.Saved))
		h.raw("</aside>\n</div>\n<footer id=\"status\" class=\"status\">")
		if v.Warning != "" {
			h.f("<span class=\"warning\">%s</span> ", esc(v.Warning))
		}
		h.text(data.Status)
		h.raw("</footer>\n</div>")
		return h.err
	})
}

package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
)

// TooltipPanel summarizes the hovered element, or prompts for a hover.
func TooltipPanel(t *selection.Tooltip) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<div id=\"tooltip\" class=\"panel tooltip\">\n")
		if t == nil {
			h.raw("<p class=\"muted\">Hover a node or link for details.</p>\n")
		} else {
			h.f("<h3>%s</h3>\n<p>%s</p>\n", esc(t.Title), esc(t.CountLine()))
			if line := t.SampleLine(); line != "" {
				h.f("<p class=\"muted\">%s</p>\n", esc(line))
			}
		}
		h.raw("</div>\n")
		return h.err
	})
}

// KPIPanel shows the headline figures and, in FLOW_TRACE, the traced node.
func KPIPanel(v common.FlowView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<div id=\"kpis\" class=\"panel kpis\">\n<h3>Insights</h3>\n")
		if v.Ready {
			h.raw("<dl>\n")
			kpi(h, "Records", itoa(v.KPIs.TotalRecords))
			kpi(h, "Total amount", "$"+selection.CompactAmount(v.KPIs.TotalAmount))
			kpi(h, "Average amount", "$"+selection.CompactAmount(v.KPIs.AvgAmount))
			kpi(h, "Completion", fmt.Sprintf("%.1f%%", v.KPIs.CompletionRate))
			kpi(h, "Drop-off", fmt.Sprintf("%.1f%%", v.KPIs.DropOffRate))
			if k := v.FlowKPIs; k != nil {
				kpi(h, "Flow records", itoa(k.TotalRecords))
				kpi(h, "Flow amount", "$"+selection.CompactAmount(k.TotalAmount))
				kpi(h, "Flow share", k.SharePct+"%")
			}
			h.raw("</dl>\n")
		}
		h.raw("</div>\n")
		return h.err
	})
}

func kpi(h *html, label, value string) {
	h.f("<dt>%s</dt><dd>%s</dd>\n", esc(label), esc(value))
}

// ConfigList lists saved configurations with open and delete actions and a
// form saving the current one.
func ConfigList(saved []common.SavedView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<div id=\"configs\" class=\"panel configs\">\n<h3>Saved configurations</h3>\n")
		if len(saved) == 0 {
			h.raw("<p class=\"muted\">Nothing saved yet.</p>\n")
		} else {
			h.raw("<ul>\n")
			for _, s := range saved {
				h.f("<li><a href=\"#\" data-on:click__prevent=\"%s\">%s</a>",
					esc("@post('/configs/"+s.ID+"/open')"), esc(s.Name))
				if s.Object != "" {
					h.f(" <span class=\"muted\">%s</span>", esc(s.Object))
				}
				if s.LastUsed != "" {
					h.f(" <span class=\"muted\">opened %s</span>", esc(s.LastUsed))
				}
				h.f(" <button type=\"button\" class=\"link-button\" data-on:click=\"%s\">delete</button>",
					esc("@delete('/configs/"+s.ID+"')"))
				if s.Description != "" {
					h.f("<br><small>%s</small>", esc(s.Description))
				}
				h.raw("</li>\n")
			}
			h.raw("</ul>\n")
		}
		h.raw("<form class=\"save\" data-on:submit__prevent=\"@post('/configs')\">\n")
		h.raw("<input type=\"text\" placeholder=\"name\" data-bind:name>\n")
		h.raw("<input type=\"text\" placeholder=\"description\" data-bind:description>\n")
		h.raw("<button type=\"submit\">Save current</button>\n</form>\n")
		if len(saved) > 0 {
			h.raw("<a class=\"muted\" href=\"/configs/export\" download>export as YAML</a>\n")
		}
		h.raw("</div>\n")
		return h.err
	})
}

package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/leapflow/internal/insights"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Controls renders the mode and metric selectors plus the controls of the
// current mode.
func Controls(v common.FlowView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<div id=\"controls\" class=\"controls\">\n")

		h.f("<label>Mode <select data-on:change=\"%s\">", action("{type: 'set_mode', mode: evt.target.value}"))
		options(h, v.ModeOptions, string(v.State.Mode))
		h.raw("</select></label>\n")

		h.f("<label>Metric <select data-on:change=\"%s\">", esc("$metric = evt.target.value; @post('/flow/metric')"))
		options(h, []insights.Option{
			{Label: "Count", Value: string(core.MetricCount)},
			{Label: "Amount", Value: string(core.MetricAmount)},
		}, string(v.Metric))
		h.raw("</select></label>\n")

		switch v.State.Mode {
		case interaction.RecordTrace:
			h.f("<label>Record <select data-on:change=\"%s\"><option value=\"\">(none)</option>",
				action("{type: 'select_record', record_id: evt.target.value}"))
			options(h, v.RecordOptions, v.State.RecordID)
			h.raw("</select></label>\n")
			button(h, "◀ Prev", "{type: 'trace_prev'}")
			h.f("<span class=\"cursor\">step %s</span>", itoa(v.State.TraceStep+1))
			button(h, "Next ▶", "{type: 'trace_next'}")
			button(h, "Restart", "{type: 'trace_reset'}")
		case interaction.FlowTrace:
			selected := ""
			if v.State.FlowStep != nil {
				selected = strconv.Itoa(*v.State.FlowStep)
			}
			h.f("<label>Step <select data-on:change=\"%s\"><option value=\"\">(none)</option>",
				action("{type: 'select_flow_step', step: Number(evt.target.value)}"))
			options(h, v.StepOptions, selected)
			h.raw("</select></label>\n")
			if v.State.FlowStep != nil {
				intent := "{type: 'select_flow_value', step: " + selected +
					", value: evt.target.value, unknown: evt.target.selectedOptions[0].dataset.unknown === 'true'}"
				h.f("<label>Value <select data-on:change=\"%s\"><option value=\"\">(none)</option>", action(intent))
				current, unknown := "", false
				if v.State.FlowValue != nil {
					current, unknown = v.State.FlowValue.Text, v.State.FlowValue.Unknown
				}
				for _, o := range v.ValueOptions {
					sel := ""
					if v.State.FlowValue != nil && o.Value == current && o.Unknown == unknown {
						sel = " selected"
					}
					h.f("<option value=\"%s\" data-unknown=\"%t\"%s>%s</option>", esc(o.Value), o.Unknown, sel, esc(o.Label))
				}
				h.raw("</select></label>\n")
			}
			button(h, "Clear", "{type: 'clear_flow'}")
		}

		button(h, "Reset", "{type: 'reset'}")
		h.raw("</div>\n")
		return h.err
	})
}

func options(h *html, opts []insights.Option, selected string) {
	for _, o := range opts {
		sel := ""
		if o.Value == selected {
			sel = " selected"
		}
		h.f("<option value=\"%s\"%s>%s</option>", esc(o.Value), sel, esc(o.Label))
	}
}

func button(h *html, label, intent string) {
	h.f("<button type=\"button\" data-on:click=\"%s\">%s</button>", action(intent), esc(label))
}

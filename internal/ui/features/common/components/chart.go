package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
)

const stepLabelHeight = 20

// FlowChart draws the laid-out graph as SVG. Nodes and links post click
// intents and hover previews.
func FlowChart(v common.FlowView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<div id=\"flow\" class=\"flow-chart\">\n")
		switch {
		case v.Error != "" && !v.Ready:
			h.f("<p class=\"error\">%s</p>\n", esc(v.Error))
		case !v.Ready:
			h.raw("<p class=\"muted\">Loading records…</p>\n")
		case len(v.Nodes) == 0:
			h.raw("<p class=\"muted\">No records match the configuration.</p>\n")
		default:
			chart(h, v)
		}
		if v.Detail != "" {
			h.f("<p id=\"detail\" class=\"detail\">%s</p>\n", esc(v.Detail))
		}
		h.raw("</div>")
		return h.err
	})
}

func chart(h *html, v common.FlowView) {
	h.f("<svg class=\"sankey\" viewBox=\"0 0 %s %s\" width=\"%s\" height=\"%s\">\n",
		common.Ftoa(v.Width), common.Ftoa(v.Height+stepLabelHeight), common.Ftoa(v.Width), common.Ftoa(v.Height+stepLabelHeight))

	for i, s := range v.Steps {
		anchor := "start"
		if i == len(v.Steps)-1 && i > 0 {
			anchor = "end"
		}
		x := s.X
		if anchor == "end" {
			x = v.Width
		}
		h.f("<text class=\"step\" x=\"%s\" y=\"14\" text-anchor=\"%s\">%s</text>\n", common.Ftoa(x), anchor, esc(s.Label))
	}

	h.f("<g transform=\"translate(0,%d)\">\n<g class=\"links\">\n", stepLabelHeight)
	for _, l := range v.Links {
		class := "link link-" + l.State
		if l.Overlay {
			class = "link trace"
		}
		if l.Clicked {
			class += " clicked"
		}
		h.f("<path id=\"%s\" class=\"%s\" d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%s\" stroke-opacity=\"%s\"",
			esc(elementID(l.ID, l.Overlay)), class, esc(l.Path), esc(l.Color), common.Ftoa(l.Width), common.Opacity(l.Opacity))
		if !l.Overlay {
			interactive(h, l.ID)
		}
		h.f("><title>%s</title></path>\n", esc(l.Title))
	}
	h.raw("</g>\n<g class=\"nodes\">\n")

	lastStep := len(v.Steps) - 1
	for _, n := range v.Nodes {
		class := "node"
		if n.Clicked {
			class += " clicked"
		}
		h.f("<g id=\"%s\" class=\"%s\" opacity=\"%s\"", esc(elementID(n.ID, false)), class, common.Opacity(n.Opacity))
		interactive(h, n.ID)
		h.f("><rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\"></rect>",
			common.Ftoa(n.X), common.Ftoa(n.Y), common.Ftoa(n.W), common.Ftoa(n.H), esc(n.Color))

		tx, anchor := n.X+n.W+4, "start"
		if n.Step == lastStep && lastStep > 0 {
			tx, anchor = n.X-4, "end"
		}
		h.f("<text x=\"%s\" y=\"%s\" dy=\"0.35em\" text-anchor=\"%s\">%s <tspan class=\"value\">%s</tspan></text></g>\n",
			common.Ftoa(tx), common.Ftoa(n.Y+n.H/2), anchor, esc(n.Label), esc(n.Value))
	}
	h.raw("</g>\n</g>\n</svg>\n")
}

// interactive adds click and hover handlers for an element id.
func interactive(h *html, id string) {
	h.f(" data-on:click=\"%s\"", action("{type: 'click_element', id: "+js(id)+"}"))
	h.f(" data-on:mouseenter=\"%s\"", esc("$hover = "+js(id)+"; @post('/flow/hover')"))
	h.f(" data-on:mouseleave=\"%s\"", esc("$hover = ''; @post('/flow/hover')"))
}

// elementID makes a DOM id from a node or link id.
func elementID(id string, overlay bool) string {
	if overlay {
		return "trace-" + id
	}
	return "el-" + id
}

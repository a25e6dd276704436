package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/leapflow/internal/ui/resources"
)

const datastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// sidePanelWidth is the space the side panel takes from the chart.
const sidePanelWidth = 320

// initialSignals declares every signal the handlers read.
const initialSignals = `{"intent": {}, "hover": "", "metric": "", "width": 0, "height": 0, "name": "", "description": ""}`

// Page wraps body in the HTML document. The root element opens the
// long-lived /updates stream and reports the viewport size.
func Page(title string, isDev bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<!doctype html>\n<html lang=\"en\">\n<head>\n")
		h.raw("<meta charset=\"utf-8\">\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		h.f("<title>%s - LeapFlow</title>\n", esc(title))
		h.f("<link rel=\"stylesheet\" href=\"%s\">\n", esc(resources.StaticPath("flow.css")))
		h.f("<script type=\"module\" src=\"%s\"></script>\n", esc(datastarURL))
		h.raw("</head>\n<body>\n")

		size := esc("$width = Math.max(320, el.clientWidth - " + itoa(sidePanelWidth) + "); $height = Math.max(240, window.innerHeight - 220); @post('/flow/resize')")
		h.f("<div id=\"root\" data-signals=\"%s\" data-init=\"@get('/updates'); %s\" data-on:resize__window__debounce.250ms=\"%s\">\n",
			esc(initialSignals), size, size)
		if isDev {
			h.raw("<div data-init=\"@get('/reload')\"></div>\n")
		}
		h.component(ctx, body)
		h.raw("\n</div>\n</body>\n</html>\n")
		return h.err
	})
}

// Package resources serves the stylesheet and other static files of the
// browser UI. Production builds embed them; the dev build tag reads them
// from disk so edits show up on reload.
package resources

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"

// StaticPath returns the URL path for a static asset.
func StaticPath(path string) string {
	return "/static/" + path
}

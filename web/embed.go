// Package web embeds the page templates and the static assets, including
// the OpenAPI description of the JSON API.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

var (
	// Static is served under /static/.
	Static = mustSub("static")
	// Templates holds layout.html and the page templates.
	Templates = mustSub("templates")
)

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: " + err.Error())
	}
	return sub
}

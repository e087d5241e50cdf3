// Package templates provides the embedded HTML templates for superlists.
//
// Templates are compiled into the binary with Go's embed directive, so the
// server needs no asset files on disk.
package templates

import (
	"embed"
	"html/template"
)

// Assets is an embedded filesystem containing the page templates.
//
// The filesystem structure is:
//
//	assets/
//	  form.html  - shared new-item form partial
//	  home.html  - home page for starting a new list
//	  list.html  - a single list with its numbered items
//
//go:embed assets/*.html
var Assets embed.FS

// Parse compiles every embedded template into one set.
// Pages are addressed by file name, e.g. "home.html".
func Parse() (*template.Template, error) {
	return template.ParseFS(Assets, "assets/*.html")
}

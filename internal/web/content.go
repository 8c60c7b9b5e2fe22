package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed templates static
var ContentFS embed.FS

// GetHTMLTemplate parses the named page template together with the shared
// fragments under templates/common.
func GetHTMLTemplate(name string) (*template.Template, error) {

	funcMap := template.FuncMap{
		"statusClass": statusClass,
	}
	templateFS, _ := fs.Sub(ContentFS, "templates")

	return template.New(name).Funcs(funcMap).ParseFS(templateFS, "common/*.tmpl.*", name+".tmpl.html")
}

// StaticFS returns the static assets rooted at their own directory.
func StaticFS() fs.FS {
	staticFS, _ := fs.Sub(ContentFS, "static")
	return staticFS
}

// statusClass picks the table cell class for a status string.
func statusClass(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "offline":
		return "status-offline"
	case "", "-":
		return "status-unknown"
	}
	return "status-online"
}

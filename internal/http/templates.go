package http

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// loadTemplates parses the embedded pages. Each page is addressed by its file
// name, e.g. "login.html".
func loadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// parseTemplates loads the embedded page templates. imageURL maps a stored
// image name to the URL used in <img src>.
func parseTemplates(imageURL func(string) string) (*template.Template, error) {
	return template.New("").
		Funcs(template.FuncMap{"imageURL": imageURL}).
		ParseFS(templateFS, "templates/*.html")
}

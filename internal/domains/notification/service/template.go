package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"teleconsult/internal/domains/notification/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = map[model.Kind]*template.Template{}

func init() {
	for _, kind := range []model.Kind{model.KindInvitation, model.KindConfirmation, model.KindReminder} {
		templates[kind] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+string(kind)+".html"))
	}
}

// Render executes the template for kind. Missing variables render empty.
func Render(kind model.Kind, variables map[string]string) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", variables); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", kind, err)
	}

	return buf.String(), nil
}

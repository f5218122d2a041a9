package notificationservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewTemplate parses every embedded template once.
func NewTemplate() (*Template, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	tp := &Template{templates: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := template.New("email").ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("could not parse template %s: %w", name, err)
		}
		tp.templates[name[len("templates/"):]] = t
	}

	return tp, nil
}

// ParseTemplate renders the subject, plain text body and HTML body of the named template.
// Each template file must define "subject", "plainBody" and "htmlBody".
func (tp *Template) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	t, ok := tp.templates[name]
	if !ok {
		return nil, nil, nil, fmt.Errorf("unknown template %q", name)
	}

	var parts [3]*bytes.Buffer
	for i, block := range []string{"subject", "plainBody", "htmlBody"} {
		parts[i] = new(bytes.Buffer)
		if err := t.ExecuteTemplate(parts[i], block, data); err != nil {
			return nil, nil, nil, fmt.Errorf("could not render %s of %s: %w", block, name, err)
		}
	}

	return parts[0], parts[1], parts[2], nil
}

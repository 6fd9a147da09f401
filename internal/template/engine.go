package template

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"
)

// PageTemplate is the name the page shell is registered under.
const PageTemplate = "page"

//go:embed page.html.tmpl
var defaultPage string

// Engine holds named templates sharing FuncMap. The built-in page shell
// is always registered and can be replaced with LoadFile.
type Engine struct {
	templates map[string]*template.Template
}

// New creates an engine with the default page template.
func New() *Engine {
	e := &Engine{templates: make(map[string]*template.Template)}
	// The embedded template is parsed by tests; a failure here is a
	// programming error.
	if err := e.LoadString(PageTemplate, defaultPage); err != nil {
		panic(err)
	}
	return e
}

// LoadFile registers the template at path under name.
func (e *Engine) LoadFile(name, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading template file: %w", err)
	}
	return e.LoadString(name, string(content))
}

// LoadString registers content under name.
func (e *Engine) LoadString(name, content string) error {
	tmpl, err := parse(name, content)
	if err != nil {
		return err
	}
	e.templates[name] = tmpl
	return nil
}

// Render executes the named template.
func (e *Engine) Render(name string, data any) (string, error) {
	tmpl, ok := e.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	return execute(tmpl, data)
}

// RenderPage renders the page shell.
func (e *Engine) RenderPage(data *PageData) (string, error) {
	return e.Render(PageTemplate, data)
}

// RenderString parses and executes content without registering it.
func (e *Engine) RenderString(content string, data any) (string, error) {
	tmpl, err := parse("inline", content)
	if err != nil {
		return "", err
	}
	return execute(tmpl, data)
}

func parse(name, content string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(FuncMap()).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

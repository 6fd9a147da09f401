package template

import (
	"encoding/json"
	"html"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	titleCaser := cases.Title(language.English)
	return template.FuncMap{
		// String functions
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"title":     titleCaser.String,
		"trimSpace": strings.TrimSpace,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"replace":   strings.ReplaceAll,
		"join":      strings.Join,
		"split":     strings.Split,

		// Formatting functions
		"indent":   indent,
		"header":   header,
		"argument": argument,
		"escape":   html.EscapeString,
		"json":     toJSON,

		// Page functions
		"titleFromName": titleFromName,
	}
}

// indent adds n spaces of indentation to each line.
func indent(n int, s string) string {
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// header renders a `key: value` line. Multi-line values continue on
// following lines indented under the key so they parse back as one
// header.
func header(key, value string) string {
	lines := strings.Split(value, "\n")
	if len(lines) == 1 {
		return key + ": " + value
	}
	pad := strings.Repeat(" ", len(key)+2)
	var b strings.Builder
	b.WriteString(key + ": " + lines[0])
	for _, line := range lines[1:] {
		b.WriteString("\n")
		if line != "" {
			b.WriteString(pad + line)
		}
	}
	return b.String()
}

// argument renders an Argument as a `<kind> <name>: <default>` header.
func argument(a Argument) string {
	line := a.Kind + " " + a.Name + ":"
	if a.Default != "" {
		line += " " + a.Default
	}
	return line
}

// toJSON renders v as compact JSON; errors render as null.
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// titleFromName turns a document id such as `guides/getting-started`
// into `Getting Started`.
func titleFromName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".ftd")
	if name == "" || name == "index" {
		return ""
	}
	return cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(name))
}

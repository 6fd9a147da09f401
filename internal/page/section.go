// Package page maintains the managed section of a host HTML file that
// holds a rendered document.
package page

import (
	"fmt"
	"regexp"
	"strings"
)

// Section is the content between a `<!-- BEGIN <name> -->` and
// `<!-- END <name> -->` marker pair.
type Section struct {
	Name       string
	Content    string
	StartLine  int
	EndLine    int
	StartIndex int // index of the BEGIN marker
	EndIndex   int // index just past the END marker
}

func beginMarker(name string) string { return "<!-- BEGIN " + name + " -->" }
func endMarker(name string) string   { return "<!-- END " + name + " -->" }

// Find locates the named section; nil when either marker is missing.
func Find(content, name string) *Section {
	begin, end := beginMarker(name), endMarker(name)
	start := strings.Index(content, begin)
	if start < 0 {
		return nil
	}
	rel := strings.Index(content[start+len(begin):], end)
	if rel < 0 {
		return nil
	}
	inner := start + len(begin)
	stop := inner + rel + len(end)
	return &Section{
		Name:       name,
		Content:    content[inner : inner+rel],
		StartLine:  strings.Count(content[:start], "\n") + 1,
		EndLine:    strings.Count(content[:stop], "\n") + 1,
		StartIndex: start,
		EndIndex:   stop,
	}
}

// Block renders a complete section with its markers.
func Block(name, body string) string {
	var b strings.Builder
	b.WriteString(beginMarker(name))
	b.WriteString("\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(endMarker(name))
	return b.String()
}

// Replace swaps the body of the named section.
func Replace(content, name, body string) (string, error) {
	s := Find(content, name)
	if s == nil {
		return "", fmt.Errorf("managed section %q not found", name)
	}
	return content[:s.StartIndex] + Block(name, body) + content[s.EndIndex:], nil
}

// Upsert replaces the named section, or inserts it before `</body>` (or
// at the end) when the file has none yet.
func Upsert(content, name, body string) string {
	if out, err := Replace(content, name, body); err == nil {
		return out
	}
	block := Block(name, body) + "\n"
	if i := strings.LastIndex(strings.ToLower(content), "</body>"); i >= 0 {
		return content[:i] + block + content[i:]
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + block
}

var markerRe = regexp.MustCompile(`<!-- (BEGIN|END) ([^>]+?) -->`)

// Validate reports unbalanced or interleaved markers.
func Validate(content string) []string {
	var problems []string
	var open []string
	for _, m := range markerRe.FindAllStringSubmatch(content, -1) {
		kind, name := m[1], m[2]
		if kind == "BEGIN" {
			open = append(open, name)
			continue
		}
		if len(open) == 0 || open[len(open)-1] != name {
			problems = append(problems, fmt.Sprintf("END marker for %q without matching BEGIN", name))
			continue
		}
		open = open[:len(open)-1]
	}
	for _, name := range open {
		problems = append(problems, fmt.Sprintf("missing END marker for %q", name))
	}
	return problems
}

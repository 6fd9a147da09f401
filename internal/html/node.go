package html

import (
	"sort"
	"strings"

	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/interpreter"
)

// Node is one lowered HTML element.
type Node struct {
	Tag       string
	DataID    string
	Classes   []string
	Style     map[string]string
	Attrs     map[string]string
	Text      string
	Children  []*Node
	Condition *interpreter.Expression
	Events    []executor.Event
	// Hidden nodes are rendered with display:none until their condition
	// holds. Null nodes render nothing.
	Hidden  bool
	Null    bool
	Element executor.Element
	Slots   []Slot
}

var voidTags = map[string]bool{
	"img": true, "input": true, "br": true, "hr": true, "meta": true, "link": true,
}

// Escape replaces the characters that could end an attribute value or
// open a tag with numeric character references.
func Escape(s string) string {
	return escaper.Replace(s)
}

var escaper = strings.NewReplacer(
	"&", "&#38;",
	"<", "&#60;",
	">", "&#62;",
	`"`, "&#34;",
)

// Render writes the node and its children as HTML.
func (n *Node) Render() string {
	var b strings.Builder
	n.render(&b)
	return b.String()
}

func (n *Node) render(b *strings.Builder) {
	if n == nil || n.Null {
		return
	}
	b.WriteString("<" + n.Tag)
	if n.DataID != "" {
		b.WriteString(` data-id="` + Escape(n.DataID) + `"`)
	}
	if len(n.Classes) > 0 {
		b.WriteString(` class="` + Escape(strings.Join(n.Classes, " ")) + `"`)
	}
	if style := n.styleText(); style != "" {
		b.WriteString(` style="` + Escape(style) + `"`)
	}
	for _, k := range sortedNames(n.Attrs) {
		v := n.Attrs[k]
		if v == "" && booleanAttrs[k] {
			b.WriteString(" " + k)
			continue
		}
		b.WriteString(" " + k + `="` + Escape(v) + `"`)
	}
	b.WriteString(">")
	if voidTags[n.Tag] {
		return
	}
	b.WriteString(Escape(n.Text))
	for _, c := range n.Children {
		c.render(b)
	}
	b.WriteString("</" + n.Tag + ">")
}

var booleanAttrs = map[string]bool{
	"checked": true, "disabled": true, "allowfullscreen": true, "autoplay": true,
}

func (n *Node) styleText() string {
	style := n.Style
	if n.Hidden {
		style = make(map[string]string, len(n.Style)+1)
		for k, v := range n.Style {
			style[k] = v
		}
		style["display"] = "none"
	}
	parts := make([]string, 0, len(style))
	for _, k := range sortedNames(style) {
		parts = append(parts, k+": "+style[k])
	}
	return strings.Join(parts, "; ")
}

// Walk calls fn for n and every descendant, depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

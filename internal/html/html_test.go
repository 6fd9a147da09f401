package html

import (
	"strings"
	"testing"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/saltyorg/ftd/internal/parser"
)

func lowerSource(t *testing.T, source string, opts executor.Options) *Node {
	t.Helper()
	sections, err := parser.Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	items, err := ast.FromSections(sections, "main")
	if err != nil {
		t.Fatalf("FromSections() error = %v", err)
	}
	it, err := interpreter.New("main", items, nil).Continue()
	if err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	rt, err := executor.Execute(it.Document, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return Lower(rt)
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "<b>", want: "&#60;b&#62;"},
		{in: "a & b", want: "a &#38; b"},
		{in: `say "hi"`, want: "say &#34;hi&#34;"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLowerText(t *testing.T) {
	root := lowerSource(t, "-- ftd.text: Hello <world>\npadding.px: 4\n", executor.DefaultOptions())
	if root.DataID != ":main" {
		t.Errorf("root data-id = %q, want :main", root.DataID)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(root.Children))
	}
	text := root.Children[0]
	if text.Tag != "div" || text.Text != "Hello <world>" {
		t.Errorf("text node = %s %q", text.Tag, text.Text)
	}
	if text.Style["padding"] != "4px" {
		t.Errorf("padding = %q, want 4px", text.Style["padding"])
	}

	html := text.Render()
	for _, want := range []string{`data-id="0:main"`, "Hello &#60;world&#62;", "padding: 4px"} {
		if !strings.Contains(html, want) {
			t.Errorf("Render() = %s, missing %q", html, want)
		}
	}
}

func TestLowerRowColumn(t *testing.T) {
	source := `-- ftd.row:
spacing.px: 8

--- ftd.text: a

--- ftd.column:
`
	root := lowerSource(t, source, executor.DefaultOptions())
	row := root.Children[0]
	if row.Style["flex-direction"] != "row" || row.Style["gap"] != "8px" {
		t.Errorf("row style = %v", row.Style)
	}
	if len(row.Children) != 2 {
		t.Fatalf("row children = %d, want 2", len(row.Children))
	}
	if col := row.Children[1]; col.Style["flex-direction"] != "column" {
		t.Errorf("column style = %v", col.Style)
	}
}

func TestLowerImageThemes(t *testing.T) {
	source := "-- ftd.image:\nsrc.light: a.png\nsrc.dark: b.png\n"
	tests := []struct {
		dark bool
		want string
	}{
		{dark: false, want: "a.png"},
		{dark: true, want: "b.png"},
	}
	for _, tt := range tests {
		root := lowerSource(t, source, executor.Options{Device: interpreter.DeviceDesktop, DarkMode: tt.dark})
		img := root.Children[0]
		if img.Tag != "img" {
			t.Fatalf("tag = %q, want img", img.Tag)
		}
		if img.Attrs["src"] != tt.want {
			t.Errorf("dark=%v src = %q, want %q", tt.dark, img.Attrs["src"], tt.want)
		}
		var themed bool
		for _, s := range img.Slots {
			if s.Key() == "attr.src" {
				themed = s.Themed
			}
		}
		if !themed {
			t.Error("src slot should be themed")
		}
	}
}

func TestLowerLinkedImage(t *testing.T) {
	root := lowerSource(t, "-- ftd.image:\nsrc: a.png\nlink: https://example.com\n", executor.DefaultOptions())
	a := root.Children[0]
	if a.Tag != "a" || a.Attrs["href"] != "https://example.com" {
		t.Fatalf("wrapper = %s %v, want a with href", a.Tag, a.Attrs)
	}
	if len(a.Children) != 1 || a.Children[0].Tag != "img" {
		t.Fatalf("wrapped child = %+v, want img", a.Children)
	}
	if _, ok := a.Children[0].Attrs["href"]; ok {
		t.Error("img should not keep href")
	}
	if a.DataID != "0:main" || a.Children[0].DataID != "0:main@inner" {
		t.Errorf("data-ids = %q, %q, want 0:main, 0:main@inner", a.DataID, a.Children[0].DataID)
	}
	for _, slot := range a.Children[0].Slots {
		if slot.Kind == SlotAttr && slot.Name == "href" {
			t.Error("href slot should move to the wrapper")
		}
	}
}

func TestLowerLinkedText(t *testing.T) {
	root := lowerSource(t, "-- ftd.text: home\nlink: /\nopen-in-new-tab: true\n", executor.DefaultOptions())
	a := root.Children[0]
	if a.Tag != "a" || a.Attrs["target"] != "_blank" {
		t.Errorf("linked text = %s %v", a.Tag, a.Attrs)
	}
}

func TestLowerHiddenAndNull(t *testing.T) {
	source := `-- boolean $flag: false

-- boolean off: false

-- ftd.text: maybe
if: { $flag }

-- ftd.text: never
if: { off }
`
	root := lowerSource(t, source, executor.DefaultOptions())
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	hidden := root.Children[0]
	if !hidden.Hidden || hidden.Condition == nil {
		t.Errorf("dynamic false should lower to a hidden node, got %+v", hidden)
	}
	if !strings.Contains(hidden.Render(), "display: none") {
		t.Errorf("hidden Render() = %s", hidden.Render())
	}
	null := root.Children[1]
	if !null.Null || null.Render() != "" {
		t.Errorf("static false should render nothing, got %q", null.Render())
	}
}

func TestLowerIframeYouTube(t *testing.T) {
	root := lowerSource(t, "-- ftd.iframe:\nyoutube: abc\n", executor.DefaultOptions())
	frame := root.Children[0]
	if frame.Tag != "iframe" {
		t.Fatalf("tag = %q, want iframe", frame.Tag)
	}
	if got := frame.Attrs["src"]; got != "https://www.youtube.com/embed/abc" {
		t.Errorf("src = %q", got)
	}
	if !strings.Contains(frame.Render(), " allowfullscreen") {
		t.Errorf("Render() = %s, want allowfullscreen", frame.Render())
	}
}

func TestLowerRegion(t *testing.T) {
	root := lowerSource(t, "-- ftd.text: Title\nregion: h2\n", executor.DefaultOptions())
	if got := root.Children[0].Tag; got != "h2" {
		t.Errorf("tag = %q, want h2", got)
	}
}

func TestAttrValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{in: nil, want: "", ok: false},
		{in: "x", want: "x", ok: true},
		{in: int64(3), want: "3", ok: true},
		{in: true, want: "true", ok: true},
		{in: []any{"a", int64(1)}, want: `["a",1]`, ok: true},
	}
	for _, tt := range tests {
		got, ok := attrValue(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("attrValue(%v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

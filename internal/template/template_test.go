package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderPage(t *testing.T) {
	e := New()
	out, err := e.RenderPage(&PageData{
		ID:          "guides/getting-started",
		Description: `Tips & "tricks"`,
		Body:        "<div>hi</div>",
		Script:      "window.ftd.init(\"main\");",
		JS:          []string{"/static/widget.js"},
		Marker:      "FTD BODY",
	})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	for _, want := range []string{
		"<title>Getting Started</title>",
		`content="Tips &amp; &#34;tricks&#34;"`,
		"<!-- BEGIN FTD BODY -->\n<div>hi</div>\n<!-- END FTD BODY -->",
		`<script src="/static/widget.js"></script>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderPage() missing %q in:\n%s", want, out)
		}
	}
}

func TestLoadFileReplacesPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.tmpl")
	if err := os.WriteFile(path, []byte("[{{ .PageTitle }}] {{ .Body }}"), 0644); err != nil {
		t.Fatal(err)
	}
	e := New()
	if err := e.LoadFile(PageTemplate, path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	out, err := e.RenderPage(&PageData{Title: "Home", Body: "x"})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if out != "[Home] x" {
		t.Errorf("RenderPage() = %q, want %q", out, "[Home] x")
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	if _, err := New().Render("nope", nil); err == nil {
		t.Error("Render() of unknown template should fail")
	}
}

func TestTitleFromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "main", want: "Main"},
		{in: "guides/getting-started", want: "Getting Started"},
		{in: "docs/index", want: ""},
		{in: "snake_case.ftd", want: "Snake Case"},
	}
	for _, tt := range tests {
		if got := titleFromName(tt.in); got != tt.want {
			t.Errorf("titleFromName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{key: "a", value: "b", want: "a: b"},
		{key: "ab", value: "x\ny", want: "ab: x\n    y"},
	}
	for _, tt := range tests {
		if got := header(tt.key, tt.value); got != tt.want {
			t.Errorf("header(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestArgument(t *testing.T) {
	got := argument(Argument{Kind: "optional string", Name: "id"})
	if got != "optional string id:" {
		t.Errorf("argument() = %q", got)
	}
	got = argument(Argument{Kind: "boolean", Name: "autoplay", Default: "true"})
	if got != "boolean autoplay: true" {
		t.Errorf("argument() = %q", got)
	}
}

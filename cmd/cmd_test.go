package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/saltyorg/ftd/internal/parser"
	"github.com/saltyorg/ftd/internal/runtime"
	"gopkg.in/yaml.v3"
)

func interpretSource(t *testing.T, source string) *interpreter.Document {
	t.Helper()
	items, err := host.ParseSource(source, "main")
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}
	doc, err := host.InterpretItems(context.Background(), config.Default(), "main", items, host.Options{})
	if err != nil {
		t.Fatalf("InterpretItems() error = %v", err)
	}
	return doc
}

func TestEvalLine(t *testing.T) {
	doc := interpretSource(t, `-- integer count: 41

-- string name: Ada

-- string list names:
string: a
string: b
`).TDoc()

	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{line: "$count + 1", want: "42"},
		{line: "count > 40 && name == \"Ada\"", want: "true"},
		{line: "len(names)", want: "2"},
		{line: "missing", wantErr: true},
		{line: "1 +", wantErr: true},
	}
	for _, tt := range tests {
		got, err := evalLine(doc, tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("evalLine(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("evalLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}

	if got := variableNames(doc); !reflect.DeepEqual(got, []string{"count", "name", "names"}) {
		t.Errorf("variableNames() = %v", got)
	}
}

func TestComplete(t *testing.T) {
	names := []string{"count", "counter", "name"}
	tests := []struct {
		line string
		want []string
	}{
		{line: "cou", want: []string{"count", "counter"}},
		{line: "1 + $na", want: []string{"1 + $name"}},
		{line: "len(n", want: []string{"len(name"}},
		{line: "x", want: nil},
	}
	for _, tt := range tests {
		if got := complete(names, tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("complete(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestBuildTree(t *testing.T) {
	doc := interpretSource(t, `-- boolean $show: false

-- ftd.column:

--- ftd.text: hello

--- ftd.integer: 3
if: { $show }
`)
	rt, err := executor.Execute(doc, executor.DefaultOptions())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	tree := buildTree(rt.Main)
	if tree.Type != "column" || tree.ID != ":main" || len(tree.Children) != 1 {
		t.Fatalf("root = %+v", tree)
	}
	col := tree.Children[0]
	if col.ID != "0:main" || len(col.Children) != 2 {
		t.Fatalf("column = %+v", col)
	}
	if text := col.Children[0]; text.Type != "text" || text.Value != "hello" {
		t.Errorf("text = %+v", text)
	}
	hidden := col.Children[1]
	if hidden.Type != "null" || hidden.Hidden == nil || hidden.Hidden.Value != int64(3) {
		t.Errorf("hidden integer = %+v", hidden)
	}
}

func TestEntryPath(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Package.Root = dir

	if _, err := entryPath(cfg, nil); err == nil {
		t.Error("entryPath() should fail without an entry document")
	}

	want := filepath.Join(dir, "main.ftd")
	if err := os.WriteFile(want, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got, err := entryPath(cfg, nil); err != nil || got != want {
		t.Errorf("entryPath() = %q, %v, want %q", got, err, want)
	}
	if got, _ := entryPath(cfg, []string{"other.ftd"}); got != "other.ftd" {
		t.Errorf("entryPath(other.ftd) = %q", got)
	}
}

func TestScaffoldDocument(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Package.Root = dir

	if err := scaffoldDocument(cfg, "guides/getting-started"); err != nil {
		t.Fatalf("scaffoldDocument() error = %v", err)
	}
	path := filepath.Join(dir, "guides", "getting-started.ftd")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	rt, err := executor.Execute(interpretSource(t, string(content)), executor.DefaultOptions())
	if err != nil {
		t.Fatalf("scaffolded document does not execute: %v", err)
	}
	if rt.HTMLData.Title == nil || *rt.HTMLData.Title != "Getting Started" {
		t.Errorf("title = %v, want Getting Started", rt.HTMLData.Title)
	}

	if err := scaffoldDocument(cfg, "guides/getting-started"); err == nil {
		t.Error("scaffoldDocument() should refuse to overwrite")
	}
}

func TestBuildAll(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.ftd":        "-- import: lib\n\n-- ftd.text: $lib.greeting\n",
		"lib.ftd":          "-- string greeting: Hi\n",
		"guides/intro.ftd": "-- ftd.text: Intro\n",
		"broken.ftd":       "-- ftd.text: $nowhere\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.Package.Root = dir
	out := filepath.Join(dir, "public")

	summary, err := buildAll(context.Background(), cfg, out)
	if err != nil {
		t.Fatalf("buildAll() error = %v", err)
	}
	if summary.Updated != 2 || summary.Errors != 1 || summary.Total != 3 {
		t.Errorf("summary = %+v", summary)
	}
	for _, name := range []string{"index.html", "guides/intro.html"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(name))); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "lib.html")); !os.IsNotExist(err) {
		t.Error("pure module lib.ftd should not produce a page")
	}

	summary, err = buildAll(context.Background(), cfg, out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Unchanged != 2 || summary.Updated != 0 {
		t.Errorf("second build = %+v, want 2 unchanged", summary)
	}
}

func TestCheckReport(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Package.Root = dir

	good := filepath.Join(dir, "index.ftd")
	bad := filepath.Join(dir, "guides", "intro.ftd")
	items, err := host.ParseSource("-- string a: $missing\n", "main")
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}
	_, err = host.InterpretItems(context.Background(), cfg, "main", items, host.Options{})
	if err == nil {
		t.Fatal("InterpretItems() should fail for an unknown reference")
	}
	result := &CheckResult{
		Passed: []string{good},
		Failed: map[string]error{bad: fmt.Errorf("checking: %w", err)},
	}

	var buf bytes.Buffer
	if err := writeCheckReport(&buf, newCheckReport(cfg, []string{good, bad}, result)); err != nil {
		t.Fatalf("writeCheckReport() error = %v", err)
	}
	var got CheckReport
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("report is not YAML: %v\n%s", err, buf.String())
	}
	if got.Valid != 1 || got.Invalid != 1 {
		t.Errorf("valid/invalid = %d/%d, want 1/1", got.Valid, got.Invalid)
	}
	if !reflect.DeepEqual(got.Passed, []string{"index.ftd"}) {
		t.Errorf("passed = %v, want [index.ftd]", got.Passed)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("errors = %+v, want one", got.Errors)
	}
	if e := got.Errors[0]; e.File != filepath.Join("guides", "intro.ftd") || e.Line != errorLine(err) || !strings.Contains(e.Error, "missing") {
		t.Errorf("error entry = %+v", e)
	}
}

func TestErrorLine(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("importing lib: %w", &parser.Error{LineNumber: 2}), want: 2},
		{err: &interpreter.Error{LineNumber: 4}, want: 4},
		{err: fmt.Errorf("executing: %w", &executor.Error{LineNumber: 7}), want: 7},
		{err: os.ErrNotExist, want: 0},
	}
	for _, tt := range tests {
		if got := errorLine(tt.err); got != tt.want {
			t.Errorf("errorLine(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteVersion(t *testing.T) {
	info := runtime.Info{Version: "1.2.3", Commit: "abc", BuildTime: "now", Go: "go1.25", Generator: "ftd 1.2.3"}
	defer func() { versionShort, versionYAML = false, false }()

	tests := []struct {
		name  string
		short bool
		yaml  bool
		want  string
	}{
		{name: "short", short: true, want: "1.2.3\n"},
		{name: "yaml", yaml: true, want: "generator: ftd 1.2.3\n"},
		{name: "default", want: "ftd version "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versionShort, versionYAML = tt.short, tt.yaml
			var buf bytes.Buffer
			if err := writeVersion(&buf, info); err != nil {
				t.Fatalf("writeVersion() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("writeVersion() = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}

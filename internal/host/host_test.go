package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/saltyorg/ftd/internal/template"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func loadConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(dir, "ftd.yml"))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestBuild(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ftd.yml": `processors:
  site-data: data/site.yml
foreign_variables:
  lib:
    secret: hidden
`,
		"data/site.yml": "from host\n",
		"lib.ftd":       "-- string greeting: Hi\n",
		"index.ftd": `-- import: lib

-- string data:
$processor$: site-data

-- string s: $lib.secret

-- ftd.document: Home

--- ftd.text: $lib.greeting

--- ftd.text: $data

--- ftd.text: $s
`,
	})
	cfg := loadConfig(t, dir)

	var logged []string
	opts := OptionsFromConfig(cfg)
	opts.Logf = func(format string, args ...any) { logged = append(logged, format) }

	res, err := Build(context.Background(), cfg, filepath.Join(dir, "index.ftd"), opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.Document.Name != "main" {
		t.Errorf("document name = %q, want main", res.Document.Name)
	}
	doc, ok := res.RT.Main.Children[0].(*executor.Document)
	if !ok {
		t.Fatalf("root = %T, want *executor.Document", res.RT.Main.Children[0])
	}
	var texts []string
	for _, child := range doc.Children {
		texts = append(texts, child.(*executor.Text).Text.Value)
	}
	if got := strings.Join(texts, ","); got != "Hi,from host,hidden" {
		t.Errorf("texts = %s, want Hi,from host,hidden", got)
	}
	if len(logged) == 0 {
		t.Error("Logf was never called")
	}

	out, err := res.Page(template.New(), cfg.Markers.Body)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	for _, want := range []string{"<title>Home</title>", "<meta name=\"generator\" content=\"ftd ", "<!-- BEGIN FTD BODY -->", "window.ftd.init(\"main\");", "ftd.propagate = function"} {
		if !strings.Contains(out, want) {
			t.Errorf("Page() missing %q", want)
		}
	}
}

func TestBuildMissingModule(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ftd.yml":   "package:\n  name: main\n",
		"index.ftd": "-- import: nowhere\n",
	})
	_, err := Build(context.Background(), loadConfig(t, dir), filepath.Join(dir, "index.ftd"), Options{})
	if err == nil || !strings.Contains(err.Error(), "module nowhere not found") {
		t.Errorf("Build() error = %v, want module not found", err)
	}
}

func TestBuildMissingForeignVariable(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ftd.yml":   "foreign_variables:\n  lib:\n    other: x\n",
		"lib.ftd":   "-- string a: b\n",
		"index.ftd": "-- import: lib\n\n-- string s: $lib.secret\n",
	})
	_, err := Build(context.Background(), loadConfig(t, dir), filepath.Join(dir, "index.ftd"), Options{})
	if err == nil {
		t.Fatal("Build() should fail for an unknown foreign variable")
	}
}

func TestBuildCyclicImport(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ftd.yml":   "",
		"lib.ftd":   "-- import: main\n\n-- string a: $main.b\n",
		"index.ftd": "-- import: lib\n\n-- string b: x\n\n-- ftd.text: $lib.a\n",
	})
	_, err := Build(context.Background(), loadConfig(t, dir), filepath.Join(dir, "index.ftd"), Options{})
	if !errors.Is(err, interpreter.ErrCyclicDefinition) {
		t.Errorf("Build() error = %v, want %v", err, interpreter.ErrCyclicDefinition)
	}
}

func TestBuildCancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ftd.yml":   "",
		"lib.ftd":   "-- string a: b\n",
		"index.ftd": "-- import: lib\n\n-- ftd.text: $lib.a\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, loadConfig(t, dir), filepath.Join(dir, "index.ftd"), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestFindModule(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ftd.yml":             "modules:\n  colors: vendor/palette.ftd\nsearch_paths: [\".\", lib]\n",
		"vendor/palette.ftd":  "",
		"lib/ui/index.ftd":    "",
		"lib/util/format.ftd": "",
	})
	cfg := loadConfig(t, dir)

	tests := []struct {
		module string
		want   string
	}{
		{module: "colors", want: "vendor/palette.ftd"},
		{module: "ui", want: "lib/ui/index.ftd"},
		{module: "util/format", want: "lib/util/format.ftd"},
	}
	for _, tt := range tests {
		got, err := FindModule(cfg, tt.module)
		if err != nil {
			t.Errorf("FindModule(%s) error = %v", tt.module, err)
			continue
		}
		if want := filepath.Join(dir, filepath.FromSlash(tt.want)); got != want {
			t.Errorf("FindModule(%s) = %s, want %s", tt.module, got, want)
		}
	}
	if _, err := FindModule(cfg, "missing"); err == nil {
		t.Error("FindModule(missing) should fail")
	}
}

func TestEntryName(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		path string
		want string
	}{
		{path: "index.ftd", want: "main"},
		{path: "main.ftd", want: "main"},
		{path: "guides/intro.ftd", want: "guides/intro"},
	}
	for _, tt := range tests {
		if got := EntryName(cfg, tt.path); got != tt.want {
			t.Errorf("EntryName(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

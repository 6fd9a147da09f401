package page

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFind(t *testing.T) {
	content := "<html>\n<!-- BEGIN FTD BODY -->\nold\n<!-- END FTD BODY -->\n</html>"
	s := Find(content, "FTD BODY")
	if s == nil {
		t.Fatal("Find() = nil")
	}
	if s.Content != "\nold\n" {
		t.Errorf("Content = %q", s.Content)
	}
	if s.StartLine != 2 || s.EndLine != 4 {
		t.Errorf("lines = %d-%d, want 2-4", s.StartLine, s.EndLine)
	}
	if Find(content, "OTHER") != nil {
		t.Error("Find() of a missing section should be nil")
	}
}

func TestUpsert(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "replace",
			content: "a\n<!-- BEGIN X -->\nold\n<!-- END X -->\nb",
			want:    "a\n<!-- BEGIN X -->\nnew\n<!-- END X -->\nb",
		},
		{
			name:    "insert before body end",
			content: "<body>\n</body>",
			want:    "<body>\n<!-- BEGIN X -->\nnew\n<!-- END X -->\n</body>",
		},
		{
			name:    "append",
			content: "text",
			want:    "text\n<!-- BEGIN X -->\nnew\n<!-- END X -->\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Upsert(tt.content, "X", "new"); got != tt.want {
				t.Errorf("Upsert() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceMissing(t *testing.T) {
	if _, err := Replace("nothing", "X", "y"); err == nil {
		t.Error("Replace() of a missing section should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		count   int
	}{
		{name: "balanced", content: "<!-- BEGIN A --><!-- END A -->", count: 0},
		{name: "missing end", content: "<!-- BEGIN A -->", count: 1},
		{name: "missing begin", content: "<!-- END A -->", count: 1},
		{name: "interleaved", content: "<!-- BEGIN A --><!-- BEGIN B --><!-- END A --><!-- END B -->", count: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.content); len(got) != tt.count {
				t.Errorf("Validate() = %v, want %d problems", got, tt.count)
			}
		})
	}
}

func TestFileSetSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "index.html")
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := f.SetSection("FTD BODY", "<div></div>"); err != nil {
		t.Fatalf("SetSection() error = %v", err)
	}
	if err := f.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	f, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	body, ok := f.Section("FTD BODY")
	if !ok || body != "<div></div>\n" {
		t.Errorf("Section() = %q, %v", body, ok)
	}

	f.Content = "<!-- BEGIN FTD BODY -->"
	if err := f.SetSection("FTD BODY", "x"); err == nil {
		t.Error("SetSection() should refuse broken markers")
	}
}

func TestListSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"index.ftd", "guides/intro.ftd", "notes.md", ".hidden/skip.ftd"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ListSources(dir)
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}
	want := []string{filepath.Join(dir, "guides/intro.ftd"), filepath.Join(dir, "index.ftd")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("ListSources() = %v, want %v", files, want)
	}
	if got := DocumentName(dir, files[0]); got != "guides/intro" {
		t.Errorf("DocumentName() = %q, want guides/intro", got)
	}
}

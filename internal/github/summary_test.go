package github

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSummary(t *testing.T) {
	s := NewBuildSummary()
	s.AddPage(PageResult{Name: "main", Output: "public/index.html", Status: StatusUpdated})
	s.AddPage(PageResult{Name: "about", Status: StatusUnchanged})
	s.AddPage(PageResult{Name: "broken", Status: StatusError, Error: "a | b\nc"})

	if s.Total != 3 || s.Updated != 1 || s.Unchanged != 1 || s.Errors != 1 {
		t.Fatalf("counts = %+v", s)
	}

	md := s.Markdown()
	for _, want := range []string{
		"| Pages Processed | 3 |",
		"| main | public/index.html |",
		"| broken | a \\| b c |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q\n%s", want, md)
		}
	}
}

func TestWriteGitHubFiles(t *testing.T) {
	dir := t.TempDir()
	summary := filepath.Join(dir, "summary.md")
	output := filepath.Join(dir, "output")

	s := NewBuildSummary()
	s.AddPage(PageResult{Name: "main", Status: StatusUpdated})

	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITHUB_STEP_SUMMARY", summary)
	t.Setenv("GITHUB_OUTPUT", output)
	if err := s.WriteGitHubSummary(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(summary); !os.IsNotExist(err) {
		t.Error("summary written outside GitHub Actions")
	}

	t.Setenv("GITHUB_ACTIONS", "true")
	if err := s.WriteGitHubSummary(); err != nil {
		t.Fatalf("WriteGitHubSummary() error = %v", err)
	}
	if err := s.WriteGitHubOutputs(); err != nil {
		t.Fatalf("WriteGitHubOutputs() error = %v", err)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pages=1\nupdated=1\nerrors=0\nhas_errors=false\n" {
		t.Errorf("outputs = %q", got)
	}
	if md, _ := os.ReadFile(summary); !strings.Contains(string(md), "FTD Build Results") {
		t.Errorf("summary = %q", md)
	}
}

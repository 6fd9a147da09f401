// Package github reports build results to GitHub Actions.
package github

import (
	"fmt"
	"os"
	"strings"
)

// PageStatus represents the processing status of a page.
type PageStatus string

const (
	StatusUpdated   PageStatus = "updated"
	StatusUnchanged PageStatus = "unchanged"
	StatusError     PageStatus = "error"
)

// PageResult holds the result of building a single page.
type PageResult struct {
	Name   string     // document id, e.g. "guides/intro"
	Output string     // path of the written page
	Status PageStatus // processing status
	Error  string     // error message if failed
}

// BuildSummary holds the complete summary of a build run.
type BuildSummary struct {
	Pages     []PageResult
	Total     int
	Updated   int
	Unchanged int
	Errors    int
}

// NewBuildSummary creates a new BuildSummary.
func NewBuildSummary() *BuildSummary {
	return &BuildSummary{
		Pages: make([]PageResult, 0),
	}
}

// AddPage adds a page result to the summary.
func (s *BuildSummary) AddPage(result PageResult) {
	s.Pages = append(s.Pages, result)
	s.Total++

	switch result.Status {
	case StatusUpdated:
		s.Updated++
	case StatusUnchanged:
		s.Unchanged++
	case StatusError:
		s.Errors++
	}
}

// Markdown renders the summary as a GitHub step summary.
func (s *BuildSummary) Markdown() string {
	var sb strings.Builder

	sb.WriteString("## 📄 FTD Build Results\n\n")

	sb.WriteString("### Statistics\n\n")
	sb.WriteString("| Metric | Count |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Pages Processed | %d |\n", s.Total))
	sb.WriteString(fmt.Sprintf("| ✅ Updated | %d |\n", s.Updated))
	sb.WriteString(fmt.Sprintf("| ➖ Unchanged | %d |\n", s.Unchanged))
	sb.WriteString(fmt.Sprintf("| ❌ Errors | %d |\n", s.Errors))
	sb.WriteString("\n")

	// Updated pages (collapsible if many)
	if s.Updated > 0 {
		updated := s.pagesByStatus(StatusUpdated)
		if len(updated) > 10 {
			sb.WriteString("<details>\n")
			sb.WriteString(fmt.Sprintf("<summary><strong>Updated Pages (%d)</strong></summary>\n\n", len(updated)))
		} else {
			sb.WriteString(fmt.Sprintf("### Updated Pages (%d)\n\n", len(updated)))
		}

		sb.WriteString("| Document | Output |\n")
		sb.WriteString("|----------|--------|\n")
		for _, p := range updated {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Name, p.Output))
		}
		sb.WriteString("\n")

		if len(updated) > 10 {
			sb.WriteString("</details>\n\n")
		}
	}

	if s.Errors > 0 {
		failed := s.pagesByStatus(StatusError)
		sb.WriteString(fmt.Sprintf("### ❌ Errors (%d)\n\n", len(failed)))
		sb.WriteString("| Document | Error |\n")
		sb.WriteString("|----------|-------|\n")
		for _, p := range failed {
			// Escape pipe characters in error messages
			msg := strings.ReplaceAll(p.Error, "|", "\\|")
			msg = strings.ReplaceAll(msg, "\n", " ")
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Name, msg))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteGitHubSummary appends the summary to GITHUB_STEP_SUMMARY if running
// in GitHub Actions.
func (s *BuildSummary) WriteGitHubSummary() error {
	summaryFile, ok := actionsFile("GITHUB_STEP_SUMMARY")
	if !ok {
		return nil
	}
	return appendFile(summaryFile, s.Markdown())
}

// WriteGitHubOutputs sets step outputs for later workflow steps.
func (s *BuildSummary) WriteGitHubOutputs() error {
	outputFile, ok := actionsFile("GITHUB_OUTPUT")
	if !ok {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "pages=%d\n", s.Total)
	fmt.Fprintf(&sb, "updated=%d\n", s.Updated)
	fmt.Fprintf(&sb, "errors=%d\n", s.Errors)
	fmt.Fprintf(&sb, "has_errors=%t\n", s.Errors > 0)
	return appendFile(outputFile, sb.String())
}

// actionsFile returns the path in env when running in GitHub Actions.
func actionsFile(env string) (string, bool) {
	if os.Getenv("GITHUB_ACTIONS") != "true" {
		return "", false
	}
	path := os.Getenv(env)
	return path, path != ""
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	_, err = f.WriteString(content)
	return err
}

// pagesByStatus returns all pages with the given status.
func (s *BuildSummary) pagesByStatus(status PageStatus) []PageResult {
	var results []PageResult
	for _, p := range s.Pages {
		if p.Status == status {
			results = append(results, p)
		}
	}
	return results
}

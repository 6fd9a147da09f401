package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/github"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/saltyorg/ftd/internal/page"
	"github.com/saltyorg/ftd/internal/template"
	"github.com/spf13/cobra"
)

var buildOutDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render every document of the package",
	Long: `Render every .ftd document under the package root to an HTML page.

Pages are written to <out-dir>/<document>.html; the package entry becomes
index.html. Documents without top-level components (pure modules) are
skipped, and pages whose content did not change are left untouched.

When running in GitHub Actions, a step summary and step outputs are written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		summary, err := buildAll(cmd.Context(), cfg, cfg.Resolve(buildOutDir))
		if err != nil {
			return err
		}

		fmt.Printf("Built %d pages, %d unchanged, %d errors\n", summary.Updated, summary.Unchanged, summary.Errors)

		if err := summary.WriteGitHubSummary(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write GitHub summary: %v\n", err)
		}
		if err := summary.WriteGitHubOutputs(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write GitHub outputs: %v\n", err)
		}

		if summary.Errors > 0 {
			return fmt.Errorf("%d page(s) failed to build", summary.Errors)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildOutDir, "out-dir", "public", "output directory, relative to the config file")
	rootCmd.AddCommand(buildCmd)
}

// buildAll renders every source under the package root into outDir.
func buildAll(ctx context.Context, cfg *config.Config, outDir string) (*github.BuildSummary, error) {
	sources, err := page.ListSources(cfg.RootPath())
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	engine := template.New()
	if cfg.Render.Template != "" {
		if err := engine.LoadFile(template.PageTemplate, cfg.Resolve(cfg.Render.Template)); err != nil {
			return nil, fmt.Errorf("loading template: %w", err)
		}
	}

	logf("Found %d documents\n", len(sources))

	summary := github.NewBuildSummary()
	opts := hostOptions(cfg)
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := host.EntryName(cfg, source)
		logf("Building: %s\n", name)

		result, built := buildPage(ctx, cfg, engine, source, outDir, opts)
		if !built {
			logf("Skipping %s: no top-level components\n", name)
			continue
		}
		result.Name = name
		summary.AddPage(result)

		if result.Status == github.StatusError {
			fmt.Fprintf(os.Stderr, "Error: failed to build %s: %s\n", name, result.Error)
		}
	}
	return summary, nil
}

// buildPage renders one source. It reports false for pure modules.
func buildPage(ctx context.Context, cfg *config.Config, engine *template.Engine, source, outDir string, opts host.Options) (github.PageResult, bool) {
	failed := func(err error) (github.PageResult, bool) {
		return github.PageResult{Status: github.StatusError, Error: err.Error()}, true
	}

	res, err := host.Build(ctx, cfg, source, opts)
	if err != nil {
		return failed(err)
	}
	if len(res.RT.Main.Children) == 0 {
		return github.PageResult{}, false
	}

	output, err := res.Page(engine, cfg.Markers.Body)
	if err != nil {
		return failed(err)
	}

	outPath := filepath.Join(outDir, pageFile(cfg, res.Document.Name))
	result := github.PageResult{Output: outPath, Status: github.StatusUpdated}

	if existing, err := os.ReadFile(outPath); err == nil && bytes.Equal(existing, []byte(output)) {
		result.Status = github.StatusUnchanged
		return result, true
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return failed(fmt.Errorf("creating output directory: %w", err))
	}
	if err := os.WriteFile(outPath, []byte(output), 0644); err != nil {
		return failed(fmt.Errorf("writing %s: %w", outPath, err))
	}
	return result, true
}

// pageFile maps a document id to its page path: the package entry is
// index.html, others are <id>.html.
func pageFile(cfg *config.Config, name string) string {
	if name == cfg.Package.Name {
		return "index.html"
	}
	return filepath.FromSlash(name) + ".html"
}

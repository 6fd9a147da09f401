package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/saltyorg/ftd/internal/page"
	"github.com/saltyorg/ftd/internal/template"
	"github.com/spf13/cobra"
)

var (
	renderOutput string
	renderInto   string
	renderDevice string
	renderDark   bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a document to HTML",
	Long: `Render an FTD document to a complete HTML page.

Without a file argument, renders the package entry (index.ftd or <package>.ftd
under the package root).

Use --into to update the managed body section of an existing HTML file
instead of writing a full page.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		entry, err := entryPath(cfg, args)
		if err != nil {
			return err
		}

		opts := hostOptions(cfg)
		if cmd.Flags().Changed("device") {
			opts.Device = renderDevice
		}
		if cmd.Flags().Changed("dark") {
			opts.DarkMode = renderDark
		}

		res, err := host.Build(cmd.Context(), cfg, entry, opts)
		if err != nil {
			return fmt.Errorf("building %s: %w", entry, err)
		}

		if renderInto != "" {
			return renderSection(cfg, res, renderInto)
		}
		return renderPage(cfg, res)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default: render.output from config, else stdout)")
	renderCmd.Flags().StringVar(&renderInto, "into", "", "update the managed body section of an existing HTML file")
	renderCmd.Flags().StringVar(&renderDevice, "device", "desktop", "device to execute for (desktop or mobile)")
	renderCmd.Flags().BoolVar(&renderDark, "dark", false, "execute in dark mode")
	rootCmd.AddCommand(renderCmd)
}

// renderPage writes the full page to the output file or stdout.
func renderPage(cfg *config.Config, res *host.Result) error {
	engine := template.New()
	if cfg.Render.Template != "" {
		if err := engine.LoadFile(template.PageTemplate, cfg.Resolve(cfg.Render.Template)); err != nil {
			return fmt.Errorf("loading template: %w", err)
		}
	}

	output, err := res.Page(engine, cfg.Markers.Body)
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	out := renderOutput
	if out == "" {
		out = cfg.Resolve(cfg.Render.Output)
	}
	if out == "" {
		fmt.Print(output)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(output), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("✅ Rendered %s to %s\n", res.Document.Name, out)
	return nil
}

// renderSection replaces the managed body section of an HTML file.
func renderSection(cfg *config.Config, res *host.Result, path string) error {
	f, err := page.Load(path)
	if err != nil {
		return err
	}

	fragment, err := res.Fragment()
	if err != nil {
		return fmt.Errorf("rendering fragment: %w", err)
	}

	if err := f.SetSection(cfg.Markers.Body, fragment); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	if err := f.Save(); err != nil {
		return err
	}
	fmt.Printf("✅ Updated %s section in %s\n", cfg.Markers.Body, path)
	return nil
}

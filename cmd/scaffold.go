package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/template"
	"github.com/spf13/cobra"
)

var (
	scaffoldTemplate string
	scaffoldOutput   string
	scaffoldForce    bool
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold <name>",
	Short: "Create a new document from a template",
	Long: `Create a starter FTD document.

The document is written to <name>.ftd under the package root unless --output
is given. Names may contain slashes, e.g. "guides/getting-started".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return scaffoldDocument(cfg, args[0])
	},
}

func init() {
	scaffoldCmd.Flags().StringVar(&scaffoldTemplate, "template", "", "path to scaffold template (default: built-in)")
	scaffoldCmd.Flags().StringVar(&scaffoldOutput, "output", "", "output path override")
	scaffoldCmd.Flags().BoolVar(&scaffoldForce, "force", false, "overwrite existing file if present")
	rootCmd.AddCommand(scaffoldCmd)
}

// ScaffoldData contains data for the scaffold template.
type ScaffoldData struct {
	Name    string // e.g., "guides/getting-started"
	Package string // package name from config
}

// scaffoldDocument creates a new document named name.
func scaffoldDocument(cfg *config.Config, name string) error {
	name = strings.TrimSuffix(strings.Trim(name, "/"), ".ftd")
	if name == "" {
		return fmt.Errorf("document name is required")
	}

	outputPath := scaffoldOutput
	if outputPath == "" {
		outputPath = filepath.Join(cfg.RootPath(), filepath.FromSlash(name)+".ftd")
	}

	if _, err := os.Stat(outputPath); err == nil && !scaffoldForce {
		return fmt.Errorf("file %s already exists (use --force to overwrite)", outputPath)
	}

	content := defaultScaffoldTemplate()
	if scaffoldTemplate != "" {
		b, err := os.ReadFile(scaffoldTemplate)
		if err != nil {
			return fmt.Errorf("reading template file: %w", err)
		}
		content = string(b)
	}

	output, err := template.New().RenderString(content, ScaffoldData{Name: name, Package: cfg.Package.Name})
	if err != nil {
		return fmt.Errorf("executing template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(output), 0644); err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	fmt.Printf("Created %s\n", outputPath)
	return nil
}

// defaultScaffoldTemplate returns the built-in scaffold template.
func defaultScaffoldTemplate() string {
	return `-- ftd.document: {{ titleFromName .Name }}
{{ header "description" (printf "%s page of %s" (titleFromName .Name) .Package) }}

--- ftd.text: {{ titleFromName .Name }}

--- ftd.text:

Write the {{ .Name }} page here.
`
}

package cmd

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Print the executed element tree as YAML",
	Long: `Interpret and execute a document and print its element tree as YAML.

Each node shows its element type, data-id, the component it was created from,
its source line and visibility condition.`,
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
		doc, err := host.Interpret(cmd.Context(), cfg, entry, opts)
		if err != nil {
			return err
		}
		rt, err := executor.Execute(doc, executor.Options{Device: opts.Device, DarkMode: opts.DarkMode})
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(buildTree(rt.Main)); err != nil {
			return fmt.Errorf("encoding tree: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

// treeNode is the YAML view of one element.
type treeNode struct {
	Type      string      `yaml:"type"`
	ID        string      `yaml:"id"`
	Component string      `yaml:"component,omitempty"`
	Line      int         `yaml:"line,omitempty"`
	Condition string      `yaml:"if,omitempty"`
	Dummy     bool        `yaml:"dummy,omitempty"`
	Value     any         `yaml:"value,omitempty"`
	Hidden    *treeNode   `yaml:"hidden,omitempty"`
	Children  []*treeNode `yaml:"children,omitempty"`
}

func buildTree(e executor.Element) *treeNode {
	c := e.Base()
	n := &treeNode{
		Type:      elementType(e),
		ID:        c.DataID(),
		Component: c.Component,
		Line:      c.LineNumber,
		Dummy:     c.IsDummy,
	}
	if c.Condition != nil {
		n.Condition = c.Condition.Source
	}

	switch x := e.(type) {
	case *executor.Text:
		n.Value = x.Text.Value
	case *executor.Code:
		n.Value = x.Text.Value
	case *executor.Integer:
		n.Value = x.Value.Value
	case *executor.Decimal:
		n.Value = x.Value.Value
	case *executor.Boolean:
		n.Value = x.Value.Value
	case *executor.Image:
		n.Value = x.Src.Value.Light
	case *executor.Null:
		if x.Hidden != nil {
			n.Hidden = buildTree(x.Hidden)
		}
	}

	for _, child := range executor.Children(e) {
		n.Children = append(n.Children, buildTree(child))
	}
	return n
}

// elementType is the lower-cased element type name, e.g. "text".
func elementType(e executor.Element) string {
	name := fmt.Sprintf("%T", e)
	name = name[strings.LastIndex(name, ".")+1:]
	return strings.ToLower(name)
}

package cmd

import (
	"fmt"

	"github.com/saltyorg/ftd/internal/dependency"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/spf13/cobra"
)

var depsRuntime bool

var depsCmd = &cobra.Command{
	Use:   "deps [file]",
	Short: "Print the data-dependency script of a document",
	Long: `Print the script that keeps a rendered document in sync with its data:
the data map, node-change functions, the dependency map and event handlers.`,
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

		res, err := host.Build(cmd.Context(), cfg, entry, hostOptions(cfg))
		if err != nil {
			return fmt.Errorf("building %s: %w", entry, err)
		}

		script, err := res.Script.Text()
		if err != nil {
			return err
		}
		if depsRuntime {
			fmt.Println(dependency.Runtime())
		}
		fmt.Print(script)
		return nil
	},
}

func init() {
	depsCmd.Flags().BoolVar(&depsRuntime, "runtime", false, "also print the page runtime")
	rootCmd.AddCommand(depsCmd)
}

package cmd

import (
	"fmt"
	"io"

	"github.com/saltyorg/ftd/internal/runtime"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	versionShort bool
	versionYAML  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, git commit, and build time of ftd.

--short prints only the version. --yaml prints the build information,
including the generator string written into rendered pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeVersion(cmd.OutOrStdout(), runtime.BuildInfo())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	versionCmd.Flags().BoolVar(&versionYAML, "yaml", false, "print build information as YAML")
	versionCmd.MarkFlagsMutuallyExclusive("short", "yaml")
	rootCmd.AddCommand(versionCmd)
}

func writeVersion(w io.Writer, info runtime.Info) error {
	switch {
	case versionShort:
		_, err := fmt.Fprintln(w, info.Version)
		return err
	case versionYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return fmt.Errorf("encoding version: %w", err)
		}
		return enc.Close()
	}
	_, err := fmt.Fprintln(w, runtime.VersionString())
	return err
}

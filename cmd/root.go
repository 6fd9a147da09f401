package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ftd",
	Short: "FTD document renderer",
	Long: `ftd renders FTD documents to HTML pages.

It performs the following core functions:
  - Parsing and interpreting .ftd sources with their imports
  - Executing documents into an element tree
  - Lowering the tree to HTML with a data-dependency script
  - Writing full pages or managed sections of existing pages`,
	SilenceUsage: true, // Don't print usage on errors unrelated to flags
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the running build.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// GetConfigPath returns the configured config file path.
func GetConfigPath() string {
	return cfgFile
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// logf writes progress messages to stderr in verbose mode.
func logf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// hostOptions returns the configured render options with verbose logging.
func hostOptions(cfg *config.Config) host.Options {
	opts := host.OptionsFromConfig(cfg)
	opts.Logf = logf
	return opts
}

// entryPath returns the source to build: the argument when given, else
// index.ftd or <package>.ftd under the package root.
func entryPath(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	for _, name := range []string{"index.ftd", cfg.Package.Name + ".ftd"} {
		path := filepath.Join(cfg.RootPath(), name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no entry document found in %s (expected index.ftd or %s.ftd)", cfg.RootPath(), cfg.Package.Name)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/saltyorg/ftd/internal/page"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and host pages",
	Long:  "Validate the configuration file and managed section markers in HTML pages.",
}

var validateConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate ftd.yml",
	Long:  "Validate the configuration file for required fields and correct format.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// loadConfig validates as it loads
		if _, err := loadConfig(); err != nil {
			return err
		}

		fmt.Println("✅ Config is valid")
		return nil
	},
}

var validatePagesCmd = &cobra.Command{
	Use:   "pages <files...>",
	Short: "Validate managed section markers in HTML files",
	Long: `Validate the BEGIN/END section markers of HTML files that render --into
writes to. Files with unbalanced or nested markers are refused by render.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return validatePages(args, cfg.Markers.Body)
	},
}

func init() {
	validateCmd.AddCommand(validateConfigCmd)
	validateCmd.AddCommand(validatePagesCmd)
	rootCmd.AddCommand(validateCmd)
}

// validatePages checks the section markers of every file.
func validatePages(paths []string, marker string) error {
	valid := 0
	invalid := 0
	withoutSection := 0

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", path, err)
			continue
		}

		if problems := page.Validate(string(content)); len(problems) > 0 {
			for _, p := range problems {
				fmt.Printf("❌ %s: %s\n", path, p)
			}
			invalid++
			continue
		}

		if page.Find(string(content), marker) == nil {
			withoutSection++
			if IsVerbose() {
				fmt.Printf("⚠️  %s: no %s section\n", path, marker)
			}
			continue
		}

		valid++
		if IsVerbose() {
			fmt.Printf("✅ %s\n", path)
		}
	}

	fmt.Printf("\nValidation complete: %d valid, %d invalid, %d without section\n",
		valid, invalid, withoutSection)

	if invalid > 0 {
		return fmt.Errorf("found %d invalid files", invalid)
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "ftd.yml"

// Config represents the complete configuration for rendering FTD documents.
type Config struct {
	Package          PackageConfig                   `yaml:"package"`
	Modules          map[string]string               `yaml:"modules"`
	SearchPaths      []string                        `yaml:"search_paths"`
	Processors       map[string]string               `yaml:"processors"`
	ForeignVariables map[string]map[string]yaml.Node `yaml:"foreign_variables"`
	Render           RenderConfig                    `yaml:"render"`
	Markers          MarkersConfig                   `yaml:"markers"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// PackageConfig names the entry document.
type PackageConfig struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

// RenderConfig holds the execution options and page output settings.
type RenderConfig struct {
	Device   string `yaml:"device"`
	DarkMode bool   `yaml:"dark_mode"`
	Template string `yaml:"template"`
	Output   string `yaml:"output"`
}

// MarkersConfig defines managed section marker names.
type MarkersConfig struct {
	Body string `yaml:"body"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Package.Name == "" {
		c.Package.Name = "main"
	}
	if c.Package.Root == "" {
		c.Package.Root = "."
	}
	if len(c.SearchPaths) == 0 {
		c.SearchPaths = []string{"."}
	}
	if c.Render.Device == "" {
		c.Render.Device = "desktop"
	}
	if c.Markers.Body == "" {
		c.Markers.Body = "FTD BODY"
	}
}

// Load reads and parses a config file from the given path. A missing file
// at DefaultPath is not an error and yields Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	cfg.dir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for required fields and consistency.
func (c *Config) Validate() error {
	if c.Package.Name == "" {
		return fmt.Errorf("package.name is required")
	}
	switch c.Render.Device {
	case "desktop", "mobile":
	default:
		return fmt.Errorf("render.device must be desktop or mobile, got %q", c.Render.Device)
	}
	if c.Markers.Body == "" {
		return fmt.Errorf("markers.body is required")
	}

	if err := validateDirectory(c.RootPath(), "package.root"); err != nil {
		return err
	}
	for id, file := range c.Modules {
		if id == "" || file == "" {
			return fmt.Errorf("modules: empty module id or path")
		}
	}
	for name, file := range c.Processors {
		if file == "" {
			return fmt.Errorf("processors.%s: data file is required", name)
		}
	}
	if c.Render.Template != "" {
		if _, err := os.Stat(c.Resolve(c.Render.Template)); err != nil {
			return fmt.Errorf("render.template: %w", err)
		}
	}

	return nil
}

// validateDirectory checks that a path exists and is a directory.
func validateDirectory(path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist: %s", name, path)
		}
		return fmt.Errorf("checking %s: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", name, path)
	}
	return nil
}

// Resolve makes a config-relative path absolute against the config file's
// directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// RootPath returns the package root used for module lookup.
func (c *Config) RootPath() string {
	return c.Resolve(c.Package.Root)
}

// ModuleSearchPaths returns the directories searched for `<module>.ftd`,
// rooted at the package root.
func (c *Config) ModuleSearchPaths() []string {
	out := make([]string, 0, len(c.SearchPaths))
	for _, p := range c.SearchPaths {
		if filepath.IsAbs(p) {
			out = append(out, p)
			continue
		}
		out = append(out, filepath.Join(c.RootPath(), p))
	}
	return out
}

// ProcessorPath returns the data file configured for a processor.
func (c *Config) ProcessorPath(name string) (string, bool) {
	file, ok := c.Processors[name]
	if !ok {
		return "", false
	}
	return c.Resolve(file), true
}

// ForeignVariable decodes the configured value of module's variable.
func (c *Config) ForeignVariable(module, name string) (any, bool, error) {
	vars, ok := c.ForeignVariables[module]
	if !ok {
		return nil, false, nil
	}
	node, ok := vars[name]
	if !ok {
		return nil, false, nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, true, fmt.Errorf("foreign_variables.%s.%s: %w", module, name, err)
	}
	return v, true, nil
}

// ForeignVariableNames lists the variables configured for module.
func (c *Config) ForeignVariableNames(module string) []string {
	vars := c.ForeignVariables[module]
	out := make([]string, 0, len(vars))
	for name := range vars {
		out = append(out, name)
	}
	return out
}

// Package host runs the full pipeline for one entry document: it answers
// the interpreter's suspensions from files and configuration, executes the
// result and lowers it to a page.
package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/config"
	"github.com/saltyorg/ftd/internal/dependency"
	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/html"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/saltyorg/ftd/internal/page"
	"github.com/saltyorg/ftd/internal/parser"
	"github.com/saltyorg/ftd/internal/runtime"
	"github.com/saltyorg/ftd/internal/template"
)

// Options controls one build.
type Options struct {
	Device   string
	DarkMode bool
	// Logf receives progress messages; nil discards them.
	Logf func(format string, args ...any)
}

// OptionsFromConfig returns the render options configured in cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{Device: cfg.Render.Device, DarkMode: cfg.Render.DarkMode}
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Result is everything one build produced.
type Result struct {
	Document *interpreter.Document
	RT       *executor.RT
	Root     *html.Node
	Script   *dependency.Script
}

// Load parses a source file into AST items under the document id name.
func Load(path, name string) ([]ast.AST, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseSource(string(content), name)
}

// ParseSource parses source text into AST items.
func ParseSource(source, name string) ([]ast.AST, error) {
	sections, err := parser.Parse(source, name)
	if err != nil {
		return nil, err
	}
	return ast.FromSections(sections, name)
}

// EntryName returns the document id of an entry file. The configured
// package entry is the package name; any other file is named by its path
// under the package root.
func EntryName(cfg *config.Config, entryPath string) string {
	name := page.DocumentName(cfg.RootPath(), entryPath)
	if name == "" || name == "index" || name == cfg.Package.Name {
		return cfg.Package.Name
	}
	return name
}

// Interpret parses entryPath and drives the interpreter to completion,
// loading imports, processor data and foreign variables on demand.
func Interpret(ctx context.Context, cfg *config.Config, entryPath string, opts Options) (*interpreter.Document, error) {
	name := EntryName(cfg, entryPath)
	items, err := Load(entryPath, name)
	if err != nil {
		return nil, err
	}
	return InterpretItems(ctx, cfg, name, items, opts)
}

// InterpretItems drives the interpreter over already parsed items.
func InterpretItems(ctx context.Context, cfg *config.Config, name string, items []ast.AST, opts Options) (*interpreter.Document, error) {
	state := interpreter.New(name, items, nil)
	it, err := state.Continue()
	imported := map[string]bool{name: true}

	for err == nil && it.Status != interpreter.Done {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		switch it.Status {
		case interpreter.StuckOnImport:
			if imported[it.Module] {
				return nil, fmt.Errorf("cyclic import of %s: %w", it.Module, interpreter.ErrCyclicDefinition)
			}
			imported[it.Module] = true
			path, lookErr := FindModule(cfg, it.Module)
			if lookErr != nil {
				return nil, lookErr
			}
			opts.logf("importing %s from %s\n", it.Module, path)
			moduleItems, loadErr := Load(path, it.Module)
			if loadErr != nil {
				return nil, fmt.Errorf("importing %s: %w", it.Module, loadErr)
			}
			it, err = state.ContinueAfterImport(it.Module, moduleItems, cfg.ForeignVariableNames(it.Module))

		case interpreter.StuckOnProcessor:
			opts.logf("running processor %s for %s\n", it.Processor, it.Variable)
			data, procErr := processorData(cfg, it.Processor)
			if procErr != nil {
				return nil, fmt.Errorf("processor %s for %s: %w", it.Processor, it.Variable, procErr)
			}
			value, convErr := state.ValueFromGo(data, it.Kind, lineOf(it))
			if convErr != nil {
				return nil, fmt.Errorf("processor %s for %s: %w", it.Processor, it.Variable, convErr)
			}
			it, err = state.ContinueAfterProcessor(value)

		case interpreter.StuckOnForeignVariable:
			_, local := interpreter.SplitName(it.Variable)
			root, _, _ := strings.Cut(local, ".")
			data, ok, fvErr := cfg.ForeignVariable(it.Module, root)
			if fvErr != nil {
				return nil, fvErr
			}
			if !ok {
				return nil, fmt.Errorf("foreign variable %s is not configured under foreign_variables.%s", it.Variable, it.Module)
			}
			opts.logf("supplying foreign variable %s\n", it.Variable)
			value, convErr := state.ValueFromGo(data, interpreter.ElementKind(), 0)
			if convErr != nil {
				return nil, fmt.Errorf("foreign variable %s: %w", it.Variable, convErr)
			}
			it, err = state.ContinueAfterForeignVariable(it.Variable, value)

		default:
			return nil, fmt.Errorf("unexpected interpreter status %s", it.Status)
		}
	}
	if err != nil {
		return nil, err
	}
	return it.Document, nil
}

func lineOf(it *interpreter.Interpretation) int {
	if it.Section != nil {
		return it.Section.LineNumber
	}
	return 0
}

// FindModule locates the source of a module: an explicit entry in the
// modules map, else `<module>.ftd` or `<module>/index.ftd` under each
// search path.
func FindModule(cfg *config.Config, module string) (string, error) {
	if file, ok := cfg.Modules[module]; ok {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.RootPath(), file)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("module %s: %w", module, err)
		}
		return path, nil
	}
	rel := filepath.FromSlash(module)
	for _, dir := range cfg.ModuleSearchPaths() {
		for _, candidate := range []string{
			filepath.Join(dir, rel+".ftd"),
			filepath.Join(dir, rel, "index.ftd"),
		} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("module %s not found in %s", module, strings.Join(cfg.ModuleSearchPaths(), ", "))
}

// processorData loads the YAML or JSON file configured for a processor.
func processorData(cfg *config.Config, name string) (any, error) {
	path, ok := cfg.ProcessorPath(name)
	if !ok {
		return nil, fmt.Errorf("no data file configured under processors.%s", name)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var data any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return data, nil
}

// Execute runs the executor, lowering and dependency generator over an
// interpreted document.
func Execute(ctx context.Context, doc *interpreter.Document, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rt, err := executor.Execute(doc, executor.Options{Device: opts.Device, DarkMode: opts.DarkMode})
	if err != nil {
		return nil, err
	}
	opts.logf("executed %s\n", doc.Name)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := html.Lower(rt)
	script, err := dependency.Generate(rt, root)
	if err != nil {
		return nil, fmt.Errorf("generating dependencies: %w", err)
	}
	opts.logf("generated %d node changes\n", len(script.NodeChanges))
	return &Result{Document: doc, RT: rt, Root: root, Script: script}, nil
}

// Build interprets, executes and lowers entryPath.
func Build(ctx context.Context, cfg *config.Config, entryPath string, opts Options) (*Result, error) {
	doc, err := Interpret(ctx, cfg, entryPath, opts)
	if err != nil {
		return nil, err
	}
	return Execute(ctx, doc, opts)
}

// Body renders the document's HTML.
func (r *Result) Body() string {
	return r.Root.Render()
}

// PageData collects what the page template needs.
func (r *Result) PageData(marker string) (*template.PageData, error) {
	script, err := r.Script.Text()
	if err != nil {
		return nil, err
	}
	dark := r.RT.Options.DarkMode
	data := &template.PageData{
		ID:        r.Document.Name,
		Generator: runtime.Generator(),
		Body:      r.Body(),
		Script:    script,
		Marker:    marker,
		JS:        r.Document.JS,
		CSS:       r.Document.CSS,
		RuntimeJS: dependency.Runtime(),
		DarkMode:  dark,
	}
	hd := r.RT.HTMLData
	if hd.Title != nil {
		data.Title = *hd.Title
	}
	if hd.Description != nil {
		data.Description = *hd.Description
	}
	if hd.OGImage != nil {
		data.OGImage = hd.OGImage.For(dark)
	}
	if hd.ThemeColor != nil {
		data.ThemeColor = hd.ThemeColor.For(dark)
	}
	if hd.Breakpoint != nil {
		data.Breakpoint = int(*hd.Breakpoint)
	}
	return data, nil
}

// Page renders the full HTML page through the engine's page template.
func (r *Result) Page(engine *template.Engine, marker string) (string, error) {
	data, err := r.PageData(marker)
	if err != nil {
		return "", err
	}
	return engine.RenderPage(data)
}

// Fragment is the managed-section content for --into: the body followed
// by the runtime and the document script.
func (r *Result) Fragment() (string, error) {
	script, err := r.Script.Text()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(r.Body())
	b.WriteString("\n<script>\n")
	b.WriteString(dependency.Runtime())
	b.WriteString("\n</script>\n<script>\n")
	b.WriteString(script)
	b.WriteString("</script>\n")
	return b.String(), nil
}

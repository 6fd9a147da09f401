package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/saltyorg/ftd/internal/expr"
	"github.com/saltyorg/ftd/internal/host"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/spf13/cobra"
)

const (
	historyFile = ".ftd_history"
	replPrompt  = "ftd> "
)

var replCmd = &cobra.Command{
	Use:   "repl [file]",
	Short: "Evaluate expressions against a document",
	Long: `Interpret a document and start an interactive prompt that evaluates
expressions against its variables, e.g. "$count + 1" or "len(items)".

Commands:
  :vars   list the document's variables
  :quit   exit`,
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

		doc, err := host.Interpret(cmd.Context(), cfg, entry, hostOptions(cfg))
		if err != nil {
			return err
		}
		return runRepl(doc.TDoc())
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(doc *interpreter.TDoc) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	names := variableNames(doc)
	ln.SetCompleter(func(line string) []string {
		return complete(names, line)
	})

	for {
		line, err := ln.Prompt(replPrompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":vars":
			for _, name := range names {
				fmt.Println(name)
			}
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			fmt.Println("unknown command. Type :vars or :quit.")
			continue
		}

		out, err := evalLine(doc, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(out)
	}
}

// replEnv resolves identifiers as variables of the document.
type replEnv struct {
	doc *interpreter.TDoc
}

func (e replEnv) Lookup(name string) (any, error) {
	v, err := e.doc.ValueOf(name, 0)
	if err != nil {
		return nil, err
	}
	return e.doc.ToGo(v, 0)
}

// evalLine evaluates one expression and formats the result.
func evalLine(doc *interpreter.TDoc, line string) (string, error) {
	node, err := expr.Parse(line)
	if err != nil {
		return "", err
	}
	v, err := expr.Eval(node, replEnv{doc: doc})
	if err != nil {
		return "", err
	}
	return expr.Format(v), nil
}

// variableNames lists the main document's variables by local name.
func variableNames(doc *interpreter.TDoc) []string {
	var names []string
	for _, v := range doc.Bag.Variables() {
		module, local := interpreter.SplitName(v.Name)
		if module != doc.Name || strings.Contains(local, "@") {
			continue
		}
		names = append(names, local)
	}
	sort.Strings(names)
	return names
}

// complete returns completions of the last word of line.
func complete(names []string, line string) []string {
	// '-' is part of kebab-case names
	start := strings.LastIndexAny(line, " ()+*/,!=<>&|") + 1
	prefix, word := line[:start], strings.TrimPrefix(line[start:], "$")
	dollar := strings.HasPrefix(line[start:], "$")

	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, word) {
			if dollar {
				out = append(out, prefix+"$"+name)
			} else {
				out = append(out, prefix+name)
			}
		}
	}
	return out
}

package page

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is a host HTML file whose managed section receives rendered output.
type File struct {
	Path    string
	Content string
}

// Load reads a host file. A missing file loads as empty so Upsert can
// create it.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Path: path}, nil
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return &File{Path: path, Content: string(content)}, nil
}

// Save writes the file, creating parent directories.
func (f *File) Save() error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	return os.WriteFile(f.Path, []byte(f.Content), 0644)
}

// SetSection replaces or inserts the named section. It refuses files with
// broken markers rather than guessing which region to overwrite.
func (f *File) SetSection(name, body string) error {
	if problems := Validate(f.Content); len(problems) > 0 {
		return fmt.Errorf("%s: %s", f.Path, strings.Join(problems, "; "))
	}
	f.Content = Upsert(f.Content, name, body)
	return nil
}

// Section returns the current body of the named section.
func (f *File) Section(name string) (string, bool) {
	s := Find(f.Content, name)
	if s == nil {
		return "", false
	}
	return strings.TrimPrefix(s.Content, "\n"), true
}

// ListSources returns every `.ftd` file under dir, sorted.
func ListSources(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".ftd") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// DocumentName derives a document id from a source path relative to root:
// `root/guides/intro.ftd` becomes `guides/intro`.
func DocumentName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
}

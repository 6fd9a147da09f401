package parser

import (
	"regexp"
	"strings"
)

var (
	// Section line: `-- name: caption`, subsection `--- name: caption`, either commented with `/`
	sectionLineRe = regexp.MustCompile(`^(/?)(-{2,3}) (.*)$`)

	// Body lines may escape a leading section marker as `\--`
	escapedMarkerRe = regexp.MustCompile(`^\\(/?-{2,3} )`)
)

// singletonHeaders may appear at most once per section.
var singletonHeaders = map[string]bool{
	"if":               true,
	"for":              true,
	"$processor$":      true,
	"$always-include$": true,
}

// Parse splits an FTD source document into its ordered sections.
//
// Sections start with `-- name: caption` at column 0 and are followed by
// headers, then a blank line and an optional body. `--- name:` opens a
// subsection of the current section. `-- end: name` closes the most recent
// open section called name and nests everything in between under it.
func Parse(source, docID string) ([]Section, error) {
	st := &parserState{docID: docID}
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")

	for i, line := range lines {
		if err := st.parseLine(line, i+1); err != nil {
			return nil, err
		}
	}
	st.finishSection()

	return st.nest()
}

func (st *parserState) parseLine(line string, lineNum int) error {
	if matches := sectionLineRe.FindStringSubmatch(line); matches != nil {
		commented := matches[1] == "/"
		if matches[2] == "---" {
			return st.startSubSection(matches[3], commented, lineNum)
		}
		return st.startSection(matches[3], commented, lineNum)
	}

	if st.current == nil {
		// Only blank lines and `;;` comments may precede the first section
		if strings.TrimSpace(line) == "" || isLineComment(line) {
			return nil
		}
		return st.errorf(lineNum, "expected a section (`-- name:`), found %q", strings.TrimSpace(line))
	}

	if st.inBody {
		if len(st.bodyLines) == 0 && strings.TrimSpace(line) == "" {
			return nil
		}
		if len(st.bodyLines) == 0 {
			st.bodyStart = lineNum
		}
		st.bodyLines = append(st.bodyLines, escapedMarkerRe.ReplaceAllString(line, "$1"))
		return nil
	}

	// A blank line ends the header block
	if strings.TrimSpace(line) == "" {
		st.inBody = true
		return nil
	}

	if isLineComment(line) {
		return nil
	}

	target := st.target()

	// Indented lines continue the previous header value
	if (line[0] == ' ' || line[0] == '\t') && len(target.Headers) > 0 {
		last := &target.Headers[len(target.Headers)-1]
		if last.Value == "" {
			last.Value = strings.TrimSpace(line)
		} else {
			last.Value += "\n" + strings.TrimSpace(line)
		}
		return nil
	}

	header, err := st.parseHeader(line, lineNum)
	if err != nil {
		return err
	}

	if singletonHeaders[header.Key] && !header.IsCommented && header.Condition == "" {
		for _, existing := range target.Headers {
			if existing.Key == header.Key && !existing.IsCommented {
				return st.errorf(lineNum, "header %q repeated (first at line %d)", header.Key, existing.LineNumber)
			}
		}
	}

	target.Headers = append(target.Headers, header)
	return nil
}

// parseHeader parses `[/][kind ]key[ if { cond }]: value`.
func (st *parserState) parseHeader(line string, lineNum int) (Header, error) {
	header := Header{LineNumber: lineNum}
	text := line

	if strings.HasPrefix(text, "/") {
		header.IsCommented = true
		text = text[1:]
	}

	idx := colonIndex(text)
	if idx < 0 {
		return header, st.errorf(lineNum, "malformed header %q: expected `key: value`", strings.TrimSpace(line))
	}

	keyPart := strings.TrimSpace(text[:idx])
	header.Value = strings.TrimSpace(text[idx+1:])

	if i := strings.Index(keyPart, " if "); i >= 0 {
		header.Condition = trimBraces(keyPart[i+4:])
		keyPart = strings.TrimSpace(keyPart[:i])
	}

	fields := strings.Fields(keyPart)
	if len(fields) == 0 {
		return header, st.errorf(lineNum, "malformed header %q: empty key", strings.TrimSpace(line))
	}

	header.Key = fields[len(fields)-1]
	header.Kind = strings.Join(fields[:len(fields)-1], " ")
	return header, nil
}

func (st *parserState) startSection(rest string, commented bool, lineNum int) error {
	st.finishSection()

	idx := colonIndex(rest)
	if idx < 0 {
		return st.errorf(lineNum, "unterminated section %q: missing ':'", strings.TrimSpace(rest))
	}

	name := strings.TrimSpace(rest[:idx])
	caption := strings.TrimSpace(rest[idx+1:])
	if name == "" {
		return st.errorf(lineNum, "section name is empty")
	}

	if name == "end" {
		if commented {
			return nil
		}
		if caption == "" {
			return st.errorf(lineNum, "`-- end:` requires the name of the section it closes")
		}
		st.items = append(st.items, item{end: caption, line: lineNum})
		return nil
	}

	section := &Section{Name: name, IsCommented: commented, LineNumber: lineNum}
	if caption != "" {
		section.Caption = &Text{Value: caption, LineNumber: lineNum}
	}
	st.current = section
	return nil
}

func (st *parserState) startSubSection(rest string, commented bool, lineNum int) error {
	if st.current == nil {
		return st.errorf(lineNum, "subsection outside any section")
	}
	st.finishSubSection()

	idx := colonIndex(rest)
	if idx < 0 {
		return st.errorf(lineNum, "unterminated subsection %q: missing ':'", strings.TrimSpace(rest))
	}

	name := strings.TrimSpace(rest[:idx])
	caption := strings.TrimSpace(rest[idx+1:])
	if name == "" {
		return st.errorf(lineNum, "subsection name is empty")
	}

	// A commented parent comments all of its subsections
	sub := &Section{Name: name, IsCommented: commented || st.current.IsCommented, LineNumber: lineNum}
	if caption != "" {
		sub.Caption = &Text{Value: caption, LineNumber: lineNum}
	}
	st.currentSub = sub
	return nil
}

// target is the section that receives headers and body lines.
func (st *parserState) target() *Section {
	if st.currentSub != nil {
		return st.currentSub
	}
	return st.current
}

func (st *parserState) flushBody(target *Section) {
	lines := st.bodyLines
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && target != nil {
		target.Body = &Text{Value: strings.Join(lines, "\n"), LineNumber: st.bodyStart}
	}
	st.bodyLines = nil
	st.bodyStart = 0
	st.inBody = false
}

func (st *parserState) finishSubSection() {
	if st.currentSub == nil {
		st.flushBody(st.current)
		return
	}
	st.flushBody(st.currentSub)
	st.current.SubSections = append(st.current.SubSections, *st.currentSub)
	st.currentSub = nil
}

func (st *parserState) finishSection() {
	if st.current == nil {
		st.flushBody(nil)
		return
	}
	st.finishSubSection()
	st.items = append(st.items, item{section: st.current, line: st.current.LineNumber})
	st.current = nil
}

// nest folds `-- end:` markers into parent/child relationships.
func (st *parserState) nest() ([]Section, error) {
	var stack []*Section

	for _, it := range st.items {
		if it.section != nil {
			stack = append(stack, it.section)
			continue
		}

		found := -1
		for j := len(stack) - 1; j >= 0; j-- {
			if matchesEnd(stack[j], it.end) && !stack[j].IsBlock {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, st.errorf(it.line, "no open section for `-- end: %s`", it.end)
		}

		parent := stack[found]
		for _, child := range stack[found+1:] {
			if parent.IsCommented {
				child.IsCommented = true
			}
			parent.SubSections = append(parent.SubSections, *child)
		}
		parent.IsBlock = true
		stack = stack[:found+1]
	}

	sections := make([]Section, 0, len(stack))
	for _, s := range stack {
		sections = append(sections, *s)
	}
	return sections, nil
}

// matchesEnd reports whether an `-- end:` name closes the section.
func matchesEnd(s *Section, name string) bool {
	if s.Name == name {
		return true
	}
	fields := strings.Fields(s.Name)
	last := strings.TrimPrefix(fields[len(fields)-1], "$")
	if i := strings.Index(last, "("); i >= 0 {
		last = last[:i]
	}
	return last == strings.TrimPrefix(name, "$")
}

// colonIndex returns the index of the first ':' outside `{ }`.
func colonIndex(s string) int {
	depth := 0
	for i, ch := range s {
		switch ch {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func trimBraces(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func isLineComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ";;")
}

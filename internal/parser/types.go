package parser

import "strings"

// Text is a caption or body value with the line it started on.
type Text struct {
	Value      string
	LineNumber int
}

// Header is a single `key: value` line of a section.
type Header struct {
	Key         string // Header key (e.g. "padding", "$on-click$")
	Kind        string // Kind prefix when present (e.g. "caption integer")
	Value       string // Raw value, continuation lines joined with "\n"
	Condition   string // Expression from `key if { ... }:`
	IsCommented bool   // Written as `/key: value`
	LineNumber  int
}

// IsReserved reports whether the key is a `$name$` flag.
func (h Header) IsReserved() bool {
	return len(h.Key) > 2 && strings.HasPrefix(h.Key, "$") && strings.HasSuffix(h.Key, "$")
}

// HasValue reports whether the header carries a non-empty value.
func (h Header) HasValue() bool {
	return strings.TrimSpace(h.Value) != ""
}

// Section is a parsed `-- name: caption` block.
type Section struct {
	Name        string    // Section name (e.g. "ftd.text", "integer list $xs")
	Caption     *Text     // Text after the colon on the section line
	Headers     []Header  // Headers in source order, duplicates preserved
	Body        *Text     // Body text after the header block
	SubSections []Section // `---` subsections and `-- end:` nested sections
	IsCommented bool      // Written as `/-- name:`
	IsBlock     bool      // Closed by an `-- end:` marker
	LineNumber  int
}

// HeaderByKey returns the first uncommented header with the given key.
func (s *Section) HeaderByKey(key string) (Header, bool) {
	for _, h := range s.Headers {
		if h.Key == key && !h.IsCommented {
			return h, true
		}
	}
	return Header{}, false
}

// HeadersByKey returns every uncommented header with the given key, in order.
func (s *Section) HeadersByKey(key string) []Header {
	var out []Header
	for _, h := range s.Headers {
		if h.Key == key && !h.IsCommented {
			out = append(out, h)
		}
	}
	return out
}

// ActiveHeaders returns the uncommented headers.
func (s *Section) ActiveHeaders() []Header {
	out := make([]Header, 0, len(s.Headers))
	for _, h := range s.Headers {
		if !h.IsCommented {
			out = append(out, h)
		}
	}
	return out
}

// ActiveSubSections returns the uncommented subsections.
func (s *Section) ActiveSubSections() []Section {
	out := make([]Section, 0, len(s.SubSections))
	for _, sub := range s.SubSections {
		if !sub.IsCommented {
			out = append(out, sub)
		}
	}
	return out
}

// CaptionValue returns the caption text or "" when absent.
func (s *Section) CaptionValue() string {
	if s.Caption == nil {
		return ""
	}
	return s.Caption.Value
}

// BodyValue returns the body text or "" when absent.
func (s *Section) BodyValue() string {
	if s.Body == nil {
		return ""
	}
	return s.Body.Value
}

// parserState tracks the current parsing context.
type parserState struct {
	docID      string
	current    *Section // top-level section being filled
	currentSub *Section // `---` subsection being filled, if any
	inBody     bool
	bodyLines  []string
	bodyStart  int
	items      []item
}

// item is either a finished section or an `-- end:` marker.
type item struct {
	section *Section
	end     string
	line    int
}

package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSectionWithHeadersAndBody(t *testing.T) {
	source := `-- ftd.text: Hello
padding: 10
color: red

This is the body
spanning two lines

-- ftd.text: World
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(sections))
	}

	first := sections[0]
	if first.Name != "ftd.text" {
		t.Errorf("Expected name 'ftd.text', got '%s'", first.Name)
	}
	if first.CaptionValue() != "Hello" {
		t.Errorf("Expected caption 'Hello', got '%s'", first.CaptionValue())
	}
	if len(first.Headers) != 2 {
		t.Fatalf("Expected 2 headers, got %d", len(first.Headers))
	}
	if first.Body == nil || first.Body.Value != "This is the body\nspanning two lines" {
		t.Errorf("Unexpected body: %+v", first.Body)
	}
	if first.Body.LineNumber != 5 {
		t.Errorf("Expected body on line 5, got %d", first.Body.LineNumber)
	}
	if sections[1].LineNumber != 8 {
		t.Errorf("Expected second section on line 8, got %d", sections[1].LineNumber)
	}
}

func TestParsePreservesHeaderOrder(t *testing.T) {
	source := `-- integer list $xs:
integer: 1
integer: 2
integer: 3
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"1", "2", "3"}
	headers := sections[0].Headers
	if len(headers) != len(want) {
		t.Fatalf("Expected %d headers, got %d", len(want), len(headers))
	}
	for i, h := range headers {
		if h.Key != "integer" || h.Value != want[i] {
			t.Errorf("header %d = (%q, %q), want (integer, %q)", i, h.Key, h.Value, want[i])
		}
		if h.LineNumber != i+2 {
			t.Errorf("header %d line = %d, want %d", i, h.LineNumber, i+2)
		}
	}
}

func TestParseHeaderKindsAndConditions(t *testing.T) {
	source := `-- record person:
caption name:
optional integer age:
color if { $flag == "a:b" }: red
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		key       string
		kind      string
		value     string
		condition string
	}{
		{"name", "caption", "", ""},
		{"age", "optional integer", "", ""},
		{"color", "", "red", `$flag == "a:b"`},
	}

	for i, tt := range tests {
		h := sections[0].Headers[i]
		if h.Key != tt.key || h.Kind != tt.kind || h.Value != tt.value || h.Condition != tt.condition {
			t.Errorf("header %d = %+v, want key=%q kind=%q value=%q condition=%q",
				i, h, tt.key, tt.kind, tt.value, tt.condition)
		}
	}
}

func TestParseContinuationLines(t *testing.T) {
	source := `-- ftd.text:
text: first
  second
  third
color: red
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	h, ok := sections[0].HeaderByKey("text")
	if !ok {
		t.Fatal("Expected header 'text'")
	}
	if h.Value != "first\nsecond\nthird" {
		t.Errorf("Expected joined value, got %q", h.Value)
	}
}

func TestParseSubSections(t *testing.T) {
	source := `-- point list $ps:

--- point:
x: 1
y: 2

--- point:
x: 3
y: 4
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	subs := sections[0].SubSections
	if len(subs) != 2 {
		t.Fatalf("Expected 2 subsections, got %d", len(subs))
	}
	if h, _ := subs[1].HeaderByKey("x"); h.Value != "3" {
		t.Errorf("Expected x=3 in second subsection, got %q", h.Value)
	}
}

func TestParseEndBlocksNest(t *testing.T) {
	source := `-- ftd.column:

-- ftd.row:

-- ftd.text: inner

-- end: ftd.row

-- ftd.text: sibling

-- end: ftd.column

-- ftd.text: after
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(sections) != 2 {
		t.Fatalf("Expected 2 top-level sections, got %d", len(sections))
	}

	column := sections[0]
	if !column.IsBlock || len(column.SubSections) != 2 {
		t.Fatalf("Expected column block with 2 children, got block=%v children=%d", column.IsBlock, len(column.SubSections))
	}
	row := column.SubSections[0]
	if row.Name != "ftd.row" || len(row.SubSections) != 1 {
		t.Errorf("Expected nested row with 1 child, got %s with %d", row.Name, len(row.SubSections))
	}
	if column.SubSections[1].CaptionValue() != "sibling" {
		t.Errorf("Expected sibling text, got %q", column.SubSections[1].CaptionValue())
	}
}

func TestParseEndMatchesIdentifier(t *testing.T) {
	source := `-- integer list $xs:

-- integer: 1

-- end: $xs
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(sections) != 1 || len(sections[0].SubSections) != 1 {
		t.Fatalf("Expected list block with one child, got %+v", sections)
	}
}

func TestParseComments(t *testing.T) {
	source := `;; leading comment
/-- ftd.text: hidden

--- ftd.text: also hidden

-- ftd.text: shown
/color: red
padding: 4
`
	sections, err := Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !sections[0].IsCommented {
		t.Error("Expected first section to be commented")
	}
	if !sections[0].SubSections[0].IsCommented {
		t.Error("Expected subsection of commented section to be commented")
	}

	shown := sections[1]
	if len(shown.Headers) != 2 || !shown.Headers[0].IsCommented {
		t.Fatalf("Expected commented color header, got %+v", shown.Headers)
	}
	if len(shown.ActiveHeaders()) != 1 {
		t.Errorf("Expected 1 active header, got %d", len(shown.ActiveHeaders()))
	}
}

func TestParseReservedHeaders(t *testing.T) {
	sections, err := Parse("-- ftd.text: hi\n$on-click$: $ftd.toggle(a = $flag)\n", "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	h := sections[0].Headers[0]
	if !h.IsReserved() {
		t.Errorf("Expected %q to be reserved", h.Key)
	}
}

func TestParseEscapedBody(t *testing.T) {
	sections, err := Parse("-- ftd.code:\n\n\\-- not a section\n", "main")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := sections[0].BodyValue(); got != "-- not a section" {
		t.Errorf("Expected unescaped body, got %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		line    int
		message string
	}{
		{"unterminated section", "-- ftd.text\n", 1, "unterminated section"},
		{"malformed header", "-- ftd.text: hi\nno colon here\n", 2, "malformed header"},
		{"subsection outside section", "--- ftd.text: hi\n", 1, "subsection outside any section"},
		{"duplicate singleton", "-- ftd.text: hi\nif: $a\nif: $b\n", 3, "repeated"},
		{"unmatched end", "-- ftd.text: hi\n\n-- end: ftd.row\n", 3, "no open section"},
		{"text before section", "hello\n", 1, "expected a section"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source, "doc")
			if err == nil {
				t.Fatal("Expected an error")
			}
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *Error, got %T", err)
			}
			if perr.LineNumber != tt.line {
				t.Errorf("Expected line %d, got %d", tt.line, perr.LineNumber)
			}
			if perr.DocID != "doc" {
				t.Errorf("Expected doc id 'doc', got %q", perr.DocID)
			}
			if !strings.Contains(perr.Message, tt.message) {
				t.Errorf("Expected message containing %q, got %q", tt.message, perr.Message)
			}
		})
	}
}

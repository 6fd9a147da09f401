package ast

import (
	"strings"

	"github.com/saltyorg/ftd/internal/parser"
)

// ValueSource says where a string value was read from.
type ValueSource int

const (
	SourceDefault ValueSource = iota
	SourceCaption
	SourceHeader
	SourceBody
)

func (s ValueSource) String() string {
	switch s {
	case SourceCaption:
		return "caption"
	case SourceHeader:
		return "header"
	case SourceBody:
		return "body"
	default:
		return "default"
	}
}

// VariableValue is an untyped value as written in source. The
// interpreter gives it a kind.
type VariableValue interface {
	Line() int
}

// String is a scalar text value or a `$reference`.
type String struct {
	Value      string
	Source     ValueSource
	LineNumber int
}

// List is a sequence of values from repeated headers or child sections.
type List struct {
	Items      []ListItem
	LineNumber int
}

// ListItem is one list element with the key (header key or section name)
// it was written under.
type ListItem struct {
	Key   string
	Value VariableValue
}

// Record is a structured value: caption, headers, body and child sections.
// Section keeps the original section so UI-valued kinds can be re-read as
// component invocations.
type Record struct {
	Name       string
	Caption    *String
	Headers    []HeaderValue
	Body       *String
	Children   []*Record
	Section    *parser.Section
	LineNumber int
}

// HeaderValue is a header inside a Record value.
type HeaderValue struct {
	Key        string
	Mutable    bool
	Value      VariableValue
	Condition  string
	LineNumber int
}

// None is an absent value.
type None struct {
	LineNumber int
}

func (s *String) Line() int { return s.LineNumber }
func (l *List) Line() int   { return l.LineNumber }
func (r *Record) Line() int { return r.LineNumber }
func (n *None) Line() int   { return n.LineNumber }

// IsReference reports whether the string is a `$name`, `*$name` or `$fn(...)`.
func (s *String) IsReference() bool {
	v := strings.TrimSpace(s.Value)
	return strings.HasPrefix(v, "$") || strings.HasPrefix(v, "*$")
}

// HeaderByKey returns the first header value with key.
func (r *Record) HeaderByKey(key string) (HeaderValue, bool) {
	for _, h := range r.Headers {
		if h.Key == key {
			return h, true
		}
	}
	return HeaderValue{}, false
}

// IsEmpty reports whether the record carries no data at all.
func (r *Record) IsEmpty() bool {
	return r.Caption == nil && r.Body == nil && len(r.Headers) == 0 && len(r.Children) == 0
}

// RecordFromSection builds a Record value from a section. Reserved
// `$flag$` headers and conditional `value` headers are left out.
func RecordFromSection(s *parser.Section) *Record {
	r := &Record{
		Name:       s.Name,
		Section:    s,
		LineNumber: s.LineNumber,
	}
	if s.Caption != nil {
		r.Caption = &String{Value: s.Caption.Value, Source: SourceCaption, LineNumber: s.Caption.LineNumber}
	}
	if s.Body != nil {
		r.Body = &String{Value: s.Body.Value, Source: SourceBody, LineNumber: s.Body.LineNumber}
	}
	for _, h := range s.ActiveHeaders() {
		if h.IsReserved() || (h.Key == "value" && h.Condition != "") {
			continue
		}
		key := h.Key
		mutable := false
		if strings.HasPrefix(key, "$") {
			key = strings.TrimPrefix(key, "$")
			mutable = true
		}
		r.Headers = append(r.Headers, HeaderValue{
			Key:        key,
			Mutable:    mutable,
			Value:      &String{Value: h.Value, Source: SourceHeader, LineNumber: h.LineNumber},
			Condition:  h.Condition,
			LineNumber: h.LineNumber,
		})
	}
	for _, sub := range s.ActiveSubSections() {
		sub := sub
		r.Children = append(r.Children, RecordFromSection(&sub))
	}
	return r
}

// ValueFromSection reads the value of a variable declaration section.
// Lists take each header and child section as an item; anything with
// headers or children is a Record; otherwise caption, then body.
func ValueFromSection(s *parser.Section, kind VariableKind) VariableValue {
	if kind.IsList() {
		list := &List{LineNumber: s.LineNumber}
		for _, h := range s.ActiveHeaders() {
			if h.IsReserved() || h.Condition != "" {
				continue
			}
			list.Items = append(list.Items, ListItem{
				Key:   h.Key,
				Value: &String{Value: h.Value, Source: SourceHeader, LineNumber: h.LineNumber},
			})
		}
		for _, sub := range s.ActiveSubSections() {
			sub := sub
			list.Items = append(list.Items, ListItem{Key: sub.Name, Value: RecordFromSection(&sub)})
		}
		if len(list.Items) == 0 && s.Caption != nil {
			// `-- integer list xs: 1, 2, 3`
			for _, part := range strings.Split(s.Caption.Value, ",") {
				list.Items = append(list.Items, ListItem{
					Key:   kind.Kind,
					Value: &String{Value: strings.TrimSpace(part), Source: SourceCaption, LineNumber: s.Caption.LineNumber},
				})
			}
		}
		return list
	}

	record := RecordFromSection(s)
	if len(record.Headers) > 0 || len(record.Children) > 0 {
		return record
	}
	if record.Caption != nil && record.Body != nil {
		return record
	}
	if record.Caption != nil {
		return record.Caption
	}
	if record.Body != nil {
		return record.Body
	}
	return &None{LineNumber: s.LineNumber}
}

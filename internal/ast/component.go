package ast

import (
	"regexp"
	"strings"

	"github.com/saltyorg/ftd/internal/parser"
)

// PropertySource says how a property was written on an invocation.
type PropertySource int

const (
	PropertyCaption PropertySource = iota
	PropertyBody
	PropertyHeader
	PropertySubsection
)

func (s PropertySource) String() string {
	switch s {
	case PropertyCaption:
		return "caption"
	case PropertyBody:
		return "body"
	case PropertySubsection:
		return "subsection"
	default:
		return "header"
	}
}

// ComponentInvocation is a use of a component: `-- <name>: ...`.
type ComponentInvocation struct {
	Name       string
	Properties []Property
	Iteration  *Loop
	Condition  string
	Events     []Event
	Children   []*ComponentInvocation
	LineNumber int
}

// Property is one argument value of an invocation. Name is the header key
// (possibly dotted, e.g. "src.light") or the argument a child section
// binds; it is empty for caption and body.
type Property struct {
	Name       string
	Value      VariableValue
	Source     PropertySource
	Mutable    bool
	Condition  string
	LineNumber int
}

// Loop is the `for: $x in $xs` header.
type Loop struct {
	On         string
	Alias      string
	LineNumber int
}

// Event is a `$on-<event>$: <action>` header.
type Event struct {
	Name       string
	Action     string
	LineNumber int
}

var (
	loopRe  = regexp.MustCompile(`^\$?([A-Za-z_][\w-]*)\s+in\s+(\S.*)$`)
	eventRe = regexp.MustCompile(`^\$on-(.+)\$$`)
)

// NewComponentInvocation reads an invocation from a section. Child
// sections named `<name>.<arg>` bind argument arg; every other child is a
// nested invocation.
func NewComponentInvocation(s *parser.Section, docID string) (*ComponentInvocation, error) {
	c := &ComponentInvocation{
		Name:       s.Name,
		LineNumber: s.LineNumber,
	}

	if s.Caption != nil {
		c.Properties = append(c.Properties, Property{
			Value:      &String{Value: s.Caption.Value, Source: SourceCaption, LineNumber: s.Caption.LineNumber},
			Source:     PropertyCaption,
			LineNumber: s.Caption.LineNumber,
		})
	}

	for _, h := range s.ActiveHeaders() {
		switch {
		case h.Key == "if":
			c.Condition = h.Value
			if strings.HasPrefix(c.Condition, "{") {
				c.Condition = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(c.Condition, "{"), "}"))
			}
		case h.Key == "for" || h.Key == "$loop$":
			loop, err := parseLoop(h, docID)
			if err != nil {
				return nil, err
			}
			c.Iteration = loop
		case eventRe.MatchString(h.Key):
			c.Events = append(c.Events, Event{
				Name:       eventRe.FindStringSubmatch(h.Key)[1],
				Action:     h.Value,
				LineNumber: h.LineNumber,
			})
		case h.IsReserved():
			return nil, newError(InvalidDeclaration, docID, h.LineNumber, "%s is not allowed on %s", h.Key, s.Name)
		default:
			key := h.Key
			mutable := strings.HasPrefix(key, "$")
			c.Properties = append(c.Properties, Property{
				Name:       strings.TrimPrefix(key, "$"),
				Value:      &String{Value: h.Value, Source: SourceHeader, LineNumber: h.LineNumber},
				Source:     PropertyHeader,
				Mutable:    mutable,
				Condition:  h.Condition,
				LineNumber: h.LineNumber,
			})
		}
	}

	if s.Body != nil {
		c.Properties = append(c.Properties, Property{
			Value:      &String{Value: s.Body.Value, Source: SourceBody, LineNumber: s.Body.LineNumber},
			Source:     PropertyBody,
			LineNumber: s.Body.LineNumber,
		})
	}

	prefix := s.Name + "."
	for _, sub := range s.ActiveSubSections() {
		sub := sub
		if arg, ok := strings.CutPrefix(sub.Name, prefix); ok && arg != "" {
			c.Properties = append(c.Properties, Property{
				Name:       arg,
				Value:      RecordFromSection(&sub),
				Source:     PropertySubsection,
				LineNumber: sub.LineNumber,
			})
			continue
		}
		child, err := NewComponentInvocation(&sub, docID)
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, child)
	}

	return c, nil
}

// PropertiesByName returns the header and subsection properties named name.
func (c *ComponentInvocation) PropertiesByName(name string) []Property {
	var out []Property
	for _, p := range c.Properties {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

func parseLoop(h parser.Header, docID string) (*Loop, error) {
	value := strings.TrimSpace(h.Value)
	if h.Key == "$loop$" {
		// `$loop$: $xs as $x`
		on, alias, ok := strings.Cut(value, " as ")
		if !ok {
			return nil, newError(InvalidDeclaration, docID, h.LineNumber, "malformed loop %q: expected `<list> as <alias>`", value)
		}
		return &Loop{
			On:         strings.TrimSpace(on),
			Alias:      strings.TrimPrefix(strings.TrimSpace(alias), "$"),
			LineNumber: h.LineNumber,
		}, nil
	}
	m := loopRe.FindStringSubmatch(value)
	if m == nil {
		return nil, newError(InvalidDeclaration, docID, h.LineNumber, "malformed loop %q: expected `<alias> in <list>`", value)
	}
	return &Loop{On: strings.TrimSpace(m[2]), Alias: m[1], LineNumber: h.LineNumber}, nil
}

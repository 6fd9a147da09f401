package ast

import (
	"path"
	"regexp"
	"strings"

	"github.com/saltyorg/ftd/internal/parser"
)

const (
	prefixRecord       = "record "
	prefixOrType       = "or-type "
	prefixMap          = "map "
	prefixComponent    = "component "
	prefixWebComponent = "web-component "
)

// functionRe matches `<kind> <name>(<params>)`.
var functionRe = regexp.MustCompile(`^(.+?)\s+([A-Za-z_$][\w.$-]*)\((.*)\)$`)

// FromSections converts every uncommented section of a document.
func FromSections(sections []parser.Section, docID string) ([]AST, error) {
	out := make([]AST, 0, len(sections))
	for i := range sections {
		if sections[i].IsCommented {
			continue
		}
		item, err := FromSection(&sections[i], docID)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// FromSection tags a single section.
func FromSection(s *parser.Section, docID string) (AST, error) {
	name := strings.TrimSpace(s.Name)

	switch {
	case name == "import":
		return importFromSection(s, docID)
	case strings.HasPrefix(name, prefixRecord):
		return recordFromSection(s, strings.TrimSpace(name[len(prefixRecord):]), docID)
	case strings.HasPrefix(name, prefixOrType):
		return orTypeFromSection(s, strings.TrimSpace(name[len(prefixOrType):]), docID)
	case strings.HasPrefix(name, prefixMap):
		return &Map{Name: strings.TrimSpace(name[len(prefixMap):]), LineNumber: s.LineNumber}, nil
	case strings.HasPrefix(name, prefixComponent):
		return componentFromSection(s, strings.TrimSpace(name[len(prefixComponent):]), docID)
	case strings.HasPrefix(name, prefixWebComponent):
		return webComponentFromSection(s, strings.TrimSpace(name[len(prefixWebComponent):]), docID)
	case functionRe.MatchString(name):
		return functionFromSection(s, docID)
	case strings.ContainsAny(name, " \t"):
		return variableFromSection(s, docID)
	default:
		return NewComponentInvocation(s, docID)
	}
}

func importFromSection(s *parser.Section, docID string) (*Import, error) {
	caption := strings.TrimSpace(s.CaptionValue())
	if caption == "" {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "import needs a module name")
	}
	module, alias, found := strings.Cut(caption, " as ")
	module = strings.TrimSpace(module)
	alias = strings.TrimSpace(alias)
	if found && alias == "" {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "import %q: empty alias", caption)
	}
	if !found {
		alias = path.Base(module)
	}
	return &Import{Module: module, Alias: alias, LineNumber: s.LineNumber}, nil
}

// fieldsFromHeaders reads `<kind> <name>: <default>` headers. Headers
// without a kind are returned separately for the caller to interpret.
func fieldsFromHeaders(s *parser.Section, docID string) ([]Field, []parser.Header, error) {
	var fields []Field
	var rest []parser.Header
	seen := make(map[string]int)

	for _, h := range s.ActiveHeaders() {
		if h.Kind == "" {
			rest = append(rest, h)
			continue
		}
		kind, err := ParseVariableKind(h.Kind)
		if err != nil {
			return nil, nil, newError(AmbiguousKind, docID, h.LineNumber, "field %s: %v", h.Key, err)
		}
		name := strings.TrimPrefix(h.Key, "$")
		if line, dup := seen[name]; dup {
			return nil, nil, newError(InvalidDeclaration, docID, h.LineNumber, "field %q already declared at line %d", name, line)
		}
		seen[name] = h.LineNumber

		f := Field{
			Name:       name,
			Kind:       kind,
			Mutable:    strings.HasPrefix(h.Key, "$"),
			LineNumber: h.LineNumber,
		}
		if h.HasValue() {
			f.Value = &String{Value: h.Value, Source: SourceDefault, LineNumber: h.LineNumber}
		}
		fields = append(fields, f)
	}

	if err := checkCaptionBody(fields, docID); err != nil {
		return nil, nil, err
	}
	return fields, rest, nil
}

// checkCaptionBody enforces at most one caption and one body field.
func checkCaptionBody(fields []Field, docID string) error {
	var caption, body string
	for _, f := range fields {
		if f.Kind.Caption {
			if caption != "" {
				return newError(InvalidDeclaration, docID, f.LineNumber, "both %q and %q take the caption", caption, f.Name)
			}
			caption = f.Name
		}
		if f.Kind.Body {
			if body != "" {
				return newError(InvalidDeclaration, docID, f.LineNumber, "both %q and %q take the body", body, f.Name)
			}
			body = f.Name
		}
	}
	return nil
}

func recordFromSection(s *parser.Section, name, docID string) (*RecordDefinition, error) {
	if name == "" {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "record needs a name")
	}
	fields, rest, err := fieldsFromHeaders(s, docID)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, newError(InvalidDeclaration, docID, rest[0].LineNumber, "record field %q has no kind", rest[0].Key)
	}
	return &RecordDefinition{Name: name, Fields: fields, LineNumber: s.LineNumber}, nil
}

func orTypeFromSection(s *parser.Section, name, docID string) (*OrType, error) {
	if name == "" {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "or-type needs a name")
	}
	o := &OrType{Name: name, LineNumber: s.LineNumber}
	for _, sub := range s.ActiveSubSections() {
		sub := sub
		variant, err := variantFromSection(&sub, docID)
		if err != nil {
			return nil, err
		}
		o.Variants = append(o.Variants, *variant)
	}
	if len(o.Variants) == 0 {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "or-type %s has no variants", name)
	}
	return o, nil
}

// variantFromSection reads one or-type variant. `--- integer px:` is a
// variant with a single caption field named value.
func variantFromSection(s *parser.Section, docID string) (*RecordDefinition, error) {
	words := strings.Fields(s.Name)
	if len(words) > 1 {
		kind, err := ParseVariableKind(strings.Join(words[:len(words)-1], " "))
		if err != nil {
			return nil, newError(AmbiguousKind, docID, s.LineNumber, "variant %s: %v", s.Name, err)
		}
		kind.Caption = true
		field := Field{Name: "value", Kind: kind, LineNumber: s.LineNumber}
		if s.Caption != nil {
			field.Value = &String{Value: s.Caption.Value, Source: SourceDefault, LineNumber: s.LineNumber}
		}
		return &RecordDefinition{Name: words[len(words)-1], Fields: []Field{field}, LineNumber: s.LineNumber}, nil
	}
	r, err := recordFromSection(s, s.Name, docID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func componentFromSection(s *parser.Section, name, docID string) (*ComponentDefinition, error) {
	if name == "" {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "component needs a name")
	}
	fields, rest, err := fieldsFromHeaders(s, docID)
	if err != nil {
		return nil, err
	}
	c := &ComponentDefinition{Name: name, Arguments: fields, LineNumber: s.LineNumber}
	for _, h := range rest {
		switch h.Key {
		case "css":
			c.CSS = h.Value
		case "for", "$loop$":
			return nil, newError(InvalidDeclaration, docID, h.LineNumber, "component %s: a definition cannot loop", name)
		default:
			return nil, newError(InvalidDeclaration, docID, h.LineNumber, "component %s: argument %q has no kind", name, h.Key)
		}
	}

	subs := s.ActiveSubSections()
	switch len(subs) {
	case 0:
		// kernel components have no definition
	case 1:
		def, err := NewComponentInvocation(&subs[0], docID)
		if err != nil {
			return nil, err
		}
		if def.Iteration != nil {
			return nil, newError(InvalidDeclaration, docID, def.LineNumber, "component %s: a definition cannot loop", name)
		}
		c.Definition = def
	default:
		return nil, newError(InvalidDeclaration, docID, subs[1].LineNumber, "component %s has more than one root", name)
	}
	return c, nil
}

func webComponentFromSection(s *parser.Section, name, docID string) (*WebComponentDefinition, error) {
	if name == "" {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "web-component needs a name")
	}
	fields, rest, err := fieldsFromHeaders(s, docID)
	if err != nil {
		return nil, err
	}
	w := &WebComponentDefinition{Name: name, Arguments: fields, LineNumber: s.LineNumber}
	for _, h := range rest {
		if h.Key != "js" {
			return nil, newError(InvalidDeclaration, docID, h.LineNumber, "web-component %s: argument %q has no kind", name, h.Key)
		}
		w.JS = h.Value
	}
	return w, nil
}

func functionFromSection(s *parser.Section, docID string) (*Function, error) {
	m := functionRe.FindStringSubmatch(strings.TrimSpace(s.Name))
	kind, err := ParseVariableKind(m[1])
	if err != nil {
		return nil, newError(AmbiguousKind, docID, s.LineNumber, "function %s: %v", m[2], err)
	}
	f := &Function{
		Name:       strings.TrimPrefix(m[2], "$"),
		ReturnKind: kind,
		Body:       s.BodyValue(),
		LineNumber: s.LineNumber,
	}
	for _, p := range strings.Split(m[3], ",") {
		if p = strings.TrimSpace(p); p != "" {
			f.Params = append(f.Params, strings.TrimPrefix(p, "$"))
		}
	}

	fields, rest, err := fieldsFromHeaders(s, docID)
	if err != nil {
		return nil, err
	}
	f.Arguments = fields
	for _, h := range rest {
		if h.Key != "js" {
			return nil, newError(InvalidDeclaration, docID, h.LineNumber, "function %s: argument %q has no kind", f.Name, h.Key)
		}
		f.JS = h.Value
	}

	for _, p := range f.Params {
		found := false
		for _, a := range f.Arguments {
			if a.Name == p {
				found = true
				break
			}
		}
		if !found {
			return nil, newError(InvalidDeclaration, docID, s.LineNumber, "function %s: parameter %q has no declared kind", f.Name, p)
		}
	}
	return f, nil
}

func variableFromSection(s *parser.Section, docID string) (*Variable, error) {
	words := strings.Fields(s.Name)
	ident := words[len(words)-1]
	kind, err := ParseVariableKind(strings.Join(words[:len(words)-1], " "))
	if err != nil {
		return nil, newError(AmbiguousKind, docID, s.LineNumber, "variable %s: %v", strings.TrimPrefix(ident, "$"), err)
	}

	v := &Variable{
		Name:       strings.TrimPrefix(ident, "$"),
		Kind:       kind,
		Mutable:    strings.HasPrefix(ident, "$"),
		LineNumber: s.LineNumber,
	}
	if v.Name == "" {
		return nil, newError(InvalidDeclaration, docID, s.LineNumber, "variable has no name")
	}

	for _, h := range s.ActiveHeaders() {
		switch {
		case h.Key == "$processor$":
			v.Processor = strings.TrimSpace(h.Value)
		case h.Key == "$always-include$":
			v.AlwaysInclude = strings.TrimSpace(h.Value) != "false"
		case h.Key == "value" && h.Condition != "":
			v.Conditional = append(v.Conditional, ConditionalValue{
				Condition:  h.Condition,
				Value:      &String{Value: h.Value, Source: SourceHeader, LineNumber: h.LineNumber},
				LineNumber: h.LineNumber,
			})
		case h.IsReserved():
			return nil, newError(InvalidDeclaration, docID, h.LineNumber, "%s is not allowed on a variable", h.Key)
		}
	}

	v.Value = ValueFromSection(s, kind)
	return v, nil
}

package interpreter

import (
	"strings"
	"unicode"

	"github.com/saltyorg/ftd/internal/ast"
)

// eventNames are the events a component can handle. Keyboard events
// carry their keys in brackets and are checked by keyEvent.
var eventNames = map[string]bool{
	"click":         true,
	"click-outside": true,
	"mouse-enter":   true,
	"mouse-leave":   true,
	"input":         true,
	"change":        true,
	"blur":          true,
	"focus":         true,
}

// IsEventName reports whether name is a supported event: one of
// eventNames, `global-key[ctrl-k]` or `global-key-seq[g-h]`.
func IsEventName(name string) bool {
	if eventNames[name] {
		return true
	}
	for _, prefix := range []string{"global-key[", "global-key-seq["} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			keys, ok := strings.CutSuffix(rest, "]")
			return ok && validKeys(keys)
		}
	}
	return false
}

// validKeys checks a dash separated key list such as `ctrl-shift-k`.
func validKeys(keys string) bool {
	if keys == "" {
		return false
	}
	for _, key := range strings.Split(keys, "-") {
		if key == "" {
			return false
		}
		for _, r := range key {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return false
			}
		}
	}
	return true
}

func (d *TDoc) componentFromSection(r *ast.Record, sc scope) (*Component, error) {
	if r.Section == nil {
		return nil, newError(InterpreterError, d.Name, r.LineNumber, "%s is not a component section", r.Name)
	}
	inv, err := ast.NewComponentInvocation(r.Section, d.Name)
	if err != nil {
		return nil, err
	}
	return d.componentFromAST(inv, sc)
}

// componentFromAST converts an invocation: resolves the callee, binds
// loop aliases, and checks every property against the callee's
// arguments.
func (d *TDoc) componentFromAST(inv *ast.ComponentInvocation, sc scope) (*Component, error) {
	line := inv.LineNumber
	c := &Component{LineNumber: line}

	if inv.Iteration != nil {
		on, err := d.propertyValueFromString(inv.Iteration.On, ast.SourceHeader, KindData{Kind: ElementKind()}, sc, false, inv.Iteration.LineNumber)
		if err != nil {
			return nil, err
		}
		if !on.IsReference() || !on.Kind.InnerKind().IsList() {
			return nil, newError(KindError, d.Name, line, "loop over %s, which is not a list", inv.Iteration.On)
		}
		_, mutable, err := d.kindOf(on.Name, sc, line)
		if err != nil {
			return nil, err
		}
		alias := d.Name + "#" + inv.Iteration.Alias
		sc = sc.withLoop(loopScope{alias: inv.Iteration.Alias, name: alias, item: on.Kind.InnerKind().ItemKind(), mutable: mutable})
		c.Iteration = &Loop{On: on, Alias: alias, LineNumber: inv.Iteration.LineNumber}
	}

	args, isWeb, err := d.callee(c, inv, sc)
	if err != nil {
		return nil, err
	}

	if inv.Condition != "" {
		if c.Condition, err = d.expressionFrom(inv.Condition, sc, line); err != nil {
			return nil, err
		}
	}

	if c.Source == SourceVariable {
		if len(inv.Properties) > 0 || len(inv.Children) > 0 {
			return nil, newError(KindError, d.Name, line, "%s is a UI value and takes no arguments", inv.Name)
		}
	} else if c.Properties, err = d.propertiesFromAST(inv, c.Name, args, sc); err != nil {
		return nil, err
	}

	for _, e := range inv.Events {
		if !IsEventName(e.Name) {
			return nil, newError(InterpreterError, d.Name, e.LineNumber, "unknown event %q", e.Name)
		}
		action, err := d.propertyValueFromString(e.Action, ast.SourceHeader, KindData{Kind: VoidKind()}, sc.withEvent(), false, e.LineNumber)
		if err != nil {
			return nil, err
		}
		if action.Type != ValueFunctionCall {
			return nil, newError(InterpreterError, d.Name, e.LineNumber, "event %s needs a function call, found %q", e.Name, e.Action)
		}
		c.Events = append(c.Events, Event{Name: e.Name, Action: action, LineNumber: e.LineNumber})
	}

	for _, child := range inv.Children {
		cc, err := d.componentFromAST(child, sc)
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, cc)
	}
	if len(c.Children) > 0 {
		f, ok := childrenField(args)
		switch {
		case isWeb || !ok:
			return nil, newError(KindError, d.Name, line, "%s does not take children", c.Name)
		case len(c.PropertiesFor(f.Name)) > 0:
			return nil, newError(KindError, d.Name, line, "children of %s given both as sections and as %s", c.Name, f.Name)
		}
	}
	return c, nil
}

// callee resolves the invoked name to a declaration or a UI value and
// returns its arguments.
func (d *TDoc) callee(c *Component, inv *ast.ComponentInvocation, sc scope) ([]Field, bool, error) {
	line := inv.LineNumber
	name := d.scopedName(inv.Name, sc)

	if l, rest, ok := sc.loop(name); ok {
		k, err := d.descendKind(l.item, rest, line)
		if err != nil {
			return nil, false, err
		}
		if !k.InnerKind().IsUI() {
			return nil, false, newError(KindError, d.Name, line, "%s is %s, not a component", inv.Name, k)
		}
		c.Name, c.Source = name, SourceVariable
		return nil, false, nil
	}

	t, rest, err := d.SearchThing(name, line)
	if err != nil {
		return nil, false, err
	}
	switch x := t.(type) {
	case *ComponentDefinition:
		if rest == "" {
			c.Name, c.Source = x.Name, SourceDeclaration
			return x.Arguments, false, nil
		}
	case *WebComponent:
		if rest == "" {
			c.Name, c.Source = x.Name, SourceDeclaration
			return x.Arguments, true, nil
		}
	case *Variable:
	default:
		return nil, false, newError(KindError, d.Name, line, "%s is not a component", inv.Name)
	}

	k, _, err := d.kindOf(name, sc, line)
	if err != nil {
		return nil, false, err
	}
	if !k.InnerKind().IsUI() {
		return nil, false, newError(KindError, d.Name, line, "%s is %s, not a component", inv.Name, k)
	}
	c.Name, c.Source = name, SourceVariable
	return nil, false, nil
}

// compositeGroup collects `arg.part: value` headers for one argument and
// condition.
type compositeGroup struct {
	field     Field
	condition string
	record    *ast.Record
	line      int
}

// propertiesFromAST binds caption, body, headers and subsections to the
// callee's arguments.
func (d *TDoc) propertiesFromAST(inv *ast.ComponentInvocation, component string, args []Field, sc scope) ([]Property, error) {
	var props []Property
	var groups []*compositeGroup
	byHeader := make(map[string]bool)
	bySubsection := make(map[string]bool)

	for _, p := range inv.Properties {
		var f Field
		var ok bool
		source := PropertyHeader
		switch p.Source {
		case ast.PropertyCaption:
			f, ok = captionField(args)
			source = PropertyCaption
			if !ok {
				return nil, newError(KindError, d.Name, p.LineNumber, "%s does not take a caption", component)
			}
		case ast.PropertyBody:
			f, ok = bodyField(args)
			source = PropertyBody
			if !ok {
				return nil, newError(KindError, d.Name, p.LineNumber, "%s does not take a body", component)
			}
		default:
			if p.Source == ast.PropertySubsection {
				source = PropertySubsection
			}
			argName, part, dotted := strings.Cut(p.Name, ".")
			f, ok = FieldByName(args, argName)
			if !ok {
				return nil, wrapError(KindError, ErrNotFound, d.Name, p.LineNumber, "%s has no argument %s", component, argName)
			}
			if dotted && p.Source == ast.PropertyHeader {
				groups = addComposite(groups, f, part, p)
				continue
			}
		}

		if f.Kind.Kind.InnerKind().IsList() {
			if source == PropertySubsection {
				bySubsection[f.Name] = true
			} else {
				byHeader[f.Name] = true
			}
			if bySubsection[f.Name] && byHeader[f.Name] {
				return nil, newError(KindError, d.Name, p.LineNumber, "%s: list argument %s given both as headers and as a section", component, f.Name)
			}
		}
		if p.Mutable && !f.Mutable {
			return nil, wrapError(MutationError, ErrNotMutable, d.Name, p.LineNumber, "%s: argument %s is not mutable", component, f.Name)
		}

		var cond *Expression
		if p.Condition != "" {
			c, err := d.expressionFrom(p.Condition, sc, p.LineNumber)
			if err != nil {
				return nil, err
			}
			cond = c
		}

		pv, item, err := d.valueOrItem(p.Value, f, sc, p.Mutable)
		if err != nil {
			return nil, err
		}
		if item {
			if i := findProperty(props, f.Name, p.Condition); i >= 0 {
				list, ok := props[i].Value.Value.(*ListValue)
				if ok && props[i].Value.IsLiteral() {
					list.Items = append(list.Items, pv)
					continue
				}
			}
			lv := Literal(&ListValue{Items: []PropertyValue{pv}, ItemKind: f.Kind.Kind.InnerKind().ItemKind()}, p.LineNumber)
			lv.Kind = f.Kind.Kind
			pv = lv
		} else if i := findProperty(props, f.Name, p.Condition); i >= 0 {
			return nil, newError(KindError, d.Name, p.LineNumber, "%s: argument %s given twice", component, f.Name)
		}

		props = append(props, Property{
			Name:       f.Name,
			Value:      pv,
			Source:     source,
			Mutable:    p.Mutable,
			Condition:  cond,
			LineNumber: p.LineNumber,
		})
	}

	for _, g := range groups {
		if i := findProperty(props, g.field.Name, g.condition); i >= 0 {
			return nil, newError(KindError, d.Name, g.line, "%s: argument %s given twice", component, g.field.Name)
		}
		pv, err := d.compositeValue(g, sc)
		if err != nil {
			return nil, err
		}
		var cond *Expression
		if g.condition != "" {
			if cond, err = d.expressionFrom(g.condition, sc, g.line); err != nil {
				return nil, err
			}
		}
		props = append(props, Property{Name: g.field.Name, Value: pv, Source: PropertyHeader, Condition: cond, LineNumber: g.line})
	}

	for _, f := range args {
		if !f.IsRequired() || f.Kind.Kind.Tag == KindSubsectionUI {
			continue
		}
		if findAnyProperty(props, f.Name) < 0 {
			return nil, wrapError(KindError, ErrNotFound, d.Name, inv.LineNumber, "%s: argument %s is missing", component, f.Name)
		}
	}
	return props, nil
}

func addComposite(groups []*compositeGroup, f Field, part string, p ast.Property) []*compositeGroup {
	var g *compositeGroup
	for _, candidate := range groups {
		if candidate.field.Name == f.Name && candidate.condition == p.Condition {
			g = candidate
			break
		}
	}
	if g == nil {
		g = &compositeGroup{field: f, condition: p.Condition, record: &ast.Record{LineNumber: p.LineNumber}, line: p.LineNumber}
		groups = append(groups, g)
	}
	g.record.Headers = append(g.record.Headers, ast.HeaderValue{Key: part, Value: p.Value, LineNumber: p.LineNumber})
	return groups
}

// compositeValue builds a record from `src.light`/`src.dark` headers, or
// an or-type variant from `width.px: 10`.
func (d *TDoc) compositeValue(g *compositeGroup, sc scope) (PropertyValue, error) {
	k := g.field.Kind.Kind.InnerKind()
	switch k.Tag {
	case KindRecord:
		return d.recordValueFromAST(g.record, g.field.Kind, sc, g.line)
	case KindOrType:
		if len(g.record.Headers) != 1 {
			return PropertyValue{}, newError(KindError, d.Name, g.line, "%s takes a single variant", g.field.Name)
		}
		h := g.record.Headers[0]
		variant, field, nested := strings.Cut(h.Key, ".")
		o, err := d.orType(k.Name, g.line)
		if err != nil {
			return PropertyValue{}, err
		}
		r := &ast.Record{LineNumber: h.LineNumber}
		if nested {
			r.Headers = []ast.HeaderValue{{Key: field, Value: h.Value, LineNumber: h.LineNumber}}
		} else if s, ok := h.Value.(*ast.String); ok {
			r.Caption = s
		}
		pv, err := d.variantValue(o, variant, r, sc, g.line)
		if err != nil {
			return PropertyValue{}, err
		}
		pv.Kind = g.field.Kind.Kind
		return pv, nil
	}
	return PropertyValue{}, newError(KindError, d.Name, g.line, "argument %s of kind %s has no parts", g.field.Name, g.field.Kind.Kind)
}

func findProperty(props []Property, name, condition string) int {
	for i, p := range props {
		src := ""
		if p.Condition != nil {
			src = p.Condition.Source
		}
		if p.Name == name && src == normalizeCondition(condition) {
			return i
		}
	}
	return -1
}

func findAnyProperty(props []Property, name string) int {
	for i, p := range props {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func normalizeCondition(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "{") && strings.HasSuffix(src, "}") {
		src = strings.TrimSpace(src[1 : len(src)-1])
	}
	return src
}

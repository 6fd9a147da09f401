package interpreter

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/ast"
)

var (
	referenceRe     = regexp.MustCompile(`^\*?\$[A-Za-z_][\w.#@-]*$`)
	callRe          = regexp.MustCompile(`(?s)^\$([A-Za-z_][\w.#-]*)\((.*)\)$`)
	interpolationRe = regexp.MustCompile(`\\?\$[A-Za-z_][\w.-]*`)
)

// propertyValueFromAST gives an untyped source value the expected kind.
func (d *TDoc) propertyValueFromAST(v ast.VariableValue, expected KindData, sc scope, mutable bool, line int) (PropertyValue, error) {
	switch x := v.(type) {
	case nil, *ast.None:
		if mutable {
			return PropertyValue{}, wrapError(MutationError, ErrNotMutable, d.Name, line, "a mutable binding needs a reference")
		}
		dv, err := expected.Kind.ToValue(line, d.Name)
		if err != nil {
			return PropertyValue{}, err
		}
		pv := Literal(dv, line)
		pv.Kind = expected.Kind
		return pv, nil
	case *ast.String:
		return d.propertyValueFromString(x.Value, x.Source, expected, sc, mutable, x.LineNumber)
	case *ast.List:
		return d.listFromAST(x, expected, sc, x.LineNumber)
	case *ast.Record:
		return d.recordValueFromAST(x, expected, sc, x.LineNumber)
	}
	return PropertyValue{}, newError(InterpreterError, d.Name, line, "unexpected value %T", v)
}

// propertyValueFromString reads a reference, clone, function call,
// interpolated string or literal.
func (d *TDoc) propertyValueFromString(text string, source ast.ValueSource, expected KindData, sc scope, mutable bool, line int) (PropertyValue, error) {
	t := strings.TrimSpace(text)
	switch {
	case sc.event && t == "$"+EventValue:
		return Reference(EventValue, expected.Kind, false, line), nil
	case callRe.MatchString(t):
		return d.functionCallFromString(t, expected, sc, mutable, line)
	case referenceRe.MatchString(t):
		return d.referenceFromString(t, expected, sc, mutable, line)
	}
	if mutable {
		return PropertyValue{}, wrapError(MutationError, ErrNotMutable, d.Name, line, "%q is not a reference to a mutable variable", t)
	}
	return d.literalFromString(text, source, expected, sc, line)
}

func (d *TDoc) referenceFromString(t string, expected KindData, sc scope, mutable bool, line int) (PropertyValue, error) {
	clone := strings.HasPrefix(t, "*")
	fq := d.scopedName(t, sc)
	found, refMutable, err := d.kindOf(fq, sc, line)
	if err != nil {
		return PropertyValue{}, err
	}
	if mutable && !refMutable {
		return PropertyValue{}, wrapError(MutationError, ErrNotMutable, d.Name, line, "%s is not mutable", fq)
	}
	if !expected.Kind.Accepts(found) {
		return PropertyValue{}, kindMismatch(d.Name, line, expected.Kind, found)
	}

	k := Unify(expected.Kind, found)
	if mutable {
		k = k.Reference()
	}
	pv := Reference(fq, k, mutable, line)
	if clone {
		pv.Type = ValueClone
		pv.Mutable = false
	}
	return pv, nil
}

// functionCallFromString reads `$f(a = $x, 2)`. Positional arguments map
// to the declared parameter order.
func (d *TDoc) functionCallFromString(t string, expected KindData, sc scope, mutable bool, line int) (PropertyValue, error) {
	m := callRe.FindStringSubmatch(t)
	th, _, err := d.SearchThing(d.ResolveName(m[1]), line)
	if err != nil {
		return PropertyValue{}, err
	}
	f, ok := th.(*Function)
	if !ok {
		return PropertyValue{}, newError(ResolutionError, d.Name, line, "%s is not a function", m[1])
	}
	rk := f.ReturnKind.Kind
	if expected.Kind.Tag != KindVoid && rk.Tag != KindVoid && !expected.Kind.Accepts(rk) {
		return PropertyValue{}, kindMismatch(d.Name, line, expected.Kind, rk)
	}
	if expected.Kind.Tag != KindVoid && expected.Kind.Tag != KindElement && rk.Tag == KindVoid {
		return PropertyValue{}, newError(KindError, d.Name, line, "%s returns nothing", f.Name)
	}

	pv := PropertyValue{Type: ValueFunctionCall, Name: f.Name, Kind: rk, Mutable: mutable, LineNumber: line}
	seen := make(map[string]bool)
	for i, raw := range splitArgs(m[2]) {
		key, value, named := cutAssignment(raw)
		if !named {
			if i >= len(f.Params) {
				return PropertyValue{}, newError(KindError, d.Name, line, "%s takes %d arguments", f.Name, len(f.Params))
			}
			key, value = f.Params[i], raw
		}
		argMutable := strings.HasPrefix(key, "$")
		key = strings.TrimPrefix(key, "$")
		field, ok := FieldByName(f.Arguments, key)
		if !ok {
			return PropertyValue{}, notFound(d.Name, line, f.Name+" argument "+key)
		}
		if seen[key] {
			return PropertyValue{}, newError(KindError, d.Name, line, "%s: argument %s given twice", f.Name, key)
		}
		seen[key] = true
		if field.Mutable && !argMutable {
			return PropertyValue{}, wrapError(MutationError, ErrNotMutable, d.Name, line, "%s: argument %s must be passed as $%s", f.Name, key, key)
		}
		apv, err := d.propertyValueFromString(unquote(value), ast.SourceHeader, field.Kind, sc, argMutable, line)
		if err != nil {
			return PropertyValue{}, err
		}
		pv.Args = append(pv.Args, FunctionArgument{Name: key, Value: apv})
	}
	for _, a := range f.Arguments {
		if !seen[a.Name] && a.IsRequired() {
			return PropertyValue{}, newError(KindError, d.Name, line, "%s: argument %s is missing", f.Name, a.Name)
		}
	}
	return pv, nil
}

// splitArgs splits on top-level commas.
func splitArgs(s string) []string {
	var out []string
	depth := 0
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(out) > 0 {
		out = append(out, last)
	}
	return out
}

// cutAssignment splits `key = value`, ignoring `==`.
func cutAssignment(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '=' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && (s[i-1] == '!' || s[i-1] == '<' || s[i-1] == '>') {
			continue
		}
		key := strings.TrimSpace(s[:i])
		if key == "" || strings.ContainsAny(key, " \"'") {
			return "", "", false
		}
		return key, strings.TrimSpace(s[i+1:]), true
	}
	return "", "", false
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		if u, err := strconv.Unquote(`"` + s[1:len(s)-1] + `"`); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

// literalFromString reads text as a value of the expected kind.
func (d *TDoc) literalFromString(text string, source ast.ValueSource, expected KindData, sc scope, line int) (PropertyValue, error) {
	k := expected.Kind
	t := strings.TrimSpace(text)

	literal := func(v Value) (PropertyValue, error) {
		pv := Literal(v, line)
		pv.Kind = k
		return pv, nil
	}

	switch k.Tag {
	case KindOptional:
		if t == "" || t == "NULL" {
			return literal(&NoneValue{Of: k})
		}
		pv, err := d.literalFromString(text, source, KindData{Kind: *k.Inner, Caption: expected.Caption, Body: expected.Body}, sc, line)
		if err != nil {
			return PropertyValue{}, err
		}
		if pv.IsLiteral() {
			pv.Kind = k
		}
		return pv, nil
	case KindString, KindElement:
		return d.interpolate(text, source, sc, line)
	case KindInteger, KindDecimal, KindBoolean:
		v, err := parseScalar(t, k, source)
		if err != nil {
			return PropertyValue{}, wrapError(KindError, ErrKindMismatch, d.Name, line, "%v", err)
		}
		return literal(v)
	case KindObject:
		return literal(&ObjectValue{Fields: map[string]PropertyValue{"value": Literal(&StringValue{Text: t, Source: source}, line)}})
	case KindRecord:
		r := &ast.Record{Caption: &ast.String{Value: text, Source: source, LineNumber: line}, LineNumber: line}
		return d.recordValueFromAST(r, expected, sc, line)
	case KindOrType, KindOrTypeVariant:
		return d.orTypeFromString(t, source, k, sc, line)
	case KindModule:
		module, ok := d.Aliases[t]
		if !ok {
			return PropertyValue{}, notFound(d.Name, line, "module "+t)
		}
		return literal(&ModuleValue{Name: module})
	case KindList, KindSubsectionUI:
		if k.ItemKind().IsUI() {
			return PropertyValue{}, newError(KindError, d.Name, line, "%s needs component sections, not text", k)
		}
		item, err := d.propertyValueFromString(text, source, KindData{Kind: k.ItemKind()}, sc, false, line)
		if err != nil {
			return PropertyValue{}, err
		}
		return literal(&ListValue{Items: []PropertyValue{item}, ItemKind: k.ItemKind()})
	case KindUI:
		return PropertyValue{}, newError(KindError, d.Name, line, "ftd.ui needs a component section, not text")
	}
	return PropertyValue{}, newError(KindError, d.Name, line, "%q cannot be read as %s", t, k)
}

// interpolate turns `Hello, $name!` into a call of the interpolate
// builtin. `\$` is a literal dollar; a `$word` that names nothing is
// kept as text.
func (d *TDoc) interpolate(text string, source ast.ValueSource, sc scope, line int) (PropertyValue, error) {
	var args []FunctionArgument
	var lit strings.Builder
	flush := func() {
		if lit.Len() == 0 {
			return
		}
		args = append(args, FunctionArgument{
			Name:  strconv.Itoa(len(args)),
			Value: Literal(&StringValue{Text: lit.String(), Source: source}, line),
		})
		lit.Reset()
	}

	prev := 0
	dynamic := false
	for _, loc := range interpolationRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start < prev {
			continue
		}
		lit.WriteString(text[prev:start])
		if text[start] == '\\' {
			lit.WriteString(text[start+1 : end])
			prev = end
			continue
		}
		name := strings.TrimRight(text[start+1:end], ".-")
		end = start + 1 + len(name)

		fq := d.scopedName(name, sc)
		k, _, err := d.kindOf(fq, sc, line)
		if errors.Is(err, ErrNotFound) {
			lit.WriteString(text[start:end])
			prev = end
			continue
		}
		if err != nil {
			return PropertyValue{}, err
		}
		flush()
		args = append(args, FunctionArgument{Name: strconv.Itoa(len(args)), Value: Reference(fq, k, false, line)})
		dynamic = true
		prev = end
	}
	lit.WriteString(text[prev:])

	if !dynamic {
		return Literal(&StringValue{Text: lit.String(), Source: source}, line), nil
	}
	flush()
	return PropertyValue{Type: ValueFunctionCall, Name: InterpolateFunction, Kind: StringKind(), Args: args, LineNumber: line}, nil
}

// orTypeFromString reads a variant name such as `fill-container`, or the
// value of a single-field variant when the kind names one.
func (d *TDoc) orTypeFromString(t string, source ast.ValueSource, k Kind, sc scope, line int) (PropertyValue, error) {
	o, err := d.orType(k.Name, line)
	if err != nil {
		return PropertyValue{}, err
	}
	if k.Variant != "" {
		r := &ast.Record{Caption: &ast.String{Value: t, Source: source, LineNumber: line}, LineNumber: line}
		return d.variantValue(o, k.Variant, r, sc, line)
	}
	if _, ok := o.Variant(t); !ok {
		return PropertyValue{}, wrapError(KindError, ErrVariantNotFound, d.Name, line, "%s has no variant %q", o.Name, t)
	}
	return d.variantValue(o, t, &ast.Record{LineNumber: line}, sc, line)
}

func (d *TDoc) variantValue(o *OrType, variant string, r *ast.Record, sc scope, line int) (PropertyValue, error) {
	rec, ok := o.Variant(variant)
	if !ok {
		return PropertyValue{}, wrapError(KindError, ErrVariantNotFound, d.Name, line, "%s has no variant %q", o.Name, variant)
	}
	fields, err := d.recordFields(r, rec, sc, line)
	if err != nil {
		return PropertyValue{}, err
	}
	return Literal(&OrTypeValue{Name: o.Name, Variant: variant, Fields: fields}, line), nil
}

func (d *TDoc) listFromAST(l *ast.List, expected KindData, sc scope, line int) (PropertyValue, error) {
	k := expected.Kind.InnerKind()
	if !k.IsList() {
		return PropertyValue{}, newError(KindError, d.Name, line, "a list cannot be used as %s", expected.Kind)
	}
	item := k.ItemKind()
	list := &ListValue{ItemKind: item}
	for _, it := range l.Items {
		pv, err := d.listItem(it.Value, item, sc, line)
		if err != nil {
			return PropertyValue{}, err
		}
		list.Items = append(list.Items, pv)
	}
	pv := Literal(list, line)
	pv.Kind = expected.Kind
	return pv, nil
}

func (d *TDoc) listItem(v ast.VariableValue, item Kind, sc scope, line int) (PropertyValue, error) {
	r, ok := v.(*ast.Record)
	if !ok {
		return d.propertyValueFromAST(v, KindData{Kind: item}, sc, false, line)
	}
	if item.IsUI() {
		c, err := d.componentFromSection(r, sc)
		if err != nil {
			return PropertyValue{}, err
		}
		return Literal(&UIValue{Name: c.Name, Component: c}, r.LineNumber), nil
	}
	if item.Tag == KindRecord && r.Name != "" && d.ResolveName(r.Name) != item.Name {
		return PropertyValue{}, newError(KindError, d.Name, r.LineNumber, "list of %s cannot hold %s", item, r.Name)
	}
	return d.recordValueFromAST(r, KindData{Kind: item}, sc, r.LineNumber)
}

// recordValueFromAST converts a structured value: a record, an or-type,
// UI sections, an object or a list given as child sections.
func (d *TDoc) recordValueFromAST(r *ast.Record, expected KindData, sc scope, line int) (PropertyValue, error) {
	k := expected.Kind.InnerKind()
	withKind := func(v Value) PropertyValue {
		pv := Literal(v, line)
		pv.Kind = expected.Kind
		return pv
	}

	switch k.Tag {
	case KindRecord:
		rec, err := d.record(k.Name, line)
		if err != nil {
			return PropertyValue{}, err
		}
		fields, err := d.recordFields(r, rec, sc, line)
		if err != nil {
			return PropertyValue{}, err
		}
		return withKind(&RecordValue{Name: rec.Name, Fields: fields}), nil

	case KindOrType, KindOrTypeVariant:
		o, err := d.orType(k.Name, line)
		if err != nil {
			return PropertyValue{}, err
		}
		variant := k.Variant
		src := r
		if variant == "" {
			switch {
			case len(r.Headers) == 1 && r.Caption == nil && len(r.Children) == 0:
				h := r.Headers[0]
				if _, ok := o.Variant(h.Key); ok {
					variant = h.Key
					s, _ := h.Value.(*ast.String)
					src = &ast.Record{Caption: s, LineNumber: h.LineNumber}
				}
			case r.Name != "":
				short := r.Name
				if i := strings.LastIndex(short, "."); i >= 0 {
					short = short[i+1:]
				}
				if _, ok := o.Variant(short); ok {
					variant = short
				}
			}
		}
		if variant == "" {
			return PropertyValue{}, newError(KindError, d.Name, line, "cannot tell which variant of %s is meant", o.Name)
		}
		pv, err := d.variantValue(o, variant, src, sc, line)
		if err != nil {
			return PropertyValue{}, err
		}
		pv.Kind = expected.Kind
		return pv, nil

	case KindUI:
		children := r.Children
		if len(children) != 1 {
			return PropertyValue{}, newError(KindError, d.Name, line, "ftd.ui takes exactly one component section, found %d", len(children))
		}
		c, err := d.componentFromSection(children[0], sc)
		if err != nil {
			return PropertyValue{}, err
		}
		return withKind(&UIValue{Name: c.Name, Component: c}), nil

	case KindSubsectionUI, KindList:
		if len(r.Headers) > 0 && len(r.Children) > 0 {
			return PropertyValue{}, newError(KindError, d.Name, line, "list takes header items or subsection items, not both")
		}
		list := &ListValue{ItemKind: k.ItemKind()}
		for _, h := range r.Headers {
			pv, err := d.listItem(h.Value, list.ItemKind, sc, h.LineNumber)
			if err != nil {
				return PropertyValue{}, err
			}
			list.Items = append(list.Items, pv)
		}
		for _, child := range r.Children {
			pv, err := d.listItem(child, list.ItemKind, sc, child.LineNumber)
			if err != nil {
				return PropertyValue{}, err
			}
			list.Items = append(list.Items, pv)
		}
		return withKind(list), nil

	case KindObject, KindElement:
		obj, err := d.objectFromAST(r, sc, line)
		if err != nil {
			return PropertyValue{}, err
		}
		return withKind(obj), nil

	case KindString:
		if r.Caption != nil && r.Body != nil && len(r.Headers) == 0 && len(r.Children) == 0 {
			return PropertyValue{}, newError(KindError, d.Name, line, "a string takes a caption or a body, not both")
		}
	}
	return PropertyValue{}, newError(KindError, d.Name, line, "%s cannot take headers or sections", expected.Kind)
}

func (d *TDoc) objectFromAST(r *ast.Record, sc scope, line int) (*ObjectValue, error) {
	obj := &ObjectValue{Fields: make(map[string]PropertyValue)}
	if r.Caption != nil {
		obj.Fields["caption"] = Literal(&StringValue{Text: r.Caption.Value, Source: ast.SourceCaption}, line)
	}
	if r.Body != nil {
		obj.Fields["body"] = Literal(&StringValue{Text: r.Body.Value, Source: ast.SourceBody}, line)
	}
	for _, h := range r.Headers {
		pv, err := d.propertyValueFromAST(h.Value, KindData{Kind: ElementKind()}, sc, false, h.LineNumber)
		if err != nil {
			return nil, err
		}
		obj.Fields[h.Key] = pv
	}
	for _, child := range r.Children {
		nested, err := d.objectFromAST(child, sc, child.LineNumber)
		if err != nil {
			return nil, err
		}
		obj.Fields[child.Name] = Literal(nested, child.LineNumber)
	}
	return obj, nil
}

// recordFields fills the fields of rec from a structured value. Missing
// fields take their default, optional fields none and lists the empty
// list; anything else missing is an error.
func (d *TDoc) recordFields(r *ast.Record, rec *Record, sc scope, line int) (map[string]PropertyValue, error) {
	fields := make(map[string]PropertyValue, len(rec.Fields))
	set := func(f Field, pv PropertyValue, item bool, at int) error {
		if item {
			current, ok := fields[f.Name]
			if !ok {
				current = Literal(&ListValue{ItemKind: f.Kind.Kind.ItemKind()}, at)
				current.Kind = f.Kind.Kind
			}
			list, ok := current.Value.(*ListValue)
			if !current.IsLiteral() || !ok {
				return newError(KindError, d.Name, at, "%s: field %s given twice", rec.Name, f.Name)
			}
			list.Items = append(list.Items, pv)
			fields[f.Name] = current
			return nil
		}
		if _, dup := fields[f.Name]; dup {
			return newError(KindError, d.Name, at, "%s: field %s given twice", rec.Name, f.Name)
		}
		fields[f.Name] = pv
		return nil
	}

	if r.Caption != nil {
		f, ok := captionField(rec.Fields)
		if !ok {
			return nil, newError(KindError, d.Name, line, "%s does not take a caption", rec.Name)
		}
		pv, item, err := d.valueOrItem(r.Caption, f, sc, false)
		if err != nil {
			return nil, err
		}
		if err := set(f, pv, item, r.Caption.LineNumber); err != nil {
			return nil, err
		}
	}
	if r.Body != nil {
		f, ok := bodyField(rec.Fields)
		if !ok {
			return nil, newError(KindError, d.Name, line, "%s does not take a body", rec.Name)
		}
		pv, item, err := d.valueOrItem(r.Body, f, sc, false)
		if err != nil {
			return nil, err
		}
		if err := set(f, pv, item, r.Body.LineNumber); err != nil {
			return nil, err
		}
	}
	for _, h := range r.Headers {
		if h.Condition != "" {
			return nil, newError(KindError, d.Name, h.LineNumber, "%s: field %s cannot be conditional", rec.Name, h.Key)
		}
		f, ok := FieldByName(rec.Fields, h.Key)
		if !ok {
			return nil, wrapError(KindError, ErrNotFound, d.Name, h.LineNumber, "%s has no field %s", rec.Name, h.Key)
		}
		pv, item, err := d.valueOrItem(h.Value, f, sc, h.Mutable)
		if err != nil {
			return nil, err
		}
		if err := set(f, pv, item, h.LineNumber); err != nil {
			return nil, err
		}
	}
	for _, child := range r.Children {
		name := child.Name
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		f, ok := FieldByName(rec.Fields, name)
		if !ok {
			return nil, wrapError(KindError, ErrNotFound, d.Name, child.LineNumber, "%s has no field %s", rec.Name, name)
		}
		pv, err := d.recordValueFromAST(child, f.Kind, sc, child.LineNumber)
		if err != nil {
			return nil, err
		}
		if err := set(f, pv, false, child.LineNumber); err != nil {
			return nil, err
		}
	}

	for _, f := range rec.Fields {
		if _, ok := fields[f.Name]; ok {
			continue
		}
		switch {
		case f.Default != nil:
			fields[f.Name] = f.Default.Copy()
		case !f.IsRequired():
			dv, err := f.Kind.Kind.ToValue(line, d.Name)
			if err != nil {
				return nil, err
			}
			pv := Literal(dv, line)
			pv.Kind = f.Kind.Kind
			fields[f.Name] = pv
		default:
			return nil, wrapError(KindError, ErrNotFound, d.Name, line, "%s: field %s is missing", rec.Name, f.Name)
		}
	}
	return fields, nil
}

// valueOrItem converts a value for field f. For list fields a plain
// reference binds the whole list and anything else is one item.
func (d *TDoc) valueOrItem(v ast.VariableValue, f Field, sc scope, mutable bool) (PropertyValue, bool, error) {
	k := f.Kind.Kind
	if !k.InnerKind().IsList() {
		pv, err := d.propertyValueFromAST(v, f.Kind, sc, mutable, v.Line())
		return pv, false, err
	}
	if s, ok := v.(*ast.String); ok && referenceRe.MatchString(strings.TrimSpace(s.Value)) {
		pv, err := d.propertyValueFromAST(v, f.Kind, sc, mutable, v.Line())
		return pv, false, err
	}
	if _, ok := v.(*ast.String); !ok {
		pv, err := d.propertyValueFromAST(v, f.Kind, sc, mutable, v.Line())
		return pv, false, err
	}
	pv, err := d.propertyValueFromAST(v, KindData{Kind: k.InnerKind().ItemKind()}, sc, false, v.Line())
	return pv, true, err
}

package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/expr"
)

// InterpolateFunction is the builtin behind `Hello, $name` strings. Its
// arguments are the literal and referenced parts in order.
const InterpolateFunction = KernelModule + "#interpolate"

// EventValue is the name `$VALUE` binds to inside event actions.
const EventValue = "VALUE"

func (d *TDoc) call(pv PropertyValue, line int) (Value, error) {
	if pv.Name == InterpolateFunction {
		var sb strings.Builder
		for _, a := range pv.Args {
			g, err := d.ResolveToGo(a.Value, line)
			if err != nil {
				return nil, err
			}
			sb.WriteString(expr.Format(g))
		}
		return &StringValue{Text: sb.String(), Source: ast.SourceDefault}, nil
	}

	t, _, err := d.SearchThing(pv.Name, line)
	if err != nil {
		return nil, err
	}
	f, ok := t.(*Function)
	if !ok {
		return nil, newError(ResolutionError, d.Name, line, "%s is not a function", pv.Name)
	}
	if f.IsForeign() {
		return nil, newError(InterpreterError, d.Name, line, "%s is implemented in %s and cannot run here", f.Name, f.JS)
	}

	env := &functionEnv{doc: d, args: make(map[string]PropertyValue, len(f.Arguments)), line: line}
	for _, a := range f.Arguments {
		if v, ok := pv.Arg(a.Name); ok {
			env.args[a.Name] = v
			continue
		}
		if a.Default != nil {
			env.args[a.Name] = *a.Default
			continue
		}
		env.args[a.Name] = Literal(&NoneValue{Of: a.Kind.Kind}, line)
	}

	result, err := expr.ExecBlock(f.Body, env)
	if err != nil {
		if e, ok := err.(*Error); ok {
			return nil, e
		}
		return nil, newError(InterpreterError, d.Name, line, "%s: %v", f.Name, err)
	}
	if f.ReturnKind.Kind.Tag == KindVoid {
		return &NoneValue{Of: VoidKind()}, nil
	}
	return d.ValueFromGo(result, f.ReturnKind.Kind, line)
}

// functionEnv evaluates a function body. Argument names resolve to the
// call's arguments; anything else is a fully qualified variable.
type functionEnv struct {
	doc  *TDoc
	args map[string]PropertyValue
	line int
}

func (e *functionEnv) Lookup(name string) (any, error) {
	head, rest, _ := strings.Cut(name, ".")
	if pv, ok := e.args[head]; ok {
		v, err := e.doc.Resolve(pv, e.line)
		if err != nil {
			return nil, err
		}
		if v, err = e.doc.descend(v, rest, e.line); err != nil {
			return nil, err
		}
		return e.doc.ToGo(v, e.line)
	}
	return e.doc.ResolveToGo(Reference(name, ElementKind(), false, e.line), e.line)
}

func (e *functionEnv) Assign(name string, value any) error {
	head, rest, _ := strings.Cut(name, ".")
	pv, ok := e.args[head]
	if !ok {
		return newError(MutationError, e.doc.Name, e.line, "only arguments can be assigned, not %s", name)
	}
	if !pv.IsReference() {
		return wrapError(MutationError, ErrNotMutable, e.doc.Name, e.line, "argument %s is not bound to a mutable variable", head)
	}
	target := pv.Name
	kind := pv.Kind
	if rest != "" {
		target += "." + rest
		current, err := e.doc.ValueOf(target, e.line)
		if err != nil {
			return err
		}
		kind = current.Kind()
	}
	v, err := e.doc.ValueFromGo(value, kind, e.line)
	if err != nil {
		return err
	}
	return e.doc.SetValue(target, v, e.line)
}

// ValueFromGo converts plain Go data, as decoded from YAML or JSON or
// produced by an expression, into a value of kind k. Element and object
// kinds infer the shape from the data.
func (d *TDoc) ValueFromGo(v any, k Kind, line int) (Value, error) {
	fail := func() (Value, error) {
		return nil, wrapError(KindError, ErrKindMismatch, d.Name, line, "cannot use %v (%T) as %s", v, v, k)
	}

	switch k.Tag {
	case KindOptional:
		if v == nil {
			return &NoneValue{Of: k}, nil
		}
		return d.ValueFromGo(v, *k.Inner, line)
	case KindElement, KindObject:
		return d.inferValue(v, k, line)
	}
	if v == nil {
		if k.Tag == KindList {
			return &ListValue{ItemKind: *k.Inner}, nil
		}
		return fail()
	}

	switch k.Tag {
	case KindString:
		switch x := v.(type) {
		case string:
			return &StringValue{Text: x, Source: ast.SourceDefault}, nil
		case bool, int, int64, float64:
			return &StringValue{Text: expr.Format(normalizeNumber(x)), Source: ast.SourceDefault}, nil
		}
	case KindInteger:
		switch x := normalizeNumber(v).(type) {
		case int64:
			return &IntegerValue{Value: x}, nil
		case float64:
			if x == math.Trunc(x) {
				return &IntegerValue{Value: int64(x)}, nil
			}
		case string:
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return &IntegerValue{Value: n}, nil
			}
		}
	case KindDecimal:
		switch x := normalizeNumber(v).(type) {
		case int64:
			return &DecimalValue{Value: float64(x)}, nil
		case float64:
			return &DecimalValue{Value: x}, nil
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return &DecimalValue{Value: f}, nil
			}
		}
	case KindBoolean:
		switch x := v.(type) {
		case bool:
			return &BooleanValue{Value: x}, nil
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return &BooleanValue{Value: b}, nil
			}
		}
	case KindList:
		items, ok := v.([]any)
		if !ok {
			return fail()
		}
		list := &ListValue{ItemKind: *k.Inner}
		for _, item := range items {
			iv, err := d.ValueFromGo(item, *k.Inner, line)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, Literal(iv, line))
		}
		return list, nil
	case KindRecord:
		m, ok := asStringMap(v)
		if !ok {
			return fail()
		}
		t, _, err := d.GetThing(k.Name, line)
		if err != nil {
			return nil, err
		}
		rec, ok := t.(*Record)
		if !ok {
			return nil, newError(KindError, d.Name, line, "%s is not a record", k.Name)
		}
		fields, err := d.fieldsFromGo(m, rec, line)
		if err != nil {
			return nil, err
		}
		return &RecordValue{Name: rec.Name, Fields: fields}, nil
	case KindOrType, KindOrTypeVariant:
		return d.orTypeFromGo(v, k, line)
	}
	return fail()
}

func (d *TDoc) fieldsFromGo(m map[string]any, rec *Record, line int) (map[string]PropertyValue, error) {
	fields := make(map[string]PropertyValue, len(rec.Fields))
	for key := range m {
		if key == VariantKey {
			continue
		}
		if _, ok := FieldByName(rec.Fields, key); !ok {
			return nil, newError(KindError, d.Name, line, "%s has no field %s", rec.Name, key)
		}
	}
	for _, f := range rec.Fields {
		raw, present := m[f.Name]
		switch {
		case present:
			fv, err := d.ValueFromGo(raw, f.Kind.Kind, line)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = Literal(fv, line)
		case f.Default != nil:
			fields[f.Name] = f.Default.Copy()
		case !f.IsRequired():
			dv, err := f.Kind.Kind.ToValue(line, d.Name)
			if err != nil {
				return nil, err
			}
			fields[f.Name] = Literal(dv, line)
		default:
			return nil, newError(KindError, d.Name, line, "%s: field %s is missing", rec.Name, f.Name)
		}
	}
	return fields, nil
}

// orTypeFromGo accepts a variant name, or a map carrying VariantKey.
func (d *TDoc) orTypeFromGo(v any, k Kind, line int) (Value, error) {
	t, _, err := d.GetThing(k.Name, line)
	if err != nil {
		return nil, err
	}
	o, ok := t.(*OrType)
	if !ok {
		return nil, newError(KindError, d.Name, line, "%s is not an or-type", k.Name)
	}

	variantName := k.Variant
	m, isMap := asStringMap(v)
	if s, ok := v.(string); ok && variantName == "" {
		variantName = s
		m = map[string]any{}
	} else if isMap && variantName == "" {
		name, _ := m[VariantKey].(string)
		variantName = name
	} else if !isMap {
		m = map[string]any{"value": v}
	}

	variant, ok := o.Variant(variantName)
	if !ok {
		return nil, wrapError(KindError, ErrVariantNotFound, d.Name, line, "%s has no variant %q", o.Name, variantName)
	}
	fields, err := d.fieldsFromGo(m, variant, line)
	if err != nil {
		return nil, err
	}
	return &OrTypeValue{Name: o.Name, Variant: variantName, Fields: fields}, nil
}

func (d *TDoc) inferValue(v any, k Kind, line int) (Value, error) {
	switch x := normalizeNumber(v).(type) {
	case nil:
		return &NoneValue{Of: k}, nil
	case string:
		return &StringValue{Text: x, Source: ast.SourceDefault}, nil
	case int64:
		return &IntegerValue{Value: x}, nil
	case float64:
		return &DecimalValue{Value: x}, nil
	case bool:
		return &BooleanValue{Value: x}, nil
	case []any:
		list := &ListValue{ItemKind: ElementKind()}
		for i, item := range x {
			iv, err := d.inferValue(item, ElementKind(), line)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				list.ItemKind = iv.Kind()
			}
			list.Items = append(list.Items, Literal(iv, line))
		}
		return list, nil
	}
	if m, ok := asStringMap(v); ok {
		obj := &ObjectValue{Fields: make(map[string]PropertyValue, len(m))}
		for key, raw := range m {
			fv, err := d.inferValue(raw, ElementKind(), line)
			if err != nil {
				return nil, err
			}
			obj.Fields[key] = Literal(fv, line)
		}
		return obj, nil
	}
	return nil, newError(KindError, d.Name, line, "cannot convert %T to a value", v)
}

// normalizeNumber widens Go integer and float types to int64 and float64.
func normalizeNumber(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

func asStringMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

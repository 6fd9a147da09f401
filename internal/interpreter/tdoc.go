package interpreter

import (
	"errors"
	"strconv"
	"strings"
)

// TDoc is the view of the bag from one document: its name and alias
// table. During interpretation it also reaches the driver so lookups can
// convert pending declarations or suspend.
type TDoc struct {
	Name    string
	Aliases map[string]string
	Bag     *Bag
	state   *State
}

// NewTDoc creates a document view. The ftd alias is always present.
func NewTDoc(name string, aliases map[string]string, bag *Bag) *TDoc {
	a := make(map[string]string, len(aliases)+1)
	for k, v := range aliases {
		a[k] = v
	}
	a[KernelModule] = KernelModule
	return &TDoc{Name: name, Aliases: a, Bag: bag}
}

// ResolveName qualifies name through the alias table: `ftd.text` becomes
// `ftd#text`, `x` becomes `<doc>#x`. Qualified names are returned as is.
func (d *TDoc) ResolveName(name string) string {
	name = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(name), "*"), "$")
	if strings.Contains(name, "#") {
		return name
	}
	if head, rest, ok := strings.Cut(name, "."); ok {
		if module, ok := d.Aliases[head]; ok {
			return module + "#" + rest
		}
	}
	return d.Name + "#" + name
}

// GetThing looks name up and returns the thing with any remaining dotted
// path. An or-type followed by a variant name yields the variant.
func (d *TDoc) GetThing(name string, line int) (Thing, string, error) {
	fq := d.ResolveName(name)
	t, rest, ok := d.Bag.Lookup(fq)
	if !ok {
		return nil, "", notFound(d.Name, line, fq)
	}
	if o, ok := t.(*OrType); ok && rest != "" {
		seg, after, _ := strings.Cut(rest, ".")
		variant, ok := o.Variant(seg)
		if !ok {
			return nil, "", wrapError(ResolutionError, ErrVariantNotFound, d.Name, line, "%s has no variant %s", o.Name, seg)
		}
		return &OrTypeVariant{OrType: o, Variant: variant}, after, nil
	}
	return t, rest, nil
}

// SearchThing is GetThing that, during interpretation, may convert a
// declaration later in the same document or suspend on an import or a
// foreign variable.
func (d *TDoc) SearchThing(name string, line int) (Thing, string, error) {
	t, rest, err := d.GetThing(name, line)
	if err == nil || d.state == nil || errors.Is(err, ErrVariantNotFound) {
		return t, rest, err
	}
	fq := d.ResolveName(name)
	if err := d.state.search(fq, line); err != nil {
		return nil, "", err
	}
	return d.GetThing(fq, line)
}

// Resolve evaluates a property value.
func (d *TDoc) Resolve(pv PropertyValue, line int) (Value, error) {
	switch pv.Type {
	case ValueLiteral:
		if pv.Value == nil {
			return &NoneValue{Of: pv.Kind}, nil
		}
		return pv.Value, nil
	case ValueReference, ValueClone:
		v, err := d.ValueOf(pv.Name, line)
		if err != nil {
			return nil, err
		}
		if pv.Type == ValueClone {
			v = renameValue(v, func(s string) string { return s })
		}
		return v, nil
	case ValueFunctionCall:
		return d.call(pv, line)
	}
	return nil, newError(InterpreterError, d.Name, line, "unknown property value")
}

// ResolveToGo evaluates a property value to plain Go data.
func (d *TDoc) ResolveToGo(pv PropertyValue, line int) (any, error) {
	v, err := d.Resolve(pv, line)
	if err != nil {
		return nil, err
	}
	return d.ToGo(v, line)
}

// ValueOf reads a variable, following dotted paths into its value.
func (d *TDoc) ValueOf(name string, line int) (Value, error) {
	t, rest, err := d.SearchThing(name, line)
	if err != nil {
		return nil, err
	}
	v, ok := t.(*Variable)
	if !ok {
		return nil, newError(ResolutionError, d.Name, line, "%s is not a variable", d.ResolveName(name))
	}
	pv, err := d.VariableValue(v)
	if err != nil {
		return nil, err
	}
	val, err := d.Resolve(pv, line)
	if err != nil {
		return nil, err
	}
	return d.descend(val, rest, line)
}

// VariableValue picks the first conditional value whose condition holds,
// or the primary value.
func (d *TDoc) VariableValue(v *Variable) (PropertyValue, error) {
	for _, cv := range v.Conditional {
		ok, err := cv.Condition.Eval(d)
		if err != nil {
			return PropertyValue{}, err
		}
		if ok {
			return cv.Value, nil
		}
	}
	return v.Value, nil
}

func (d *TDoc) descend(v Value, path string, line int) (Value, error) {
	if path == "" {
		return v, nil
	}
	seg, rest, _ := strings.Cut(path, ".")

	var fields map[string]PropertyValue
	switch x := v.(type) {
	case *NoneValue:
		return x, nil
	case *RecordValue:
		fields = x.Fields
	case *OrTypeValue:
		fields = x.Fields
	case *ObjectValue:
		fields = x.Fields
	case *ListValue:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(x.Items) {
			return nil, notFound(d.Name, line, "list index "+seg)
		}
		item, err := d.Resolve(x.Items[i], line)
		if err != nil {
			return nil, err
		}
		return d.descend(item, rest, line)
	default:
		return nil, newError(ResolutionError, d.Name, line, "cannot read %s of %s", seg, v.Kind())
	}

	f, ok := fields[seg]
	if !ok {
		return nil, notFound(d.Name, line, "field "+seg)
	}
	fv, err := d.Resolve(f, line)
	if err != nil {
		return nil, err
	}
	return d.descend(fv, rest, line)
}

// ToGo converts a value to plain Go data for expression evaluation and
// the page-side data map.
func (d *TDoc) ToGo(v Value, line int) (any, error) {
	switch x := v.(type) {
	case nil, *NoneValue:
		return nil, nil
	case *StringValue:
		return x.Text, nil
	case *IntegerValue:
		return x.Value, nil
	case *DecimalValue:
		return x.Value, nil
	case *BooleanValue:
		return x.Value, nil
	case *ModuleValue:
		return x.Name, nil
	case *UIValue:
		if x.Component == nil {
			return nil, nil
		}
		return x.Component.Name, nil
	case *ListValue:
		out := make([]any, 0, len(x.Items))
		for _, item := range x.Items {
			g, err := d.ResolveToGo(item, line)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	case *RecordValue:
		return d.fieldsToGo(x.Fields, line)
	case *ObjectValue:
		return d.fieldsToGo(x.Fields, line)
	case *OrTypeValue:
		m, err := d.fieldsToGo(x.Fields, line)
		if err != nil {
			return nil, err
		}
		m[VariantKey] = x.Variant
		return m, nil
	}
	return nil, newError(InterpreterError, d.Name, line, "cannot convert %T", v)
}

// VariantKey holds the variant name when an or-type value is converted
// to a map.
const VariantKey = "$variant"

func (d *TDoc) fieldsToGo(fields map[string]PropertyValue, line int) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, f := range fields {
		g, err := d.ResolveToGo(f, line)
		if err != nil {
			return nil, err
		}
		out[k] = g
	}
	return out, nil
}

// SetValue writes v to a mutable variable or a path inside one.
// References are followed to the variable they point at.
func (d *TDoc) SetValue(name string, v Value, line int) error {
	fq := d.ResolveName(name)
	t, rest, err := d.GetThing(fq, line)
	if err != nil {
		return err
	}
	variable, ok := t.(*Variable)
	if !ok {
		return wrapError(MutationError, ErrNotMutable, d.Name, line, "%s is not a variable", fq)
	}
	if !variable.Mutable {
		return wrapError(MutationError, ErrNotMutable, d.Name, line, "%s is not mutable", variable.Name)
	}
	if rest == "" && !variable.Value.IsReference() {
		variable.Conditional = nil
	}
	return d.setPath(&variable.Value, variable.Kind, rest, v, line)
}

func (d *TDoc) setPath(pv *PropertyValue, kind Kind, path string, v Value, line int) error {
	if pv.IsReference() {
		target := pv.Name
		if path != "" {
			target += "." + path
		}
		return d.SetValue(target, v, line)
	}

	if path == "" {
		if !kind.Accepts(v.Kind()) && !(kind.IsOptional() && IsNone(v)) {
			return wrapError(MutationError, ErrKindMismatch, d.Name, line, "cannot set %s to %s", kind, v.Kind())
		}
		*pv = Literal(v, line)
		pv.Kind = kind
		return nil
	}

	seg, rest, _ := strings.Cut(path, ".")
	var fields map[string]PropertyValue
	switch x := pv.Value.(type) {
	case *RecordValue:
		fields = x.Fields
	case *OrTypeValue:
		fields = x.Fields
	case *ObjectValue:
		fields = x.Fields
	case *ListValue:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(x.Items) {
			return notFound(d.Name, line, "list index "+seg)
		}
		item := x.Items[i]
		if err := d.setPath(&item, item.Kind, rest, v, line); err != nil {
			return err
		}
		x.Items[i] = item
		return nil
	default:
		return wrapError(MutationError, ErrNotFound, d.Name, line, "cannot set %s inside %s", seg, pv.Kind)
	}

	f, ok := fields[seg]
	if !ok {
		return notFound(d.Name, line, "field "+seg)
	}
	if err := d.setPath(&f, f.Kind, rest, v, line); err != nil {
		return err
	}
	fields[seg] = f
	return nil
}

// IsStatic reports whether the variable behind name can never change.
func (d *TDoc) IsStatic(name string) bool {
	t, _, ok := d.Bag.Lookup(d.ResolveName(name))
	if !ok {
		return false
	}
	v, ok := t.(*Variable)
	return ok && v.IsStatic
}

// IsStaticValue reports whether every name pv reads is static.
func (d *TDoc) IsStaticValue(pv PropertyValue) bool {
	for _, name := range pv.References() {
		if !d.IsStatic(name) {
			return false
		}
	}
	return true
}

// RootOf splits a name into the variable that holds it and the path
// inside that variable's value.
func (d *TDoc) RootOf(name string) (string, string) {
	fq := d.ResolveName(name)
	doc, local := SplitName(fq)
	segs := strings.Split(local, ".")
	for i := len(segs); i >= 1; i-- {
		key := doc + "#" + strings.Join(segs[:i], ".")
		if _, ok := d.Bag.Get(key); ok {
			return key, strings.Join(segs[i:], ".")
		}
	}
	return fq, ""
}

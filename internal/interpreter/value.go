package interpreter

import (
	"fmt"
	"strconv"

	"github.com/saltyorg/ftd/internal/ast"
)

// Value is an evaluated value.
type Value interface {
	Kind() Kind
	isValue()
}

// NoneValue is the absent value of an optional kind.
type NoneValue struct {
	Of Kind
}

// StringValue is text plus where it was read from.
type StringValue struct {
	Text   string
	Source ast.ValueSource
}

type IntegerValue struct {
	Value int64
}

type DecimalValue struct {
	Value float64
}

type BooleanValue struct {
	Value bool
}

// ObjectValue is an untyped key/value bag, typically processor output.
type ObjectValue struct {
	Fields map[string]PropertyValue
}

// RecordValue is an instance of a record; Fields has exactly the
// record's field names as keys.
type RecordValue struct {
	Name   string
	Fields map[string]PropertyValue
}

// OrTypeValue is an or-type instance tagged with its variant.
type OrTypeValue struct {
	Name    string
	Variant string
	Fields  map[string]PropertyValue
}

type ListValue struct {
	Items    []PropertyValue
	ItemKind Kind
}

// UIValue is a component held in a variable or argument.
type UIValue struct {
	Name      string
	Component *Component
}

// ModuleValue names an imported document.
type ModuleValue struct {
	Name string
}

func (v *NoneValue) Kind() Kind     { return v.Of }
func (v *StringValue) Kind() Kind   { return StringKind() }
func (v *IntegerValue) Kind() Kind  { return IntegerKind() }
func (v *DecimalValue) Kind() Kind  { return DecimalKind() }
func (v *BooleanValue) Kind() Kind  { return BooleanKind() }
func (v *ObjectValue) Kind() Kind   { return ObjectKind() }
func (v *RecordValue) Kind() Kind   { return RecordKind(v.Name) }
func (v *OrTypeValue) Kind() Kind   { return OrTypeVariantKind(v.Name, v.Variant) }
func (v *ListValue) Kind() Kind     { return ListOf(v.ItemKind) }
func (v *UIValue) Kind() Kind       { return UIKind() }
func (v *ModuleValue) Kind() Kind   { return ModuleKind() }
func (*NoneValue) isValue()         {}
func (*StringValue) isValue()       {}
func (*IntegerValue) isValue()      {}
func (*DecimalValue) isValue()      {}
func (*BooleanValue) isValue()      {}
func (*ObjectValue) isValue()       {}
func (*RecordValue) isValue()       {}
func (*OrTypeValue) isValue()       {}
func (*ListValue) isValue()         {}
func (*UIValue) isValue()           {}
func (*ModuleValue) isValue()       {}

// IsNone reports whether v is absent.
func IsNone(v Value) bool {
	_, ok := v.(*NoneValue)
	return v == nil || ok
}

// ToValue returns the default value of a kind: empty string, zero,
// false, empty list, or none.
func (k Kind) ToValue(line int, docID string) (Value, error) {
	switch k.Tag {
	case KindString:
		return &StringValue{Source: ast.SourceDefault}, nil
	case KindInteger:
		return &IntegerValue{}, nil
	case KindDecimal:
		return &DecimalValue{}, nil
	case KindBoolean:
		return &BooleanValue{}, nil
	case KindList:
		return &ListValue{ItemKind: *k.Inner}, nil
	case KindSubsectionUI:
		return &ListValue{ItemKind: UIKind()}, nil
	case KindObject:
		return &ObjectValue{Fields: map[string]PropertyValue{}}, nil
	case KindOptional, KindRecord, KindOrType, KindOrTypeVariant, KindUI, KindElement, KindModule, KindVoid:
		return &NoneValue{Of: k}, nil
	}
	return nil, newError(KindError, docID, line, "kind %s has no default value", k)
}

// parseScalar reads a literal of a primitive kind from text.
func parseScalar(text string, k Kind, source ast.ValueSource) (Value, error) {
	switch k.Tag {
	case KindString:
		return &StringValue{Text: text, Source: source}, nil
	case KindInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", text)
		}
		return &IntegerValue{Value: n}, nil
	case KindDecimal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a decimal", text)
		}
		return &DecimalValue{Value: f}, nil
	case KindBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", text)
		}
		return &BooleanValue{Value: b}, nil
	}
	return nil, fmt.Errorf("kind %s cannot be written as text", k)
}

func copyFields(fields map[string]PropertyValue, fn func(string) string) map[string]PropertyValue {
	if fields == nil {
		return nil
	}
	out := make(map[string]PropertyValue, len(fields))
	for k, v := range fields {
		out[k] = v.rename(fn)
	}
	return out
}

// renameValue deep copies v passing every reference name through fn.
func renameValue(v Value, fn func(string) string) Value {
	switch x := v.(type) {
	case *StringValue:
		c := *x
		return &c
	case *IntegerValue:
		c := *x
		return &c
	case *DecimalValue:
		c := *x
		return &c
	case *BooleanValue:
		c := *x
		return &c
	case *NoneValue:
		c := *x
		return &c
	case *ModuleValue:
		c := *x
		return &c
	case *ObjectValue:
		return &ObjectValue{Fields: copyFields(x.Fields, fn)}
	case *RecordValue:
		return &RecordValue{Name: x.Name, Fields: copyFields(x.Fields, fn)}
	case *OrTypeValue:
		return &OrTypeValue{Name: x.Name, Variant: x.Variant, Fields: copyFields(x.Fields, fn)}
	case *ListValue:
		items := make([]PropertyValue, len(x.Items))
		for i, item := range x.Items {
			items[i] = item.rename(fn)
		}
		return &ListValue{Items: items, ItemKind: x.ItemKind}
	case *UIValue:
		return &UIValue{Name: x.Name, Component: x.Component.Rename(fn)}
	}
	return v
}

// valueReferences appends every reference name inside v.
func valueReferences(v Value, out []string) []string {
	switch x := v.(type) {
	case *ObjectValue:
		for _, k := range sortedKeys(x.Fields) {
			out = x.Fields[k].references(out)
		}
	case *RecordValue:
		for _, k := range sortedKeys(x.Fields) {
			out = x.Fields[k].references(out)
		}
	case *OrTypeValue:
		for _, k := range sortedKeys(x.Fields) {
			out = x.Fields[k].references(out)
		}
	case *ListValue:
		for _, item := range x.Items {
			out = item.references(out)
		}
	case *UIValue:
		if x.Component != nil {
			out = append(out, x.Component.References()...)
		}
	}
	return out
}

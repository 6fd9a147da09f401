package interpreter

import (
	"github.com/saltyorg/ftd/internal/expr"
)

// Thing is a member of the bag.
type Thing interface {
	ThingName() string
	Line() int
}

// Variable is a named value. The first conditional value whose condition
// holds wins; otherwise Value.
type Variable struct {
	Name          string
	Kind          Kind
	Mutable       bool
	Value         PropertyValue
	Conditional   []ConditionalValue
	AlwaysInclude bool
	IsStatic      bool
	LineNumber    int
}

// ConditionalValue is one `value if { ... }` alternative of a variable.
type ConditionalValue struct {
	Condition  *Expression
	Value      PropertyValue
	LineNumber int
}

// Field is a record field or a component, web-component or function
// argument.
type Field struct {
	Name       string
	Kind       KindData
	Mutable    bool
	Default    *PropertyValue
	LineNumber int
}

// IsRequired reports whether a value must be supplied for the field.
func (f Field) IsRequired() bool {
	if f.Default != nil {
		return false
	}
	switch f.Kind.Kind.Tag {
	case KindOptional, KindList, KindSubsectionUI:
		return false
	}
	return true
}

// Record is a record declaration.
type Record struct {
	Name       string
	Fields     []Field
	LineNumber int
}

// OrType is an or-type declaration; each variant is a record named
// `<or-type>.<variant>`.
type OrType struct {
	Name       string
	Variants   []*Record
	LineNumber int
}

// OrTypeVariant is a single variant reached through dotted lookup.
type OrTypeVariant struct {
	OrType  *OrType
	Variant *Record
}

// Function is a function declaration. Body holds parsed statements over
// the argument names.
type Function struct {
	Name       string
	ReturnKind KindData
	Params     []string
	Arguments  []Field
	Body       []expr.Node
	Source     string
	JS         string
	LineNumber int
}

// IsForeign reports whether the function only exists on the page side.
func (f *Function) IsForeign() bool { return len(f.Body) == 0 && f.JS != "" }

// ComponentDefinition is a component declaration. Kernel components have
// no Definition.
type ComponentDefinition struct {
	Name       string
	Arguments  []Field
	Definition *Component
	CSS        string
	LineNumber int
}

// IsKernel reports whether the component lowers directly to an element.
func (c *ComponentDefinition) IsKernel() bool { return c.Definition == nil }

// WebComponent is a custom element implemented by an external script.
type WebComponent struct {
	Name       string
	Arguments  []Field
	JS         string
	LineNumber int
}

func (v *Variable) ThingName() string            { return v.Name }
func (r *Record) ThingName() string              { return r.Name }
func (o *OrType) ThingName() string              { return o.Name }
func (o *OrTypeVariant) ThingName() string       { return o.Variant.Name }
func (f *Function) ThingName() string            { return f.Name }
func (c *ComponentDefinition) ThingName() string { return c.Name }
func (w *WebComponent) ThingName() string        { return w.Name }

func (v *Variable) Line() int            { return v.LineNumber }
func (r *Record) Line() int              { return r.LineNumber }
func (o *OrType) Line() int              { return o.LineNumber }
func (o *OrTypeVariant) Line() int       { return o.Variant.LineNumber }
func (f *Function) Line() int            { return f.LineNumber }
func (c *ComponentDefinition) Line() int { return c.LineNumber }
func (w *WebComponent) Line() int        { return w.LineNumber }

// FieldByName finds a field.
func FieldByName(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func captionField(fields []Field) (Field, bool) {
	for _, f := range fields {
		if f.Kind.Caption {
			return f, true
		}
	}
	return Field{}, false
}

func bodyField(fields []Field) (Field, bool) {
	for _, f := range fields {
		if f.Kind.Body {
			return f, true
		}
	}
	return Field{}, false
}

// childrenField returns the argument that receives child invocations.
func childrenField(fields []Field) (Field, bool) {
	for _, f := range fields {
		if f.Kind.Kind.Tag == KindSubsectionUI {
			return f, true
		}
	}
	return Field{}, false
}

// Variant finds a variant by its short name.
func (o *OrType) Variant(name string) (*Record, bool) {
	full := o.Name + "." + name
	for _, v := range o.Variants {
		if v.Name == full {
			return v, true
		}
	}
	return nil, false
}

// copyVariable returns a deep copy whose values can be mutated freely.
func copyVariable(v *Variable) *Variable {
	c := *v
	c.Value = v.Value.Copy()
	if v.Conditional != nil {
		c.Conditional = make([]ConditionalValue, len(v.Conditional))
		for i, cv := range v.Conditional {
			c.Conditional[i] = ConditionalValue{Condition: cv.Condition, Value: cv.Value.Copy(), LineNumber: cv.LineNumber}
		}
	}
	return &c
}

// Package ast tags parsed sections as declarations or invocations.
package ast

// AST is one top-level item of a document.
type AST interface {
	Line() int
}

// Import is `-- import: <module>[ as <alias>]`.
type Import struct {
	Module     string
	Alias      string
	LineNumber int
}

// RecordDefinition is `-- record <name>:` with one field per header.
type RecordDefinition struct {
	Name       string
	Fields     []Field
	LineNumber int
}

// OrType is `-- or-type <name>:` with one variant per child section.
type OrType struct {
	Name       string
	Variants   []RecordDefinition
	LineNumber int
}

// Map is `-- map <name>:`; kept so the interpreter can reject it.
type Map struct {
	Name       string
	LineNumber int
}

// Variable is `-- <kind> <name>: ...`.
type Variable struct {
	Name          string
	Kind          VariableKind
	Mutable       bool
	Value         VariableValue
	Conditional   []ConditionalValue
	Processor     string
	AlwaysInclude bool
	LineNumber    int
}

// ConditionalValue is a `value if { cond }: v` header of a variable.
type ConditionalValue struct {
	Condition  string
	Value      VariableValue
	LineNumber int
}

// Function is `-- <kind> <name>(<params>):` with a statement body.
type Function struct {
	Name       string
	ReturnKind VariableKind
	Params     []string
	Arguments  []Field
	Body       string
	JS         string
	LineNumber int
}

// ComponentDefinition is `-- component <name>:` with arguments as
// headers and a single root invocation as its child.
type ComponentDefinition struct {
	Name       string
	Arguments  []Field
	Definition *ComponentInvocation
	CSS        string
	LineNumber int
}

// WebComponentDefinition is `-- web-component <name>:`.
type WebComponentDefinition struct {
	Name       string
	Arguments  []Field
	JS         string
	LineNumber int
}

// Field is a record field or a component/function argument.
type Field struct {
	Name       string
	Kind       VariableKind
	Mutable    bool
	Value      VariableValue // default, nil when absent
	LineNumber int
}

func (i *Import) Line() int                 { return i.LineNumber }
func (r *RecordDefinition) Line() int       { return r.LineNumber }
func (o *OrType) Line() int                 { return o.LineNumber }
func (m *Map) Line() int                    { return m.LineNumber }
func (v *Variable) Line() int               { return v.LineNumber }
func (f *Function) Line() int               { return f.LineNumber }
func (c *ComponentDefinition) Line() int    { return c.LineNumber }
func (w *WebComponentDefinition) Line() int { return w.LineNumber }
func (c *ComponentInvocation) Line() int    { return c.LineNumber }

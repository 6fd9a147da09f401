package interpreter

import "sort"

// PropertyValueType tags the form of a PropertyValue.
type PropertyValueType int

const (
	// ValueLiteral holds a Value directly.
	ValueLiteral PropertyValueType = iota
	// ValueReference reads the named variable lazily.
	ValueReference
	// ValueClone reads the named variable and deep copies it.
	ValueClone
	// ValueFunctionCall calls the named function with Args.
	ValueFunctionCall
)

// PropertyValue is a possibly unresolved value slot.
type PropertyValue struct {
	Type       PropertyValueType
	Value      Value
	Name       string
	Kind       Kind
	Mutable    bool
	Args       []FunctionArgument
	LineNumber int
}

// FunctionArgument is one named argument of a function call.
type FunctionArgument struct {
	Name  string
	Value PropertyValue
}

// Literal wraps v.
func Literal(v Value, line int) PropertyValue {
	return PropertyValue{Type: ValueLiteral, Value: v, Kind: v.Kind(), LineNumber: line}
}

// Reference reads the variable name.
func Reference(name string, kind Kind, mutable bool, line int) PropertyValue {
	return PropertyValue{Type: ValueReference, Name: name, Kind: kind, Mutable: mutable, LineNumber: line}
}

func (p PropertyValue) IsLiteral() bool { return p.Type == ValueLiteral }

// IsReference is true for references and clones.
func (p PropertyValue) IsReference() bool {
	return p.Type == ValueReference || p.Type == ValueClone
}

// References returns the names the value reads, in first-use order.
func (p PropertyValue) References() []string {
	return dedupe(p.references(nil))
}

func (p PropertyValue) references(out []string) []string {
	switch p.Type {
	case ValueReference, ValueClone:
		out = append(out, p.Name)
	case ValueFunctionCall:
		for _, a := range p.Args {
			out = a.Value.references(out)
		}
	case ValueLiteral:
		out = valueReferences(p.Value, out)
	}
	return out
}

// Rename deep copies p with every name passed through fn. Function names
// are left alone.
func (p PropertyValue) Rename(fn func(string) string) PropertyValue {
	return p.rename(fn)
}

// Copy deep copies p.
func (p PropertyValue) Copy() PropertyValue {
	return p.rename(func(s string) string { return s })
}

func (p PropertyValue) rename(fn func(string) string) PropertyValue {
	out := p
	switch p.Type {
	case ValueReference, ValueClone:
		out.Name = fn(p.Name)
	case ValueFunctionCall:
		out.Args = make([]FunctionArgument, len(p.Args))
		for i, a := range p.Args {
			out.Args[i] = FunctionArgument{Name: a.Name, Value: a.Value.rename(fn)}
		}
	case ValueLiteral:
		if p.Value != nil {
			out.Value = renameValue(p.Value, fn)
		}
	}
	return out
}

// Arg returns the argument named name.
func (p PropertyValue) Arg(name string) (PropertyValue, bool) {
	for _, a := range p.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return PropertyValue{}, false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

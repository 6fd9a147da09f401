package interpreter

import (
	"errors"
	"fmt"

	"github.com/saltyorg/ftd/internal/expr"
)

// Expression is a parsed condition whose identifiers are fully qualified
// names, each bound in References.
type Expression struct {
	Source     string
	Node       expr.Node
	References map[string]PropertyValue
	LineNumber int
}

// Names returns the referenced names in first-use order.
func (e *Expression) Names() []string {
	if e == nil {
		return nil
	}
	var out []string
	for _, id := range expr.Idents(e.Node) {
		if pv, ok := e.References[id]; ok {
			out = pv.references(out)
		}
	}
	return dedupe(out)
}

// Eval evaluates the expression against doc.
func (e *Expression) Eval(doc *TDoc) (bool, error) {
	v, err := expr.Eval(e.Node, &expressionEnv{doc: doc, refs: e.References, line: e.LineNumber})
	if err != nil {
		var stuck *stuckError
		var ierr *Error
		if errors.As(err, &stuck) || errors.As(err, &ierr) {
			return false, err
		}
		return false, newError(InterpreterError, doc.Name, e.LineNumber, "condition %q: %v", e.Source, err)
	}
	return expr.Truthy(v), nil
}

// IsStatic reports whether no referenced value can change at runtime.
func (e *Expression) IsStatic(doc *TDoc) bool {
	if e == nil {
		return true
	}
	for _, pv := range e.References {
		if !doc.IsStaticValue(pv) {
			return false
		}
	}
	return true
}

// JS lowers the expression; ref renders a fully qualified name.
func (e *Expression) JS(ref func(name string) string) string {
	return expr.JS(e.Node, func(id string) string {
		if pv, ok := e.References[id]; ok && pv.IsReference() {
			return ref(pv.Name)
		}
		return ref(id)
	})
}

// Rename returns a copy with every bound name passed through fn.
func (e *Expression) Rename(fn func(string) string) *Expression {
	if e == nil {
		return nil
	}
	out := &Expression{
		Source:     e.Source,
		LineNumber: e.LineNumber,
		References: make(map[string]PropertyValue, len(e.References)),
	}
	out.Node = expr.Rename(e.Node, fn)
	for id, pv := range e.References {
		out.References[fn(id)] = pv.Rename(fn)
	}
	return out
}

// And combines two conditions; either may be nil.
func And(a, b *Expression) *Expression {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	out := &Expression{
		Source:     fmt.Sprintf("(%s) and (%s)", a.Source, b.Source),
		Node:       &expr.Binary{Op: "&&", Left: a.Node, Right: b.Node},
		References: make(map[string]PropertyValue, len(a.References)+len(b.References)),
		LineNumber: b.LineNumber,
	}
	for k, v := range a.References {
		out.References[k] = v
	}
	for k, v := range b.References {
		out.References[k] = v
	}
	return out
}

// DeviceCondition is the synthetic `ftd.device == "<device>"` condition
// of a device-scoped subtree.
func DeviceCondition(device string, line int) *Expression {
	return &Expression{
		Source: fmt.Sprintf("ftd.device == %q", device),
		Node: &expr.Binary{
			Op:    "==",
			Left:  &expr.Ident{Name: DeviceVariable},
			Right: &expr.Literal{Value: device},
		},
		References: map[string]PropertyValue{
			DeviceVariable: Reference(DeviceVariable, StringKind(), false, line),
		},
		LineNumber: line,
	}
}

// expressionEnv resolves expression identifiers through a document.
type expressionEnv struct {
	doc  *TDoc
	refs map[string]PropertyValue
	line int
}

func (env *expressionEnv) Lookup(name string) (any, error) {
	pv, ok := env.refs[name]
	if !ok {
		pv = Reference(name, ElementKind(), false, env.line)
	}
	return env.doc.ResolveToGo(pv, env.line)
}

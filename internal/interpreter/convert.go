package interpreter

import (
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/expr"
	"github.com/saltyorg/ftd/internal/types"
)

// scope carries the loop aliases visible while converting an invocation
// subtree, and whether `$VALUE` may be used.
type scope struct {
	loops []loopScope
	event bool
}

type loopScope struct {
	alias   string // as written
	name    string // fully qualified
	item    Kind
	mutable bool
}

func (sc scope) withLoop(l loopScope) scope {
	loops := make([]loopScope, 0, len(sc.loops)+1)
	loops = append(loops, sc.loops...)
	return scope{loops: append(loops, l), event: sc.event}
}

func (sc scope) withEvent() scope {
	return scope{loops: sc.loops, event: true}
}

func (sc scope) loop(fq string) (loopScope, string, bool) {
	for i := len(sc.loops) - 1; i >= 0; i-- {
		l := sc.loops[i]
		if fq == l.name {
			return l, "", true
		}
		if rest, ok := strings.CutPrefix(fq, l.name+"."); ok {
			return l, rest, true
		}
	}
	return loopScope{}, "", false
}

// scopedName qualifies a name, binding loop aliases first.
func (d *TDoc) scopedName(name string, sc scope) string {
	name = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(name), "*"), "$")
	head, rest, dotted := strings.Cut(name, ".")
	for i := len(sc.loops) - 1; i >= 0; i-- {
		if sc.loops[i].alias != head {
			continue
		}
		if dotted {
			return sc.loops[i].name + "." + rest
		}
		return sc.loops[i].name
	}
	return d.ResolveName(name)
}

// kindOf returns the kind of a fully qualified name and whether it can be
// written to. Names may be variables, loop aliases or component arguments,
// each with a dotted path into the value.
func (d *TDoc) kindOf(fq string, sc scope, line int) (Kind, bool, error) {
	if l, rest, ok := sc.loop(fq); ok {
		if rest == "index" {
			return IntegerKind(), false, nil
		}
		k, err := d.descendKind(l.item, rest, line)
		return k, l.mutable, err
	}

	t, rest, err := d.SearchThing(fq, line)
	if err != nil {
		return Kind{}, false, err
	}
	switch x := t.(type) {
	case *Variable:
		k, err := d.descendKind(x.Kind, rest, line)
		return k, x.Mutable, err
	case *ComponentDefinition:
		return d.argumentKind(x.Name, x.Arguments, rest, line)
	case *WebComponent:
		return d.argumentKind(x.Name, x.Arguments, rest, line)
	}
	return Kind{}, false, newError(ResolutionError, d.Name, line, "%s is not a variable", fq)
}

func (d *TDoc) argumentKind(component string, args []Field, path string, line int) (Kind, bool, error) {
	if path == "" {
		return Kind{}, false, newError(ResolutionError, d.Name, line, "%s is a component, not a value", component)
	}
	name, rest, _ := strings.Cut(path, ".")
	f, ok := FieldByName(args, name)
	if !ok {
		return Kind{}, false, notFound(d.Name, line, component+"."+name)
	}
	k, err := d.descendKind(f.Kind.Kind, rest, line)
	return k, f.Mutable, err
}

// descendKind follows a dotted path through a kind.
func (d *TDoc) descendKind(k Kind, path string, line int) (Kind, error) {
	if path == "" {
		return k, nil
	}
	seg, rest, _ := strings.Cut(path, ".")
	inner := k.InnerKind()

	switch inner.Tag {
	case KindList, KindSubsectionUI:
		if _, err := strconv.Atoi(seg); err == nil {
			return d.descendKind(inner.ItemKind(), rest, line)
		}
	case KindRecord:
		rec, err := d.record(inner.Name, line)
		if err != nil {
			return Kind{}, err
		}
		if f, ok := FieldByName(rec.Fields, seg); ok {
			return d.descendKind(f.Kind.Kind, rest, line)
		}
	case KindOrType, KindOrTypeVariant:
		o, err := d.orType(inner.Name, line)
		if err != nil {
			return Kind{}, err
		}
		if inner.Variant == "" {
			if _, ok := o.Variant(seg); ok {
				return d.descendKind(OrTypeVariantKind(o.Name, seg), rest, line)
			}
			break
		}
		variant, _ := o.Variant(inner.Variant)
		if variant != nil {
			if f, ok := FieldByName(variant.Fields, seg); ok {
				return d.descendKind(f.Kind.Kind, rest, line)
			}
		}
	case KindObject, KindElement:
		return ElementKind(), nil
	}
	return Kind{}, notFound(d.Name, line, k.String()+"."+seg)
}

func (d *TDoc) record(name string, line int) (*Record, error) {
	t, _, err := d.SearchThing(name, line)
	if err != nil {
		return nil, err
	}
	rec, ok := t.(*Record)
	if !ok {
		return nil, newError(KindError, d.Name, line, "%s is not a record", name)
	}
	return rec, nil
}

func (d *TDoc) orType(name string, line int) (*OrType, error) {
	t, _, err := d.SearchThing(name, line)
	if err != nil {
		return nil, err
	}
	switch x := t.(type) {
	case *OrType:
		return x, nil
	case *OrTypeVariant:
		return x.OrType, nil
	}
	return nil, newError(KindError, d.Name, line, "%s is not an or-type", name)
}

// kindFromAST resolves a kind as written in source.
func (d *TDoc) kindFromAST(vk ast.VariableKind, line int) (KindData, error) {
	var k Kind
	switch vk.Kind {
	case types.String:
		k = StringKind()
	case types.Integer:
		k = IntegerKind()
	case types.Decimal:
		k = DecimalKind()
	case types.Boolean:
		k = BooleanKind()
	case types.Object:
		k = ObjectKind()
	case types.Module:
		k = ModuleKind()
	case types.Element:
		k = ElementKind()
	case types.UI:
		k = UIKind()
	case types.Children:
		k = ChildrenKind()
	case types.Void:
		k = VoidKind()
	default:
		t, rest, err := d.SearchThing(vk.Kind, line)
		if err != nil {
			return KindData{}, err
		}
		if rest != "" {
			return KindData{}, notFound(d.Name, line, d.ResolveName(vk.Kind))
		}
		switch x := t.(type) {
		case *Record:
			k = RecordKind(x.Name)
		case *OrType:
			k = OrTypeKind(x.Name)
		case *OrTypeVariant:
			k = OrTypeVariantKind(x.OrType.Name, strings.TrimPrefix(x.Variant.Name, x.OrType.Name+"."))
		default:
			return KindData{}, newError(KindError, d.Name, line, "%s is not a type", vk.Kind)
		}
	}

	switch {
	case vk.IsList():
		if k.Tag == KindSubsectionUI {
			return KindData{}, newError(KindError, d.Name, line, "children is already a list")
		}
		k = ListOf(k)
	case vk.IsOptional():
		k = OptionalOf(k)
	}
	return KindData{Kind: k, Caption: vk.Caption, Body: vk.Body}, nil
}

// fieldFromAST converts a record field or an argument. Defaults see
// previously converted arguments through sc.
func (d *TDoc) fieldFromAST(f ast.Field, sc scope) (Field, error) {
	kd, err := d.kindFromAST(f.Kind, f.LineNumber)
	if err != nil {
		return Field{}, err
	}
	out := Field{Name: f.Name, Kind: kd, Mutable: f.Mutable, LineNumber: f.LineNumber}
	if f.Value != nil {
		pv, err := d.propertyValueFromAST(f.Value, kd, sc, false, f.LineNumber)
		if err != nil {
			return Field{}, err
		}
		out.Default = &pv
		out.Kind.Kind = out.Kind.Kind.WithDefault(strings.TrimSpace(sourceText(f.Value)))
	}
	return out, nil
}

func sourceText(v ast.VariableValue) string {
	if s, ok := v.(*ast.String); ok {
		return s.Value
	}
	return ""
}

// fillRecord converts the fields of a record placeholder.
func (d *TDoc) fillRecord(rec *Record, def *ast.RecordDefinition) error {
	fields := make([]Field, 0, len(def.Fields))
	for _, f := range def.Fields {
		field, err := d.fieldFromAST(f, scope{})
		if err != nil {
			return err
		}
		fields = append(fields, field)
	}
	rec.Fields = fields
	return nil
}

// fillOrType converts the variants of an or-type placeholder.
func (d *TDoc) fillOrType(o *OrType, def *ast.OrType) error {
	variants := make([]*Record, 0, len(def.Variants))
	for i := range def.Variants {
		v := &def.Variants[i]
		rec := &Record{Name: o.Name + "." + v.Name, LineNumber: v.LineNumber}
		if err := d.fillRecord(rec, v); err != nil {
			return err
		}
		variants = append(variants, rec)
	}
	o.Variants = variants
	return nil
}

// checkRecordCycles rejects records that contain themselves through
// fields that are neither optional nor lists.
func (d *TDoc) checkRecordCycles(names []string) error {
	done := make(map[string]bool)
	var visit func(name string, path map[string]bool) error
	visit = func(name string, path map[string]bool) error {
		if path[name] {
			t, _ := d.Bag.Get(name)
			line := 0
			if t != nil {
				line = t.Line()
			}
			return wrapError(KindError, ErrCyclicDefinition, d.Name, line, "record %s contains itself", name)
		}
		if done[name] {
			return nil
		}
		t, ok := d.Bag.Get(name)
		if !ok {
			return nil
		}
		rec, ok := t.(*Record)
		if !ok {
			return nil
		}
		path[name] = true
		for _, f := range rec.Fields {
			if f.Kind.Kind.Tag == KindRecord {
				if err := visit(f.Kind.Kind.Name, path); err != nil {
					return err
				}
			}
		}
		delete(path, name)
		done[name] = true
		return nil
	}
	for _, name := range names {
		if err := visit(name, make(map[string]bool)); err != nil {
			return err
		}
	}
	return nil
}

// functionFromAST converts a function declaration. Body identifiers that
// are not arguments are qualified against the declaring document.
func (d *TDoc) functionFromAST(f *ast.Function) (*Function, error) {
	rk, err := d.kindFromAST(f.ReturnKind, f.LineNumber)
	if err != nil {
		return nil, err
	}
	fn := &Function{
		Name:       d.Name + "#" + f.Name,
		ReturnKind: rk,
		Params:     f.Params,
		Source:     f.Body,
		JS:         strings.TrimSpace(f.JS),
		LineNumber: f.LineNumber,
	}
	for _, a := range f.Arguments {
		field, err := d.fieldFromAST(a, scope{})
		if err != nil {
			return nil, err
		}
		fn.Arguments = append(fn.Arguments, field)
	}

	if strings.TrimSpace(f.Body) == "" {
		if fn.JS == "" {
			return nil, newError(InterpreterError, d.Name, f.LineNumber, "function %s has no body", f.Name)
		}
		return fn, nil
	}

	stmts, err := expr.ParseBlock(f.Body)
	if err != nil {
		return nil, newError(InterpreterError, d.Name, f.LineNumber, "function %s: %v", f.Name, err)
	}
	isArg := func(name string) bool {
		head, _, _ := strings.Cut(name, ".")
		_, ok := FieldByName(fn.Arguments, head)
		return ok
	}
	for i, st := range stmts {
		if a, ok := st.(*expr.Assign); ok {
			head, _, _ := strings.Cut(a.Name, ".")
			arg, ok := FieldByName(fn.Arguments, head)
			if !ok || !arg.Mutable {
				return nil, wrapError(MutationError, ErrNotMutable, d.Name, f.LineNumber, "function %s assigns %s, which is not a mutable argument", f.Name, a.Name)
			}
		}
		stmts[i] = expr.Rename(st, func(name string) string {
			if isArg(name) {
				return name
			}
			return d.ResolveName(name)
		})
	}
	fn.Body = stmts
	return fn, nil
}

// componentSignature inserts a component declaration with its arguments.
// The body is converted later so other components can be referenced in any
// order. Arguments are inserted one at a time so defaults can read earlier
// ones.
func (d *TDoc) componentSignature(c *ast.ComponentDefinition) (*ComponentDefinition, error) {
	if c.Definition == nil && d.Name != KernelModule {
		return nil, newError(InterpreterError, d.Name, c.LineNumber, "component %s has no body", c.Name)
	}
	def := &ComponentDefinition{Name: d.Name + "#" + c.Name, CSS: strings.TrimSpace(c.CSS), LineNumber: c.LineNumber}
	d.Bag.Insert(def.Name, def)

	hasChildren := false
	for _, a := range c.Arguments {
		field, err := d.fieldFromAST(a, scope{})
		if err != nil {
			return nil, err
		}
		if field.Kind.Kind.Tag == KindSubsectionUI {
			if hasChildren {
				return nil, newError(KindError, d.Name, a.LineNumber, "component %s takes children twice", c.Name)
			}
			hasChildren = true
		}
		def.Arguments = append(def.Arguments, field)
	}
	return def, nil
}

func (d *TDoc) webComponentFromAST(w *ast.WebComponentDefinition) (*WebComponent, error) {
	wc := &WebComponent{Name: d.Name + "#" + w.Name, JS: strings.TrimSpace(w.JS), LineNumber: w.LineNumber}
	d.Bag.Insert(wc.Name, wc)
	for _, a := range w.Arguments {
		field, err := d.fieldFromAST(a, scope{})
		if err != nil {
			return nil, err
		}
		if field.Kind.Kind.IsUI() || field.Kind.Kind.Tag == KindSubsectionUI {
			return nil, newError(KindError, d.Name, a.LineNumber, "web-component %s cannot take UI argument %s", w.Name, a.Name)
		}
		wc.Arguments = append(wc.Arguments, field)
	}
	return wc, nil
}

// variableFromAST converts a variable declaration. supplied is the
// processor result, if any.
func (d *TDoc) variableFromAST(v *ast.Variable, supplied Value) (*Variable, error) {
	kd, err := d.kindFromAST(v.Kind, v.LineNumber)
	if err != nil {
		return nil, err
	}
	out := &Variable{
		Name:          d.Name + "#" + v.Name,
		Kind:          kd.Kind,
		Mutable:       v.Mutable,
		AlwaysInclude: v.AlwaysInclude,
		LineNumber:    v.LineNumber,
	}

	switch {
	case v.Processor != "" && supplied == nil:
		return nil, &stuckError{kind: stuckOnProcessor, module: d.Name, variable: out.Name, processor: v.Processor, line: v.LineNumber}
	case v.Processor != "":
		if !kd.Kind.Accepts(supplied.Kind()) && !(kd.Kind.IsOptional() && IsNone(supplied)) {
			return nil, kindMismatch(d.Name, v.LineNumber, kd.Kind, supplied.Kind())
		}
		out.Value = Literal(supplied, v.LineNumber)
		out.Value.Kind = kd.Kind
	default:
		pv, err := d.propertyValueFromAST(v.Value, kd, scope{}, false, v.LineNumber)
		if err != nil {
			return nil, err
		}
		if pv.IsLiteral() && IsNone(pv.Value) && !kd.Kind.IsOptional() && !kd.Kind.IsUI() {
			return nil, newError(KindError, d.Name, v.LineNumber, "%s needs a value of kind %s", v.Name, kd.Kind)
		}
		out.Value = pv
	}

	for _, cv := range v.Conditional {
		cond, err := d.expressionFrom(cv.Condition, scope{}, cv.LineNumber)
		if err != nil {
			return nil, err
		}
		pv, err := d.propertyValueFromAST(cv.Value, kd, scope{}, false, cv.LineNumber)
		if err != nil {
			return nil, err
		}
		out.Conditional = append(out.Conditional, ConditionalValue{Condition: cond, Value: pv, LineNumber: cv.LineNumber})
	}

	out.IsStatic = !out.Mutable && d.IsStaticValue(out.Value)
	for _, cv := range out.Conditional {
		if !cv.Condition.IsStatic(d) || !d.IsStaticValue(cv.Value) {
			out.IsStatic = false
		}
	}
	return out, nil
}

// expressionFrom parses a condition and binds its identifiers.
func (d *TDoc) expressionFrom(src string, sc scope, line int) (*Expression, error) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "{") && strings.HasSuffix(src, "}") {
		src = strings.TrimSpace(src[1 : len(src)-1])
	}
	n, err := expr.Parse(src)
	if err != nil {
		return nil, newError(InterpreterError, d.Name, line, "condition %q: %v", src, err)
	}

	e := &Expression{Source: src, References: make(map[string]PropertyValue), LineNumber: line}
	var bindErr error
	e.Node = expr.Rename(n, func(id string) string {
		if bindErr != nil {
			return id
		}
		fq := d.scopedName(id, sc)
		k, _, err := d.kindOf(fq, sc, line)
		if err != nil {
			bindErr = err
			return id
		}
		e.References[fq] = Reference(fq, k, false, line)
		return fq
	})
	if bindErr != nil {
		return nil, bindErr
	}
	return e, nil
}

package dependency

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/expr"
	"github.com/saltyorg/ftd/internal/interpreter"
)

const (
	// ValueUnchanged marks an assignment that cannot be computed on the
	// page. Alternatives carrying it are skipped.
	ValueUnchanged = "FTD_VALUE_UNCHANGED"
	// RemoveKey marks a slot with no value; the runtime removes the
	// attribute or style.
	RemoveKey = "FTD_REMOVE_KEY"
)

// maxInline bounds how deep local variables are inlined.
const maxInline = 64

// lowering turns property values into JavaScript reading the page-side
// data map. Every data key read is recorded in deps.
type lowering struct {
	doc  *interpreter.TDoc
	deps []string
	// args maps function argument names to the JavaScript holding them
	// while a function body is lowered.
	args  map[string]string
	depth int
}

func newLowering(doc *interpreter.TDoc) *lowering {
	return &lowering{doc: doc}
}

func (l *lowering) depend(key string) {
	for _, d := range l.deps {
		if d == key {
			return
		}
	}
	l.deps = append(l.deps, key)
}

// errUnchanged aborts lowering of one alternative.
type errUnchanged struct{ reason string }

func (e *errUnchanged) Error() string { return ValueUnchanged + ": " + e.reason }

func unchanged(format string, args ...any) error {
	return &errUnchanged{reason: fmt.Sprintf(format, args...)}
}

// isLocal reports whether name was created during execution.
func isLocal(name string) bool { return strings.Contains(name, "@") }

// inData reports whether a local is stored in the data map rather than
// inlined: mutable locals initialised with a literal own their value.
func inData(v *interpreter.Variable) bool {
	return v.Mutable && v.Value.IsLiteral() && len(v.Conditional) == 0
}

// pathJS renders a dotted path as property accesses.
func pathJS(path string) string {
	if path == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range strings.Split(path, ".") {
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		b.WriteString("[" + strconv.Quote(seg) + "]")
	}
	return b.String()
}

func dataJS(key string) string {
	return "data[" + strconv.Quote(key) + "]"
}

// ref renders a read of the fully qualified name.
func (l *lowering) ref(name string) (string, error) {
	if l.args != nil {
		head, rest, _ := strings.Cut(name, ".")
		if js, ok := l.args[head]; ok {
			return js + pathJS(rest), nil
		}
	}
	if name == interpreter.EventValue {
		return "value", nil
	}

	root, path := l.doc.RootOf(name)
	if !isLocal(root) {
		l.depend(root)
		return dataJS(root) + pathJS(path), nil
	}

	t, ok := l.doc.Bag.Get(root)
	if !ok {
		return "", unchanged("%s is not defined", root)
	}
	v, ok := t.(*interpreter.Variable)
	if !ok {
		return "", unchanged("%s is not a variable", root)
	}
	if inData(v) {
		l.depend(root)
		return dataJS(root) + pathJS(path), nil
	}
	if l.depth >= maxInline {
		return "", unchanged("%s is nested too deeply", root)
	}
	l.depth++
	defer func() { l.depth-- }()

	js, err := l.variable(v)
	if err != nil {
		return "", err
	}
	if path == "" {
		return js, nil
	}
	return "(" + js + ")" + pathJS(path), nil
}

// variable inlines a variable's conditional values as nested ternaries.
func (l *lowering) variable(v *interpreter.Variable) (string, error) {
	js, err := l.value(v.Value)
	if err != nil {
		return "", err
	}
	for i := len(v.Conditional) - 1; i >= 0; i-- {
		cv := v.Conditional[i]
		cond, err := l.condition(cv.Condition)
		if err != nil {
			return "", err
		}
		alt, err := l.value(cv.Value)
		if err != nil {
			return "", err
		}
		js = "(" + cond + ") ? (" + alt + ") : (" + js + ")"
	}
	return js, nil
}

// condition lowers a condition expression.
func (l *lowering) condition(e *interpreter.Expression) (string, error) {
	if e == nil {
		return "true", nil
	}
	var failed error
	js := e.JS(func(name string) string {
		s, err := l.ref(name)
		if err != nil && failed == nil {
			failed = err
		}
		return s
	})
	return js, failed
}

// value lowers a property value.
func (l *lowering) value(pv interpreter.PropertyValue) (string, error) {
	switch pv.Type {
	case interpreter.ValueReference, interpreter.ValueClone:
		return l.ref(pv.Name)
	case interpreter.ValueFunctionCall:
		return l.call(pv)
	case interpreter.ValueLiteral:
		return l.literal(pv.Value)
	}
	return "", unchanged("unknown value")
}

func (l *lowering) literal(v interpreter.Value) (string, error) {
	switch x := v.(type) {
	case nil, *interpreter.NoneValue:
		return "null", nil
	case *interpreter.StringValue:
		return expr.LiteralJS(x.Text), nil
	case *interpreter.IntegerValue:
		return expr.LiteralJS(x.Value), nil
	case *interpreter.DecimalValue:
		return expr.LiteralJS(x.Value), nil
	case *interpreter.BooleanValue:
		return expr.LiteralJS(x.Value), nil
	case *interpreter.ModuleValue:
		return expr.LiteralJS(x.Name), nil
	case *interpreter.RecordValue:
		return l.object(x.Fields, "")
	case *interpreter.ObjectValue:
		return l.object(x.Fields, "")
	case *interpreter.OrTypeValue:
		return l.object(x.Fields, x.Variant)
	case *interpreter.ListValue:
		items := make([]string, 0, len(x.Items))
		for _, item := range x.Items {
			js, err := l.value(item)
			if err != nil {
				return "", err
			}
			items = append(items, js)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	}
	return "", unchanged("%s values cannot be computed on the page", v.Kind())
}

func (l *lowering) object(fields map[string]interpreter.PropertyValue, variant string) (string, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+1)
	for _, name := range names {
		js, err := l.value(fields[name])
		if err != nil {
			return "", err
		}
		parts = append(parts, strconv.Quote(name)+": "+js)
	}
	if variant != "" {
		parts = append(parts, strconv.Quote(interpreter.VariantKey)+": "+expr.LiteralJS(variant))
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

// call lowers a function call. Interpolations become concatenation; user
// functions become an immediately invoked function over an args object.
func (l *lowering) call(pv interpreter.PropertyValue) (string, error) {
	if pv.Name == interpreter.InterpolateFunction {
		parts := make([]string, 0, len(pv.Args))
		for _, a := range pv.Args {
			js, err := l.value(a.Value)
			if err != nil {
				return "", err
			}
			if a.Value.IsLiteral() {
				parts = append(parts, js)
				continue
			}
			parts = append(parts, "window.ftd.str("+js+")")
		}
		if len(parts) == 0 {
			return `""`, nil
		}
		return strings.Join(parts, " + "), nil
	}

	t, _, err := l.doc.GetThing(pv.Name, pv.LineNumber)
	if err != nil {
		return "", unchanged("%s is not defined", pv.Name)
	}
	f, ok := t.(*interpreter.Function)
	if !ok {
		return "", unchanged("%s is not a function", pv.Name)
	}
	args, err := l.arguments(f, pv)
	if err != nil {
		return "", err
	}
	if f.IsForeign() {
		_, local := interpreter.SplitName(f.Name)
		ordered := make([]string, 0, len(f.Arguments))
		for _, a := range f.Arguments {
			ordered = append(ordered, "args["+strconv.Quote(a.Name)+"]")
		}
		return "(function (args) { return window[" + strconv.Quote(local) + "](" + strings.Join(ordered, ", ") + "); })(" + args + ")", nil
	}

	lines, ret, err := l.body(f)
	if err != nil {
		return "", err
	}
	if ret == "" {
		ret = "null"
	}
	return "(function (args) { " + strings.Join(append(lines, "return "+ret+";"), " ") + " })(" + args + ")", nil
}

// arguments renders the args object of a call, falling back to defaults.
func (l *lowering) arguments(f *interpreter.Function, pv interpreter.PropertyValue) (string, error) {
	parts := make([]string, 0, len(f.Arguments))
	for _, a := range f.Arguments {
		v, ok := pv.Arg(a.Name)
		if !ok {
			if a.Default == nil {
				parts = append(parts, strconv.Quote(a.Name)+": null")
				continue
			}
			v = *a.Default
		}
		js, err := l.value(v)
		if err != nil {
			return "", err
		}
		parts = append(parts, strconv.Quote(a.Name)+": "+js)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

// body lowers a function body with argument names bound to `args`.
func (l *lowering) body(f *interpreter.Function) ([]string, string, error) {
	saved := l.args
	l.args = make(map[string]string, len(f.Arguments))
	for _, a := range f.Arguments {
		l.args[a.Name] = "args[" + strconv.Quote(a.Name) + "]"
	}
	defer func() { l.args = saved }()

	var failed error
	lines, ret := expr.BlockJS(f.Body, func(name string) string {
		s, err := l.ref(name)
		if err != nil && failed == nil {
			failed = err
		}
		return s
	})
	return lines, ret, failed
}

// target follows a mutable binding to the data key and path it writes.
func (l *lowering) target(name string) (string, string, error) {
	for i := 0; i < maxInline; i++ {
		root, path := l.doc.RootOf(name)
		if !isLocal(root) {
			return root, path, nil
		}
		t, ok := l.doc.Bag.Get(root)
		if !ok {
			return "", "", unchanged("%s is not defined", root)
		}
		v, ok := t.(*interpreter.Variable)
		if !ok {
			return "", "", unchanged("%s is not a variable", root)
		}
		if inData(v) || !v.Value.IsReference() {
			return root, path, nil
		}
		name = v.Value.Name
		if path != "" {
			name += "." + path
		}
	}
	return "", "", unchanged("%s is nested too deeply", name)
}

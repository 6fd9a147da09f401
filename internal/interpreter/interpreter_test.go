package interpreter

import (
	"errors"
	"strings"
	"testing"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/parser"
)

func parse(t *testing.T, name, source string) []ast.AST {
	t.Helper()
	sections, err := parser.Parse(source, name)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	items, err := ast.FromSections(sections, name)
	if err != nil {
		t.Fatalf("FromSections() error = %v", err)
	}
	return items
}

func interpret(t *testing.T, source string) *Document {
	t.Helper()
	it, err := New("main", parse(t, "main", source), nil).Continue()
	if err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	if it.Status != Done {
		t.Fatalf("Continue() status = %s, want done", it.Status)
	}
	return it.Document
}

func interpretErr(t *testing.T, source string) error {
	t.Helper()
	it, err := New("main", parse(t, "main", source), nil).Continue()
	if err == nil {
		t.Fatalf("Continue() = %s, want error", it.Status)
	}
	return err
}

func TestKernel(t *testing.T) {
	bag, err := Kernel()
	if err != nil {
		t.Fatalf("Kernel() error = %v", err)
	}

	for _, name := range KernelComponents {
		t.Run(name, func(t *testing.T) {
			thing, ok := bag.Get(KernelModule + "#" + name)
			if !ok {
				t.Fatalf("kernel has no %s", name)
			}
			def, ok := thing.(*ComponentDefinition)
			if !ok || !def.IsKernel() {
				t.Errorf("%s = %T, want kernel component", name, thing)
			}
		})
	}

	length, ok := bag.Get("ftd#length")
	if !ok {
		t.Fatal("kernel has no ftd#length")
	}
	if o := length.(*OrType); len(o.Variants) != 5 {
		t.Errorf("ftd#length variants = %d, want 5", len(o.Variants))
	}
	if v, ok := bag.Get(DeviceVariable); !ok || !v.(*Variable).Mutable {
		t.Errorf("%s missing or immutable", DeviceVariable)
	}
	if f, ok := bag.Get("ftd#toggle"); !ok || len(f.(*Function).Body) != 1 {
		t.Errorf("ftd#toggle = %+v", f)
	}
}

func TestInterpretVariableReference(t *testing.T) {
	doc := interpret(t, "-- string $name: Alice\n\n-- ftd.text: Hello, $name\n")

	v, ok := doc.Variable("name")
	if !ok {
		t.Fatal("main#name not in bag")
	}
	if s, ok := v.Value.Value.(*StringValue); !ok || s.Text != "Alice" {
		t.Errorf("name = %#v, want Alice", v.Value.Value)
	}
	if !v.Mutable || v.IsStatic {
		t.Errorf("name mutable=%v static=%v, want mutable and dynamic", v.Mutable, v.IsStatic)
	}

	if len(doc.Tree) != 1 || doc.Tree[0].Name != "ftd#text" {
		t.Fatalf("tree = %+v, want one ftd#text", doc.Tree)
	}
	props := doc.Tree[0].PropertiesFor("text")
	if len(props) != 1 {
		t.Fatalf("text properties = %d, want 1", len(props))
	}
	pv := props[0].Value
	if pv.Type != ValueFunctionCall || pv.Name != InterpolateFunction {
		t.Fatalf("text = %+v, want interpolation", pv)
	}
	if refs := pv.References(); len(refs) != 1 || refs[0] != "main#name" {
		t.Errorf("references = %v, want [main#name]", refs)
	}

	got, err := doc.TDoc().ResolveToGo(pv, 0)
	if err != nil {
		t.Fatalf("ResolveToGo() error = %v", err)
	}
	if got != "Hello, Alice" {
		t.Errorf("resolved = %v, want Hello, Alice", got)
	}
}

func TestInterpretRecordList(t *testing.T) {
	source := `-- record point:
integer x:
integer y:

-- point list $ps:

--- point:
x: 1
y: 2

--- point:
x: 3
y: 4

--- point:
x: 5
y: 6
`
	doc := interpret(t, source)
	v, ok := doc.Variable("ps")
	if !ok {
		t.Fatal("main#ps not in bag")
	}
	list, ok := v.Value.Value.(*ListValue)
	if !ok || len(list.Items) != 3 {
		t.Fatalf("ps = %#v, want three items", v.Value.Value)
	}
	for i, item := range list.Items {
		rec, ok := item.Value.(*RecordValue)
		if !ok {
			t.Fatalf("item %d = %T, want *RecordValue", i, item.Value)
		}
		if len(rec.Fields) != 2 {
			t.Errorf("item %d fields = %v, want x and y", i, rec.Fields)
		}
		x := rec.Fields["x"].Value.(*IntegerValue).Value
		y := rec.Fields["y"].Value.(*IntegerValue).Value
		if x != int64(2*i+1) || y != int64(2*i+2) {
			t.Errorf("item %d = (%d, %d), want (%d, %d)", i, x, y, 2*i+1, 2*i+2)
		}
	}
}

func TestInterpretOrType(t *testing.T) {
	source := `-- or-type shape:

--- circle:
integer radius:

--- empty:

-- shape s: empty

-- shape.circle c:
radius: 3
`
	doc := interpret(t, source)
	s, _ := doc.Variable("s")
	if v, ok := s.Value.Value.(*OrTypeValue); !ok || v.Variant != "empty" {
		t.Errorf("s = %#v, want variant empty", s.Value.Value)
	}
	c, _ := doc.Variable("c")
	got, err := doc.TDoc().ToGo(c.Value.Value, 0)
	if err != nil {
		t.Fatalf("ToGo() error = %v", err)
	}
	m := got.(map[string]any)
	if m[VariantKey] != "circle" || m["radius"] != int64(3) {
		t.Errorf("c = %v, want circle with radius 3", m)
	}
}

func TestImportSuspension(t *testing.T) {
	s := New("main", parse(t, "main", "-- import: lib\n\n-- string greeting: $lib.name\n"), nil)

	it, err := s.Continue()
	if err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	if it.Status != StuckOnImport || it.Module != "lib" {
		t.Fatalf("Continue() = %s %s, want stuck on import lib", it.Status, it.Module)
	}

	if _, err := s.ContinueAfterProcessor(&StringValue{}); err == nil {
		t.Error("ContinueAfterProcessor() while stuck on import should fail")
	}

	it, err = s.ContinueAfterImport("lib", parse(t, "lib", "-- string name: Bob\n"), nil)
	if err != nil {
		t.Fatalf("ContinueAfterImport() error = %v", err)
	}
	if it.Status != Done {
		t.Fatalf("status = %s, want done", it.Status)
	}
	got, err := it.Document.TDoc().ValueOf("greeting", 0)
	if err != nil {
		t.Fatalf("ValueOf() error = %v", err)
	}
	if s := got.(*StringValue).Text; s != "Bob" {
		t.Errorf("greeting = %q, want Bob", s)
	}
}

func TestProcessorSuspension(t *testing.T) {
	s := New("main", parse(t, "main", "-- string data:\n$processor$: site-data\n\n-- ftd.text: $data\n"), nil)

	it, err := s.Continue()
	if err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	if it.Status != StuckOnProcessor || it.Processor != "site-data" || it.Variable != "main#data" {
		t.Fatalf("Continue() = %+v, want stuck on processor site-data", it)
	}
	if it.Kind.Tag != KindString || it.Section == nil {
		t.Errorf("processor request kind = %s section = %v", it.Kind, it.Section)
	}

	it, err = s.ContinueAfterProcessor(&StringValue{Text: "from host"})
	if err != nil {
		t.Fatalf("ContinueAfterProcessor() error = %v", err)
	}
	if it.Status != Done {
		t.Fatalf("status = %s, want done", it.Status)
	}
	v, _ := it.Document.Variable("data")
	if got := v.Value.Value.(*StringValue).Text; got != "from host" {
		t.Errorf("data = %q, want from host", got)
	}
}

func TestForeignVariableSuspension(t *testing.T) {
	s := New("main", parse(t, "main", "-- import: lib\n\n-- string s: $lib.secret\n"), nil)
	if _, err := s.Continue(); err != nil {
		t.Fatalf("Continue() error = %v", err)
	}

	it, err := s.ContinueAfterImport("lib", nil, []string{"secret"})
	if err != nil {
		t.Fatalf("ContinueAfterImport() error = %v", err)
	}
	if it.Status != StuckOnForeignVariable || it.Variable != "lib#secret" {
		t.Fatalf("status = %s %s, want stuck on lib#secret", it.Status, it.Variable)
	}

	if _, err := s.ContinueAfterForeignVariable("lib#other", &StringValue{}); err == nil {
		t.Error("supplying the wrong foreign variable should fail")
	}

	it, err = s.ContinueAfterForeignVariable("lib#secret", &StringValue{Text: "hidden"})
	if err != nil {
		t.Fatalf("ContinueAfterForeignVariable() error = %v", err)
	}
	if it.Status != Done {
		t.Fatalf("status = %s, want done", it.Status)
	}
	if fv := it.Document.ForeignVariables; len(fv) != 1 || fv[0] != "lib#secret" {
		t.Errorf("foreign variables = %v", fv)
	}
	got, err := it.Document.TDoc().ValueOf("s", 0)
	if err != nil {
		t.Fatalf("ValueOf() error = %v", err)
	}
	if got.(*StringValue).Text != "hidden" {
		t.Errorf("s = %v, want hidden", got)
	}
}

func TestForwardReference(t *testing.T) {
	doc := interpret(t, "-- string a: $b\n\n-- string b: later\n")
	got, err := doc.TDoc().ValueOf("a", 0)
	if err != nil {
		t.Fatalf("ValueOf() error = %v", err)
	}
	if got.(*StringValue).Text != "later" {
		t.Errorf("a = %v, want later", got)
	}
}

func TestInterpretErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		category Category
		sentinel error
	}{
		{
			name:     "duplicate",
			source:   "-- string a: 1\n\n-- string a: 2\n",
			category: ResolutionError,
			sentinel: ErrDuplicate,
		},
		{
			name:     "cyclic variables",
			source:   "-- string a: $b\n\n-- string b: $a\n",
			category: ResolutionError,
			sentinel: ErrCyclicDefinition,
		},
		{
			name:     "record contains itself",
			source:   "-- record node:\nnode next:\n",
			category: KindError,
			sentinel: ErrCyclicDefinition,
		},
		{
			name:     "unknown reference",
			source:   "-- string a: $missing\n",
			category: ResolutionError,
			sentinel: ErrNotFound,
		},
		{
			name:     "assignment to immutable argument",
			source:   "-- void f(a):\ninteger a:\n\na = 1\n",
			category: MutationError,
			sentinel: ErrNotMutable,
		},
		{
			name:     "missing record field",
			source:   "-- record point:\ninteger x:\n\n-- point p:\n",
			category: KindError,
		},
		{
			name:     "map kind",
			source:   "-- map lookup:\n",
			category: KindError,
		},
		{
			name:     "unknown argument",
			source:   "-- ftd.text: hi\ncolour: red\n",
			category: KindError,
			sentinel: ErrNotFound,
		},
		{
			name:     "unknown event",
			source:   "-- boolean $flag: false\n\n-- ftd.text: hi\n$on-bogus-event$: $ftd.toggle($a = $flag)\n",
			category: InterpreterError,
		},
		{
			name:     "key event without keys",
			source:   "-- boolean $flag: false\n\n-- ftd.text: hi\n$on-global-key[]$: $ftd.toggle($a = $flag)\n",
			category: InterpreterError,
		},
		{
			name:     "list with header and subsection items",
			source:   "-- record point:\ninteger x:\n\n-- point p1:\nx: 0\n\n-- point list ps:\npoint: $p1\n\n--- point:\nx: 1\n",
			category: KindError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := interpretErr(t, tt.source)
			var ierr *Error
			if !errors.As(err, &ierr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if ierr.Category != tt.category {
				t.Errorf("category = %s, want %s (%v)", ierr.Category, tt.category, err)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
			if ierr.DocID != "main" {
				t.Errorf("doc id = %q, want main", ierr.DocID)
			}
		})
	}
}

func TestSetValue(t *testing.T) {
	doc := interpret(t, "-- integer $n: 1\n\n-- integer m: 2\n\n-- integer $alias: $n\n")
	tdoc := doc.TDoc()

	if err := tdoc.SetValue("n", &IntegerValue{Value: 5}, 0); err != nil {
		t.Fatalf("SetValue(n) error = %v", err)
	}
	got, err := tdoc.ValueOf("n", 0)
	if err != nil {
		t.Fatalf("ValueOf(n) error = %v", err)
	}
	if got.(*IntegerValue).Value != 5 {
		t.Errorf("n = %v, want 5", got)
	}

	if err := tdoc.SetValue("m", &IntegerValue{Value: 3}, 0); !errors.Is(err, ErrNotMutable) {
		t.Errorf("SetValue(m) error = %v, want ErrNotMutable", err)
	}
	if err := tdoc.SetValue("n", &StringValue{Text: "x"}, 0); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("SetValue(n, string) error = %v, want ErrKindMismatch", err)
	}

	if err := tdoc.SetValue("alias", &IntegerValue{Value: 9}, 0); err != nil {
		t.Fatalf("SetValue(alias) error = %v", err)
	}
	got, _ = tdoc.ValueOf("n", 0)
	if got.(*IntegerValue).Value != 9 {
		t.Errorf("write through reference: n = %v, want 9", got)
	}
}

func TestEventAction(t *testing.T) {
	source := `-- integer $count: 0

-- ftd.integer: $count
$on-click$: $ftd.increment($a = $count)
`
	doc := interpret(t, source)
	events := doc.Tree[0].Events
	if len(events) != 1 || events[0].Name != "click" {
		t.Fatalf("events = %+v", events)
	}
	action := events[0].Action
	if action.Type != ValueFunctionCall || action.Name != "ftd#increment" {
		t.Fatalf("action = %+v", action)
	}
	arg, ok := action.Arg("a")
	if !ok || arg.Name != "main#count" || !arg.Mutable {
		t.Errorf("argument a = %+v, want mutable reference to main#count", arg)
	}
}

func TestEventNames(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "click", want: true},
		{name: "mouse-enter", want: true},
		{name: "mouse-leave", want: true},
		{name: "click-outside", want: true},
		{name: "input", want: true},
		{name: "change", want: true},
		{name: "blur", want: true},
		{name: "focus", want: true},
		{name: "global-key[ctrl-k]", want: true},
		{name: "global-key[esc]", want: true},
		{name: "global-key-seq[g-h]", want: true},
		{name: "bogus-event", want: false},
		{name: "mouseenter", want: false},
		{name: "global-key", want: false},
		{name: "global-key[]", want: false},
		{name: "global-key[ctrl-]", want: false},
		{name: "global-key-seq[g-h", want: false},
		{name: "click[x]", want: false},
	}
	for _, tt := range tests {
		if got := IsEventName(tt.name); got != tt.want {
			t.Errorf("IsEventName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEventNamesOnComponent(t *testing.T) {
	source := `-- boolean $flag: false

-- ftd.text: hi
$on-mouse-enter$: $ftd.toggle($a = $flag)
$on-click-outside$: $ftd.toggle($a = $flag)
$on-global-key[ctrl-k]$: $ftd.toggle($a = $flag)
$on-global-key-seq[g-h]$: $ftd.toggle($a = $flag)
`
	doc := interpret(t, source)
	var names []string
	for _, e := range doc.Tree[0].Events {
		names = append(names, e.Name)
	}
	want := "mouse-enter,click-outside,global-key[ctrl-k],global-key-seq[g-h]"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestBagClone(t *testing.T) {
	doc := interpret(t, "-- integer $n: 1\n")
	clone := NewTDoc(doc.Name, doc.Aliases, doc.Data.Clone())
	if err := clone.SetValue("n", &IntegerValue{Value: 2}, 0); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	got, _ := doc.TDoc().ValueOf("n", 0)
	if got.(*IntegerValue).Value != 1 {
		t.Errorf("original changed to %v through clone", got)
	}
}

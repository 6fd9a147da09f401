package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/interpreter"
)

// maxDepth bounds component nesting so a component that contains itself
// fails instead of exhausting the stack.
const maxDepth = 128

// Options select the environment one execution renders for.
type Options struct {
	Device   string
	DarkMode bool
}

// DefaultOptions renders for a desktop in light mode.
func DefaultOptions() Options {
	return Options{Device: interpreter.DeviceDesktop}
}

// RT is the executed document: the element tree plus what the page needs
// to keep it live.
type RT struct {
	Name    string
	Aliases map[string]string
	// Bag is the document's bag plus every local created during
	// execution.
	Bag     *interpreter.Bag
	Main    *Column
	Options Options

	HTMLData            HTMLData
	DummyInstructions   []DummyInstruction
	ElementConstructors map[string]*interpreter.ComponentDefinition
	JS                  []string
	CSS                 []string
	RiveData            []RiveData
}

// TDoc returns a view of the executed bag from the main document.
func (rt *RT) TDoc() *interpreter.TDoc {
	return interpreter.NewTDoc(rt.Name, rt.Aliases, rt.Bag)
}

// HTMLData holds document-level metadata from ftd.document.
type HTMLData struct {
	Title           *string
	Description     *string
	OGImage         *ImageSrc
	ThemeColor      *Color
	BackgroundColor *Color
	Breakpoint      *int64
}

// DummyInstruction records an element built from a mutable UI value. The
// page rebuilds it when Variable changes.
type DummyInstruction struct {
	Variable  string
	Path      []int
	Device    string
	Component *interpreter.Component
}

// RiveData describes one rive animation to start on the page.
type RiveData struct {
	ID            string
	Src           string
	StateMachines []string
	Autoplay      bool
	Artboard      string
}

type executor struct {
	doc    *interpreter.TDoc
	rt     *RT
	single bool
	depth  int
	dummy  int
}

// Execute builds the element tree of an interpreted document. The
// document itself is not modified; execution works on a copy of its bag.
func Execute(doc *interpreter.Document, opts Options) (*RT, error) {
	if opts.Device == "" {
		opts.Device = interpreter.DeviceDesktop
	}
	bag := doc.Data.Clone()
	tdoc := interpreter.NewTDoc(doc.Name, doc.Aliases, bag)
	if err := tdoc.SetValue(interpreter.DeviceVariable, &interpreter.StringValue{Text: opts.Device}, 0); err != nil {
		return nil, err
	}
	if err := tdoc.SetValue(interpreter.DarkModeVariable, &interpreter.BooleanValue{Value: opts.DarkMode}, 0); err != nil {
		return nil, err
	}

	rt := &RT{
		Name:                doc.Name,
		Aliases:             doc.Aliases,
		Bag:                 bag,
		Options:             opts,
		Main:                &Column{Common: Common{DocID: doc.Name, Component: interpreter.KernelModule + "#column"}},
		ElementConstructors: make(map[string]*interpreter.ComponentDefinition),
		JS:                  doc.JS,
		CSS:                 doc.CSS,
	}
	e := &executor{doc: tdoc, rt: rt, single: len(doc.Tree) == 1}

	for _, c := range doc.Tree {
		if c.Name != documentComponent {
			continue
		}
		if c.Iteration != nil {
			return nil, e.errorf(c.LineNumber, "ftd.document cannot loop")
		}
		// Checked before conditions are evaluated so a static-false
		// condition cannot turn the document into a Null.
		if c.Condition != nil || len(c.Events) > 0 {
			return nil, e.errorf(c.LineNumber, "ftd.document takes no condition or events")
		}
	}

	next := 0
	for _, c := range doc.Tree {
		els, err := e.expand(c, nil, &next, "")
		if err != nil {
			return nil, err
		}
		rt.Main.Children = append(rt.Main.Children, els...)
	}
	return rt, nil
}

const (
	documentComponent = interpreter.KernelModule + "#document"
	desktopComponent  = interpreter.KernelModule + "#desktop"
	mobileComponent   = interpreter.KernelModule + "#mobile"
)

func (e *executor) errorf(line int, format string, args ...any) *Error {
	return &Error{DocID: e.doc.Name, LineNumber: line, Message: fmt.Sprintf(format, args...)}
}

// expand turns one invocation into the elements it contributes to its
// parent: one per loop item, the children of a device wrapper, or a
// single element. next is the parent's running child index.
func (e *executor) expand(c *interpreter.Component, parent []int, next *int, device string) ([]Element, error) {
	if c.Iteration != nil {
		return e.loop(c, parent, next, device)
	}
	if c.Source == interpreter.SourceDeclaration {
		switch c.Name {
		case desktopComponent:
			return e.device(c, interpreter.DeviceDesktop, parent, next, device)
		case mobileComponent:
			return e.device(c, interpreter.DeviceMobile, parent, next, device)
		}
	}
	path := childPath(parent, *next)
	*next++
	el, err := e.instantiate(c, path, device)
	if err != nil {
		return nil, err
	}
	return []Element{el}, nil
}

func childPath(parent []int, i int) []int {
	p := make([]int, len(parent)+1)
	copy(p, parent)
	p[len(parent)] = i
	return p
}

// loop instantiates c once per item. Each item gets locals
// `<alias>@<path>` and `<alias>.index@<path>`.
func (e *executor) loop(c *interpreter.Component, parent []int, next *int, device string) ([]Element, error) {
	it := c.Iteration
	v, err := e.doc.Resolve(it.On, it.LineNumber)
	if err != nil {
		return nil, err
	}
	if interpreter.IsNone(v) {
		return nil, nil
	}
	list, ok := v.(*interpreter.ListValue)
	if !ok {
		return nil, e.errorf(it.LineNumber, "cannot loop over %s", v.Kind())
	}

	var out []Element
	for i, item := range list.Items {
		path := childPath(parent, *next)
		*next++
		key := PathKey(path)

		value := item
		if it.On.IsReference() {
			value = interpreter.Reference(it.On.Name+"."+strconv.Itoa(i), list.ItemKind, it.On.Mutable, it.LineNumber)
		}
		alias := it.Alias + "@" + key
		e.doc.Bag.Insert(alias, &interpreter.Variable{
			Name:       alias,
			Kind:       list.ItemKind,
			Mutable:    it.On.Mutable,
			Value:      value,
			IsStatic:   !it.On.Mutable && e.doc.IsStaticValue(value),
			LineNumber: it.LineNumber,
		})
		index := it.Alias + ".index@" + key
		e.doc.Bag.Insert(index, &interpreter.Variable{
			Name:       index,
			Kind:       interpreter.IntegerKind(),
			Value:      interpreter.Literal(&interpreter.IntegerValue{Value: int64(i)}, it.LineNumber),
			IsStatic:   true,
			LineNumber: it.LineNumber,
		})

		inst := c.Rename(aliasRenamer(it.Alias, key))
		inst.Iteration = nil
		el, err := e.instantiate(inst, path, device)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func aliasRenamer(alias, key string) func(string) string {
	return func(n string) string {
		switch {
		case n == alias+".index":
			return alias + ".index@" + key
		case n == alias:
			return alias + "@" + key
		case strings.HasPrefix(n, alias+"."):
			return alias + "@" + key + n[len(alias):]
		}
		return n
	}
}

// device splices the children of ftd.desktop or ftd.mobile into the
// parent, each guarded by the device condition.
func (e *executor) device(c *interpreter.Component, d string, parent []int, next *int, current string) ([]Element, error) {
	if current != "" && current != d {
		return nil, e.errorf(c.LineNumber, "ftd.%s inside ftd.%s", d, current)
	}
	if len(c.Events) > 0 {
		return nil, e.errorf(c.LineNumber, "ftd.%s takes no events", d)
	}
	cond := c.Condition
	if current != d {
		cond = interpreter.And(cond, interpreter.DeviceCondition(d, c.LineNumber))
	}

	children := append([]*interpreter.Component(nil), c.Children...)
	for _, p := range c.PropertiesFor("children") {
		comps, err := e.uiList(p.Value, p.LineNumber)
		if err != nil {
			return nil, err
		}
		children = append(children, comps...)
	}

	var out []Element
	for _, child := range children {
		guarded := *child
		guarded.Condition = interpreter.And(cond, child.Condition)
		els, err := e.expand(&guarded, parent, next, d)
		if err != nil {
			return nil, err
		}
		out = append(out, els...)
	}
	return out, nil
}

// uiList resolves a list of UI values to the components they hold.
func (e *executor) uiList(pv interpreter.PropertyValue, line int) ([]*interpreter.Component, error) {
	v, err := e.doc.Resolve(pv, line)
	if err != nil {
		return nil, err
	}
	list, ok := v.(*interpreter.ListValue)
	if !ok {
		if interpreter.IsNone(v) {
			return nil, nil
		}
		return nil, e.errorf(line, "expected a list of ftd.ui, found %s", v.Kind())
	}
	var out []*interpreter.Component
	for _, item := range list.Items {
		iv, err := e.doc.Resolve(item, line)
		if err != nil {
			return nil, err
		}
		ui, ok := iv.(*interpreter.UIValue)
		if !ok || ui.Component == nil {
			continue
		}
		out = append(out, ui.Component)
	}
	return out, nil
}

// instantiate builds the element at path and applies the invocation's
// condition: a static false condition yields an empty Null, a dynamic
// false one a Null holding the hidden element.
func (e *executor) instantiate(c *interpreter.Component, path []int, device string) (Element, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxDepth {
		return nil, e.errorf(c.LineNumber, "components nested deeper than %d; does %s contain itself?", maxDepth, c.Name)
	}

	visible, dynamic := true, false
	if c.Condition != nil {
		ok, err := c.Condition.Eval(e.doc)
		if err != nil {
			return nil, err
		}
		visible = ok
		dynamic = !c.Condition.IsStatic(e.doc)
		if !visible && !dynamic {
			return &Null{Common: e.baseCommon(c, path)}, nil
		}
	}

	el, err := e.build(c, path, device)
	if err != nil {
		return nil, err
	}
	if !dynamic {
		return el, nil
	}

	base := el.Base()
	base.Condition = interpreter.And(c.Condition, base.Condition)
	if n, ok := el.(*Null); ok {
		if n.Hidden != nil {
			n.Hidden.Base().Condition = base.Condition
		}
		return n, nil
	}
	if !visible {
		hidden := e.baseCommon(c, path)
		hidden.Condition = base.Condition
		return &Null{Common: hidden, Hidden: el}, nil
	}
	return el, nil
}

func (e *executor) build(c *interpreter.Component, path []int, device string) (Element, error) {
	if c.Source == interpreter.SourceVariable {
		return e.fromVariable(c, path, device)
	}
	t, ok := e.doc.Bag.Get(c.Name)
	if !ok {
		return nil, e.errorf(c.LineNumber, "component %s not found", c.Name)
	}
	switch def := t.(type) {
	case *interpreter.ComponentDefinition:
		if def.IsKernel() {
			return e.kernel(def, c, path, device)
		}
		return e.inline(def, c, path, device)
	case *interpreter.WebComponent:
		return e.webComponent(def, c, path)
	}
	return nil, e.errorf(c.LineNumber, "%s is not a component", c.Name)
}

// fromVariable builds the component held in a UI variable. A mutable
// variable is recorded so the page can rebuild the element.
func (e *executor) fromVariable(c *interpreter.Component, path []int, device string) (Element, error) {
	v, err := e.doc.ValueOf(c.Name, c.LineNumber)
	if err != nil {
		return nil, err
	}
	ui, ok := v.(*interpreter.UIValue)
	if !ok || ui.Component == nil {
		if interpreter.IsNone(v) {
			return &Null{Common: e.baseCommon(c, path)}, nil
		}
		return nil, e.errorf(c.LineNumber, "%s holds %s, not ftd.ui", c.Name, v.Kind())
	}

	root, _ := e.doc.RootOf(c.Name)
	dummy := !e.doc.IsStatic(root)
	if dummy {
		e.rt.DummyInstructions = append(e.rt.DummyInstructions, DummyInstruction{
			Variable:  root,
			Path:      path,
			Device:    device,
			Component: c,
		})
		e.dummy++
		defer func() { e.dummy-- }()
	}

	inner := *ui.Component
	inner.Events = append(append([]interpreter.Event(nil), ui.Component.Events...), c.Events...)
	el, err := e.instantiate(&inner, path, device)
	if err != nil {
		return nil, err
	}
	el.Base().IsDummy = dummy
	return el, nil
}

// inline expands a user component: every argument becomes a local
// `<component>.<arg>@<path>` and the definition is instantiated with its
// argument references renamed to those locals.
func (e *executor) inline(def *interpreter.ComponentDefinition, c *interpreter.Component, path []int, device string) (Element, error) {
	if def.Definition.Iteration != nil {
		return nil, e.errorf(def.LineNumber, "the root of component %s cannot loop", def.Name)
	}
	if e.dummy > 0 {
		e.rt.ElementConstructors[def.Name] = def
	}
	key := PathKey(path)
	rename := argumentRenamer(def, key)
	for _, f := range def.Arguments {
		if err := e.bindArgument(def, f, c, key, rename); err != nil {
			return nil, err
		}
	}

	root := def.Definition.Rename(rename)
	root.Events = append(root.Events, c.Events...)
	return e.instantiate(root, path, device)
}

func argumentRenamer(def *interpreter.ComponentDefinition, key string) func(string) string {
	prefix := def.Name + "."
	return func(n string) string {
		if !strings.HasPrefix(n, prefix) {
			return n
		}
		arg, tail, dotted := strings.Cut(n[len(prefix):], ".")
		if _, ok := interpreter.FieldByName(def.Arguments, arg); !ok {
			return n
		}
		out := prefix + arg + "@" + key
		if dotted {
			out += "." + tail
		}
		return out
	}
}

// bindArgument creates the local for one argument. Conditional
// properties become conditional values; children sections fill a
// children argument.
func (e *executor) bindArgument(def *interpreter.ComponentDefinition, f interpreter.Field, c *interpreter.Component, key string, rename func(string) string) error {
	name := def.Name + "." + f.Name + "@" + key
	v := &interpreter.Variable{
		Name:       name,
		Kind:       f.Kind.Kind,
		Mutable:    f.Mutable,
		LineNumber: c.LineNumber,
	}

	var primary *interpreter.PropertyValue
	for _, p := range c.PropertiesFor(f.Name) {
		if p.Condition == nil {
			pv := p.Value
			primary = &pv
			continue
		}
		v.Conditional = append(v.Conditional, interpreter.ConditionalValue{
			Condition:  p.Condition,
			Value:      p.Value,
			LineNumber: p.LineNumber,
		})
	}
	if primary == nil && f.Kind.Kind.Tag == interpreter.KindSubsectionUI && len(c.Children) > 0 {
		items := make([]interpreter.PropertyValue, len(c.Children))
		for i, child := range c.Children {
			items[i] = interpreter.Literal(&interpreter.UIValue{Name: child.Name, Component: child}, child.LineNumber)
		}
		pv := interpreter.Literal(&interpreter.ListValue{Items: items, ItemKind: interpreter.UIKind()}, c.LineNumber)
		primary = &pv
	}

	switch {
	case primary != nil:
		v.Value = *primary
	case f.Default != nil:
		v.Value = f.Default.Rename(rename)
	default:
		zero, err := f.Kind.Kind.ToValue(c.LineNumber, e.doc.Name)
		if err != nil {
			return err
		}
		v.Value = interpreter.Literal(zero, c.LineNumber)
		v.Value.Kind = f.Kind.Kind
	}

	v.IsStatic = !v.Mutable && e.doc.IsStaticValue(v.Value)
	for _, cv := range v.Conditional {
		if !cv.Condition.IsStatic(e.doc) || !e.doc.IsStaticValue(cv.Value) {
			v.IsStatic = false
		}
	}
	e.doc.Bag.Insert(name, v)
	return nil
}

// baseCommon fills the identity of an element without reading any
// argument.
func (e *executor) baseCommon(c *interpreter.Component, path []int) Common {
	common := Common{
		DocID:      e.rt.Name,
		Path:       path,
		Component:  c.Name,
		LineNumber: c.LineNumber,
	}
	for _, ev := range c.Events {
		common.Events = append(common.Events, Event{Name: ev.Name, Action: ev.Action, LineNumber: ev.LineNumber})
	}
	return common
}

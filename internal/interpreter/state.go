package interpreter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/saltyorg/ftd/internal/ast"
)

// Status is the outcome of one step of interpretation.
type Status int

const (
	// Done means the document is fully interpreted.
	Done Status = iota
	// StuckOnImport asks the host for a module's sections.
	StuckOnImport
	// StuckOnProcessor asks the host to compute a variable's value.
	StuckOnProcessor
	// StuckOnForeignVariable asks the host for a foreign variable's value.
	StuckOnForeignVariable
)

func (s Status) String() string {
	switch s {
	case StuckOnImport:
		return "stuck-on-import"
	case StuckOnProcessor:
		return "stuck-on-processor"
	case StuckOnForeignVariable:
		return "stuck-on-foreign-variable"
	default:
		return "done"
	}
}

// Interpretation is either a finished Document or a request the host must
// answer through one of the State's Continue methods.
type Interpretation struct {
	Status Status

	// StuckOnImport and StuckOnForeignVariable.
	Module string
	// StuckOnProcessor and StuckOnForeignVariable: fully qualified name.
	Variable string

	// StuckOnProcessor.
	Processor string
	Kind      Kind
	Section   *ast.Variable

	// Done.
	Document *Document
}

type phase int

const (
	phaseScan phase = iota
	phaseTypes
	phaseSignatures
	phaseBodies
	phaseDone
)

// docState tracks one document's progress through the phases.
type docState struct {
	tdoc       *TDoc
	items      []ast.AST
	phase      phase
	index      int
	names      map[string]int
	converted  map[int]bool
	converting map[int]bool
	bodies     map[int]bool
	records    []string
	tree       []*Component
}

// State drives interpretation of a main document and everything it
// imports. Conversion suspends whenever the host must supply something;
// the State keeps enough to resume exactly where it stopped.
type State struct {
	id        string
	bag       *Bag
	docs      map[string]*docState
	stack     []*docState
	foreign   map[string]map[string]bool
	processed map[string]Value
	supplied  []string
	pending   *Interpretation
	js        []string
	css       []string
	err       error
}

// New starts interpreting the document name. aliases extends the alias
// table of the main document.
func New(name string, items []ast.AST, aliases map[string]string) *State {
	kernel, err := Kernel()
	if err != nil {
		return &State{id: name, err: fmt.Errorf("loading kernel: %w", err)}
	}
	s := newState(name, kernel.Clone())
	ds := s.addDoc(name, items, aliases)
	s.stack = append(s.stack, ds)
	return s
}

func newState(name string, bag *Bag) *State {
	return &State{
		id:        name,
		bag:       bag,
		docs:      make(map[string]*docState),
		foreign:   make(map[string]map[string]bool),
		processed: make(map[string]Value),
	}
}

func (s *State) addDoc(name string, items []ast.AST, aliases map[string]string) *docState {
	tdoc := NewTDoc(name, aliases, s.bag)
	tdoc.state = s
	ds := &docState{
		tdoc:       tdoc,
		items:      items,
		names:      make(map[string]int),
		converted:  make(map[int]bool),
		converting: make(map[int]bool),
		bodies:     make(map[int]bool),
	}
	s.docs[name] = ds
	return ds
}

// Continue runs until the document is done or the host is needed.
func (s *State) Continue() (*Interpretation, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.pending = nil
	for len(s.stack) > 0 {
		ds := s.stack[len(s.stack)-1]
		if err := s.process(ds); err != nil {
			var stuck *stuckError
			if errors.As(err, &stuck) {
				return s.suspend(stuck), nil
			}
			s.err = err
			return nil, err
		}
		s.stack = s.stack[:len(s.stack)-1]
	}
	return &Interpretation{Status: Done, Document: s.document()}, nil
}

// ContinueAfterImport supplies the sections of a module requested by
// StuckOnImport. foreign lists names the module exports without
// declaring; their values are requested with StuckOnForeignVariable.
func (s *State) ContinueAfterImport(module string, items []ast.AST, foreign []string) (*Interpretation, error) {
	if err := s.expect(StuckOnImport); err != nil {
		return nil, err
	}
	if s.pending.Module != module {
		return nil, fmt.Errorf("expected module %s, got %s", s.pending.Module, module)
	}
	ds := s.addDoc(module, items, nil)
	if len(foreign) > 0 {
		names := make(map[string]bool, len(foreign))
		for _, f := range foreign {
			names[f] = true
		}
		s.foreign[module] = names
	}
	s.stack = append(s.stack, ds)
	return s.Continue()
}

// ContinueAfterProcessor supplies the value requested by StuckOnProcessor.
func (s *State) ContinueAfterProcessor(value Value) (*Interpretation, error) {
	if err := s.expect(StuckOnProcessor); err != nil {
		return nil, err
	}
	s.processed[s.pending.Variable] = value
	return s.Continue()
}

// ContinueAfterForeignVariable supplies the value requested by
// StuckOnForeignVariable. name may be the variable or a path inside it;
// the value is stored under the variable itself.
func (s *State) ContinueAfterForeignVariable(name string, value Value) (*Interpretation, error) {
	if err := s.expect(StuckOnForeignVariable); err != nil {
		return nil, err
	}
	if name != s.pending.Variable {
		return nil, fmt.Errorf("expected foreign variable %s, got %s", s.pending.Variable, name)
	}
	s.bag.Insert(name, &Variable{
		Name:     name,
		Kind:     value.Kind(),
		Value:    Literal(value, 0),
		IsStatic: true,
	})
	s.supplied = append(s.supplied, name)
	return s.Continue()
}

// ValueFromGo converts host data, such as a decoded YAML file, to a value
// of kind k using the declarations interpreted so far. Element kind infers
// the shape from the data.
func (s *State) ValueFromGo(v any, k Kind, line int) (Value, error) {
	return NewTDoc(s.id, nil, s.bag).ValueFromGo(v, k, line)
}

func (s *State) expect(status Status) error {
	if s.err != nil {
		return s.err
	}
	if s.pending == nil || s.pending.Status != status {
		return fmt.Errorf("interpretation is not %s", status)
	}
	return nil
}

func (s *State) suspend(stuck *stuckError) *Interpretation {
	it := &Interpretation{Module: stuck.module, Variable: stuck.variable}
	switch stuck.kind {
	case stuckOnImport:
		it.Status = StuckOnImport
	case stuckOnForeignVariable:
		it.Status = StuckOnForeignVariable
	case stuckOnProcessor:
		it.Status = StuckOnProcessor
		it.Processor = stuck.processor
		if ds := s.docs[stuck.module]; ds != nil {
			_, local := SplitName(stuck.variable)
			if idx, ok := ds.names[local]; ok {
				if v, ok := ds.items[idx].(*ast.Variable); ok {
					it.Section = v
					if kd, err := ds.tdoc.kindFromAST(v.Kind, v.LineNumber); err == nil {
						it.Kind = kd.Kind
					}
				}
			}
		}
	}
	s.pending = it
	return it
}

// process advances ds through its phases. Items are retried from the
// start after a suspension; conversion has no side effects until it
// succeeds.
func (s *State) process(ds *docState) error {
	for ds.phase < phaseDone {
		for ds.index < len(ds.items) {
			ds.converting = make(map[int]bool)
			if err := s.processItem(ds, ds.index); err != nil {
				return err
			}
			ds.index++
		}
		if ds.phase == phaseTypes {
			if err := ds.tdoc.checkRecordCycles(ds.records); err != nil {
				return err
			}
		}
		ds.phase++
		ds.index = 0
	}
	return nil
}

func (s *State) processItem(ds *docState, i int) error {
	d := ds.tdoc
	switch ds.phase {
	case phaseScan:
		return s.scan(ds, i)

	case phaseTypes:
		switch x := ds.items[i].(type) {
		case *ast.RecordDefinition:
			t, _ := d.Bag.Get(d.Name + "#" + x.Name)
			return d.fillRecord(t.(*Record), x)
		case *ast.OrType:
			t, _ := d.Bag.Get(d.Name + "#" + x.Name)
			return d.fillOrType(t.(*OrType), x)
		case *ast.Map:
			return newError(KindError, d.Name, x.LineNumber, "map %s: map kinds are not supported", x.Name)
		}

	case phaseSignatures:
		switch ds.items[i].(type) {
		case *ast.Function, *ast.ComponentDefinition, *ast.WebComponentDefinition:
			return s.convertItem(ds, i)
		}

	case phaseBodies:
		switch x := ds.items[i].(type) {
		case *ast.Variable:
			return s.convertItem(ds, i)
		case *ast.ComponentDefinition:
			return s.convertBody(ds, i, x)
		case *ast.ComponentInvocation:
			if d.Name != s.id {
				return nil
			}
			c, err := d.componentFromAST(x, scope{})
			if err != nil {
				return err
			}
			ds.tree = append(ds.tree, c)
		}
	}
	return nil
}

// scan registers names and resolves imports.
func (s *State) scan(ds *docState, i int) error {
	d := ds.tdoc
	switch x := ds.items[i].(type) {
	case *ast.Import:
		if existing, ok := d.Aliases[x.Alias]; ok && existing != x.Module {
			return wrapError(ResolutionError, ErrDuplicate, d.Name, x.LineNumber, "alias %s already refers to %s", x.Alias, existing)
		}
		d.Aliases[x.Alias] = x.Module
		if x.Module == KernelModule {
			return nil
		}
		if imported, ok := s.docs[x.Module]; ok {
			if imported.phase != phaseDone {
				return wrapError(ResolutionError, ErrCyclicDefinition, d.Name, x.LineNumber, "%s and %s import each other", d.Name, x.Module)
			}
			return nil
		}
		return &stuckError{kind: stuckOnImport, module: x.Module, line: x.LineNumber}
	case *ast.RecordDefinition:
		if err := s.declare(ds, x.Name, i, x.LineNumber); err != nil {
			return err
		}
		name := d.Name + "#" + x.Name
		d.Bag.Insert(name, &Record{Name: name, LineNumber: x.LineNumber})
		ds.records = append(ds.records, name)
		ds.converted[i] = true
	case *ast.OrType:
		if err := s.declare(ds, x.Name, i, x.LineNumber); err != nil {
			return err
		}
		name := d.Name + "#" + x.Name
		d.Bag.Insert(name, &OrType{Name: name, LineNumber: x.LineNumber})
		ds.converted[i] = true
	case *ast.Map:
		return s.declare(ds, x.Name, i, x.LineNumber)
	case *ast.Function:
		return s.declare(ds, x.Name, i, x.LineNumber)
	case *ast.ComponentDefinition:
		return s.declare(ds, x.Name, i, x.LineNumber)
	case *ast.WebComponentDefinition:
		return s.declare(ds, x.Name, i, x.LineNumber)
	case *ast.Variable:
		return s.declare(ds, x.Name, i, x.LineNumber)
	}
	return nil
}

func (s *State) declare(ds *docState, name string, i, line int) error {
	if prev, dup := ds.names[name]; dup {
		return wrapError(ResolutionError, ErrDuplicate, ds.tdoc.Name, line, "%s is already declared at line %d", name, ds.items[prev].Line())
	}
	ds.names[name] = i
	return nil
}

// convertItem converts the declaration at i unless it already is.
func (s *State) convertItem(ds *docState, i int) error {
	if ds.converted[i] {
		return nil
	}
	d := ds.tdoc
	if ds.converting[i] {
		return wrapError(ResolutionError, ErrCyclicDefinition, d.Name, ds.items[i].Line(), "cyclic definition of %s", thingName(ds.items[i]))
	}
	ds.converting[i] = true
	defer delete(ds.converting, i)

	switch x := ds.items[i].(type) {
	case *ast.Variable:
		name := d.Name + "#" + x.Name
		v, err := d.variableFromAST(x, s.processed[name])
		if err != nil {
			return err
		}
		d.Bag.Insert(v.Name, v)
	case *ast.Function:
		f, err := d.functionFromAST(x)
		if err != nil {
			return err
		}
		d.Bag.Insert(f.Name, f)
		if f.JS != "" {
			s.js = appendUnique(s.js, f.JS)
		}
	case *ast.ComponentDefinition:
		c, err := d.componentSignature(x)
		if err != nil {
			d.Bag.remove(d.Name + "#" + x.Name)
			return err
		}
		if c.CSS != "" {
			s.css = appendUnique(s.css, c.CSS)
		}
	case *ast.WebComponentDefinition:
		w, err := d.webComponentFromAST(x)
		if err != nil {
			d.Bag.remove(d.Name + "#" + x.Name)
			return err
		}
		if w.JS != "" {
			s.js = appendUnique(s.js, w.JS)
		}
	case *ast.Map:
		return newError(KindError, d.Name, x.LineNumber, "map %s: map kinds are not supported", x.Name)
	}
	ds.converted[i] = true
	return nil
}

// convertBody converts a component's root invocation. Argument
// references inside it stay `<component>.<arg>` names until execution.
func (s *State) convertBody(ds *docState, i int, x *ast.ComponentDefinition) error {
	if ds.bodies[i] || x.Definition == nil {
		return nil
	}
	d := ds.tdoc
	t, _ := d.Bag.Get(d.Name + "#" + x.Name)
	def := t.(*ComponentDefinition)
	root, err := d.componentFromAST(x.Definition, scope{})
	if err != nil {
		return err
	}
	def.Definition = root
	ds.bodies[i] = true
	return nil
}

// search is called when a lookup misses. It converts a declaration of
// the same document on demand, or suspends.
func (s *State) search(fq string, line int) error {
	docName, local := SplitName(fq)
	root, _, _ := strings.Cut(local, ".")
	ds, ok := s.docs[docName]
	if !ok {
		if docName == KernelModule || docName == "" {
			return notFound(s.id, line, fq)
		}
		return &stuckError{kind: stuckOnImport, module: docName, line: line}
	}
	if i, ok := ds.names[root]; ok && !ds.converted[i] {
		return s.convertItem(ds, i)
	}
	if s.foreign[docName][root] {
		return &stuckError{kind: stuckOnForeignVariable, module: docName, variable: docName + "#" + root, line: line}
	}
	return notFound(docName, line, fq)
}

func (s *State) document() *Document {
	main := s.docs[s.id]
	foreignFunctions := make([]string, 0)
	for _, t := range s.bag.things {
		if f, ok := t.(*Function); ok && f.IsForeign() {
			foreignFunctions = append(foreignFunctions, f.Name)
		}
	}
	sort.Strings(foreignFunctions)
	return &Document{
		Name:             s.id,
		Aliases:          main.tdoc.Aliases,
		Data:             s.bag,
		Tree:             main.tree,
		JS:               s.js,
		CSS:              s.css,
		ForeignVariables: s.supplied,
		ForeignFunctions: foreignFunctions,
	}
}

func thingName(item ast.AST) string {
	switch x := item.(type) {
	case *ast.Variable:
		return x.Name
	case *ast.Function:
		return x.Name
	case *ast.ComponentDefinition:
		return x.Name
	case *ast.WebComponentDefinition:
		return x.Name
	case *ast.RecordDefinition:
		return x.Name
	case *ast.OrType:
		return x.Name
	case *ast.Map:
		return x.Name
	}
	return fmt.Sprintf("%T", item)
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

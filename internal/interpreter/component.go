package interpreter

// ComponentSource says what an invocation name resolved to.
type ComponentSource int

const (
	// SourceDeclaration is a component or web-component declaration.
	SourceDeclaration ComponentSource = iota
	// SourceVariable is a UI-valued variable or argument.
	SourceVariable
)

// PropertySource says how an argument was supplied.
type PropertySource int

const (
	PropertyCaption PropertySource = iota
	PropertyBody
	PropertyHeader
	PropertySubsection
	PropertyDefault
)

// Component is an invocation of a component.
type Component struct {
	Name       string
	Properties []Property
	Iteration  *Loop
	Condition  *Expression
	Events     []Event
	Children   []*Component
	Source     ComponentSource
	LineNumber int
}

// Property binds one argument. Several properties may bind the same
// argument under different conditions.
type Property struct {
	Name       string
	Value      PropertyValue
	Source     PropertySource
	Mutable    bool
	Condition  *Expression
	LineNumber int
}

// Loop repeats an invocation once per item of On. Alias is the fully
// qualified name the item is bound to.
type Loop struct {
	On         PropertyValue
	Alias      string
	LineNumber int
}

// Event attaches an action to a DOM event.
type Event struct {
	Name       string
	Action     PropertyValue
	LineNumber int
}

// PropertiesFor returns the properties binding argument name, in order.
func (c *Component) PropertiesFor(name string) []Property {
	var out []Property
	for _, p := range c.Properties {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Rename returns a deep copy with every referenced name passed through fn.
// The component's own name is kept unless it is a UI variable.
func (c *Component) Rename(fn func(string) string) *Component {
	if c == nil {
		return nil
	}
	out := &Component{
		Name:       c.Name,
		Source:     c.Source,
		LineNumber: c.LineNumber,
		Condition:  c.Condition.Rename(fn),
	}
	if c.Source == SourceVariable {
		out.Name = fn(c.Name)
	}
	if c.Iteration != nil {
		out.Iteration = &Loop{On: c.Iteration.On.Rename(fn), Alias: c.Iteration.Alias, LineNumber: c.Iteration.LineNumber}
	}
	for _, p := range c.Properties {
		out.Properties = append(out.Properties, Property{
			Name:       p.Name,
			Value:      p.Value.Rename(fn),
			Source:     p.Source,
			Mutable:    p.Mutable,
			Condition:  p.Condition.Rename(fn),
			LineNumber: p.LineNumber,
		})
	}
	for _, e := range c.Events {
		out.Events = append(out.Events, Event{Name: e.Name, Action: e.Action.Rename(fn), LineNumber: e.LineNumber})
	}
	for _, child := range c.Children {
		out.Children = append(out.Children, child.Rename(fn))
	}
	return out
}

// References returns every name the invocation subtree reads.
func (c *Component) References() []string {
	if c == nil {
		return nil
	}
	var out []string
	if c.Source == SourceVariable {
		out = append(out, c.Name)
	}
	if c.Iteration != nil {
		out = c.Iteration.On.references(out)
	}
	if c.Condition != nil {
		out = append(out, c.Condition.Names()...)
	}
	for _, p := range c.Properties {
		out = p.Value.references(out)
		if p.Condition != nil {
			out = append(out, p.Condition.Names()...)
		}
	}
	for _, e := range c.Events {
		out = e.Action.references(out)
	}
	for _, child := range c.Children {
		out = append(out, child.References()...)
	}
	return dedupe(out)
}

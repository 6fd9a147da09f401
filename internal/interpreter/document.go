package interpreter

// Document is a fully interpreted document: every thing it and its
// imports declare, plus the top-level invocations of the main document.
type Document struct {
	Name             string
	Aliases          map[string]string
	Data             *Bag
	Tree             []*Component
	JS               []string
	CSS              []string
	ForeignVariables []string
	ForeignFunctions []string
}

// TDoc returns a view of the document's bag from the main document.
func (d *Document) TDoc() *TDoc {
	return NewTDoc(d.Name, d.Aliases, d.Data)
}

// Variable returns the variable named name, resolved from the main
// document.
func (d *Document) Variable(name string) (*Variable, bool) {
	t, ok := d.Data.Get(d.TDoc().ResolveName(name))
	if !ok {
		return nil, false
	}
	v, ok := t.(*Variable)
	return v, ok
}

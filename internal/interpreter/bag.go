package interpreter

import "strings"

// Bag maps fully qualified names to things, remembering insertion order.
type Bag struct {
	keys   []string
	things map[string]Thing
}

// NewBag creates an empty bag.
func NewBag() *Bag {
	return &Bag{things: make(map[string]Thing)}
}

// Get returns the thing stored under name.
func (b *Bag) Get(name string) (Thing, bool) {
	t, ok := b.things[name]
	return t, ok
}

// Has reports whether name is present.
func (b *Bag) Has(name string) bool {
	_, ok := b.things[name]
	return ok
}

// Insert stores t under name. Replacing keeps the original position.
func (b *Bag) Insert(name string, t Thing) {
	if _, ok := b.things[name]; !ok {
		b.keys = append(b.keys, name)
	}
	b.things[name] = t
}

// Keys returns the names in insertion order.
func (b *Bag) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len is the number of things.
func (b *Bag) Len() int { return len(b.keys) }

// Variables returns every variable in insertion order.
func (b *Bag) Variables() []*Variable {
	var out []*Variable
	for _, k := range b.keys {
		if v, ok := b.things[k].(*Variable); ok {
			out = append(out, v)
		}
	}
	return out
}

// Clone copies the bag. Variables are deep copied so the clone can be
// mutated; declarations are shared.
func (b *Bag) Clone() *Bag {
	out := &Bag{
		keys:   make([]string, len(b.keys)),
		things: make(map[string]Thing, len(b.things)),
	}
	copy(out.keys, b.keys)
	for k, t := range b.things {
		if v, ok := t.(*Variable); ok {
			t = copyVariable(v)
		}
		out.things[k] = t
	}
	return out
}

// Merge inserts every thing of other not already present.
func (b *Bag) Merge(other *Bag) {
	for _, k := range other.keys {
		if !b.Has(k) {
			b.Insert(k, other.things[k])
		}
	}
}

// Lookup finds the longest dotted prefix of a fully qualified name that
// is in the bag and returns the thing with the remaining path.
func (b *Bag) Lookup(name string) (Thing, string, bool) {
	doc, local, ok := strings.Cut(name, "#")
	if !ok {
		return nil, "", false
	}
	segs := strings.Split(local, ".")
	for i := len(segs); i >= 1; i-- {
		key := doc + "#" + strings.Join(segs[:i], ".")
		if t, ok := b.things[key]; ok {
			return t, strings.Join(segs[i:], "."), true
		}
	}
	return nil, "", false
}

// SplitName splits `doc#a.b.c` into doc and local part.
func SplitName(name string) (doc, local string) {
	doc, local, ok := strings.Cut(name, "#")
	if !ok {
		return "", name
	}
	return doc, local
}

func (b *Bag) remove(name string) {
	if _, ok := b.things[name]; !ok {
		return
	}
	delete(b.things, name)
	for i, k := range b.keys {
		if k == name {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

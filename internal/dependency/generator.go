// Package dependency generates the page-side script that keeps a rendered
// document in sync with its data.
package dependency

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/html"
	"github.com/saltyorg/ftd/internal/interpreter"
)

//go:embed runtime.js
var runtimeJS string

// Runtime returns the shared `window.ftd` runtime the generated script
// calls into. It is written once per page, before any document script.
func Runtime() string { return runtimeJS }

// Synthetic data keys every themed or responsive slot depends on.
const (
	DarkModeKey = interpreter.DarkModeVariable
	DeviceKey   = interpreter.DeviceVariable
)

// NodeChange is one update function.
type NodeChange struct {
	Key          string
	JS           string
	Dependencies []string
}

// Script is the generated per-document script.
type Script struct {
	ID           string
	Data         map[string]any
	NodeChanges  []NodeChange
	Dependencies map[string][]string
	// Events maps a node's data-id to its handlers by event name.
	Events map[string]map[string]string
	Rive   []executor.RiveData
	// Dummies maps a UI variable to the path keys built from it.
	Dummies map[string][]string
}

// Change returns the node change registered under key.
func (s *Script) Change(key string) (NodeChange, bool) {
	for _, c := range s.NodeChanges {
		if c.Key == key {
			return c, true
		}
	}
	return NodeChange{}, false
}

// Identifier turns a document name into the suffix of the script's
// globals.
func Identifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Generate builds the script for an executed document and its lowered
// tree.
func Generate(rt *executor.RT, root *html.Node) (*Script, error) {
	doc := rt.TDoc()
	s := &Script{
		ID:           Identifier(rt.Name),
		Dependencies: make(map[string][]string),
		Events:       make(map[string]map[string]string),
		Rive:         rt.RiveData,
		Dummies:      make(map[string][]string),
	}

	data, err := dataMap(doc)
	if err != nil {
		return nil, err
	}
	s.Data = data

	var walkErr error
	root.Walk(func(n *html.Node) {
		if walkErr != nil || n.Null || n.DataID == "" {
			return
		}
		if err := s.node(doc, n); err != nil {
			walkErr = err
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}

	for _, d := range rt.DummyInstructions {
		s.Dummies[d.Variable] = append(s.Dummies[d.Variable], executor.PathKey(d.Path))
	}
	return s, nil
}

// dataMap collects every global variable plus the locals that own their
// value.
func dataMap(doc *interpreter.TDoc) (map[string]any, error) {
	out := make(map[string]any)
	for _, v := range doc.Bag.Variables() {
		if isLocal(v.Name) && !inData(v) {
			continue
		}
		g, err := doc.ResolveToGo(interpreter.Reference(v.Name, v.Kind, false, v.LineNumber), v.LineNumber)
		if err != nil {
			return nil, fmt.Errorf("data for %s: %w", v.Name, err)
		}
		out[v.Name] = g
	}
	return out, nil
}

func (s *Script) register(key, js string, deps []string) {
	s.NodeChanges = append(s.NodeChanges, NodeChange{Key: key, JS: js, Dependencies: deps})
	for _, d := range deps {
		if !contains(s.Dependencies[d], key) {
			s.Dependencies[d] = append(s.Dependencies[d], key)
		}
	}
}

func (s *Script) node(doc *interpreter.TDoc, n *html.Node) error {
	id := strconv.Quote(n.DataID)

	if n.Condition != nil && !n.Condition.IsStatic(doc) {
		l := newLowering(doc)
		cond, err := l.condition(n.Condition)
		if err == nil {
			s.register(n.DataID+"#condition", "function (data) { window.ftd.set_visible("+id+", "+cond+"); }", l.deps)
		} else if !isUnchanged(err) {
			return err
		}
	}

	groups, order := groupSlots(n.Slots)
	for _, key := range order {
		js, deps, ok, err := slotFunction(doc, n.DataID, groups[key])
		if err != nil {
			return err
		}
		if ok {
			s.register(n.DataID+"#"+key, js, deps)
		}
	}

	for _, ev := range n.Events {
		js, err := eventFunction(doc, s.ID, ev)
		if err != nil {
			return err
		}
		if s.Events[n.DataID] == nil {
			s.Events[n.DataID] = make(map[string]string)
		}
		s.Events[n.DataID][ev.Name] = js
	}
	return nil
}

// groupSlots collects slots sharing a key, such as font-weight set both by
// role and by style words. Later slots win.
func groupSlots(slots []html.Slot) (map[string][]html.Slot, []string) {
	groups := make(map[string][]html.Slot)
	var order []string
	for _, slot := range slots {
		key := slot.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], slot)
	}
	return groups, order
}

func isDynamic(doc *interpreter.TDoc, slot html.Slot) bool {
	for _, p := range slot.Properties {
		if !p.Condition.IsStatic(doc) || !doc.IsStaticValue(p.Value) {
			return true
		}
	}
	return false
}

// slotFunction emits the update function of one slot key, or nothing when
// the slot can never change.
func slotFunction(doc *interpreter.TDoc, dataID string, slots []html.Slot) (string, []string, bool, error) {
	emit := false
	for _, slot := range slots {
		if isDynamic(doc, slot) || slot.Themed || slot.Responsive {
			emit = true
		}
	}
	if !emit {
		return "", nil, false, nil
	}

	l := newLowering(doc)
	var b strings.Builder
	b.WriteString("function (data) {\n")
	b.WriteString("  var out = window.ftd.REMOVE_KEY, v;\n")
	for _, slot := range slots {
		if err := slotBody(&b, l, slot); err != nil {
			return "", nil, false, err
		}
	}
	last := slots[len(slots)-1]
	setter := "set_text"
	args := strconv.Quote(dataID)
	switch last.Kind {
	case html.SlotStyle:
		setter = "set_style"
		args += ", " + strconv.Quote(last.Name)
	case html.SlotAttr:
		setter = "set_attr"
		args += ", " + strconv.Quote(last.Name)
	}
	fmt.Fprintf(&b, "  window.ftd.%s(%s, out);\n}", setter, args)
	return b.String(), l.deps, true, nil
}

// slotBody writes the alternatives of one slot in `if ... else if ...
// else` order. Alternatives whose value cannot be computed on the page are
// skipped.
func slotBody(b *strings.Builder, l *lowering, slot html.Slot) error {
	b.WriteString("  v = window.ftd.REMOVE_KEY;\n")

	var conditional, fallback []interpreter.Property
	for _, p := range slot.Properties {
		if p.Condition != nil {
			conditional = append(conditional, p)
		} else {
			fallback = append(fallback, p)
		}
	}

	first := true
	for _, p := range conditional {
		cond, err := l.condition(p.Condition)
		if err != nil {
			if isUnchanged(err) {
				continue
			}
			return err
		}
		value, err := l.value(p.Value)
		if err != nil {
			if isUnchanged(err) {
				continue
			}
			return err
		}
		if first {
			b.WriteString("  if (" + cond + ") {\n")
			first = false
		} else {
			b.WriteString("  } else if (" + cond + ") {\n")
		}
		b.WriteString("    v = " + value + ";\n")
	}

	var def string
	for _, p := range fallback {
		value, err := l.value(p.Value)
		if err != nil {
			if isUnchanged(err) {
				continue
			}
			return err
		}
		def = value
		break
	}
	switch {
	case first && def != "":
		b.WriteString("  v = " + def + ";\n")
	case !first && def != "":
		b.WriteString("  } else {\n    v = " + def + ";\n  }\n")
	case !first:
		b.WriteString("  }\n")
	}

	if slot.Format.IsThemed() {
		l.depend(DarkModeKey)
		b.WriteString("  v = window.ftd.pick_theme(v, " + dataJS(DarkModeKey) + ");\n")
	}
	if slot.Format.IsResponsive() {
		l.depend(DeviceKey)
		b.WriteString("  v = window.ftd.pick_device(v, " + dataJS(DeviceKey) + ");\n")
	}
	fmt.Fprintf(b, "  v = window.ftd.format(%s, v);\n", strconv.Quote(string(slot.Format)))
	b.WriteString("  if (v !== window.ftd.REMOVE_KEY) { out = v; }\n")
	return nil
}

// eventFunction emits an event handler: bind the action's arguments, run
// the function body, write mutable arguments back and propagate.
func eventFunction(doc *interpreter.TDoc, id string, ev executor.Event) (string, error) {
	l := newLowering(doc)
	call := ev.Action
	t, _, err := doc.GetThing(call.Name, ev.LineNumber)
	if err != nil {
		return "", fmt.Errorf("event %s: %w", ev.Name, err)
	}
	f, ok := t.(*interpreter.Function)
	if !ok {
		return "", fmt.Errorf("event %s: %s is not a function", ev.Name, call.Name)
	}

	var b strings.Builder
	b.WriteString("function (data, value) {\n")
	b.WriteString("  var changed = [];\n")
	args, err := l.arguments(f, call)
	if err != nil {
		return "", fmt.Errorf("event %s: %w", ev.Name, err)
	}
	b.WriteString("  var args = " + args + ";\n")

	if f.IsForeign() {
		_, local := interpreter.SplitName(f.Name)
		ordered := make([]string, 0, len(f.Arguments))
		for _, a := range f.Arguments {
			ordered = append(ordered, "args["+strconv.Quote(a.Name)+"]")
		}
		b.WriteString("  window[" + strconv.Quote(local) + "](" + strings.Join(ordered, ", ") + ");\n")
	} else {
		lines, ret, err := l.body(f)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", ev.Name, err)
		}
		for _, line := range lines {
			b.WriteString("  " + line + "\n")
		}
		if ret != "" {
			b.WriteString("  " + ret + ";\n")
		}
	}

	for _, a := range f.Arguments {
		pv, ok := call.Arg(a.Name)
		if !ok || !a.Mutable || !pv.IsReference() {
			continue
		}
		root, path, err := l.target(pv.Name)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", ev.Name, err)
		}
		fmt.Fprintf(&b, "  window.ftd.assign(data, %s, %s, args[%s]);\n", strconv.Quote(root), pathList(path), strconv.Quote(a.Name))
		fmt.Fprintf(&b, "  changed.push(%s);\n", strconv.Quote(root))
	}
	fmt.Fprintf(&b, "  window.ftd.propagate(%s, changed);\n}", strconv.Quote(id))
	return b.String(), nil
}

func pathList(path string) string {
	if path == "" {
		return "[]"
	}
	segs := strings.Split(path, ".")
	parts := make([]string, len(segs))
	for i, seg := range segs {
		if _, err := strconv.Atoi(seg); err == nil {
			parts[i] = seg
			continue
		}
		parts[i] = strconv.Quote(seg)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func isUnchanged(err error) bool {
	var u *errUnchanged
	return errors.As(err, &u)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Text renders the script.
func (s *Script) Text() (string, error) {
	var b strings.Builder

	data, err := json.Marshal(s.Data)
	if err != nil {
		return "", fmt.Errorf("failed to encode data: %w", err)
	}
	fmt.Fprintf(&b, "window.ftd_data_%s = %s;\n", s.ID, data)

	fmt.Fprintf(&b, "window.node_change_%s = {\n", s.ID)
	for _, c := range s.NodeChanges {
		fmt.Fprintf(&b, "%s: %s,\n", strconv.Quote(c.Key), c.JS)
	}
	b.WriteString("};\n")

	deps := make(map[string][]string, len(s.Dependencies))
	for k, v := range s.Dependencies {
		sorted := append([]string(nil), v...)
		sort.Strings(sorted)
		deps[k] = sorted
	}
	encoded, err := json.Marshal(deps)
	if err != nil {
		return "", fmt.Errorf("failed to encode dependencies: %w", err)
	}
	fmt.Fprintf(&b, "window.dependencies_%s = %s;\n", s.ID, encoded)

	fmt.Fprintf(&b, "window.ftd_events_%s = {\n", s.ID)
	ids := make([]string, 0, len(s.Events))
	for id := range s.Events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "%s: {\n", strconv.Quote(id))
		names := make([]string, 0, len(s.Events[id]))
		for name := range s.Events[id] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "%s: %s,\n", strconv.Quote(name), s.Events[id][name])
		}
		b.WriteString("},\n")
	}
	b.WriteString("};\n")

	rive := make([]map[string]any, 0, len(s.Rive))
	for _, r := range s.Rive {
		rive = append(rive, map[string]any{
			"id":             r.ID,
			"src":            r.Src,
			"state_machines": r.StateMachines,
			"autoplay":       r.Autoplay,
			"artboard":       r.Artboard,
		})
	}
	encoded, err = json.Marshal(rive)
	if err != nil {
		return "", fmt.Errorf("failed to encode rive data: %w", err)
	}
	fmt.Fprintf(&b, "window.ftd_rive_%s = %s;\n", s.ID, encoded)

	encoded, err = json.Marshal(s.Dummies)
	if err != nil {
		return "", fmt.Errorf("failed to encode dummies: %w", err)
	}
	fmt.Fprintf(&b, "window.ftd_dummies_%s = %s;\n", s.ID, encoded)
	fmt.Fprintf(&b, "window.ftd.init(%s);\n", strconv.Quote(s.ID))
	return b.String(), nil
}

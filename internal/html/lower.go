package html

import (
	"encoding/json"
	"strconv"

	"github.com/saltyorg/ftd/internal/executor"
)

// Lower maps the executed tree to HTML nodes for the options the tree was
// executed with.
func Lower(rt *executor.RT) *Node {
	return lower(rt.Main, rt.Options)
}

func lower(el executor.Element, opts executor.Options) *Node {
	if n, ok := el.(*executor.Null); ok {
		if n.Hidden == nil {
			return &Node{Null: true, DataID: n.DataID(), Element: n}
		}
		node := lower(n.Hidden, opts)
		node.Hidden = true
		node.Condition = n.Condition
		return node
	}

	base := el.Base()
	node := &Node{
		Tag:       "div",
		DataID:    base.DataID(),
		Style:     make(map[string]string),
		Attrs:     make(map[string]string),
		Condition: base.Condition,
		Events:    base.Events,
		Element:   el,
		Slots:     Slots(el, opts),
	}

	switch x := el.(type) {
	case *executor.Row:
		node.Classes = append(node.Classes, "ftd-row")
		node.Style["display"] = "flex"
		node.Style["flex-direction"] = "row"
		node.Style["align-items"] = "flex-start"
	case *executor.Column:
		node.Classes = append(node.Classes, "ftd-column")
		node.Style["display"] = "flex"
		node.Style["flex-direction"] = "column"
		node.Style["align-items"] = "flex-start"
	case *executor.Container:
		node.Classes = append(node.Classes, "ftd-container")
	case *executor.Document:
		node.Classes = append(node.Classes, "ftd-document")
		node.Style["width"] = "100%"
		node.Style["min-height"] = "100vh"
	case *executor.Text:
		node.Classes = append(node.Classes, "ftd-text")
		if x.LineClamp.Value != nil {
			node.Style["display"] = "-webkit-box"
			node.Style["-webkit-box-orient"] = "vertical"
			node.Style["overflow"] = "hidden"
		}
	case *executor.Integer, *executor.Decimal, *executor.Boolean:
		node.Classes = append(node.Classes, "ftd-text")
	case *executor.Code:
		node.Tag = "pre"
		node.Classes = append(node.Classes, "ftd-code", "language-"+x.Lang.Value)
	case *executor.Image:
		node.Tag = "img"
	case *executor.Iframe:
		node.Tag = "iframe"
		node.Attrs["allowfullscreen"] = ""
		node.Attrs["allow"] = "fullscreen"
		node.Style["border"] = "0"
	case *executor.TextInput:
		node.Tag = "input"
		if x.Multiline.Value != nil && *x.Multiline.Value {
			node.Tag = "textarea"
		}
	case *executor.CheckBox:
		node.Tag = "input"
		node.Attrs["type"] = "checkbox"
	case *executor.Rive:
		node.Tag = "canvas"
		node.Attrs["id"] = "rive-" + sanitizeID(base.DataID())
	case *executor.WebComponent:
		node.Tag = x.Tag
	}

	if region := regionTag(base.Region.Value); region != "" {
		node.Tag = region
	}
	if base.Anchor.Value != nil {
		switch *base.Anchor.Value {
		case "window":
			node.Style["position"] = "fixed"
		case "parent":
			node.Style["position"] = "absolute"
		}
	}

	for _, s := range node.Slots {
		if !s.Set {
			continue
		}
		switch s.Kind {
		case SlotText:
			node.Text = s.Value
		case SlotStyle:
			node.Style[s.Name] = s.Value
		case SlotAttr:
			node.Attrs[s.Name] = s.Value
		}
	}
	if node.Attrs["class"] != "" {
		node.Classes = append(node.Classes, node.Attrs["class"])
		delete(node.Attrs, "class")
	}

	if _, ok := node.Attrs["href"]; ok {
		node = linkWrap(node)
	}

	for _, child := range executor.Children(el) {
		node.Children = append(node.Children, lower(child, opts))
	}
	return node
}

// innerSuffix marks the data-id of an element wrapped in a link anchor.
// The anchor takes the element's own data-id.
const innerSuffix = "@inner"

// linkWrap turns a linked node into an anchor. Images and void elements
// keep their tag and are wrapped in an `a`, which takes over the node's
// data-id, condition, events and link slots so updates to the link reach
// the anchor.
func linkWrap(node *Node) *Node {
	if node.Tag == "div" {
		node.Tag = "a"
		return node
	}
	a := &Node{
		Tag:       "a",
		DataID:    node.DataID,
		Attrs:     map[string]string{},
		Style:     map[string]string{},
		Condition: node.Condition,
		Events:    node.Events,
		Element:   node.Element,
		Children:  []*Node{node},
	}
	for _, name := range []string{"href", "target"} {
		if v, ok := node.Attrs[name]; ok {
			a.Attrs[name] = v
			delete(node.Attrs, name)
		}
	}
	var rest []Slot
	for _, s := range node.Slots {
		if s.Kind == SlotAttr && (s.Name == "href" || s.Name == "target") {
			a.Slots = append(a.Slots, s)
			continue
		}
		rest = append(rest, s)
	}
	node.Slots = rest
	if node.DataID != "" {
		node.DataID += innerSuffix
	}
	node.Condition = nil
	node.Events = nil
	return a
}

func regionTag(region *string) string {
	if region == nil {
		return ""
	}
	switch r := *region; r {
	case "main", "header", "footer", "nav", "aside", "section", "article":
		return r
	case "title":
		return "h1"
	case "h0":
		return "h1"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return r
	}
	return ""
}

func sanitizeID(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			out = append(out, c)
		} else {
			out = append(out, '-')
		}
	}
	return string(out)
}

// attrValue renders a web-component argument as an attribute value.
// Strings stay as they are; everything else is JSON.
func attrValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

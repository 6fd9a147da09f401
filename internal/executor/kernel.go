package executor

import (
	"strings"

	"github.com/saltyorg/ftd/internal/expr"
	"github.com/saltyorg/ftd/internal/interpreter"
)

// binder reads the arguments of one kernel or web-component invocation.
// The first failure is kept in err and later reads return zero values,
// so a builder checks once at the end.
type binder struct {
	e    *executor
	name string
	args []interpreter.Field
	c    *interpreter.Component
	err  error
}

// slot resolves an argument: the first conditional property whose
// condition holds, else the unconditional property, else the default.
// The returned properties include the default when it applies.
func (b *binder) slot(name string) (interpreter.Value, []interpreter.Property) {
	if b.err != nil {
		return nil, nil
	}
	f, ok := interpreter.FieldByName(b.args, name)
	if !ok {
		b.err = b.e.errorf(b.c.LineNumber, "%s has no argument %s", b.name, name)
		return nil, nil
	}

	props := b.c.PropertiesFor(name)
	var chosen, primary *interpreter.PropertyValue
	for i := range props {
		p := props[i]
		if p.Condition == nil {
			primary = &p.Value
			continue
		}
		if chosen != nil {
			continue
		}
		ok, err := p.Condition.Eval(b.e.doc)
		if err != nil {
			b.err = err
			return nil, nil
		}
		if ok {
			chosen = &p.Value
		}
	}
	if primary == nil && f.Default != nil {
		primary = f.Default
		props = append(props, interpreter.Property{
			Name:       name,
			Value:      *f.Default,
			Source:     interpreter.PropertyDefault,
			LineNumber: f.LineNumber,
		})
	}

	pick := chosen
	if pick == nil {
		pick = primary
	}
	if pick == nil {
		return &interpreter.NoneValue{Of: f.Kind.Kind}, props
	}
	v, err := b.e.doc.Resolve(*pick, b.c.LineNumber)
	if err != nil {
		b.err = err
		return nil, nil
	}
	return v, props
}

func (b *binder) goValue(name string) (any, []interpreter.Property) {
	v, props := b.slot(name)
	if b.err != nil {
		return nil, nil
	}
	g, err := b.e.doc.ToGo(v, b.c.LineNumber)
	if err != nil {
		b.err = err
		return nil, nil
	}
	return g, props
}

// bind reads an argument and converts it with conv. A missing value
// leaves the zero T.
func bind[T any](b *binder, name string, conv func(any) (T, bool)) Value[T] {
	g, props := b.goValue(name)
	out := Value[T]{Properties: props, LineNumber: b.c.LineNumber}
	if b.err != nil || g == nil {
		return out
	}
	v, ok := conv(g)
	if !ok {
		b.err = b.e.errorf(b.c.LineNumber, "%s: argument %s: unexpected value %v", b.name, name, g)
		return out
	}
	out.Value = v
	return out
}

func asAny(v any) (any, bool) { return v, true }

func asString(v any) (string, bool) {
	switch v.(type) {
	case string, int64, float64, bool:
		return expr.Format(v), true
	}
	return "", false
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	x, ok := v.(bool)
	return x, ok
}

func asStrings(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := asString(item)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// ptr lifts a converter to an optional value.
func ptr[T any](conv func(any) (T, bool)) func(any) (*T, bool) {
	return func(v any) (*T, bool) {
		x, ok := conv(v)
		if !ok {
			return nil, false
		}
		return &x, true
	}
}

func asLength(v any) (*Length, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	variant, _ := m[interpreter.VariantKey].(string)
	if variant == "" {
		return nil, false
	}
	return &Length{Variant: variant, Value: m["value"]}, true
}

func lightDark(v any) (string, string, bool) {
	if s, ok := v.(string); ok {
		return s, "", true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return "", "", false
	}
	light, _ := m["light"].(string)
	dark, _ := m["dark"].(string)
	return light, dark, true
}

func asColor(v any) (*Color, bool) {
	light, dark, ok := lightDark(v)
	if !ok {
		return nil, false
	}
	return &Color{Light: light, Dark: dark}, true
}

func asImageSrc(v any) (ImageSrc, bool) {
	light, dark, ok := lightDark(v)
	return ImageSrc{Light: light, Dark: dark}, ok
}

func asType(v any) (Type, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Type{}, false
	}
	var t Type
	if x, ok := asInt(m["size"]); ok {
		t.Size = &x
	}
	if x, ok := asInt(m["weight"]); ok {
		t.Weight = &x
	}
	if x, ok := asInt(m["line-height"]); ok {
		t.LineHeight = &x
	}
	if x, ok := m["font-family"].(string); ok {
		t.FontFamily = &x
	}
	return t, true
}

func asResponsiveType(v any) (*ResponsiveType, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	desktop, ok := asType(m["desktop"])
	if !ok {
		return nil, false
	}
	r := &ResponsiveType{Desktop: desktop}
	if m["mobile"] != nil {
		mobile, ok := asType(m["mobile"])
		if !ok {
			return nil, false
		}
		r.Mobile = &mobile
	}
	return r, true
}

// kernel lowers a kernel component invocation to its element.
func (e *executor) kernel(def *interpreter.ComponentDefinition, c *interpreter.Component, path []int, device string) (Element, error) {
	b := &binder{e: e, name: def.Name, args: def.Arguments, c: c}
	name := strings.TrimPrefix(def.Name, interpreter.KernelModule+"#")

	var el Element
	switch name {
	case "text":
		el = &Text{
			Common:    e.common(b, c, path),
			Text:      bind(b, "text", asString),
			Role:      bind(b, "role", asResponsiveType),
			Style:     bind(b, "style", ptr(asString)),
			TextAlign: bind(b, "text-align", ptr(asString)),
			LineClamp: bind(b, "line-clamp", ptr(asInt)),
		}
	case "integer":
		el = &Integer{
			Common:    e.common(b, c, path),
			Value:     bind(b, "value", asInt),
			Role:      bind(b, "role", asResponsiveType),
			TextAlign: bind(b, "text-align", ptr(asString)),
		}
	case "decimal":
		el = &Decimal{
			Common:    e.common(b, c, path),
			Value:     bind(b, "value", asFloat),
			Role:      bind(b, "role", asResponsiveType),
			TextAlign: bind(b, "text-align", ptr(asString)),
		}
	case "boolean":
		el = &Boolean{
			Common:    e.common(b, c, path),
			Value:     bind(b, "value", asBool),
			Role:      bind(b, "role", asResponsiveType),
			TextAlign: bind(b, "text-align", ptr(asString)),
		}
	case "image":
		el = &Image{
			Common: e.common(b, c, path),
			Src:    bind(b, "src", asImageSrc),
			Alt:    bind(b, "alt", ptr(asString)),
			Fit:    bind(b, "fit", ptr(asString)),
		}
	case "code":
		el = &Code{
			Common: e.common(b, c, path),
			Text:   bind(b, "text", asString),
			Lang:   bind(b, "lang", asString),
			Role:   bind(b, "role", asResponsiveType),
		}
	case "iframe":
		x := &Iframe{
			Common:  e.common(b, c, path),
			Src:     bind(b, "src", ptr(asString)),
			YouTube: bind(b, "youtube", ptr(asString)),
			SrcDoc:  bind(b, "srcdoc", ptr(asString)),
			Loading: bind(b, "loading", ptr(asString)),
		}
		sources := 0
		for _, s := range []*string{x.Src.Value, x.YouTube.Value, x.SrcDoc.Value} {
			if s != nil {
				sources++
			}
		}
		if b.err == nil && sources != 1 {
			return nil, e.errorf(c.LineNumber, "ftd.iframe needs exactly one of src, youtube and srcdoc")
		}
		el = x
	case "text-input":
		el = &TextInput{
			Common:       e.common(b, c, path),
			Placeholder:  bind(b, "placeholder", ptr(asString)),
			Value:        bind(b, "value", ptr(asString)),
			DefaultValue: bind(b, "default-value", ptr(asString)),
			Multiline:    bind(b, "multiline", ptr(asBool)),
			Enabled:      bind(b, "enabled", ptr(asBool)),
			Type:         bind(b, "type", ptr(asString)),
		}
	case "checkbox":
		el = &CheckBox{
			Common:  e.common(b, c, path),
			Checked: bind(b, "checked", ptr(asBool)),
			Enabled: bind(b, "enabled", ptr(asBool)),
		}
	case "rive":
		x := &Rive{
			Common:        e.common(b, c, path),
			Src:           bind(b, "src", asString),
			StateMachines: bind(b, "state-machine", asStrings),
			Autoplay:      bind(b, "autoplay", asBool),
			Artboard:      bind(b, "artboard", ptr(asString)),
			CanvasWidth:   bind(b, "canvas-width", ptr(asInt)),
			CanvasHeight:  bind(b, "canvas-height", ptr(asInt)),
		}
		rive := RiveData{
			ID:            x.DataID(),
			Src:           x.Src.Value,
			StateMachines: x.StateMachines.Value,
			Autoplay:      x.Autoplay.Value,
		}
		if x.Artboard.Value != nil {
			rive.Artboard = *x.Artboard.Value
		}
		e.rt.RiveData = append(e.rt.RiveData, rive)
		el = x
	case "row", "column", "container":
		common := e.common(b, c, path)
		cc := ContainerCommon{
			Spacing:      bind(b, "spacing", asLength),
			Wrap:         bind(b, "wrap", ptr(asBool)),
			AlignContent: bind(b, "align-content", ptr(asString)),
		}
		if b.err != nil {
			return nil, b.err
		}
		children, err := e.children(c, path, device)
		if err != nil {
			return nil, err
		}
		cc.Children = children
		switch name {
		case "row":
			el = &Row{Common: common, ContainerCommon: cc}
		case "column":
			el = &Column{Common: common, ContainerCommon: cc}
		default:
			el = &Container{Common: common, ContainerCommon: cc}
		}
	case "document":
		return e.document(b, c, path, device)
	case "desktop", "mobile":
		return nil, e.errorf(c.LineNumber, "ftd.%s cannot be held in a variable", name)
	default:
		return nil, e.errorf(c.LineNumber, "unknown kernel component %s", def.Name)
	}

	if b.err != nil {
		return nil, b.err
	}
	return el, nil
}

// common reads the arguments shared by every visible kernel component.
func (e *executor) common(b *binder, c *interpreter.Component, path []int) Common {
	common := e.baseCommon(c, path)
	common.ID = bind(b, "id", ptr(asString))
	common.Classes = bind(b, "classes", ptr(asString))
	common.Region = bind(b, "region", ptr(asString))
	common.Anchor = bind(b, "anchor", ptr(asString))

	common.Padding = bind(b, "padding", asLength)
	common.PaddingHorizontal = bind(b, "padding-horizontal", asLength)
	common.PaddingVertical = bind(b, "padding-vertical", asLength)
	common.Margin = bind(b, "margin", asLength)
	common.MarginHorizontal = bind(b, "margin-horizontal", asLength)
	common.MarginVertical = bind(b, "margin-vertical", asLength)

	common.Width = bind(b, "width", asLength)
	common.Height = bind(b, "height", asLength)
	common.MinWidth = bind(b, "min-width", asLength)
	common.MaxWidth = bind(b, "max-width", asLength)
	common.MinHeight = bind(b, "min-height", asLength)
	common.MaxHeight = bind(b, "max-height", asLength)

	common.Color = bind(b, "color", asColor)
	common.BackgroundColor = bind(b, "background-color", asColor)
	common.BorderColor = bind(b, "border-color", asColor)
	common.BorderWidth = bind(b, "border-width", asLength)
	common.BorderRadius = bind(b, "border-radius", asLength)
	common.BorderStyle = bind(b, "border-style", ptr(asString))

	common.Link = bind(b, "link", ptr(asString))
	common.OpenInNewTab = bind(b, "open-in-new-tab", ptr(asBool))

	common.AlignSelf = bind(b, "align-self", ptr(asString))
	common.Top = bind(b, "top", asLength)
	common.Bottom = bind(b, "bottom", asLength)
	common.Left = bind(b, "left", asLength)
	common.Right = bind(b, "right", asLength)
	common.ZIndex = bind(b, "z-index", ptr(asInt))
	common.Opacity = bind(b, "opacity", ptr(asFloat))
	common.Overflow = bind(b, "overflow", ptr(asString))
	common.Cursor = bind(b, "cursor", ptr(asString))
	return common
}

// children expands the children sections of a container followed by any
// UI values bound to its children argument.
func (e *executor) children(c *interpreter.Component, path []int, device string) ([]Element, error) {
	comps := append([]*interpreter.Component(nil), c.Children...)
	for _, p := range c.PropertiesFor("children") {
		if p.Condition != nil {
			ok, err := p.Condition.Eval(e.doc)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		more, err := e.uiList(p.Value, p.LineNumber)
		if err != nil {
			return nil, err
		}
		comps = append(comps, more...)
	}

	var out []Element
	next := 0
	for _, child := range comps {
		els, err := e.expand(child, path, &next, device)
		if err != nil {
			return nil, err
		}
		out = append(out, els...)
	}
	return out, nil
}

// document lowers ftd.document, which is only valid as the single root.
func (e *executor) document(b *binder, c *interpreter.Component, path []int, device string) (Element, error) {
	if len(path) != 1 || !e.single {
		return nil, e.errorf(c.LineNumber, "ftd.document must be the only top-level component")
	}
	if c.Condition != nil || len(c.Events) > 0 {
		return nil, e.errorf(c.LineNumber, "ftd.document takes no condition or events")
	}
	d := &Document{
		Common:          e.baseCommon(c, path),
		Title:           bind(b, "title", ptr(asString)),
		Description:     bind(b, "description", ptr(asString)),
		OGImage:         bind(b, "og-image", ptr(asImageSrc)),
		ThemeColor:      bind(b, "theme-color", asColor),
		BackgroundColor: bind(b, "background-color", asColor),
		Breakpoint:      bind(b, "breakpoint", ptr(asInt)),
	}
	if b.err != nil {
		return nil, b.err
	}
	children, err := e.children(c, path, device)
	if err != nil {
		return nil, err
	}
	d.Children = children
	e.rt.HTMLData = HTMLData{
		Title:           d.Title.Value,
		Description:     d.Description.Value,
		OGImage:         d.OGImage.Value,
		ThemeColor:      d.ThemeColor.Value,
		BackgroundColor: d.BackgroundColor.Value,
		Breakpoint:      d.Breakpoint.Value,
	}
	return d, nil
}

// webComponent binds every argument of a custom element.
func (e *executor) webComponent(def *interpreter.WebComponent, c *interpreter.Component, path []int) (Element, error) {
	b := &binder{e: e, name: def.Name, args: def.Arguments, c: c}
	_, local := interpreter.SplitName(def.Name)
	wc := &WebComponent{
		Common:     e.baseCommon(c, path),
		Name:       def.Name,
		Tag:        local,
		Properties: make(map[string]Value[any], len(def.Arguments)),
	}
	for _, f := range def.Arguments {
		wc.Properties[f.Name] = bind(b, f.Name, asAny)
	}
	if b.err != nil {
		return nil, b.err
	}
	return wc, nil
}

package executor

import (
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/interpreter"
)

// Element is one node of the executed tree.
type Element interface {
	Base() *Common
}

// Value is a resolved argument together with the properties it was
// resolved from. The dependency generator re-evaluates the properties on
// the page when the data they read changes.
type Value[T any] struct {
	Value      T
	Properties []interpreter.Property
	LineNumber int
}

// IsDynamic reports whether the value can change after rendering.
func (v Value[T]) IsDynamic(doc *interpreter.TDoc) bool {
	for _, p := range v.Properties {
		if p.Condition != nil && !p.Condition.IsStatic(doc) {
			return true
		}
		if !doc.IsStaticValue(p.Value) {
			return true
		}
	}
	return false
}

// Event is an event handler attached to an element.
type Event struct {
	Name       string
	Action     interpreter.PropertyValue
	LineNumber int
}

// Common holds what every element carries: identity, visibility, events
// and the layout, colour and border arguments shared by kernel components.
type Common struct {
	DocID      string
	Path       []int
	Component  string
	LineNumber int
	Condition  *interpreter.Expression
	Events     []Event
	IsDummy    bool

	ID      Value[*string]
	Classes Value[*string]
	Region  Value[*string]
	Anchor  Value[*string]

	Padding           Value[*Length]
	PaddingHorizontal Value[*Length]
	PaddingVertical   Value[*Length]
	Margin            Value[*Length]
	MarginHorizontal  Value[*Length]
	MarginVertical    Value[*Length]

	Width     Value[*Length]
	Height    Value[*Length]
	MinWidth  Value[*Length]
	MaxWidth  Value[*Length]
	MinHeight Value[*Length]
	MaxHeight Value[*Length]

	Color           Value[*Color]
	BackgroundColor Value[*Color]
	BorderColor     Value[*Color]
	BorderWidth     Value[*Length]
	BorderRadius    Value[*Length]
	BorderStyle     Value[*string]

	Link         Value[*string]
	OpenInNewTab Value[*bool]

	AlignSelf Value[*string]
	Top       Value[*Length]
	Bottom    Value[*Length]
	Left      Value[*Length]
	Right     Value[*Length]
	ZIndex    Value[*int64]
	Opacity   Value[*float64]
	Overflow  Value[*string]
	Cursor    Value[*string]
}

// Base returns the common block.
func (c *Common) Base() *Common { return c }

// PathKey is the comma-joined container path, e.g. "0,2,1".
func (c *Common) PathKey() string { return PathKey(c.Path) }

// DataID identifies the element on the page: `<path>:<doc>`.
func (c *Common) DataID() string { return c.PathKey() + ":" + c.DocID }

// PathKey joins a container path.
func PathKey(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// ContainerCommon is shared by row, column and container.
type ContainerCommon struct {
	Spacing      Value[*Length]
	Wrap         Value[*bool]
	AlignContent Value[*string]
	Children     []Element
}

type Row struct {
	Common
	ContainerCommon
}

type Column struct {
	Common
	ContainerCommon
}

type Container struct {
	Common
	ContainerCommon
}

// Document is `ftd.document`, only valid as the single root.
type Document struct {
	Common
	Title           Value[*string]
	Description     Value[*string]
	OGImage         Value[*ImageSrc]
	ThemeColor      Value[*Color]
	BackgroundColor Value[*Color]
	Breakpoint      Value[*int64]
	Children        []Element
}

type Text struct {
	Common
	Text      Value[string]
	Role      Value[*ResponsiveType]
	Style     Value[*string]
	TextAlign Value[*string]
	LineClamp Value[*int64]
}

type Integer struct {
	Common
	Value     Value[int64]
	Role      Value[*ResponsiveType]
	TextAlign Value[*string]
}

type Decimal struct {
	Common
	Value     Value[float64]
	Role      Value[*ResponsiveType]
	TextAlign Value[*string]
}

type Boolean struct {
	Common
	Value     Value[bool]
	Role      Value[*ResponsiveType]
	TextAlign Value[*string]
}

type Image struct {
	Common
	Src Value[ImageSrc]
	Alt Value[*string]
	Fit Value[*string]
}

type Code struct {
	Common
	Text Value[string]
	Lang Value[string]
	Role Value[*ResponsiveType]
}

type Iframe struct {
	Common
	Src     Value[*string]
	YouTube Value[*string]
	SrcDoc  Value[*string]
	Loading Value[*string]
}

type TextInput struct {
	Common
	Placeholder  Value[*string]
	Value        Value[*string]
	DefaultValue Value[*string]
	Multiline    Value[*bool]
	Enabled      Value[*bool]
	Type         Value[*string]
}

type CheckBox struct {
	Common
	Checked Value[*bool]
	Enabled Value[*bool]
}

type Rive struct {
	Common
	Src           Value[string]
	StateMachines Value[[]string]
	Autoplay      Value[bool]
	Artboard      Value[*string]
	CanvasWidth   Value[*int64]
	CanvasHeight  Value[*int64]
}

// WebComponent is a custom element; Properties holds every argument.
type WebComponent struct {
	Common
	Name       string
	Tag        string
	Properties map[string]Value[any]
}

// Null stands for an element that is not shown. A dynamic condition keeps
// the hidden element so the page can show it later.
type Null struct {
	Common
	Hidden Element
}

// Children returns the child elements of containers and documents.
func Children(e Element) []Element {
	switch x := e.(type) {
	case *Row:
		return x.Children
	case *Column:
		return x.Children
	case *Container:
		return x.Children
	case *Document:
		return x.Children
	}
	return nil
}

// Length is a value of the ftd.length or-type.
type Length struct {
	Variant string
	Value   any
}

// CSS renders the length as a CSS value.
func (l *Length) CSS() string {
	switch l.Variant {
	case "px":
		return formatNumber(l.Value) + "px"
	case "percent":
		return formatNumber(l.Value) + "%"
	case "fill-container":
		return "100%"
	case "hug-content":
		return "fit-content"
	case "calc":
		return "calc(" + formatNumber(l.Value) + ")"
	}
	return ""
}

// Color is a value of the ftd.color record. Dark falls back to Light.
type Color struct {
	Light string
	Dark  string
}

// For returns the colour to use in the given mode.
func (c *Color) For(dark bool) string {
	if dark && c.Dark != "" {
		return c.Dark
	}
	return c.Light
}

// ImageSrc is a value of the ftd.image-src record.
type ImageSrc struct {
	Light string
	Dark  string
}

// For returns the source to use in the given mode.
func (s ImageSrc) For(dark bool) string {
	if dark && s.Dark != "" {
		return s.Dark
	}
	return s.Light
}

// Type is a value of the ftd.type record.
type Type struct {
	Size       *int64
	Weight     *int64
	LineHeight *int64
	FontFamily *string
}

// ResponsiveType is a value of the ftd.responsive-type record.
type ResponsiveType struct {
	Desktop Type
	Mobile  *Type
}

// For returns the type to use on device.
func (r *ResponsiveType) For(device string) Type {
	if device == interpreter.DeviceMobile && r.Mobile != nil {
		return *r.Mobile
	}
	return r.Desktop
}

func formatNumber(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case nil:
		return ""
	}
	return ""
}

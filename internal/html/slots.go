package html

import (
	"strconv"
	"strings"

	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/interpreter"
)

// SlotKind says where a slot's value lands on the node.
type SlotKind int

const (
	SlotText SlotKind = iota
	SlotStyle
	SlotAttr
)

// Format names the page-side formatter that turns a data value into the
// slot's string. The runtime script defines one function per format.
type Format string

const (
	FormatString     Format = "string"
	FormatNumber     Format = "number"
	FormatPx         Format = "px"
	FormatLength     Format = "length"
	FormatColor      Format = "color"
	FormatImageSrc   Format = "image_src"
	FormatFlag       Format = "flag"
	FormatNotFlag    Format = "not_flag"
	FormatYouTube    Format = "youtube"
	FormatTypeSize   Format = "type_size"
	FormatTypeWeight Format = "type_weight"
	FormatTypeHeight Format = "type_line_height"
	FormatTypeFamily Format = "type_font_family"
	FormatWeightWord Format = "weight_word"
	FormatStyleWord  Format = "style_word"
	FormatDecoration Format = "decoration_word"
	FormatClamp      Format = "clamp"
	FormatJSON       Format = "json"
)

// IsThemed reports whether values of the format carry a dark variant.
func (f Format) IsThemed() bool { return f == FormatColor || f == FormatImageSrc }

// IsResponsive reports whether values of the format carry a mobile
// variant.
func (f Format) IsResponsive() bool {
	switch f {
	case FormatTypeSize, FormatTypeWeight, FormatTypeHeight, FormatTypeFamily:
		return true
	}
	return false
}

// Slot is one text, style or attribute value of a node together with the
// properties it was computed from.
type Slot struct {
	Kind       SlotKind
	Name       string
	Format     Format
	Value      string
	Set        bool
	Properties []interpreter.Property
	// Themed and Responsive are set when the current value differs
	// between light and dark mode or between desktop and mobile.
	Themed     bool
	Responsive bool
}

// Key is the slot's suffix in node-change keys: `text`, `style.<css>` or
// `attr.<name>`.
func (s Slot) Key() string {
	switch s.Kind {
	case SlotStyle:
		return "style." + s.Name
	case SlotAttr:
		return "attr." + s.Name
	}
	return "text"
}

type slots struct {
	out  []Slot
	opts executor.Options
}

func (s *slots) add(kind SlotKind, name string, f Format, props []interpreter.Property, value string, set bool) *Slot {
	s.out = append(s.out, Slot{Kind: kind, Name: name, Format: f, Properties: props, Value: value, Set: set})
	return &s.out[len(s.out)-1]
}

func (s *slots) text(v executor.Value[string]) {
	s.add(SlotText, "", FormatString, v.Properties, v.Value, true)
}

func (s *slots) textOf(f Format, props []interpreter.Property, value string) {
	s.add(SlotText, "", f, props, value, true)
}

func (s *slots) str(kind SlotKind, name string, v executor.Value[*string]) {
	if v.Value == nil {
		s.add(kind, name, FormatString, v.Properties, "", false)
		return
	}
	s.add(kind, name, FormatString, v.Properties, *v.Value, true)
}

func (s *slots) length(name string, v executor.Value[*executor.Length]) {
	if v.Value == nil {
		s.add(SlotStyle, name, FormatLength, v.Properties, "", false)
		return
	}
	s.add(SlotStyle, name, FormatLength, v.Properties, v.Value.CSS(), true)
}

func (s *slots) color(name string, v executor.Value[*executor.Color]) {
	if v.Value == nil {
		s.add(SlotStyle, name, FormatColor, v.Properties, "", false)
		return
	}
	slot := s.add(SlotStyle, name, FormatColor, v.Properties, v.Value.For(s.opts.DarkMode), true)
	slot.Themed = v.Value.Dark != "" && v.Value.Dark != v.Value.Light
}

func (s *slots) integer(kind SlotKind, name string, f Format, v executor.Value[*int64]) {
	if v.Value == nil {
		s.add(kind, name, f, v.Properties, "", false)
		return
	}
	value := strconv.FormatInt(*v.Value, 10)
	if f == FormatPx {
		value += "px"
	}
	s.add(kind, name, f, v.Properties, value, true)
}

func (s *slots) flag(name string, f Format, v executor.Value[*bool]) {
	on := v.Value != nil && *v.Value
	if f == FormatNotFlag {
		on = v.Value != nil && !*v.Value
	}
	s.add(SlotAttr, name, f, v.Properties, "", on)
}

func (s *slots) role(v executor.Value[*executor.ResponsiveType]) {
	var t executor.Type
	responsive := false
	if v.Value != nil {
		t = v.Value.For(s.opts.Device)
		responsive = v.Value.Mobile != nil
	}
	px := func(n *int64) (string, bool) {
		if n == nil {
			return "", false
		}
		return strconv.FormatInt(*n, 10) + "px", true
	}
	size, ok := px(t.Size)
	s.add(SlotStyle, "font-size", FormatTypeSize, v.Properties, size, ok).Responsive = responsive
	var weight string
	if t.Weight != nil {
		weight = strconv.FormatInt(*t.Weight, 10)
	}
	s.add(SlotStyle, "font-weight", FormatTypeWeight, v.Properties, weight, t.Weight != nil).Responsive = responsive
	height, ok := px(t.LineHeight)
	s.add(SlotStyle, "line-height", FormatTypeHeight, v.Properties, height, ok).Responsive = responsive
	var family string
	if t.FontFamily != nil {
		family = *t.FontFamily
	}
	s.add(SlotStyle, "font-family", FormatTypeFamily, v.Properties, family, t.FontFamily != nil).Responsive = responsive
}

// textStyle splits `bold italic underline` style words over the CSS
// properties they set.
func (s *slots) textStyle(v executor.Value[*string]) {
	var weight, style, decoration string
	if v.Value != nil {
		for _, w := range strings.Fields(*v.Value) {
			switch w {
			case "bold", "bolder", "lighter", "normal":
				weight = w
			case "italic", "oblique":
				style = w
			case "underline", "strike", "overline":
				if w == "strike" {
					w = "line-through"
				}
				decoration = w
			default:
				if _, err := strconv.Atoi(w); err == nil {
					weight = w
				}
			}
		}
	}
	s.add(SlotStyle, "font-weight", FormatWeightWord, v.Properties, weight, weight != "")
	s.add(SlotStyle, "font-style", FormatStyleWord, v.Properties, style, style != "")
	s.add(SlotStyle, "text-decoration", FormatDecoration, v.Properties, decoration, decoration != "")
}

// Slots lists every value slot of an element.
func Slots(el executor.Element, opts executor.Options) []Slot {
	s := &slots{opts: opts}
	switch x := el.(type) {
	case *executor.Text:
		s.text(x.Text)
		s.role(x.Role)
		s.textStyle(x.Style)
		s.str(SlotStyle, "text-align", x.TextAlign)
		s.integer(SlotStyle, "-webkit-line-clamp", FormatClamp, x.LineClamp)
	case *executor.Integer:
		s.textOf(FormatNumber, x.Value.Properties, strconv.FormatInt(x.Value.Value, 10))
		s.role(x.Role)
		s.str(SlotStyle, "text-align", x.TextAlign)
	case *executor.Decimal:
		s.textOf(FormatNumber, x.Value.Properties, strconv.FormatFloat(x.Value.Value, 'f', -1, 64))
		s.role(x.Role)
		s.str(SlotStyle, "text-align", x.TextAlign)
	case *executor.Boolean:
		s.textOf(FormatString, x.Value.Properties, strconv.FormatBool(x.Value.Value))
		s.role(x.Role)
		s.str(SlotStyle, "text-align", x.TextAlign)
	case *executor.Code:
		s.text(x.Text)
		s.role(x.Role)
	case *executor.Image:
		slot := s.add(SlotAttr, "src", FormatImageSrc, x.Src.Properties, x.Src.Value.For(opts.DarkMode), x.Src.Value.Light != "")
		slot.Themed = x.Src.Value.Dark != "" && x.Src.Value.Dark != x.Src.Value.Light
		s.str(SlotAttr, "alt", x.Alt)
		s.str(SlotStyle, "object-fit", x.Fit)
	case *executor.Iframe:
		if x.YouTube.Value != nil {
			s.add(SlotAttr, "src", FormatYouTube, x.YouTube.Properties, youTubeURL(*x.YouTube.Value), true)
		} else {
			s.str(SlotAttr, "src", x.Src)
		}
		s.str(SlotAttr, "srcdoc", x.SrcDoc)
		s.str(SlotAttr, "loading", x.Loading)
	case *executor.TextInput:
		s.str(SlotAttr, "placeholder", x.Placeholder)
		value := x.Value
		if value.Value == nil {
			value = x.DefaultValue
		}
		s.str(SlotAttr, "value", value)
		s.str(SlotAttr, "type", x.Type)
		s.flag("disabled", FormatNotFlag, x.Enabled)
	case *executor.CheckBox:
		s.flag("checked", FormatFlag, x.Checked)
		s.flag("disabled", FormatNotFlag, x.Enabled)
	case *executor.Rive:
		s.integer(SlotAttr, "width", FormatNumber, x.CanvasWidth)
		s.integer(SlotAttr, "height", FormatNumber, x.CanvasHeight)
	case *executor.Row:
		s.container(x.ContainerCommon)
	case *executor.Column:
		s.container(x.ContainerCommon)
	case *executor.Container:
		s.container(x.ContainerCommon)
	case *executor.Document:
		s.color("background-color", x.BackgroundColor)
		return s.out
	case *executor.WebComponent:
		for _, name := range sortedNames(x.Properties) {
			v := x.Properties[name]
			value, set := attrValue(v.Value)
			s.add(SlotAttr, name, FormatJSON, v.Properties, value, set)
		}
	case *executor.Null:
		return nil
	}
	s.common(el.Base())
	return s.out
}

func (s *slots) container(c executor.ContainerCommon) {
	s.length("gap", c.Spacing)
	wrap := c.Wrap
	if wrap.Value != nil && *wrap.Value {
		s.add(SlotStyle, "flex-wrap", FormatString, wrap.Properties, "wrap", true)
	} else {
		s.add(SlotStyle, "flex-wrap", FormatString, wrap.Properties, "", false)
	}
	s.str(SlotStyle, "justify-content", c.AlignContent)
}

func (s *slots) common(c *executor.Common) {
	s.str(SlotAttr, "id", c.ID)
	s.str(SlotAttr, "class", c.Classes)

	s.length("padding", c.Padding)
	s.length("padding-left", c.PaddingHorizontal)
	s.length("padding-right", c.PaddingHorizontal)
	s.length("padding-top", c.PaddingVertical)
	s.length("padding-bottom", c.PaddingVertical)
	s.length("margin", c.Margin)
	s.length("margin-left", c.MarginHorizontal)
	s.length("margin-right", c.MarginHorizontal)
	s.length("margin-top", c.MarginVertical)
	s.length("margin-bottom", c.MarginVertical)

	s.length("width", c.Width)
	s.length("height", c.Height)
	s.length("min-width", c.MinWidth)
	s.length("max-width", c.MaxWidth)
	s.length("min-height", c.MinHeight)
	s.length("max-height", c.MaxHeight)

	s.color("color", c.Color)
	s.color("background-color", c.BackgroundColor)
	s.color("border-color", c.BorderColor)
	s.length("border-width", c.BorderWidth)
	s.length("border-radius", c.BorderRadius)
	s.str(SlotStyle, "border-style", c.BorderStyle)

	s.str(SlotAttr, "href", c.Link)
	if c.OpenInNewTab.Value != nil && *c.OpenInNewTab.Value {
		s.add(SlotAttr, "target", FormatString, c.OpenInNewTab.Properties, "_blank", true)
	}

	s.str(SlotStyle, "align-self", c.AlignSelf)
	s.length("top", c.Top)
	s.length("bottom", c.Bottom)
	s.length("left", c.Left)
	s.length("right", c.Right)
	s.integer(SlotStyle, "z-index", FormatNumber, c.ZIndex)
	if c.Opacity.Value != nil {
		s.add(SlotStyle, "opacity", FormatNumber, c.Opacity.Properties, strconv.FormatFloat(*c.Opacity.Value, 'f', -1, 64), true)
	} else {
		s.add(SlotStyle, "opacity", FormatNumber, c.Opacity.Properties, "", false)
	}
	s.str(SlotStyle, "overflow", c.Overflow)
	s.str(SlotStyle, "cursor", c.Cursor)
}

func youTubeURL(id string) string {
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	return "https://www.youtube.com/embed/" + id
}

package interpreter

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/parser"
	"github.com/saltyorg/ftd/internal/template"
)

// KernelModule is the name of the built-in document.
const KernelModule = "ftd"

// Kernel variables the runtime reads and writes.
const (
	DeviceVariable               = KernelModule + "#device"
	DarkModeVariable             = KernelModule + "#dark-mode"
	FollowSystemDarkModeVariable = KernelModule + "#follow-system-dark-mode"
	BreakpointWidthVariable      = KernelModule + "#breakpoint-width"
)

// Devices.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
)

// DefaultBreakpointWidth is the viewport width below which the page
// switches to mobile.
const DefaultBreakpointWidth = 768

//go:embed kernel.ftd.tmpl
var kernelSource string

var (
	kernelOnce sync.Once
	kernelBag  *Bag
	kernelErr  error
)

// Kernel returns the interpreted kernel document. It is built once; callers
// must Clone before mutating.
func Kernel() (*Bag, error) {
	kernelOnce.Do(func() {
		kernelBag, kernelErr = loadKernel()
	})
	return kernelBag, kernelErr
}

func loadKernel() (*Bag, error) {
	source, err := template.New().RenderString(kernelSource, kernelData())
	if err != nil {
		return nil, fmt.Errorf("rendering kernel: %w", err)
	}
	sections, err := parser.Parse(source, KernelModule)
	if err != nil {
		return nil, err
	}
	items, err := ast.FromSections(sections, KernelModule)
	if err != nil {
		return nil, err
	}

	s := newState(KernelModule, NewBag())
	s.stack = append(s.stack, s.addDoc(KernelModule, items, nil))
	it, err := s.Continue()
	if err != nil {
		return nil, err
	}
	if it.Status != Done {
		return nil, fmt.Errorf("kernel is %s", it.Status)
	}
	return s.bag, nil
}

// KernelComponents lists the components that lower directly to
// elements.
var KernelComponents = []string{
	"text", "integer", "decimal", "boolean", "image", "code", "iframe",
	"text-input", "checkbox", "rive", "row", "column", "container",
	"document", "desktop", "mobile",
}

func optional(kind, name string) template.Argument {
	return template.Argument{Kind: "optional " + kind, Name: name}
}

func kernelData() template.KernelData {
	return template.KernelData{
		Device:          DeviceDesktop,
		BreakpointWidth: DefaultBreakpointWidth,
		Common: []template.Argument{
			optional("string", "id"),
			optional("ftd.length", "padding"),
			optional("ftd.length", "padding-horizontal"),
			optional("ftd.length", "padding-vertical"),
			optional("ftd.length", "margin"),
			optional("ftd.length", "margin-horizontal"),
			optional("ftd.length", "margin-vertical"),
			optional("ftd.length", "width"),
			optional("ftd.length", "height"),
			optional("ftd.length", "min-width"),
			optional("ftd.length", "max-width"),
			optional("ftd.length", "min-height"),
			optional("ftd.length", "max-height"),
			optional("ftd.color", "color"),
			optional("ftd.color", "background-color"),
			optional("ftd.color", "border-color"),
			optional("ftd.length", "border-width"),
			optional("ftd.length", "border-radius"),
			optional("string", "border-style"),
			optional("string", "link"),
			optional("boolean", "open-in-new-tab"),
			optional("string", "align-self"),
			optional("string", "anchor"),
			optional("ftd.length", "top"),
			optional("ftd.length", "bottom"),
			optional("ftd.length", "left"),
			optional("ftd.length", "right"),
			optional("integer", "z-index"),
			optional("decimal", "opacity"),
			optional("string", "overflow"),
			optional("string", "cursor"),
			optional("string", "region"),
			optional("string", "classes"),
		},
		Container: []template.Argument{
			optional("ftd.length", "spacing"),
			optional("boolean", "wrap"),
			optional("string", "align-content"),
			{Kind: "children", Name: "children"},
		},
		Components: []template.KernelComponent{
			{Name: "text", Common: true, Arguments: []template.Argument{
				{Kind: "caption or body", Name: "text"},
				optional("ftd.responsive-type", "role"),
				optional("string", "style"),
				optional("string", "text-align"),
				optional("integer", "line-clamp"),
			}},
			{Name: "integer", Common: true, Arguments: []template.Argument{
				{Kind: "caption integer", Name: "value"},
				optional("ftd.responsive-type", "role"),
				optional("string", "text-align"),
			}},
			{Name: "decimal", Common: true, Arguments: []template.Argument{
				{Kind: "caption decimal", Name: "value"},
				optional("ftd.responsive-type", "role"),
				optional("string", "text-align"),
			}},
			{Name: "boolean", Common: true, Arguments: []template.Argument{
				{Kind: "caption boolean", Name: "value"},
				optional("ftd.responsive-type", "role"),
				optional("string", "text-align"),
			}},
			{Name: "image", Common: true, Arguments: []template.Argument{
				{Kind: "caption ftd.image-src", Name: "src"},
				optional("string", "alt"),
				optional("string", "fit"),
			}},
			{Name: "code", Common: true, Arguments: []template.Argument{
				{Kind: "caption or body", Name: "text"},
				{Kind: "string", Name: "lang", Default: "txt"},
				optional("ftd.responsive-type", "role"),
			}},
			{Name: "iframe", Common: true, Arguments: []template.Argument{
				optional("caption string", "src"),
				optional("string", "youtube"),
				optional("body", "srcdoc"),
				optional("string", "loading"),
			}},
			{Name: "text-input", Common: true, Arguments: []template.Argument{
				optional("string", "placeholder"),
				optional("string", "value"),
				optional("string", "default-value"),
				optional("boolean", "multiline"),
				optional("boolean", "enabled"),
				optional("string", "type"),
			}},
			{Name: "checkbox", Common: true, Arguments: []template.Argument{
				optional("boolean", "checked"),
				optional("boolean", "enabled"),
			}},
			{Name: "rive", Common: true, Arguments: []template.Argument{
				{Kind: "caption string", Name: "src"},
				{Kind: "string list", Name: "state-machine"},
				{Kind: "boolean", Name: "autoplay", Default: "true"},
				optional("string", "artboard"),
				optional("integer", "canvas-width"),
				optional("integer", "canvas-height"),
			}},
			{Name: "row", Common: true, Container: true},
			{Name: "column", Common: true, Container: true},
			{Name: "container", Common: true, Container: true},
			{Name: "document", Arguments: []template.Argument{
				optional("caption string", "title"),
				optional("string", "description"),
				optional("ftd.image-src", "og-image"),
				optional("ftd.color", "theme-color"),
				optional("ftd.color", "background-color"),
				optional("integer", "breakpoint"),
				{Kind: "children", Name: "children"},
			}},
			{Name: "desktop", Arguments: []template.Argument{{Kind: "children", Name: "children"}}},
			{Name: "mobile", Arguments: []template.Argument{{Kind: "children", Name: "children"}}},
		},
	}
}

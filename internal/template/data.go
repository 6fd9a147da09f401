package template

// Argument is one argument header of a kernel declaration.
type Argument struct {
	Kind    string
	Name    string
	Default string
}

// KernelComponent describes one kernel component. Common and Container
// add the shared argument groups of KernelData.
type KernelComponent struct {
	Name      string
	Arguments []Argument
	Common    bool
	Container bool
}

// KernelData contains everything needed to render the kernel document.
type KernelData struct {
	Device          string
	BreakpointWidth int

	Common     []Argument
	Container  []Argument
	Components []KernelComponent
}

// HasArguments reports whether the component declares any argument.
func (c KernelComponent) HasArguments() bool {
	return len(c.Arguments) > 0 || c.Common || c.Container
}

// PageData contains all data needed to render a page shell.
type PageData struct {
	// Document identification
	ID        string
	Language  string
	Generator string

	// Metadata from ftd.document
	Title       string
	Description string
	OGImage     string
	ThemeColor  string

	// Rendered content
	Body   string
	Script string
	// Marker names the managed section wrapping Body.
	Marker string

	// Assets collected from declarations
	CSS        []string
	JS         []string
	InlineCSS  []string
	RuntimeJS  string
	DarkMode   bool
	Breakpoint int
}

// PageTitle returns the title, falling back to one derived from ID.
func (p *PageData) PageTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return titleFromName(p.ID)
}

package dependency

import (
	"regexp"
	"strings"
	"testing"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/executor"
	"github.com/saltyorg/ftd/internal/html"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/saltyorg/ftd/internal/parser"
)

func generate(t *testing.T, source string, opts executor.Options) (*Script, *html.Node) {
	t.Helper()
	sections, err := parser.Parse(source, "main")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	items, err := ast.FromSections(sections, "main")
	if err != nil {
		t.Fatalf("FromSections() error = %v", err)
	}
	it, err := interpreter.New("main", items, nil).Continue()
	if err != nil {
		t.Fatalf("Continue() error = %v", err)
	}
	rt, err := executor.Execute(it.Document, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	root := html.Lower(rt)
	s, err := Generate(rt, root)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return s, root
}

var dataRead = regexp.MustCompile(`data\["([^"]+)"\]`)

// checkDependencies asserts every data key a function reads maps back to
// that function.
func checkDependencies(t *testing.T, s *Script) {
	t.Helper()
	for _, c := range s.NodeChanges {
		for _, m := range dataRead.FindAllStringSubmatch(c.JS, -1) {
			if !contains(s.Dependencies[m[1]], c.Key) {
				t.Errorf("%s reads %s but dependencies[%s] = %v", c.Key, m[1], m[1], s.Dependencies[m[1]])
			}
		}
		for _, d := range c.Dependencies {
			if !contains(s.Dependencies[d], c.Key) {
				t.Errorf("%s depends on %s but is not registered under it", c.Key, d)
			}
		}
	}
}

func TestGenerateVariableReference(t *testing.T) {
	s, _ := generate(t, "-- string $name: Alice\n\n-- ftd.text: Hello, $name\n", executor.DefaultOptions())

	if got := s.Data["main#name"]; got != "Alice" {
		t.Errorf("data[main#name] = %v, want Alice", got)
	}
	c, ok := s.Change("0:main#text")
	if !ok {
		t.Fatalf("no text change registered, have %+v", s.NodeChanges)
	}
	if !strings.Contains(c.JS, `window.ftd.str(data["main#name"])`) || !strings.Contains(c.JS, `"Hello, "`) {
		t.Errorf("text change = %s", c.JS)
	}
	if got := s.Dependencies["main#name"]; len(got) != 1 || got[0] != "0:main#text" {
		t.Errorf("dependencies[main#name] = %v, want [0:main#text]", got)
	}
	checkDependencies(t, s)
}

func TestGenerateStaticDocument(t *testing.T) {
	s, _ := generate(t, "-- string name: Alice\n\n-- ftd.text: Hello, $name\npadding.px: 2\n", executor.DefaultOptions())
	if len(s.NodeChanges) != 0 {
		t.Errorf("static document registered %d changes: %+v", len(s.NodeChanges), s.NodeChanges)
	}
}

func TestGenerateDevice(t *testing.T) {
	source := `-- ftd.desktop:

--- ftd.text: Desktop

-- ftd.mobile:

--- ftd.text: Mobile
`
	s, root := generate(t, source, executor.DefaultOptions())
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}

	deps := s.Dependencies[DeviceKey]
	for i, want := range []string{interpreter.DeviceDesktop, interpreter.DeviceMobile} {
		key := root.Children[i].DataID + "#condition"
		c, ok := s.Change(key)
		if !ok {
			t.Fatalf("no condition change for %s", key)
		}
		if !strings.Contains(c.JS, `data["ftd#device"] == "`+want+`"`) {
			t.Errorf("%s = %s, want device check for %s", key, c.JS, want)
		}
		if !contains(deps, key) {
			t.Errorf("dependencies[%s] = %v, missing %s", DeviceKey, deps, key)
		}
	}
	if !root.Children[1].Hidden {
		t.Error("mobile subtree should be hidden on a desktop run")
	}
	checkDependencies(t, s)
}

func TestGenerateDarkModeImage(t *testing.T) {
	s, root := generate(t, "-- ftd.image:\nsrc.light: a.png\nsrc.dark: b.png\n", executor.DefaultOptions())
	key := root.Children[0].DataID + "#attr.src"
	c, ok := s.Change(key)
	if !ok {
		t.Fatalf("no change registered for %s", key)
	}
	for _, want := range []string{`"a.png"`, `"b.png"`, `window.ftd.pick_theme(v, data["ftd#dark-mode"])`} {
		if !strings.Contains(c.JS, want) {
			t.Errorf("src change = %s, missing %s", c.JS, want)
		}
	}
	if !contains(s.Dependencies[DarkModeKey], key) {
		t.Errorf("dependencies[%s] = %v, missing %s", DarkModeKey, s.Dependencies[DarkModeKey], key)
	}
	checkDependencies(t, s)
}

func TestGenerateStaticFalseCondition(t *testing.T) {
	source := `-- string $label: hi

-- boolean off: false

-- ftd.text: $label
if: { off }
`
	s, root := generate(t, source, executor.DefaultOptions())
	prefix := root.Children[0].DataID + "#"
	for _, c := range s.NodeChanges {
		if strings.HasPrefix(c.Key, prefix) {
			t.Errorf("static-false node registered %s", c.Key)
		}
	}
}

func TestGenerateConditionalProperty(t *testing.T) {
	source := `-- boolean $on: false

-- ftd.text: hi
color: red
color if { $on }: blue
`
	s, root := generate(t, source, executor.DefaultOptions())
	key := root.Children[0].DataID + "#style.color"
	c, ok := s.Change(key)
	if !ok {
		t.Fatalf("no change for %s", key)
	}
	for _, want := range []string{`if (data["main#on"])`, "} else {", `window.ftd.set_style("0:main", "color", out)`} {
		if !strings.Contains(c.JS, want) {
			t.Errorf("color change = %s, missing %s", c.JS, want)
		}
	}
	checkDependencies(t, s)
}

func TestGenerateLoop(t *testing.T) {
	source := `-- integer list $xs:
integer: 1
integer: 2

-- ftd.row:

--- ftd.integer: $x
for: $x in $xs
`
	s, _ := generate(t, source, executor.DefaultOptions())
	c, ok := s.Change("0,1:main#text")
	if !ok {
		t.Fatalf("no change for the second item, have %+v", s.NodeChanges)
	}
	if !strings.Contains(c.JS, `data["main#xs"][1]`) {
		t.Errorf("item change = %s, want read of main#xs[1]", c.JS)
	}
	checkDependencies(t, s)
}

func TestGenerateEvent(t *testing.T) {
	source := `-- integer $count: 0

-- ftd.integer: $count
$on-click$: $ftd.increment($a = $count)
`
	s, _ := generate(t, source, executor.DefaultOptions())
	js := s.Events["0:main"]["click"]
	for _, want := range []string{
		`var args = {"a": data["main#count"]};`,
		`args["a"] = args["a"] + 1;`,
		`window.ftd.assign(data, "main#count", [], args["a"]);`,
		`window.ftd.propagate("main", changed);`,
	} {
		if !strings.Contains(js, want) {
			t.Errorf("click handler = %s, missing %s", js, want)
		}
	}
	if !contains(s.Dependencies["main#count"], "0:main#text") {
		t.Errorf("dependencies[main#count] = %v", s.Dependencies["main#count"])
	}
}

func TestGenerateLinkedImage(t *testing.T) {
	source := `-- string $u: /a

-- ftd.image:
src: a.png
link: $u
`
	s, root := generate(t, source, executor.DefaultOptions())
	a := root.Children[0]
	if a.Tag != "a" || a.DataID != "0:main" {
		t.Fatalf("wrapper = %s %q, want a with data-id 0:main", a.Tag, a.DataID)
	}
	c, ok := s.Change("0:main#attr.href")
	if !ok {
		t.Fatalf("no href change registered, have %+v", s.NodeChanges)
	}
	if !strings.Contains(c.JS, `window.ftd.set_attr("0:main", "href", out);`) {
		t.Errorf("href change = %s", c.JS)
	}
	if img := a.Children[0]; img.Tag != "img" || img.DataID == a.DataID {
		t.Errorf("image = %s %q, want img with its own data-id", img.Tag, img.DataID)
	}
	checkDependencies(t, s)
}

func TestScriptText(t *testing.T) {
	s, _ := generate(t, "-- string $name: Alice\n\n-- ftd.text: $name\n", executor.DefaultOptions())
	text, err := s.Text()
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	for _, want := range []string{
		"window.ftd_data_main = ",
		"window.node_change_main = {",
		`window.dependencies_main = {"main#name":["0:main#text"]};`,
		`window.ftd.init("main");`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Text() missing %q", want)
		}
	}
	if !strings.Contains(Runtime(), "ftd.propagate = function") {
		t.Error("Runtime() does not define propagate")
	}
}

func TestRuntimeEventListeners(t *testing.T) {
	rt := Runtime()
	for _, want := range []string{
		`"mouse-enter": "mouseenter"`,
		`"mouse-leave": "mouseleave"`,
		`name === "click-outside"`,
		`!el.contains(e.target)`,
		`name.indexOf("global-key-seq[") === 0`,
		`name.indexOf("global-key[") === 0`,
		`document.addEventListener("keydown"`,
	} {
		if !strings.Contains(rt, want) {
			t.Errorf("Runtime() missing %q", want)
		}
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "main", want: "main"},
		{in: "lib/colors", want: "lib_colors"},
		{in: "a-b.c", want: "a_b_c"},
	}
	for _, tt := range tests {
		if got := Identifier(tt.in); got != tt.want {
			t.Errorf("Identifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

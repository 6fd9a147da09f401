package executor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/saltyorg/ftd/internal/ast"
	"github.com/saltyorg/ftd/internal/interpreter"
	"github.com/saltyorg/ftd/internal/parser"
)

func interpret(t *testing.T, source string) *interpreter.Document {
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
	if it.Status != interpreter.Done {
		t.Fatalf("Continue() status = %s, want done", it.Status)
	}
	return it.Document
}

func execute(t *testing.T, doc *interpreter.Document, opts Options) *RT {
	t.Helper()
	rt, err := Execute(doc, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	return rt
}

func TestExecuteReexecutesAfterSet(t *testing.T) {
	doc := interpret(t, "-- string $x: hello\n\n-- ftd.text: $x\n")

	rt := execute(t, doc, DefaultOptions())
	text, ok := rt.Main.Children[0].(*Text)
	if !ok {
		t.Fatalf("root = %T, want *Text", rt.Main.Children[0])
	}
	if text.Text.Value != "hello" {
		t.Errorf("text = %q, want hello", text.Text.Value)
	}
	if !text.Text.IsDynamic(rt.TDoc()) {
		t.Error("text bound to a mutable variable should be dynamic")
	}

	if err := doc.TDoc().SetValue("x", &interpreter.StringValue{Text: "world"}, 0); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	rt = execute(t, doc, DefaultOptions())
	if got := rt.Main.Children[0].(*Text).Text.Value; got != "world" {
		t.Errorf("text after set = %q, want world", got)
	}
}

func TestExecuteInterpolation(t *testing.T) {
	doc := interpret(t, "-- string $name: Alice\n\n-- ftd.text: Hello, $name\n")
	rt := execute(t, doc, DefaultOptions())
	if got := rt.Main.Children[0].(*Text).Text.Value; got != "Hello, Alice" {
		t.Errorf("text = %q, want %q", got, "Hello, Alice")
	}
}

func TestExecuteLoop(t *testing.T) {
	source := `-- integer list $xs:
integer: 1
integer: 2
integer: 3

-- ftd.row:

--- ftd.integer: $x
for: $x in $xs
`
	rt := execute(t, interpret(t, source), DefaultOptions())

	if len(rt.Main.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(rt.Main.Children))
	}
	row, ok := rt.Main.Children[0].(*Row)
	if !ok {
		t.Fatalf("root = %T, want *Row", rt.Main.Children[0])
	}
	if len(row.Children) != 3 {
		t.Fatalf("row children = %d, want 3", len(row.Children))
	}
	for i, child := range row.Children {
		n, ok := child.(*Integer)
		if !ok {
			t.Fatalf("child %d = %T, want *Integer", i, child)
		}
		if n.Value.Value != int64(i+1) {
			t.Errorf("child %d value = %d, want %d", i, n.Value.Value, i+1)
		}
		if want := []int{0, i}; !reflect.DeepEqual(n.Path, want) {
			t.Errorf("child %d path = %v, want %v", i, n.Path, want)
		}
	}

	if !rt.Bag.Has("main#x@0,1") || !rt.Bag.Has("main#x.index@0,2") {
		t.Errorf("loop locals missing from %v", rt.Bag.Keys())
	}
}

func TestExecuteCondition(t *testing.T) {
	doc := interpret(t, "-- boolean $flag: true\n\n-- ftd.text: shown\nif: { $flag }\n")

	rt := execute(t, doc, DefaultOptions())
	text, ok := rt.Main.Children[0].(*Text)
	if !ok {
		t.Fatalf("root = %T, want *Text", rt.Main.Children[0])
	}
	if text.Condition == nil {
		t.Error("dynamic condition should be kept on the element")
	}

	if err := doc.TDoc().SetValue("flag", &interpreter.BooleanValue{Value: false}, 0); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	rt = execute(t, doc, DefaultOptions())
	null, ok := rt.Main.Children[0].(*Null)
	if !ok {
		t.Fatalf("root after set = %T, want *Null", rt.Main.Children[0])
	}
	if _, ok := null.Hidden.(*Text); !ok {
		t.Errorf("hidden = %T, want *Text", null.Hidden)
	}
}

func TestExecuteStaticFalseCondition(t *testing.T) {
	doc := interpret(t, "-- boolean flag: false\n\n-- ftd.text: never\nif: { flag }\n")
	rt := execute(t, doc, DefaultOptions())
	null, ok := rt.Main.Children[0].(*Null)
	if !ok {
		t.Fatalf("root = %T, want *Null", rt.Main.Children[0])
	}
	if null.Hidden != nil || null.Condition != nil {
		t.Errorf("static false should leave an empty Null, got %+v", null)
	}
}

func TestExecuteDevice(t *testing.T) {
	source := `-- ftd.desktop:

--- ftd.text: Desktop

-- ftd.mobile:

--- ftd.text: Mobile
`
	doc := interpret(t, source)

	tests := []struct {
		device  string
		visible int
		hidden  int
	}{
		{device: interpreter.DeviceDesktop, visible: 0, hidden: 1},
		{device: interpreter.DeviceMobile, visible: 1, hidden: 0},
	}
	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			rt := execute(t, doc, Options{Device: tt.device})
			if len(rt.Main.Children) != 2 {
				t.Fatalf("root children = %d, want 2", len(rt.Main.Children))
			}
			if _, ok := rt.Main.Children[tt.visible].(*Text); !ok {
				t.Errorf("child %d = %T, want *Text", tt.visible, rt.Main.Children[tt.visible])
			}
			if _, ok := rt.Main.Children[tt.hidden].(*Null); !ok {
				t.Errorf("child %d = %T, want *Null", tt.hidden, rt.Main.Children[tt.hidden])
			}
			for _, child := range rt.Main.Children {
				if child.Base().Condition == nil {
					t.Errorf("child %v has no device condition", child.Base().Path)
				}
			}
		})
	}
}

func TestExecuteNestedDeviceMismatch(t *testing.T) {
	source := `-- ftd.desktop:

-- ftd.mobile:

-- ftd.text: hi

-- end: ftd.mobile

-- end: ftd.desktop
`
	_, err := Execute(interpret(t, source), DefaultOptions())
	var execErr *Error
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute() error = %v, want *Error", err)
	}
}

func TestExecuteUserComponent(t *testing.T) {
	source := `-- component card:
caption title:
integer count: 1

-- ftd.column:

-- ftd.text: $card.title

-- ftd.integer: $card.count

-- end: ftd.column

-- end: card

-- card: First

-- card: Second
count: 5
`
	rt := execute(t, interpret(t, source), DefaultOptions())
	if len(rt.Main.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(rt.Main.Children))
	}

	tests := []struct {
		title string
		count int64
	}{
		{title: "First", count: 1},
		{title: "Second", count: 5},
	}
	for i, tt := range tests {
		col, ok := rt.Main.Children[i].(*Column)
		if !ok {
			t.Fatalf("card %d = %T, want *Column", i, rt.Main.Children[i])
		}
		if got := col.Children[0].(*Text).Text.Value; got != tt.title {
			t.Errorf("card %d title = %q, want %q", i, got, tt.title)
		}
		if got := col.Children[1].(*Integer).Value.Value; got != tt.count {
			t.Errorf("card %d count = %d, want %d", i, got, tt.count)
		}
		if want := []int{i, 0}; !reflect.DeepEqual(col.Children[0].Base().Path, want) {
			t.Errorf("card %d text path = %v, want %v", i, col.Children[0].Base().Path, want)
		}
	}

	if !rt.Bag.Has("main#card.title@0") || !rt.Bag.Has("main#card.count@1") {
		t.Errorf("argument locals missing from %v", rt.Bag.Keys())
	}
}

func TestExecuteChildren(t *testing.T) {
	source := `-- component box:
children items:

-- ftd.row:
children: $box.items

-- end: ftd.row

-- end: box

-- box:

--- ftd.text: one

--- ftd.text: two
`
	rt := execute(t, interpret(t, source), DefaultOptions())
	row, ok := rt.Main.Children[0].(*Row)
	if !ok {
		t.Fatalf("root = %T, want *Row", rt.Main.Children[0])
	}
	if len(row.Children) != 2 {
		t.Fatalf("row children = %d, want 2", len(row.Children))
	}
	if got := row.Children[1].(*Text).Text.Value; got != "two" {
		t.Errorf("second child = %q, want two", got)
	}
}

func TestExecuteDocument(t *testing.T) {
	source := `-- ftd.document: Home
description: Landing page

--- ftd.text: hi
`
	rt := execute(t, interpret(t, source), DefaultOptions())
	if rt.HTMLData.Title == nil || *rt.HTMLData.Title != "Home" {
		t.Errorf("title = %v, want Home", rt.HTMLData.Title)
	}
	d, ok := rt.Main.Children[0].(*Document)
	if !ok {
		t.Fatalf("root = %T, want *Document", rt.Main.Children[0])
	}
	if len(d.Children) != 1 {
		t.Errorf("document children = %d, want 1", len(d.Children))
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "document not alone",
			source: "-- ftd.text: a\n\n-- ftd.document: b\n",
		},
		{
			name:   "document with condition",
			source: "-- ftd.document: a\nif: { ftd.dark-mode }\n",
		},
		{
			name:   "document with static false condition",
			source: "-- boolean flag: false\n\n-- ftd.document: a\nif: { flag }\n",
		},
		{
			name:   "document with event",
			source: "-- boolean $flag: false\n\n-- ftd.document: a\n$on-click$: $ftd.toggle($a = $flag)\n",
		},
		{
			name:   "iframe without source",
			source: "-- ftd.iframe:\n",
		},
		{
			name:   "recursive component",
			source: "-- component again:\n\n-- again:\n\n-- end: component again\n\n-- again:\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(interpret(t, tt.source), DefaultOptions())
			var execErr *Error
			if !errors.As(err, &execErr) {
				t.Fatalf("Execute() error = %v, want *Error", err)
			}
			if execErr.DocID != "main" || execErr.LineNumber == 0 {
				t.Errorf("error position = %s:%d", execErr.DocID, execErr.LineNumber)
			}
		})
	}
}

func TestExecuteDarkModeColor(t *testing.T) {
	source := `-- ftd.text: hi
color.light: black
color.dark: white
`
	doc := interpret(t, source)
	rt := execute(t, doc, Options{DarkMode: true})
	text := rt.Main.Children[0].(*Text)
	if text.Color.Value == nil {
		t.Fatal("color not set")
	}
	if got := text.Color.Value.For(rt.Options.DarkMode); got != "white" {
		t.Errorf("color = %q, want white", got)
	}
	if rt.Options.Device != interpreter.DeviceDesktop {
		t.Errorf("device = %q, want desktop default", rt.Options.Device)
	}
}

func TestExecuteRowSpacing(t *testing.T) {
	rt := execute(t, interpret(t, "-- ftd.row:\nspacing.px: 8\n\n--- ftd.text: a\n"), DefaultOptions())
	row, ok := rt.Main.Children[0].(*Row)
	if !ok {
		t.Fatalf("root = %T, want *Row", rt.Main.Children[0])
	}
	if row.Spacing.Value == nil || row.Spacing.Value.CSS() != "8px" {
		t.Errorf("spacing = %+v, want 8px", row.Spacing.Value)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		length Length
		want   string
	}{
		{length: Length{Variant: "px", Value: int64(10)}, want: "10px"},
		{length: Length{Variant: "percent", Value: 50.5}, want: "50.5%"},
		{length: Length{Variant: "fill-container"}, want: "100%"},
		{length: Length{Variant: "hug-content"}, want: "fit-content"},
		{length: Length{Variant: "calc", Value: "100% - 10px"}, want: "calc(100% - 10px)"},
	}
	for _, tt := range tests {
		if got := tt.length.CSS(); got != tt.want {
			t.Errorf("%+v.CSS() = %q, want %q", tt.length, got, tt.want)
		}
	}
}

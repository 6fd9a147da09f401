package expr

import (
	"reflect"
	"strings"
	"testing"
)

func TestEval(t *testing.T) {
	env := MapEnv{
		"flag":       true,
		"count":      int64(3),
		"ratio":      1.5,
		"name":       "Alice",
		"ftd.device": "desktop",
		"xs":         []any{int64(1), int64(2)},
		"dark-mode":  false,
	}

	tests := []struct {
		src  string
		want any
	}{
		{"$flag", true},
		{"!$flag", false},
		{"not $flag", false},
		{"{ $flag }", true},
		{"$count + 2", int64(5)},
		{"$count * 2 - 1", int64(5)},
		{"$count / 2", int64(1)},
		{"$count % 2", int64(1)},
		{"$ratio * 2", 3.0},
		{"$count == 3.0", true},
		{"$count >= 3 && $ratio < 2", true},
		{"$count > 5 || $flag", true},
		{`$ftd.device == "desktop"`, true},
		{`$name + ", hi"`, "Alice, hi"},
		{`"n=" + $count`, "n=3"},
		{"len($xs)", int64(2)},
		{"len($name)", int64(5)},
		{"is_empty($xs)", false},
		{"$dark-mode", false},
		{"-$count", int64(-3)},
		{"(1 + 2) * 3", int64(9)},
		{"1 + 2 * 3", int64(7)},
		{"null == null", true},
		{"'single' == \"single\"", true},
	}

	for _, tt := range tests {
		n, err := Parse(tt.src)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", tt.src, err)
			continue
		}
		got, err := Eval(n, env)
		if err != nil {
			t.Errorf("Eval(%q) failed: %v", tt.src, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Eval(%q) = %#v, want %#v", tt.src, got, tt.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []string{
		"$missing",
		"1 / 0",
		`"a" < 1`,
		"unknown(1)",
	}

	for _, src := range tests {
		n, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		if _, err := Eval(n, MapEnv{}); err == nil {
			t.Errorf("Eval(%q) expected error", src)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "1 +", "(1", `"open`, "a = 1", "$", "1 2"} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q) expected error", src)
		}
	}
}

func TestExecBlock(t *testing.T) {
	stmts, err := ParseBlock("a = !a; b = b + 1\nb * 10")
	if err != nil {
		t.Fatalf("ParseBlock failed: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(stmts))
	}

	env := MapEnv{"a": true, "b": int64(1)}
	got, err := ExecBlock(stmts, env)
	if err != nil {
		t.Fatalf("ExecBlock failed: %v", err)
	}
	if got != int64(20) {
		t.Errorf("Expected 20, got %#v", got)
	}
	if env["a"] != false || env["b"] != int64(2) {
		t.Errorf("Unexpected env after block: %#v", env)
	}
}

func TestJS(t *testing.T) {
	ref := func(name string) string {
		return `data["` + strings.Replace(name, ".", "#", 1) + `"]`
	}

	tests := []struct {
		src  string
		want string
	}{
		{`$ftd.device == "desktop"`, `data["ftd#device"] == "desktop"`},
		{"!$flag", `!data["flag"]`},
		{"!($a && $b)", `!(data["a"] && data["b"])`},
		{"($a || $b) && $c", `(data["a"] || data["b"]) && data["c"]`},
		{"$a - ($b - 1)", `data["a"] - (data["b"] - 1)`},
		{"len($xs)", `(data["xs"]).length`},
		{"1.5", "1.5"},
	}

	for _, tt := range tests {
		n, err := Parse(tt.src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.src, err)
		}
		if got := JS(n, ref); got != tt.want {
			t.Errorf("JS(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestBlockJS(t *testing.T) {
	stmts, err := ParseBlock("a = !a\na")
	if err != nil {
		t.Fatalf("ParseBlock failed: %v", err)
	}
	lines, ret := BlockJS(stmts, func(name string) string { return "v." + name })
	if len(lines) != 1 || lines[0] != "v.a = !v.a;" {
		t.Errorf("Unexpected statements: %v", lines)
	}
	if ret != "v.a" {
		t.Errorf("Unexpected return %q", ret)
	}
}

func TestIdentsAndRename(t *testing.T) {
	n, err := Parse("$a.b == $c || $a.b")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := Idents(n); !reflect.DeepEqual(got, []string{"a.b", "c"}) {
		t.Errorf("Idents = %v", got)
	}

	renamed := Rename(n, func(s string) string { return "x." + s })
	if got := Idents(renamed); !reflect.DeepEqual(got, []string{"x.a.b", "x.c"}) {
		t.Errorf("Renamed idents = %v", got)
	}
}

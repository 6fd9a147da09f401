package expr

import (
	"encoding/json"
	"strconv"
	"strings"
)

// JS lowers n to a JavaScript expression. ref maps an identifier to the
// JavaScript that reads it, typically `data["<fq-name>"]`.
func JS(n Node, ref func(name string) string) string {
	switch v := n.(type) {
	case *Literal:
		return LiteralJS(v.Value)
	case *Ident:
		return ref(v.Name)
	case *Unary:
		return v.Op + wrapJS(v.X, 7, ref)
	case *Binary:
		prec := precedence[v.Op]
		left := wrapJS(v.Left, prec, ref)
		right := wrapJS(v.Right, prec+1, ref)
		return left + " " + v.Op + " " + right
	case *Call:
		args := make([]string, len(v.Args))
		for i, arg := range v.Args {
			args[i] = JS(arg, ref)
		}
		switch v.Name {
		case "len":
			return "(" + strings.Join(args, ", ") + ").length"
		case "is_empty":
			return "window.ftd.is_empty(" + strings.Join(args, ", ") + ")"
		}
		return v.Name + "(" + strings.Join(args, ", ") + ")"
	case *Assign:
		return ref(v.Name) + " = " + JS(v.Value, ref)
	}
	return "undefined"
}

// BlockJS lowers statements to JavaScript statements plus the returned
// expression (empty when the block ends with an assignment).
func BlockJS(stmts []Node, ref func(name string) string) ([]string, string) {
	var lines []string
	ret := ""
	for i, stmt := range stmts {
		js := JS(stmt, ref)
		if _, ok := stmt.(*Assign); !ok && i == len(stmts)-1 {
			ret = js
			continue
		}
		lines = append(lines, js+";")
	}
	return lines, ret
}

// LiteralJS renders a Go value as a JavaScript literal.
func LiteralJS(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		b, _ := json.Marshal(x)
		return string(b)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "null"
		}
		return string(b)
	}
}

// wrapJS parenthesises n when it binds looser than minPrec.
func wrapJS(n Node, minPrec int, ref func(string) string) string {
	js := JS(n, ref)
	if b, ok := n.(*Binary); ok && precedence[b.Op] < minPrec {
		return "(" + js + ")"
	}
	return js
}

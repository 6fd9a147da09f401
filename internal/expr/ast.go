// Package expr implements the small expression language used by
// conditions, event actions and function bodies.
package expr

// Node is an expression tree node.
type Node interface{ node() }

// Literal is a constant: string, int64, float64, bool or nil.
type Literal struct {
	Value any
}

// Ident is a variable read. Name has any leading `$` removed.
type Ident struct {
	Name string
}

// Unary is `!x` or `-x`.
type Unary struct {
	Op string
	X  Node
}

// Binary is a comparison, arithmetic or logical operation.
type Binary struct {
	Op          string
	Left, Right Node
}

// Call is a builtin function call such as `len(xs)`.
type Call struct {
	Name string
	Args []Node
}

// Assign is the statement `name = value`; only valid in blocks.
type Assign struct {
	Name  string
	Value Node
}

func (*Literal) node() {}
func (*Ident) node()   {}
func (*Unary) node()   {}
func (*Binary) node()  {}
func (*Call) node()    {}
func (*Assign) node()  {}

// precedence of binary operators, higher binds tighter.
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

// Idents returns the distinct identifiers read by the node, in first-use order.
func Idents(n Node) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(n, func(n Node) {
		var name string
		switch v := n.(type) {
		case *Ident:
			name = v.Name
		case *Assign:
			name = v.Name
		default:
			return
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	})
	return out
}

// Walk calls fn for n and every node below it, depth first.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch v := n.(type) {
	case *Unary:
		Walk(v.X, fn)
	case *Binary:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *Call:
		for _, arg := range v.Args {
			Walk(arg, fn)
		}
	case *Assign:
		Walk(v.Value, fn)
	}
}

// Rename returns a copy of n with every identifier passed through fn.
func Rename(n Node, fn func(string) string) Node {
	switch v := n.(type) {
	case *Ident:
		return &Ident{Name: fn(v.Name)}
	case *Unary:
		return &Unary{Op: v.Op, X: Rename(v.X, fn)}
	case *Binary:
		return &Binary{Op: v.Op, Left: Rename(v.Left, fn), Right: Rename(v.Right, fn)}
	case *Call:
		args := make([]Node, len(v.Args))
		for i, arg := range v.Args {
			args[i] = Rename(arg, fn)
		}
		return &Call{Name: v.Name, Args: args}
	case *Assign:
		return &Assign{Name: fn(v.Name), Value: Rename(v.Value, fn)}
	default:
		return n
	}
}

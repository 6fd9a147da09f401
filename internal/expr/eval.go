package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Env supplies identifier values during evaluation. Values are nil,
// string, int64, float64, bool, []any or map[string]any.
type Env interface {
	Lookup(name string) (any, error)
}

// MutableEnv additionally accepts assignments.
type MutableEnv interface {
	Env
	Assign(name string, value any) error
}

// MapEnv is an Env backed by a map.
type MapEnv map[string]any

func (m MapEnv) Lookup(name string) (any, error) {
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("unknown identifier %q", name)
	}
	return v, nil
}

func (m MapEnv) Assign(name string, value any) error {
	m[name] = value
	return nil
}

// Eval evaluates n against env.
func Eval(n Node, env Env) (any, error) {
	switch v := n.(type) {
	case *Literal:
		return v.Value, nil
	case *Ident:
		return env.Lookup(v.Name)
	case *Unary:
		x, err := Eval(v.X, env)
		if err != nil {
			return nil, err
		}
		return evalUnary(v.Op, x)
	case *Binary:
		return evalBinary(v, env)
	case *Call:
		args := make([]any, len(v.Args))
		for i, arg := range v.Args {
			val, err := Eval(arg, env)
			if err != nil {
				return nil, err
			}
			args[i] = val
		}
		return evalCall(v.Name, args)
	case *Assign:
		menv, ok := env.(MutableEnv)
		if !ok {
			return nil, fmt.Errorf("assignment to %q is not allowed here", v.Name)
		}
		val, err := Eval(v.Value, env)
		if err != nil {
			return nil, err
		}
		return val, menv.Assign(v.Name, val)
	default:
		return nil, fmt.Errorf("unknown expression node %T", n)
	}
}

// EvalBool evaluates n and requires a boolean-like result.
func EvalBool(n Node, env Env) (bool, error) {
	v, err := Eval(n, env)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// ExecBlock runs statements in order and returns the value of the last
// one; a trailing assignment yields nil.
func ExecBlock(stmts []Node, env MutableEnv) (any, error) {
	var last any
	for _, stmt := range stmts {
		v, err := Eval(stmt, env)
		if err != nil {
			return nil, err
		}
		if _, ok := stmt.(*Assign); ok {
			last = nil
			continue
		}
		last = v
	}
	return last, nil
}

// Truthy is the boolean interpretation used by `!`, `&&`, `||` and conditions.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func evalUnary(op string, x any) (any, error) {
	switch op {
	case "!":
		return !Truthy(x), nil
	case "-":
		switch n := x.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, fmt.Errorf("cannot negate %s", typeName(x))
	}
	return nil, fmt.Errorf("unknown unary operator %q", op)
}

func evalBinary(b *Binary, env Env) (any, error) {
	left, err := Eval(b.Left, env)
	if err != nil {
		return nil, err
	}

	// Logical operators short-circuit
	switch b.Op {
	case "&&":
		if !Truthy(left) {
			return false, nil
		}
		right, err := Eval(b.Right, env)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	case "||":
		if Truthy(left) {
			return true, nil
		}
		right, err := Eval(b.Right, env)
		if err != nil {
			return nil, err
		}
		return Truthy(right), nil
	}

	right, err := Eval(b.Right, env)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case "==":
		return Equal(left, right), nil
	case "!=":
		return !Equal(left, right), nil
	case "<", "<=", ">", ">=":
		return compare(b.Op, left, right)
	case "+":
		ls, lok := left.(string)
		rs, rok := right.(string)
		if lok || rok {
			if !lok {
				ls = Format(left)
			}
			if !rok {
				rs = Format(right)
			}
			return ls + rs, nil
		}
		return arithmetic(b.Op, left, right)
	case "-", "*", "/", "%":
		return arithmetic(b.Op, left, right)
	}
	return nil, fmt.Errorf("unknown operator %q", b.Op)
}

// Equal compares two values, treating integers and decimals numerically.
func Equal(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func compare(op string, a, b any) (bool, error) {
	var cmp int
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return false, fmt.Errorf("cannot compare %s with %s", typeName(a), typeName(b))
		}
		switch {
		case af < bf:
			cmp = -1
		case af > bf:
			cmp = 1
		}
	} else if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare %s with %s", typeName(a), typeName(b))
		}
		switch {
		case as < bs:
			cmp = -1
		case as > bs:
			cmp = 1
		}
	} else {
		return false, fmt.Errorf("cannot order %s", typeName(a))
	}

	switch op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func arithmetic(op string, a, b any) (any, error) {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		switch op {
		case "+":
			return ai + bi, nil
		case "-":
			return ai - bi, nil
		case "*":
			return ai * bi, nil
		case "/":
			if bi == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return ai / bi, nil
		case "%":
			if bi == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return ai % bi, nil
		}
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return nil, fmt.Errorf("operator %q needs numbers, got %s and %s", op, typeName(a), typeName(b))
	}
	switch op {
	case "+":
		return af + bf, nil
	case "-":
		return af - bf, nil
	case "*":
		return af * bf, nil
	case "/":
		if bf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return af / bf, nil
	default:
		if bf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return math.Mod(af, bf), nil
	}
}

func evalCall(name string, args []any) (any, error) {
	switch name {
	case "len":
		if len(args) != 1 {
			return nil, fmt.Errorf("len expects 1 argument, got %d", len(args))
		}
		switch x := args[0].(type) {
		case string:
			return int64(len([]rune(x))), nil
		case []any:
			return int64(len(x)), nil
		case map[string]any:
			return int64(len(x)), nil
		case nil:
			return int64(0), nil
		}
		return nil, fmt.Errorf("len of %s", typeName(args[0]))
	case "is_empty":
		if len(args) != 1 {
			return nil, fmt.Errorf("is_empty expects 1 argument, got %d", len(args))
		}
		return !Truthy(args[0]), nil
	}
	return nil, fmt.Errorf("unknown function %q", name)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Format renders a value the way string concatenation shows it.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case int64:
		return "integer"
	case float64:
		return "decimal"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "record"
	}
	return fmt.Sprintf("%T", v)
}

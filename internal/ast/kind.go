package ast

import (
	"fmt"
	"strings"

	"github.com/saltyorg/ftd/internal/types"
)

// Modifier wraps the base kind of a VariableKind.
type Modifier int

const (
	ModifierNone Modifier = iota
	ModifierList
	ModifierOptional
)

// VariableKind is the unresolved kind written in source, e.g.
// "optional caption integer" or "string list".
type VariableKind struct {
	Modifier Modifier
	Kind     string // base kind name as written, e.g. "integer", "ftd.color"
	Caption  bool
	Body     bool
}

// ParseVariableKind parses `[optional] [caption] [or] [body] [<kind>] [list]`.
// A bare caption/body flag implies string.
func ParseVariableKind(spec string) (VariableKind, error) {
	var vk VariableKind
	words := strings.Fields(spec)
	if len(words) == 0 {
		return vk, fmt.Errorf("empty kind")
	}

	var base []string
	for i, w := range words {
		switch w {
		case types.Optional:
			if i != 0 {
				return vk, fmt.Errorf("%q must come first in kind %q", w, spec)
			}
			vk.Modifier = ModifierOptional
		case types.List:
			if i != len(words)-1 {
				return vk, fmt.Errorf("%q must come last in kind %q", w, spec)
			}
			if vk.Modifier == ModifierOptional {
				return vk, fmt.Errorf("optional list is not supported in kind %q", spec)
			}
			vk.Modifier = ModifierList
		case types.Caption:
			vk.Caption = true
		case types.Body:
			vk.Body = true
		case types.Or:
			if !vk.Caption || i+1 >= len(words) || words[i+1] != types.Body {
				return vk, fmt.Errorf("only `caption or body` may use %q in kind %q", w, spec)
			}
		default:
			base = append(base, w)
		}
	}

	switch len(base) {
	case 0:
		if !vk.Caption && !vk.Body {
			return vk, fmt.Errorf("kind %q names no type", spec)
		}
		vk.Kind = types.String
	case 1:
		vk.Kind = types.Keyword(base[0])
	default:
		return vk, fmt.Errorf("kind %q names more than one type: %s", spec, strings.Join(base, ", "))
	}

	return vk, nil
}

// IsList reports whether the kind is a list.
func (k VariableKind) IsList() bool { return k.Modifier == ModifierList }

// IsOptional reports whether the kind is optional.
func (k VariableKind) IsOptional() bool { return k.Modifier == ModifierOptional }

// String renders the kind back to source form.
func (k VariableKind) String() string {
	var parts []string
	if k.Modifier == ModifierOptional {
		parts = append(parts, types.Optional)
	}
	switch {
	case k.Caption && k.Body:
		parts = append(parts, "caption or body")
	case k.Caption:
		parts = append(parts, types.Caption)
	case k.Body:
		parts = append(parts, types.Body)
	}
	parts = append(parts, k.Kind)
	if k.Modifier == ModifierList {
		parts = append(parts, types.List)
	}
	return strings.Join(parts, " ")
}

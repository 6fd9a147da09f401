package interpreter

import (
	"strings"
)

// KindTag is the shape of a Kind.
type KindTag int

const (
	KindString KindTag = iota
	KindInteger
	KindDecimal
	KindBoolean
	KindObject
	KindRecord
	KindOrType
	KindOrTypeVariant
	KindList
	KindOptional
	KindMap
	KindUI
	KindSubsectionUI
	KindModule
	KindElement
	KindVoid
)

var kindTagNames = map[KindTag]string{
	KindString:        "string",
	KindInteger:       "integer",
	KindDecimal:       "decimal",
	KindBoolean:       "boolean",
	KindObject:        "object",
	KindRecord:        "record",
	KindOrType:        "or-type",
	KindOrTypeVariant: "or-type variant",
	KindList:          "list",
	KindOptional:      "optional",
	KindMap:           "map",
	KindUI:            "ftd.ui",
	KindSubsectionUI:  "children",
	KindModule:        "module",
	KindElement:       "element",
	KindVoid:          "void",
}

// Kind is the structural type of a value.
type Kind struct {
	Tag     KindTag
	Name    string // record, or-type and ui names
	Variant string // KindOrTypeVariant only
	Inner   *Kind  // list, optional and map
	// Default is the source text of the default value, nil when absent.
	Default *string
	// IsReference promotes a binding to pass-by-reference.
	IsReference bool
}

func StringKind() Kind   { return Kind{Tag: KindString} }
func IntegerKind() Kind  { return Kind{Tag: KindInteger} }
func DecimalKind() Kind  { return Kind{Tag: KindDecimal} }
func BooleanKind() Kind  { return Kind{Tag: KindBoolean} }
func ObjectKind() Kind   { return Kind{Tag: KindObject} }
func UIKind() Kind       { return Kind{Tag: KindUI} }
func ModuleKind() Kind   { return Kind{Tag: KindModule} }
func ElementKind() Kind  { return Kind{Tag: KindElement} }
func VoidKind() Kind     { return Kind{Tag: KindVoid} }
func ChildrenKind() Kind { return Kind{Tag: KindSubsectionUI} }

func RecordKind(name string) Kind { return Kind{Tag: KindRecord, Name: name} }
func OrTypeKind(name string) Kind { return Kind{Tag: KindOrType, Name: name} }

func OrTypeVariantKind(name, variant string) Kind {
	return Kind{Tag: KindOrTypeVariant, Name: name, Variant: variant}
}

func ListOf(inner Kind) Kind     { return Kind{Tag: KindList, Inner: &inner} }
func OptionalOf(inner Kind) Kind { return Kind{Tag: KindOptional, Inner: &inner} }
func MapOf(inner Kind) Kind      { return Kind{Tag: KindMap, Inner: &inner} }

// WithDefault returns k carrying the given default source text.
func (k Kind) WithDefault(def string) Kind {
	k.Default = &def
	return k
}

// Reference returns k with the reference flag set.
func (k Kind) Reference() Kind {
	k.IsReference = true
	return k
}

// IsSameAs is structural equality ignoring defaults and the reference flag.
func (k Kind) IsSameAs(other Kind) bool {
	if k.Tag != other.Tag || k.Name != other.Name || k.Variant != other.Variant {
		return false
	}
	if k.Inner == nil || other.Inner == nil {
		return k.Inner == nil && other.Inner == nil
	}
	return k.Inner.IsSameAs(*other.Inner)
}

// InnerKind strips one level of Optional.
func (k Kind) InnerKind() Kind {
	if k.Tag == KindOptional && k.Inner != nil {
		return *k.Inner
	}
	return k
}

// ItemKind is the element kind of a list, or k itself.
func (k Kind) ItemKind() Kind {
	if k.Tag == KindList && k.Inner != nil {
		return *k.Inner
	}
	if k.Tag == KindSubsectionUI {
		return UIKind()
	}
	return k
}

func (k Kind) IsList() bool     { return k.Tag == KindList || k.Tag == KindSubsectionUI }
func (k Kind) IsOptional() bool { return k.Tag == KindOptional }
func (k Kind) IsRecord() bool   { return k.Tag == KindRecord }
func (k Kind) IsUI() bool       { return k.Tag == KindUI }
func (k Kind) IsOrType() bool {
	return k.Tag == KindOrType || k.Tag == KindOrTypeVariant
}
func (k Kind) IsPrimitive() bool {
	switch k.Tag {
	case KindString, KindInteger, KindDecimal, KindBoolean:
		return true
	}
	return false
}

// Accepts reports whether a value of kind found may fill a slot of kind k.
// Element accepts everything, an optional accepts its inner kind, an
// or-type accepts any of its variants, and a list of UI accepts children.
func (k Kind) Accepts(found Kind) bool {
	if k.Tag == KindElement || found.Tag == KindElement {
		return true
	}
	if k.IsSameAs(found) {
		return true
	}
	switch k.Tag {
	case KindOptional:
		if found.Tag == KindOptional {
			return k.Inner.Accepts(*found.Inner)
		}
		return k.Inner.Accepts(found)
	case KindOrType:
		return found.Tag == KindOrTypeVariant && found.Name == k.Name
	case KindDecimal:
		return found.Tag == KindInteger
	case KindSubsectionUI:
		return found.Tag == KindList && found.Inner.Tag == KindUI
	case KindList:
		if found.Tag == KindSubsectionUI {
			return k.Inner.Tag == KindUI
		}
		return found.Tag == KindList && k.Inner.Accepts(*found.Inner)
	}
	return false
}

// Unify picks the kind of a binding. The expected kind wins, inheriting
// the found default when the two have the same shape; an Element slot
// takes the found kind.
func Unify(expected, found Kind) Kind {
	if expected.Tag == KindElement {
		return found
	}
	if !expected.IsSameAs(found) {
		return expected
	}
	out := expected
	if found.Default != nil {
		out.Default = found.Default
	}
	return out
}

// String renders the kind the way it is written in source.
func (k Kind) String() string {
	var s string
	switch k.Tag {
	case KindRecord, KindOrType:
		s = k.Name
	case KindOrTypeVariant:
		s = k.Name + "." + k.Variant
	case KindList:
		s = k.Inner.String() + " list"
	case KindOptional:
		s = "optional " + k.Inner.String()
	case KindMap:
		s = "map " + k.Inner.String()
	default:
		s = kindTagNames[k.Tag]
	}
	if k.IsReference {
		s = "$" + s
	}
	return s
}

// KindData is a Kind plus the caption/body flags of a field.
type KindData struct {
	Kind    Kind
	Caption bool
	Body    bool
}

// String renders the flags and kind.
func (kd KindData) String() string {
	var parts []string
	switch {
	case kd.Caption && kd.Body:
		parts = append(parts, "caption or body")
	case kd.Caption:
		parts = append(parts, "caption")
	case kd.Body:
		parts = append(parts, "body")
	}
	parts = append(parts, kd.Kind.String())
	return strings.Join(parts, " ")
}

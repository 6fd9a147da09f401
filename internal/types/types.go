// Package types defines the kind keywords used throughout the application.
package types

import "strings"

// Primitive kind keywords.
const (
	String  = "string"
	Integer = "integer"
	Decimal = "decimal"
	Boolean = "boolean"
	Object  = "object"
	Module  = "module"
	Element = "element"
	Void    = "void"
)

// UI kind keywords.
const (
	UI       = "ftd.ui"
	Children = "children"
)

// Kind modifiers and source flags.
const (
	List     = "list"
	Optional = "optional"
	Caption  = "caption"
	Body     = "body"
	Or       = "or"
)

// keywordAliases maps accepted spellings to their canonical keyword.
var keywordAliases = map[string]string{
	"ui":          UI,
	"subsection":  Children,
	"int":         Integer,
	"bool":        Boolean,
	"float":       Decimal,
	"ftd.element": Element,
}

// Keyword returns the canonical keyword for a kind name.
// For example "ui" -> "ftd.ui", "int" -> "integer".
func Keyword(name string) string {
	if name == "" {
		return String
	}
	if keyword, ok := keywordAliases[name]; ok {
		return keyword
	}
	return name
}

// IsPrimitive reports whether the keyword names a built-in scalar kind.
func IsPrimitive(name string) bool {
	switch Keyword(name) {
	case String, Integer, Decimal, Boolean:
		return true
	}
	return false
}

// IsBuiltin reports whether the keyword names a built-in kind of any shape.
func IsBuiltin(name string) bool {
	switch Keyword(name) {
	case String, Integer, Decimal, Boolean, Object, Module, Element, UI, Children, Void:
		return true
	}
	return false
}

// IsModifier reports whether a word is a kind modifier or source flag.
func IsModifier(word string) bool {
	switch strings.ToLower(word) {
	case List, Optional, Caption, Body, Or:
		return true
	}
	return false
}

package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokOp
	tokSep // statement separator: ';' or newline
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// keywordOps maps word operators to their symbolic form.
var keywordOps = map[string]string{
	"and": "&&",
	"or":  "||",
	"not": "!",
}

func lex(src string) ([]token, error) {
	var tokens []token
	runes := []rune(src)
	i := 0

	for i < len(runes) {
		ch := runes[i]
		switch {
		case ch == '\n' || ch == ';':
			tokens = append(tokens, token{kind: tokSep, text: string(ch), pos: i})
			i++
		case unicode.IsSpace(ch):
			i++
		case ch == '"' || ch == '\'':
			start := i
			var sb strings.Builder
			i++
			for i < len(runes) && runes[i] != ch {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					switch runes[i] {
					case 'n':
						sb.WriteRune('\n')
					case 't':
						sb.WriteRune('\t')
					default:
						sb.WriteRune(runes[i])
					}
					i++
					continue
				}
				sb.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated string at offset %d", start)
			}
			i++
			tokens = append(tokens, token{kind: tokString, text: sb.String(), pos: start})
		case unicode.IsDigit(ch):
			start := i
			kind := tokInt
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					if kind == tokFloat || i+1 >= len(runes) || !unicode.IsDigit(runes[i+1]) {
						break
					}
					kind = tokFloat
				}
				i++
			}
			tokens = append(tokens, token{kind: kind, text: string(runes[start:i]), pos: start})
		case ch == '$' || isIdentStart(ch):
			start := i
			if ch == '$' {
				i++
			}
			for i < len(runes) && isIdentPart(runes, i) {
				i++
			}
			name := string(runes[start:i])
			if name == "$" {
				return nil, fmt.Errorf("expected identifier after '$' at offset %d", start)
			}
			if op, ok := keywordOps[name]; ok {
				tokens = append(tokens, token{kind: tokOp, text: op, pos: start})
				continue
			}
			tokens = append(tokens, token{kind: tokIdent, text: name, pos: start})
		default:
			start := i
			two := ""
			if i+1 < len(runes) {
				two = string(runes[i : i+2])
			}
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||":
				tokens = append(tokens, token{kind: tokOp, text: two, pos: start})
				i += 2
				continue
			}
			if strings.ContainsRune("<>!+-*/%()={},", ch) {
				tokens = append(tokens, token{kind: tokOp, text: string(ch), pos: start})
				i++
				continue
			}
			return nil, fmt.Errorf("unexpected character %q at offset %d", ch, start)
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

// isIdentPart accepts kebab-case and dotted paths; a '-' is part of the
// name only when followed by a letter, so `a - b` stays arithmetic.
func isIdentPart(runes []rune, i int) bool {
	ch := runes[i]
	switch {
	case unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '#' || ch == '@':
		return true
	case ch == '-' || ch == '.':
		return i+1 < len(runes) && (unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1]) || runes[i+1] == '_') && i > 0 && runes[i-1] != ' '
	default:
		return false
	}
}

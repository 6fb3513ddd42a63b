package grammar

import (
	"strings"
	"unicode"
)

// tokenKind enumerates the lexical classes of the rule-body language.
type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokInt
	tokLParen
	tokRParen
	tokComma
	tokEquals
	tokPlus
	tokCaret
	tokPipe
	tokDot
	tokEOF
)

type token struct {
	kind tokenKind
	text string // Identifier name, string contents, or digit run.
	pos  int    // Byte offset in the source, for error messages.
}

// bannedSubstrings are rejected inside any identifier before the
// namespace check even runs. Rule bodies come from user-editable YAML;
// anything that smells like host-language escape is refused outright.
var bannedSubstrings = []string{"import", "exec", "eval", "compile", "open", "__"}

// lex splits a rule body into tokens. Only identifiers, single- or
// double-quoted string literals, unsigned integers, and the operator
// set ( ) , = + ^ | . are admitted. Square brackets (subscripts) are
// rejected as unsafe, the operators & * - ~ < > as unsupported, and any
// other character as a syntax error.
func lex(src string) ([]token, *CompileError) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '=':
			toks = append(toks, token{tokEquals, "=", i})
			i++
		case c == '+':
			toks = append(toks, token{tokPlus, "+", i})
			i++
		case c == '^':
			toks = append(toks, token{tokCaret, "^", i})
			i++
		case c == '|':
			toks = append(toks, token{tokPipe, "|", i})
			i++
		case c == '.':
			toks = append(toks, token{tokDot, ".", i})
			i++
		case c == '\'' || c == '"':
			lit, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, lit, i})
			i = next
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			toks = append(toks, token{tokInt, src[start:i], start})
		case isIdentStart(rune(c)):
			start := i
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
			}
			name := src[start:i]
			for _, banned := range bannedSubstrings {
				if strings.Contains(name, banned) {
					return nil, unsafeErr("identifier %q contains forbidden sequence %q", name, banned)
				}
			}
			toks = append(toks, token{tokIdent, name, start})
		case c == '[' || c == ']':
			return nil, unsafeErr("subscript at offset %d is not allowed", i)
		case strings.IndexByte("&*-~<>", c) >= 0:
			return nil, unsupportedErr("operator %q at offset %d is not supported", c, i)
		default:
			return nil, syntaxErr("unexpected character %q at offset %d", c, i)
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

// lexString scans a quoted literal starting at src[start]. Backslash
// escapes the next character; the closing quote must match the opener.
func lexString(src string, start int) (string, int, *CompileError) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch c {
		case '\\':
			if i+1 >= len(src) {
				return "", 0, syntaxErr("unterminated escape at offset %d", i)
			}
			next := src[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(next)
			default:
				b.WriteByte(next)
			}
			i += 2
		case quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, syntaxErr("unterminated string literal at offset %d", start)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

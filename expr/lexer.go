package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokRBrace
	tokNumber
	tokString
	tokArg
	tokIdent
	tokRef
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokLParen
	tokRParen
	tokComma
)

var tokenNames = [...]string{
	tokEOF:     "end of template",
	tokRBrace:  "'}'",
	tokNumber:  "number",
	tokString:  "string",
	tokArg:     "argument",
	tokIdent:   "identifier",
	tokRef:     "reference",
	tokPlus:    "'+'",
	tokMinus:   "'-'",
	tokStar:    "'*'",
	tokSlash:   "'/'",
	tokPercent: "'%'",
	tokLParen:  "'('",
	tokRParen:  "')'",
	tokComma:   "','",
}

var punctuation = map[byte]tokenKind{
	'}': tokRBrace, '+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash,
	'%': tokPercent, '(': tokLParen, ')': tokRParen, ',': tokComma,
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	pos  int
	// text is identifier name, reference key, unquoted string or number literal
	text string
}

// lexer tokenizes expression part of a template starting right after
// opening brace. It stops at the closing brace which is returned as token.
type lexer struct {
	src string
	pos int
}

func (l *lexer) errorf(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isKeyChar(r rune) bool {
	return isIdentChar(r) || r == '.'
}

func (l *lexer) scanWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !pred(r) {
			break
		}
		l.pos += size
	}
	return l.src[start:l.pos]
}

func (l *lexer) next() (token, *Error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]
	if kind, ok := punctuation[c]; ok {
		l.pos++
		return token{kind: kind, pos: start}, nil
	}

	switch {
	case c >= '0' && c <= '9':
		return l.number()
	case c == '"' || c == '\'':
		return l.str(c)
	case c == '$':
		l.pos++
		digits := l.scanWhile(func(r rune) bool { return r >= '0' && r <= '9' })
		if len(digits) == 0 {
			return token{}, l.errorf(start, "argument index expected after '$'")
		}
		return token{kind: tokArg, pos: start, text: digits}, nil
	case c == '@':
		l.pos++
		key := l.scanWhile(isKeyChar)
		if len(key) == 0 || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") || strings.Contains(key, "..") {
			return token{}, l.errorf(start, "malformed reference key %q", key)
		}
		return token{kind: tokRef, pos: start, text: key}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	if isIdentStart(r) {
		return token{kind: tokIdent, pos: start, text: l.scanWhile(isIdentChar)}, nil
	}
	if c == '{' {
		return token{}, l.errorf(start, "unexpected '{' inside expression")
	}
	return token{}, l.errorf(start, "unexpected character %q", r)
}

func (l *lexer) number() (token, *Error) {
	start := l.pos
	isDigit := func(r rune) bool { return r >= '0' && r <= '9' }
	l.scanWhile(isDigit)
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9' {
		l.pos++
		l.scanWhile(isDigit)
	}
	return token{kind: tokNumber, pos: start, text: l.src[start:l.pos]}, nil
}

func (l *lexer) str(quote byte) (token, *Error) {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == quote:
			l.pos++
			return token{kind: tokString, pos: start, text: sb.String()}, nil
		case c == '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, l.errorf(l.pos, "unterminated escape sequence")
			}
			switch e := l.src[l.pos+1]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"', '\'':
				sb.WriteByte(e)
			default:
				return token{}, l.errorf(l.pos, "unknown escape sequence \\%c", e)
			}
			l.pos += 2
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, l.errorf(start, "unterminated string")
}

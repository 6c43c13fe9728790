package expr

import (
	"fmt"
	"strings"
	"unicode"
)

// lexer scans an expression source into tokens. Identifier scanning
// enforces the sandbox deny-list: forbidden words never reach the parser.
type lexer struct {
	source string
	pos    int
}

// lex tokenizes the whole source. It returns a *SecurityError for
// deny-listed identifiers and a *SyntaxError for malformed input.
func lex(source string) ([]token, error) {
	l := &lexer{source: source}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.source) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	ch := l.source[l.pos]

	switch {
	case isIdentStart(ch):
		return l.scanIdent(start)
	case ch >= '0' && ch <= '9':
		return l.scanNumber(start)
	case ch == '\'' || ch == '"':
		return l.scanString(start, ch)
	}

	// A leading "." followed by a digit is a float literal (".5").
	if ch == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1]) {
		return l.scanNumber(start)
	}

	for _, p := range punctuation {
		if strings.HasPrefix(l.source[l.pos:], p) {
			l.pos += len(p)
			return token{kind: tokenPunct, text: p, pos: start}, nil
		}
	}

	return token{}, &SyntaxError{
		Expression: l.source,
		Pos:        start,
		Message:    fmt.Sprintf("unexpected character %q", ch),
	}
}

func (l *lexer) scanIdent(start int) (token, error) {
	for l.pos < len(l.source) && isIdentPart(l.source[l.pos]) {
		l.pos++
	}
	name := l.source[start:l.pos]

	if isForbiddenIdent(name) {
		return token{}, &SecurityError{
			Expression: l.source,
			Pattern:    strings.ToLower(name),
			Message:    "identifier is not permitted in sandboxed expressions",
		}
	}

	if canonical, ok := keywords[name]; ok {
		return token{kind: tokenKeyword, text: canonical, pos: start}, nil
	}
	return token{kind: tokenIdent, text: name, pos: start}, nil
}

func (l *lexer) scanNumber(start int) (token, error) {
	kind := tokenInt
	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.source) && l.source[l.pos] == '.' {
		// Not a float if this is an attribute access like 1 .foo; the
		// grammar has no such form, so a dot after digits is a fraction.
		kind = tokenFloat
		l.pos++
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.source) && (l.source[l.pos] == 'e' || l.source[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.source) && (l.source[l.pos] == '+' || l.source[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			kind = tokenFloat
			for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
				l.pos++
			}
		} else {
			// "1e" with no digits is the identifier boundary case; back off
			// and let the parser report it.
			l.pos = mark
		}
	}
	return token{kind: kind, text: l.source[start:l.pos], pos: start}, nil
}

func (l *lexer) scanString(start int, quote byte) (token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		switch ch {
		case quote:
			l.pos++
			return token{kind: tokenString, text: sb.String(), pos: start}, nil
		case '\\':
			l.pos++
			if l.pos >= len(l.source) {
				break
			}
			esc := l.source[l.pos]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				return token{}, &SyntaxError{
					Expression: l.source,
					Pos:        l.pos,
					Message:    fmt.Sprintf("unknown escape sequence \\%c", esc),
				}
			}
			l.pos++
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return token{}, &SyntaxError{
		Expression: l.source,
		Pos:        start,
		Message:    "unterminated string literal",
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.source) && unicode.IsSpace(rune(l.source[l.pos])) {
		l.pos++
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

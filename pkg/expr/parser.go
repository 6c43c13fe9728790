package expr

import (
	"fmt"
	"strconv"
)

// maxNestingDepth bounds expression tree depth so pathological inputs from
// rule documents cannot exhaust the stack.
const maxNestingDepth = 64

// Program is a compiled expression. It holds the immutable syntax tree and
// the original source for error reporting. Programs are safe for
// concurrent Run calls.
type Program struct {
	source string
	root   node
}

// Source returns the original expression source.
func (p *Program) Source() string {
	return p.source
}

// Compile parses an expression source into a Program.
//
// Compile applies both sandbox layers: the textual pre-filter first, then
// the structural lexer/parser. It returns *SecurityError for deny-listed
// constructs and *SyntaxError for other malformed input.
func Compile(source string) (*Program, error) {
	if source == "" {
		return nil, &SyntaxError{Expression: source, Message: "expression is empty"}
	}

	if err := CheckSource(source); err != nil {
		return nil, err
	}

	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}

	p := &parser{source: source, tokens: tokens}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, &SyntaxError{
			Expression: source,
			Pos:        tok.pos,
			Message:    fmt.Sprintf("unexpected %q after expression", tok.text),
		}
	}

	return &Program{source: source, root: root}, nil
}

// parser is a recursive-descent parser over the token stream. Precedence
// follows the source language: or < and < not < comparison < additive <
// multiplicative < unary minus < postfix (call, index, attribute).
type parser struct {
	source string
	tokens []token
	idx    int
}

func (p *parser) peek() token {
	return p.tokens[p.idx]
}

func (p *parser) advance() token {
	tok := p.tokens[p.idx]
	if tok.kind != tokenEOF {
		p.idx++
	}
	return tok
}

func (p *parser) expectPunct(text string) (token, error) {
	tok := p.peek()
	if tok.kind != tokenPunct || tok.text != text {
		return token{}, p.syntaxErrorf(tok, "expected %q, found %q", text, tokenText(tok))
	}
	return p.advance(), nil
}

func (p *parser) matchPunct(text string) bool {
	tok := p.peek()
	if tok.kind == tokenPunct && tok.text == text {
		p.advance()
		return true
	}
	return false
}

func (p *parser) matchKeyword(word string) bool {
	tok := p.peek()
	if tok.kind == tokenKeyword && tok.text == word {
		p.advance()
		return true
	}
	return false
}

func (p *parser) parseExpr(depth int) (node, error) {
	return p.parseOr(depth)
}

func (p *parser) parseOr(depth int) (node, error) {
	if depth > maxNestingDepth {
		return nil, p.syntaxErrorf(p.peek(), "expression nesting exceeds %d levels", maxNestingDepth)
	}
	left, err := p.parseAnd(depth + 1)
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("or") {
		right, err := p.parseAnd(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd(depth int) (node, error) {
	left, err := p.parseNot(depth + 1)
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("and") {
		right, err := p.parseNot(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot(depth int) (node, error) {
	tok := p.peek()
	if tok.kind == tokenKeyword && tok.text == "not" {
		p.advance()
		operand, err := p.parseNot(depth + 1)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: "not", operand: operand, offset: tok.pos}, nil
	}
	return p.parseComparison(depth + 1)
}

func (p *parser) parseComparison(depth int) (node, error) {
	left, err := p.parseAdditive(depth + 1)
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	switch {
	case tok.kind == tokenPunct && isComparisonOp(tok.text):
		p.advance()
		right, err := p.parseAdditive(depth + 1)
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: tok.text, left: left, right: right}, nil

	case tok.kind == tokenKeyword && tok.text == "in":
		p.advance()
		right, err := p.parseAdditive(depth + 1)
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: "in", left: left, right: right}, nil

	case tok.kind == tokenKeyword && tok.text == "not":
		// "not in" is the only comparison spelled with two keywords.
		p.advance()
		if !p.matchKeyword("in") {
			return nil, p.syntaxErrorf(p.peek(), "expected \"in\" after \"not\"")
		}
		right, err := p.parseAdditive(depth + 1)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: "not", operand: &binaryNode{op: "in", left: left, right: right}, offset: tok.pos}, nil
	}

	return left, nil
}

func (p *parser) parseAdditive(depth int) (node, error) {
	left, err := p.parseMultiplicative(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenPunct || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative(depth int) (node, error) {
	left, err := p.parseUnary(depth + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenPunct || (tok.text != "*" && tok.text != "/" && tok.text != "%") {
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) parseUnary(depth int) (node, error) {
	tok := p.peek()
	if tok.kind == tokenPunct && tok.text == "-" {
		p.advance()
		operand, err := p.parseUnary(depth + 1)
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: "-", operand: operand, offset: tok.pos}, nil
	}
	return p.parsePostfix(depth + 1)
}

// parsePostfix parses a primary expression followed by any chain of calls,
// index expressions, and attribute accesses.
func (p *parser) parsePostfix(depth int) (node, error) {
	if depth > maxNestingDepth {
		return nil, p.syntaxErrorf(p.peek(), "expression nesting exceeds %d levels", maxNestingDepth)
	}

	target, err := p.parsePrimary(depth + 1)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.kind == tokenPunct && tok.text == ".":
			p.advance()
			name := p.peek()
			if name.kind != tokenIdent {
				return nil, p.syntaxErrorf(name, "expected attribute name after \".\"")
			}
			p.advance()
			target = &attrNode{target: target, name: name.text, offset: tok.pos}

		case tok.kind == tokenPunct && tok.text == "[":
			p.advance()
			index, err := p.parseExpr(depth + 1)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			target = &indexNode{target: target, index: index, offset: tok.pos}

		case tok.kind == tokenPunct && tok.text == "(":
			// Only identifiers (builtins) and attributes (safe accessor
			// methods) are callable. Calling anything else is a sandbox
			// escape attempt, not a syntax mistake.
			switch target.(type) {
			case *identNode, *attrNode:
			default:
				return nil, &SecurityError{
					Expression: p.source,
					Message:    "only allow-listed builtins and accessor methods may be called",
				}
			}
			p.advance()
			args, err := p.parseArgs(depth + 1)
			if err != nil {
				return nil, err
			}
			target = &callNode{callee: target, args: args, offset: tok.pos}

		default:
			return target, nil
		}
	}
}

func (p *parser) parseArgs(depth int) ([]node, error) {
	var args []node
	if p.matchPunct(")") {
		return args, nil
	}
	for {
		arg, err := p.parseExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.matchPunct(")") {
			return args, nil
		}
		if _, err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parsePrimary(depth int) (node, error) {
	tok := p.peek()

	switch tok.kind {
	case tokenInt:
		p.advance()
		value, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, p.syntaxErrorf(tok, "invalid integer literal %q", tok.text)
		}
		return &literalNode{value: value, offset: tok.pos}, nil

	case tokenFloat:
		p.advance()
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.syntaxErrorf(tok, "invalid float literal %q", tok.text)
		}
		return &literalNode{value: value, offset: tok.pos}, nil

	case tokenString:
		p.advance()
		return &literalNode{value: tok.text, offset: tok.pos}, nil

	case tokenIdent:
		p.advance()
		return &identNode{name: tok.text, offset: tok.pos}, nil

	case tokenKeyword:
		switch tok.text {
		case "True":
			p.advance()
			return &literalNode{value: true, offset: tok.pos}, nil
		case "False":
			p.advance()
			return &literalNode{value: false, offset: tok.pos}, nil
		case "None":
			p.advance()
			return &literalNode{value: nil, offset: tok.pos}, nil
		}

	case tokenPunct:
		switch tok.text {
		case "(":
			p.advance()
			inner, err := p.parseExpr(depth + 1)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "[":
			return p.parseList(depth + 1)
		case "{":
			return p.parseDict(depth + 1)
		}
	}

	return nil, p.syntaxErrorf(tok, "unexpected %s", tokenText(tok))
}

func (p *parser) parseList(depth int) (node, error) {
	open := p.advance() // "["
	list := &listNode{offset: open.pos}
	if p.matchPunct("]") {
		return list, nil
	}
	for {
		element, err := p.parseExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		list.elements = append(list.elements, element)
		if p.matchPunct("]") {
			return list, nil
		}
		if _, err := p.expectPunct(","); err != nil {
			return nil, err
		}
		// Trailing comma.
		if p.matchPunct("]") {
			return list, nil
		}
	}
}

func (p *parser) parseDict(depth int) (node, error) {
	open := p.advance() // "{"
	dict := &dictNode{offset: open.pos}
	if p.matchPunct("}") {
		return dict, nil
	}
	for {
		key, err := p.parseExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		dict.keys = append(dict.keys, key)
		dict.values = append(dict.values, value)
		if p.matchPunct("}") {
			return dict, nil
		}
		if _, err := p.expectPunct(","); err != nil {
			return nil, err
		}
		if p.matchPunct("}") {
			return dict, nil
		}
	}
}

func (p *parser) syntaxErrorf(tok token, format string, args ...any) error {
	return &SyntaxError{
		Expression: p.source,
		Pos:        tok.pos,
		Message:    fmt.Sprintf(format, args...),
	}
}

func isComparisonOp(text string) bool {
	switch text {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func tokenText(tok token) string {
	if tok.kind == tokenEOF {
		return "end of expression"
	}
	return strconv.Quote(tok.text)
}

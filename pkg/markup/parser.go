// Package markup parses the schema markup dialect into a generic node tree.
//
// # Grammar
//
//	document  → misc* element misc*
//	element   → '<' ident attr* ('/>' | '>' content* '</' ident '>')
//	content   → element | text | comment
//	attr      → ident '=' string
//	misc      → comment | whitespace
//
// Strings are double quoted. Comments (<!-- ... -->) are kept as nodes tagged
// CommentTag, character data as nodes tagged TextTag with leading whitespace
// removed from every line. Any syntax error rejects the whole input.
package markup

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/paramgen/pkg/token"
)

// Parser builds a Node tree from markup tokens.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	errors []error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	return p
}

// Parse parses a complete document and returns its root element. On failure
// it returns a nil node and an error wrapping ErrMalformedDocument.
func Parse(input string) (*Node, error) {
	p := NewParser(input)
	root := p.parseDocument()
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, p.errors[0])
	}
	return root, nil
}

// ---------- Token Helpers ----------

func (p *Parser) nextToken() {
	p.token = p.lexer.NextToken()
	if p.token.Type == token.ILLEGAL && p.lexer.Err() != nil && !p.failed() {
		p.errors = append(p.errors, p.lexer.Err())
	}
}

func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) (token.Token, bool) {
	tok := p.token
	if p.check(t) {
		p.nextToken()
		return tok, true
	}
	p.addError(errUnexpectedToken, p.token, t)
	return tok, false
}

func (p *Parser) addError(format string, args ...any) {
	if p.failed() {
		return
	}
	p.errors = append(p.errors, NewParseErrorf(p.token.Pos, format, args...))
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// ---------- Document ----------

func (p *Parser) parseDocument() *Node {
	p.skipMisc()
	if p.failed() {
		return nil
	}
	if p.check(token.EOF) {
		p.addError(errEmptyDocument)
		return nil
	}
	if !p.check(token.TAG_OPEN) {
		p.addError(errUnexpectedToken, p.token, token.TAG_OPEN)
		return nil
	}

	root := p.parseElement()
	if p.failed() {
		return nil
	}

	p.skipMisc()
	if p.failed() {
		return nil
	}
	if !p.check(token.EOF) {
		p.addError(errTrailingContent, p.token)
		return nil
	}
	return root
}

// skipMisc skips comments and whitespace around the root element.
func (p *Parser) skipMisc() {
	for {
		switch p.token.Type {
		case token.COMMENT:
			p.nextToken()
		case token.TEXT:
			if strings.TrimSpace(p.token.Literal) != "" {
				p.addError(errTextOutsideRoot)
				return
			}
			p.nextToken()
		default:
			return
		}
	}
}

// parseElement parses an element starting at its '<' token.
func (p *Parser) parseElement() *Node {
	open := p.token
	p.nextToken()

	name, ok := p.expect(token.IDENT)
	if !ok {
		return nil
	}

	n := &Node{
		Tag:   name.Literal,
		Attrs: make(map[string]string),
		Pos:   open.Pos,
	}

	for p.check(token.IDENT) {
		key := p.token
		p.nextToken()
		if _, ok := p.expect(token.EQ); !ok {
			return nil
		}
		val, ok := p.expect(token.STRING)
		if !ok {
			return nil
		}
		if _, dup := n.Attrs[key.Literal]; dup {
			p.errors = append(p.errors, NewParseErrorf(key.Pos, errDuplicateAttr, key.Literal, n.Tag))
			return nil
		}
		n.Attrs[key.Literal] = val.Literal
	}

	if p.check(token.SELF_CLOSE) {
		p.nextToken()
		return n
	}
	if _, ok := p.expect(token.TAG_END); !ok {
		return nil
	}

	for {
		switch p.token.Type {
		case token.TEXT:
			if text := stripLineIndent(p.token.Literal); strings.TrimSpace(text) != "" {
				n.Children = append(n.Children, &Node{Tag: TextTag, Text: text, Pos: p.token.Pos})
			}
			p.nextToken()
		case token.COMMENT:
			n.Children = append(n.Children, &Node{Tag: CommentTag, Text: p.token.Literal, Pos: p.token.Pos})
			p.nextToken()
		case token.TAG_OPEN:
			child := p.parseElement()
			if child == nil {
				return nil
			}
			n.Children = append(n.Children, child)
		case token.CLOSE_OPEN:
			p.nextToken()
			closing, ok := p.expect(token.IDENT)
			if !ok {
				return nil
			}
			if closing.Literal != n.Tag {
				p.errors = append(p.errors, NewParseErrorf(closing.Pos, errMismatchedClose, closing.Literal, n.Tag, n.Pos))
				return nil
			}
			if _, ok := p.expect(token.TAG_END); !ok {
				return nil
			}
			return n
		case token.EOF:
			p.addError(errUnclosedElement, n.Tag, n.Pos)
			return nil
		default:
			p.addError(errUnexpectedToken, p.token, "content")
			return nil
		}
	}
}

// stripLineIndent removes leading whitespace from every line of s.
func stripLineIndent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, " \t\r")
	}
	return strings.Join(lines, "\n")
}

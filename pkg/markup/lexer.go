package markup

import (
	"strings"

	"github.com/leapstack-labs/paramgen/pkg/token"
)

// Lexer tokenizes schema markup. It switches between content mode (text,
// comments and tag openers) and tag mode (identifiers, '=', strings and tag
// closers) on its own, so the parser never has to steer it.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
	inTag   bool

	err *LexError // first lexical error, reported with an ILLEGAL token
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Err returns the error behind the last ILLEGAL token, if any.
func (l *Lexer) Err() *LexError {
	return l.err
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	if l.pos < len(l.input) && l.readPos > 0 && l.input[l.pos] == '\n' {
		l.line++
		l.col = 0
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		l.readChar()
	}
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	if l.inTag {
		return l.tagToken()
	}
	return l.contentToken()
}

// Tokenize converts the whole input into a slice of tokens, stopping after
// EOF or the first ILLEGAL token.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		switch tok.Type {
		case token.EOF:
			return tokens, nil
		case token.ILLEGAL:
			if l.err != nil {
				return tokens, l.err
			}
			return tokens, NewLexError(tok.Pos, "illegal character "+tok.Literal)
		}
	}
}

func (l *Lexer) contentToken() token.Token {
	pos := l.currentPos()

	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	if l.ch != '<' {
		return l.readText(pos)
	}

	switch {
	case l.hasPrefix("<!--"):
		return l.readComment(pos)
	case l.hasPrefix("<?"):
		end := strings.Index(l.input[l.pos:], "?>")
		if end < 0 {
			return l.illegal(pos, errUnterminatedDecl)
		}
		l.advance(end + 2)
		return l.contentToken()
	case l.peekChar() == '/':
		l.advance(2)
		l.inTag = true
		return token.Token{Type: token.CLOSE_OPEN, Literal: "</", Pos: pos}
	default:
		l.readChar()
		l.inTag = true
		return token.Token{Type: token.TAG_OPEN, Literal: "<", Pos: pos}
	}
}

func (l *Lexer) tagToken() token.Token {
	l.skipWhitespace()
	pos := l.currentPos()

	if l.atEOF() {
		return token.Token{Type: token.EOF, Pos: pos}
	}

	switch l.ch {
	case '=':
		l.readChar()
		return token.Token{Type: token.EQ, Literal: "=", Pos: pos}
	case '"':
		return l.readString(pos)
	case '>':
		l.readChar()
		l.inTag = false
		return token.Token{Type: token.TAG_END, Literal: ">", Pos: pos}
	case '/':
		if l.peekChar() == '>' {
			l.advance(2)
			l.inTag = false
			return token.Token{Type: token.SELF_CLOSE, Literal: "/>", Pos: pos}
		}
	}

	if isIdentStart(l.ch) {
		start := l.pos
		for !l.atEOF() && isIdentChar(l.ch) {
			l.readChar()
		}
		return token.Token{Type: token.IDENT, Literal: l.input[start:l.pos], Pos: pos}
	}

	ch := string(l.ch)
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Literal: ch, Pos: pos}
}

// readText reads character data up to the next '<' or EOF.
func (l *Lexer) readText(pos token.Position) token.Token {
	start := l.pos
	for !l.atEOF() && l.ch != '<' {
		l.readChar()
	}
	return token.Token{Type: token.TEXT, Literal: l.input[start:l.pos], Pos: pos}
}

// readComment reads <!-- ... --> and returns the body without delimiters.
func (l *Lexer) readComment(pos token.Position) token.Token {
	l.advance(4)
	end := strings.Index(l.input[l.pos:], "-->")
	if end < 0 {
		return l.illegal(pos, errUnterminatedComm)
	}
	body := l.input[l.pos : l.pos+end]
	l.advance(end + 3)
	return token.Token{Type: token.COMMENT, Literal: body, Pos: pos}
}

// readString reads a double-quoted literal. A backslash protects the next
// character from ending the literal, and every backslash in the body is then
// dropped, so `\"` yields `"` and `\\` yields nothing.
func (l *Lexer) readString(pos token.Position) token.Token {
	l.readChar() // skip opening quote
	start := l.pos
	for {
		if l.atEOF() {
			return l.illegal(pos, errUnterminatedString)
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				return l.illegal(pos, errUnterminatedString)
			}
			l.readChar()
			continue
		}
		if l.ch == '"' {
			break
		}
		l.readChar()
	}
	body := l.input[start:l.pos]
	l.readChar() // skip closing quote
	return token.Token{Type: token.STRING, Literal: unescape(body), Pos: pos}
}

func (l *Lexer) illegal(pos token.Position, msg string) token.Token {
	if l.err == nil {
		l.err = NewLexError(pos, msg)
	}
	// Nothing after a lexical error is meaningful.
	l.pos = len(l.input)
	l.readPos = len(l.input) + 1
	l.ch = 0
	return token.Token{Type: token.ILLEGAL, Literal: msg, Pos: pos}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEOF() && isSpace(l.ch) {
		l.readChar()
	}
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.ReplaceAll(s, `\`, "")
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || ch >= '0' && ch <= '9' || ch == '-' || ch == ':' || ch == '.'
}

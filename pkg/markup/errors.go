package markup

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/paramgen/pkg/token"
)

// ErrMalformedDocument is wrapped by every error returned from Parse.
// A malformed document never yields a partial tree.
var ErrMalformedDocument = errors.New("malformed document")

// Error is the interface shared by lexer and parser errors.
type Error interface {
	error
	Position() token.Position
}

type baseError struct {
	pos token.Position
	msg string
}

func (e *baseError) Position() token.Position { return e.pos }

// LexError represents an error during lexical analysis.
type LexError struct {
	baseError
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// NewLexError creates a new lexer error.
func NewLexError(pos token.Position, msg string) *LexError {
	return &LexError{baseError{pos: pos, msg: msg}}
}

// ParseError represents a syntax error found by the parser.
type ParseError struct {
	baseError
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// NewParseErrorf creates a new parser error with formatting.
func NewParseErrorf(pos token.Position, format string, args ...any) *ParseError {
	return &ParseError{baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// Common error messages
const (
	errUnexpectedToken    = "unexpected token %s, expected %s"
	errUnterminatedString = "unterminated string literal"
	errUnterminatedComm   = "unterminated comment"
	errUnterminatedDecl   = "unterminated processing instruction"
	errMismatchedClose    = "closing tag </%s> does not match <%s> opened at %s"
	errUnclosedElement    = "element <%s> opened at %s is never closed"
	errDuplicateAttr      = "duplicate attribute %q on <%s>"
	errTextOutsideRoot    = "unexpected text outside the root element"
	errTrailingContent    = "unexpected %s after the root element"
	errEmptyDocument      = "document has no root element"
)

// Package token defines the token types for schema markup.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Content mode
	TEXT       // character data between tags
	COMMENT    // <!-- ... -->
	TAG_OPEN   // <
	CLOSE_OPEN // </

	// Tag mode
	IDENT      // module, name, short-name
	EQ         // =
	STRING     // "value"
	TAG_END    // >
	SELF_CLOSE // />
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	ILLEGAL:    "ILLEGAL",
	TEXT:       "TEXT",
	COMMENT:    "COMMENT",
	TAG_OPEN:   "'<'",
	CLOSE_OPEN: "'</'",
	IDENT:      "IDENT",
	EQ:         "'='",
	STRING:     "STRING",
	TAG_END:    "'>'",
	SELF_CLOSE: "'/>'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int32(t))
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

func (t Token) String() string {
	switch t.Type {
	case IDENT, STRING, ILLEGAL:
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	default:
		return t.Type.String()
	}
}

package markup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/paramgen/pkg/token"
)

func TestParser_ValidInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		checkFunc func(t *testing.T, root *Node)
	}{
		{
			name:  "self closing root",
			input: `<module name="Synth"/>`,
			checkFunc: func(t *testing.T, root *Node) {
				assert.Equal(t, "module", root.Tag)
				assert.Equal(t, "Synth", root.Attrs["name"])
				assert.Empty(t, root.Children)
			},
		},
		{
			name: "nested elements keep document order",
			input: `<module name="Synth">
				<param name="Volume"/>
				<module name="Osc" count="2"><source name="Env"/></module>
				<source name="Lfo"/>
			</module>`,
			checkFunc: func(t *testing.T, root *Node) {
				elems := root.Elements()
				require.Len(t, elems, 3)
				assert.Equal(t, "param", elems[0].Tag)
				assert.Equal(t, "module", elems[1].Tag)
				assert.Equal(t, "2", elems[1].Attrs["count"])
				assert.Equal(t, "source", elems[1].Elements()[0].Tag)
				assert.Equal(t, "source", elems[2].Tag)
			},
		},
		{
			name:  "comments become comment nodes",
			input: `<module name="A"><!-- hello --><param name="B"/></module>`,
			checkFunc: func(t *testing.T, root *Node) {
				require.Len(t, root.Children, 2)
				assert.Equal(t, CommentTag, root.Children[0].Tag)
				assert.Equal(t, " hello ", root.Children[0].Text)
				assert.False(t, root.Children[0].IsElement())
				assert.Len(t, root.Elements(), 1)
			},
		},
		{
			name:  "text has per-line indentation stripped",
			input: "<param name=\"A\">\n    first line\n\t\tsecond line\n</param>",
			checkFunc: func(t *testing.T, root *Node) {
				require.Len(t, root.Children, 1)
				text := root.Children[0]
				assert.Equal(t, TextTag, text.Tag)
				assert.Equal(t, "\nfirst line\nsecond line\n", text.Text)
			},
		},
		{
			name:  "whitespace-only text is dropped",
			input: "<module name=\"A\">\n   \n</module>",
			checkFunc: func(t *testing.T, root *Node) {
				assert.Empty(t, root.Children)
			},
		},
		{
			name:  "prolog and surrounding comments are skipped",
			input: "<?xml version=\"1.0\"?>\n<!-- top -->\n<module name=\"A\"/>\n<!-- end -->\n",
			checkFunc: func(t *testing.T, root *Node) {
				assert.Equal(t, "module", root.Tag)
			},
		},
		{
			name:  "escaped quote inside string",
			input: `<param name="Say \"hi\""/>`,
			checkFunc: func(t *testing.T, root *Node) {
				assert.Equal(t, `Say "hi"`, root.Attrs["name"])
			},
		},
		{
			name:  "every backslash is stripped",
			input: `<param name="a\\b\c"/>`,
			checkFunc: func(t *testing.T, root *Node) {
				assert.Equal(t, "abc", root.Attrs["name"])
			},
		},
		{
			name:  "hyphenated attribute names",
			input: `<param name="Cutoff" short-name="Cut" var-name="cut"/>`,
			checkFunc: func(t *testing.T, root *Node) {
				v, ok := root.Attr("short-name")
				assert.True(t, ok)
				assert.Equal(t, "Cut", v)
				assert.Equal(t, "cut", root.AttrOr("var-name", "x"))
				assert.Equal(t, "x", root.AttrOr("missing", "x"))
				assert.Equal(t, []string{"name", "short-name", "var-name"}, root.AttrKeys())
			},
		},
		{
			name:  "positions are 1-based",
			input: "<module name=\"A\">\n  <param name=\"B\"/>\n</module>",
			checkFunc: func(t *testing.T, root *Node) {
				assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, root.Pos)
				child := root.Elements()[0]
				assert.Equal(t, 2, child.Pos.Line)
				assert.Equal(t, 3, child.Pos.Column)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse(tt.input)
			require.NoError(t, err)
			require.NotNil(t, root)
			tt.checkFunc(t, root)
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
		lexical bool
	}{
		{"unterminated string", `<param name="abc/>`, "unterminated string literal", true},
		{"unterminated comment", `<module name="A"><!-- oops</module>`, "unterminated comment", true},
		{"mismatched closing tag", `<module name="A"><param name="B"></module></param>`, "closing tag </module> does not match <param>", false},
		{"missing equals", `<param name "A"/>`, "expected '='", false},
		{"missing value", `<param name=/>`, "expected STRING", false},
		{"unclosed element", `<module name="A">`, "is never closed", false},
		{"duplicate attribute", `<param name="A" name="B"/>`, `duplicate attribute "name"`, false},
		{"empty document", "  <!-- nothing -->  ", "no root element", false},
		{"text before root", `hello <module name="A"/>`, "unexpected text outside the root element", false},
		{"two roots", `<module name="A"/><module name="B"/>`, "after the root element", false},
		{"illegal char in tag", `<param @="x"/>`, "unexpected token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, root, "a failed parse must not return a partial tree")
			assert.True(t, errors.Is(err, ErrMalformedDocument))
			assert.Contains(t, err.Error(), tt.wantMsg)

			var lexErr *LexError
			assert.Equal(t, tt.lexical, errors.As(err, &lexErr))
		})
	}
}

func TestNode_StringRoundTrip(t *testing.T) {
	input := `<module count="2" name="Osc"><param name="Say \"hi\""/><!--c--></module>`
	root, err := Parse(input)
	require.NoError(t, err)

	again, err := Parse(root.String())
	require.NoError(t, err)
	assert.Equal(t, root.String(), again.String())
	assert.Equal(t, `Say "hi"`, again.Elements()[0].Attrs["name"])
}

func TestNode_Walk(t *testing.T) {
	root, err := Parse(`<module name="A"><module name="B"><param name="C"/></module><param name="D"/></module>`)
	require.NoError(t, err)

	var tags []string
	root.Walk(func(n *Node) bool {
		tags = append(tags, n.Attrs["name"])
		return n.Attrs["name"] != "B"
	})
	assert.Equal(t, []string{"A", "B", "D"}, tags)
}

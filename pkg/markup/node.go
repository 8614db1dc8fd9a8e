package markup

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/paramgen/pkg/token"
)

// Tags used for nodes that are not elements.
const (
	TextTag    = "#text"
	CommentTag = "#comment"
)

// Node is one element, text run or comment of a parsed document.
// Nodes are never modified after Parse returns.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Children []*Node
	Text     string
	Pos      token.Position
}

// IsElement reports whether n is an element rather than text or a comment.
func (n *Node) IsElement() bool {
	return n.Tag != TextTag && n.Tag != CommentTag
}

// Attr returns the attribute value for key and whether it was present.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// AttrOr returns the attribute value for key, or def when absent.
func (n *Node) AttrOr(key, def string) string {
	if v, ok := n.Attrs[key]; ok {
		return v
	}
	return def
}

// AttrKeys returns the attribute names sorted alphabetically.
func (n *Node) AttrKeys() []string {
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Elements returns the element children of n in document order.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.IsElement() {
			out = append(out, c)
		}
	}
	return out
}

// Walk calls fn for n and every descendant in pre-order. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// String serializes the node back to markup. Attribute order is alphabetical.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	switch n.Tag {
	case TextTag:
		sb.WriteString(n.Text)
		return
	case CommentTag:
		sb.WriteString("<!--")
		sb.WriteString(n.Text)
		sb.WriteString("-->")
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, k := range n.AttrKeys() {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(quoteAttr(n.Attrs[k]))
	}
	if len(n.Children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteByte('>')
	for _, c := range n.Children {
		c.write(sb)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}

// quoteAttr quotes an attribute value so that Parse reads it back unchanged.
// Backslashes cannot survive a round trip since the lexer strips them all.
func quoteAttr(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

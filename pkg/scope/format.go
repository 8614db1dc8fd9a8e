package scope

import "strings"

// Placeholders understood by Format.
const (
	PlaceholderName           = "{name}"
	PlaceholderShortName      = "{short-name}"
	PlaceholderNamespace      = "{namespace}"
	PlaceholderShortNamespace = "{short-namespace}"
	PlaceholderIndex          = "{index}"
	PlaceholderI              = "{i}"
)

// Format expands a display template against a scope and entity fields.
//
// {name}, {short-name}, {namespace}, {short-namespace}, {index} (1-based) and
// {i} (0-based) are replaced, as is $var for every variable bound in the
// scope. Unknown placeholders and unbound variables are kept as written. The
// template is scanned once from left to right, so text produced by a
// substitution is never expanded again. The result is trimmed.
func Format(template string, s Scope, f Fields) string {
	if !strings.ContainsAny(template, "{$") {
		return trim(template)
	}

	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if val, n, ok := placeholder(template[i:], s, f); ok {
				sb.WriteString(val)
				i += n
				continue
			}
		case '$':
			if val, n, ok := variable(template[i:], s); ok {
				sb.WriteString(val)
				i += n
				continue
			}
		}
		sb.WriteByte(template[i])
		i++
	}
	return trim(sb.String())
}

func placeholder(rest string, s Scope, f Fields) (string, int, bool) {
	end := strings.IndexByte(rest, '}')
	if end < 0 {
		return "", 0, false
	}
	key := rest[:end+1]
	switch key {
	case PlaceholderName:
		return f.Name, len(key), true
	case PlaceholderShortName:
		return f.ShortName, len(key), true
	case PlaceholderNamespace:
		return s.Namespace, len(key), true
	case PlaceholderShortNamespace:
		return s.ShortNamespace, len(key), true
	case PlaceholderIndex:
		return s.IndexString(), len(key), true
	case PlaceholderI:
		return s.IString(), len(key), true
	}
	return "", 0, false
}

// variable matches the longest identifier after '$' and looks it up.
func variable(rest string, s Scope) (string, int, bool) {
	n := 1
	for n < len(rest) && isVarChar(rest[n]) {
		n++
	}
	if n == 1 {
		return "", 0, false
	}
	val, ok := s.Var(rest[1:n])
	if !ok {
		return "", 0, false
	}
	return val, n, true
}

func isVarChar(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_'
}

package scope

import "strings"

// VarSlug turns a display name into a variable identifier.
//
// Characters outside [A-Za-z0-9] are dropped. A space or hyphen upper-cases
// the next kept character. A leading digit gets a '_' prefix and a leading
// upper-case letter is lowered: "Filter Cutoff" -> "filterCutoff",
// "2 Pole" -> "_2Pole".
func VarSlug(name string) string {
	s := camel(name)
	if s == "" {
		return s
	}
	switch c := s[0]; {
	case isDigit(c):
		return "_" + s
	case isUpper(c):
		return string(c+'a'-'A') + s[1:]
	}
	return s
}

// ClassSlug is VarSlug with the first character upper-cased:
// "Filter Cutoff" -> "FilterCutoff".
func ClassSlug(name string) string {
	s := VarSlug(name)
	if s == "" || !isLower(s[0]) {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func camel(name string) string {
	var sb strings.Builder
	upperNext := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == ' ' || c == '-':
			upperNext = true
		case isDigit(c) || isUpper(c) || isLower(c):
			if upperNext && isLower(c) {
				c -= 'a' - 'A'
			}
			upperNext = false
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

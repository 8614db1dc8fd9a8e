package scope

import "strings"

// Term is one "var=value" comparison of a condition.
type Term struct {
	Var   string
	Value string
	Raw   string // original text, trimmed

	// Malformed terms (not exactly one '=') never match.
	Malformed bool
}

// Eval reports whether the term holds for vars.
func (t Term) Eval(vars map[string]string) bool {
	if t.Malformed {
		return false
	}
	v, ok := vars[t.Var]
	return ok && v == t.Value
}

// Condition is an AND of OR-groups parsed from an overlay guard:
//
//	expr   = clause (" and " clause)*
//	clause = term (" or " term)*
//	term   = var "=" value
type Condition struct {
	Source string
	Groups [][]Term
}

// ParseCondition builds the expression tree for expr. It never fails;
// malformed terms are kept and evaluate to false.
func ParseCondition(expr string) Condition {
	c := Condition{Source: expr}
	for _, clause := range strings.Split(expr, " and ") {
		var group []Term
		for _, raw := range strings.Split(clause, " or ") {
			group = append(group, parseTerm(raw))
		}
		c.Groups = append(c.Groups, group)
	}
	return c
}

func parseTerm(raw string) Term {
	raw = trim(raw)
	t := Term{Raw: raw}
	if strings.Count(raw, "=") != 1 {
		t.Malformed = true
		return t
	}
	name, value, _ := strings.Cut(raw, "=")
	t.Var = trim(name)
	t.Value = trim(value)
	return t
}

// Eval reports whether every group has at least one matching term.
func (c Condition) Eval(vars map[string]string) bool {
	for _, group := range c.Groups {
		matched := false
		for _, t := range group {
			if t.Eval(vars) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Malformed returns the terms that can never match because of their syntax.
func (c Condition) Malformed() []Term {
	var out []Term
	for _, group := range c.Groups {
		for _, t := range group {
			if t.Malformed {
				out = append(out, t)
			}
		}
	}
	return out
}

// Vars returns the variable names referenced by well-formed terms, in order
// of first appearance.
func (c Condition) Vars() []string {
	var out []string
	seen := make(map[string]bool)
	for _, group := range c.Groups {
		for _, t := range group {
			if t.Malformed || seen[t.Var] {
				continue
			}
			seen[t.Var] = true
			out = append(out, t.Var)
		}
	}
	return out
}

package schemarules

import "strings"

// boundVars returns the module variables in scope for an entry at path:
// "synth.osc[1].level" binds synth and osc.
func boundVars(path string) map[string]bool {
	segs := strings.Split(path, ".")
	vars := make(map[string]bool, len(segs))
	for _, seg := range segs[:len(segs)-1] {
		if i := strings.IndexByte(seg, '['); i >= 0 {
			seg = seg[:i]
		}
		vars[seg] = true
	}
	return vars
}

package models

import "strings"

// compact trims values and drops empty ones, so absent, null and
// whitespace-only values compare equal.
func compact(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

func allSet(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func set(dst *string, src *string) bool {
	if src == nil {
		return false
	}
	*dst = *src
	return true
}

func applyAll(results ...bool) bool {
	changed := false
	for _, r := range results {
		changed = changed || r
	}
	return changed
}

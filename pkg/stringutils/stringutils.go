package stringutils

import "strings"

// LeftJust left-justifies s to size characters using the pad string.
func LeftJust(s string, pad string, size int) string {
	if len(s) >= size {
		return s
	}

	return s + strings.Repeat(pad, size-len(s))
}

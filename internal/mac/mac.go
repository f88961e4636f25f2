// Package mac checks the syntax of hardware addresses typed by an operator.
package mac

import (
	"regexp"
	"strings"
)

// pattern matches six colon-separated two-digit hex groups.
var pattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// IsValid reports whether s, after trimming surrounding whitespace, is a
// colon-separated MAC address. Case and padding are not normalized.
func IsValid(s string) bool {
	return pattern.MatchString(strings.TrimSpace(s))
}

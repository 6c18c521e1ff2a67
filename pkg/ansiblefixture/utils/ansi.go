package utils

import (
	"regexp"
)

var (
	// ANSI escape code cleaner
	ANSI_CLEANER = regexp.MustCompile(`(\x9B|\x1B\[)[0-?]*[ -\/]*[@-~]`)
)

// StripAnsi removes ANSI escape sequences from s. Ansible colors its output
// even when it is not attached to a terminal unless told otherwise.
func StripAnsi(s string) string {
	return ANSI_CLEANER.ReplaceAllString(s, "")
}

// Package shellescape quotes strings for safe display as POSIX shell
// command lines. It is used for logging and task output only: the engine
// always passes arguments as discrete OS-level tokens and never builds
// shell strings.
package shellescape

import "strings"

// Quote returns s single-quoted for a POSIX shell.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if !needsQuoting(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// Join renders an argv as a copy-pasteable shell command line.
func Join(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted = append(quoted, Quote(arg))
	}
	return strings.Join(quoted, " ")
}

const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_=/.,:+@%"

func needsQuoting(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(safeChars, r) {
			return true
		}
	}
	return false
}

//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// separators could not appear in file names.
const separators = string(os.PathSeparator) + string(os.PathListSeparator)

// CleanFileName makes page number usable as a part of file name. Page
// numbers come from input files, leading dots would hide result.
func CleanFileName(number string) string {
	var b strings.Builder
	for _, r := range number {
		if !strings.ContainsRune(separators, r) {
			b.WriteRune(r)
		}
	}
	if out := strings.TrimLeft(b.String(), "."); len(out) > 0 {
		return out
	}
	return "_"
}

// EnableColorOutput reports whether stream could show ANSI colours.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}

package page

import (
	"strings"
	"unicode/utf8"
)

// Every rune occupies exactly one character cell, control codes included.

// Cells returns number of character cells in s.
func Cells(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most width cells.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == width {
			return s[:i]
		}
		n++
	}
	return s
}

// Skip drops first n cells of s.
func Skip(s string, n int) string {
	if n <= 0 {
		return s
	}
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}

// PadRight left-justifies s in width cells using fill. Longer strings are
// returned unchanged.
func PadRight(s string, width int, fill rune) string {
	if n := Cells(s); n < width {
		return s + strings.Repeat(string(fill), width-n)
	}
	return s
}

// PadLeft right-justifies s in width cells using fill. Longer strings are
// returned unchanged.
func PadLeft(s string, width int, fill rune) string {
	if n := Cells(s); n < width {
		return strings.Repeat(string(fill), width-n) + s
	}
	return s
}

// Centre centres s in width cells using fill. When padding is odd the extra
// cell goes to the left if width is odd, to the right otherwise.
func Centre(s string, width int, fill rune) string {
	n := Cells(s)
	if n >= width {
		return s
	}
	margin := width - n
	left := margin/2 + (margin & width & 1)
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), margin-left)
}

// Fit pads or truncates s to exactly width cells.
func Fit(s string, width int, fill rune) string {
	return PadRight(Truncate(s, width), width, fill)
}

// Justify places s in width cells according to align, truncating when s is
// too long.
func Justify(s string, width int, align Align, fill rune) string {
	s = Truncate(s, width)
	switch align {
	case AlignRight:
		return PadLeft(s, width, fill)
	case AlignCentre:
		return Centre(s, width, fill)
	default:
		return PadRight(s, width, fill)
	}
}

package tti

import "strings"

const (
	// escapeMarker precedes every control character stored in OL record.
	escapeMarker = 0x1b
	// escapeOffset is added to control character after the marker.
	escapeOffset = 0x40
)

// BadEscape describes an escaped character which could not be recovered.
type BadEscape struct {
	Pos  int
	Char rune
}

// Escape replaces every control character (below 0x20) with escape marker
// followed by the character shifted by 0x40. Printable characters are
// passed through unchanged.
func Escape(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r < 0x20 {
			sb.WriteByte(escapeMarker)
			sb.WriteRune(r + escapeOffset)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Unescape reverses Escape. Escaped characters which cannot be shifted back
// are dropped and reported, the rest of the text is still processed.
func Unescape(text string) (string, []BadEscape) {
	var (
		sb   strings.Builder
		bad  []BadEscape
		esc  bool
		cell int
	)
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case esc:
			esc = false
			if r < escapeOffset {
				bad = append(bad, BadEscape{Pos: cell, Char: r})
			} else {
				sb.WriteRune(r - escapeOffset)
			}
		case r == escapeMarker:
			esc = true
		default:
			sb.WriteRune(r)
		}
		cell++
	}
	return sb.String(), bad
}

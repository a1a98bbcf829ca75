// Package legalise maps arbitrary text onto the character set a teletext
// decoder can display.
package legalise

import (
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
)

// Legaliser rewrites text so every cell is displayable.
type Legaliser interface {
	Legalise(s string) string
}

// Identity leaves text unchanged.
var Identity Legaliser = identity{}

type identity struct{}

func (identity) Legalise(s string) string { return s }

// National option positions of the English G0 set. Characters which have a
// teletext cell of their own are moved there, ASCII characters occupying
// those positions are moved elsewhere.
var g0English = map[rune]string{
	'£':  "#",
	'#':  "_",
	'_':  "-",
	'←':  "[",
	'½':  "\\",
	'→':  "]",
	'↑':  "^",
	'—':  "`",
	'¼':  "{",
	'‖':  "|",
	'¾':  "}",
	'÷':  "~",
	'[':  "(",
	']':  ")",
	'\\': "/",
	'{':  "(",
	'}':  ")",
	'|':  "!",
	'`':  "'",
	'^':  "'",
	'~':  "-",
}

// Typographic characters with obvious plain equivalents.
var typographic = map[rune]string{
	'\u00a0': " ", // no-break space
	'\u2007': " ",
	'\u202f': " ",
	'\u2018': "'",
	'\u2019': "'",
	'\u201a': "'",
	'\u2032': "'",
	'\u201c': "\"",
	'\u201d': "\"",
	'\u201e': "\"",
	'\u2033': "\"",
	'\u00ab': "\"",
	'\u00bb': "\"",
	'\u2013': "-",
	'\u2011': "-",
	'\u2212': "-",
	'\u2026': "...",
	'\u2022': "*",
	'\u00d7': "x",
}

type legaliser struct {
	extra map[string]string
	runes map[rune]string
}

// New returns default legaliser. Extra substitutions (multi character keys
// allowed) are applied first, before any built in mapping.
func New(extra map[string]string) Legaliser {
	runes := make(map[rune]string, len(g0English)+len(typographic))
	for r, s := range typographic {
		runes[r] = s
	}
	for r, s := range g0English {
		runes[r] = s
	}
	l := &legaliser{runes: runes}
	if len(extra) > 0 {
		l.extra = make(map[string]string, len(extra))
		for k, v := range extra {
			if k != "" {
				l.extra[k] = v
			}
		}
	}
	return l
}

// Legalise implements Legaliser.
func (l *legaliser) Legalise(s string) string {
	if len(l.extra) > 0 {
		s = slug.Substitute(s, l.extra)
	}
	// single pass, so that '£' -> '#' is not picked up again by '#' -> '_'
	s = slug.SubstituteRune(s, l.runes)
	return transliterate(s)
}

// transliterate replaces remaining non ASCII runes with their closest ASCII
// spelling, control cells and ASCII are kept as they are.
func transliterate(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
			continue
		}
		// unidecode drops what it cannot spell, keep the cell
		if t := unidecode.Unidecode(string(r)); t != "" {
			sb.WriteString(t)
		} else {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

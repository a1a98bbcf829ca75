package legalise

// glyphs of the English G0 national option positions
var g0Glyphs = map[rune]rune{
	'#':  '£',
	'[':  '←',
	'\\': '½',
	']':  '→',
	'^':  '↑',
	'_':  '#',
	'`':  '—',
	'{':  '¼',
	'|':  '‖',
	'}':  '¾',
	'~':  '÷',
}

// Glyph returns character a decoder displays for cell code r.
func Glyph(r rune) rune {
	if g, ok := g0Glyphs[r]; ok {
		return g
	}
	return r
}

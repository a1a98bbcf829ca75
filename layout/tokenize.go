package layout

import "regexp"

// a word is the shortest run ending with (and including) whitespace, slash,
// hyphen or the end of text
var wordPattern = regexp.MustCompile(`.+?(?:\s|/|-|$)`)

// Tokenize splits text into words keeping delimiters attached to the word
// they follow. Text between matches (line feeds which cannot start a word)
// is returned as separate tokens, so concatenation of all tokens always
// gives back the input.
func Tokenize(text string) []string {
	var (
		words []string
		last  int
	)
	for _, m := range wordPattern.FindAllStringIndex(text, -1) {
		if m[0] > last {
			words = append(words, text[last:m[0]])
		}
		if m[1] > m[0] {
			words = append(words, text[m[0]:m[1]])
		}
		last = m[1]
	}
	if last < len(text) {
		words = append(words, text[last:])
	}
	return words
}

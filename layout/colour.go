package layout

// Alphanumeric colour cells, values are the teletext spacing attributes.
var colourCodes = map[string]string{
	"black":   "\x00",
	"red":     "\x01",
	"green":   "\x02",
	"yellow":  "\x03",
	"blue":    "\x04",
	"magenta": "\x05",
	"cyan":    "\x06",
	"white":   "\x07",
	// magenta background, white foreground
	"test": "\x05\x1d\x07",
}

// DefaultColour is used when block does not name one.
const DefaultColour = "white"

// ColourCode returns control cell(s) switching to named colour. Unknown
// names produce a plain space so that the cell is still consumed.
func ColourCode(name string) string {
	if code, ok := colourCodes[name]; ok {
		return code
	}
	return " "
}

package layout

import (
	"strings"

	"go.uber.org/zap"

	"ttx/page"
)

// Row markers.
const (
	markerDoubleHeight = "\x0d"
	markerStartBox     = "\x0b\x0b"

	whiteCell = "\x07"
)

// pending is the last line of a group which may still be joined by the
// first line of the next group.
type pending struct {
	content string // unpadded, indent included
	padded  string // ready to be emitted on its own
	align   page.Align
}

type blockLayout struct {
	block   *Block
	fill    rune
	padCol  string
	target  int
	spacing int
	row     int
	rows    []page.Packet
}

// LayoutBlock lays block out into text packets starting at startRow. Every
// produced row is exactly maxWidth less the pad colour cells wide
// (markers included).
func (e *Engine) LayoutBlock(block *Block, maxWidth, startRow int, vars Variables) []page.Packet {
	if block == nil || len(block.Content) == 0 {
		return nil
	}

	colour := block.Colour
	if colour == "" {
		colour = DefaultColour
	}
	bl := &blockLayout{
		block:   block,
		fill:    ' ',
		padCol:  " ",
		spacing: 1,
		row:     startRow,
	}
	if block.Padding != "" {
		bl.fill = []rune(block.Padding)[0]
	}
	if block.PadCol != "" {
		bl.padCol = ColourCode(block.PadCol)
	}
	width := maxWidth
	if block.Boxed {
		width -= len(markerStartBox)
	}
	bl.target = width - page.Cells(bl.padCol)
	if block.DoubleHeight {
		bl.target -= len(markerDoubleHeight)
		bl.spacing = 2
	}

	var held *pending
	for gi, g := range block.Content {
		lastGroup := gi == len(block.Content)-1

		if g.Table != nil {
			// table rows never share a row with text
			if held != nil {
				bl.emit(held.padded)
				held = nil
			}
			for _, row := range e.tableRows(g.Table, vars) {
				bl.emit(row)
			}
			continue
		}

		merging := held != nil && held.align == page.AlignLeft && g.Align != page.AlignCentre
		cursor := g.Indent
		if merging {
			cursor = page.Cells(held.content)
		}
		lines := e.WrapChunks(g.Content, WrapParams{
			MaxWidth:      bl.target,
			Cursor:        cursor,
			Indent:        g.Indent,
			ForceNewLine:  g.ForceNewLine,
			DefaultColour: ColourCode(colour),
			DoubleHeight:  block.DoubleHeight,
		}, vars)
		lines = g.PostWrapLimit.apply(lines)

		firstContent := -1
		for i, l := range lines {
			if l != "" {
				firstContent = i
				break
			}
		}

		indent := strings.Repeat(" ", max(g.Indent, 0))
		for i, l := range lines {
			prefix := indent
			if i == 0 && held != nil {
				if merging && page.Cells(held.content)+page.Cells(l) <= bl.target {
					prefix = held.content
				} else {
					e.log.Debug("Groups cannot share a row", zap.Int("group", gi))
					bl.emit(held.padded)
				}
				held = nil
			}

			last := i == len(lines)-1
			edge := (last && g.Align != page.AlignRight) || (i == firstContent && g.Align != page.AlignLeft)
			body := bl.pad(l, bl.target-page.Cells(prefix), g.Align, edge)

			if last && !lastGroup {
				held = &pending{content: prefix + l, padded: prefix + body, align: g.Align}
				break
			}
			bl.emit(prefix + body)
		}
	}
	if held != nil {
		bl.emit(held.padded)
	}
	return bl.rows
}

// pad justifies line in width cells. Block fill and pad colour cell are
// used only on the outer lines of a group (edge) and only when more than one
// cell is free, inner lines are padded with spaces.
func (bl *blockLayout) pad(line string, width int, align page.Align, edge bool) string {
	fill := ' '
	decorate := edge && width-page.Cells(line) > 1
	if decorate {
		fill = bl.fill
	}
	switch align {
	case page.AlignRight:
		return bl.padCol + page.PadLeft(line, width-page.Cells(bl.padCol), fill)
	case page.AlignCentre:
		if decorate {
			line += bl.padCol
		}
		return page.Centre(line, width, fill)
	default:
		if decorate {
			line += bl.padCol
		}
		return page.PadRight(line, width, fill)
	}
}

func (bl *blockLayout) emit(text string) {
	text = page.Fit(text, bl.target, ' ')
	if bl.block.DoubleHeight {
		// marker takes place of leading white cell, which is the default
		// at row start anyway
		if rest, ok := strings.CutPrefix(text, whiteCell); ok {
			text = page.PadRight(markerDoubleHeight+rest, bl.target+len(markerDoubleHeight), ' ')
		} else {
			text = markerDoubleHeight + text
		}
	}
	if bl.block.Boxed {
		text = markerStartBox + text
	}
	bl.rows = append(bl.rows, page.TextPacket{Number: bl.row, Text: text})
	bl.row += bl.spacing
}

func (l *PostWrapLimit) apply(lines []string) []string {
	if l == nil || l.MaxLines <= 0 || len(lines) < l.MaxLines {
		return lines
	}
	lines = lines[:l.MaxLines]
	if last := lines[l.MaxLines-1]; page.Cells(last) > l.Cutoff {
		lines[l.MaxLines-1] = page.Truncate(last, l.Cutoff)
	}
	return lines
}

package page

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrOverlayBounds = errors.New("overlay coordinates are inverted")
	ErrNumberAlign   = errors.New("subpage counter can only be aligned left or right")
)

// NumberOptions describes where subpage counter goes.
type NumberOptions struct {
	Row    int
	Offset int
	// Prefix is put in front of the counter, normally a colour cell.
	Prefix string
	Align  Align
}

// NumberSubpages puts "i/N" counter on requested row of every subpage when
// page has two or more subpages. Counter is spliced into existing text
// packet on that row or a new packet is added. Subpages are numbered in
// presentation order, explicit subcodes are ignored.
func NumberSubpages(p *Page, opts NumberOptions) error {
	if p == nil {
		return nil
	}
	total := len(p.Subpages)
	if total < 2 {
		return nil
	}
	if opts.Align != AlignLeft && opts.Align != AlignRight {
		return fmt.Errorf("%w: %s", ErrNumberAlign, opts.Align)
	}

	offset := max(opts.Offset, 0)
	if total > 9 && offset > 0 && opts.Align == AlignRight {
		// two digit totals need one more cell
		offset--
	}

	for i, sp := range p.Subpages {
		if sp == nil {
			continue
		}
		counter := fmt.Sprintf("%s%d/%d", opts.Prefix, i+1, total)
		taken := Cells(counter) + offset

		if idx := sp.FindText(opts.Row); idx >= 0 {
			tp := sp.Packets[idx].(TextPacket)
			line := PadRight(tp.Text, Width, ' ')
			if opts.Align == AlignRight {
				tp.Text = Truncate(line, Width-taken) + counter
			} else {
				tp.Text = strings.Repeat(" ", offset) + counter + Skip(line, taken)
			}
			sp.Packets[idx] = tp
			continue
		}

		var text string
		if opts.Align == AlignRight {
			text = strings.Repeat(" ", max(Width-taken, 0)) + counter
		} else {
			text = strings.Repeat(" ", offset) + counter
		}
		sp.Packets = append(sp.Packets, TextPacket{Number: opts.Row, Text: text})
		SortPackets(sp.Packets)
	}
	return nil
}

// BlockOverlay returns a copy of source where the rectangle
// [startCol, endCol) x [startRow, endRow] is replaced with rows of overlay.
// Overlay rows are numbered from 1 relative to startRow, absent ones are
// blank. Overlay row is cut to the window and justified in it by align,
// AlignLeft keeps text where it starts in the overlay row. Missing source
// rows are created blank before overlaying. When
// coordinates are inverted unmodified copy is returned along with
// ErrOverlayBounds.
func BlockOverlay(source, overlay []Packet, startCol, startRow, endCol, endRow int, align Align) ([]Packet, error) {
	result := ClonePackets(source)
	if startCol > endCol || startRow > endRow {
		return result, fmt.Errorf("%w: columns %d-%d, rows %d-%d", ErrOverlayBounds, startCol, endCol, startRow, endRow)
	}

	blank := strings.Repeat(" ", Width)
	width := endCol - startCol

	for n, row := 1, startRow; row <= endRow; n, row = n+1, row+1 {
		idx := textIndex(result, row)
		if idx < 0 {
			result = append(result, TextPacket{Number: row, Text: blank})
			idx = len(result) - 1
		}

		patch := blank
		if o := textIndex(overlay, n); o >= 0 {
			patch = overlay[o].(TextPacket).Text
		}

		tp := result[idx].(TextPacket)
		tp.Text = Truncate(PadRight(tp.Text, Width, ' '), startCol) +
			Justify(patch, width, align, ' ') +
			Skip(tp.Text, endCol)
		result[idx] = tp
	}
	return result, nil
}

func textIndex(packets []Packet, row int) int {
	return slices.IndexFunc(packets, func(p Packet) bool {
		_, ok := p.(TextPacket)
		return ok && p.Row() == row
	})
}

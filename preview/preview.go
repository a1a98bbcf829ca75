// Package preview renders teletext subpages on a terminal.
package preview

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ttx/legalise"
	"ttx/page"
)

// Options controls rendering.
type Options struct {
	// Border frames the page.
	Border bool
	// Glyphs shows national option characters (£, ½, ...) instead of
	// their ASCII codes.
	Glyphs bool
	// Renderer decides colour profile, lipgloss default renderer (stdout
	// detection) when nil.
	Renderer *lipgloss.Renderer
}

type cellStyle struct {
	fg, bg int
}

func (s cellStyle) style(r *lipgloss.Renderer) lipgloss.Style {
	return r.NewStyle().
		Foreground(lipgloss.Color(strconv.Itoa(s.fg))).
		Background(lipgloss.Color(strconv.Itoa(s.bg)))
}

// Render draws display rows of subpage (rows 1 to 25) as 40 cell lines.
// Spacing attributes occupy a cell and are drawn as spaces.
func Render(sp *page.Subpage, opts Options) string {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	rows := make([]string, 0, page.LastRow)
	for row := page.FirstRow; row <= page.LastRow; row++ {
		text := ""
		if sp != nil {
			if idx := sp.FindText(row); idx >= 0 {
				text = sp.Packets[idx].(page.TextPacket).Text
			}
		}
		rows = append(rows, renderRow(text, opts.Glyphs, r))
	}
	out := strings.Join(rows, "\n")
	if opts.Border {
		out = r.NewStyle().Border(lipgloss.NormalBorder()).Render(out)
	}
	return out
}

func renderRow(text string, glyphs bool, r *lipgloss.Renderer) string {
	var (
		sb    strings.Builder
		run   []rune
		cur   = cellStyle{fg: 7, bg: 0}
		runOf = cur
	)
	flush := func() {
		if len(run) > 0 {
			sb.WriteString(runOf.style(r).Render(string(run)))
			run = run[:0]
		}
	}
	put := func(ch rune, s cellStyle) {
		if s != runOf {
			flush()
			runOf = s
		}
		run = append(run, ch)
	}

	cells := []rune(page.Fit(text, page.Width, ' '))
	for _, c := range cells {
		switch {
		case c < 0x08:
			// alphanumeric colour, takes effect after the cell
			put(' ', cur)
			cur.fg = int(c)
		case c >= 0x10 && c < 0x18:
			// mosaic colour, mosaics are drawn as text
			put(' ', cur)
			cur.fg = int(c - 0x10)
		case c == 0x1c:
			cur.bg = 0
			put(' ', cur)
		case c == 0x1d:
			cur.bg = cur.fg
			put(' ', cur)
		case c < 0x20:
			put(' ', cur)
		default:
			if glyphs {
				c = legalise.Glyph(c)
			}
			put(c, cur)
		}
	}
	flush()
	return sb.String()
}

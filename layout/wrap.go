// Package layout turns free form text descriptions into fixed width,
// colour tagged teletext rows.
package layout

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/ncruces/go-strftime"
	"go.uber.org/zap"

	"ttx/legalise"
	"ttx/page"
)

// epoch values above this are taken to be in milliseconds
const maxEpochSeconds = 9999999999

// Engine lays out text. It is stateless, the same engine may be used for
// any number of blocks.
type Engine struct {
	log       *zap.Logger
	legaliser legalise.Legaliser
}

// New creates layout engine. When l is nil text is not legalised.
func New(log *zap.Logger, l legalise.Legaliser) *Engine {
	if l == nil {
		l = legalise.Identity
	}
	return &Engine{log: log, legaliser: l}
}

// WrapParams describes the area chunks are wrapped into.
type WrapParams struct {
	// MaxWidth is number of cells available on a line.
	MaxWidth int
	// Cursor is the cell first word is placed at.
	Cursor int
	// Indent is subtracted from width of every line after the first.
	Indent int
	// ForceNewLine starts with an empty first line.
	ForceNewLine bool
	// DefaultColour is a colour cell used for chunks without colour.
	DefaultColour string
	// DoubleHeight marks lines which will be displayed double height,
	// cell budget is the same.
	DoubleHeight bool
}

type wrapper struct {
	params WrapParams
	lines  []string
	cursor int
	width  int
}

func (w *wrapper) newLine() {
	w.lines = append(w.lines, "")
	w.cursor = 0
	w.width = w.params.MaxWidth - w.params.Indent
}

func (w *wrapper) add(s string) {
	w.lines[len(w.lines)-1] += s
	w.cursor += page.Cells(s)
}

// WrapChunks formats chunks and greedily packs their words into lines.
// Result always has at least one (possibly empty) line. Lines never exceed
// available width: colour cells are counted and words wider than a line
// are cut.
func (e *Engine) WrapChunks(chunks []Chunk, params WrapParams, vars Variables) []string {
	w := &wrapper{
		params: params,
		lines:  []string{""},
		cursor: params.Cursor,
		width:  params.MaxWidth,
	}
	if params.ForceNewLine {
		w.newLine()
	}

	for i, c := range chunks {
		text, ok := e.chunkText(c, vars)
		if !ok {
			e.log.Error("Chunk has no text source, stopping", zap.Int("chunk", i))
			return w.lines
		}
		text = e.format(c, text)

		colour := params.DefaultColour
		if c.Colour != "" {
			colour = ColourCode(c.Colour)
		}
		colourCell := 0
		if !c.NoSpacing {
			colourCell = page.Cells(colour)
		}

		for range c.LineOffset {
			w.newLine()
		}

		words := []string{text}
		if !c.PreferNewline {
			words = Tokenize(text)
		}

		colourPending := true
		for _, word := range words {
			n := page.Cells(word)
			if n == 0 {
				continue
			}
			lead := 0
			if colourPending {
				lead = colourCell
			}
			if w.cursor+lead+n > w.width {
				if avail := w.params.MaxWidth - w.params.Indent - colourCell; n > avail {
					e.log.Warn("Word is too long to fit, truncated", zap.String("word", word), zap.Int("width", avail))
					word = page.Truncate(word, max(avail, 0))
				}
				if word == " " {
					// no spaces at the start of a line
					continue
				}
				w.newLine()
				colourPending = true
			}
			if colourPending && !c.NoSpacing {
				w.add(colour)
			}
			colourPending = false
			w.add(word)
		}
	}
	return w.lines
}

// chunkText returns raw text of chunk, false when chunk has no source.
func (e *Engine) chunkText(c Chunk, vars Variables) (string, bool) {
	switch {
	case c.Text != nil:
		return string(*c.Text), true
	case c.Template != "":
		return e.expand(c.Template, vars), true
	case len(c.Variable) > 0:
		v, ok := Lookup(vars, c.Variable)
		if !ok {
			e.log.Debug("Variable not found", zap.Any("path", c.Variable))
			return "", true
		}
		return Stringify(v), true
	default:
		return "", false
	}
}

func (e *Engine) expand(text string, vars Variables) string {
	tmpl, err := template.New("chunk").Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		e.log.Warn("Unable to parse chunk template", zap.String("template", text), zap.Error(err))
		return ""
	}
	if vars == nil {
		vars = Variables{}
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, map[string]any(vars)); err != nil {
		e.log.Warn("Unable to expand chunk template", zap.String("template", text), zap.Error(err))
		return ""
	}
	return buf.String()
}

// format applies chunk formatting in fixed order: time stamp, capitals,
// legalisation, padding, limit.
func (e *Engine) format(c Chunk, text string) string {
	if c.DatetimeFormat != "" {
		text = e.timestamp(text, c.DatetimeFormat)
	}
	if c.ForceCaps {
		text = strings.ToUpper(text)
	}
	text = e.legaliser.Legalise(text)
	if c.Pad != nil {
		fill := ' '
		if c.Pad.Fill != "" {
			fill = []rune(c.Pad.Fill)[0]
		}
		switch c.Pad.Align {
		case page.AlignRight:
			text = page.PadLeft(text, c.Pad.Width, fill)
		case page.AlignCentre:
			text = page.Centre(text, c.Pad.Width, fill)
		default:
			text = page.PadRight(text, c.Pad.Width, fill)
		}
	}
	if c.Limit != nil {
		text = page.Truncate(text, *c.Limit)
	}
	return text
}

func (e *Engine) timestamp(text, format string) string {
	ts, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		e.log.Warn("Unable to interpret value as time stamp", zap.String("value", text), zap.Error(err))
		return text
	}
	if ts > maxEpochSeconds {
		ts /= 1000
	}
	sec, frac := math.Modf(ts)
	return strftime.Format(format, time.Unix(int64(sec), int64(frac*1e9)).UTC())
}

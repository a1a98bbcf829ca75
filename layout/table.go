package layout

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"ttx/page"
)

// TableRow builds one display row out of cells. Cell text comes from data
// (by key) or from literal text and is cut or padded to cell width, colour
// cells are not counted in width. Malformed cell or missing data abandons
// the row: ("", false) is returned.
func (e *Engine) TableRow(cells []Cell, data Variables) (string, bool) {
	var out string
	for i, cell := range cells {
		if cell.Colour != "" {
			out += ColourCode(cell.Colour)
		}
		if cell.Width == nil {
			e.log.Warn("Table cell has no width", zap.Int("cell", i))
			return "", false
		}

		var text string
		switch {
		case cell.Data != "":
			v, ok := data[cell.Data]
			if !ok {
				e.log.Warn("Table cell data is absent", zap.Int("cell", i), zap.String("key", cell.Data))
				return "", false
			}
			if f, isFloat := v.(float64); isFloat && cell.Round != nil {
				v = roundTo(f, *cell.Round)
			}
			text = Stringify(v)
		case cell.Text != nil:
			text = string(*cell.Text)
		default:
			e.log.Warn("Table cell has neither data nor text", zap.Int("cell", i))
			return "", false
		}

		out += page.Justify(e.legaliser.Legalise(text), *cell.Width, cell.Align, ' ')
	}

	if page.Cells(out) > page.Width {
		e.log.Warn("Table row is longer than 40 characters, truncated", zap.String("row", out))
		out = page.Truncate(out, page.Width)
	}
	return out, true
}

// tableRows produces rows of table group, records which cannot be shown
// are skipped.
func (e *Engine) tableRows(t *Table, vars Variables) []string {
	found, ok := Lookup(vars, t.Rows)
	if !ok {
		e.log.Warn("Table rows are absent", zap.Any("path", t.Rows))
		return nil
	}

	var records []any
	switch v := found.(type) {
	case []any:
		records = v
	default:
		records = []any{v}
	}

	rows := make([]string, 0, len(records))
	for i, rec := range records {
		var data Variables
		switch v := rec.(type) {
		case map[string]any:
			data = v
		case Variables:
			data = v
		default:
			e.log.Warn("Table record is not an object", zap.Int("record", i))
			continue
		}
		if row, ok := e.TableRow(t.Cells, data); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// roundTo rounds to requested number of decimals, formatting does the
// rounding so that 2.675 stays 2.67 as it is stored.
func roundTo(f float64, digits int) float64 {
	if digits <= 0 {
		return math.RoundToEven(f)
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', digits, 64), 64)
	if err != nil {
		return f
	}
	return r
}

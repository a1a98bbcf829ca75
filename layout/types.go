package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"ttx/page"
)

// Variables is the lookup context for variable and template chunks. It is
// always passed explicitly, nil is treated as empty.
type Variables map[string]any

// Block is a free form text description laid out into rows.
type Block struct {
	Colour       string  `json:"colour,omitempty"`
	Padding      string  `json:"padding,omitempty"`
	PadCol       string  `json:"padCol,omitempty"`
	DoubleHeight bool    `json:"doubleHeight,omitempty"`
	Boxed        bool    `json:"boxed,omitempty"`
	Content      []Group `json:"content"`
}

// Group is a run of chunks sharing alignment.
type Group struct {
	Align         page.Align     `json:"align"`
	Indent        int            `json:"indent,omitempty"`
	ForceNewLine  bool           `json:"forceNewLine,omitempty"`
	PostWrapLimit *PostWrapLimit `json:"postWrapLimit,omitempty"`
	Content       []Chunk        `json:"content"`
	// Table replaces chunks with one row per data record.
	Table *Table `json:"table,omitempty"`
}

// Table lays records found at Rows (variable path to a list of objects, or
// to a single object) out as table rows. Empty path uses variables
// themselves as the only record.
type Table struct {
	Rows  []Literal `json:"rows,omitempty"`
	Cells []Cell    `json:"cells"`
}

// PostWrapLimit caps number of wrapped lines, last kept line is cut to
// Cutoff cells.
type PostWrapLimit struct {
	MaxLines int `json:"maxLines"`
	Cutoff   int `json:"cutoff"`
}

// Chunk is a piece of text with its own formatting. Text source is the
// first present of Text, Template and Variable.
type Chunk struct {
	Text           *Literal  `json:"text,omitempty"`
	Template       string    `json:"template,omitempty"`
	Variable       []Literal `json:"variable,omitempty"`
	Colour         string    `json:"colour,omitempty"`
	ForceCaps      bool      `json:"forceCaps,omitempty"`
	Pad            *Pad      `json:"pad,omitempty"`
	Limit          *int      `json:"limit,omitempty"`
	LineOffset     int       `json:"lineOffset,omitempty"`
	DatetimeFormat string    `json:"datetimeFormat,omitempty"`
	PreferNewline  bool      `json:"preferNewline,omitempty"`
	NoSpacing      bool      `json:"noSpacing,omitempty"`
}

// Pad justifies chunk text in a fixed number of cells.
type Pad struct {
	Align page.Align `json:"align"`
	Width int        `json:"width"`
	Fill  string     `json:"fill,omitempty"`
}

// Cell is one column of a table row.
type Cell struct {
	Width  *int       `json:"width,omitempty"`
	Data   string     `json:"data,omitempty"`
	Text   *Literal   `json:"text,omitempty"`
	Colour string     `json:"colour,omitempty"`
	Align  page.Align `json:"align"`
	Round  *int       `json:"round,omitempty"`
}

// Literal is a string which may be written as JSON string, number or
// boolean.
type Literal string

// Text returns pointer to literal, handy when building chunks in code.
func Text(s string) *Literal {
	l := Literal(s)
	return &l
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Literal(s)
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v.(type) {
	case json.Number, bool:
		*l = Literal(fmt.Sprint(v))
		return nil
	default:
		return fmt.Errorf("expected string, number or boolean, got %s", data)
	}
}

// ParseBlock decodes block description, JSONC is accepted.
func ParseBlock(data []byte) (*Block, error) {
	var b Block
	if err := json.Unmarshal(jsonc.ToJSON(data), &b); err != nil {
		return nil, fmt.Errorf("parsing block: %w", err)
	}
	return &b, nil
}

// ParseVariables decodes variables object, JSONC is accepted.
func ParseVariables(data []byte) (Variables, error) {
	vars := Variables{}
	if err := json.Unmarshal(jsonc.ToJSON(data), &vars); err != nil {
		return nil, fmt.Errorf("parsing variables: %w", err)
	}
	return vars, nil
}

// ReadBlock reads block description from file.
func ReadBlock(path string) (*Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseBlock(data)
}

// ReadVariables reads variables from file.
func ReadVariables(path string) (Variables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseVariables(data)
}

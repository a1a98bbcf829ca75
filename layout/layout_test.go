package layout

import (
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"ttx/legalise"
	"ttx/page"
)

func intPtr(v int) *int { return &v }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(zaptest.NewLogger(t), legalise.New(nil))
}

func newObservedEngine() (*Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core), nil), logs
}

func TestColourCode(t *testing.T) {
	tests := map[string]string{
		"black":  "\x00",
		"red":    "\x01",
		"yellow": "\x03",
		"white":  "\x07",
		"test":   "\x05\x1d\x07",
		"pink":   " ",
		"":       " ",
	}
	for name, want := range tests {
		if got := ColourCode(name); got != want {
			t.Errorf("ColourCode(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{
			"this is BBC One with language/violence and scott-thomas.",
			[]string{"this ", "is ", "BBC ", "One ", "with ", "language/", "violence ", "and ", "scott-", "thomas."},
		},
		{"word", []string{"word"}},
		{"a  b", []string{"a ", " b"}},
		{"\nab", []string{"\n", "ab"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if strings.Join(got, "") != tt.in {
			t.Errorf("Tokenize(%q) lost text", tt.in)
		}
	}
}

func TestWrapChunks(t *testing.T) {
	tests := []struct {
		name   string
		chunks []Chunk
		params WrapParams
		want   []string
	}{
		{
			name:   "greedy packing",
			chunks: []Chunk{{Text: Text("the quick brown fox jumps")}},
			params: WrapParams{MaxWidth: 12, DefaultColour: "\x07"},
			want:   []string{"\x07the quick ", "\x07brown fox ", "\x07jumps"},
		},
		{
			name:   "chunk colour and no spacing",
			chunks: []Chunk{{Text: Text("Hi "), Colour: "red"}, {Text: Text("there"), NoSpacing: true}},
			params: WrapParams{MaxWidth: 20, DefaultColour: "\x07"},
			want:   []string{"\x01Hi there"},
		},
		{
			name: "bare space dropped at line break",
			chunks: []Chunk{
				{Text: Text("abcd"), NoSpacing: true},
				{Text: Text(" "), NoSpacing: true},
				{Text: Text("efgh"), NoSpacing: true},
			},
			params: WrapParams{MaxWidth: 4},
			want:   []string{"abcd", "efgh"},
		},
		{
			name:   "line offset",
			chunks: []Chunk{{Text: Text("a"), NoSpacing: true}, {Text: Text("b"), NoSpacing: true, LineOffset: 2}},
			params: WrapParams{MaxWidth: 10},
			want:   []string{"a", "", "b"},
		},
		{
			name:   "force new line with indent",
			chunks: []Chunk{{Text: Text("abc def"), NoSpacing: true}},
			params: WrapParams{MaxWidth: 8, Indent: 3, ForceNewLine: true},
			want:   []string{"", "abc ", "def"},
		},
		{
			name:   "cursor on first line",
			chunks: []Chunk{{Text: Text("one two"), NoSpacing: true}},
			params: WrapParams{MaxWidth: 8, Cursor: 5},
			want:   []string{"", "one two"},
		},
		{
			name:   "prefer newline keeps chunk whole",
			chunks: []Chunk{{Text: Text("a b"), NoSpacing: true}, {Text: Text("c d e"), NoSpacing: true, PreferNewline: true}},
			params: WrapParams{MaxWidth: 6},
			want:   []string{"a b", "c d e"},
		},
		{
			name:   "missing source stops",
			chunks: []Chunk{{Text: Text("a"), NoSpacing: true}, {}, {Text: Text("b")}},
			params: WrapParams{MaxWidth: 10},
			want:   []string{"a"},
		},
		{
			name: "formatting order",
			chunks: []Chunk{{
				Text:           Text("1700000000"),
				DatetimeFormat: "%d %b",
				ForceCaps:      true,
				Pad:            &Pad{Align: page.AlignRight, Width: 8, Fill: "."},
				Limit:          intPtr(7),
				NoSpacing:      true,
			}},
			params: WrapParams{MaxWidth: 20},
			want:   []string{"..14 NO"},
		},
		{
			name:   "milliseconds time stamp",
			chunks: []Chunk{{Text: Text("1700000000000"), DatetimeFormat: "%H:%M", NoSpacing: true}},
			params: WrapParams{MaxWidth: 20},
			want:   []string{"22:13"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestEngine(t).WrapChunks(tt.chunks, tt.params, nil)
			if !slices.Equal(got, tt.want) {
				t.Errorf("WrapChunks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapChunksLongWord(t *testing.T) {
	e, logs := newObservedEngine()
	got := e.WrapChunks([]Chunk{{Text: Text("abcdefghijkl"), NoSpacing: true}}, WrapParams{MaxWidth: 5}, nil)
	if !slices.Equal(got, []string{"", "abcde"}) {
		t.Errorf("WrapChunks() = %q", got)
	}
	if logs.FilterMessage("Word is too long to fit, truncated").Len() != 1 {
		t.Errorf("expected truncation warning")
	}
}

func TestWrapChunksVariables(t *testing.T) {
	block, err := ParseBlock([]byte(`{
		"content": [{
			"content": [
				{"variable": ["weather", "days", 1, "temp"], "noSpacing": true},
				{"text": "/", "noSpacing": true},
				{"variable": ["weather", "days", -2, "temp"], "noSpacing": true},
				{"variable": ["weather", "missing"], "noSpacing": true},
				{"template": "{{ .weather.name | upper }}", "noSpacing": true},
			],
		}],
	}`))
	if err != nil {
		t.Fatalf("ParseBlock() error = %v", err)
	}
	vars, err := ParseVariables([]byte(`{"weather": {"name": "belfast", "days": [{"temp": 12.5}, {"temp": 3}]}}`))
	if err != nil {
		t.Fatalf("ParseVariables() error = %v", err)
	}

	e, logs := newObservedEngine()
	got := e.WrapChunks(block.Content[0].Content, WrapParams{MaxWidth: 40}, vars)
	if !slices.Equal(got, []string{"3/12.5BELFAST"}) {
		t.Errorf("WrapChunks() = %q", got)
	}
	if logs.FilterMessage("Variable not found").Len() != 1 {
		t.Errorf("expected missing variable diagnostic")
	}
}

func TestWrapChunksLegalises(t *testing.T) {
	got := newTestEngine(t).WrapChunks([]Chunk{{Text: Text("\u00a310"), NoSpacing: true}}, WrapParams{MaxWidth: 40}, Variables{})
	if !slices.Equal(got, []string{"#10"}) {
		t.Errorf("WrapChunks() = %q", got)
	}
}

func TestLayoutBlock(t *testing.T) {
	left := func(text string) Group {
		return Group{Align: page.AlignLeft, Content: []Chunk{{Text: Text(text)}}}
	}
	right := func(text string) Group {
		return Group{Align: page.AlignRight, Content: []Chunk{{Text: Text(text)}}}
	}
	centre := func(text string) Group {
		return Group{Align: page.AlignCentre, Content: []Chunk{{Text: Text(text)}}}
	}
	sp := func(n int) string { return strings.Repeat(" ", n) }
	dash := func(n int) string { return strings.Repeat("-", n) }

	tests := []struct {
		name  string
		block Block
		want  []page.Packet
	}{
		{
			name:  "single left line",
			block: Block{Content: []Group{left("Hello world")}},
			want:  []page.Packet{page.TextPacket{Number: 3, Text: "\x07Hello world" + sp(27)}},
		},
		{
			name:  "left with fill and pad colour",
			block: Block{Padding: "-", PadCol: "red", Content: []Group{left("Hi")}},
			want:  []page.Packet{page.TextPacket{Number: 3, Text: "\x07Hi\x01" + dash(35)}},
		},
		{
			name:  "right with fill and pad colour",
			block: Block{Padding: "-", PadCol: "red", Content: []Group{right("Hi")}},
			want:  []page.Packet{page.TextPacket{Number: 3, Text: "\x01" + dash(35) + "\x07Hi"}},
		},
		{
			name:  "centre with fill and pad colour",
			block: Block{Padding: "-", PadCol: "red", Content: []Group{centre("Hi")}},
			want:  []page.Packet{page.TextPacket{Number: 3, Text: dash(18) + "\x07Hi\x01" + dash(17)}},
		},
		{
			name:  "left merges into left",
			block: Block{Content: []Group{left("Name: "), left("Value")}},
			want:  []page.Packet{page.TextPacket{Number: 3, Text: "\x07Name: \x07Value" + sp(26)}},
		},
		{
			name:  "right merges into left",
			block: Block{Content: []Group{left("Score"), right("12")}},
			want:  []page.Packet{page.TextPacket{Number: 3, Text: "\x07Score" + sp(30) + "\x0712"}},
		},
		{
			name:  "centre never merges",
			block: Block{Content: []Group{left("A"), centre("B")}},
			want: []page.Packet{
				page.TextPacket{Number: 3, Text: "\x07A" + sp(37)},
				page.TextPacket{Number: 4, Text: sp(18) + "\x07B " + sp(18)},
			},
		},
		{
			name:  "right does not merge forward",
			block: Block{Content: []Group{right("A"), left("B")}},
			want: []page.Packet{
				page.TextPacket{Number: 3, Text: " " + sp(36) + "\x07A"},
				page.TextPacket{Number: 4, Text: "\x07B" + sp(37)},
			},
		},
		{
			name:  "block colour",
			block: Block{Colour: "cyan", Content: []Group{left("x")}},
			want:  []page.Packet{page.TextPacket{Number: 3, Text: "\x06x" + sp(37)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestEngine(t).LayoutBlock(&tt.block, page.Width, 3, Variables{})
			if !page.PacketsEqual(got, tt.want) {
				t.Errorf("LayoutBlock() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestLayoutBlockDoubleHeightBoxed(t *testing.T) {
	block := &Block{
		DoubleHeight: true,
		Boxed:        true,
		Content: []Group{{Content: []Chunk{
			{Text: Text("Big text that wraps onto two lines at least")},
		}}},
	}
	rows := newTestEngine(t).LayoutBlock(block, page.Width, 5, nil)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2: %q", len(rows), rows)
	}
	for i, r := range rows {
		tp := r.(page.TextPacket)
		if tp.Number != 5+2*i {
			t.Errorf("row %d number = %d", i, tp.Number)
		}
		// double height marker replaces leading white cell
		if !strings.HasPrefix(tp.Text, "\x0b\x0b\x0d") || strings.HasPrefix(tp.Text, "\x0b\x0b\x0d\x07") {
			t.Errorf("row %d markers = %q", i, tp.Text)
		}
		if page.Cells(tp.Text) != page.Width-1 {
			t.Errorf("row %d width = %d", i, page.Cells(tp.Text))
		}
	}
}

func TestLayoutBlockDoubleHeightMarker(t *testing.T) {
	tests := []struct {
		name   string
		colour string
		want   string
	}{
		{"white replaced", "white", "\x0dHello"},
		{"other colour kept", "red", "\x0d\x01Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := &Block{
				DoubleHeight: true,
				Colour:       tt.colour,
				Content:      []Group{{Content: []Chunk{{Text: Text("Hello")}}}},
			}
			rows := newTestEngine(t).LayoutBlock(block, page.Width, 1, nil)
			if len(rows) != 1 {
				t.Fatalf("rows = %d, want 1: %q", len(rows), rows)
			}
			text := rows[0].(page.TextPacket).Text
			if !strings.HasPrefix(text, tt.want) {
				t.Errorf("row = %q, want prefix %q", text, tt.want)
			}
			if page.Cells(text) != page.Width-1 {
				t.Errorf("row width = %d, want %d", page.Cells(text), page.Width-1)
			}
		})
	}
}

func TestLayoutBlockPostWrapLimit(t *testing.T) {
	block := &Block{Content: []Group{{
		PostWrapLimit: &PostWrapLimit{MaxLines: 1, Cutoff: 5},
		Content:       []Chunk{{Text: Text("The quick brown fox jumps over the lazy dog again and again")}},
	}}}
	rows := newTestEngine(t).LayoutBlock(block, page.Width, 1, nil)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if got := rows[0].(page.TextPacket).Text; got != "\x07The"+strings.Repeat(" ", 35) {
		t.Errorf("row = %q", got)
	}
}

func TestLayoutBlockIndent(t *testing.T) {
	block := &Block{Content: []Group{{
		Indent:  2,
		Content: []Chunk{{Text: Text("Indented paragraph which certainly needs more than a single row")}},
	}}}
	rows := newTestEngine(t).LayoutBlock(block, page.Width, 1, nil)
	if len(rows) < 2 {
		t.Fatalf("rows = %d, want at least 2", len(rows))
	}
	for _, r := range rows {
		if text := r.(page.TextPacket).Text; !strings.HasPrefix(text, "  \x07") {
			t.Errorf("row not indented: %q", text)
		}
	}
}

func TestLayoutBlockWidthInvariant(t *testing.T) {
	long := "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore"
	groups := []Group{
		{Align: page.AlignLeft, Content: []Chunk{{Text: Text(long)}}},
		{Align: page.AlignRight, Content: []Chunk{{Text: Text("12:30"), Colour: "yellow"}}},
		{Align: page.AlignCentre, Indent: 1, Content: []Chunk{{Text: Text(long), ForceCaps: true}}},
		{Align: page.AlignLeft, Content: []Chunk{{Text: Text("Short")}}},
		{Align: page.AlignLeft, Content: []Chunk{{Text: Text("and more")}}},
		{Align: page.AlignRight, Indent: 3, ForceNewLine: true, Content: []Chunk{{Text: Text(long)}}},
		{Align: page.AlignLeft, Content: []Chunk{{Text: Text("averyveryveryveryveryveryveryveryveryverylongword")}}},
	}
	for _, padCol := range []string{"", "red", "test"} {
		for _, dh := range []bool{false, true} {
			for _, boxed := range []bool{false, true} {
				for _, width := range []int{40, 30} {
					block := &Block{Padding: "=", PadCol: padCol, DoubleHeight: dh, Boxed: boxed, Content: groups}
					rows := newTestEngine(t).LayoutBlock(block, width, 1, nil)
					// unset pad colour is a plain space cell
					want := width - page.Cells(ColourCode(padCol))
					for _, r := range rows {
						if n := page.Cells(r.(page.TextPacket).Text); n != want {
							t.Errorf("padCol %q dh %v boxed %v width %d: row %d is %d cells, want %d",
								padCol, dh, boxed, width, r.Row(), n, want)
						}
					}
				}
			}
		}
	}
}

func TestTableRow(t *testing.T) {
	data := Variables{"home": "Enniskillen", "away": "Liverpool", "temp": 12.345}

	e := newTestEngine(t)
	got, ok := e.TableRow([]Cell{
		{Width: intPtr(6), Data: "home", Colour: "cyan"},
		{Width: intPtr(3), Text: Text("v"), Align: page.AlignCentre, Colour: "white"},
		{Width: intPtr(6), Data: "away", Align: page.AlignRight, Colour: "cyan"},
		{Width: intPtr(5), Data: "temp", Round: intPtr(1), Align: page.AlignRight},
	}, data)
	if !ok {
		t.Fatal("TableRow() failed")
	}
	if want := "\x06Ennisk\x07 v \x06Liverp 12.3"; got != want {
		t.Errorf("TableRow() = %q, want %q", got, want)
	}
}

func TestTableRowMalformed(t *testing.T) {
	tests := []struct {
		name  string
		cells []Cell
		msg   string
	}{
		{"no width", []Cell{{Data: "home"}}, "Table cell has no width"},
		{"absent data", []Cell{{Width: intPtr(4), Data: "nothing"}}, "Table cell data is absent"},
		{"no source", []Cell{{Width: intPtr(4)}}, "Table cell has neither data nor text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, logs := newObservedEngine()
			got, ok := e.TableRow(tt.cells, Variables{"home": "x"})
			if ok || got != "" {
				t.Errorf("TableRow() = %q, %v", got, ok)
			}
			if logs.FilterMessage(tt.msg).Len() != 1 {
				t.Errorf("expected diagnostic %q", tt.msg)
			}
		})
	}
}

func TestLayoutBlockTable(t *testing.T) {
	block, err := ParseBlock([]byte(`{
		// league table under a heading
		"content": [
			{"align": "left", "content": [{"text": "Results"}]},
			{"table": {"rows": ["results"], "cells": [
				{"width": 6, "data": "home"},
				{"width": 3, "data": "score", "align": "right"}
			]}}
		]
	}`))
	if err != nil {
		t.Fatalf("ParseBlock() error = %v", err)
	}
	vars, err := ParseVariables([]byte(`{"results": [
		{"home": "Derry", "score": 2},
		{"home": "Cliftonville", "score": 10},
		"not a record"
	]}`))
	if err != nil {
		t.Fatalf("ParseVariables() error = %v", err)
	}

	e, logs := newObservedEngine()
	rows := e.LayoutBlock(block, page.Width, 1, vars)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3: %q", len(rows), rows)
	}
	want := []string{"Derry   2", "Clifto 10"}
	for i, w := range want {
		tp := rows[i+1].(page.TextPacket)
		if tp.Number != i+2 {
			t.Errorf("table row %d number = %d, want %d", i, tp.Number, i+2)
		}
		if strings.TrimRight(tp.Text, " ") != w {
			t.Errorf("table row %d = %q, want %q", i, tp.Text, w)
		}
		if page.Cells(tp.Text) != page.Width-1 {
			t.Errorf("table row %d width = %d", i, page.Cells(tp.Text))
		}
	}
	if logs.FilterMessage("Table record is not an object").Len() != 1 {
		t.Error("expected diagnostic for malformed record")
	}

	block.Content[1].Table.Rows = []Literal{"missing"}
	if rows := e.LayoutBlock(block, page.Width, 1, vars); len(rows) != 1 {
		t.Errorf("rows = %d, want heading only", len(rows))
	}
}

func TestTableRowTruncated(t *testing.T) {
	e, logs := newObservedEngine()
	got, ok := e.TableRow([]Cell{{Width: intPtr(30), Text: Text("a")}, {Width: intPtr(30), Text: Text("b")}}, nil)
	if !ok || page.Cells(got) != page.Width {
		t.Errorf("TableRow() = %q, %v", got, ok)
	}
	if logs.FilterMessage("Table row is longer than 40 characters, truncated").Len() != 1 {
		t.Errorf("expected truncation warning")
	}
}

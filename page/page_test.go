package page

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func text(row int, s string) TextPacket { return TextPacket{Number: row, Text: s} }

func TestResolvePrecedence(t *testing.T) {
	p := &Page{
		Number:  "100",
		Control: &Control{NewsFlash: true},
		Packets: []Packet{text(1, "global 1"), text(2, "global 2"), LinkingPacket{Number: 27, Pages: []string{"101"}}},
		Subpages: []*Subpage{
			{Packets: []Packet{text(2, "local 2")}},
			{Inherit: Bool(false), Control: &Control{Subtitle: true}, Packets: []Packet{text(3, "alone")}},
		},
	}
	Resolve(p)

	if p.Packets != nil {
		t.Errorf("globals should be cleared after resolution")
	}
	want := []Packet{text(1, "global 1"), text(2, "local 2"), LinkingPacket{Number: 27, Pages: []string{"101"}}}
	if !PacketsEqual(p.Subpages[0].Packets, want) {
		t.Errorf("inheriting subpage = %+v, want %+v", p.Subpages[0].Packets, want)
	}
	if !PacketsEqual(p.Subpages[1].Packets, []Packet{text(3, "alone")}) {
		t.Errorf("non inheriting subpage = %+v", p.Subpages[1].Packets)
	}
	if !p.Subpages[0].Control.Equal(&Control{NewsFlash: true}) {
		t.Errorf("page control not copied: %+v", p.Subpages[0].Control)
	}
	if !p.Subpages[1].Control.Equal(&Control{Subtitle: true}) {
		t.Errorf("subpage control overridden: %+v", p.Subpages[1].Control)
	}
}

func TestResolveCopiesGlobals(t *testing.T) {
	pages := []string{"101", "102"}
	p := &Page{
		Packets:  []Packet{LinkingPacket{Number: 27, Pages: pages}},
		Subpages: []*Subpage{{}, {}},
	}
	Resolve(p)
	lp := p.Subpages[0].Packets[0].(LinkingPacket)
	lp.Pages[0] = "999"
	if pages[0] != "101" || p.Subpages[1].Packets[0].(LinkingPacket).Pages[0] != "101" {
		t.Errorf("subpages share global packet storage")
	}
}

func TestResolveCreatesSubpage(t *testing.T) {
	p := Resolve(&Page{Number: "100", Packets: []Packet{text(5, "x")}})
	if len(p.Subpages) != 1 || !PacketsEqual(p.Subpages[0].Packets, []Packet{text(5, "x")}) {
		t.Errorf("Resolve() = %+v", p.Subpages)
	}
}

func TestMinify(t *testing.T) {
	p := &Page{
		Number: "100",
		Subpages: []*Subpage{
			{Control: &Control{CycleTime: "8,T"}, Packets: []Packet{text(1, "title"), text(2, "one"), text(3, "same")}},
			{Control: &Control{CycleTime: "8,T"}, Packets: []Packet{text(1, "title"), text(2, "two"), text(3, "same")}},
			{Control: &Control{CycleTime: "8,T"}, Packets: []Packet{text(1, "title"), text(2, "three"), text(3, "other")}},
		},
	}
	before := p.Clone()
	Minify(p)

	if !PacketsEqual(p.Packets, []Packet{text(1, "title")}) {
		t.Errorf("globals = %+v", p.Packets)
	}
	if len(p.Subpages[0].Packets) != 2 {
		t.Errorf("shared packet not removed from subpage: %+v", p.Subpages[0].Packets)
	}
	if p.Control == nil || p.Control.CycleTime != "8,T" || p.Subpages[0].Control != nil {
		t.Errorf("common control was not lifted: page %+v subpage %+v", p.Control, p.Subpages[0].Control)
	}
	if !Compare(before, p) {
		t.Errorf("minified page is not equivalent to original")
	}
}

func TestCompare(t *testing.T) {
	base := func() *Page {
		return &Page{
			Number:  "100",
			Packets: []Packet{text(1, "g")},
			Subpages: []*Subpage{
				{Packets: []Packet{text(3, "c"), text(2, "b")}},
				{Subcode: "2", Packets: []Packet{text(2, "x")}},
			},
		}
	}
	tests := []struct {
		name   string
		modify func(p *Page)
		want   bool
	}{
		{"identical", func(*Page) {}, true},
		{"resolved form", func(p *Page) { Resolve(p) }, true},
		{"positional subcode spelled out", func(p *Page) { p.Subpages[0].Subcode = "0001" }, true},
		{"different subcode", func(p *Page) { p.Subpages[0].Subcode = "0005" }, false},
		{"different text", func(p *Page) { p.Subpages[1].Packets[0] = text(2, "y") }, false},
		{"extra subpage", func(p *Page) { p.Subpages = append(p.Subpages, &Subpage{}) }, false},
		{"control", func(p *Page) { p.Control = &Control{Update: true} }, false},
		{"explicit transmit", func(p *Page) { p.Control = &Control{TransmitPage: Bool(true)} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := base(), base()
			tt.modify(b)
			if got := Compare(a, b); got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveSubcode(t *testing.T) {
	tests := []struct {
		sp           *Subpage
		index, total int
		want         string
	}{
		{&Subpage{}, 0, 1, "0000"},
		{&Subpage{}, 0, 3, "0001"},
		{&Subpage{}, 2, 3, "0003"},
		{&Subpage{Subcode: "12"}, 0, 3, "0012"},
		{&Subpage{Subcode: "3F7F"}, 0, 1, "3F7F"},
	}
	for _, tt := range tests {
		if got := EffectiveSubcode(tt.sp, tt.index, tt.total); got != tt.want {
			t.Errorf("EffectiveSubcode(%+v, %d, %d) = %s, want %s", tt.sp, tt.index, tt.total, got, tt.want)
		}
	}
}

func TestNumberSubpages(t *testing.T) {
	newPage := func(n int) *Page {
		p := &Page{Number: "100"}
		for range n {
			p.Subpages = append(p.Subpages, &Subpage{Packets: []Packet{text(1, "Headline")}})
		}
		return p
	}

	t.Run("single subpage untouched", func(t *testing.T) {
		p := newPage(1)
		if err := NumberSubpages(p, NumberOptions{Row: 1, Align: AlignRight}); err != nil {
			t.Fatal(err)
		}
		if p.Subpages[0].Packets[0].(TextPacket).Text != "Headline" {
			t.Errorf("single subpage must not be numbered")
		}
	})

	t.Run("right aligned into existing row", func(t *testing.T) {
		p := newPage(3)
		if err := NumberSubpages(p, NumberOptions{Row: 1, Offset: 1, Prefix: "\x07", Align: AlignRight}); err != nil {
			t.Fatal(err)
		}
		got := p.Subpages[1].Packets[0].(TextPacket).Text
		want := PadRight("Headline", 35, ' ') + "\x072/3"
		if got != want {
			t.Errorf("row = %q, want %q", got, want)
		}
	})

	t.Run("left aligned new row", func(t *testing.T) {
		p := newPage(2)
		if err := NumberSubpages(p, NumberOptions{Row: 24, Offset: 2, Align: AlignLeft}); err != nil {
			t.Fatal(err)
		}
		idx := p.Subpages[1].FindText(24)
		if idx < 0 {
			t.Fatal("counter row not added")
		}
		if got := p.Subpages[1].Packets[idx].(TextPacket).Text; got != "  2/2" {
			t.Errorf("row = %q", got)
		}
	})

	t.Run("two digit total", func(t *testing.T) {
		p := newPage(12)
		if err := NumberSubpages(p, NumberOptions{Row: 1, Offset: 1, Align: AlignRight}); err != nil {
			t.Fatal(err)
		}
		got := p.Subpages[11].Packets[0].(TextPacket).Text
		if Cells(got) != Width || !strings.HasSuffix(got, "12/12") {
			t.Errorf("row = %q", got)
		}
	})

	t.Run("centre rejected", func(t *testing.T) {
		if err := NumberSubpages(newPage(2), NumberOptions{Row: 1, Align: AlignCentre}); !errors.Is(err, ErrNumberAlign) {
			t.Errorf("error = %v, want ErrNumberAlign", err)
		}
	})
}

func TestBlockOverlay(t *testing.T) {
	source := []Packet{text(5, strings.Repeat("a", 40)), text(7, "short")}
	overlay := []Packet{text(1, "XY"), text(3, "Z")}

	got, err := BlockOverlay(source, overlay, 2, 5, 6, 7, AlignLeft)
	if err != nil {
		t.Fatal(err)
	}
	want := []Packet{
		text(5, "aaXY  "+strings.Repeat("a", 34)),
		text(7, "shZ   "),
		text(6, strings.Repeat(" ", 40)),
	}
	if !PacketsEqual(got, want) {
		t.Errorf("BlockOverlay() =\n%q\nwant\n%q", got, want)
	}
	if source[0].(TextPacket).Text != strings.Repeat("a", 40) {
		t.Errorf("source was modified")
	}

	got, err = BlockOverlay(source, overlay, 0, 5, 4, 5, AlignRight)
	if err != nil {
		t.Fatal(err)
	}
	if tp := got[0].(TextPacket); tp.Text != "  XY"+strings.Repeat("a", 36) {
		t.Errorf("right aligned overlay = %q", tp.Text)
	}

	got, err = BlockOverlay(source, overlay, 0, 5, 6, 5, AlignCentre)
	if err != nil {
		t.Fatal(err)
	}
	if tp := got[0].(TextPacket); tp.Text != "  XY  "+strings.Repeat("a", 34) {
		t.Errorf("centred overlay = %q", tp.Text)
	}

	// left alignment cuts long overlay rows at the window edge
	got, err = BlockOverlay(source, []Packet{text(1, "LONGER TEXT")}, 0, 5, 4, 5, AlignLeft)
	if err != nil {
		t.Fatal(err)
	}
	if tp := got[0].(TextPacket); tp.Text != "LONG"+strings.Repeat("a", 36) {
		t.Errorf("left aligned overlay = %q", tp.Text)
	}
}

func TestBlockOverlayOutOfRange(t *testing.T) {
	source := []Packet{text(10, "keep me")}
	got, err := BlockOverlay(source, []Packet{text(1, "x")}, 5, 10, 39, 5, AlignLeft)
	if !errors.Is(err, ErrOverlayBounds) {
		t.Errorf("error = %v, want ErrOverlayBounds", err)
	}
	if !PacketsEqual(got, source) {
		t.Errorf("source should be returned unchanged, got %+v", got)
	}
}

func TestCellHelpers(t *testing.T) {
	tests := []struct {
		name, got, want string
	}{
		{"centre even width", Centre("ab", 5, '.'), "..ab."},
		{"centre odd margin even width", Centre("abc", 6, '.'), ".abc.."},
		{"centre odd", Centre("a", 4, '.'), ".a.."},
		{"justify truncates", Justify("abcdef", 3, AlignRight, ' '), "abc"},
		{"fit", Fit("ab", 4, '-'), "ab--"},
		{"skip", Skip("héllo", 2), "llo"},
		{"truncate multibyte", Truncate("héllo", 2), "hé"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestJSON(t *testing.T) {
	input := `{
		// page numbers may be numbers
		"number": 150,
		"control": {"cycleTime": "8,T", "transmitPage": false},
		"packets": [{"number": 27, "linking": {"pages": ["100", "8ff"]}}],
		"subpages": [
			{"subcode": 3, "packets": [{"number": 1, "text": "\u0001red"}]},
			{"inherit": false, "packets": [],},
		],
	}`
	p, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Number != "150" || p.Subpages[0].Subcode != "3" || p.Subpages[1].Inherits() {
		t.Errorf("unexpected page: %+v", p)
	}
	if p.Control.Transmit() {
		t.Errorf("transmitPage false was lost")
	}
	if !PacketsEqual(p.Packets, []Packet{LinkingPacket{Number: 27, Pages: []string{"100", "8ff"}}}) {
		t.Errorf("globals = %+v", p.Packets)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v", err)
	}
	if !Compare(p, back) {
		t.Errorf("JSON round trip mismatch: %s", data)
	}
}

func TestJSONRejectsBadPackets(t *testing.T) {
	tests := []string{
		`{"number": "100", "subpages": [{"packets": [{"number": 27, "text": "x"}]}]}`,
		`{"number": "100", "subpages": [{"packets": [{"number": 5, "linking": {"pages": []}}]}]}`,
		`{"number": "100", "subpages": [{"packets": [{"number": 5}]}]}`,
		`{"number": "100", "subpages": [{"packets": [{"number": 5, "text": "x", "linking": {}}]}]}`,
	}
	for _, input := range tests {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrBadPacket) {
			t.Errorf("Parse(%s) error = %v, want ErrBadPacket", input, err)
		}
	}
}

// Package page defines the in-memory teletext page model shared by the TTI
// codec and the layout engine.
package page

import (
	"cmp"
	"slices"
)

// Row numbers with special meaning.
const (
	HeaderRow  = 0
	FirstRow   = 1
	LastRow    = 25
	LinkingRow = 27

	// Width is the number of character cells in a display row.
	Width = 40
)

// Control holds transmission and display flags. It may be attached to a page
// (shared default) or to a subpage (override).
type Control struct {
	ErasePage           bool   `json:"erasePage,omitempty"`
	NewsFlash           bool   `json:"newsFlash,omitempty"`
	Subtitle            bool   `json:"subtitle,omitempty"`
	SuppressHeader      bool   `json:"suppressHeader,omitempty"`
	Update              bool   `json:"update,omitempty"`
	SuppressPage        bool   `json:"suppressPage,omitempty"`
	InterruptedSequence bool   `json:"interruptedSequence,omitempty"`
	Language            int    `json:"language,omitempty"`
	CycleTime           string `json:"cycleTime,omitempty"`
	// TransmitPage is nil when the page should be transmitted (default),
	// explicit false clears transmit bit.
	TransmitPage *bool `json:"transmitPage,omitempty"`
}

// Transmit reports whether transmit bit should be set for this control.
func (c *Control) Transmit() bool {
	if c == nil || c.TransmitPage == nil {
		return true
	}
	return *c.TransmitPage
}

// Equal compares two controls treating nil as zero value and absent
// TransmitPage as true.
func (c *Control) Equal(o *Control) bool {
	var a, b Control
	if c != nil {
		a = *c
	}
	if o != nil {
		b = *o
	}
	if a.Transmit() != b.Transmit() {
		return false
	}
	a.TransmitPage, b.TransmitPage = nil, nil
	return a == b
}

// Packet is one row of a subpage. It is either a TextPacket or a
// LinkingPacket.
type Packet interface {
	Row() int
	isPacket()
}

// TextPacket carries up to 40 display cells, colour cells included.
type TextPacket struct {
	Number int
	Text   string
}

func (p TextPacket) Row() int { return p.Number }
func (TextPacket) isPacket()  {}

// LinkingPacket carries fasttext link targets, always on row 27.
type LinkingPacket struct {
	Number int
	DC     int
	Pages  []string
}

func (p LinkingPacket) Row() int { return p.Number }
func (LinkingPacket) isPacket()  {}

// Subpage is one variant of a page.
type Subpage struct {
	// Subcode is empty when it should be inferred from position.
	Subcode string
	Control *Control
	// Inherit is nil when subpage receives global packets (default).
	Inherit *bool
	Packets []Packet
}

// Inherits reports whether global packets should be expanded into subpage.
func (s *Subpage) Inherits() bool {
	return s.Inherit == nil || *s.Inherit
}

// Find returns index of the first packet on requested row or -1.
func (s *Subpage) Find(row int) int {
	return slices.IndexFunc(s.Packets, func(p Packet) bool { return p.Row() == row })
}

// FindText returns index of the text packet on requested row or -1.
func (s *Subpage) FindText(row int) int {
	return textIndex(s.Packets, row)
}

// Page is a teletext page: a number, optional global packets and control,
// and the ordered list of subpages.
type Page struct {
	Number   string
	Control  *Control
	Packets  []Packet
	Subpages []*Subpage
}

// SortPackets orders packets by row number keeping relative order of equal
// rows.
func SortPackets(packets []Packet) {
	slices.SortStableFunc(packets, func(a, b Packet) int {
		return cmp.Compare(a.Row(), b.Row())
	})
}

// PacketsEqual compares two packet lists element by element.
func PacketsEqual(a, b []Packet) bool {
	return slices.EqualFunc(a, b, packetEqual)
}

func packetEqual(a, b Packet) bool {
	switch pa := a.(type) {
	case TextPacket:
		pb, ok := b.(TextPacket)
		return ok && pa == pb
	case LinkingPacket:
		pb, ok := b.(LinkingPacket)
		return ok && pa.Number == pb.Number && pa.DC == pb.DC && slices.Equal(pa.Pages, pb.Pages)
	default:
		return false
	}
}

// Bool returns pointer to a copy of v, handy for optional flags.
func Bool(v bool) *bool {
	return &v
}

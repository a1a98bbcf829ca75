package page

// Deep copy helpers. Whenever a packet or a control is attached to more than
// one owner (global packets expanded into subpages, overlay sources, page
// control copied down) it goes through one of these.

// Clone returns a deep copy of the page.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	return &Page{
		Number:   p.Number,
		Control:  p.Control.Clone(),
		Packets:  ClonePackets(p.Packets),
		Subpages: cloneSubpages(p.Subpages),
	}
}

// Clone returns a deep copy of the subpage.
func (s *Subpage) Clone() *Subpage {
	if s == nil {
		return nil
	}
	return &Subpage{
		Subcode: s.Subcode,
		Control: s.Control.Clone(),
		Inherit: cloneBoolPtr(s.Inherit),
		Packets: ClonePackets(s.Packets),
	}
}

// Clone returns a deep copy of the control.
func (c *Control) Clone() *Control {
	if c == nil {
		return nil
	}
	clone := *c
	clone.TransmitPage = cloneBoolPtr(c.TransmitPage)
	return &clone
}

// ClonePackets returns a deep copy of the packet list.
func ClonePackets(packets []Packet) []Packet {
	if packets == nil {
		return nil
	}
	result := make([]Packet, len(packets))
	for i, p := range packets {
		result[i] = ClonePacket(p)
	}
	return result
}

// ClonePacket returns a deep copy of a single packet.
func ClonePacket(p Packet) Packet {
	switch v := p.(type) {
	case LinkingPacket:
		return LinkingPacket{
			Number: v.Number,
			DC:     v.DC,
			Pages:  cloneStrings(v.Pages),
		}
	default:
		// TextPacket and unknown values have no reference fields
		return p
	}
}

func cloneSubpages(subpages []*Subpage) []*Subpage {
	if subpages == nil {
		return nil
	}
	result := make([]*Subpage, len(subpages))
	for i, s := range subpages {
		result[i] = s.Clone()
	}
	return result
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	result := make([]string, len(s))
	copy(result, s)
	return result
}

func cloneBoolPtr(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

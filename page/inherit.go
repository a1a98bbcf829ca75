package page

import "slices"

// Resolve expands page level (global) packets into every inheriting subpage
// and returns fully formed subpages. Local packets always win over globals
// on the same row. Subpages without control receive a copy of the page
// control. Page is modified in place and returned for convenience, global
// packets are removed, so calling Resolve again does nothing.
func Resolve(p *Page) *Page {
	if p == nil {
		return nil
	}
	if len(p.Subpages) == 0 {
		p.Subpages = []*Subpage{{}}
	}

	for i, sp := range p.Subpages {
		if sp == nil {
			sp = &Subpage{}
			p.Subpages[i] = sp
		}
		if sp.Control == nil && p.Control != nil {
			sp.Control = p.Control.Clone()
		}
		if !sp.Inherits() {
			continue
		}
		added := false
		for _, global := range p.Packets {
			if sp.Find(global.Row()) >= 0 {
				continue
			}
			sp.Packets = append(sp.Packets, ClonePacket(global))
			added = true
		}
		if added {
			SortPackets(sp.Packets)
		}
	}

	p.Packets = nil
	return p
}

// Minify is the reverse of Resolve: packets shared by all inheriting
// subpages become global packets and a control common to all subpages is
// moved to the page. Page is resolved first, so the result always
// satisfies Compare(Resolve(Minify(p)), Resolve(p)).
func Minify(p *Page) *Page {
	if p == nil {
		return nil
	}
	Resolve(p)

	var inheriting []*Subpage
	for _, sp := range p.Subpages {
		if sp.Inherits() {
			inheriting = append(inheriting, sp)
		}
	}

	if len(inheriting) > 1 {
		var globals []Packet
		for _, candidate := range inheriting[0].Packets {
			if slices.ContainsFunc(globals, func(g Packet) bool { return g.Row() == candidate.Row() }) {
				continue
			}
			shared := true
			for _, sp := range inheriting[1:] {
				if idx := sp.Find(candidate.Row()); idx < 0 || !packetEqual(sp.Packets[idx], candidate) {
					shared = false
					break
				}
			}
			if shared {
				globals = append(globals, ClonePacket(candidate))
			}
		}
		for _, sp := range inheriting {
			sp.Packets = slices.DeleteFunc(sp.Packets, func(local Packet) bool {
				return slices.ContainsFunc(globals, func(g Packet) bool { return packetEqual(g, local) })
			})
		}
		p.Packets = globals
	}

	liftControl(p)
	return p
}

func liftControl(p *Page) {
	first := p.Subpages[0].Control
	if first == nil {
		return
	}
	for _, sp := range p.Subpages {
		if sp.Control == nil || !sp.Control.Equal(first) {
			return
		}
	}
	if p.Control != nil && !p.Control.Equal(first) {
		return
	}
	p.Control = first.Clone()
	for _, sp := range p.Subpages {
		sp.Control = nil
	}
}

package page

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// External (JSON) representation of the page model. This is the only place
// where loosely typed input is validated, everything past this point works
// with typed values.

var ErrBadPacket = errors.New("malformed packet")

type packetJSON struct {
	Number  int          `json:"number"`
	Text    *string      `json:"text,omitempty"`
	DC      *int         `json:"dc,omitempty"`
	Linking *linkingJSON `json:"linking,omitempty"`
}

type linkingJSON struct {
	Pages []string `json:"pages,omitempty"`
}

type subpageJSON struct {
	Subcode flexString `json:"subcode,omitempty"`
	Control *Control   `json:"control,omitempty"`
	Inherit *bool      `json:"inherit,omitempty"`
	Packets Packets    `json:"packets"`
}

type pageJSON struct {
	Number   flexString     `json:"number"`
	Control  *Control       `json:"control,omitempty"`
	Packets  Packets        `json:"packets,omitempty"`
	Subpages []*subpageJSON `json:"subpages"`
}

// flexString accepts both JSON strings and numbers, authors tend to write
// page numbers either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// Packets is a packet list with JSON support.
type Packets []Packet

// MarshalJSON implements json.Marshaler.
func (ps Packets) MarshalJSON() ([]byte, error) {
	out := make([]packetJSON, 0, len(ps))
	for _, p := range ps {
		switch v := p.(type) {
		case TextPacket:
			text := v.Text
			out = append(out, packetJSON{Number: v.Number, Text: &text})
		case LinkingPacket:
			dc := v.DC
			out = append(out, packetJSON{Number: v.Number, DC: &dc, Linking: &linkingJSON{Pages: v.Pages}})
		default:
			return nil, fmt.Errorf("%w: unsupported packet type %T", ErrBadPacket, p)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (ps *Packets) UnmarshalJSON(data []byte) error {
	var in []packetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Packets, 0, len(in))
	for _, raw := range in {
		p, err := raw.packet()
		if err != nil {
			return err
		}
		out = append(out, p)
	}
	*ps = out
	return nil
}

func (raw *packetJSON) packet() (Packet, error) {
	switch {
	case raw.Text != nil && raw.Linking != nil:
		return nil, fmt.Errorf("%w: row %d has both text and linking", ErrBadPacket, raw.Number)
	case raw.Text != nil:
		if raw.Number < HeaderRow || raw.Number > LastRow {
			return nil, fmt.Errorf("%w: text on row %d", ErrBadPacket, raw.Number)
		}
		return TextPacket{Number: raw.Number, Text: *raw.Text}, nil
	case raw.Linking != nil:
		if raw.Number != LinkingRow {
			return nil, fmt.Errorf("%w: linking on row %d", ErrBadPacket, raw.Number)
		}
		lp := LinkingPacket{Number: raw.Number, Pages: raw.Linking.Pages}
		if raw.DC != nil {
			lp.DC = *raw.DC
		}
		return lp, nil
	default:
		return nil, fmt.Errorf("%w: row %d has neither text nor linking", ErrBadPacket, raw.Number)
	}
}

// MarshalJSON implements json.Marshaler.
func (p *Page) MarshalJSON() ([]byte, error) {
	out := pageJSON{
		Number:   flexString(p.Number),
		Control:  p.Control,
		Packets:  p.Packets,
		Subpages: make([]*subpageJSON, 0, len(p.Subpages)),
	}
	for _, sp := range p.Subpages {
		if sp == nil {
			continue
		}
		packets := Packets(sp.Packets)
		if packets == nil {
			packets = Packets{}
		}
		out.Subpages = append(out.Subpages, &subpageJSON{
			Subcode: flexString(sp.Subcode),
			Control: sp.Control,
			Inherit: sp.Inherit,
			Packets: packets,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Page) UnmarshalJSON(data []byte) error {
	var in pageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Page{
		Number:  string(in.Number),
		Control: in.Control,
		Packets: in.Packets,
	}
	for i, sp := range in.Subpages {
		if sp == nil {
			return fmt.Errorf("subpage %d is null", i)
		}
		p.Subpages = append(p.Subpages, &Subpage{
			Subcode: string(sp.Subcode),
			Control: sp.Control,
			Inherit: sp.Inherit,
			Packets: sp.Packets,
		})
	}
	return nil
}

// Parse decodes page from JSON. Comments and trailing commas (JSONC) are
// allowed.
func Parse(data []byte) (*Page, error) {
	var p Page
	if err := json.Unmarshal(jsonc.ToJSON(data), &p); err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &p, nil
}

// ReadFile reads and parses JSON (JSONC) page from disk.
func ReadFile(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Package tti reads and writes teletext pages in TTI format: one
// comma separated record per line, page attributes followed by output lines.
package tti

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"ttx/page"
)

var ErrPageConflict = errors.New("more than one page in TTI input")

// Record keys.
const (
	keyPageNumber = "PN"
	keySubcode    = "SC"
	keyStatus     = "PS"
	keyCycleTime  = "CT"
	keyFastext    = "FL"
	keyOutputLine = "OL"
)

type decodeState int

const (
	// next attribute record closes current subpage and starts a new one
	stateAccumulatingPackets decodeState = iota
	// attribute records describe current subpage
	stateAwaitingAttributes
)

type decoder struct {
	log   *zap.Logger
	state decodeState

	page    *page.Page
	current *page.Subpage
	closed  int
	// current subpage had OL record, even one which was skipped
	olSeen bool
}

// Decode parses TTI records into a page. Result is not resolved: subpages
// carry exactly what the file has. The only fatal condition is a page number
// conflict, every other anomaly is logged and skipped.
func Decode(r io.Reader, log *zap.Logger) (*page.Page, error) {
	d := &decoder{
		log:     log,
		state:   stateAccumulatingPackets,
		page:    &page.Page{},
		current: &page.Subpage{},
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		if err := d.record(strings.TrimRight(scanner.Text(), "\r\n"), n); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read TTI input: %w", err)
	}
	d.closeSubpage()

	if d.page.Number == "" {
		d.log.Warn("TTI input has no page number")
	}
	return d.page, nil
}

// ReadFile decodes TTI file. When enc is not nil file content is converted
// from that encoding first.
func ReadFile(path string, enc encoding.Encoding, log *zap.Logger) (*page.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open TTI file: %w", err)
	}
	defer f.Close()

	p, err := Read(f, enc, log.With(zap.String("file", path)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode '%s': %w", path, err)
	}
	return p, nil
}

// Read decodes TTI content converting it from enc first when it is not nil.
func Read(r io.Reader, enc encoding.Encoding, log *zap.Logger) (*page.Page, error) {
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}
	return Decode(r, log)
}

func (d *decoder) record(line string, n int) error {
	if len(line) == 0 {
		return nil
	}
	key, rest, found := strings.Cut(line, ",")
	if !found {
		d.log.Debug("Skipping malformed TTI record", zap.Int("line", n), zap.String("record", line))
		return nil
	}

	switch key {
	case keyPageNumber, keySubcode, keyStatus, keyCycleTime:
		if d.state == stateAccumulatingPackets {
			d.closeSubpage()
			d.current = &page.Subpage{}
			d.state = stateAwaitingAttributes
		}
	}

	switch key {
	case keyPageNumber:
		number := page.Truncate(rest, 3)
		if d.page.Number != "" && d.page.Number != number {
			return fmt.Errorf("%w: line %d has page %s, expected %s", ErrPageConflict, n, number, d.page.Number)
		}
		d.page.Number = number

	case keySubcode:
		// subcode is kept only when it is not what position implies
		sc, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			d.log.Warn("Unexpected subcode value", zap.Int("line", n), zap.String("subcode", rest))
			d.current.Subcode = rest
		} else if sc != d.closed+1 {
			d.current.Subcode = rest
		}

	case keyStatus:
		word, err := strconv.ParseUint(strings.TrimSpace(rest), 16, 16)
		if err != nil {
			d.log.Warn("Unable to parse page status", zap.Int("line", n), zap.String("status", rest), zap.Error(err))
			return nil
		}
		DecodeStatus(uint16(word), d.control())

	case keyCycleTime:
		d.control().CycleTime = rest

	case keyFastext:
		d.put(page.LinkingPacket{Number: page.LinkingRow, Pages: strings.Split(rest, ",")})

	case keyOutputLine:
		d.state = stateAccumulatingPackets
		d.olSeen = true

		rowText, content, _ := strings.Cut(rest, ",")
		row, err := strconv.Atoi(rowText)
		if err != nil {
			d.log.Warn("Unable to parse output line number", zap.Int("line", n), zap.String("row", rowText))
			return nil
		}
		if row < page.FirstRow || row > page.LastRow {
			// header is synthetic and enhancement packets are not supported
			return nil
		}
		text, bad := Unescape(content)
		for _, b := range bad {
			d.log.Warn("Unable to unescape character", zap.String("page", d.page.Number),
				zap.Int("line", n), zap.Int("position", b.Pos), zap.String("char", string(b.Char)))
		}
		d.put(page.TextPacket{Number: row, Text: text})

	default:
		d.log.Debug("Ignoring TTI record", zap.Int("line", n), zap.String("key", key))
	}
	return nil
}

func (d *decoder) control() *page.Control {
	if d.current.Control == nil {
		d.current.Control = &page.Control{}
	}
	return d.current.Control
}

// put stores packet replacing earlier one on the same row.
func (d *decoder) put(p page.Packet) {
	if idx := d.current.Find(p.Row()); idx >= 0 {
		d.current.Packets[idx] = p
		return
	}
	d.current.Packets = append(d.current.Packets, p)
}

// closeSubpage appends current subpage to the page. Subpage without rows is
// kept when it had an OL record (header included), so blank subpages
// survive and keep their position.
func (d *decoder) closeSubpage() {
	seen := d.olSeen
	d.olSeen = false
	if d.current == nil || (!seen && len(d.current.Packets) == 0) {
		return
	}
	page.SortPackets(d.current.Packets)
	d.page.Subpages = append(d.page.Subpages, d.current)
	d.closed++
	d.current = nil
}

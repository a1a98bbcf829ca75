package tti

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"ttx/page"
)

var (
	ErrSubcodeOverflow = errors.New("subcode cannot be represented in TTI")
	ErrLinkingRow      = errors.New("linking packet outside of row 27")
	ErrNoPageNumber    = errors.New("page has no number")
)

const (
	// LineEnding terminates every record on output.
	LineEnding = "\r\n"

	maxSubcode = 99
	// OutputDir is directory (relative to destination) TTI files go to.
	OutputDir = "teletext"
)

// Options controls encoder output.
type Options struct {
	// Tag identifies producer in synthetic header row.
	Tag string
	// Now provides header time stamp, time.Now when nil.
	Now func() time.Time
}

// Encode resolves inheritance on a copy of the page and produces TTI
// records. Page itself is not modified.
func Encode(p *page.Page, opts Options, log *zap.Logger) ([]string, error) {
	if p == nil || p.Number == "" {
		return nil, ErrNoPageNumber
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	p = page.Resolve(p.Clone())
	log = log.With(zap.String("page", p.Number))

	var out []string
	total := len(p.Subpages)
	for i, sp := range p.Subpages {
		subcode := page.EffectiveSubcode(sp, i, total)
		if n, err := strconv.Atoi(subcode); err != nil || n > maxSubcode || len(subcode) != 4 {
			return nil, fmt.Errorf("%w: page %s subcode %q", ErrSubcodeOverflow, p.Number, subcode)
		}

		out = append(out,
			keyPageNumber+","+p.Number+subcode[2:],
			keySubcode+","+subcode,
		)
		if sp.Control != nil && sp.Control.CycleTime != "" {
			out = append(out, keyCycleTime+","+sp.Control.CycleTime)
		}
		out = append(out, fmt.Sprintf("%s,%04x", keyStatus, EncodeStatus(sp.Control)))
		out = append(out, header(p.Number, opts.Tag, now()))

		packets := slices.Clone(sp.Packets)
		page.SortPackets(packets)
		for _, packet := range packets {
			switch v := packet.(type) {
			case page.TextPacket:
				if line, ok := outputLine(v, subcode, log); ok {
					out = append(out, line)
				}
			case page.LinkingPacket:
				if v.Number != page.LinkingRow {
					return nil, fmt.Errorf("%w: page %s subcode %s row %d", ErrLinkingRow, p.Number, subcode, v.Number)
				}
				if v.Pages != nil {
					out = append(out, keyFastext+","+strings.Join(v.Pages, ","))
				}
			}
		}
	}
	return out, nil
}

func header(number, tag string, t time.Time) string {
	// magenta tag, green/cyan page number, red time stamp
	return fmt.Sprintf("%s,0,%s\x1bE%s\x1bB\x1bF%s\x1bA%d", keyOutputLine, strings.Repeat(" ", 8), tag, number, t.Unix())
}

func outputLine(tp page.TextPacket, subcode string, log *zap.Logger) (string, bool) {
	if tp.Number < page.FirstRow || tp.Number > page.LastRow {
		log.Debug("Skipping text packet outside of display rows", zap.String("subcode", subcode), zap.Int("row", tp.Number))
		return "", false
	}
	if page.Cells(tp.Text) > page.Width {
		log.Warn("Packet longer than 40 characters", zap.String("subcode", subcode), zap.Int("row", tp.Number), zap.String("text", tp.Text))
	}
	for _, r := range tp.Text {
		if r >= 128 {
			log.Warn("Unsafe character", zap.String("subcode", subcode), zap.Int("row", tp.Number), zap.String("char", string(r)))
		}
	}
	return keyOutputLine + "," + strconv.Itoa(tp.Number) + "," + Escape(tp.Text), true
}

// OutputPath returns location of TTI file for page number under dir.
func OutputPath(dir, number string) string {
	return filepath.Join(dir, OutputDir, "P"+number+".tti")
}

// WriteFile encodes page and writes it under dir (see OutputPath). When enc
// is not nil output is converted to that encoding. Nothing is written if
// encoding fails. Returns path to written file.
func WriteFile(dir string, p *page.Page, opts Options, enc encoding.Encoding, log *zap.Logger) (string, error) {
	lines, err := Encode(p, opts, log)
	if err != nil {
		return "", err
	}

	data := strings.Join(lines, LineEnding) + LineEnding
	if enc != nil {
		if data, err = enc.NewEncoder().String(data); err != nil {
			return "", fmt.Errorf("unable to convert page %s to requested encoding: %w", p.Number, err)
		}
	}

	path := OutputPath(dir, p.Number)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return "", fmt.Errorf("unable to write TTI file: %w", err)
	}
	return path, nil
}

package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ttx/layout"
	"ttx/page"
	"ttx/state"
)

// narrower blocks leave no room for colour cell, box and padding
const minWidth = 10

// window is a rectangle on target page block is overlaid into.
type window struct {
	startCol, startRow, endCol, endRow int
}

func parseWindow(s string) (*window, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("window must be START_COL,START_ROW,END_COL,END_ROW: %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad window coordinate %q: %w", p, err)
		}
		v[i] = n
	}
	w := &window{startCol: v[0], startRow: v[1], endCol: v[2], endRow: v[3]}
	if w.endCol-w.startCol < minWidth {
		return nil, fmt.Errorf("window is narrower than %d cells: %q", minWidth, s)
	}
	return w, nil
}

type layoutOptions struct {
	vars   string
	width  int
	row    int
	into   string
	window *window
	align  page.Align
}

// Layout lays out text block and either outputs packets as JSON or puts
// them into existing page.
func Layout(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("layout")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no layout block has been specified")
	}
	dst := cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	env.Overwrite = cmd.Bool("overwrite")

	opts := layoutOptions{
		vars:  cmd.String("vars"),
		width: env.Cfg.Layout.MaxWidth,
		row:   env.Cfg.Layout.StartRow,
		into:  cmd.String("into"),
	}
	if cmd.IsSet("width") {
		opts.width = cmd.Int("width")
	}
	if cmd.IsSet("row") {
		opts.row = cmd.Int("row")
	}
	if opts.width < minWidth || opts.width > page.Width {
		return fmt.Errorf("layout width must be within %d-%d: %d", minWidth, page.Width, opts.width)
	}
	if opts.row < page.FirstRow || opts.row > page.LastRow {
		return fmt.Errorf("start row must be within %d-%d: %d", page.FirstRow, page.LastRow, opts.row)
	}
	if w := cmd.String("window"); len(w) > 0 {
		if len(opts.into) == 0 {
			return errors.New("window requires target page (--into)")
		}
		if opts.window, err = parseWindow(w); err != nil {
			return err
		}
	}
	if opts.align, err = page.ParseAlign(cmd.String("align")); err != nil {
		return err
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return layoutBlock(ctx, src, dst, opts, log)
}

func layoutBlock(ctx context.Context, src, dst string, opts layoutOptions, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	block, err := layout.ReadBlock(src)
	if err != nil {
		return err
	}
	if err := env.Rpt.StoreCopy("source/"+filepath.Base(src), src); err != nil {
		log.Debug("Unable to copy source into report", zap.String("file", src), zap.Error(err))
	}

	vars := layout.Variables{}
	if len(opts.vars) > 0 {
		if vars, err = layout.ReadVariables(opts.vars); err != nil {
			return err
		}
		if err := env.Rpt.StoreCopy("source/"+filepath.Base(opts.vars), opts.vars); err != nil {
			log.Debug("Unable to copy variables into report", zap.String("file", opts.vars), zap.Error(err))
		}
	}

	engine := env.Layout()
	if len(opts.into) == 0 {
		packets := engine.LayoutBlock(block, opts.width, opts.row, vars)
		log.Debug("Block laid out", zap.Int("rows", len(packets)))
		return writeJSON(env, dst, page.Packets(packets), log)
	}

	target, err := readPage(env, opts.into, log)
	if err != nil {
		return err
	}
	if len(target.Subpages) == 0 {
		target.Subpages = []*page.Subpage{{}}
	}
	sp := target.Subpages[0]

	if w := opts.window; w != nil {
		packets := engine.LayoutBlock(block, w.endCol-w.startCol, page.FirstRow, vars)
		if sp.Packets, err = page.BlockOverlay(sp.Packets, packets, w.startCol, w.startRow, w.endCol, w.endRow, opts.align); err != nil {
			return err
		}
	} else {
		splice(sp, engine.LayoutBlock(block, opts.width, opts.row, vars))
	}

	if len(dst) == 0 {
		dst = "."
	}
	out, err := writeTTI(env, dst, target, log)
	if err != nil {
		return err
	}
	log.Info("Block placed", zap.String("page", target.Number), zap.String("to", out))
	return nil
}

// splice replaces rows of subpage with packets, rows not present are added.
func splice(sp *page.Subpage, packets []page.Packet) {
	for _, p := range packets {
		if idx := sp.Find(p.Row()); idx >= 0 {
			sp.Packets[idx] = p
			continue
		}
		sp.Packets = append(sp.Packets, p)
	}
	page.SortPackets(sp.Packets)
}

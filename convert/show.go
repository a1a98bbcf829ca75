package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ttx/config"
	"ttx/page"
	"ttx/preview"
	"ttx/state"
)

// Show renders a page subpage on terminal.
func Show(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("show")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no page has been specified")
	}
	opts := preview.Options{
		Border: !cmd.Bool("no-border"),
		Glyphs: !cmd.Bool("raw"),
	}
	switch {
	case cmd.Bool("color"):
		// colours even when output is redirected
		opts.Renderer = renderer(termenv.ANSI256)
	case !config.EnableColorOutput(os.Stdout):
		opts.Renderer = renderer(termenv.Ascii)
	}
	return show(ctx, os.Stdout, src, cmd.Int("subpage"), opts, log)
}

func renderer(profile termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(profile))
	r.SetColorProfile(profile)
	return r
}

func show(ctx context.Context, w io.Writer, src string, n int, opts preview.Options, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	p, err := readPage(env, src, log)
	if err != nil {
		return err
	}
	page.Resolve(p)
	if n < 1 || n > len(p.Subpages) {
		return fmt.Errorf("subpage %d is out of range 1-%d", n, len(p.Subpages))
	}

	sp := p.Subpages[n-1]
	log.Debug("Rendering subpage", zap.String("page", p.Number), zap.Int("subpage", n), zap.String("subcode", page.EffectiveSubcode(sp, n-1, len(p.Subpages))))
	_, err = fmt.Fprintln(w, preview.Render(sp, opts))
	return err
}

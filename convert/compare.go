package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ttx/page"
	"ttx/state"
)

var ErrPagesDiffer = errors.New("pages differ")

// Compare checks two pages (TTI or JSON) for structural equality.
func Compare(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compare")

	if cmd.Args().Len() < 2 {
		return errors.New("two pages are required")
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many pages", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	return compare(ctx, cmd.Args().Get(0), cmd.Args().Get(1), log)
}

func compare(ctx context.Context, a, b string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	pa, err := readPage(env, a, log)
	if err != nil {
		return err
	}
	pb, err := readPage(env, b, log)
	if err != nil {
		return err
	}

	if env.Rpt != nil {
		// what was actually compared
		for i, in := range []struct {
			name string
			p    *page.Page
		}{{a, pa}, {b, pb}} {
			if data, err := marshalIndent(page.Resolve(in.p.Clone())); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("compare/%d-%s.json", i+1, filepath.Base(in.name)), data)
			}
		}
	}

	if !page.Compare(pa, pb) {
		return fmt.Errorf("%w: %s and %s", ErrPagesDiffer, a, b)
	}
	log.Info("Pages are equal", zap.String("page", pa.Number), zap.String("first", a), zap.String("second", b))
	return nil
}

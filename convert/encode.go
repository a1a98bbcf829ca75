package convert

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"ttx/page"
	"ttx/state"
)

// Encode converts JSON (or TTI) page(s) into TTI files under
// DESTINATION/teletext.
func Encode(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("encode")

	src, dst, err := arguments(cmd, log)
	if err != nil {
		return err
	}
	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return encode(ctx, src, dst, cmd.Bool("number-subpages"), log)
}

func encode(ctx context.Context, src, dst string, number bool, log *zap.Logger) error {
	files, err := sources(src, extJSON, extJSONC, extTTI)
	if err != nil {
		return err
	}
	return processFiles(ctx, files, log, func(ctx context.Context, path string) error {
		env := state.EnvFromContext(ctx)

		p, err := readPage(env, path, log)
		if err != nil {
			return err
		}
		if number {
			if err := page.NumberSubpages(p, env.NumberOptions()); err != nil {
				return fmt.Errorf("unable to number subpages: %w", err)
			}
		}

		out, err := writeTTI(env, dst, p, log)
		if err != nil {
			return err
		}
		log.Info("Page encoded", zap.String("page", p.Number), zap.Int("subpages", len(p.Subpages)), zap.String("to", out))
		return nil
	})
}

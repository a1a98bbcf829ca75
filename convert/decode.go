package convert

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ttx/archive"
	"ttx/config"
	"ttx/page"
	"ttx/state"
	"ttx/tti"
)

// Decode converts TTI file(s) into JSON pages. Source could be a single file,
// directory or zip archive with TTI files.
func Decode(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("decode")

	src, dst, err := arguments(cmd, log)
	if err != nil {
		return err
	}
	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return decode(ctx, src, dst, cmd.Bool("minify"), log)
}

func decode(ctx context.Context, src, dst string, minify bool, log *zap.Logger) error {
	files, err := sources(src, extTTI, extZip)
	if err != nil {
		return err
	}
	return processFiles(ctx, files, log, func(ctx context.Context, file string) error {
		env := state.EnvFromContext(ctx)

		if strings.EqualFold(filepath.Ext(file), extZip) {
			return decodeArchive(ctx, env, file, dst, minify, log)
		}
		p, err := readPage(env, file, log)
		if err != nil {
			return err
		}
		return storeDecoded(env, p, file, dst, minify, log)
	})
}

// decodeArchive decodes every TTI file in zip archive. Broken entries are
// reported and skipped.
func decodeArchive(ctx context.Context, env *state.LocalEnv, file, dst string, minify bool, log *zap.Logger) error {
	if err := env.Rpt.StoreCopy("source/"+filepath.Base(file), file); err != nil {
		log.Debug("Unable to copy source into report", zap.String("file", file), zap.Error(err))
	}

	var failed error
	err := archive.Walk(file, []string{extTTI}, func(name string, r io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		elog := log.With(zap.String("entry", name))
		p, err := tti.Read(r, env.InputCharset, elog)
		if err == nil {
			err = storeDecoded(env, p, name, dst, minify, elog)
		}
		if err != nil {
			elog.Error("Unable to decode archive entry", zap.Error(err))
			failed = multierr.Append(failed, fmt.Errorf("%s: %w", name, err))
		}
		return nil
	})
	return multierr.Append(err, failed)
}

func storeDecoded(env *state.LocalEnv, p *page.Page, src, dst string, minify bool, log *zap.Logger) error {
	if minify {
		p = page.Minify(p)
	}
	out := filepath.Join(dst, decodedName(p, src))
	if err := writeJSON(env, out, p, log); err != nil {
		return err
	}
	log.Info("Page decoded", zap.String("page", p.Number), zap.Int("subpages", len(p.Subpages)), zap.String("to", out))
	return nil
}

// decodedName follows TTI naming (P<number>), pages without number keep
// source name.
func decodedName(p *page.Page, src string) string {
	if len(p.Number) > 0 {
		return "P" + config.CleanFileName(p.Number) + extJSON
	}
	base := path.Base(filepath.ToSlash(src))
	return strings.TrimSuffix(base, path.Ext(base)) + extJSON
}

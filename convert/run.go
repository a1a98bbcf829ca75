// Package convert implements program subcommands.
package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ttx/config"
	"ttx/page"
	"ttx/state"
	"ttx/tti"
)

const (
	extTTI  = ".tti"
	extJSON = ".json"
	// JSON with comments is accepted on input
	extJSONC = ".jsonc"
	// zip bundles of pages
	extZip = ".zip"
)

// arguments returns absolute source and destination from the command line,
// destination defaults to working directory.
func arguments(cmd *cli.Command, log *zap.Logger) (src, dst string, err error) {
	src = cmd.Args().Get(0)
	if len(src) == 0 {
		return "", "", errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return "", "", err
	}

	dst = cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return "", "", fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return "", "", err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	return src, dst, nil
}

// sources expands directory into files with one of requested extensions in
// natural order (P9 before P10). Subdirectories are not visited. A file is
// returned as is regardless of its extension.
func sources(src string, exts ...string) ([]string, error) {
	fi, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("input source was not found: %w", err)
	}
	if !fi.IsDir() {
		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("unexpected path mode for (%s)", src)
		}
		return []string{src}, nil
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && slices.Contains(exts, strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(natural.StringSlice(names))

	files := make([]string, 0, len(names))
	for _, n := range names {
		files = append(files, filepath.Join(src, n))
	}
	return files, nil
}

// processFiles calls fn for every file. Failures are logged and collected,
// processing continues with the next file unless context is cancelled.
func processFiles(ctx context.Context, files []string, log *zap.Logger, fn func(ctx context.Context, path string) error) (err error) {
	if len(files) == 0 {
		log.Debug("Nothing to process")
		return nil
	}
	for _, path := range files {
		if er := ctx.Err(); er != nil {
			return multierr.Append(err, er)
		}
		if er := processFile(ctx, path, log, fn); er != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(er))
			err = multierr.Append(err, fmt.Errorf("%s: %w", filepath.Base(path), er))
		}
	}
	return err
}

func processFile(ctx context.Context, path string, log *zap.Logger, fn func(ctx context.Context, path string) error) (rerr error) {
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Processing ended with panic",
				zap.Any("panic", r), zap.String("file", path), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
		} else {
			log.Debug("File processed", zap.String("file", path), zap.Duration("elapsed", time.Since(start)))
		}
	}(time.Now())

	return fn(ctx, path)
}

// readPage loads page from TTI or JSON file depending on extension. Source
// is copied into debug report.
func readPage(env *state.LocalEnv, path string, log *zap.Logger) (*page.Page, error) {
	if err := env.Rpt.StoreCopy("source/"+filepath.Base(path), path); err != nil {
		log.Debug("Unable to copy source into report", zap.String("file", path), zap.Error(err))
	}
	if strings.EqualFold(filepath.Ext(path), extTTI) {
		return tti.ReadFile(path, env.InputCharset, log)
	}
	return page.ReadFile(path)
}

// prepareOutput makes sure output file can be written.
func prepareOutput(env *state.LocalEnv, name string, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeJSON stores value as indented JSON, "-" or empty name means out.
func writeJSON(env *state.LocalEnv, name string, v any, log *zap.Logger) error {
	data, err := marshalIndent(v)
	if err != nil {
		return fmt.Errorf("unable to marshal JSON: %w", err)
	}
	if len(name) == 0 || name == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := prepareOutput(env, name, log); err != nil {
		return err
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("unable to write JSON: %w", err)
	}
	env.Rpt.Store("result/"+filepath.Base(name), name)
	return nil
}

// writeTTI encodes page under dst honoring overwrite setting.
func writeTTI(env *state.LocalEnv, dst string, p *page.Page, log *zap.Logger) (string, error) {
	if len(p.Number) > 0 && config.CleanFileName(p.Number) != p.Number {
		return "", fmt.Errorf("page number %q cannot be used as file name", p.Number)
	}
	if err := prepareOutput(env, tti.OutputPath(dst, p.Number), log); err != nil {
		return "", err
	}
	name, err := tti.WriteFile(dst, p, env.EncodeOptions(), env.OutputCharset, log)
	if err != nil {
		return "", err
	}
	env.Rpt.Store("result/"+filepath.Base(name), name)
	return name, nil
}

// Package state keeps program wide settings resolved from configuration and
// command line, subcommands get it from context.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"ttx/config"
	"ttx/legalise"
)

type envKey struct{}

// LocalEnv is shared by all subcommands of a single program run.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Resolved from Cfg by ApplyConfig, nil charset means UTF-8.
	InputCharset  encoding.Encoding
	OutputCharset encoding.Encoding
	Legaliser     legalise.Legaliser

	// Overwrite allows subcommands to replace existing output files.
	Overwrite bool

	start         time.Time
	restoreStdLog func()
}

// ContextWithEnv attaches fresh LocalEnv to ctx.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{
		start:     time.Now(),
		Legaliser: legalise.Identity,
	})
}

// EnvFromContext panics when ctx was not prepared by ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("program environment is missing from context")
	}
	return env
}

// Uptime is time passed since environment was created.
func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog sends standard library log output to Log, if any.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log != nil {
		e.restoreStdLog = zap.RedirectStdLog(e.Log)
	}
}

// RestoreStdLog flushes Log and undoes RedirectStdLog.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ttx/config"
	"ttx/convert"
	"ttx/misc"
	"ttx/state"
)

// errLogged is set when error has already been written to the log, so main
// does not repeat it on stderr.
var errLogged bool

// before loads configuration, opens debug report and logs and resolves
// settings subcommands depend on.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}
	env := state.EnvFromContext(ctx)

	var err error
	cfgFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(cfgFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		if len(cfgFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData("config/"+filepath.Base(cfgFile), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	if err := env.ApplyConfig(); err != nil {
		return ctx, fmt.Errorf("unable to apply configuration: %w", err)
	}

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))
	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(cfgFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

// after flushes logs, finalizes debug report and drops empty panic log. From
// here on errors could only go to stderr.
func after(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()

	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	if env.Cfg == nil || len(env.Cfg.Logging.FileLogger.Destination) == 0 {
		return err
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})
	name := env.Cfg.Logging.PanicLogName()
	if fi, er := os.Stat(name); er == nil && fi.Size() == 0 {
		if er := os.Remove(name); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", name, er))
		}
	}
	return err
}

// onExitErr runs before after(), while log is still open. Subcommands return
// plain errors, cli.Exit is not used.
func onExitErr(ctx context.Context, _ *cli.Command, err error) {
	if env := state.EnvFromContext(ctx); env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errLogged = true
	}
}

// onUsageErr leaves reporting to onExitErr or main.
func onUsageErr(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func onUnknownCommand(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

// help adds argument descriptions to standard command help.
func help(args string) string {
	return cli.CommandHelpTemplate + args
}

func overwriteFlag() cli.Flag {
	return &cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exists, overwrite files"}
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "decode",
			Usage:     "Converts TTI page file(s) to JSON",
			Action:    convert.Decode,
			ArgsUsage: "SOURCE [DESTINATION]",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "minify", Usage: "move rows shared by all subpages to page level"},
				overwriteFlag(),
			},
			CustomHelpTemplate: help(`
SOURCE:
    path to TTI file, zip archive with TTI files or directory with either
    (not recursive, processed in natural order)

DESTINATION:
    directory to put P<number>.json files into, if absent - current working directory
`),
		},
		{
			Name:      "encode",
			Usage:     "Converts JSON page file(s) to TTI",
			Action:    convert.Encode,
			ArgsUsage: "SOURCE [DESTINATION]",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "number-subpages", Aliases: []string{"ns"}, Usage: "put i/N counter on every subpage (see numbering configuration)"},
				overwriteFlag(),
			},
			CustomHelpTemplate: help(`
SOURCE:
    path to page file (.json, .jsonc or .tti) or directory with such files

DESTINATION:
    directory, pages are written to DESTINATION/teletext/P<number>.tti
    if absent - current working directory
`),
		},
		{
			Name:      "compare",
			Usage:     "Checks if two pages (TTI or JSON) are the same after inheritance resolution",
			Action:    convert.Compare,
			ArgsUsage: "FIRST SECOND",
		},
		{
			Name:      "layout",
			Usage:     "Lays out text block into teletext rows",
			Action:    convert.Layout,
			ArgsUsage: "BLOCK [DESTINATION]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "vars", Usage: "load variables for templates and lookups from `FILE` (JSON)"},
				&cli.IntFlag{Name: "width", Usage: "maximum row width in `CELLS` (default from configuration)"},
				&cli.IntFlag{Name: "row", Usage: "first `ROW` of the block (default from configuration)"},
				&cli.StringFlag{Name: "into", Usage: "put block into first subpage of `PAGE` (TTI or JSON) and write TTI"},
				&cli.StringFlag{Name: "window", Usage: "overlay block into `COL,ROW,COL,ROW` rectangle of target page"},
				&cli.StringFlag{Name: "align", Value: "left", Usage: "alignment of block inside window (left, right, centre)"},
				overwriteFlag(),
			},
			CustomHelpTemplate: help(`
BLOCK:
    path to layout block description (JSON, comments allowed)

DESTINATION:
    without --into: file to write packets to (JSON), if absent - STDOUT
    with --into: directory, page is written to DESTINATION/teletext/P<number>.tti
`),
		},
		{
			Name:      "show",
			Usage:     "Renders page on terminal",
			Action:    convert.Show,
			ArgsUsage: "PAGE",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "subpage", Aliases: []string{"s"}, Value: 1, Usage: "subpage `NUMBER` to render"},
				&cli.BoolFlag{Name: "no-border", Usage: "do not frame the page"},
				&cli.BoolFlag{Name: "raw", Usage: "show character codes instead of national glyphs"},
				&cli.BoolFlag{Name: "color", Usage: "always use colours, even when output is not a terminal"},
			},
		},
		{
			Name:      "dumpconfig",
			Usage:     "Dumps either default or actual configuration (YAML)",
			Action:    dumpConfig,
			ArgsUsage: "DESTINATION",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
			},
			CustomHelpTemplate: help(`
DESTINATION:
    file name to write configuration to, if absent - STDOUT

Actual configuration is the embedded defaults merged with configuration file
values, use --default to see defaults only.
`),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	cmds := commands()
	for _, c := range cmds {
		c.OnUsageError = onUsageErr
	}
	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "teletext page (TTI) codec and text layout tool",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          before,
		After:           after,
		OnUsageError:    onUsageErr,
		ExitErrHandler:  onExitErr,
		CommandNotFound: onUnknownCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: cmds,
	}

	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		if !errLogged {
			// log is either not ready yet or already closed
			fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		}
		os.Exit(1)
	}
}

func dumpConfig(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	kind, data := "actual", []byte(nil)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	var out io.Writer = os.Stdout
	name := cmd.Args().Get(0)
	if len(name) > 0 {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", name, err)
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		out = f
	} else {
		name = "STDOUT"
	}
	env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", name))

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

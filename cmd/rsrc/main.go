package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rsrc/common"
	"rsrc/config"
	"rsrc/misc"
	"rsrc/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if er := env.CloseProvider(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close resource bundle: %w", er))
	}

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Commands return regular errors, exit codes are set in main.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	modeUsage := "resolution `MODE` overriding configuration (" + strings.Join(common.ResolutionModeNames(), ", ") + ")"

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "locale aware strings and size aware images from resource bundles",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "string",
				Usage:        "Resolves string resource and evaluates it with arguments",
				OnUsageError: usageErrorHandler,
				Action:       outputString,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "locale", Aliases: []string{"l"}, Usage: "BCP 47 `TAG` of requested locale, configured locale if absent"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: modeUsage},
				},
				ArgsUsage: "KEY [ARG...]",
				CustomHelpTemplate: fmt.Sprintf(`%s
KEY:
    dot separated resource key, for example "Menu.File.Open"

ARG:
    positional template arguments, referenced in templates as {0}, {$1}, etc.
    Values which look like numbers participate in arithmetic and plural forms.
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "image",
				Usage:        "Resolves image resource and writes its content",
				OnUsageError: usageErrorHandler,
				Action:       outputImage,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Usage: "requested `SIZE`, the largest declared size not exceeding it is used"},
					&cli.BoolFlag{Name: "close", Usage: "do not substitute placeholder when nothing matches requested size"},
					&cli.BoolFlag{Name: "scalable", Usage: "request vector variant, with --size it is rendered to PNG"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: modeUsage},
				},
				ArgsUsage: "NAME [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
NAME:
    logical image name, path relative to images directory without size suffix
    and extension, for example "toolbar/open"

DESTINATION:
    file name to write image to, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "check",
				Usage:        "Verifies resource bundle and reports all problems found",
				OnUsageError: usageErrorHandler,
				Action:       checkBundle,
				ArgsUsage:    "[BUNDLE]",
				CustomHelpTemplate: fmt.Sprintf(`%s
BUNDLE:
    path to resource bundle directory or zip archive, configured bundle if absent
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "list",
				Usage:        "Lists string keys or image names available in resource bundle",
				OnUsageError: usageErrorHandler,
				Action:       listResources,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "locale", Aliases: []string{"l"}, Usage: "BCP 47 `TAG` of locale to list keys for, configured locale if absent"},
					&cli.BoolFlag{Name: "images", Aliases: []string{"i"}, Usage: "list images with their declared sizes instead of string keys"},
					&cli.BoolFlag{Name: "locales", Usage: "list locale tables present in bundle"},
				},
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values, values specified in configuration file and environment
overrides. To see default configuration embedded into the program use
--default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

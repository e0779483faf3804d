package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"textsearch/internal/analyzer"
	"textsearch/internal/app"
	"textsearch/internal/config"
	"textsearch/internal/logger"
	"textsearch/internal/tui"
)

// Version is injected at build time via -ldflags
var Version = "dev"

const (
	ExitOK       = 0
	ExitArgument = 1
	ExitRuntime  = 2
)

type flags struct {
	recursive     bool
	workers       int
	configFile    string
	onDecodeError string
	onDirError    string
	logLevel      string
	logFormat     string
	metricsFile   string
	tui           bool
}

// NewRootCommand builds the textsearch command writing results to stdout and
// diagnostics to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "textsearch <pattern> <path> [-r] [-n N]",
		Short: "Parallel literal substring search over files",
		Long: `textsearch prints every line containing <pattern> (a literal, case-sensitive
substring) in <path>. With -r it descends into directories. Files are split into
contiguous chunks, one per worker.

Each match is printed twice: "<line>:<text>" as soon as it is found, and
"<path>:<text>" after all workers have finished.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          positionalArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &config.ArgumentError{Msg: "invalid flag", Err: err}
	})

	fs := cmd.Flags()
	fs.BoolVarP(&f.recursive, "recursive", "r", false, "descend into directories")
	fs.IntVarP(&f.workers, "num-threads", "n", config.DefaultWorkers, "number of workers (positive integer)")
	fs.StringVar(&f.configFile, "config", "", "YAML config file (default ./"+config.DefaultFileName+" if present)")
	fs.StringVar(&f.onDecodeError, "on-decode-error", string(config.PolicySkip), "undecodable line: skip (warn, next file) or abort (stop that worker)")
	fs.StringVar(&f.onDirError, "on-dir-error", string(config.PolicyAbort), "unreadable directory: abort (fail the run) or skip (warn)")
	fs.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "log format: text or json")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus text metrics to this file after the run")
	fs.BoolVar(&f.tui, "tui", false, "show live progress on stderr (terminal only)")

	return cmd
}

func positionalArgs(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return config.Argumentf("Missing pattern argument")
	case 1:
		return config.Argumentf("Missing path argument")
	case 2:
		return nil
	default:
		return config.Argumentf("Unknown argument: %s", args[2])
	}
}

func run(cmd *cobra.Command, args []string, f flags, stdout, stderr io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	changed := cmd.Flags().Changed
	cfg, opts, err := config.Load(cwd, config.CLIArgs{
		Pattern:          args[0],
		Path:             args[1],
		Recursive:        f.recursive,
		ConfigFile:       f.configFile,
		Workers:          f.workers,
		WorkersSet:       changed("num-threads"),
		OnDecodeError:    f.onDecodeError,
		OnDecodeErrorSet: changed("on-decode-error"),
		OnDirError:       f.onDirError,
		OnDirErrorSet:    changed("on-dir-error"),
		LogLevel:         f.logLevel,
		LogLevelSet:      changed("log-level"),
		LogFormat:        f.logFormat,
		LogFormatSet:     changed("log-format"),
		MetricsFile:      f.metricsFile,
		TUI:              f.tui,
	})
	if err != nil {
		return err
	}

	log := logger.Setup(stderr, opts.LogLevel, opts.LogFormat)
	log.Debug("configuration loaded",
		"pattern", cfg.Pattern, "path", cfg.RootPath, "recursive", cfg.Recursive,
		"workers", cfg.Workers, "on_decode_error", opts.OnDecodeError, "on_dir_error", opts.OnDirError)

	d := &app.Driver{Stdout: stdout, Stderr: stderr, Logger: log}
	if opts.TUI {
		if isTerminal(stderr) {
			d.Progress = func(files []string, events <-chan analyzer.Event) error {
				return tui.Run(files, events, tui.Config{
					Pattern:   cfg.Pattern,
					RootPath:  cfg.RootPath,
					Recursive: cfg.Recursive,
					Workers:   cfg.Workers,
					TailMax:   20,
				}, stderr)
			}
		} else {
			log.Warn("--tui ignored: stderr is not a terminal")
		}
	}
	return d.Run(cfg, opts)
}

// Execute runs the command with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// nil 이면 cobra 가 os.Args 를 대신 읽는다
		args = []string{}
	}
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}
	color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
	code := ExitCode(err)
	if code == ExitArgument {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", cmd.Name())
	}
	return code
}

// ExitCode maps an error returned by a run to the process exit code.
func ExitCode(err error) int {
	var ae *config.ArgumentError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ae):
		return ExitArgument
	default:
		return ExitRuntime
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

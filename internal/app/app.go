package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"

	"textsearch/internal/analyzer"
	"textsearch/internal/collect"
	"textsearch/internal/config"
	"textsearch/internal/logger"
	"textsearch/internal/metrics"
	"textsearch/internal/scan"
	"textsearch/internal/sink"
)

// ProgressFunc renders live progress while the pool runs. It must return
// once it has seen a Done Totals or the channel is closed; whatever it leaves
// unread is drained by the driver.
type ProgressFunc func(files []string, events <-chan analyzer.Event) error

type Driver struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Progress 가 있으면 즉시 출력("<n>:<line>")은 stdout 대신 진행 화면으로 간다.
	Progress ProgressFunc

	warnMu sync.Mutex
}

var warnColor = color.New(color.FgYellow)

// Run: collect -> worker pool -> join -> print aggregated results.
//
// A DirectoryReadError under the abort policy fails before any output. A
// worker abort still prints the partial aggregated results, then returns the
// error.
func (d *Driver) Run(cfg config.SearchConfig, opts config.Options) error {
	log := logger.WithComponent(d.Logger, "driver")
	m := metrics.New()
	m.Workers.Set(float64(cfg.Workers))

	files, err := collect.Collect(cfg.RootPath, collect.Options{
		Recursive: cfg.Recursive,
		OnDirError: func(e *collect.DirectoryReadError) error {
			m.DirErrors.Inc()
			if opts.OnDirError == config.PolicyAbort {
				return e
			}
			d.warn("skipping directory: %v", e)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("collect %s: %w", cfg.RootPath, err)
	}
	m.FilesResolved.Set(float64(len(files)))
	log.Info("collected files", "root", cfg.RootPath, "recursive", cfg.Recursive, "files", len(files))

	results := sink.New()
	pool := &analyzer.Pool{
		Emitter:       scan.NewLineWriter(d.Stdout),
		OnDecodeError: opts.OnDecodeError,
		Warn:          func(err error) { d.warn("skipping rest of file: %v", err) },
		Observer:      m,
		Logger:        d.Logger,
	}

	var runErr error
	if d.Progress == nil {
		runErr = pool.Run(files, cfg, results)
	} else {
		runErr = d.runWithProgress(pool, files, cfg, results, log)
	}

	if err := writeResults(d.Stdout, results.Snapshot()); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	log.Info("search finished", "matches", results.Len(), "error", runErr)

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("write metrics %s: %w", opts.MetricsFile, err)
		}
	}
	return runErr
}

func (d *Driver) runWithProgress(pool *analyzer.Pool, files []string, cfg config.SearchConfig, results *sink.Sink, log *slog.Logger) error {
	events := make(chan analyzer.Event, 256)
	pool.Events = events
	pool.Emitter = nil

	errCh := make(chan error, 1)
	go func() { errCh <- pool.Run(files, cfg, results) }()

	if err := d.Progress(files, events); err != nil {
		log.Warn("progress view failed", "error", err)
	}
	// 화면이 먼저 끝나도(q) 워커가 막히지 않게 남은 이벤트를 비운다.
	for range events {
	}
	return <-errCh
}

func (d *Driver) warn(format string, args ...any) {
	d.warnMu.Lock()
	defer d.warnMu.Unlock()
	warnColor.Fprintf(d.Stderr, "warning: "+format+"\n", args...)
}

func writeResults(w io.Writer, recs []sink.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range recs {
		if _, err := fmt.Fprintln(bw, r.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

package analyzer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"textsearch/internal/config"
	"textsearch/internal/scan"
	"textsearch/internal/sink"
)

const totalsInterval = 200 * time.Millisecond

// Observer is told about every file a worker finished with.
type Observer interface {
	FileScanned(worker int, res scan.Result)
}

// ScanFunc scans one file; scan.File in production.
type ScanFunc func(path, pattern string, emit scan.Emitter) scan.Result

// Pool runs one goroutine per chunk of the file list. The zero value scans
// with scan.File and skips undecodable files.
type Pool struct {
	Scan    ScanFunc
	Emitter scan.Emitter

	// OnDecodeError: skip 이면 경고 후 다음 파일, abort 면 해당 워커만 중단.
	OnDecodeError config.FailurePolicy
	Warn          func(err error)

	Observer Observer
	// Events 가 있으면 진행 상황을 보내고, Run 이 끝날 때 닫는다.
	Events chan<- Event
	Logger *slog.Logger
}

type counters struct {
	filesDone int64
	lines     int64
	matches   int64
	seq       uint64
}

// Run partitions files into cfg.Workers chunks, scans them concurrently and
// appends every match to s. It returns after all workers have finished; the
// error is the first worker abort, if any. Other workers are never stopped early.
func (p *Pool) Run(files []string, cfg config.SearchConfig, s *sink.Sink) error {
	if cfg.Workers < 1 {
		return fmt.Errorf("analyzer: invalid worker count %d", cfg.Workers)
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "worker-pool")

	var c counters
	chunks := Partition(len(files), cfg.Workers)
	logger.Debug("partitioned files", "files", len(files), "workers", cfg.Workers, "chunk_size", len(files)/cfg.Workers)

	stopTicker := func() {}
	if p.Events != nil {
		p.Events <- Totals{FilesTotal: len(files)}
		for _, f := range files {
			p.Events <- FileUpdate{File: f, Worker: -1, Status: StatusWait}
		}
		stopTicker = p.startTicker(len(files), &c)
	}

	g := new(errgroup.Group)
	for _, ch := range chunks {
		g.Go(func() error {
			return p.work(ch, files[ch.Start:ch.End], cfg.Pattern, s, &c, logger)
		})
	}
	err := g.Wait()

	if p.Events != nil {
		stopTicker()
		p.Events <- Totals{
			FilesTotal:   len(files),
			FilesDone:    int(atomic.LoadInt64(&c.filesDone)),
			LinesTotal:   atomic.LoadInt64(&c.lines),
			MatchesTotal: atomic.LoadInt64(&c.matches),
			Done:         true,
			Err:          err,
		}
		close(p.Events)
	}
	return err
}

func (p *Pool) work(ch Chunk, files []string, pattern string, s *sink.Sink, c *counters, logger *slog.Logger) error {
	scanFn := p.Scan
	if scanFn == nil {
		scanFn = scan.File
	}
	emit := p.emitter(c)
	logger = logger.With("worker", ch.Worker)
	logger.Debug("worker started", "start", ch.Start, "end", ch.End)

	for i, path := range files {
		res := scanFn(path, pattern, emit)

		if len(res.Matches) > 0 {
			recs := make([]sink.Record, len(res.Matches))
			for j, m := range res.Matches {
				recs[j] = sink.Record{Path: path, LineNumber: m.LineNumber, Line: m.Line}
			}
			s.Append(recs...)
		}

		atomic.AddInt64(&c.filesDone, 1)
		atomic.AddInt64(&c.lines, res.Lines)
		atomic.AddInt64(&c.matches, int64(len(res.Matches)))
		if p.Observer != nil {
			p.Observer.FileScanned(ch.Worker, res)
		}
		p.send(fileUpdate(ch.Worker, res))

		if !res.Opened {
			logger.Debug("file skipped", "path", path)
		}
		if res.Err == nil {
			continue
		}
		if p.OnDecodeError == config.PolicyAbort {
			logger.Error("worker aborted", "path", path, "error", res.Err, "unscanned", len(files)-i-1)
			return fmt.Errorf("worker %d: %w", ch.Worker, res.Err)
		}
		if p.Warn != nil {
			p.Warn(res.Err)
		} else {
			logger.Warn("skipping rest of file", "path", path, "error", res.Err)
		}
	}
	logger.Debug("worker finished", "files", len(files))
	return nil
}

func (p *Pool) emitter(c *counters) scan.Emitter {
	if p.Events == nil {
		return p.Emitter
	}
	return scan.EmitterFunc(func(path string, m scan.Match) {
		if p.Emitter != nil {
			p.Emitter.Emit(path, m)
		}
		id := atomic.AddUint64(&c.seq, 1)
		p.Events <- MatchLine{Seq: id, File: path, LineNumber: m.LineNumber, Line: m.Line}
	})
}

func (p *Pool) send(ev Event) {
	if p.Events != nil {
		p.Events <- ev
	}
}

// startTicker: Totals 를 주기적으로 보낸다. 반환된 함수는 ticker 고루틴이 끝날 때까지 기다린다.
func (p *Pool) startTicker(total int, c *counters) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(totalsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Events <- Totals{
					FilesTotal:   total,
					FilesDone:    int(atomic.LoadInt64(&c.filesDone)),
					LinesTotal:   atomic.LoadInt64(&c.lines),
					MatchesTotal: atomic.LoadInt64(&c.matches),
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func fileUpdate(worker int, res scan.Result) FileUpdate {
	u := FileUpdate{
		File:    res.Path,
		Worker:  worker,
		Lines:   res.Lines,
		Matches: int64(len(res.Matches)),
		Status:  StatusDone,
		Err:     res.Err,
	}
	switch {
	case res.Err != nil:
		u.Status = StatusFail
	case !res.Opened:
		u.Status = StatusSkip
	}
	return u
}

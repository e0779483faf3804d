// Package metrics holds the Prometheus collectors for one search run. The
// registry is private to the run; it can be written out in text exposition
// format for a node_exporter textfile collector.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"textsearch/internal/scan"
)

// Metrics holds all collectors for a run.
type Metrics struct {
	registry *prometheus.Registry

	FilesScanned  *prometheus.CounterVec
	FilesSkipped  prometheus.Counter
	LinesScanned  prometheus.Counter
	MatchesTotal  prometheus.Counter
	DecodeErrors  prometheus.Counter
	DirErrors     prometheus.Counter
	Workers       prometheus.Gauge
	FilesResolved prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "textsearch_files_scanned_total",
				Help: "Files opened and scanned, by worker.",
			},
			[]string{"worker"},
		),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textsearch_files_skipped_total",
			Help: "Candidate paths that could not be opened as regular files.",
		}),
		LinesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textsearch_lines_scanned_total",
			Help: "Lines read across all files.",
		}),
		MatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textsearch_matches_total",
			Help: "Lines containing the pattern.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textsearch_decode_errors_total",
			Help: "Files whose scan stopped on an undecodable line.",
		}),
		DirErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "textsearch_directory_errors_total",
			Help: "Directories that could not be read during traversal.",
		}),
		Workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "textsearch_workers",
			Help: "Configured worker count.",
		}),
		FilesResolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "textsearch_candidate_files",
			Help: "Paths produced by the collector.",
		}),
	}
	m.registry.MustRegister(
		m.FilesScanned, m.FilesSkipped, m.LinesScanned, m.MatchesTotal,
		m.DecodeErrors, m.DirErrors, m.Workers, m.FilesResolved,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// FileScanned implements analyzer.Observer.
func (m *Metrics) FileScanned(worker int, res scan.Result) {
	if !res.Opened {
		m.FilesSkipped.Inc()
		return
	}
	m.FilesScanned.WithLabelValues(strconv.Itoa(worker)).Inc()
	m.LinesScanned.Add(float64(res.Lines))
	m.MatchesTotal.Add(float64(len(res.Matches)))
	if res.Err != nil {
		m.DecodeErrors.Inc()
	}
}

// WriteTextfile writes the registry atomically to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

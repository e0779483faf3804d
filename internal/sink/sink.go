package sink

import (
	"fmt"
	"sync"
)

// Record는 최종 출력 한 줄 "<path>:<line>" 의 원본입니다.
type Record struct {
	Path       string
	LineNumber int
	Line       string
}

func (r Record) String() string {
	return fmt.Sprintf("%s:%s", r.Path, r.Line)
}

// Sink is the append-only result list shared by every worker. The lock is
// held only for a single append, never across file I/O.
type Sink struct {
	mu      sync.Mutex
	records []Record
}

func New() *Sink {
	return &Sink{}
}

func (s *Sink) Append(recs ...Record) {
	if len(recs) == 0 {
		return
	}
	s.mu.Lock()
	s.records = append(s.records, recs...)
	s.mu.Unlock()
}

func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Snapshot returns a copy of all records. Call it only after every producer
// has finished.
func (s *Sink) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

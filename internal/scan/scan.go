package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"
)

// 긴 라인(기본 64KB 제한) 대비 버퍼 확장
const (
	initialBuffer = 64 * 1024
	maxLineLength = 8 * 1024 * 1024
)

// Match는 한 파일에서 패턴을 포함한 한 줄입니다. LineNumber 는 1부터.
type Match struct {
	LineNumber int
	Line       string
}

// LineDecodeError means a line could not be read as valid UTF-8 text (or was
// longer than the scanner buffer). Lines before it have already been scanned.
type LineDecodeError struct {
	Path       string
	LineNumber int
	Err        error
}

func (e *LineDecodeError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.LineNumber, e.Err)
}

func (e *LineDecodeError) Unwrap() error { return e.Err }

var ErrInvalidUTF8 = errors.New("line is not valid UTF-8")

// Result는 파일 하나의 스캔 결과입니다.
// Opened=false 면 열 수 없었던 파일(0 매치, 오류 아님)입니다.
type Result struct {
	Path    string
	Opened  bool
	Lines   int64
	Matches []Match
	Err     error
}

// Emitter receives every match as soon as it is found, before aggregation.
type Emitter interface {
	Emit(path string, m Match)
}

// EmitterFunc adapts a plain function to Emitter.
type EmitterFunc func(path string, m Match)

func (f EmitterFunc) Emit(path string, m Match) { f(path, m) }

// LineWriter prints "<lineNumber>:<lineText>" per match. Writes are
// serialized only so that a line is never split; ordering across workers
// is whatever the scheduler gives.
type LineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

func (lw *LineWriter) Emit(_ string, m Match) {
	lw.mu.Lock()
	fmt.Fprintf(lw.w, "%d:%s\n", m.LineNumber, m.Line)
	lw.mu.Unlock()
}

// File scans one path for lines containing pattern as a literal,
// case-sensitive substring. The empty pattern matches every line.
//
// 열기 실패(권한, 삭제됨, 일반 파일 아님)는 조용히 0 매치로 처리한다.
func File(path, pattern string, emit Emitter) Result {
	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return res
	}
	f, err := os.Open(path)
	if err != nil {
		return res
	}
	defer f.Close()
	res.Opened = true

	res.Lines, res.Matches, res.Err = Reader(path, f, pattern, emit)
	return res
}

// Reader does the line loop of File over any reader.
func Reader(path string, r io.Reader, pattern string, emit Emitter) (int64, []Match, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialBuffer), maxLineLength)

	var (
		lines   int64
		matches []Match
	)
	for scanner.Scan() {
		lines++
		txt := scanner.Text()
		if !utf8.ValidString(txt) {
			return lines - 1, matches, &LineDecodeError{Path: path, LineNumber: int(lines), Err: ErrInvalidUTF8}
		}
		if !strings.Contains(txt, pattern) {
			continue
		}
		m := Match{LineNumber: int(lines), Line: txt}
		matches = append(matches, m)
		if emit != nil {
			emit.Emit(path, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, matches, &LineDecodeError{Path: path, LineNumber: int(lines) + 1, Err: err}
	}
	return lines, matches, nil
}

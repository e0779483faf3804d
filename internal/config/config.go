package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultWorkers는 -n 이 없을 때의 워커 수입니다.
	DefaultWorkers = 2

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	// DefaultFileName은 --config 가 없을 때 작업 디렉터리에서 찾는 설정 파일입니다.
	DefaultFileName = ".textsearch.yaml"
)

const (
	EnvNumThreads    = "TEXTSEARCH_NUM_THREADS"
	EnvLogLevel      = "TEXTSEARCH_LOG_LEVEL"
	EnvLogFormat     = "TEXTSEARCH_LOG_FORMAT"
	EnvOnDecodeError = "TEXTSEARCH_ON_DECODE_ERROR"
	EnvOnDirError    = "TEXTSEARCH_ON_DIR_ERROR"
)

// FailurePolicy는 파일/디렉터리 단위 실패를 만났을 때의 동작입니다.
type FailurePolicy string

const (
	PolicySkip  FailurePolicy = "skip"
	PolicyAbort FailurePolicy = "abort"
)

func ParsePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyAbort:
		return p, nil
	default:
		return "", fmt.Errorf("policy must be skip or abort, got %q", s)
	}
}

// SearchConfig는 한 번의 실행 동안 모든 워커가 읽기 전용으로 공유합니다.
type SearchConfig struct {
	Pattern   string
	RootPath  string
	Recursive bool
	Workers   int
}

// Options는 검색 의미와 무관한 실행 설정입니다.
type Options struct {
	OnDecodeError FailurePolicy
	OnDirError    FailurePolicy
	LogLevel      string
	LogFormat     string
	MetricsFile   string
	TUI           bool
}

// ArgumentError는 검색 시작 전에 거부되는 모든 설정 오류입니다. (exit 1)
type ArgumentError struct {
	Msg string
	Err error
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ArgumentError) Unwrap() error { return e.Err }

func Argumentf(format string, args ...any) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// IsArgumentError reports whether err (or anything it wraps) is an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// CLIArgs는 명령행에서 받은 값과 "명시적으로 지정했는지" 정보를 함께 가집니다.
// 지정 여부가 있어야 CLI > env > file > default 우선순위를 구현할 수 있습니다.
type CLIArgs struct {
	Pattern    string
	Path       string
	Recursive  bool
	ConfigFile string

	Workers    int
	WorkersSet bool

	OnDecodeError    string
	OnDecodeErrorSet bool
	OnDirError       string
	OnDirErrorSet    bool

	LogLevel     string
	LogLevelSet  bool
	LogFormat    string
	LogFormatSet bool

	MetricsFile string
	TUI         bool
}

// Load merges the command line with environment variables (after loading a
// .env file from cwd) and the optional YAML file, then validates the result.
func Load(cwd string, cli CLIArgs) (SearchConfig, Options, error) {
	// .env 는 있으면 읽고, 이미 설정된 환경변수는 덮어쓰지 않는다.
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return SearchConfig{}, Options{}, &ArgumentError{Msg: "read .env", Err: err}
	}

	fc, err := loadFileConfig(cwd, cli.ConfigFile)
	if err != nil {
		return SearchConfig{}, Options{}, err
	}

	workers := DefaultWorkers
	if fc.NumThreads != nil {
		workers = *fc.NumThreads
	}
	if v, ok := lookupEnv(EnvNumThreads); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return SearchConfig{}, Options{}, Argumentf("%s must be an integer, got %q", EnvNumThreads, v)
		}
		workers = n
	}
	if cli.WorkersSet {
		workers = cli.Workers
	}

	decode := pick(string(PolicySkip), fc.OnDecodeError, EnvOnDecodeError, cli.OnDecodeError, cli.OnDecodeErrorSet)
	dir := pick(string(PolicyAbort), fc.OnDirError, EnvOnDirError, cli.OnDirError, cli.OnDirErrorSet)
	level := pick(DefaultLogLevel, fc.LogLevel, EnvLogLevel, cli.LogLevel, cli.LogLevelSet)
	format := pick(DefaultLogFormat, fc.LogFormat, EnvLogFormat, cli.LogFormat, cli.LogFormatSet)

	metricsFile := fc.MetricsFile
	if cli.MetricsFile != "" {
		metricsFile = cli.MetricsFile
	}

	sc, err := NewSearchConfig(cli.Pattern, cli.Path, cli.Recursive, workers)
	if err != nil {
		return SearchConfig{}, Options{}, err
	}

	opts := Options{
		LogLevel:    strings.ToLower(level),
		LogFormat:   strings.ToLower(format),
		MetricsFile: metricsFile,
		TUI:         cli.TUI,
	}
	if opts.OnDecodeError, err = ParsePolicy(decode); err != nil {
		return SearchConfig{}, Options{}, &ArgumentError{Msg: "invalid --on-decode-error", Err: err}
	}
	if opts.OnDirError, err = ParsePolicy(dir); err != nil {
		return SearchConfig{}, Options{}, &ArgumentError{Msg: "invalid --on-dir-error", Err: err}
	}
	if err := opts.validate(); err != nil {
		return SearchConfig{}, Options{}, err
	}
	return sc, opts, nil
}

// NewSearchConfig is the only constructor for SearchConfig; a zero or negative
// worker count never reaches the pool.
func NewSearchConfig(pattern, rootPath string, recursive bool, workers int) (SearchConfig, error) {
	if rootPath == "" {
		return SearchConfig{}, Argumentf("Missing path argument")
	}
	if workers < 1 {
		return SearchConfig{}, Argumentf("Number of threads must be a positive integer, got %d", workers)
	}
	return SearchConfig{
		Pattern:   pattern,
		RootPath:  rootPath,
		Recursive: recursive,
		Workers:   workers,
	}, nil
}

func (o Options) validate() error {
	switch o.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Argumentf("log level must be one of debug, info, warn, error, got %q", o.LogLevel)
	}
	switch o.LogFormat {
	case "text", "json":
	default:
		return Argumentf("log format must be text or json, got %q", o.LogFormat)
	}
	return nil
}

// pick: CLI > env > file > default
func pick(def, file, env, cli string, cliSet bool) string {
	v := def
	if strings.TrimSpace(file) != "" {
		v = file
	}
	if e, ok := lookupEnv(env); ok {
		v = e
	}
	if cliSet {
		v = cli
	}
	return v
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

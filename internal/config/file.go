package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig는 .textsearch.yaml 의 구조입니다. 포인터/빈 문자열은 "지정 안 함".
type FileConfig struct {
	NumThreads    *int   `yaml:"num_threads"`
	OnDecodeError string `yaml:"on_decode_error"`
	OnDirError    string `yaml:"on_dir_error"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	MetricsFile   string `yaml:"metrics_file"`
}

// loadFileConfig reads the explicit file if one was given (it must exist),
// otherwise the default file in cwd (optional).
func loadFileConfig(cwd, explicit string) (FileConfig, error) {
	path := strings.TrimSpace(explicit)
	required := path != ""
	if !required {
		path = filepath.Join(cwd, DefaultFileName)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return FileConfig{}, nil
		}
		return FileConfig{}, &ArgumentError{Msg: "read config " + path, Err: err}
	}

	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, &ArgumentError{Msg: "parse config " + path, Err: err}
	}
	return fc, nil
}

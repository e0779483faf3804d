package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvNumThreads, EnvLogLevel, EnvLogFormat, EnvOnDecodeError, EnvOnDirError} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	sc, opts, err := Load(cwd, CLIArgs{Pattern: "foo", Path: "a.txt"})
	require.NoError(t, err)

	assert.Equal(t, SearchConfig{Pattern: "foo", RootPath: "a.txt", Workers: DefaultWorkers}, sc)
	assert.Equal(t, PolicySkip, opts.OnDecodeError)
	assert.Equal(t, PolicyAbort, opts.OnDirError)
	assert.Equal(t, DefaultLogLevel, opts.LogLevel)
	assert.Equal(t, DefaultLogFormat, opts.LogFormat)
}

func TestLoad_EmptyPatternAllowed(t *testing.T) {
	clearEnv(t)
	sc, _, err := Load(t.TempDir(), CLIArgs{Pattern: "", Path: "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, "", sc.Pattern)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), "num_threads: 3\non_dir_error: skip\nlog_level: info\n")

	sc, opts, err := Load(cwd, CLIArgs{Pattern: "x", Path: "p"})
	require.NoError(t, err)
	assert.Equal(t, 3, sc.Workers)
	assert.Equal(t, PolicySkip, opts.OnDirError)
	assert.Equal(t, "info", opts.LogLevel)

	t.Setenv(EnvNumThreads, "5")
	sc, _, err = Load(cwd, CLIArgs{Pattern: "x", Path: "p"})
	require.NoError(t, err)
	assert.Equal(t, 5, sc.Workers)

	sc, _, err = Load(cwd, CLIArgs{Pattern: "x", Path: "p", Workers: 7, WorkersSet: true})
	require.NoError(t, err)
	assert.Equal(t, 7, sc.Workers)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvLogFormat)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, ".env"), EnvLogFormat+"=json\n")
	t.Cleanup(func() { os.Unsetenv(EnvLogFormat) })

	_, opts, err := Load(cwd, CLIArgs{Pattern: "x", Path: "p"})
	require.NoError(t, err)
	assert.Equal(t, "json", opts.LogFormat)
}

func TestLoad_ArgumentErrors(t *testing.T) {
	cases := []struct {
		name string
		file string
		env  map[string]string
		cli  CLIArgs
	}{
		{name: "zero workers", cli: CLIArgs{Pattern: "x", Path: "p", Workers: 0, WorkersSet: true}},
		{name: "negative workers", cli: CLIArgs{Pattern: "x", Path: "p", Workers: -2, WorkersSet: true}},
		{name: "missing path", cli: CLIArgs{Pattern: "x"}},
		{name: "bad env threads", env: map[string]string{EnvNumThreads: "two"}, cli: CLIArgs{Pattern: "x", Path: "p"}},
		{name: "bad policy", cli: CLIArgs{Pattern: "x", Path: "p", OnDecodeError: "retry", OnDecodeErrorSet: true}},
		{name: "bad level", cli: CLIArgs{Pattern: "x", Path: "p", LogLevel: "trace", LogLevelSet: true}},
		{name: "bad format", cli: CLIArgs{Pattern: "x", Path: "p", LogFormat: "xml", LogFormatSet: true}},
		{name: "unknown file key", file: "threads: 4\n", cli: CLIArgs{Pattern: "x", Path: "p"}},
		{name: "missing explicit config", cli: CLIArgs{Pattern: "x", Path: "p", ConfigFile: "/nonexistent/textsearch.yaml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cwd := t.TempDir()
			if tc.file != "" {
				writeFile(t, filepath.Join(cwd, DefaultFileName), tc.file)
			}
			_, _, err := Load(cwd, tc.cli)
			require.Error(t, err)
			assert.True(t, IsArgumentError(err), "want ArgumentError, got %T: %v", err, err)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Abort ")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	_, err = ParsePolicy("")
	assert.Error(t, err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

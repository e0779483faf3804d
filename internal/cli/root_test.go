package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textsearch/internal/collect"
	"textsearch/internal/config"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	// 작업 디렉터리의 .env/.textsearch.yaml 영향을 받지 않도록 빈 디렉터리에서 실행
	t.Chdir(t.TempDir())
	for _, k := range []string{config.EnvNumThreads, config.EnvLogLevel, config.EnvLogFormat, config.EnvOnDecodeError, config.EnvOnDirError} {
		t.Setenv(k, "")
	}
	var stdout, stderr bytes.Buffer
	code := Execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExecute_SingleFileScenario(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	writeFile(t, p, "foo bar\nbaz\nfoofoo\n")

	code, out, stderr := execute(t, "foo", p)
	require.Equal(t, ExitOK, code, stderr)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.ElementsMatch(t, []string{"1:foo bar", "3:foofoo"}, lines[:2])
	assert.ElementsMatch(t, []string{p + ":foo bar", p + ":foofoo"}, lines[2:])
}

func TestExecute_FlagsAnywhere(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "x.txt"), "needle\n")
	writeFile(t, filepath.Join(root, "b", "y.txt"), "hay\nneedle too\n")

	collectAgg := func(out string) []string {
		var recs []string
		for _, l := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
			if strings.HasPrefix(l, root) {
				recs = append(recs, l)
			}
		}
		sort.Strings(recs)
		return recs
	}

	code, out1, _ := execute(t, "-n", "1", "needle", root, "--recursive")
	require.Equal(t, ExitOK, code)
	code, out4, _ := execute(t, "needle", "-r", root, "--num-threads", "4")
	require.Equal(t, ExitOK, code)

	assert.Len(t, collectAgg(out1), 2)
	assert.Equal(t, collectAgg(out1), collectAgg(out4))
}

func TestExecute_MissingFileExitsZero(t *testing.T) {
	code, out, _ := execute(t, "foo", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, out)
}

func TestExecute_ArgumentErrors(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	writeFile(t, p, "foo\n")

	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{"no args", nil, "Missing pattern argument"},
		{"no path", []string{"foo"}, "Missing path argument"},
		{"extra positional", []string{"foo", p, "bar"}, "Unknown argument: bar"},
		{"unknown flag", []string{"foo", p, "--bogus"}, "unknown flag"},
		{"threads missing value", []string{"foo", p, "-n"}, "needs an argument"},
		{"threads not integer", []string{"foo", p, "-n", "two"}, "invalid argument"},
		{"threads zero", []string{"foo", p, "-n", "0"}, "positive"},
		{"bad policy", []string{"foo", p, "--on-decode-error", "maybe"}, "on-decode-error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out, stderr := execute(t, tc.args...)
			assert.Equal(t, ExitArgument, code)
			assert.Empty(t, out)
			assert.Contains(t, stderr, tc.msg)
		})
	}
}

func TestExecute_DirectoryErrorIsRuntimeFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores permission bits")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "x"), "foo\n")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	code, out, stderr := execute(t, "foo", root, "-r")
	assert.Equal(t, ExitRuntime, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "read directory")

	code, _, _ = execute(t, "foo", root, "-r", "--on-dir-error", "skip")
	assert.Equal(t, ExitOK, code)
}

func TestExecute_Help(t *testing.T) {
	code, out, _ := execute(t, "--help")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "--num-threads")
	assert.Contains(t, out, "--recursive")
}

func TestExecute_TUIWithoutTerminalFallsBack(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	writeFile(t, p, "foo\n")

	code, out, _ := execute(t, "foo", p, "--tui")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "1:foo\n"+p+":foo\n", out)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitArgument, ExitCode(config.Argumentf("x")))
	assert.Equal(t, ExitRuntime, ExitCode(&collect.DirectoryReadError{Dir: "d", Err: errors.New("denied")}))
}

package collect

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirectoryReadError는 재귀 탐색 중 디렉터리를 열거하지 못했을 때의 오류입니다.
type DirectoryReadError struct {
	Dir string
	Err error
}

func (e *DirectoryReadError) Error() string {
	return fmt.Sprintf("read directory %q: %v", e.Dir, e.Err)
}

func (e *DirectoryReadError) Unwrap() error { return e.Err }

// Options controls traversal. OnDirError, when set, is consulted for every
// unreadable directory: returning nil skips the subtree, returning an error
// aborts the walk with that error.
type Options struct {
	Recursive  bool
	OnDirError func(*DirectoryReadError) error
}

// Collect produces the candidate file list for root.
//
// 비재귀: root 하나만 (파일인지 여부는 스캔 시점에 판단).
// 재귀: 깊이 우선, 디렉터리 엔트리 순서는 파일시스템이 주는 그대로.
func Collect(root string, opts Options) ([]string, error) {
	if !opts.Recursive {
		return []string{root}, nil
	}

	files := make([]string, 0, 64)
	if err := walk(root, &files, opts.OnDirError); err != nil {
		return nil, err
	}
	return files, nil
}

func walk(path string, files *[]string, onErr func(*DirectoryReadError) error) error {
	// stat 은 심볼릭 링크를 따라간다: 디렉터리를 가리키면 내려가고, 끊긴 링크는 무시.
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Mode().IsRegular() {
		*files = append(*files, path)
		return nil
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := readDirUnsorted(path)
	if err != nil {
		de := &DirectoryReadError{Dir: path, Err: err}
		if onErr == nil {
			return de
		}
		return onErr(de)
	}

	for _, name := range entries {
		if err := walk(filepath.Join(path, name), files, onErr); err != nil {
			return err
		}
	}
	return nil
}

// readDirUnsorted returns entry names in the order the filesystem yields them.
// os.ReadDir would sort them, which hides enumeration order from callers.
func readDirUnsorted(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

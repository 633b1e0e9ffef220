// Package fsutil provides file system utility functions for MUSIC run
// directories.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DumpExt is the extension of MUSIC dumps.
const DumpExt = ".music"

// FindFilesByExtension lists the files directly inside dir whose name ends
// with extension, sorted by name.
func FindFilesByExtension(dir string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}
	return find(dir, func(name string) bool { return strings.HasSuffix(name, extension) })
}

// FindFilesByPrefix lists the files directly inside dir whose name starts
// with prefix, sorted by name.
func FindFilesByPrefix(dir string, prefix string) ([]string, error) {
	return find(dir, func(name string) bool { return strings.HasPrefix(name, prefix) })
}

func find(dir string, match func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && match(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// DumpPath is the path of dump idx for an output prefix such as
// "/run/out/run_".
func DumpPath(prefix string, idx int) string {
	return fmt.Sprintf("%s%08d%s", prefix, idx, DumpExt)
}

// DumpFiles maps the index of every dump matching prefix to its path.
// Files whose index is not an integer are ignored.
func DumpFiles(prefix string) (map[int]string, error) {
	dir, base := filepath.Split(prefix)
	if dir == "" {
		dir = "."
	}
	files, err := FindFilesByExtension(dir, DumpExt)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if !strings.HasPrefix(name, base) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, base), DumpExt))
		if err != nil || idx < 0 {
			continue
		}
		out[idx] = f
	}
	return out, nil
}

// MaxDumpIndex returns the highest dump index matching prefix, or -1 when
// there is none.
func MaxDumpIndex(prefix string) (int, error) {
	files, err := DumpFiles(prefix)
	if err != nil {
		return -1, err
	}
	highest := -1
	for idx := range files {
		highest = max(highest, idx)
	}
	return highest, nil
}

// Renumber moves the dumps of in, in name order, to out named after pattern
// with indices starting at 1. out must not exist. It returns the number of
// moved files.
func Renumber(in, out, pattern string) (int, error) {
	if pattern == "" {
		pattern = "%08d" + DumpExt
	}
	files, err := FindFilesByExtension(in, DumpExt)
	if err != nil {
		return 0, err
	}
	if err := os.Mkdir(out, 0o755); err != nil {
		return 0, err
	}
	for i, f := range files {
		dst := filepath.Join(out, fmt.Sprintf(pattern, i+1))
		if err := os.Rename(f, dst); err != nil {
			return i, fmt.Errorf("failed to move %s to %s: %w", f, dst, err)
		}
	}
	return len(files), nil
}

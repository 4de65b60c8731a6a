package onnx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// LibraryName is the onnxruntime shared library file name for this OS.
func LibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "libonnxruntime.so"
	}
}

// FindSharedLibrary looks for the onnxruntime library next to the
// executable, in the working directory, and in their lib/ subdirectories,
// then in up to five parent directories of each. Versioned names such as
// libonnxruntime.so.1.22.0 also match.
func FindSharedLibrary() (string, error) {
	var roots []string
	if exePath, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exePath))
	}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	return searchLibrary(LibraryName(), roots, 5)
}

func searchLibrary(name string, roots []string, depth int) (string, error) {
	var tried []string
	checked := make(map[string]bool)
	for _, root := range roots {
		cur := root
		for i := 0; i <= depth && cur != ""; i++ {
			if checked[cur] {
				break
			}
			checked[cur] = true
			for _, dir := range []string{cur, filepath.Join(cur, "lib")} {
				tried = append(tried, dir)
				if p := filepath.Join(dir, name); fileExists(p) {
					return p, nil
				}
				if m := globFirst(dir, name+".*"); m != "" {
					return m, nil
				}
			}
			parent := filepath.Dir(cur)
			if parent == cur {
				break
			}
			cur = parent
		}
	}
	return "", fmt.Errorf("%s not found, tried:\n  %s", name, strings.Join(tried, "\n  "))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func globFirst(dir, pat string) string {
	ms, err := filepath.Glob(filepath.Join(dir, pat))
	if err != nil {
		return ""
	}
	for _, m := range ms {
		if fileExists(m) {
			return m
		}
	}
	return ""
}

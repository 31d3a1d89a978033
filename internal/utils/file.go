package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// HasExtension reports whether filename ends with one of exts, ignoring
// case. Extensions may be given with or without the leading dot.
func HasExtension(filename string, exts []string) bool {
	ext := filepath.Ext(filename)
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Stem returns the base name of path without its extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HasMarker reports whether the stem of path ends with marker
func HasMarker(path, marker string) bool {
	return marker != "" && strings.HasSuffix(Stem(path), marker)
}

// GenerateOutputFilename returns <dir>/<stem><marker><ext> for input
func GenerateOutputFilename(input, marker string) string {
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(dir, fmt.Sprintf("%s%s%s", strings.TrimSuffix(base, ext), marker, ext))
}

// ListImageFiles recursively lists files under dir carrying one of exts
func ListImageFiles(dir string, exts []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.Type().IsRegular() && HasExtension(path, exts) {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// ListDirs recursively lists dir and all directories below it
func ListDirs(dir string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// RemoveIfExists deletes path, treating a missing file as success
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// FormatFileSize renders size with binary prefixes, e.g. "2.0 KB"
func FormatFileSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size) / 1024
	for _, prefix := range "KMGTP" {
		if value < 1024 {
			return fmt.Sprintf("%.1f %cB", value, prefix)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f EB", value)
}

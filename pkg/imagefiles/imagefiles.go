// Package imagefiles groups an image with the sidecar files that carry its
// metadata.
//
// An image may be a single file ("IMG_001.RAF") or several files sharing a
// name, e.g. "IMG_002.JPG" holding the pixels and "IMG_002.JPG.xmp" holding
// additional metadata.
package imagefiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/menta2k/image-redactor/internal/utils"
)

// SidecarExtension identifies metadata sidecar files (compared case-insensitively)
const SidecarExtension = ".xmp"

var (
	// ErrNotAFile is returned when the input path is not a regular file.
	ErrNotAFile = errors.New("not a file")
	// ErrEmptyGroup is returned when grouping found no file at all.
	ErrEmptyGroup = errors.New("empty file group")
)

// ImageFileSet is the ordered set of files making up one logical image.
// files[0] is the primary, pixel bearing file.
type ImageFileSet struct {
	files []string
}

// New groups path with its siblings whose name without extension equals
// the full name of path.
func New(path string) (*ImageFileSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAFile, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	dir := filepath.Dir(path)
	name := filepath.Base(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	files := []string{path}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == name {
			continue
		}
		if utils.Stem(entry.Name()) == name {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	return FromFiles(files)
}

// FromFiles builds a set from an explicit list; files[0] becomes the primary.
func FromFiles(files []string) (*ImageFileSet, error) {
	if len(files) == 0 {
		return nil, ErrEmptyGroup
	}
	return &ImageFileSet{files: append([]string(nil), files...)}, nil
}

// Primary returns the pixel bearing file
func (s *ImageFileSet) Primary() string {
	return s.files[0]
}

// Sidecar returns the metadata sidecar, if the set has one
func (s *ImageFileSet) Sidecar() (string, bool) {
	for _, f := range s.files[1:] {
		if IsSidecar(f) {
			return f, true
		}
	}
	return "", false
}

// MetadataSource returns the file to read metadata from. A sidecar is
// preferred over the image itself.
func (s *ImageFileSet) MetadataSource() string {
	if sidecar, ok := s.Sidecar(); ok {
		return sidecar
	}
	return s.Primary()
}

// Files returns a copy of all member paths
func (s *ImageFileSet) Files() []string {
	return append([]string(nil), s.files...)
}

func (s *ImageFileSet) String() string {
	return fmt.Sprintf("ImageFileSet%v", s.files)
}

// IsSidecar reports whether path carries the sidecar extension
func IsSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), SidecarExtension)
}

package exiftool

import (
	"context"
	"fmt"
	"sync"

	goexiftool "github.com/barasher/go-exiftool"
)

// StayOpen keeps one exiftool process running in -stay_open mode and
// serializes requests to it.
type StayOpen struct {
	mu sync.Mutex
	et *goexiftool.Exiftool
}

// NewStayOpen starts the exiftool process. binary may be empty.
func NewStayOpen(binary string) (*StayOpen, error) {
	var opts []func(*goexiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, goexiftool.SetExiftoolBinaryPath(binary))
	}

	et, err := goexiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exiftool: %w", err)
	}
	return &StayOpen{et: et}, nil
}

// Fields returns every metadata field exiftool reports for path
func (s *StayOpen) Fields(ctx context.Context, path string) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.et.ExtractMetadata(path)
	if len(data) == 0 {
		return nil, &ToolError{Args: []string{path}, Stderr: "no metadata returned", ExitCode: -1}
	}
	if data[0].Err != nil {
		return nil, &ToolError{Args: []string{path}, Stderr: data[0].Err.Error(), ExitCode: -1, cause: data[0].Err}
	}
	return data[0].Fields, nil
}

// Close stops the exiftool process
func (s *StayOpen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.et.Close()
}

package pipeline

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-redactor/pkg/types"
)

// Report collects the outcomes of a batch run. It is safe for concurrent use.
type Report struct {
	mu       sync.Mutex
	outcomes []types.Outcome
	counts   map[types.Status]int
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{counts: make(map[types.Status]int)}
}

// Add records one outcome
func (r *Report) Add(o types.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	r.counts[o.Status]++
}

// Count returns the number of outcomes with status
func (r *Report) Count(status types.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[status]
}

// Total returns the number of recorded outcomes
func (r *Report) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Outcomes returns all outcomes sorted by source path
func (r *Report) Outcomes() []types.Outcome {
	r.mu.Lock()
	out := append([]types.Outcome(nil), r.outcomes...)
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Failed returns the failed outcomes sorted by source path
func (r *Report) Failed() []types.Outcome {
	var failed []types.Outcome
	for _, o := range r.Outcomes() {
		if o.Status == types.StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// HasFailures reports whether any file failed
func (r *Report) HasFailures() bool {
	return r.Count(types.StatusFailed) > 0
}

// Summary returns a one-line count per status
func (r *Report) Summary() string {
	statuses := []types.Status{
		types.StatusRedacted,
		types.StatusWouldRedact,
		types.StatusNoMatch,
		types.StatusSkippedExists,
		types.StatusSkippedRedacted,
		types.StatusFailed,
	}

	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if n := r.Count(s); n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", s, n))
		}
	}
	if len(parts) == 0 {
		return "no files processed"
	}
	return strings.Join(parts, " ")
}

type reportEntry struct {
	Source      string       `yaml:"source"`
	Destination string       `yaml:"destination,omitempty"`
	Status      types.Status `yaml:"status"`
	Regions     int          `yaml:"regions,omitempty"`
	Error       string       `yaml:"error,omitempty"`
	Warning     string       `yaml:"warning,omitempty"`
}

type reportDocument struct {
	Total    int                  `yaml:"total"`
	Counts   map[types.Status]int `yaml:"counts"`
	Outcomes []reportEntry        `yaml:"outcomes"`
}

// WriteYAML writes the report as a YAML document to w
func (r *Report) WriteYAML(w io.Writer) error {
	outcomes := r.Outcomes()

	doc := reportDocument{
		Total:    len(outcomes),
		Counts:   make(map[types.Status]int),
		Outcomes: make([]reportEntry, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		doc.Counts[o.Status]++
		entry := reportEntry{
			Source:      o.Source,
			Destination: o.Destination,
			Status:      o.Status,
			Regions:     o.Regions,
			Warning:     o.Warning,
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		doc.Outcomes = append(doc.Outcomes, entry)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// SaveYAML writes the report to path
func (r *Report) SaveYAML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/menta2k/image-redactor/pkg/types"
)

func TestWatchRelevant(t *testing.T) {
	r := newFixture(t).runner(1)

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "a/IMG_1.png", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "a/IMG_1.png.xmp", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "a/IMG_1.JPG", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "a/IMG_1_blurred.png", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "a/.IMG_1_blurred.png.1234.tmp", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "a/IMG_1.png", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "a/notes.txt", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		if got := r.relevant(tt.event); got != tt.want {
			t.Errorf("relevant(%s) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestWatchRerunsOnNewImage(t *testing.T) {
	f := newFixture(t)
	writeTestImage(t, filepath.Join(f.dir, "a.png"))
	f.source.regions["a.png"] = []types.Region{face("Alice")}
	f.source.regions["b.png"] = []types.Region{face("Bob")}

	reports := make(chan *Report, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.runner(1).Watch(ctx, f.dir, 50*time.Millisecond, func(r *Report) {
			reports <- r
		})
	}()

	select {
	case r := <-reports:
		if r.Count(types.StatusRedacted) != 1 {
			t.Errorf("Expected the initial run to redact a.png, got %s", r.Summary())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the initial run")
	}

	writeTestImage(t, filepath.Join(f.dir, "b.png"))

	deadline := time.After(5 * time.Second)
	for redacted := false; !redacted; {
		select {
		case r := <-reports:
			redacted = r.Count(types.StatusRedacted) == 1 && r.Count(types.StatusSkippedExists) == 1
		case <-deadline:
			t.Fatal("Timed out waiting for a rerun")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Watch to return nil on cancel, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

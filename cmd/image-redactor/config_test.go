package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/image-redactor/internal/config"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		_ = configInitCmd.Flags().Set("force", "false")
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "redactor.yaml")

	out, err := executeRoot(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("Expected the written path in the output, got %q", out)
	}

	loaded, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Output.Marker != config.Default().Output.Marker {
		t.Errorf("Expected the default marker, got %q", loaded.Output.Marker)
	}

	out, err = executeRoot(t, "config", "validate", path)
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("Unexpected validate output %q", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("batch:\n  workers: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := executeRoot(t, "config", "init", path); err == nil {
		t.Fatal("Expected init to refuse an existing file")
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "workers: 3") {
		t.Error("Expected the existing file to be untouched")
	}

	if _, err := executeRoot(t, "config", "init", "--force", path); err != nil {
		t.Fatalf("config init --force failed: %v", err)
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Batch.Workers != config.Default().Batch.Workers {
		t.Errorf("Expected defaults after --force, got %d workers", cfg.Batch.Workers)
	}
}

func TestConfigValidateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("batch:\n  workers: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := executeRoot(t, "config", "validate", path)
	if err == nil || !strings.Contains(err.Error(), "batch.workers") {
		t.Errorf("Expected a workers validation error, got %v", err)
	}
}

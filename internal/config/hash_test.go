package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLock(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "signature:\n  key: hmac:x\n")

	report, err := Lock([]string{path}, true)
	if err != nil {
		t.Fatalf("Lock dry run failed: %v", err)
	}
	if report.Written {
		t.Error("dry run must not write")
	}
	if _, err := os.Stat(report.ChecksumPath); !os.IsNotExist(err) {
		t.Error("dry run created the manifest")
	}

	report, err = Lock([]string{path}, false)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if !report.Written {
		t.Error("report should mark the manifest written")
	}

	manifest, err := LoadChecksums(dir)
	if err != nil {
		t.Fatalf("LoadChecksums failed: %v", err)
	}
	want, _ := ComputeBlake3Hash(path)
	if manifest.Hashes[DefaultFileName] != want {
		t.Errorf("manifest hash = %q, want %q", manifest.Hashes[DefaultFileName], want)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("Load of locked config failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("signature:\n  key: hmac:y\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(path)
	if err == nil || !strings.Contains(err.Error(), "hash mismatch") {
		t.Fatalf("expected hash mismatch, got %v", err)
	}
}

func TestLoadChecksums_Missing(t *testing.T) {
	_, err := LoadChecksums(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestVerifyFiles_Unlisted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(path, []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := VerifyFiles(&ChecksumManifest{Version: 1, Hashes: map[string]string{}}, []string{path})
	if err == nil || !strings.Contains(err.Error(), "no hash in checksums") {
		t.Fatalf("expected missing hash error, got %v", err)
	}
}
